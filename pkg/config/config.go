package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	once   sync.Once
	config *Config
)

// Config 全局配置结构
type Config struct {
	App   AppConfig   `mapstructure:"app"`
	Redis RedisConfig `mapstructure:"redis"`
	Log   LogConfig   `mapstructure:"log"`
	Hooks HooksConfig `mapstructure:"hooks"`
	Admin AdminConfig `mapstructure:"admin"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
	NodeID  string `mapstructure:"nodeId"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"poolSize"`
	Mode     string `mapstructure:"mode"` // "standalone" 外部 Redis, "memory" 内存模式
}

// Addr 获取Redis地址
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAge     int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

// AdminConfig 管理接口配置，JWTSecret 为空时不做认证
type AdminConfig struct {
	JWTSecret string `mapstructure:"jwtSecret"`
	Issuer    string `mapstructure:"issuer"`
	Expire    int    `mapstructure:"expire"` // 秒
}

// HooksConfig Redis 命令拦截与 Bean 生命周期广播配置
type HooksConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	SourceBeanName   string        `mapstructure:"sourceBeanName"`
	LogCommands      bool          `mapstructure:"logCommands"`
	SlowThreshold    time.Duration `mapstructure:"slowThreshold"`
	DurationUnit     string        `mapstructure:"durationUnit"` // ns, us, ms, s
	PublishEvents    bool          `mapstructure:"publishEvents"`
	EventChannel     string        `mapstructure:"eventChannel"`
	WriteOnly        bool          `mapstructure:"writeOnly"`
	Metrics          bool          `mapstructure:"metrics"`
	LifecycleChannel string        `mapstructure:"lifecycleChannel"`
}

// Unit 将 DurationUnit 解析为 time.Duration，未知值回退为纳秒
func (c *HooksConfig) Unit() time.Duration {
	switch strings.ToLower(c.DurationUnit) {
	case "us", "µs":
		return time.Microsecond
	case "ms":
		return time.Millisecond
	case "s":
		return time.Second
	default:
		return time.Nanosecond
	}
}

const (
	DefaultEventChannel     = "redis:command:events"
	DefaultLifecycleChannel = "bean:lifecycle"
)

// Default 返回内存模式下的默认配置，不读取任何文件
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:    "beanhook",
			Env:     "dev",
			Version: "1.0.0",
		},
		Redis: RedisConfig{
			Host: "127.0.0.1",
			Port: 6379,
			Mode: "memory",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
			Output: "console",
		},
		Hooks: HooksConfig{
			Enabled:          true,
			LogCommands:      true,
			SlowThreshold:    100 * time.Millisecond,
			DurationUnit:     "ns",
			PublishEvents:    true,
			EventChannel:     DefaultEventChannel,
			WriteOnly:        true,
			Metrics:          true,
			LifecycleChannel: DefaultLifecycleChannel,
		},
		Admin: AdminConfig{
			Issuer: "beanhook",
			Expire: 7200,
		},
	}
}

// Init 初始化配置
func Init(configPath string) error {
	var err error
	once.Do(func() {
		config = Default()
		err = loadConfig(configPath, config)
	})
	return err
}

// Load 从指定路径加载一份独立的配置（不影响全局实例）
func Load(configPath string) (*Config, error) {
	cfg := Default()
	if err := loadConfig(configPath, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadConfig 加载配置文件
func loadConfig(configPath string, cfg *Config) error {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// 加载环境特定配置
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = v.GetString("app.env")
	}

	if env != "" && env != "default" && configPath == "" {
		v.SetConfigName(fmt.Sprintf("config.%s", env))
		if err := v.MergeInConfig(); err != nil {
			// 环境配置文件不存在不报错
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return fmt.Errorf("failed to merge env config: %w", err)
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	resolveEnvVars(cfg)
	applyDefaults(cfg)

	return nil
}

// applyDefaults 补全文件中缺省的通道名
func applyDefaults(cfg *Config) {
	if cfg.Hooks.EventChannel == "" {
		cfg.Hooks.EventChannel = DefaultEventChannel
	}
	if cfg.Hooks.LifecycleChannel == "" {
		cfg.Hooks.LifecycleChannel = DefaultLifecycleChannel
	}
	if cfg.App.NodeID == "" {
		cfg.App.NodeID = cfg.App.Name + "-1"
	}
}

// resolveEnvVars 解析环境变量占位符
func resolveEnvVars(cfg *Config) {
	cfg.Redis.Host = resolveEnvVar(cfg.Redis.Host)
	cfg.Redis.Password = resolveEnvVar(cfg.Redis.Password)
	cfg.App.NodeID = resolveEnvVar(cfg.App.NodeID)
	cfg.Admin.JWTSecret = resolveEnvVar(cfg.Admin.JWTSecret)
}

// resolveEnvVar 解析单个环境变量
func resolveEnvVar(value string) string {
	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
		envKey := strings.TrimSuffix(strings.TrimPrefix(value, "${"), "}")
		// 未设置的占位符视为空值，交给 applyDefaults 处理
		return os.Getenv(envKey)
	}
	return value
}

// Get 获取配置实例
func Get() *Config {
	if config == nil {
		panic("config not initialized, call Init first")
	}
	return config
}

// GetRedis 获取Redis配置
func GetRedis() *RedisConfig {
	return &Get().Redis
}

// GetLog 获取日志配置
func GetLog() *LogConfig {
	return &Get().Log
}

// GetHooks 获取拦截配置
func GetHooks() *HooksConfig {
	return &Get().Hooks
}

// IsDev 是否为开发环境
func IsDev() bool {
	return Get().App.Env == "dev" || Get().App.Env == "development"
}
