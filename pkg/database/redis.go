package database

import (
	"context"
	"sync"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/beanhook/pkg/config"
	"github.com/redis/go-redis/v9"
)

var (
	redisOnce   sync.Once
	redisClient *redis.Client
	redisCfg    *config.RedisConfig
	miniRedis   *miniredis.Miniredis // 内存模式的 Redis
)

// InitRedis 初始化Redis连接
func InitRedis(cfg *config.RedisConfig) error {
	var err error
	redisOnce.Do(func() {
		redisCfg = cfg
		if cfg.Mode == "memory" {
			// 使用内存模式（miniredis）
			miniRedis, err = miniredis.Run()
			if err != nil {
				return
			}
		}

		redisClient, err = NewClient(cfg.DB)
	})
	return err
}

// NewClient 在已初始化的 Redis 上创建一个独立客户端，db 为库号。
// 每个客户端可以单独挂载 Hook，调用方负责 Close。
func NewClient(db int) (*redis.Client, error) {
	if redisCfg == nil {
		panic("redis not initialized, call InitRedis first")
	}

	var client *redis.Client
	if miniRedis != nil {
		client = redis.NewClient(&redis.Options{
			Addr: miniRedis.Addr(),
			DB:   db,
		})
		return client, nil
	}

	// 使用外部 Redis 服务
	client = redis.NewClient(&redis.Options{
		Addr:     redisCfg.Addr(),
		Password: redisCfg.Password,
		DB:       db,
		PoolSize: redisCfg.PoolSize,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// GetRedis 获取Redis客户端
func GetRedis() *redis.Client {
	if redisClient == nil {
		panic("redis not initialized, call InitRedis first")
	}
	return redisClient
}

// CloseRedis 关闭Redis连接
func CloseRedis() error {
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			return err
		}
	}
	if miniRedis != nil {
		miniRedis.Close()
	}
	return nil
}
