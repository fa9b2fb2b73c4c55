package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/beanhook/pkg/config"
	"github.com/beanhook/pkg/database"
	"github.com/beanhook/pkg/logger"
	"github.com/beanhook/pkg/middleware"
	"github.com/beanhook/services/hookdemo/internal/hookdemo"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	serviceName = "hookdemo"
	servicePort = 28100
)

func main() {
	// 加载配置
	if err := config.Init(""); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Get()

	// 初始化日志
	if err := logger.Init(config.GetLog()); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("启动 Redis 拦截演示服务", zap.String("service", serviceName))

	// 初始化 Redis
	if err := database.InitRedis(&cfg.Redis); err != nil {
		logger.Fatal("Redis 初始化失败", zap.Error(err))
	}
	defer database.CloseRedis()

	ctx := context.Background()
	svc := hookdemo.NewService(serviceName, cfg)
	if err := svc.Start(ctx); err != nil {
		logger.Fatal("服务启动失败", zap.Error(err))
	}

	if err := svc.RunDemo(ctx); err != nil {
		logger.Error("示例命令执行失败", zap.Error(err))
	}

	// 开发环境打印一个管理令牌，方便调用回放接口
	if config.IsDev() {
		if token, err := svc.AdminToken("dev"); err != nil {
			logger.Warn("签发管理令牌失败", zap.Error(err))
		} else if token != "" {
			logger.Info("管理接口令牌", zap.String("token", token))
		}
	}

	// 创建 Fiber 应用
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	app.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.AccessLog(),
		middleware.ErrorHandler(),
	)
	svc.RegisterRoutes(app)

	// 启动 HTTP 服务
	go func() {
		addr := fmt.Sprintf(":%d", servicePort)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("HTTP 服务启动失败", zap.Error(err))
		}
	}()

	hooks := config.GetHooks()
	logger.Info("Redis 拦截演示服务已启动",
		zap.String("mode", cfg.Redis.Mode),
		zap.Int("port", servicePort),
		zap.Bool("publish_events", hooks.PublishEvents),
		zap.String("event_channel", hooks.EventChannel),
	)

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("正在关闭服务...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("HTTP 服务关闭失败", zap.Error(err))
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		logger.Error("停止服务失败", zap.Error(err))
	}

	logger.Info("Redis 拦截演示服务已停止")
}
