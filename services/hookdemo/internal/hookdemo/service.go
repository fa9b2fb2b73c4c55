package hookdemo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/beanhook/pkg/auth"
	"github.com/beanhook/pkg/bean"
	"github.com/beanhook/pkg/config"
	"github.com/beanhook/pkg/database"
	apperrors "github.com/beanhook/pkg/errors"
	"github.com/beanhook/pkg/event"
	"github.com/beanhook/pkg/interceptor"
	"github.com/beanhook/pkg/lifecycle"
	"github.com/beanhook/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// ClientBeanName 默认的 Redis 客户端 bean 名称
	ClientBeanName = "redisClient"
	CacheBeanName  = "userCache"
)

// Service 演示服务：容器 + 命令拦截 + 事件广播 + 回放
type Service struct {
	name     string
	cfg      *config.Config
	log      *zap.Logger
	registry *prometheus.Registry
	jwt      *auth.JWTManager

	container  *bean.Container
	captured   *event.MemorySink
	lifecycle  *lifecycle.Manager
	subscriber *event.Subscriber
	replayer   *event.Replayer
	mirror     *redis.Client
}

// NewService 创建服务，Redis 需已通过 database.InitRedis 初始化
func NewService(name string, cfg *config.Config) *Service {
	return &Service{
		name:     name,
		cfg:      cfg,
		log:      logger.Named(name),
		registry: prometheus.NewRegistry(),
		jwt:      auth.NewJWTManager(&cfg.Admin),
		captured: event.NewMemorySink(1000),
	}
}

func (s *Service) sourceBeanName() string {
	if s.cfg.Hooks.SourceBeanName != "" {
		return s.cfg.Hooks.SourceBeanName
	}
	return ClientBeanName
}

func (s *Service) interceptors() ([]interceptor.Interceptor, error) {
	hooks := &s.cfg.Hooks
	var list []interceptor.Interceptor

	if hooks.LogCommands {
		list = append(list, interceptor.NewLoggingInterceptor(logger.Named("redis"), hooks.SlowThreshold, hooks.Unit()))
	}
	if hooks.Metrics {
		m, err := interceptor.NewMetricsInterceptor(s.registry)
		if err != nil {
			return nil, fmt.Errorf("register redis metrics: %w", err)
		}
		list = append(list, m)
	}

	sinks := event.MultiSink{s.captured}
	if hooks.PublishEvents {
		// 发布使用全局客户端，它不挂载拦截器
		sinks = append(sinks, event.NewPublisher(database.GetRedis(), hooks.EventChannel))
	}
	list = append(list, event.NewInterceptor(sinks, hooks.WriteOnly))
	return list, nil
}

// Start 组装容器并启动订阅
func (s *Service) Start(ctx context.Context) error {
	hooks := &s.cfg.Hooks

	client, err := database.NewClient(s.cfg.Redis.DB)
	if err != nil {
		return fmt.Errorf("create redis client: %w", err)
	}
	s.mirror, err = database.NewClient(s.cfg.Redis.DB + 1)
	if err != nil {
		_ = client.Close()
		return fmt.Errorf("create mirror client: %w", err)
	}
	s.replayer = event.NewReplayer(s.mirror)

	s.container = bean.NewContainer()

	if hooks.Enabled {
		list, err := s.interceptors()
		if err != nil {
			return err
		}
		if err := s.container.RegisterSingleton("clientInstrumenter", interceptor.NewClientInstrumenter(list...)); err != nil {
			return err
		}
	}

	s.lifecycle = lifecycle.NewManager(database.GetRedis(), s.name, s.cfg.App.NodeID,
		lifecycle.WithChannel(hooks.LifecycleChannel),
		lifecycle.WithPhases(bean.PhaseReady, bean.PhaseAfterDestroy),
	)
	s.lifecycle.OnAnyPhase(func(msg *lifecycle.LifecycleMessage) {
		s.log.Debug("收到生命周期广播",
			zap.String("node_id", msg.NodeID),
			logger.Bean(msg.BeanName),
			logger.Phase(msg.Phase),
		)
	})

	defs := []*bean.Definition{
		{
			Name: s.sourceBeanName(),
			Factory: func(context.Context, []any) (any, error) {
				return client, nil
			},
			DestroyMethod: func(b any) error {
				return b.(*redis.Client).Close()
			},
		},
		{
			Name: CacheBeanName,
			Args: []any{client},
			Factory: func(_ context.Context, args []any) (any, error) {
				return database.NewCache(args[0].(redis.UniversalClient), ""), nil
			},
			Properties: bean.NewPropertyValues(map[string]any{"prefix": "user"}),
		},
	}

	if err := s.container.RegisterSingleton("lifecycleManager", s.lifecycle); err != nil {
		return err
	}
	for _, def := range defs {
		if err := s.container.Register(def); err != nil {
			return err
		}
	}

	if err := s.lifecycle.Start(); err != nil {
		return err
	}

	if hooks.PublishEvents {
		s.subscriber = event.NewSubscriber(database.GetRedis(), hooks.EventChannel)
		s.subscriber.OnEvent(s.replayer.Handle)
		if err := s.subscriber.Start(); err != nil {
			return err
		}
	}

	if err := s.container.Refresh(ctx); err != nil {
		return fmt.Errorf("refresh container: %w", err)
	}

	s.log.Info("服务已启动",
		zap.Strings("beans", s.container.BeanNames()),
		zap.Bool("hooks", hooks.Enabled),
		zap.Bool("publish_events", hooks.PublishEvents),
	)
	return nil
}

// AdminToken 签发管理接口令牌，未配置密钥时返回空串
func (s *Service) AdminToken(subject string) (string, error) {
	if s.jwt == nil {
		return "", nil
	}
	return s.jwt.GenerateToken(subject, s.cfg.App.NodeID)
}

// Cache 容器中的用户缓存
func (s *Service) Cache() (*database.Cache, error) {
	return bean.GetBeanOf[*database.Cache](s.container, CacheBeanName)
}

// RunDemo 执行一组示例命令
func (s *Service) RunDemo(ctx context.Context) error {
	cache, err := s.Cache()
	if err != nil {
		return err
	}
	if err := cache.Set(ctx, "1", "alice", time.Hour); err != nil {
		return err
	}
	if err := cache.HSet(ctx, "profile:1", "age", 30, "city", "shanghai"); err != nil {
		return err
	}
	if _, err := cache.Incr(ctx, "visits"); err != nil {
		return err
	}
	if _, err := cache.Get(ctx, "1"); err != nil {
		return err
	}
	return nil
}

// ReplayResult 一次手动回放的统计
type ReplayResult struct {
	Replayed int `json:"replayed"`
	// Skipped 已经回放过或不允许回放的事件
	Skipped int `json:"skipped"`
}

// ReplayCaptured 把本地捕获的事件同步回放到镜像库
//
// 已经通过订阅回放过的事件不会重复执行。
func (s *Service) ReplayCaptured(ctx context.Context) (ReplayResult, error) {
	var res ReplayResult
	for _, e := range s.captured.Events() {
		applied, err := s.replayer.Apply(ctx, e)
		switch {
		case apperrors.Is(err, apperrors.ErrReplayRejected):
			res.Skipped++
		case err != nil:
			return res, err
		case applied:
			res.Replayed++
		default:
			res.Skipped++
		}
	}
	return res, nil
}

// Stop 停止订阅并关闭容器
func (s *Service) Stop(ctx context.Context) error {
	var errs []error
	if s.subscriber != nil {
		if err := s.subscriber.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.container != nil {
		if err := s.container.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if s.lifecycle != nil {
		if err := s.lifecycle.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.mirror != nil {
		if err := s.mirror.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
