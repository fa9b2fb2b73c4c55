package interceptor

import (
	"sync"

	"github.com/beanhook/pkg/bean"
	"github.com/beanhook/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ClientInstrumenter 在 bean 初始化完成后给 Redis 客户端挂上拦截器，
// 来源 bean 名称即客户端 bean 的名称
type ClientInstrumenter struct {
	bean.NopListener

	interceptors []Interceptor
	exclude      map[string]struct{}
	log          *zap.Logger

	mu    sync.Mutex
	hooks map[string]*Hook
}

// NewClientInstrumenter 创建监听器
func NewClientInstrumenter(interceptors ...Interceptor) *ClientInstrumenter {
	return &ClientInstrumenter{
		interceptors: interceptors,
		exclude:      make(map[string]struct{}),
		log:          logger.Named("instrumenter"),
		hooks:        make(map[string]*Hook),
	}
}

// Exclude 跳过指定的客户端，比如用于发布事件的客户端
func (ci *ClientInstrumenter) Exclude(names ...string) *ClientInstrumenter {
	for _, n := range names {
		ci.exclude[n] = struct{}{}
	}
	return ci
}

func (ci *ClientInstrumenter) Order() int { return bean.HighestPrecedence }

func (ci *ClientInstrumenter) OnAfterBeanInitialized(name string, b any) error {
	client, ok := b.(redis.UniversalClient)
	if !ok {
		return nil
	}
	if _, skip := ci.exclude[name]; skip {
		return nil
	}

	ci.mu.Lock()
	defer ci.mu.Unlock()
	if _, done := ci.hooks[name]; done {
		return nil
	}
	ci.hooks[name] = Instrument(client, name, ci.interceptors...)
	ci.log.Info("Redis 客户端已挂载拦截器", logger.Bean(name), zap.Int("interceptors", len(ci.interceptors)))
	return nil
}

func (ci *ClientInstrumenter) OnAfterBeanDestroy(name string, _ any) error {
	ci.mu.Lock()
	delete(ci.hooks, name)
	ci.mu.Unlock()
	return nil
}

// Instrumented 已挂载拦截器的客户端名称
func (ci *ClientInstrumenter) Instrumented(name string) bool {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	_, ok := ci.hooks[name]
	return ok
}
