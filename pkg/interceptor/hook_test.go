package interceptor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/beanhook/pkg/bean"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type call struct {
	method  Method
	args    []any
	source  string
	started bool
	nanos   int64
	err     error
}

// capture 只记录业务命令，忽略建连时的 HELLO / CLIENT 等命令
type capture struct {
	mu    sync.Mutex
	order int
	calls []call
}

func (c *capture) Order() int { return c.order }

func (c *capture) BeforeExecute(mc *MethodContext) {
	if mc.Started() {
		panic("context started before BeforeExecute")
	}
}

func (c *capture) AfterExecute(mc *MethodContext, _ any, err error) {
	if mc.Method.Interface == GroupConnection {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call{
		method:  mc.Method,
		args:    mc.Args,
		source:  mc.SourceBeanName,
		started: mc.Started(),
		nanos:   mc.DurationNanos(),
		err:     err,
	})
}

func (c *capture) all() []call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]call(nil), c.calls...)
}

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestHookInterceptsCommands(t *testing.T) {
	client := newTestClient(t)
	rec := &capture{}
	h := Instrument(client, "cache", rec)
	assert.Equal(t, "cache", h.Source())

	ctx := context.Background()
	require.NoError(t, client.Set(ctx, "k", "v", 0).Err())
	require.ErrorIs(t, client.Get(ctx, "missing").Err(), redis.Nil)

	calls := rec.all()
	require.Len(t, calls, 2)

	assert.Equal(t, Method{Interface: GroupString, Name: "set"}, calls[0].method)
	assert.Equal(t, []any{"k", "v"}, calls[0].args)
	assert.Equal(t, "cache", calls[0].source)
	assert.True(t, calls[0].started)
	assert.GreaterOrEqual(t, calls[0].nanos, int64(0))
	assert.NoError(t, calls[0].err)

	assert.Equal(t, "get", calls[1].method.Name)
	assert.ErrorIs(t, calls[1].err, redis.Nil)
}

func TestHookInterceptsPipeline(t *testing.T) {
	client := newTestClient(t)
	rec := &capture{}
	Instrument(client, "", rec)

	ctx := context.Background()
	_, err := client.Pipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, "h", "f", "1")
		p.Incr(ctx, "n")
		return nil
	})
	require.NoError(t, err)

	calls := rec.all()
	require.Len(t, calls, 2)
	assert.Equal(t, Method{Interface: GroupHash, Name: "hset"}, calls[0].method)
	assert.Equal(t, Method{Interface: GroupString, Name: "incr"}, calls[1].method)
	for _, c := range calls {
		assert.Equal(t, NoSourceBeanName, c.source)
		assert.True(t, c.started)
	}
}

func TestChainOrder(t *testing.T) {
	var seen []string
	mk := func(id string) Funcs {
		return Funcs{
			Before: func(*MethodContext) { seen = append(seen, "before:"+id) },
			After:  func(*MethodContext, any, error) { seen = append(seen, "after:"+id) },
		}
	}
	first := &orderedFuncs{Funcs: mk("first"), order: 1}
	chain := NewChain(mk("last"), nil, first)
	require.Equal(t, 2, chain.Len())

	mc := NewMethodContext(context.Background(), nil, MethodOf("get"), nil)
	chain.BeforeExecute(mc)
	chain.AfterExecute(mc, nil, nil)

	assert.Equal(t, []string{"before:first", "before:last", "after:last", "after:first"}, seen)
}

type orderedFuncs struct {
	Funcs
	order int
}

func (o *orderedFuncs) Order() int { return o.order }

func TestMetricsInterceptor(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetricsInterceptor(reg)
	require.NoError(t, err)

	// 重复注册复用已有指标
	again, err := NewMetricsInterceptor(reg)
	require.NoError(t, err)
	assert.Same(t, m.duration, again.duration)

	client := newTestClient(t)
	Instrument(client, "cache", m)

	ctx := context.Background()
	require.NoError(t, client.Set(ctx, "k", "v", 0).Err())
	require.Error(t, client.Do(ctx, "nosuchcmd").Err())
	require.ErrorIs(t, client.Get(ctx, "missing").Err(), redis.Nil)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.errors.WithLabelValues("nosuchcmd", "cache")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.errors.WithLabelValues("get", "cache")))
	assert.GreaterOrEqual(t, testutil.CollectAndCount(m.duration, "redis_command_duration_seconds"), 3)
}

func TestLoggingInterceptor(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewLoggingInterceptor(zap.New(core), time.Nanosecond, time.Microsecond)

	mc := NewMethodContextWithSource(context.Background(), nil, MethodOf("set"), nil, "cache")
	mc.Start()
	time.Sleep(time.Millisecond)
	l.AfterExecute(mc, nil, nil)

	slow := logs.FilterMessage("Redis 慢命令").All()
	require.Len(t, slow, 1)
	assert.Equal(t, zapcore.WarnLevel, slow[0].Level)
	assert.Equal(t, "us", slow[0].ContextMap()["unit"])

	l.AfterExecute(mc, nil, errors.New("boom"))
	assert.Equal(t, 1, logs.FilterMessage("Redis 命令执行失败").Len())

	fast := NewLoggingInterceptor(zap.New(core), 0, 0)
	fast.AfterExecute(mc, nil, redis.Nil)
	debug := logs.FilterMessage("Redis 命令").All()
	require.Len(t, debug, 1)
	assert.Equal(t, zapcore.DebugLevel, debug[0].Level)
}

func TestClientInstrumenter(t *testing.T) {
	rec := &capture{}
	ci := NewClientInstrumenter(rec).Exclude("publisher")

	cache := newTestClient(t)
	publisher := newTestClient(t)

	c := bean.NewContainer(bean.WithLogger(zap.NewNop()))
	require.NoError(t, c.RegisterSingleton("instrumenter", ci))
	require.NoError(t, c.Register(bean.Of("cache", cache)))
	require.NoError(t, c.Register(bean.Of("publisher", publisher)))
	require.NoError(t, c.Register(bean.Of("other", struct{}{})))

	ctx := context.Background()
	require.NoError(t, c.Refresh(ctx))

	assert.True(t, ci.Instrumented("cache"))
	assert.False(t, ci.Instrumented("publisher"))
	assert.False(t, ci.Instrumented("other"))

	require.NoError(t, cache.Set(ctx, "a", "1", 0).Err())
	require.NoError(t, publisher.Set(ctx, "b", "2", 0).Err())

	calls := rec.all()
	require.Len(t, calls, 1)
	assert.Equal(t, "cache", calls[0].source)

	require.NoError(t, c.Close(ctx))
	assert.False(t, ci.Instrumented("cache"))
}
