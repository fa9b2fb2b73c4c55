package event

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	apperrors "github.com/beanhook/pkg/errors"
	"github.com/beanhook/pkg/interceptor"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, mr *miniredis.Miniredis) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestInterceptorRecordsWriteCommands(t *testing.T) {
	mr := miniredis.RunT(t)
	client := newClient(t, mr)
	sink := NewMemorySink(0)
	interceptor.Instrument(client, "cache", NewInterceptor(sink, true))

	ctx := context.Background()
	require.NoError(t, client.Set(ctx, "k", "v", 0).Err())
	require.NoError(t, client.Get(ctx, "k").Err())
	require.Error(t, client.Do(ctx, "nosuchcmd").Err())
	require.NoError(t, client.Del(ctx, "k").Err())
	require.NoError(t, client.Publish(ctx, "ch", "x").Err())

	events := sink.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "set", events[0].MethodName)
	assert.Equal(t, "del", events[1].MethodName)
	for _, e := range events {
		assert.Equal(t, "cache", e.SourceBeanName)
		assert.GreaterOrEqual(t, e.DurationNanos, int64(0))
	}
}

func TestPublishSubscribeReplay(t *testing.T) {
	source := miniredis.RunT(t)
	target := miniredis.RunT(t)

	app := newClient(t, source)
	sub := NewSubscriber(newClient(t, source), "")
	received := NewMemorySink(0)
	replayer := NewReplayer(newClient(t, target))

	ctx := context.Background()
	sub.OnEvent(replayer.Handle)
	sub.OnEvent(func(e *CommandEvent) { _ = received.Send(ctx, e) })
	require.NoError(t, sub.Start())
	t.Cleanup(func() { _ = sub.Stop() })

	interceptor.Instrument(app, "cache", NewInterceptor(NewPublisher(newClient(t, source), ""), true))

	require.NoError(t, app.Set(ctx, "user:1", "alice", time.Minute).Err())
	require.NoError(t, app.HSet(ctx, "profile:1", "age", 30).Err())
	require.NoError(t, app.Incr(ctx, "visits").Err())
	require.NoError(t, app.Get(ctx, "user:1").Err())

	require.Eventually(t, func() bool { return received.Len() == 3 }, 2*time.Second, 10*time.Millisecond)

	events := received.Events()
	assert.Equal(t, []string{"set", "hset", "incr"}, []string{events[0].MethodName, events[1].MethodName, events[2].MethodName})

	v, err := target.Get("user:1")
	require.NoError(t, err)
	assert.Equal(t, "alice", v)
	assert.Equal(t, time.Minute, target.TTL("user:1"))
	assert.Equal(t, "30", target.HGet("profile:1", "age"))
	v, err = target.Get("visits")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestReplayerRules(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewReplayer(newClient(t, mr))
	ctx := context.Background()

	get, err := New(interceptor.GroupString, "get", "cache", "k")
	require.NoError(t, err)
	assert.True(t, apperrors.Is(r.Replay(ctx, get), apperrors.ErrReplayRejected))

	// 读命令放行后 redis.Nil 不算失败
	assert.NoError(t, NewReplayer(newClient(t, mr), AllowReadCommands()).Replay(ctx, get))

	set, err := New(interceptor.GroupString, "set", "mirror", "k", "v")
	require.NoError(t, err)
	ignoring := NewReplayer(newClient(t, mr), IgnoreSources("mirror"))
	require.NoError(t, ignoring.Replay(ctx, set))
	assert.False(t, mr.Exists("k"))

	require.NoError(t, r.Send(ctx, set))
	v, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	broken := &CommandEvent{MethodName: "set", ParameterTypes: []string{"weird"}, Args: [][]byte{[]byte("x")}}
	assert.True(t, apperrors.Is(r.Replay(ctx, broken), apperrors.ErrUnknownArgType))
}

func TestSubscriberIgnoresMalformedPayload(t *testing.T) {
	mr := miniredis.RunT(t)
	sub := NewSubscriber(newClient(t, mr), "custom")
	called := false
	sub.OnEvent(func(*CommandEvent) { called = true })

	sub.handleMessage("not json")
	assert.False(t, called)

	e, err := New(interceptor.GroupKey, "del", "cache", "k")
	require.NoError(t, err)
	data, err := Marshal(e)
	require.NoError(t, err)
	sub.handleMessage(string(data))
	assert.True(t, called)

	// 未启动时 Stop 直接返回
	assert.NoError(t, sub.Stop())
}

func TestInterceptorSkipsConnectionCommands(t *testing.T) {
	mr := miniredis.RunT(t)
	client := newClient(t, mr)
	sink := NewMemorySink(0)
	// 在第一次建连前挂载，HELLO 和 CLIENT SETINFO 都会经过拦截器
	interceptor.Instrument(client, "cache", NewInterceptor(sink, false))

	ctx := context.Background()
	require.NoError(t, client.Ping(ctx).Err())
	require.NoError(t, client.Set(ctx, "k", "v", 0).Err())
	require.NoError(t, client.Get(ctx, "k").Err())

	var methods []string
	for _, e := range sink.Events() {
		methods = append(methods, e.MethodName)
	}
	assert.Equal(t, []string{"set", "get"}, methods)
}

func TestReplayerAppliesEachEventOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewReplayer(newClient(t, mr))
	ctx := context.Background()

	incr, err := New(interceptor.GroupString, "incr", "cache", "visits")
	require.NoError(t, err)

	applied, err := r.Apply(ctx, incr)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.True(t, r.Replayed(incr.ID))

	applied, err = r.Apply(ctx, incr)
	require.NoError(t, err)
	assert.False(t, applied)
	require.NoError(t, r.Replay(ctx, incr))

	v, err := mr.Get("visits")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestReplayerFailureCanBeRetried(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewReplayer(newClient(t, mr))
	ctx := context.Background()

	require.NoError(t, mr.Set("visits", "abc"))
	incr, err := New(interceptor.GroupString, "incr", "cache", "visits")
	require.NoError(t, err)

	err = r.Replay(ctx, incr)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeReplayFailed, apperrors.GetCode(err))
	assert.False(t, r.Replayed(incr.ID))

	require.NoError(t, mr.Set("visits", "41"))
	require.NoError(t, r.Replay(ctx, incr))
	v, err := mr.Get("visits")
	require.NoError(t, err)
	assert.Equal(t, "42", v)
}

func TestReplayerHistoryLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewReplayer(newClient(t, mr), ReplayHistory(1))
	ctx := context.Background()

	first, err := New(interceptor.GroupString, "incr", "cache", "a")
	require.NoError(t, err)
	second, err := New(interceptor.GroupString, "incr", "cache", "b")
	require.NoError(t, err)

	require.NoError(t, r.Replay(ctx, first))
	require.NoError(t, r.Replay(ctx, second))
	assert.False(t, r.Replayed(first.ID))
	assert.True(t, r.Replayed(second.ID))

	// 已被淘汰的事件会再次执行
	require.NoError(t, r.Replay(ctx, first))
	v, err := mr.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
}
