package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/beanhook/pkg/bean"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type inbox struct {
	mu   sync.Mutex
	msgs []LifecycleMessage
}

func (b *inbox) add(msg *LifecycleMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, *msg)
}

func (b *inbox) find(phase, name string) (LifecycleMessage, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, m := range b.msgs {
		if m.Phase == phase && m.BeanName == name {
			return m, true
		}
	}
	return LifecycleMessage{}, false
}

func (b *inbox) count(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, m := range b.msgs {
		if m.BeanName == name {
			n++
		}
	}
	return n
}

func (b *inbox) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.msgs)
}

type orderService struct{}

func newClient(t *testing.T, mr *miniredis.Miniredis) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestManagerBroadcastsBeanLifecycle(t *testing.T) {
	mr := miniredis.RunT(t)

	// 远端节点只订阅
	remote := NewManager(newClient(t, mr), "order-service", "order-2")
	all, ready := &inbox{}, &inbox{}
	remote.OnAnyPhase(all.add)
	remote.OnPhase(bean.PhaseReady, ready.add)
	require.NoError(t, remote.Start())
	t.Cleanup(func() { _ = remote.Stop() })

	local := NewManager(newClient(t, mr), "order-service", "order-1")
	c := bean.NewContainer(bean.WithLogger(zap.NewNop()))
	require.NoError(t, c.RegisterSingleton("lifecycleManager", local))
	require.NoError(t, c.Register(bean.Of("orders", &orderService{})))

	ctx := context.Background()
	require.NoError(t, c.Refresh(ctx))
	require.NoError(t, c.Close(ctx))

	// 没有构造参数，不会广播 before-instantiate-with-args
	require.Eventually(t, func() bool { return all.count("orders") == 9 }, 2*time.Second, 10*time.Millisecond)

	for _, p := range []bean.Phase{
		bean.PhaseDefinitionReady,
		bean.PhaseBeforeInstantiate,
		bean.PhaseAfterInstantiated,
		bean.PhasePropertyValuesReady,
		bean.PhaseBeforeInitialize,
		bean.PhaseAfterInitialized,
		bean.PhaseReady,
		bean.PhaseBeforeDestroy,
		bean.PhaseAfterDestroy,
	} {
		_, ok := all.find(p.String(), "orders")
		assert.True(t, ok, p.String())
	}

	msg, ok := all.find(bean.PhaseDefinitionReady.String(), "orders")
	require.True(t, ok)
	assert.Equal(t, "order-service", msg.Service)
	assert.Equal(t, "order-1", msg.NodeID)
	assert.Equal(t, "*lifecycle.orderService", msg.BeanType)

	require.Eventually(t, func() bool {
		_, ok := ready.find(bean.PhaseReady.String(), "orders")
		return ok
	}, time.Second, 10*time.Millisecond)
	_, ok = ready.find(bean.PhaseBeforeDestroy.String(), "orders")
	assert.False(t, ok)
}

func TestManagerPhaseFilterAndChannel(t *testing.T) {
	mr := miniredis.RunT(t)

	remote := NewManager(newClient(t, mr), "svc", "n2", WithChannel("custom:lifecycle"))
	got := &inbox{}
	remote.OnAnyPhase(got.add)
	require.NoError(t, remote.Start())
	t.Cleanup(func() { _ = remote.Stop() })

	local := NewManager(newClient(t, mr), "svc", "n1",
		WithChannel("custom:lifecycle"),
		WithPhases(bean.PhaseReady),
	)
	require.NoError(t, local.OnBeanDefinitionReady("a", nil))
	require.NoError(t, local.OnBeanReady("a", &orderService{}))

	require.Eventually(t, func() bool { return got.len() == 1 }, time.Second, 10*time.Millisecond)
	_, ok := got.find(bean.PhaseReady.String(), "a")
	assert.True(t, ok)
}

func TestManagerBroadcastFailureDoesNotFailListener(t *testing.T) {
	mr := miniredis.RunT(t)
	client := newClient(t, mr)
	m := NewManager(client, "svc", "n1")
	mr.Close()

	assert.NoError(t, m.OnBeanReady("a", nil))
	assert.Error(t, m.Emit(bean.PhaseReady, "a", ""))
	assert.NoError(t, m.Stop())
}
