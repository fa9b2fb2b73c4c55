package interceptor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMethodContextNotStarted(t *testing.T) {
	mc := NewMethodContext(context.Background(), nil, MethodOf("get"), []any{"k"})

	assert.False(t, mc.Started())
	assert.Equal(t, int64(-1), mc.DurationNanos())
	for _, unit := range []time.Duration{time.Nanosecond, time.Microsecond, time.Millisecond, time.Second, 0} {
		assert.Equal(t, int64(-1), mc.Duration(unit), unit.String())
	}
	_, ok := mc.Elapsed()
	assert.False(t, ok)
	assert.True(t, mc.StartTime().IsZero())
}

func TestMethodContextDurationsNonDecreasing(t *testing.T) {
	mc := NewMethodContext(context.Background(), nil, MethodOf("set"), nil)
	mc.Start()
	first := mc.StartTime()

	d1 := mc.DurationNanos()
	require.GreaterOrEqual(t, d1, int64(0))

	time.Sleep(2 * time.Millisecond)
	d2 := mc.DurationNanos()
	assert.GreaterOrEqual(t, d2, d1)
	assert.GreaterOrEqual(t, mc.Duration(time.Millisecond), int64(2))
	assert.GreaterOrEqual(t, mc.Duration(0), d2)

	// 重复 Start 不会重置开始时间
	mc.Start()
	assert.Equal(t, first, mc.StartTime())
	assert.GreaterOrEqual(t, mc.DurationNanos(), d2)
}

func TestMethodContextSourceBeanName(t *testing.T) {
	mc := NewMethodContext(nil, "target", MethodOf("GET"), nil) //nolint:staticcheck
	assert.Equal(t, NoSourceBeanName, mc.SourceBeanName)
	assert.NotNil(t, mc.Context)
	assert.Equal(t, "target", mc.Target)
	assert.Equal(t, "StringCmdable.get", mc.Method.String())

	mc = NewMethodContextWithSource(context.Background(), nil, MethodOf("hset"), nil, "cache")
	assert.Equal(t, "cache", mc.SourceBeanName)
}

func TestCommandGroup(t *testing.T) {
	assert.Equal(t, GroupString, CommandGroup("SET"))
	assert.Equal(t, GroupHash, CommandGroup("hset"))
	assert.Equal(t, GroupSortedSet, CommandGroup("zadd"))
	assert.Equal(t, GroupGeneric, CommandGroup("nosuchcmd"))

	assert.True(t, IsWriteCommand("set"))
	assert.True(t, IsWriteCommand("DEL"))
	assert.False(t, IsWriteCommand("get"))
	assert.False(t, IsWriteCommand("nosuchcmd"))
}
