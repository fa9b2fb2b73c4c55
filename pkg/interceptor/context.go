package interceptor

import (
	"context"
	"time"
)

// NoSourceBeanName 未指定来源 bean 时的默认值
const NoSourceBeanName = "none"

// Method 被拦截的方法：命令所属的接口分组 + 命令名
type Method struct {
	Interface string
	Name      string
}

func (m Method) String() string {
	return m.Interface + "." + m.Name
}

// MethodContext 单次 Redis 命令调用的上下文
//
// 每次调用创建一个，只在发起调用的 goroutine 上使用，不做并发保护。
type MethodContext struct {
	Context        context.Context
	Target         any
	Method         Method
	Args           []any
	SourceBeanName string

	startTime time.Time
	started   bool
}

// NewMethodContext 创建上下文，来源 bean 为 NoSourceBeanName
func NewMethodContext(ctx context.Context, target any, method Method, args []any) *MethodContext {
	return NewMethodContextWithSource(ctx, target, method, args, "")
}

// NewMethodContextWithSource 创建带来源 bean 名称的上下文
func NewMethodContextWithSource(ctx context.Context, target any, method Method, args []any, source string) *MethodContext {
	if source == "" {
		source = NoSourceBeanName
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &MethodContext{
		Context:        ctx,
		Target:         target,
		Method:         method,
		Args:           args,
		SourceBeanName: source,
	}
}

// Start 记录开始时间，只有第一次调用生效
func (mc *MethodContext) Start() {
	if mc.started {
		return
	}
	mc.startTime = time.Now()
	mc.started = true
}

// Started 是否已调用 Start
func (mc *MethodContext) Started() bool {
	return mc.started
}

// StartTime 开始时间，未开始时为零值
func (mc *MethodContext) StartTime() time.Time {
	return mc.startTime
}

// DurationNanos 自 Start 起经过的纳秒数，未开始返回 -1
func (mc *MethodContext) DurationNanos() int64 {
	if !mc.started {
		return -1
	}
	return time.Since(mc.startTime).Nanoseconds()
}

// Duration 以 unit 为单位返回经过的时间（截断），未开始返回 -1。
// unit 小于等于 0 时按纳秒计算。
func (mc *MethodContext) Duration(unit time.Duration) int64 {
	if !mc.started {
		return -1
	}
	if unit <= 0 {
		unit = time.Nanosecond
	}
	return int64(time.Since(mc.startTime) / unit)
}

// Elapsed 经过的时间，ok 为 false 表示尚未开始
func (mc *MethodContext) Elapsed() (d time.Duration, ok bool) {
	if !mc.started {
		return 0, false
	}
	return time.Since(mc.startTime), true
}
