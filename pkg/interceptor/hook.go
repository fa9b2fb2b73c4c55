package interceptor

import (
	"context"
	"net"

	"github.com/redis/go-redis/v9"
)

// Hook 把拦截器链挂到 go-redis 客户端上
type Hook struct {
	target any
	source string
	chain  *Chain
}

var _ redis.Hook = (*Hook)(nil)

// NewHook 创建 Hook，target 为被拦截的客户端，source 为来源 bean 名称
func NewHook(target any, source string, interceptors ...Interceptor) *Hook {
	return &Hook{
		target: target,
		source: source,
		chain:  NewChain(interceptors...),
	}
}

// Source 来源 bean 名称
func (h *Hook) Source() string {
	if h.source == "" {
		return NoSourceBeanName
	}
	return h.source
}

func (h *Hook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *Hook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		mc := h.newContext(ctx, cmd)
		h.chain.BeforeExecute(mc)
		mc.Start()

		err := next(ctx, cmd)

		h.chain.AfterExecute(mc, cmd, err)
		return err
	}
}

func (h *Hook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		mcs := make([]*MethodContext, len(cmds))
		for i, cmd := range cmds {
			mcs[i] = h.newContext(ctx, cmd)
			h.chain.BeforeExecute(mcs[i])
			mcs[i].Start()
		}

		err := next(ctx, cmds)

		for i, cmd := range cmds {
			cmdErr := cmd.Err()
			if cmdErr == nil {
				cmdErr = err
			}
			h.chain.AfterExecute(mcs[i], cmd, cmdErr)
		}
		return err
	}
}

func (h *Hook) newContext(ctx context.Context, cmd redis.Cmder) *MethodContext {
	var args []any
	if all := cmd.Args(); len(all) > 1 {
		args = all[1:]
	}
	return NewMethodContextWithSource(ctx, h.target, MethodOf(cmd.Name()), args, h.source)
}

// Instrument 给客户端挂上拦截器，返回挂上的 Hook
func Instrument(client redis.UniversalClient, source string, interceptors ...Interceptor) *Hook {
	h := NewHook(client, source, interceptors...)
	client.AddHook(h)
	return h
}
