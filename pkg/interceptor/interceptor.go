package interceptor

import (
	"cmp"
	"slices"

	"github.com/beanhook/pkg/bean"
)

// Interceptor Redis 命令拦截器
//
// BeforeExecute 在命令发出前调用，此时 MethodContext 尚未 Start；
// AfterExecute 在命令返回后调用，result 为 redis.Cmder。
// 实现 bean.Ordered 可以控制执行顺序，值越小越先执行。
type Interceptor interface {
	BeforeExecute(mc *MethodContext)
	AfterExecute(mc *MethodContext, result any, err error)
}

// Funcs 用函数构造 Interceptor，任一函数可为 nil
type Funcs struct {
	Before func(mc *MethodContext)
	After  func(mc *MethodContext, result any, err error)
}

func (f Funcs) BeforeExecute(mc *MethodContext) {
	if f.Before != nil {
		f.Before(mc)
	}
}

func (f Funcs) AfterExecute(mc *MethodContext, result any, err error) {
	if f.After != nil {
		f.After(mc, result, err)
	}
}

func orderOf(i Interceptor) int {
	if o, ok := i.(bean.Ordered); ok {
		return o.Order()
	}
	return bean.LowestPrecedence
}

// Chain 按顺序执行的拦截器链
//
// Before 正序执行，After 逆序执行，和嵌套调用的顺序一致。
type Chain struct {
	interceptors []Interceptor
}

// NewChain 创建拦截器链，nil 会被忽略，相同顺序值保持传入顺序
func NewChain(interceptors ...Interceptor) *Chain {
	list := make([]Interceptor, 0, len(interceptors))
	for _, i := range interceptors {
		if i != nil {
			list = append(list, i)
		}
	}
	slices.SortStableFunc(list, func(a, b Interceptor) int {
		return cmp.Compare(orderOf(a), orderOf(b))
	})
	return &Chain{interceptors: list}
}

// Len 拦截器数量
func (c *Chain) Len() int {
	return len(c.interceptors)
}

func (c *Chain) BeforeExecute(mc *MethodContext) {
	for _, i := range c.interceptors {
		i.BeforeExecute(mc)
	}
}

func (c *Chain) AfterExecute(mc *MethodContext, result any, err error) {
	for idx := len(c.interceptors) - 1; idx >= 0; idx-- {
		c.interceptors[idx].AfterExecute(mc, result, err)
	}
}
