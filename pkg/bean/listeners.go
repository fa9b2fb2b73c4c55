package bean

import (
	"fmt"
	"slices"
)

// ListenerError 监听器在某个阶段返回的错误
type ListenerError struct {
	Phase    Phase
	BeanName string
	Listener string
	Err      error
}

func (e *ListenerError) Error() string {
	return fmt.Sprintf("bean listener %s failed at %s of %q: %v", e.Listener, e.Phase, e.BeanName, e.Err)
}

func (e *ListenerError) Unwrap() error {
	return e.Err
}

// Listeners 生命周期监听分发器
//
// 在容器启动时收集所有实现 Listener 的单例并排序一次，之后只读，
// 因此可以在多个 goroutine 上并发分发。
type Listeners struct {
	listeners []Listener
}

var _ Listener = (*Listeners)(nil)

// NewListeners 从容器收集监听器，按 cmp 稳定排序（nil 时使用 ByOrder），
// 并以 ListenersBeanName 注册为单例
func NewListeners(c *Container, cmp Comparator) (*Listeners, error) {
	ls := newListeners(BeansOf[Listener](c), cmp)
	if err := c.RegisterSingleton(ListenersBeanName, ls); err != nil {
		return nil, err
	}
	return ls, nil
}

func newListeners(all []Listener, cmp Comparator) *Listeners {
	if cmp == nil {
		cmp = ByOrder
	}
	collected := make([]Listener, 0, len(all))
	for _, l := range all {
		if _, self := l.(*Listeners); self {
			continue
		}
		collected = append(collected, l)
	}
	slices.SortStableFunc(collected, cmp)
	return &Listeners{listeners: collected}
}

// Len 监听器数量
func (ls *Listeners) Len() int {
	if ls == nil {
		return 0
	}
	return len(ls.listeners)
}

// All 返回排序后的监听器副本
func (ls *Listeners) All() []Listener {
	if ls == nil {
		return nil
	}
	return slices.Clone(ls.listeners)
}

func (ls *Listeners) fire(phase Phase, name string, call func(Listener) error) error {
	if ls == nil {
		return nil
	}
	for _, l := range ls.listeners {
		if err := call(l); err != nil {
			return &ListenerError{
				Phase:    phase,
				BeanName: name,
				Listener: fmt.Sprintf("%T", l),
				Err:      err,
			}
		}
	}
	return nil
}

func (ls *Listeners) OnBeanDefinitionReady(name string, def *Definition) error {
	return ls.fire(PhaseDefinitionReady, name, func(l Listener) error {
		return l.OnBeanDefinitionReady(name, def)
	})
}

func (ls *Listeners) OnBeforeBeanInstantiate(name string, def *Definition) error {
	return ls.fire(PhaseBeforeInstantiate, name, func(l Listener) error {
		return l.OnBeforeBeanInstantiate(name, def)
	})
}

func (ls *Listeners) OnBeforeBeanInstantiateWithArgs(name string, def *Definition, factory Factory, args []any) error {
	return ls.fire(PhaseBeforeInstantiateWithArgs, name, func(l Listener) error {
		return l.OnBeforeBeanInstantiateWithArgs(name, def, factory, args)
	})
}

func (ls *Listeners) OnAfterBeanInstantiated(name string, def *Definition, bean any) error {
	return ls.fire(PhaseAfterInstantiated, name, func(l Listener) error {
		return l.OnAfterBeanInstantiated(name, def, bean)
	})
}

func (ls *Listeners) OnBeanPropertyValuesReady(name string, bean any, pvs *PropertyValues) error {
	return ls.fire(PhasePropertyValuesReady, name, func(l Listener) error {
		return l.OnBeanPropertyValuesReady(name, bean, pvs)
	})
}

func (ls *Listeners) OnBeforeBeanInitialize(name string, bean any) error {
	return ls.fire(PhaseBeforeInitialize, name, func(l Listener) error {
		return l.OnBeforeBeanInitialize(name, bean)
	})
}

func (ls *Listeners) OnAfterBeanInitialized(name string, bean any) error {
	return ls.fire(PhaseAfterInitialized, name, func(l Listener) error {
		return l.OnAfterBeanInitialized(name, bean)
	})
}

func (ls *Listeners) OnBeanReady(name string, bean any) error {
	return ls.fire(PhaseReady, name, func(l Listener) error {
		return l.OnBeanReady(name, bean)
	})
}

func (ls *Listeners) OnBeforeBeanDestroy(name string, bean any) error {
	return ls.fire(PhaseBeforeDestroy, name, func(l Listener) error {
		return l.OnBeforeBeanDestroy(name, bean)
	})
}

func (ls *Listeners) OnAfterBeanDestroy(name string, bean any) error {
	return ls.fire(PhaseAfterDestroy, name, func(l Listener) error {
		return l.OnAfterBeanDestroy(name, bean)
	})
}
