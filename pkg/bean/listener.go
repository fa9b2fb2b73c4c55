package bean

// Listener bean 生命周期监听器
//
// 每个回调都在容器创建或销毁 bean 的 goroutine 上同步执行。
// 返回错误会中止同一阶段后续监听器的调用，并由容器向上返回。
type Listener interface {
	// OnBeanDefinitionReady 定义已就绪，尚未实例化
	OnBeanDefinitionReady(name string, def *Definition) error

	// OnBeforeBeanInstantiate 实例化之前
	OnBeforeBeanInstantiate(name string, def *Definition) error

	// OnBeforeBeanInstantiateWithArgs 构造参数已确定，实例化之前（仅在定义带参数时触发）
	OnBeforeBeanInstantiateWithArgs(name string, def *Definition, factory Factory, args []any) error

	// OnAfterBeanInstantiated 实例化之后，属性填充之前
	OnAfterBeanInstantiated(name string, def *Definition, bean any) error

	// OnBeanPropertyValuesReady 属性值已确定，可修改 pvs
	OnBeanPropertyValuesReady(name string, bean any, pvs *PropertyValues) error

	// OnBeforeBeanInitialize 初始化方法执行之前
	OnBeforeBeanInitialize(name string, bean any) error

	// OnAfterBeanInitialized 初始化方法执行之后
	OnAfterBeanInitialized(name string, bean any) error

	// OnBeanReady 所有 bean 创建完毕
	OnBeanReady(name string, bean any) error

	// OnBeforeBeanDestroy 销毁之前
	OnBeforeBeanDestroy(name string, bean any) error

	// OnAfterBeanDestroy 销毁之后
	OnAfterBeanDestroy(name string, bean any) error
}

// NopListener 空实现，嵌入后只需覆盖关心的回调
type NopListener struct{}

func (NopListener) OnBeanDefinitionReady(string, *Definition) error   { return nil }
func (NopListener) OnBeforeBeanInstantiate(string, *Definition) error { return nil }
func (NopListener) OnBeforeBeanInstantiateWithArgs(string, *Definition, Factory, []any) error {
	return nil
}
func (NopListener) OnAfterBeanInstantiated(string, *Definition, any) error       { return nil }
func (NopListener) OnBeanPropertyValuesReady(string, any, *PropertyValues) error { return nil }
func (NopListener) OnBeforeBeanInitialize(string, any) error                     { return nil }
func (NopListener) OnAfterBeanInitialized(string, any) error                     { return nil }
func (NopListener) OnBeanReady(string, any) error                                { return nil }
func (NopListener) OnBeforeBeanDestroy(string, any) error                        { return nil }
func (NopListener) OnAfterBeanDestroy(string, any) error                         { return nil }

// OrderOf 返回监听器的排序值，未实现 Ordered 时为 LowestPrecedence
func OrderOf(l Listener) int {
	if o, ok := l.(Ordered); ok {
		return o.Order()
	}
	return LowestPrecedence
}

// Comparator 监听器排序规则，语义同 cmp.Compare
type Comparator func(a, b Listener) int

// ByOrder 默认排序规则
func ByOrder(a, b Listener) int {
	oa, ob := OrderOf(a), OrderOf(b)
	switch {
	case oa < ob:
		return -1
	case oa > ob:
		return 1
	default:
		return 0
	}
}
