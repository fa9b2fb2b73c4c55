package bean

import (
	"context"
	"math"
	"reflect"
	"sort"
)

// ListenersBeanName 生命周期监听分发器在容器中的固定名称
const ListenersBeanName = "beanEventListeners"

// 排序常量，数值越小越先执行
const (
	HighestPrecedence = math.MinInt32
	LowestPrecedence  = math.MaxInt32
)

// Phase 生命周期阶段
type Phase int

const (
	PhaseDefinitionReady Phase = iota
	PhaseBeforeInstantiate
	PhaseBeforeInstantiateWithArgs
	PhaseAfterInstantiated
	PhasePropertyValuesReady
	PhaseBeforeInitialize
	PhaseAfterInitialized
	PhaseReady
	PhaseBeforeDestroy
	PhaseAfterDestroy
)

var phaseNames = [...]string{
	PhaseDefinitionReady:           "definition-ready",
	PhaseBeforeInstantiate:         "before-instantiate",
	PhaseBeforeInstantiateWithArgs: "before-instantiate-with-args",
	PhaseAfterInstantiated:         "after-instantiated",
	PhasePropertyValuesReady:       "property-values-ready",
	PhaseBeforeInitialize:          "before-initialize",
	PhaseAfterInitialized:          "after-initialized",
	PhaseReady:                     "ready",
	PhaseBeforeDestroy:             "before-destroy",
	PhaseAfterDestroy:              "after-destroy",
}

// Phases 按容器执行顺序返回全部阶段
func Phases() []Phase {
	out := make([]Phase, len(phaseNames))
	for i := range phaseNames {
		out[i] = Phase(i)
	}
	return out
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// Factory 创建 bean 实例，args 为定义中声明的构造参数
type Factory func(ctx context.Context, args []any) (any, error)

// Definition bean 定义
type Definition struct {
	Name        string
	Description string

	// Type 声明类型，为空时在实例化后由实例类型补全
	Type reflect.Type

	Factory Factory
	Args    []any

	Properties *PropertyValues

	InitMethod    func(bean any) error
	DestroyMethod func(bean any) error

	// Infrastructure 为 true 的 bean 先于普通 bean 创建，且不接收创建阶段的回调
	Infrastructure bool

	Attributes map[string]any
}

// Attribute 读取定义属性
func (d *Definition) Attribute(key string) (any, bool) {
	if d == nil || d.Attributes == nil {
		return nil, false
	}
	v, ok := d.Attributes[key]
	return v, ok
}

// SetAttribute 设置定义属性
func (d *Definition) SetAttribute(key string, value any) {
	if d.Attributes == nil {
		d.Attributes = make(map[string]any)
	}
	d.Attributes[key] = value
}

// Of 以现成的实例创建定义，常用于测试和简单场景
func Of(name string, instance any) *Definition {
	return &Definition{
		Name: name,
		Type: reflect.TypeOf(instance),
		Factory: func(context.Context, []any) (any, error) {
			return instance, nil
		},
	}
}

// Ordered 可排序的监听器
type Ordered interface {
	Order() int
}

// Initializer 属性填充完成后回调
type Initializer interface {
	AfterPropertiesSet() error
}

// Disposable 销毁阶段回调
type Disposable interface {
	Destroy() error
}

// PropertyValue 单个属性值
type PropertyValue struct {
	Name  string
	Value any
}

// PropertyValues 有序属性集合，监听器可在属性填充阶段修改
type PropertyValues struct {
	values []PropertyValue
}

// NewPropertyValues 由 map 创建属性集合，按名称排序以保证顺序稳定
func NewPropertyValues(m map[string]any) *PropertyValues {
	pvs := &PropertyValues{values: make([]PropertyValue, 0, len(m))}
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		pvs.values = append(pvs.values, PropertyValue{Name: k, Value: m[k]})
	}
	return pvs
}

// Add 追加或覆盖属性，返回自身以便链式调用
func (p *PropertyValues) Add(name string, value any) *PropertyValues {
	p.Set(name, value)
	return p
}

// Set 设置属性
func (p *PropertyValues) Set(name string, value any) {
	for i := range p.values {
		if p.values[i].Name == name {
			p.values[i].Value = value
			return
		}
	}
	p.values = append(p.values, PropertyValue{Name: name, Value: value})
}

// Get 获取属性
func (p *PropertyValues) Get(name string) (any, bool) {
	if p == nil {
		return nil, false
	}
	for _, pv := range p.values {
		if pv.Name == name {
			return pv.Value, true
		}
	}
	return nil, false
}

// Remove 删除属性
func (p *PropertyValues) Remove(name string) bool {
	for i, pv := range p.values {
		if pv.Name == name {
			p.values = append(p.values[:i], p.values[i+1:]...)
			return true
		}
	}
	return false
}

// Len 属性数量
func (p *PropertyValues) Len() int {
	if p == nil {
		return 0
	}
	return len(p.values)
}

// Values 返回属性副本
func (p *PropertyValues) Values() []PropertyValue {
	if p == nil {
		return nil
	}
	out := make([]PropertyValue, len(p.values))
	copy(out, p.values)
	return out
}

// Map 转换为 map
func (p *PropertyValues) Map() map[string]any {
	m := make(map[string]any, p.Len())
	if p == nil {
		return m
	}
	for _, pv := range p.values {
		m[pv.Name] = pv.Value
	}
	return m
}

// Clone 复制属性集合，nil 返回空集合
func (p *PropertyValues) Clone() *PropertyValues {
	return &PropertyValues{values: p.Values()}
}
