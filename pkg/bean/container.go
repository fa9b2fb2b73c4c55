package bean

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	apperrors "github.com/beanhook/pkg/errors"
	"github.com/beanhook/pkg/logger"
	"github.com/go-viper/mapstructure/v2"
	"go.uber.org/zap"
)

type state int

const (
	stateNew state = iota
	stateRefreshing
	stateRunning
	stateClosed
)

// Container 最小化的 bean 容器
//
// 只负责按定义创建单例并驱动生命周期回调，不做 bean 之间的依赖解析。
type Container struct {
	mu sync.RWMutex

	defs      map[string]*Definition
	defOrder  []string
	instances map[string]any
	// created 记录单例的创建顺序，销毁时逆序执行
	created []string

	listeners  *Listeners
	comparator Comparator
	state      state
	log        *zap.Logger
}

// Option 容器选项
type Option func(*Container)

// WithLogger 指定日志
func WithLogger(l *zap.Logger) Option {
	return func(c *Container) {
		if l != nil {
			c.log = l
		}
	}
}

// WithComparator 指定监听器排序规则
func WithComparator(cmp Comparator) Option {
	return func(c *Container) {
		c.comparator = cmp
	}
}

// NewContainer 创建容器
func NewContainer(opts ...Option) *Container {
	c := &Container{
		defs:      make(map[string]*Definition),
		defOrder:  make([]string, 0, 16),
		instances: make(map[string]any),
		created:   make([]string, 0, 16),
		log:       logger.Named("bean"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register 注册 bean 定义，必须在 Refresh 之前调用
func (c *Container) Register(def *Definition) error {
	if def == nil || strings.TrimSpace(def.Name) == "" {
		return apperrors.Derive(apperrors.ErrBeanCreation, "定义缺少名称", nil)
	}
	if def.Factory == nil {
		return apperrors.BeanCreation(def.Name, errors.New("factory is nil"))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case stateClosed:
		return apperrors.ErrContainerClosed
	case stateNew:
	default:
		return apperrors.ErrContainerStarted
	}
	if c.has(def.Name) {
		return apperrors.DuplicateBean(def.Name)
	}
	c.defs[def.Name] = def
	c.defOrder = append(c.defOrder, def.Name)
	c.log.Debug("注册 bean 定义", logger.Bean(def.Name))
	return nil
}

// RegisterSingleton 直接注册已创建好的实例，不触发创建阶段的回调
func (c *Container) RegisterSingleton(name string, instance any) error {
	if strings.TrimSpace(name) == "" || instance == nil {
		return apperrors.Derive(apperrors.ErrBeanCreation, "单例名称或实例为空", nil)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == stateClosed {
		return apperrors.ErrContainerClosed
	}
	if c.has(name) {
		return apperrors.DuplicateBean(name)
	}
	c.instances[name] = instance
	c.created = append(c.created, name)
	c.log.Debug("注册单例", logger.Bean(name), zap.String("type", fmt.Sprintf("%T", instance)))
	return nil
}

func (c *Container) has(name string) bool {
	if _, ok := c.defs[name]; ok {
		return true
	}
	_, ok := c.instances[name]
	return ok
}

// Refresh 创建全部单例
//
// 顺序：基础设施 bean（无回调）-> 监听分发器 -> 普通 bean（完整回调）-> 就绪回调。
func (c *Container) Refresh(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case stateClosed:
		c.mu.Unlock()
		return apperrors.ErrContainerClosed
	case stateNew:
	default:
		c.mu.Unlock()
		return apperrors.ErrContainerStarted
	}
	c.state = stateRefreshing
	names := append([]string(nil), c.defOrder...)
	c.mu.Unlock()

	c.log.Info("正在启动容器", zap.Int("definitions", len(names)))

	built := make([]string, 0, len(names))
	for _, name := range names {
		def := c.definition(name)
		if !def.Infrastructure {
			continue
		}
		if err := c.createBean(ctx, name, def, nil); err != nil {
			return c.fail(err)
		}
		built = append(built, name)
	}

	ls, err := NewListeners(c, c.comparator)
	if err != nil {
		return c.fail(err)
	}
	c.mu.Lock()
	c.listeners = ls
	c.mu.Unlock()
	c.log.Info("生命周期监听器已就绪", zap.Int("listeners", ls.Len()))

	for _, name := range names {
		def := c.definition(name)
		if def.Infrastructure {
			continue
		}
		if err := ctx.Err(); err != nil {
			return c.fail(err)
		}
		if err := c.createBean(ctx, name, def, ls); err != nil {
			return c.fail(err)
		}
		built = append(built, name)
	}

	for _, name := range built {
		if err := ls.OnBeanReady(name, c.instance(name)); err != nil {
			return c.fail(err)
		}
	}

	c.mu.Lock()
	c.state = stateRunning
	c.mu.Unlock()

	c.log.Info("容器启动完成", zap.Int("beans", len(built)))
	return nil
}

// fail 启动失败时销毁已创建的 bean，并将容器置为关闭状态
func (c *Container) fail(err error) error {
	c.log.Error("容器启动失败", zap.Error(err))
	if derr := c.destroyAll(); derr != nil {
		err = errors.Join(err, derr)
	}
	return err
}

func (c *Container) definition(name string) *Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defs[name]
}

func (c *Container) instance(name string) any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.instances[name]
}

// createBean 按阶段创建单个 bean，ls 为 nil 时不触发回调
func (c *Container) createBean(ctx context.Context, name string, def *Definition, ls *Listeners) error {
	log := c.log.With(logger.Bean(name))

	if err := ls.OnBeanDefinitionReady(name, def); err != nil {
		return err
	}
	if err := ls.OnBeforeBeanInstantiate(name, def); err != nil {
		return err
	}
	if len(def.Args) > 0 {
		if err := ls.OnBeforeBeanInstantiateWithArgs(name, def, def.Factory, def.Args); err != nil {
			return err
		}
	}

	instance, err := def.Factory(ctx, def.Args)
	if err != nil {
		return apperrors.BeanCreation(name, err)
	}
	if instance == nil {
		return apperrors.BeanCreation(name, errors.New("factory returned nil"))
	}
	if def.Type == nil {
		def.Type = reflect.TypeOf(instance)
	}
	log.Debug("bean 已实例化", zap.Stringer("type", def.Type))

	if err := c.initializeBean(name, def, instance, ls); err != nil {
		if derr := discard(name, def, instance); derr != nil {
			log.Error("销毁未完成的 bean 失败", zap.Error(derr))
			err = errors.Join(err, derr)
		}
		return err
	}

	c.mu.Lock()
	c.instances[name] = instance
	c.created = append(c.created, name)
	c.mu.Unlock()

	log.Debug("bean 创建完成")
	return nil
}

// initializeBean 实例化之后的阶段：属性填充与初始化
func (c *Container) initializeBean(name string, def *Definition, instance any, ls *Listeners) error {
	if err := ls.OnAfterBeanInstantiated(name, def, instance); err != nil {
		return err
	}

	pvs := def.Properties.Clone()
	if err := ls.OnBeanPropertyValuesReady(name, instance, pvs); err != nil {
		return err
	}
	if err := applyProperties(instance, pvs); err != nil {
		return apperrors.BeanCreation(name, err)
	}

	if err := ls.OnBeforeBeanInitialize(name, instance); err != nil {
		return err
	}
	if initializer, ok := instance.(Initializer); ok {
		if err := initializer.AfterPropertiesSet(); err != nil {
			return apperrors.BeanCreation(name, err)
		}
	}
	if def.InitMethod != nil {
		if err := def.InitMethod(instance); err != nil {
			return apperrors.BeanCreation(name, err)
		}
	}
	return ls.OnAfterBeanInitialized(name, instance)
}

// discard 调用实例的销毁方法，def 为 nil 表示直接注册的单例。
// 创建到一半失败的实例尚未登记，不会再经过 destroyAll，也由它清理。
func discard(name string, def *Definition, instance any) error {
	var errs []error
	if d, ok := instance.(Disposable); ok {
		if err := d.Destroy(); err != nil {
			errs = append(errs, fmt.Errorf("destroy %q: %w", name, err))
		}
	}
	if def != nil && def.DestroyMethod != nil {
		if err := def.DestroyMethod(instance); err != nil {
			errs = append(errs, fmt.Errorf("destroy method of %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// applyProperties 使用 mapstructure 将属性写入结构体字段，字段标签为 property
func applyProperties(instance any, pvs *PropertyValues) error {
	if pvs.Len() == 0 {
		return nil
	}
	v := reflect.ValueOf(instance)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("cannot populate properties on %T: not a pointer to struct", instance)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           instance,
		TagName:          "property",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(pvs.Map())
}

// Close 逆序销毁全部单例
func (c *Container) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.state == stateClosed {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	c.log.Info("正在关闭容器")
	err := c.destroyAll()
	if err == nil {
		err = ctx.Err()
	}
	c.log.Info("容器已关闭")
	return err
}

func (c *Container) destroyAll() error {
	c.mu.Lock()
	names := append([]string(nil), c.created...)
	ls := c.listeners
	c.state = stateClosed
	c.mu.Unlock()

	var errs []error
	for i := len(names) - 1; i >= 0; i-- {
		name := names[i]
		if name == ListenersBeanName {
			continue
		}
		if err := c.destroyBean(name, ls); err != nil {
			c.log.Error("销毁 bean 失败", logger.Bean(name), zap.Error(err))
			errs = append(errs, err)
		}
	}

	c.mu.Lock()
	c.instances = make(map[string]any)
	c.created = c.created[:0]
	c.mu.Unlock()
	return errors.Join(errs...)
}

func (c *Container) destroyBean(name string, ls *Listeners) error {
	instance := c.instance(name)
	if err := ls.OnBeforeBeanDestroy(name, instance); err != nil {
		return err
	}
	if err := discard(name, c.definition(name), instance); err != nil {
		return err
	}
	return ls.OnAfterBeanDestroy(name, instance)
}

// GetBean 按名称获取单例
func (c *Container) GetBean(name string) (any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state == stateClosed {
		return nil, apperrors.ErrContainerClosed
	}
	if v, ok := c.instances[name]; ok {
		return v, nil
	}
	return nil, apperrors.BeanNotFound(name)
}

// GetBeanOf 按名称获取指定类型的单例
func GetBeanOf[T any](c *Container, name string) (T, error) {
	var zero T
	v, err := c.GetBean(name)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, apperrors.Derive(apperrors.ErrBeanNotFound,
			fmt.Sprintf("%s 类型为 %T，期望 %s", name, v, reflect.TypeOf((*T)(nil)).Elem()), nil)
	}
	return typed, nil
}

// BeansOf 按创建顺序返回所有实现 T 的单例
func BeansOf[T any](c *Container) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0)
	for _, name := range c.created {
		if typed, ok := c.instances[name].(T); ok {
			out = append(out, typed)
		}
	}
	return out
}

// Contains 是否存在定义或单例
func (c *Container) Contains(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.has(name)
}

// BeanNames 返回已创建单例的名称（按创建顺序）
func (c *Container) BeanNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.created...)
}

// Listeners 返回监听分发器，Refresh 之前为 nil
func (c *Container) Listeners() *Listeners {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.listeners
}
