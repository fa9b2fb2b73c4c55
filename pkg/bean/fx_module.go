package bean

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// FXModule 将容器接入 fx：定义通过 "beans" 分组注入，
// fx 启动时 Refresh，停止时 Close。
//
//	app := fx.New(
//		bean.FXModule,
//		bean.Supply(bean.Of("clock", clock)),
//	)
var FXModule = fx.Module("bean",
	fx.Provide(NewContainerWithDI),
	fx.Invoke(RegisterContainerLifecycle),
)

// ContainerParams 创建容器所需的依赖
type ContainerParams struct {
	fx.In

	Definitions []*Definition `group:"beans"`
	Logger      *zap.Logger   `optional:"true"`
	Comparator  Comparator    `optional:"true"`
}

// NewContainerWithDI 使用 fx 注入的定义创建容器
func NewContainerWithDI(p ContainerParams) (*Container, error) {
	c := NewContainer(WithLogger(p.Logger), WithComparator(p.Comparator))
	for _, def := range p.Definitions {
		if err := c.Register(def); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// RegisterContainerLifecycle 绑定容器与 fx 生命周期
func RegisterContainerLifecycle(lc fx.Lifecycle, c *Container) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return c.Refresh(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return c.Close(ctx)
		},
	})
}

// Supply 以 "beans" 分组提供定义
func Supply(defs ...*Definition) fx.Option {
	opts := make([]fx.Option, 0, len(defs))
	for _, def := range defs {
		d := def
		opts = append(opts, fx.Provide(fx.Annotated{
			Group:  "beans",
			Target: func() *Definition { return d },
		}))
	}
	return fx.Options(opts...)
}
