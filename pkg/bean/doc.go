// Package bean 提供 bean 生命周期监听机制
//
// # 核心概念
//
//   - Listener: 十个生命周期回调（定义就绪、实例化前、带参实例化前、实例化后、
//     属性填充、初始化前、初始化后、就绪、销毁前、销毁后）
//   - Listeners: 分发器，容器启动时收集所有 Listener 单例并按 Ordered 排序，
//     以 "beanEventListeners" 注册为单例
//   - Container: 最小容器，按注册顺序创建单例并驱动回调，逆序销毁
//
// # 使用示例
//
//	c := bean.NewContainer()
//
//	// 监听器以单例或基础设施 bean 的形式注册
//	c.RegisterSingleton("auditListener", &AuditListener{})
//
//	c.Register(&bean.Definition{
//		Name: "userService",
//		Factory: func(ctx context.Context, args []any) (any, error) {
//			return &UserService{}, nil
//		},
//		Properties: bean.NewPropertyValues(map[string]any{"timeout": "3s"}),
//	})
//
//	if err := c.Refresh(ctx); err != nil {
//		return err
//	}
//	defer c.Close(ctx)
//
//	ls, _ := bean.GetBeanOf[*bean.Listeners](c, bean.ListenersBeanName)
package bean
