// Package lifecycle 通过 Redis 发布/订阅广播 bean 生命周期
//
// # 核心功能
//
// Manager 实现 bean.Listener：
//   - 发布本节点每个 bean 的生命周期阶段（默认全部十个阶段，可用 WithPhases 过滤）
//   - 订阅其他节点的广播，按阶段或全部阶段回调
//   - 广播失败只记录日志，不会中断容器启动
//
// # 使用示例
//
//	m := lifecycle.NewManager(database.GetRedis(), "order-service", "order-1",
//		lifecycle.WithPhases(bean.PhaseReady, bean.PhaseAfterDestroy),
//	)
//	c.RegisterSingleton("lifecycleManager", m)
//
//	// 监听特定阶段
//	m.OnPhase(bean.PhaseReady, func(msg *lifecycle.LifecycleMessage) {
//		log.Printf("节点 %s 的 bean %s 已就绪", msg.NodeID, msg.BeanName)
//	})
//
//	// 监听所有阶段
//	m.OnAnyPhase(func(msg *lifecycle.LifecycleMessage) {
//		log.Printf("%s/%s: %s", msg.Service, msg.BeanName, msg.Phase)
//	})
//
//	if err := m.Start(); err != nil {
//		return err
//	}
//	defer m.Stop()
package lifecycle
