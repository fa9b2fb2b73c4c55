package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/beanhook/pkg/bean"
	"github.com/beanhook/pkg/config"
	"github.com/beanhook/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// LifecycleMessage 生命周期消息
type LifecycleMessage struct {
	Service   string    `json:"service"`   // 服务名称
	NodeID    string    `json:"node_id"`   // 节点ID
	Phase     string    `json:"phase"`     // 生命周期阶段
	BeanName  string    `json:"bean_name"` // bean 名称
	BeanType  string    `json:"bean_type"` // bean 类型
	Timestamp time.Time `json:"timestamp"` // 时间戳
}

// LifecycleHandler 生命周期事件处理器
type LifecycleHandler func(msg *LifecycleMessage)

// Manager 生命周期管理器
//
// 作为 bean.Listener 注册到容器中，把每个 bean 的生命周期阶段广播到 Redis；
// 其他节点通过 Start 订阅同一频道并用 OnPhase / OnAnyPhase 处理。
// 广播失败只记录日志，不影响 bean 的创建和销毁。
type Manager struct {
	service     string
	nodeID      string
	channel     string
	redis       redis.UniversalClient
	phases      map[bean.Phase]struct{} // 为空表示广播所有阶段
	handlers    map[string][]LifecycleHandler
	allHandlers []LifecycleHandler // 监听所有阶段的处理器
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	pubsub      *redis.PubSub
	log         *zap.Logger
}

// Option 管理器选项
type Option func(*Manager)

// WithChannel 指定广播频道，默认 config.DefaultLifecycleChannel
func WithChannel(channel string) Option {
	return func(m *Manager) {
		if channel != "" {
			m.channel = channel
		}
	}
}

// WithPhases 只广播指定阶段
func WithPhases(phases ...bean.Phase) Option {
	return func(m *Manager) {
		for _, p := range phases {
			m.phases[p] = struct{}{}
		}
	}
}

// NewManager 创建生命周期管理器
func NewManager(client redis.UniversalClient, service, nodeID string, opts ...Option) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		service:     service,
		nodeID:      nodeID,
		channel:     config.DefaultLifecycleChannel,
		redis:       client,
		phases:      make(map[bean.Phase]struct{}),
		handlers:    make(map[string][]LifecycleHandler),
		allHandlers: make([]LifecycleHandler, 0),
		ctx:         ctx,
		cancel:      cancel,
		log:         logger.Named("lifecycle"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Order 在其他监听器之后广播
func (m *Manager) Order() int { return bean.LowestPrecedence }

// OnPhase 监听特定生命周期阶段
func (m *Manager) OnPhase(phase bean.Phase, handler LifecycleHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := phase.String()
	m.handlers[key] = append(m.handlers[key], handler)
}

// OnAnyPhase 监听所有生命周期阶段
func (m *Manager) OnAnyPhase(handler LifecycleHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allHandlers = append(m.allHandlers, handler)
}

// Emit 发布生命周期事件
func (m *Manager) Emit(phase bean.Phase, beanName, beanType string) error {
	msg := &LifecycleMessage{
		Service:   m.service,
		NodeID:    m.nodeID,
		Phase:     phase.String(),
		BeanName:  beanName,
		BeanType:  beanType,
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal lifecycle message: %w", err)
	}

	return m.redis.Publish(m.ctx, m.channel, data).Err()
}

func (m *Manager) broadcast(phase bean.Phase, name, typ string) error {
	if len(m.phases) > 0 {
		if _, ok := m.phases[phase]; !ok {
			return nil
		}
	}
	if err := m.Emit(phase, name, typ); err != nil {
		m.log.Warn("广播生命周期事件失败",
			logger.Phase(phase.String()),
			logger.Bean(name),
			zap.Error(err),
		)
	}
	return nil
}

func typeOfDefinition(def *bean.Definition) string {
	if def == nil || def.Type == nil {
		return ""
	}
	return def.Type.String()
}

func typeOf(b any) string {
	if b == nil {
		return ""
	}
	return fmt.Sprintf("%T", b)
}

func (m *Manager) OnBeanDefinitionReady(name string, def *bean.Definition) error {
	return m.broadcast(bean.PhaseDefinitionReady, name, typeOfDefinition(def))
}

func (m *Manager) OnBeforeBeanInstantiate(name string, def *bean.Definition) error {
	return m.broadcast(bean.PhaseBeforeInstantiate, name, typeOfDefinition(def))
}

func (m *Manager) OnBeforeBeanInstantiateWithArgs(name string, def *bean.Definition, _ bean.Factory, _ []any) error {
	return m.broadcast(bean.PhaseBeforeInstantiateWithArgs, name, typeOfDefinition(def))
}

func (m *Manager) OnAfterBeanInstantiated(name string, _ *bean.Definition, b any) error {
	return m.broadcast(bean.PhaseAfterInstantiated, name, typeOf(b))
}

func (m *Manager) OnBeanPropertyValuesReady(name string, b any, _ *bean.PropertyValues) error {
	return m.broadcast(bean.PhasePropertyValuesReady, name, typeOf(b))
}

func (m *Manager) OnBeforeBeanInitialize(name string, b any) error {
	return m.broadcast(bean.PhaseBeforeInitialize, name, typeOf(b))
}

func (m *Manager) OnAfterBeanInitialized(name string, b any) error {
	return m.broadcast(bean.PhaseAfterInitialized, name, typeOf(b))
}

func (m *Manager) OnBeanReady(name string, b any) error {
	return m.broadcast(bean.PhaseReady, name, typeOf(b))
}

func (m *Manager) OnBeforeBeanDestroy(name string, b any) error {
	return m.broadcast(bean.PhaseBeforeDestroy, name, typeOf(b))
}

func (m *Manager) OnAfterBeanDestroy(name string, b any) error {
	return m.broadcast(bean.PhaseAfterDestroy, name, typeOf(b))
}

// Start 启动生命周期监听
func (m *Manager) Start() error {
	pubsub := m.redis.Subscribe(m.ctx, m.channel)

	// 等待订阅确认
	if _, err := pubsub.Receive(m.ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribe lifecycle channel: %w", err)
	}
	m.pubsub = pubsub

	go m.listen()

	m.log.Info("生命周期管理器已启动",
		zap.String("service", m.service),
		zap.String("node_id", m.nodeID),
		zap.String("channel", m.channel),
	)

	return nil
}

// listen 监听生命周期消息
func (m *Manager) listen() {
	ch := m.pubsub.Channel()

	for {
		select {
		case <-m.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			m.handleMessage(msg.Payload)
		}
	}
}

// handleMessage 处理生命周期消息
func (m *Manager) handleMessage(payload string) {
	var msg LifecycleMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		m.log.Error("解析生命周期消息失败", zap.Error(err))
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	// 调用特定阶段处理器
	if handlers, ok := m.handlers[msg.Phase]; ok {
		for _, handler := range handlers {
			go handler(&msg)
		}
	}

	// 调用全局处理器
	for _, handler := range m.allHandlers {
		go handler(&msg)
	}
}

// Stop 停止生命周期监听
func (m *Manager) Stop() error {
	m.cancel()
	if m.pubsub != nil {
		return m.pubsub.Close()
	}
	return nil
}
