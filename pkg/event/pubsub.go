package event

import (
	"context"
	"fmt"
	"sync"

	"github.com/beanhook/pkg/config"
	"github.com/beanhook/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Publisher 通过 Redis 发布/订阅广播命令事件
type Publisher struct {
	client  redis.UniversalClient
	channel string
}

// NewPublisher channel 为空时使用 config.DefaultEventChannel
func NewPublisher(client redis.UniversalClient, channel string) *Publisher {
	if channel == "" {
		channel = config.DefaultEventChannel
	}
	return &Publisher{client: client, channel: channel}
}

// Channel 发布的频道
func (p *Publisher) Channel() string {
	return p.channel
}

// Send 实现 Sink
func (p *Publisher) Send(ctx context.Context, e *CommandEvent) error {
	data, err := Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal command event: %w", err)
	}
	return p.client.Publish(ctx, p.channel, data).Err()
}

// Handler 命令事件处理器
type Handler func(e *CommandEvent)

// Subscriber 订阅命令事件频道并按到达顺序分发
type Subscriber struct {
	client   redis.UniversalClient
	channel  string
	handlers []Handler
	mu       sync.RWMutex
	ctx      context.Context
	cancel   context.CancelFunc
	pubsub   *redis.PubSub
	done     chan struct{}
	log      *zap.Logger
}

// NewSubscriber channel 为空时使用 config.DefaultEventChannel
func NewSubscriber(client redis.UniversalClient, channel string) *Subscriber {
	if channel == "" {
		channel = config.DefaultEventChannel
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Subscriber{
		client:  client,
		channel: channel,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		log:     logger.Named("event"),
	}
}

// OnEvent 注册处理器，同一事件按注册顺序依次调用
func (s *Subscriber) OnEvent(handler Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
}

// Start 订阅频道并开始分发
func (s *Subscriber) Start() error {
	pubsub := s.client.Subscribe(s.ctx, s.channel)

	// 等待订阅确认
	if _, err := pubsub.Receive(s.ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribe event channel: %w", err)
	}
	s.pubsub = pubsub

	go s.listen()

	s.log.Info("命令事件订阅已启动", zap.String("channel", s.channel))
	return nil
}

func (s *Subscriber) listen() {
	defer close(s.done)
	ch := s.pubsub.Channel()

	for {
		select {
		case <-s.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			s.handleMessage(msg.Payload)
		}
	}
}

func (s *Subscriber) handleMessage(payload string) {
	e, err := Unmarshal([]byte(payload))
	if err != nil {
		s.log.Error("解析命令事件失败", zap.Error(err))
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, handler := range s.handlers {
		handler(e)
	}
}

// Stop 停止订阅，等待分发协程退出
func (s *Subscriber) Stop() error {
	s.cancel()
	if s.pubsub == nil {
		return nil
	}
	err := s.pubsub.Close()
	<-s.done
	return err
}
