package event

import (
	"context"
	"sync"
)

// Sink 事件的去向
type Sink interface {
	Send(ctx context.Context, e *CommandEvent) error
}

// SinkFunc 函数适配 Sink
type SinkFunc func(ctx context.Context, e *CommandEvent) error

func (f SinkFunc) Send(ctx context.Context, e *CommandEvent) error {
	return f(ctx, e)
}

// MemorySink 保存最近 capacity 个事件，超出后丢弃最旧的
type MemorySink struct {
	mu       sync.Mutex
	capacity int
	events   []*CommandEvent
}

// NewMemorySink capacity <= 0 时不限制数量
func NewMemorySink(capacity int) *MemorySink {
	return &MemorySink{capacity: capacity}
}

func (s *MemorySink) Send(_ context.Context, e *CommandEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	if s.capacity > 0 && len(s.events) > s.capacity {
		s.events = append(s.events[:0:0], s.events[len(s.events)-s.capacity:]...)
	}
	return nil
}

// Events 按接收顺序返回事件副本
func (s *MemorySink) Events() []*CommandEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*CommandEvent(nil), s.events...)
}

func (s *MemorySink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func (s *MemorySink) Reset() {
	s.mu.Lock()
	s.events = nil
	s.mu.Unlock()
}

// MultiSink 依次发送到多个 Sink，遇到错误立即返回
type MultiSink []Sink

func (m MultiSink) Send(ctx context.Context, e *CommandEvent) error {
	for _, s := range m {
		if err := s.Send(ctx, e); err != nil {
			return err
		}
	}
	return nil
}
