package event

import (
	"context"
	"errors"
	"sync"

	apperrors "github.com/beanhook/pkg/errors"
	"github.com/beanhook/pkg/interceptor"
	"github.com/beanhook/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Replayer 在另一个 Redis 上重放命令事件
//
// 目标客户端不应挂载 event.Interceptor，否则回放出的命令会再次产生事件。
type Replayer struct {
	client    redis.UniversalClient
	allowRead bool
	ignore    map[string]struct{}
	log       *zap.Logger

	// applied 记录已回放的事件 ID，同一事件只执行一次
	mu      sync.Mutex
	applied map[string]struct{}
	history []string
	limit   int
}

// DefaultReplayHistory 默认记住的已回放事件数量
const DefaultReplayHistory = 10000

// ReplayerOption 回放选项
type ReplayerOption func(*Replayer)

// AllowReadCommands 允许回放非写命令
func AllowReadCommands() ReplayerOption {
	return func(r *Replayer) { r.allowRead = true }
}

// IgnoreSources 忽略来自指定来源 bean 的事件
func IgnoreSources(names ...string) ReplayerOption {
	return func(r *Replayer) {
		for _, n := range names {
			r.ignore[n] = struct{}{}
		}
	}
}

// ReplayHistory 设置去重时记住的事件数量，超出后淘汰最早的记录
func ReplayHistory(n int) ReplayerOption {
	return func(r *Replayer) {
		if n > 0 {
			r.limit = n
		}
	}
}

func NewReplayer(client redis.UniversalClient, opts ...ReplayerOption) *Replayer {
	r := &Replayer{
		client:  client,
		ignore:  make(map[string]struct{}),
		log:     logger.Named("replayer"),
		applied: make(map[string]struct{}),
		limit:   DefaultReplayHistory,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Replay 解码参数并通过 client.Do 重新执行命令。
// 被忽略来源的事件和已回放过的事件直接返回 nil；非写命令默认返回 ErrReplayRejected。
func (r *Replayer) Replay(ctx context.Context, e *CommandEvent) error {
	_, err := r.Apply(ctx, e)
	return err
}

// Apply 同 Replay，额外返回命令是否真正执行
func (r *Replayer) Apply(ctx context.Context, e *CommandEvent) (bool, error) {
	if _, skip := r.ignore[e.SourceBeanName]; skip {
		return false, nil
	}
	if !r.allowRead && !interceptor.IsWriteCommand(e.MethodName) {
		return false, apperrors.Derive(apperrors.ErrReplayRejected, e.MethodName, nil)
	}

	args, err := e.CommandArgs()
	if err != nil {
		return false, err
	}

	// 订阅回放和手动回放可能并发处理同一事件，先占位再执行
	if !r.claim(e.ID) {
		return false, nil
	}
	err = r.client.Do(ctx, args...).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		r.release(e.ID)
		return false, apperrors.Wrap(err, apperrors.CodeReplayFailed, "命令回放失败: "+e.MethodName)
	}
	return true, nil
}

// Replayed 事件是否已经回放过
func (r *Replayer) Replayed(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.applied[id]
	return ok
}

// claim 没有 ID 的事件不参与去重
func (r *Replayer) claim(id string) bool {
	if id == "" {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.applied[id]; ok {
		return false
	}
	r.applied[id] = struct{}{}
	r.history = append(r.history, id)
	if len(r.history) > r.limit {
		delete(r.applied, r.history[0])
		r.history = r.history[1:]
	}
	return true
}

func (r *Replayer) release(id string) {
	if id == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.applied, id)
	for i, h := range r.history {
		if h == id {
			r.history = append(r.history[:i], r.history[i+1:]...)
			break
		}
	}
}

// Send 实现 Sink，可直接挂在 event.Interceptor 后面做同步镜像
func (r *Replayer) Send(ctx context.Context, e *CommandEvent) error {
	return r.Replay(ctx, e)
}

// Handle 适配 Subscriber 的处理器，失败只记录日志
func (r *Replayer) Handle(e *CommandEvent) {
	if err := r.Replay(context.Background(), e); err != nil {
		r.log.Warn("命令回放失败",
			zap.String("event_id", e.ID),
			logger.Command(e.Method().String()),
			logger.Bean(e.SourceBeanName),
			zap.Error(err),
		)
	}
}
