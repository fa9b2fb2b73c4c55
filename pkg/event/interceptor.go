package event

import (
	"github.com/beanhook/pkg/interceptor"
	"github.com/beanhook/pkg/logger"
	"go.uber.org/zap"
)

// Interceptor 把执行成功的命令转成 CommandEvent 交给 Sink
type Interceptor struct {
	sink      Sink
	writeOnly bool
	log       *zap.Logger
}

var _ interceptor.Interceptor = (*Interceptor)(nil)

// NewInterceptor writeOnly 为 true 时只记录写命令
func NewInterceptor(sink Sink, writeOnly bool) *Interceptor {
	return &Interceptor{
		sink:      sink,
		writeOnly: writeOnly,
		log:       logger.Named("event"),
	}
}

// Order 排在链尾，After 最先执行，记录的耗时最接近命令本身
func (i *Interceptor) Order() int { return 1000 }

func (i *Interceptor) BeforeExecute(*interceptor.MethodContext) {}

func (i *Interceptor) AfterExecute(mc *interceptor.MethodContext, _ any, err error) {
	if err != nil {
		return
	}
	// 发布命令不记录，避免经 Publisher 发出的事件再次产生事件；
	// 连接握手（HELLO、CLIENT SETINFO 等）由客户端自动发出，同样跳过
	switch mc.Method.Interface {
	case interceptor.GroupPubSub, interceptor.GroupConnection:
		return
	}
	if i.writeOnly && !interceptor.IsWriteCommand(mc.Method.Name) {
		return
	}

	e, err := FromMethodContext(mc)
	if err != nil {
		i.log.Warn("命令事件编码失败", logger.Command(mc.Method.String()), zap.Error(err))
		return
	}
	if err := i.sink.Send(mc.Context, e); err != nil {
		i.log.Warn("命令事件发送失败",
			logger.Command(mc.Method.String()),
			zap.String("event_id", e.ID),
			zap.Error(err),
		)
	}
}
