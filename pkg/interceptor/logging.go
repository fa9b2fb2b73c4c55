package interceptor

import (
	"errors"
	"time"

	"github.com/beanhook/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// LoggingInterceptor 记录命令耗时，超过慢阈值或出错时输出 Warn
type LoggingInterceptor struct {
	log  *zap.Logger
	slow time.Duration
	unit time.Duration
}

// NewLoggingInterceptor slow 为 0 时不做慢命令判断，unit 为耗时字段的单位
func NewLoggingInterceptor(log *zap.Logger, slow, unit time.Duration) *LoggingInterceptor {
	if log == nil {
		log = logger.Named("redis")
	}
	if unit <= 0 {
		unit = time.Nanosecond
	}
	return &LoggingInterceptor{log: log, slow: slow, unit: unit}
}

func (l *LoggingInterceptor) Order() int { return 100 }

func (l *LoggingInterceptor) BeforeExecute(*MethodContext) {}

func (l *LoggingInterceptor) AfterExecute(mc *MethodContext, _ any, err error) {
	fields := []zap.Field{
		logger.Command(mc.Method.String()),
		logger.Bean(mc.SourceBeanName),
		zap.Int64("duration", mc.Duration(l.unit)),
		zap.String("unit", unitName(l.unit)),
	}

	if err != nil && !errors.Is(err, redis.Nil) {
		l.log.Warn("Redis 命令执行失败", append(fields, zap.Error(err))...)
		return
	}

	if elapsed, ok := mc.Elapsed(); ok && l.slow > 0 && elapsed > l.slow {
		l.log.Warn("Redis 慢命令", append(fields, zap.Duration("threshold", l.slow))...)
		return
	}

	l.log.Debug("Redis 命令", fields...)
}

func unitName(unit time.Duration) string {
	switch unit {
	case time.Microsecond:
		return "us"
	case time.Millisecond:
		return "ms"
	case time.Second:
		return "s"
	default:
		return "ns"
	}
}
