package interceptor

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// MetricsInterceptor 采集命令耗时和错误数
type MetricsInterceptor struct {
	duration *prometheus.HistogramVec
	errors   *prometheus.CounterVec
}

// NewMetricsInterceptor 在 reg 上注册指标，reg 为 nil 时使用默认注册表。
// 同名指标已注册时复用已有的 collector。
func NewMetricsInterceptor(reg prometheus.Registerer) (*MetricsInterceptor, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_command_duration_seconds",
			Help:    "Redis command duration in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"command", "source"},
	)
	errs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_command_errors_total",
			Help: "Total number of failed Redis commands",
		},
		[]string{"command", "source"},
	)

	var err error
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if errs, err = register(reg, errs); err != nil {
		return nil, err
	}
	return &MetricsInterceptor{duration: duration, errors: errs}, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *MetricsInterceptor) Order() int { return 0 }

func (m *MetricsInterceptor) BeforeExecute(*MethodContext) {}

func (m *MetricsInterceptor) AfterExecute(mc *MethodContext, _ any, err error) {
	if elapsed, ok := mc.Elapsed(); ok {
		m.duration.WithLabelValues(mc.Method.Name, mc.SourceBeanName).Observe(elapsed.Seconds())
	}
	if err != nil && !errors.Is(err, redis.Nil) {
		m.errors.WithLabelValues(mc.Method.Name, mc.SourceBeanName).Inc()
	}
}
