// Package interceptor 基于 go-redis Hook 的命令拦截
//
// 每条命令（包括 pipeline 中的每一条）都会生成一个 MethodContext，
// 拦截器在命令发出前后拿到它，可以读取命令分组、参数、来源 bean 和耗时。
//
//	client := redis.NewClient(&redis.Options{Addr: addr})
//	metrics, _ := interceptor.NewMetricsInterceptor(nil)
//	interceptor.Instrument(client, "cache",
//		interceptor.NewLoggingInterceptor(nil, 100*time.Millisecond, time.Microsecond),
//		metrics,
//	)
//
// 在容器中使用时注册 ClientInstrumenter，它会在客户端 bean 初始化完成后自动挂载。
package interceptor
