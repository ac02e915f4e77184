/*
Package observability turns pipeline lifecycle hooks into logs and Prometheus
metrics.

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := metrics.Hooks().Merge(observability.LoggingHooks(logger))
	p := pipeline.New(pipeline.WithHooks(hooks))
	s := scheduler.New(p, scheduler.WithStepHook(metrics.ObserveStep))
*/
package observability
