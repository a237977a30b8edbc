package workerpool

import (
	"github.com/prometheus/client_golang/prometheus"

	gserrors "github.com/vnykmshr/gosched/pkg/common/errors"
	"github.com/vnykmshr/gosched/pkg/metrics"
)

// NewWithMetrics creates a pool that reports to reg under name.
// Pools sharing reg share its collectors and differ by the pool_name label;
// a nil reg gets a private registry. It panics if workerCount is not positive
// or the collectors cannot be registered on reg.
func NewWithMetrics(workerCount int, name string, reg prometheus.Registerer) *Pool {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	config := DefaultConfig()
	config.WorkerCount = workerCount
	config.Name = name

	p, err := NewWithConfigAndMetrics(config, metrics.Config{Enabled: true, Registry: reg})
	if err != nil {
		panic(err)
	}
	return p
}

// NewWithConfigAndMetrics creates a pool with custom config and metrics.
// When metricsConfig is disabled the pool is created without instrumentation;
// an unset Registry falls back to metrics.DefaultRegistry.
func NewWithConfigAndMetrics(config Config, metricsConfig metrics.Config) (*Pool, error) {
	if !metricsConfig.Enabled {
		config.Metrics = nil
		return NewWithConfig(config)
	}

	registry := metrics.DefaultRegistry
	if metricsConfig.Registry != nil || metricsConfig.Namespace != "" || len(metricsConfig.Labels) > 0 {
		var err error
		if registry, err = metrics.NewRegistryWithConfig(metricsConfig); err != nil {
			return nil, gserrors.NewOperationError(module, "NewWithConfigAndMetrics", err)
		}
	}
	config.Metrics = registry
	return NewWithConfig(config)
}
