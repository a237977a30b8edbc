package snapshot

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/gosched/pkg/metrics"
)

// PrometheusSink exports each snapshot as gauges labelled by pool and kind.
// It suits pools created without a metrics.Registry, and exporters that
// only scrape point-in-time values.
type PrometheusSink struct {
	workers  *prometheus.GaugeVec
	idle     *prometheus.GaugeVec
	queued   *prometheus.GaugeVec
	executed *prometheus.GaugeVec
	panicked *prometheus.GaugeVec
	closed   *prometheus.GaugeVec
}

// NewPrometheusSink registers the snapshot gauges on reg. A nil reg means
// prometheus.DefaultRegisterer. Registering twice on the same registerer
// reuses the existing collectors.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	gauge := func(name, help string) (*prometheus.GaugeVec, error) {
		return registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metrics.DefaultNamespace,
			Subsystem: module,
			Name:      name,
			Help:      help,
		}, []string{"pool", "kind"}))
	}

	s := &PrometheusSink{}
	var err error
	if s.workers, err = gauge("workers", "Live workers per pool at the last snapshot."); err != nil {
		return nil, err
	}
	if s.idle, err = gauge("idle_workers", "Idle workers per pool at the last snapshot."); err != nil {
		return nil, err
	}
	if s.queued, err = gauge("queued_tasks", "Queued tasks per pool at the last snapshot."); err != nil {
		return nil, err
	}
	if s.executed, err = gauge("executed_tasks", "Executed task count snapshot."); err != nil {
		return nil, err
	}
	if s.panicked, err = gauge("panicked_tasks", "Panicked task count snapshot."); err != nil {
		return nil, err
	}
	if s.closed, err = gauge("closed", "Pool closed state (1=closed, 0=open)."); err != nil {
		return nil, err
	}
	return s, nil
}

func registerGaugeVec(reg prometheus.Registerer, g *prometheus.GaugeVec) (*prometheus.GaugeVec, error) {
	if err := reg.Register(g); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return g, nil
}

// Publish implements Sink.
func (s *PrometheusSink) Publish(_ context.Context, pool string, stats metrics.PoolStats) error {
	kind := stats.Kind
	if kind == "" {
		kind = "unknown"
	}
	s.workers.WithLabelValues(pool, kind).Set(float64(stats.Workers))
	s.idle.WithLabelValues(pool, kind).Set(float64(stats.Idle))
	s.queued.WithLabelValues(pool, kind).Set(float64(stats.Queued))
	s.executed.WithLabelValues(pool, kind).Set(float64(stats.Executed))
	s.panicked.WithLabelValues(pool, kind).Set(float64(stats.Panicked))
	if stats.Closed {
		s.closed.WithLabelValues(pool, kind).Set(1)
	} else {
		s.closed.WithLabelValues(pool, kind).Set(0)
	}
	return nil
}
