package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metric instances for gosched pools.
type Registry struct {
	// Task flow
	TasksEnqueued  *prometheus.CounterVec
	TasksExecuted  *prometheus.CounterVec
	TasksStolen    *prometheus.CounterVec
	TasksPanicked  *prometheus.CounterVec
	BlockingPushes *prometheus.CounterVec
	TaskDuration   *prometheus.HistogramVec

	// Workers
	WorkersSpawned *prometheus.CounterVec
	WorkersRetired *prometheus.CounterVec
	WorkersLive    *prometheus.GaugeVec
	WorkersIdle    *prometheus.GaugeVec
	QueuedTasks    *prometheus.GaugeVec
}

// DefaultRegistry is the default metrics registry used by gosched pools.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
// It panics if the collectors cannot be registered.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r, err := NewRegistryWithConfig(Config{Registry: reg})
	if err != nil {
		panic(err)
	}
	return r
}

// NewRegistryWithConfig creates a metrics registry honoring the namespace and
// constant labels of config. A nil config.Registry means prometheus.DefaultRegisterer.
// Collectors already registered on the registerer by an earlier call are
// reused, so any number of pools can share one registerer.
func NewRegistryWithConfig(config Config) (*Registry, error) {
	reg := config.Registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	ns := config.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	labels := []string{"pool_name"}

	var err error
	counter := func(name, help string) *prometheus.CounterVec {
		if err != nil {
			return nil
		}
		var c *prometheus.CounterVec
		c, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   "pool",
			Name:        name,
			Help:        help,
			ConstLabels: config.Labels,
		}, labels))
		return c
	}
	gauge := func(name, help string) *prometheus.GaugeVec {
		if err != nil {
			return nil
		}
		var g *prometheus.GaugeVec
		g, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   "pool",
			Name:        name,
			Help:        help,
			ConstLabels: config.Labels,
		}, labels))
		return g
	}

	r := &Registry{
		TasksEnqueued:  counter("tasks_enqueued_total", "Total number of tasks accepted by the pool"),
		TasksExecuted:  counter("tasks_executed_total", "Total number of tasks run to completion"),
		TasksStolen:    counter("tasks_stolen_total", "Total number of tasks taken from a sibling worker's queue"),
		TasksPanicked:  counter("tasks_panicked_total", "Total number of tasks whose Run panicked"),
		BlockingPushes: counter("blocking_pushes_total", "Total number of enqueues that fell back to a blocking push"),

		WorkersSpawned: counter("workers_spawned_total", "Total number of worker goroutines started"),
		WorkersRetired: counter("workers_retired_total", "Total number of worker goroutines that exited"),
		WorkersLive:    gauge("workers_live", "Number of live worker goroutines"),
		WorkersIdle:    gauge("workers_idle", "Number of workers waiting for work"),
		QueuedTasks:    gauge("queued_tasks", "Number of tasks waiting in pool queues"),
	}
	if err != nil {
		return nil, err
	}

	r.TaskDuration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   ns,
		Subsystem:   "pool",
		Name:        "task_duration_seconds",
		Help:        "Time spent running tasks",
		Buckets:     prometheus.ExponentialBuckets(1e-6, 4, 12),
		ConstLabels: config.Labels,
	}, labels))
	if err != nil {
		return nil, err
	}
	return r, nil
}

// register adds c to reg, or returns the equal collector registered before.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, err
	}
	return c, nil
}

// Instruments are the series of a Registry bound to a single pool name.
// A nil *Instruments is valid and records nothing.
type Instruments struct {
	Enqueued       prometheus.Counter
	Executed       prometheus.Counter
	Stolen         prometheus.Counter
	Panicked       prometheus.Counter
	BlockingPushes prometheus.Counter
	Duration       prometheus.Observer
	Spawned        prometheus.Counter
	Retired        prometheus.Counter
	Live           prometheus.Gauge
	Idle           prometheus.Gauge
	Queued         prometheus.Gauge
}

// For binds the registry's series to pool, so that hot paths skip label lookups.
// It returns nil when r is nil.
func (r *Registry) For(pool string) *Instruments {
	if r == nil {
		return nil
	}
	return &Instruments{
		Enqueued:       r.TasksEnqueued.WithLabelValues(pool),
		Executed:       r.TasksExecuted.WithLabelValues(pool),
		Stolen:         r.TasksStolen.WithLabelValues(pool),
		Panicked:       r.TasksPanicked.WithLabelValues(pool),
		BlockingPushes: r.BlockingPushes.WithLabelValues(pool),
		Duration:       r.TaskDuration.WithLabelValues(pool),
		Spawned:        r.WorkersSpawned.WithLabelValues(pool),
		Retired:        r.WorkersRetired.WithLabelValues(pool),
		Live:           r.WorkersLive.WithLabelValues(pool),
		Idle:           r.WorkersIdle.WithLabelValues(pool),
		Queued:         r.QueuedTasks.WithLabelValues(pool),
	}
}
