package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace prefixes every gosched metric name.
const DefaultNamespace = "gosched"

// Config holds configuration for metrics collection.
type Config struct {
	// Enabled controls whether metrics collection is active.
	Enabled bool

	// Registry is the Prometheus registry to use. If nil, uses prometheus.DefaultRegisterer.
	Registry prometheus.Registerer

	// Namespace overrides the default "gosched" namespace for metrics.
	Namespace string

	// Labels are additional constant labels added to all metrics.
	Labels prometheus.Labels
}

// DefaultConfig returns a default metrics configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:   true,
		Registry:  prometheus.DefaultRegisterer,
		Namespace: DefaultNamespace,
		Labels:    nil,
	}
}

// PoolStats is a point-in-time view of a pool, shared by both pool kinds so
// that exporters need not know which one they are looking at.
type PoolStats struct {
	// Kind is "workstealing" or "elastic".
	Kind string

	// Workers is the number of live worker goroutines.
	Workers int

	// MaxWorkers is the configured upper bound (equal to Workers for a fixed pool).
	MaxWorkers int

	// Idle is the number of workers waiting for work.
	Idle int

	// Queued is the number of tasks accepted but not yet started.
	Queued int

	// Enqueued is the total number of tasks accepted.
	Enqueued uint64

	// Executed is the total number of tasks that returned from Run.
	Executed uint64

	// Stolen is the total number of tasks run by a worker other than the one
	// they were queued on. Always zero for an elastic pool.
	Stolen uint64

	// Panicked is the total number of tasks whose Run panicked.
	Panicked uint64

	// Spawned and Retired count worker goroutine starts and exits.
	Spawned uint64
	Retired uint64

	// Closed reports whether the pool has stopped accepting tasks.
	Closed bool
}

// StatsProvider is implemented by every gosched pool.
type StatsProvider interface {
	Stats() PoolStats
}
