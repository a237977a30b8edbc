package elastic

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vnykmshr/gosched/pkg/common/validation"
	"github.com/vnykmshr/gosched/pkg/metrics"
	"github.com/vnykmshr/gosched/pkg/scheduling/task"
)

const module = "elastic"

const (
	// DefaultIdleTimeout is how long a worker waits for work before retiring.
	DefaultIdleTimeout = 500 * time.Millisecond

	// DefaultGrowthRatio is the number of pending tasks per idle worker that
	// triggers a new worker.
	DefaultGrowthRatio = 5
)

// Config holds configuration options for creating an elastic pool.
type Config struct {
	// MaxWorkers bounds the number of live workers. Must be greater than 0.
	MaxWorkers int

	// IdleTimeout is how long an idle worker waits before it retires.
	// Zero means DefaultIdleTimeout.
	IdleTimeout time.Duration

	// GrowthRatio: a worker is added while pending > idle*GrowthRatio.
	// Zero means DefaultGrowthRatio.
	GrowthRatio int

	// Name identifies the pool in logs and metric labels.
	Name string

	// Logger receives worker lifecycle events and recovered task panics.
	Logger *zerolog.Logger

	// Metrics, if set, receives the pool's Prometheus series under Name.
	Metrics *metrics.Registry

	// PanicHandler is called after a panicking task has been logged and counted.
	PanicHandler task.PanicFunc
}

// DefaultConfig returns a Config for a pool of up to maxWorkers workers.
func DefaultConfig(maxWorkers int) Config {
	return Config{
		MaxWorkers:  maxWorkers,
		IdleTimeout: DefaultIdleTimeout,
		GrowthRatio: DefaultGrowthRatio,
		Name:        module,
	}
}

// Pool is a blocking pool that starts workers as backlog builds up and lets
// them retire after IdleTimeout without work. It starts with no workers.
//
// All state is guarded by one mutex. Workers are started while that mutex
// is held.
type Pool struct {
	config Config
	logger zerolog.Logger
	inst   *metrics.Instruments

	mu      sync.Mutex
	queue   task.Queue
	pending int
	idle    int
	live    int
	waiting int
	closed  bool
	nextID  int

	enqueued uint64
	executed uint64
	panicked uint64
	spawned  uint64
	retired  uint64

	// wake carries at most one token per worker; a token wakes one parked worker.
	wake chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
	// exited is closed once every worker has returned after Shutdown.
	exited chan struct{}

	shutdownOnce sync.Once
}

// New creates an elastic pool of up to maxWorkers workers with default
// settings. It panics if maxWorkers is not positive.
func New(maxWorkers int) *Pool {
	p, err := NewWithConfig(DefaultConfig(maxWorkers))
	if err != nil {
		panic(err)
	}
	return p
}

// NewWithConfig creates an elastic pool. No worker is started until the
// first task arrives.
func NewWithConfig(config Config) (*Pool, error) {
	config = applyConfigDefaults(config)
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return &Pool{
		config: config,
		logger: config.Logger.With().Str("pool", config.Name).Logger(),
		inst:   config.Metrics.For(config.Name),
		wake:   make(chan struct{}, config.MaxWorkers),
		done:   make(chan struct{}),
	}, nil
}

func validateConfig(config Config) error {
	if err := validation.ValidatePositive(module, "MaxWorkers", config.MaxWorkers); err != nil {
		return err
	}
	if err := validation.ValidatePositiveDuration(module, "IdleTimeout", config.IdleTimeout); err != nil {
		return err
	}
	return validation.ValidatePositive(module, "GrowthRatio", config.GrowthRatio)
}

func applyConfigDefaults(config Config) Config {
	if config.IdleTimeout == 0 {
		config.IdleTimeout = DefaultIdleTimeout
	}
	if config.GrowthRatio == 0 {
		config.GrowthRatio = DefaultGrowthRatio
	}
	if config.Name == "" {
		config.Name = module
	}
	if config.Logger == nil {
		nop := zerolog.Nop()
		config.Logger = &nop
	}
	return config
}
