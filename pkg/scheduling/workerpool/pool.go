package workerpool

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	gserrors "github.com/vnykmshr/gosched/pkg/common/errors"
	"github.com/vnykmshr/gosched/pkg/common/validation"
	"github.com/vnykmshr/gosched/pkg/metrics"
	"github.com/vnykmshr/gosched/pkg/scheduling/task"
)

const module = "workerpool"

// Config holds configuration options for creating a worker pool.
type Config struct {
	// WorkerCount is the number of workers in the pool.
	// Must be greater than 0.
	WorkerCount int

	// Name identifies the pool in logs and metric labels.
	// Defaults to "workerpool".
	Name string

	// Logger receives worker lifecycle events and recovered task panics.
	// Nil disables logging.
	Logger *zerolog.Logger

	// Metrics, if set, receives the pool's Prometheus series under Name.
	Metrics *metrics.Registry

	// PanicHandler is called when a task's Run panics. The pool has already
	// logged and counted the panic; the worker keeps running afterwards.
	PanicHandler task.PanicFunc

	// OnWorkerStart is called on each worker goroutine before it takes any
	// task. Returning an error aborts construction: workers already running
	// are stopped and joined, and NewWithConfig returns the error.
	OnWorkerStart func(workerID int) error

	// OnWorkerStop is called on each worker goroutine after it stops taking tasks.
	OnWorkerStop func(workerID int)
}

// DefaultConfig returns a Config with one worker per usable CPU.
func DefaultConfig() Config {
	return Config{
		WorkerCount: runtime.GOMAXPROCS(0),
		Name:        module,
	}
}

// Pool is a fixed-size work-stealing pool. Each worker owns a lock-guarded
// FIFO; Enqueue spreads tasks round-robin and idle workers steal from their
// siblings before blocking.
type Pool struct {
	config  Config
	logger  zerolog.Logger
	inst    *metrics.Instruments
	workers []workerState
	next    atomic.Uint32
	wg      sync.WaitGroup

	closeOnce sync.Once
	stopping  atomic.Bool

	idle     atomic.Int64
	enqueued atomic.Uint64
	executed atomic.Uint64
	stolen   atomic.Uint64
	panicked atomic.Uint64
	spawned  atomic.Uint64
	retired  atomic.Uint64
}

// New creates a pool with workerCount workers and default settings.
// It panics if workerCount is not positive.
func New(workerCount int) *Pool {
	config := DefaultConfig()
	config.WorkerCount = workerCount
	p, err := NewWithConfig(config)
	if err != nil {
		panic(err)
	}
	return p
}

// NewWithConfig creates a pool and starts its workers. Workers start one at a
// time; if any OnWorkerStart hook fails, the workers started so far are
// stopped and joined before the error is returned.
func NewWithConfig(config Config) (*Pool, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	config = applyConfigDefaults(config)

	p := &Pool{
		config:  config,
		logger:  config.Logger.With().Str("pool", config.Name).Logger(),
		inst:    config.Metrics.For(config.Name),
		workers: make([]workerState, config.WorkerCount),
	}
	for i := range p.workers {
		p.workers[i].init()
	}

	for i := range p.workers {
		started := make(chan error, 1)
		p.wg.Add(1)
		go p.run(i, started)
		if err := <-started; err != nil {
			p.RequestStop()
			p.wg.Wait()
			p.logger.Error().Err(err).Int("worker", i).Msg("worker failed to start, pool torn down")
			return nil, gserrors.NewOperationError(module, "New", err).
				WithContext(fmt.Sprintf("worker %d failed to start", i))
		}
	}

	p.logger.Debug().Int("workers", len(p.workers)).Msg("pool started")
	return p, nil
}

func validateConfig(config Config) error {
	return validation.ValidatePositive(module, "WorkerCount", config.WorkerCount)
}

func applyConfigDefaults(config Config) Config {
	if config.Name == "" {
		config.Name = module
	}
	if config.Logger == nil {
		nop := zerolog.Nop()
		config.Logger = &nop
	}
	return config
}
