package snapshot

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	gserrors "github.com/vnykmshr/gosched/pkg/common/errors"
	"github.com/vnykmshr/gosched/pkg/common/validation"
	"github.com/vnykmshr/gosched/pkg/metrics"
)

const module = "snapshot"

// DefaultSchedule collects once per second.
const DefaultSchedule = "@every 1s"

// Sink receives one pool's stats per collection.
type Sink interface {
	Publish(ctx context.Context, pool string, stats metrics.PoolStats) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, pool string, stats metrics.PoolStats) error

// Publish calls f.
func (f SinkFunc) Publish(ctx context.Context, pool string, stats metrics.PoolStats) error {
	return f(ctx, pool, stats)
}

// Config holds configuration for a Poller.
type Config struct {
	// Schedule is a cron expression with an optional seconds field, or a
	// descriptor such as "@every 5s". Defaults to DefaultSchedule.
	Schedule string

	// Timeout bounds a single collection across all sinks. Defaults to 1s.
	Timeout time.Duration

	// Logger receives collection failures.
	Logger *zerolog.Logger
}

// DefaultConfig returns the default poller configuration.
func DefaultConfig() Config {
	return Config{
		Schedule: DefaultSchedule,
		Timeout:  time.Second,
	}
}

// Poller periodically reads Stats from registered pools and hands them to
// every sink. Overlapping runs are skipped.
type Poller struct {
	config Config
	logger zerolog.Logger
	cron   *cron.Cron

	mu    sync.RWMutex
	pools map[string]metrics.StatsProvider
	sinks []Sink
}

// NewPoller creates a poller. The schedule is parsed eagerly so that a bad
// expression fails here rather than at Start.
func NewPoller(config Config) (*Poller, error) {
	config = applyConfigDefaults(config)
	if err := validation.ValidatePositiveDuration(module, "Timeout", config.Timeout); err != nil {
		return nil, err
	}

	p := &Poller{
		config: config,
		logger: config.Logger.With().Str("component", module).Logger(),
		pools:  make(map[string]metrics.StatsProvider),
	}

	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	p.cron = cron.New(
		cron.WithParser(parser),
		cron.WithLogger(cron.PrintfLogger(&p.logger)),
		cron.WithChain(cron.Recover(cron.PrintfLogger(&p.logger)), cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := p.cron.AddFunc(config.Schedule, p.tick); err != nil {
		return nil, gserrors.NewValidationError(module, "Schedule", config.Schedule, err.Error()).
			WithHint(`use a cron expression or a descriptor such as "@every 1s"`)
	}
	return p, nil
}

func applyConfigDefaults(config Config) Config {
	if config.Schedule == "" {
		config.Schedule = DefaultSchedule
	}
	if config.Timeout == 0 {
		config.Timeout = time.Second
	}
	if config.Logger == nil {
		nop := zerolog.Nop()
		config.Logger = &nop
	}
	return config
}

// AddPool adds or replaces a pool by name.
func (p *Poller) AddPool(name string, pool metrics.StatsProvider) {
	if pool == nil {
		return
	}
	if name == "" {
		name = "pool"
	}
	p.mu.Lock()
	p.pools[name] = pool
	p.mu.Unlock()
}

// RemovePool stops collecting name.
func (p *Poller) RemovePool(name string) {
	p.mu.Lock()
	delete(p.pools, name)
	p.mu.Unlock()
}

// AddSink adds a destination for collected stats.
func (p *Poller) AddSink(s Sink) {
	if s == nil {
		return
	}
	p.mu.Lock()
	p.sinks = append(p.sinks, s)
	p.mu.Unlock()
}

// Start begins scheduled collection in the background.
func (p *Poller) Start() {
	p.cron.Start()
}

// Stop halts the schedule and waits for a running collection to finish or
// for ctx to end.
func (p *Poller) Stop(ctx context.Context) error {
	done := p.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return gserrors.NewOperationError(module, "Stop", ctx.Err())
	}
}

// CollectOnce publishes every pool's current stats to every sink, in pool
// name order. Sink failures do not stop the remaining publishes; they are
// joined into the returned error.
func (p *Poller) CollectOnce(ctx context.Context) error {
	p.mu.RLock()
	names := make([]string, 0, len(p.pools))
	for name := range p.pools {
		names = append(names, name)
	}
	pools := make(map[string]metrics.StatsProvider, len(p.pools))
	for name, pool := range p.pools {
		pools[name] = pool
	}
	sinks := append([]Sink(nil), p.sinks...)
	p.mu.RUnlock()

	sort.Strings(names)

	var errs []error
	for _, name := range names {
		stats := pools[name].Stats()
		for _, s := range sinks {
			if err := s.Publish(ctx, name, stats); err != nil {
				errs = append(errs, gserrors.NewOperationError(module, "Publish", err).WithContext("pool "+name))
			}
		}
	}
	return errors.Join(errs...)
}

func (p *Poller) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.Timeout)
	defer cancel()
	if err := p.CollectOnce(ctx); err != nil {
		p.logger.Warn().Err(err).Msg("stats collection failed")
	}
}
