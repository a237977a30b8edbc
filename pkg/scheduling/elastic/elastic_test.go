package elastic

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/vnykmshr/gosched/internal/testutil"
	gserrors "github.com/vnykmshr/gosched/pkg/common/errors"
	"github.com/vnykmshr/gosched/pkg/metrics"
	"github.com/vnykmshr/gosched/pkg/scheduling/task"
)

func shutdown(t *testing.T, p *Pool) {
	t.Helper()
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()
	require.NoError(t, p.Shutdown(ctx))
}

func TestNew(t *testing.T) {
	assert.Panics(t, func() { New(0) })

	p := New(3)
	defer shutdown(t, p)
	stats := p.Stats()
	testutil.AssertEqual(t, stats.Kind, "elastic")
	testutil.AssertEqual(t, stats.MaxWorkers, 3)
	testutil.AssertEqual(t, stats.Workers, 0)
}

func TestNewWithConfigDefaults(t *testing.T) {
	p, err := NewWithConfig(Config{MaxWorkers: 2})
	require.NoError(t, err)
	defer shutdown(t, p)

	testutil.AssertEqual(t, p.config.IdleTimeout, DefaultIdleTimeout)
	testutil.AssertEqual(t, p.config.GrowthRatio, DefaultGrowthRatio)
	testutil.AssertEqual(t, p.config.Name, "elastic")
}

func TestNewWithConfigInvalid(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		field  string
	}{
		{"zero max workers", Config{MaxWorkers: 0}, "MaxWorkers"},
		{"negative idle timeout", Config{MaxWorkers: 1, IdleTimeout: -time.Second}, "IdleTimeout"},
		{"negative growth ratio", Config{MaxWorkers: 1, GrowthRatio: -1}, "GrowthRatio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewWithConfig(tt.config)
			require.Error(t, err)
			assert.Nil(t, p)

			var verr *gserrors.ValidationError
			require.ErrorAs(t, err, &verr)
			testutil.AssertEqual(t, verr.Field, tt.field)
		})
	}
}

func TestRunsEveryTask(t *testing.T) {
	n := 1_000_000
	if testing.Short() {
		n = 100_000
	}

	p := New(8)
	defer shutdown(t, p)

	var count atomic.Int64
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		require.NoError(t, p.Go(func(int) {
			count.Add(1)
			wg.Done()
		}))
	}

	testutil.WaitGroup(t, &wg, 30*time.Second)
	testutil.AssertEqual(t, count.Load(), int64(n))
	testutil.AssertEqual(t, p.Stats().Executed, uint64(n))
}

func TestConcurrentEnqueue(t *testing.T) {
	const producers, perProducer = 8, 10_000

	p := New(4)
	var count atomic.Int64

	var g errgroup.Group
	for i := 0; i < producers; i++ {
		g.Go(func() error {
			for j := 0; j < perProducer; j++ {
				if err := p.Go(func(int) { count.Add(1) }); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	shutdown(t, p)
	testutil.AssertEqual(t, count.Load(), int64(producers*perProducer))
}

func TestGrowsUnderBacklogAndRetires(t *testing.T) {
	p, err := NewWithConfig(Config{MaxWorkers: 4, IdleTimeout: 50 * time.Millisecond})
	require.NoError(t, err)
	defer shutdown(t, p)

	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(20)
	for i := 0; i < 20; i++ {
		require.NoError(t, p.Go(func(int) {
			<-release
			wg.Done()
		}))
	}

	testutil.AssertEventually(t, func() bool { return p.Stats().Workers == 4 })
	assert.LessOrEqual(t, p.Stats().Spawned, uint64(4))

	close(release)
	testutil.WaitGroup(t, &wg, testutil.TestTimeout)

	testutil.AssertEventually(t, func() bool { return p.Stats().Workers == 0 })
	stats := p.Stats()
	testutil.AssertEqual(t, stats.Idle, 0)
	testutil.AssertEqual(t, stats.Retired, stats.Spawned)
}

func TestGrowthThreshold(t *testing.T) {
	p, err := NewWithConfig(Config{MaxWorkers: 4, IdleTimeout: time.Minute})
	require.NoError(t, err)
	defer shutdown(t, p)

	var wg sync.WaitGroup
	wg.Add(1)
	require.NoError(t, p.Go(func(int) { wg.Done() }))
	testutil.WaitGroup(t, &wg, testutil.TestTimeout)
	testutil.AssertEventually(t, func() bool {
		s := p.Stats()
		return s.Workers == 1 && s.Idle == 1 && s.Queued == 0
	})

	// Holding mu keeps the idle worker parked while the backlog builds.
	p.mu.Lock()
	wg.Add(DefaultGrowthRatio + 1)
	for i := 0; i < DefaultGrowthRatio; i++ {
		p.enqueueLocked(task.Func(func(int) { wg.Done() }))
	}
	atRatio := p.live
	p.enqueueLocked(task.Func(func(int) { wg.Done() }))
	overRatio := p.live
	p.mu.Unlock()

	testutil.AssertEqual(t, atRatio, 1)
	testutil.AssertEqual(t, overRatio, 2)

	testutil.WaitGroup(t, &wg, testutil.TestTimeout)
	testutil.AssertEventually(t, func() bool { return p.Stats().Executed == uint64(DefaultGrowthRatio+2) })
}

func TestTaskGoexit(t *testing.T) {
	p, err := NewWithConfig(Config{MaxWorkers: 1, IdleTimeout: time.Minute})
	require.NoError(t, err)

	require.NoError(t, p.Go(func(int) { runtime.Goexit() }))
	testutil.AssertEventually(t, func() bool { return p.Stats().Retired == 1 })

	stats := p.Stats()
	testutil.AssertEqual(t, stats.Workers, 0)
	testutil.AssertEqual(t, stats.Idle, 0)
	testutil.AssertEqual(t, stats.Executed, uint64(0))

	done := make(chan struct{})
	require.NoError(t, p.Go(func(int) { close(done) }))
	select {
	case <-done:
	case <-time.After(testutil.TestTimeout):
		t.Fatal("pool did not recover from a task calling Goexit")
	}
	shutdown(t, p)
}

func TestRetiresAfterDefaultIdleTimeout(t *testing.T) {
	p := New(4)
	defer shutdown(t, p)

	var wg sync.WaitGroup
	wg.Add(50)
	for i := 0; i < 50; i++ {
		require.NoError(t, p.Go(func(int) { wg.Done() }))
	}
	testutil.WaitGroup(t, &wg, testutil.TestTimeout)

	started := time.Now()
	testutil.AssertEventually(t, func() bool { return p.Stats().Workers == 0 })
	assert.GreaterOrEqual(t, time.Since(started), DefaultIdleTimeout/2)
}

func TestRestartsAfterRetiring(t *testing.T) {
	p, err := NewWithConfig(Config{MaxWorkers: 2, IdleTimeout: 10 * time.Millisecond})
	require.NoError(t, err)
	defer shutdown(t, p)

	for round := 0; round < 3; round++ {
		done := make(chan struct{})
		require.NoError(t, p.Go(func(int) { close(done) }))
		select {
		case <-done:
		case <-time.After(testutil.TestTimeout):
			t.Fatalf("round %d: task did not run", round)
		}
		testutil.AssertEventually(t, func() bool { return p.Stats().Workers == 0 })
	}
	assert.GreaterOrEqual(t, p.Stats().Spawned, uint64(3))
}

func TestFIFOWithSingleWorker(t *testing.T) {
	p := New(1)

	var mu sync.Mutex
	var order []int
	for i := 0; i < 100; i++ {
		i := i
		require.NoError(t, p.Go(func(int) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}))
	}
	shutdown(t, p)

	require.Len(t, order, 100)
	for i, v := range order {
		testutil.AssertEqual(t, v, i)
	}
	testutil.AssertEqual(t, p.Stats().Spawned, uint64(1))
}

func TestShutdownDrainsQueue(t *testing.T) {
	p := New(2)

	var ran atomic.Int64
	for i := 0; i < 100; i++ {
		require.NoError(t, p.Go(func(int) {
			time.Sleep(100 * time.Microsecond)
			ran.Add(1)
		}))
	}
	shutdown(t, p)

	testutil.AssertEqual(t, ran.Load(), int64(100))
	stats := p.Stats()
	assert.True(t, stats.Closed)
	testutil.AssertEqual(t, stats.Workers, 0)

	assert.ErrorIs(t, p.Go(func(int) {}), gserrors.ErrClosed)

	// A second Shutdown has nothing left to wait for.
	shutdown(t, p)
}

func TestShutdownContextExpires(t *testing.T) {
	p := New(1)

	release := make(chan struct{})
	running := make(chan struct{})
	require.NoError(t, p.Go(func(int) {
		close(running)
		<-release
	}))
	<-running

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.Shutdown(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// Retries share the first call's wait instead of starting their own.
	goroutines := runtime.NumGoroutine()
	expired, cancelExpired := context.WithCancel(context.Background())
	cancelExpired()
	for i := 0; i < 10; i++ {
		assert.ErrorIs(t, p.Shutdown(expired), context.Canceled)
	}
	assert.LessOrEqual(t, runtime.NumGoroutine(), goroutines)

	close(release)
	shutdown(t, p)
}

func TestEnqueueNil(t *testing.T) {
	p := New(1)
	defer shutdown(t, p)

	assert.ErrorIs(t, p.Enqueue(nil), gserrors.ErrNilTask)
	assert.ErrorIs(t, p.Go(nil), gserrors.ErrNilTask)
}

func TestTaskPanic(t *testing.T) {
	tracker := testutil.NewCallbackTracker()
	config := DefaultConfig(1)
	config.PanicHandler = func(_ *task.Task, workerID int, recovered interface{}) {
		tracker.Mark(recovered)
	}
	p, err := NewWithConfig(config)
	require.NoError(t, err)

	require.NoError(t, p.Go(func(int) { panic("boom") }))
	var after atomic.Bool
	require.NoError(t, p.Go(func(int) { after.Store(true) }))
	shutdown(t, p)

	assert.True(t, after.Load())
	tracker.AssertCallCount(t, 1)
	stats := p.Stats()
	testutil.AssertEqual(t, stats.Panicked, uint64(1))
	testutil.AssertEqual(t, stats.Executed, uint64(1))
}

func TestMetrics(t *testing.T) {
	registry := metrics.NewRegistry(prometheus.NewRegistry())
	config := DefaultConfig(4)
	config.Name = "io"
	config.IdleTimeout = 20 * time.Millisecond
	config.Metrics = registry

	p, err := NewWithConfig(config)
	require.NoError(t, err)

	const n = 200
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		require.NoError(t, p.Go(func(int) { wg.Done() }))
	}
	testutil.WaitGroup(t, &wg, testutil.TestTimeout)
	testutil.AssertEventually(t, func() bool { return p.Stats().Workers == 0 })
	shutdown(t, p)

	assert.Equal(t, float64(n), promtest.ToFloat64(registry.TasksEnqueued.WithLabelValues("io")))
	assert.Equal(t, float64(n), promtest.ToFloat64(registry.TasksExecuted.WithLabelValues("io")))
	assert.Equal(t, 0.0, promtest.ToFloat64(registry.WorkersLive.WithLabelValues("io")))
	assert.Equal(t, 0.0, promtest.ToFloat64(registry.QueuedTasks.WithLabelValues("io")))

	spawned := promtest.ToFloat64(registry.WorkersSpawned.WithLabelValues("io"))
	assert.GreaterOrEqual(t, spawned, 1.0)
	assert.Equal(t, spawned, promtest.ToFloat64(registry.WorkersRetired.WithLabelValues("io")))
}
