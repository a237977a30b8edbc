package elastic

import (
	"context"
	"time"

	gserrors "github.com/vnykmshr/gosched/pkg/common/errors"
	"github.com/vnykmshr/gosched/pkg/metrics"
	"github.com/vnykmshr/gosched/pkg/scheduling/task"
)

// Enqueue queues t, wakes one idle worker and starts new workers if the
// backlog outgrows the idle ones. It returns ErrClosed after Shutdown.
func (p *Pool) Enqueue(t *task.Task) error {
	if t == nil {
		return gserrors.ErrNilTask
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return gserrors.ErrClosed
	}
	p.enqueueLocked(t)
	return nil
}

// enqueueLocked queues t and grows the pool. Must be called with mu held.
func (p *Pool) enqueueLocked(t *task.Task) {
	p.queue.PushBack(t)
	p.pending++
	p.enqueued++
	if p.inst != nil {
		p.inst.Enqueued.Inc()
	}
	p.signal()
	p.grow()
	p.observe()
}

// Go enqueues fn as a task.
func (p *Pool) Go(fn func(workerID int)) error {
	if fn == nil {
		return gserrors.ErrNilTask
	}
	return p.Enqueue(task.Func(fn))
}

// Shutdown stops accepting tasks, lets the workers drain the queue and waits
// for all of them to exit or for ctx to end. Without Shutdown workers still
// retire on their own once the pool has been idle for IdleTimeout.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		close(p.done)
		p.logger.Debug().Msg("pool shutting down")

		p.exited = make(chan struct{})
		go func() {
			p.wg.Wait()
			close(p.exited)
		}()
	})

	select {
	case <-p.exited:
		p.mu.Lock()
		p.queue.Release()
		p.mu.Unlock()
		return nil
	case <-ctx.Done():
		return gserrors.NewOperationError(module, "Shutdown", ctx.Err()).
			WithContext("workers still running")
	}
}

// Stats returns a snapshot of the pool's counters.
func (p *Pool) Stats() metrics.PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return metrics.PoolStats{
		Kind:       "elastic",
		Workers:    p.live,
		MaxWorkers: p.config.MaxWorkers,
		Idle:       p.idle,
		Queued:     p.pending,
		Enqueued:   p.enqueued,
		Executed:   p.executed,
		Panicked:   p.panicked,
		Spawned:    p.spawned,
		Retired:    p.retired,
		Closed:     p.closed,
	}
}

// signal wakes one parked worker. Must be called with mu held.
func (p *Pool) signal() {
	if p.waiting == 0 {
		return
	}
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// broadcast wakes every parked worker. Must be called with mu held.
func (p *Pool) broadcast() {
	for i := 0; i < p.waiting; i++ {
		select {
		case p.wake <- struct{}{}:
		default:
			return
		}
	}
}

// grow starts workers while the backlog exceeds GrowthRatio tasks per idle
// worker. Must be called with mu held.
func (p *Pool) grow() {
	for p.pending > p.idle*p.config.GrowthRatio && p.live < p.config.MaxWorkers {
		p.live++
		p.idle++
		p.spawned++
		id := p.nextID
		p.nextID++
		if p.inst != nil {
			p.inst.Spawned.Inc()
		}
		p.broadcast()

		p.wg.Add(1)
		go p.worker(id)
		p.logger.Debug().Int("worker", id).Int("pending", p.pending).Msg("worker started")
	}
}

func (p *Pool) observe() {
	if p.inst == nil {
		return
	}
	p.inst.Live.Set(float64(p.live))
	p.inst.Idle.Set(float64(p.idle))
	p.inst.Queued.Set(float64(p.pending))
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	timer := time.NewTimer(p.config.IdleTimeout)
	defer timer.Stop()

	p.mu.Lock()
	defer p.mu.Unlock()

	retired := false
	defer func() {
		if retired {
			return
		}
		// A task ended the goroutine; hand its queue to the rest of the pool.
		p.retire(id)
		p.signal()
		p.grow()
	}()

	for {
		p.idle--
		for !p.queue.Empty() {
			p.grow()
			t := p.queue.PopFront()
			p.pending--
			p.observe()

			if p.executeUnlocked(t, id) {
				p.executed++
			}
		}
		p.idle++
		p.observe()

		if p.closed || !p.park(timer) {
			p.idle--
			p.retire(id)
			retired = true
			return
		}
	}
}

// retire drops worker id from the live count. Must be called with mu held.
func (p *Pool) retire(id int) {
	p.live--
	p.retired++
	if p.inst != nil {
		p.inst.Retired.Inc()
	}
	p.observe()
	p.logger.Debug().Int("worker", id).Bool("shutdown", p.closed).Msg("worker retired")
}

// executeUnlocked runs t with mu released and holds mu again on return, even
// when the task calls runtime.Goexit or the panic handler panics.
func (p *Pool) executeUnlocked(t *task.Task, id int) bool {
	p.mu.Unlock()
	defer p.mu.Lock()
	return p.execute(t, id)
}

// park waits until the queue is non-empty, the pool is shut down or
// IdleTimeout elapses. Wakes that find nothing to do keep the first
// deadline. It reports false on timeout. Must be called with mu held.
func (p *Pool) park(timer *time.Timer) bool {
	deadline := time.Now().Add(p.config.IdleTimeout)
	for p.queue.Empty() && !p.closed {
		wait := time.Until(deadline)
		if wait <= 0 {
			return false
		}
		timer.Reset(wait)
		p.waiting++
		p.mu.Unlock()

		select {
		case <-p.wake:
		case <-timer.C:
		case <-p.done:
		}
		timer.Stop()

		p.mu.Lock()
		p.waiting--
	}
	return true
}

func (p *Pool) execute(t *task.Task, id int) bool {
	if p.inst == nil {
		return task.Execute(t, id, p.onPanic)
	}
	start := time.Now()
	ok := task.Execute(t, id, p.onPanic)
	p.inst.Duration.Observe(time.Since(start).Seconds())
	if ok {
		p.inst.Executed.Inc()
	}
	return ok
}

// onPanic runs on the worker without mu held.
func (p *Pool) onPanic(t *task.Task, id int, recovered interface{}) {
	p.mu.Lock()
	p.panicked++
	p.mu.Unlock()
	if p.inst != nil {
		p.inst.Panicked.Inc()
	}
	p.logger.Error().Int("worker", id).Interface("panic", recovered).Msg("task panicked")
	if p.config.PanicHandler != nil {
		p.config.PanicHandler(t, id, recovered)
	}
}
