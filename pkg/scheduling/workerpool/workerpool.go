package workerpool

import (
	"time"

	gserrors "github.com/vnykmshr/gosched/pkg/common/errors"
	"github.com/vnykmshr/gosched/pkg/metrics"
	"github.com/vnykmshr/gosched/pkg/scheduling/task"
)

// Enqueue hands t to the pool. It tries each worker's queue without blocking,
// starting from a round-robin index, and falls back to a blocking push on the
// start worker when every queue is busy. The task is never dropped: Enqueue
// either accepts it or returns ErrClosed.
func (p *Pool) Enqueue(t *task.Task) error {
	if t == nil {
		return gserrors.ErrNilTask
	}

	n := uint32(len(p.workers))
	start := (p.next.Add(1) - 1) % n

	if p.inst != nil {
		p.inst.Queued.Inc()
	}
	for i := uint32(0); i < n; i++ {
		switch p.workers[(start+i)%n].tryPush(t) {
		case pushOK:
			p.accepted()
			return nil
		case pushClosed:
			return p.rejected()
		}
	}

	if p.workers[start].push(t) == pushClosed {
		return p.rejected()
	}
	if p.inst != nil {
		p.inst.BlockingPushes.Inc()
	}
	p.accepted()
	return nil
}

// Go enqueues fn as a task.
func (p *Pool) Go(fn func(workerID int)) error {
	if fn == nil {
		return gserrors.ErrNilTask
	}
	return p.Enqueue(task.Func(fn))
}

func (p *Pool) accepted() {
	p.enqueued.Add(1)
	if p.inst != nil {
		p.inst.Enqueued.Inc()
	}
}

func (p *Pool) rejected() error {
	if p.inst != nil {
		p.inst.Queued.Dec()
	}
	return gserrors.ErrClosed
}

// RequestStop asks every worker to exit once its queue is empty. Tasks already
// queued still run; Enqueue returns ErrClosed from now on. It does not wait.
func (p *Pool) RequestStop() {
	p.stopping.Store(true)
	for i := range p.workers {
		p.workers[i].requestStop()
	}
}

// Close requests stop and waits for every worker to exit. It is safe to call
// more than once.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.RequestStop()
		p.wg.Wait()
		for i := range p.workers {
			p.workers[i].release()
		}
		p.logger.Debug().Msg("pool closed")
	})
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Stats returns a snapshot of the pool's counters.
func (p *Pool) Stats() metrics.PoolStats {
	queued := 0
	for i := range p.workers {
		queued += p.workers[i].len()
	}
	return metrics.PoolStats{
		Kind:       "workstealing",
		Workers:    int(p.spawned.Load() - p.retired.Load()),
		MaxWorkers: len(p.workers),
		Idle:       int(p.idle.Load()),
		Queued:     queued,
		Enqueued:   p.enqueued.Load(),
		Executed:   p.executed.Load(),
		Stolen:     p.stolen.Load(),
		Panicked:   p.panicked.Load(),
		Spawned:    p.spawned.Load(),
		Retired:    p.retired.Load(),
		Closed:     p.stopping.Load(),
	}
}

// run is the main loop of worker id. It reports the outcome of OnWorkerStart
// on started before taking any task.
func (p *Pool) run(id int, started chan<- error) {
	defer p.wg.Done()

	if p.config.OnWorkerStart != nil {
		if err := p.config.OnWorkerStart(id); err != nil {
			started <- err
			return
		}
	}
	p.workerUp(id)
	started <- nil
	defer p.workerDown(id)

	n := len(p.workers)
	for {
		var t *task.Task
		for i := 0; i < n && t == nil; i++ {
			src := (id + i) % n
			if t = p.workers[src].tryPop(); t != nil && src != id {
				p.stolen.Add(1)
				if p.inst != nil {
					p.inst.Stolen.Inc()
				}
			}
		}

		if t == nil {
			p.setIdle(1)
			t = p.workers[id].pop()
			p.setIdle(-1)
			if t == nil {
				return
			}
		}

		p.execute(t, id)
	}
}

func (p *Pool) workerUp(id int) {
	p.spawned.Add(1)
	if p.inst != nil {
		p.inst.Spawned.Inc()
		p.inst.Live.Inc()
	}
	p.logger.Debug().Int("worker", id).Msg("worker started")
}

func (p *Pool) workerDown(id int) {
	if p.config.OnWorkerStop != nil {
		p.config.OnWorkerStop(id)
	}
	p.retired.Add(1)
	if p.inst != nil {
		p.inst.Retired.Inc()
		p.inst.Live.Dec()
	}
	p.logger.Debug().Int("worker", id).Msg("worker stopped")
}

func (p *Pool) setIdle(delta int64) {
	p.idle.Add(delta)
	if p.inst != nil {
		p.inst.Idle.Add(float64(delta))
	}
}

func (p *Pool) execute(t *task.Task, id int) {
	if p.inst == nil {
		if task.Execute(t, id, p.onPanic) {
			p.executed.Add(1)
		}
		return
	}

	p.inst.Queued.Dec()
	start := time.Now()
	ok := task.Execute(t, id, p.onPanic)
	p.inst.Duration.Observe(time.Since(start).Seconds())
	if ok {
		p.executed.Add(1)
		p.inst.Executed.Inc()
	}
}

func (p *Pool) onPanic(t *task.Task, id int, recovered interface{}) {
	p.panicked.Add(1)
	if p.inst != nil {
		p.inst.Panicked.Inc()
	}
	p.logger.Error().Int("worker", id).Interface("panic", recovered).Msg("task panicked")
	if p.config.PanicHandler != nil {
		p.config.PanicHandler(t, id, recovered)
	}
}
