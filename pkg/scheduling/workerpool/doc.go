/*
Package workerpool provides a fixed-size work-stealing pool of goroutines.

Each worker owns a FIFO guarded by its own mutex. Enqueue picks a start
worker round-robin and tries every queue without blocking; only when all of
them are locked does it block on the start worker's queue. A worker drains
its own queue first, then tries its siblings, and only then waits.

Basic usage:

	pool := workerpool.New(runtime.GOMAXPROCS(0))
	defer pool.Close()

	var done sync.WaitGroup
	done.Add(1)
	_ = pool.Go(func(workerID int) {
		defer done.Done()
		// Do work
	})
	done.Wait()

Tasks:

The unit of work is *task.Task. The link used to queue a task lives inside
the task, so enqueueing allocates nothing. Embed task.Task in your own type
to recycle task objects:

	type resize struct {
		task.Task
		path string
	}

	func (r *resize) Run(_ *task.Task, workerID int) {
		process(r.path)
		resizes.Put(r)
	}

	r := resizes.Get().(*resize)
	r.Init(r)
	err := pool.Enqueue(&r.Task)

A task must not be enqueued again until its Run has started.

Ordering:

Tasks queued on the same worker run in FIFO order. Across workers there is
no ordering, because idle workers steal.

Shutdown:

RequestStop makes every worker exit once its queue is empty; tasks already
accepted still run. Enqueue returns errors.ErrClosed after RequestStop, so a
task is either rejected or guaranteed to run. Close requests stop and joins
all workers.

Panics:

Run is expected not to panic. If it does, the pool recovers, logs the value
at error level, counts it in gosched_pool_tasks_panicked_total and calls
Config.PanicHandler. The worker keeps running.

Metrics:

	pool := workerpool.NewWithMetrics(8, "thumbnails", prometheus.DefaultRegisterer)

registers the gosched_pool_* series with pool_name="thumbnails". Stats
returns the same counters without Prometheus.
*/
package workerpool
