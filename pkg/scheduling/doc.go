/*
Package scheduling groups the gosched task and pool packages.

  - task: the intrusively linked unit of work accepted by every pool
  - workerpool: fixed-size pool with per-worker queues and work stealing
  - elastic: pool that adds workers under backlog and retires them when idle

Work-stealing pool:

Suited to short CPU-bound tasks. Each of N workers owns a queue; producers
spread tasks round-robin and idle workers steal from their siblings.

	pool := workerpool.New(runtime.GOMAXPROCS(0))
	defer pool.Close()

	pool.Go(func(workerID int) {
		// Do work
	})

Elastic pool:

Suited to tasks that block. Workers are started while the backlog exceeds
five pending tasks per idle worker, up to a limit, and retire after 500ms
without work.

	pool := elastic.New(64)
	defer pool.Shutdown(context.Background())

	pool.Go(func(workerID int) {
		// Blocking call
	})

Tasks:

A task runs exactly once per Enqueue and must not panic. Disposal after Run
returns is up to the task: both pools drop their reference before Run is
called. Neither pool offers priorities, cancellation of queued tasks or
delayed execution.
*/
package scheduling
