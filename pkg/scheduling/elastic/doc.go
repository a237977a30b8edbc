/*
Package elastic provides a blocking pool that grows with its backlog and
shrinks when idle.

The pool starts with no workers. Every Enqueue wakes one idle worker and
then checks whether the backlog has outgrown the idle workers: while more
than GrowthRatio tasks are pending per idle worker, and fewer than
MaxWorkers are live, a new worker is started. Workers re-run the same check
before each task, so a sustained backlog keeps adding workers up to the
limit. A worker that finds no work for IdleTimeout retires.

Basic usage:

	pool := elastic.New(64)
	defer pool.Shutdown(context.Background())

	_ = pool.Go(func(workerID int) {
		// Blocking work, such as a file or network call
	})

Unlike workerpool, all state sits behind a single mutex and tasks are run
in FIFO order from one shared queue. It suits tasks that block, where the
number of goroutines should follow demand.

Shutdown:

Shutdown stops accepting tasks, lets the workers drain what is queued and
waits for them. Callers that never call Shutdown still get every worker back
after IdleTimeout without work.
*/
package elastic
