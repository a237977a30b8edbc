/*
Package gosched provides in-process task scheduling primitives for Go: an
intrusive task queue, a lock-free intrusive stack, and two pools built on
them.

Containers (pkg/intrusive):
  - Queue: singly linked FIFO whose link lives inside each item
  - Stack: lock-free multi-producer stack with an atomic drain-all

Scheduling (pkg/scheduling):
  - task: unit of work carrying its own queue link
  - workerpool: fixed-size work-stealing pool
  - elastic: pool that grows with its backlog and shrinks when idle

Observability (pkg/metrics):
  - metrics: Prometheus series for every pool, labelled by pool name
  - snapshot: cron-driven export of pool stats to Prometheus and Redis

Example usage:

	import (
		"github.com/vnykmshr/gosched/pkg/scheduling/elastic"
		"github.com/vnykmshr/gosched/pkg/scheduling/workerpool"
	)

	cpu := workerpool.New(runtime.GOMAXPROCS(0))
	defer cpu.Close()

	io := elastic.New(64)
	defer io.Shutdown(context.Background())

	io.Go(func(int) {
		data := fetch()
		cpu.Go(func(int) { process(data) })
	})

Every pool accepts a zerolog logger and a metrics registry through its
Config. See the package documentation for details.
*/
package gosched
