// Package metrics provides Prometheus instrumentation for gosched pools.
//
// Both pool kinds accept a *Registry in their Config. When one is supplied, the
// pool binds its series to the pool's name once (Registry.For) and updates
// them on every enqueue, task completion and worker start or exit.
//
// # Quick Start
//
//	registry := metrics.NewRegistry(prometheus.NewRegistry())
//
//	pool, err := workerpool.NewWithConfig(workerpool.Config{
//		WorkerCount: 8,
//		Name:        "ingest",
//		Metrics:     registry,
//	})
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//	log.Fatal(http.ListenAndServe(":8080", nil))
//
// # Available Metrics
//
//   - gosched_pool_tasks_enqueued_total: Tasks accepted by the pool
//   - gosched_pool_tasks_executed_total: Tasks run to completion
//   - gosched_pool_tasks_stolen_total: Tasks taken from a sibling worker (work-stealing pool)
//   - gosched_pool_tasks_panicked_total: Tasks whose Run panicked
//   - gosched_pool_blocking_pushes_total: Enqueues that had to wait for a worker lock
//   - gosched_pool_task_duration_seconds: Time spent running tasks
//   - gosched_pool_workers_spawned_total: Worker goroutines started
//   - gosched_pool_workers_retired_total: Worker goroutines that exited
//   - gosched_pool_workers_live: Live worker goroutines
//   - gosched_pool_workers_idle: Workers waiting for work
//   - gosched_pool_queued_tasks: Tasks waiting in pool queues
//
// Every series carries a pool_name label.
//
// # Snapshots
//
// PoolStats is the point-in-time view returned by every pool's Stats method.
// The snapshot subpackage polls these on a cron schedule and publishes them
// to Prometheus gauges or Redis hashes.
package metrics
