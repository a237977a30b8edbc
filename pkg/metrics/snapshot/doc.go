/*
Package snapshot periodically exports pool Stats to external systems.

A Poller reads metrics.PoolStats from every registered pool on a cron
schedule and hands each snapshot to its sinks:

	poller, err := snapshot.NewPoller(snapshot.Config{Schedule: "@every 5s"})
	if err != nil {
		return err
	}
	poller.AddPool("ingest", ingestPool)
	poller.AddPool("io", ioPool)

	sink, _ := snapshot.NewPrometheusSink(prometheus.DefaultRegisterer)
	poller.AddSink(sink)

	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	rsink, _ := snapshot.NewRedisSink(snapshot.RedisConfig{Redis: rdb})
	poller.AddSink(rsink)

	poller.Start()
	defer poller.Stop(context.Background())

Schedules accept a standard five-field cron expression, a six-field one with
seconds, or a descriptor such as "@every 1s" or "@hourly".

The RedisSink writes one hash per pool so that a fleet of processes can be
inspected with plain redis-cli:

	HGETALL gosched:<instance>:ingest
*/
package snapshot
