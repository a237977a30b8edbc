package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ForNilIsNil(t *testing.T) {
	var r *Registry
	assert.Nil(t, r.For("x"))
}

func TestRegistry_PoolsAreIsolatedByLabel(t *testing.T) {
	r := NewRegistry(prometheus.NewRegistry())

	r.For("a").Executed.Add(5)
	r.For("b").Executed.Inc()

	assert.Equal(t, 5.0, testutil.ToFloat64(r.TasksExecuted.WithLabelValues("a")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.TasksExecuted.WithLabelValues("b")))
}

func TestRegistryWithConfig_Namespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRegistryWithConfig(Config{
		Registry:  reg,
		Namespace: "myapp",
		Labels:    prometheus.Labels{"service": "indexer"},
	})
	require.NoError(t, err)
	r.For("p").Enqueued.Inc()

	expected := `
# HELP myapp_pool_tasks_enqueued_total Total number of tasks accepted by the pool
# TYPE myapp_pool_tasks_enqueued_total counter
myapp_pool_tasks_enqueued_total{pool_name="p",service="indexer"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "myapp_pool_tasks_enqueued_total"))
}

func TestRegistry_SharedRegistererReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewRegistry(reg)
	second, err := NewRegistryWithConfig(Config{Registry: reg})
	require.NoError(t, err)

	assert.Same(t, first.TasksEnqueued, second.TasksEnqueued)
	assert.Same(t, first.TaskDuration, second.TaskDuration)

	first.For("a").Enqueued.Inc()
	second.For("b").Enqueued.Add(2)

	count, err := testutil.GatherAndCount(reg, "gosched_pool_tasks_enqueued_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 2.0, testutil.ToFloat64(first.TasksEnqueued.WithLabelValues("b")))
}

func TestRegistryWithConfig_ConflictingCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gosched_pool_tasks_enqueued_total",
		Help: "something else",
	}))

	r, err := NewRegistryWithConfig(Config{Registry: reg})
	require.Error(t, err)
	assert.Nil(t, r)
	assert.Panics(t, func() { NewRegistry(reg) })
}
