package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

func TestRecordOperation(t *testing.T) {
	before := testutil.ToFloat64(operationsTotal.WithLabelValues("provision", ResultError))
	RecordOperation("provision", errors.New("boom"))
	RecordOperation("provision", nil)
	assert.Equal(t, before+1, testutil.ToFloat64(operationsTotal.WithLabelValues("provision", ResultError)))
	assert.GreaterOrEqual(t, testutil.ToFloat64(operationsTotal.WithLabelValues("provision", ResultSuccess)), 1.0)
}

func TestObserveStep(t *testing.T) {
	ObserveStep("manifest-applied", 250*time.Millisecond, nil)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(stepDuration), 1)
}

func TestWorkloadUsage(t *testing.T) {
	SetWorkloadUsage("pg-abc", 0.25, 1024)
	assert.InDelta(t, 0.25, testutil.ToFloat64(workloadCPU.WithLabelValues("pg-abc")), 1e-9)
	assert.InDelta(t, 1024, testutil.ToFloat64(workloadMemory.WithLabelValues("pg-abc")), 1e-9)

	ForgetWorkload("pg-abc")
	assert.Equal(t, 0, testutil.CollectAndCount(workloadCPU))
}

func TestTasksRunning(t *testing.T) {
	SetTasksRunning(3)
	assert.InDelta(t, 3, testutil.ToFloat64(tasksRunning), 1e-9)
}

func TestRegisteredWithControllerRuntime(t *testing.T) {
	RecordHCloudAPICall("get_server", nil)
	families, err := metrics.Registry.Gather()
	assert.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["k8zdb_hcloud_api_calls_total"])
}
