// Package metrics holds the Prometheus collectors exported by k8zdb.
//
// Collectors register with controller-runtime's registry so that the serve
// command exposes them with the process defaults on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

// Operations counted by RecordOperation.
const (
	OpProvision = "provision"
	OpScale     = "scale"
	OpResize    = "resize"
	OpDestroy   = "destroy"
)

// Operation results.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "k8zdb",
			Subsystem: "orchestrator",
			Name:      "operations_total",
			Help:      "Total number of workload operations by operation and result",
		},
		[]string{"operation", "result"},
	)

	stepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "k8zdb",
			Subsystem: "orchestrator",
			Name:      "step_duration_seconds",
			Help:      "Duration of orchestration steps in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~7min
		},
		[]string{"step", "result"},
	)

	tasksRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "k8zdb",
			Subsystem: "tasks",
			Name:      "running",
			Help:      "Number of background tasks currently running",
		},
	)

	workloadCPU = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "k8zdb",
			Subsystem: "workload",
			Name:      "cpu_cores",
			Help:      "Last observed CPU usage of a workload in cores",
		},
		[]string{"identity"},
	)

	workloadMemory = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "k8zdb",
			Subsystem: "workload",
			Name:      "memory_bytes",
			Help:      "Last observed memory usage of a workload in bytes",
		},
		[]string{"identity"},
	)

	hcloudAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "k8zdb",
			Subsystem: "hcloud",
			Name:      "api_calls_total",
			Help:      "Total number of Hetzner Cloud API calls by operation and result",
		},
		[]string{"operation", "result"},
	)
)

func init() {
	metrics.Registry.MustRegister(
		operationsTotal,
		stepDuration,
		tasksRunning,
		workloadCPU,
		workloadMemory,
		hcloudAPICallsTotal,
	)
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}

// RecordOperation counts a finished provision, scale, resize or destroy.
func RecordOperation(operation string, err error) {
	operationsTotal.WithLabelValues(operation, result(err)).Inc()
}

// ObserveStep records how long an orchestration step took.
func ObserveStep(step string, d time.Duration, err error) {
	stepDuration.WithLabelValues(step, result(err)).Observe(d.Seconds())
}

// SetTasksRunning publishes the number of running tasks.
func SetTasksRunning(n int) {
	tasksRunning.Set(float64(n))
}

// SetWorkloadUsage publishes the latest usage of a workload.
func SetWorkloadUsage(identity string, cpuCores float64, memoryBytes int64) {
	workloadCPU.WithLabelValues(identity).Set(cpuCores)
	workloadMemory.WithLabelValues(identity).Set(float64(memoryBytes))
}

// ForgetWorkload drops the usage series of a removed workload.
func ForgetWorkload(identity string) {
	workloadCPU.DeleteLabelValues(identity)
	workloadMemory.DeleteLabelValues(identity)
}

// RecordHCloudAPICall counts a Hetzner Cloud API call.
func RecordHCloudAPICall(operation string, err error) {
	hcloudAPICallsTotal.WithLabelValues(operation, result(err)).Inc()
}
