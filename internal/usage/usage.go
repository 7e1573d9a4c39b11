// Package usage reports resource consumption of provisioned workloads from
// `kubectl top pod` output.
package usage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"k8s.io/apimachinery/pkg/api/resource"

	"github.com/imamik/k8zdb/internal/metrics"
	"github.com/imamik/k8zdb/internal/platform/kube"
	"github.com/imamik/k8zdb/internal/platform/ssh"
	"github.com/imamik/k8zdb/internal/util/labels"
	"github.com/imamik/k8zdb/internal/workload"
)

// Sample is one pod's usage at a point in time.
type Sample struct {
	Pod string `json:"pod"`
	// CPU is in cores; 250m parses as 0.25.
	CPU         float64 `json:"cpu"`
	MemoryBytes int64   `json:"memoryBytes"`
}

// Report aggregates the samples of one workload. It is never persisted.
type Report struct {
	Identity    workload.Identity `json:"identity"`
	Samples     []Sample          `json:"samples"`
	CPU         float64           `json:"cpu"`
	MemoryBytes int64             `json:"memoryBytes"`
	CollectedAt time.Time         `json:"collectedAt"`
}

// ParseTop parses `kubectl top pod --no-headers` output. Blank lines are
// skipped; any other line must have exactly three columns.
func ParseTop(output string) ([]Sample, error) {
	var samples []Sample
	for i, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 3 {
			return nil, fmt.Errorf("line %d: expected 3 columns, got %d", i+1, len(fields))
		}
		cpu, err := resource.ParseQuantity(fields[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid cpu %q: %w", i+1, fields[1], err)
		}
		mem, err := resource.ParseQuantity(fields[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid memory %q: %w", i+1, fields[2], err)
		}
		samples = append(samples, Sample{
			Pod:         fields[0],
			CPU:         float64(cpu.MilliValue()) / 1000,
			MemoryBytes: mem.Value(),
		})
	}
	return samples, nil
}

// Aggregate sums samples into a report.
func Aggregate(id workload.Identity, samples []Sample, now time.Time) *Report {
	r := &Report{Identity: id, Samples: samples, CollectedAt: now}
	for _, s := range samples {
		r.CPU += s.CPU
		r.MemoryBytes += s.MemoryBytes
	}
	return r
}

// Collect runs `kubectl top pod` for the workload's pods and publishes the
// result as metrics.
func Collect(ctx context.Context, runner ssh.Runner, k kube.Kubectl, rec *workload.Record) (*Report, error) {
	names := rec.Names()
	selector := labels.SelectorString(labels.Selector(names.Base))

	res, err := runner.Run(ctx, k.TopPod(rec.Spec.Namespace, selector))
	if err != nil {
		return nil, fmt.Errorf("failed to read usage of workload %s: %w", rec.Identity, err)
	}
	samples, err := ParseTop(res.Output)
	if err != nil {
		return nil, fmt.Errorf("failed to parse usage of workload %s: %w", rec.Identity, err)
	}

	report := Aggregate(rec.Identity, samples, time.Now())
	metrics.SetWorkloadUsage(string(rec.Identity), report.CPU, report.MemoryBytes)
	return report, nil
}
