// Package benchmarks provides timing estimates for task steps.
package benchmarks

import (
	"time"

	"github.com/imamik/k8zdb/internal/provisioning"
	"github.com/imamik/k8zdb/internal/provisioning/destroy"
	"github.com/imamik/k8zdb/internal/tasks"
)

// DefaultTimings are typical step durations on a small single-node cluster (seconds).
var DefaultTimings = map[string]int{
	provisioning.StepNamespace: 2,
	provisioning.StepArtifact:  10,
	provisioning.StepManifest:  5,
	provisioning.StepVolume:    15,
	provisioning.StepReady:     60,
	provisioning.StepEndpoint:  20,
	provisioning.StepImport:    30,
	provisioning.StepFinalize:  1,

	destroy.StepResolve:     1,
	destroy.StepStatefulSet: 3,
	destroy.StepService:     2,
	destroy.StepSecret:      2,
	destroy.StepClaim:       3,
	destroy.StepFiles:       1,
}

var stepOrder = map[tasks.Kind][]string{
	tasks.KindInstall: {
		provisioning.StepNamespace, provisioning.StepArtifact, provisioning.StepManifest,
		provisioning.StepVolume, provisioning.StepReady, provisioning.StepEndpoint,
		provisioning.StepImport, provisioning.StepFinalize,
	},
	tasks.KindUninstall: {
		destroy.StepResolve, destroy.StepStatefulSet, destroy.StepService,
		destroy.StepSecret, destroy.StepClaim, destroy.StepFiles,
	},
}

// StepRecord is the observed timing of one step.
type StepRecord struct {
	Step      string
	StartedAt time.Time
	// EndedAt is zero while the step runs.
	EndedAt time.Time
}

// Ended reports whether the step finished.
func (r StepRecord) Ended() bool { return !r.EndedAt.IsZero() }

// StepOrder returns the step names of a task kind.
func StepOrder(kind tasks.Kind) []string {
	return stepOrder[kind]
}

// StepName returns the name of the 1-based step of a task kind, or "".
func StepName(kind tasks.Kind, step int) string {
	order := stepOrder[kind]
	if step < 1 || step > len(order) {
		return ""
	}
	return order[step-1]
}

// EstimateRemaining calculates the time left for a task given its current
// step, the time spent in it and the steps observed so far.
func EstimateRemaining(kind tasks.Kind, currentStep string, stepElapsed time.Duration, history []StepRecord) time.Duration {
	return EstimateRemainingWithScale(kind, currentStep, stepElapsed, history, PerformanceScale(currentStep, stepElapsed, history))
}

// EstimateRemainingWithScale calculates the ETA while applying a performance scale factor.
func EstimateRemainingWithScale(
	kind tasks.Kind,
	currentStep string,
	stepElapsed time.Duration,
	history []StepRecord,
	scale float64,
) time.Duration {
	order := stepOrder[kind]
	currentIdx := -1
	for i, s := range order {
		if s == currentStep {
			currentIdx = i
			break
		}
	}
	if currentIdx < 0 {
		return 0
	}

	var remaining time.Duration
	if expected, ok := DefaultTimings[currentStep]; ok {
		expectedDur := time.Duration(float64(time.Duration(expected)*time.Second) * scale)
		if expectedDur > stepElapsed {
			remaining += expectedDur - stepElapsed
		}
	}

	completed := make(map[string]bool)
	for _, rec := range history {
		if rec.Ended() {
			completed[rec.Step] = true
		}
	}
	for _, step := range order[currentIdx+1:] {
		if completed[step] {
			continue
		}
		if expected, ok := DefaultTimings[step]; ok {
			remaining += time.Duration(float64(time.Duration(expected)*time.Second) * scale)
		}
	}
	return remaining
}

// PerformanceScale derives a speed multiplier from observed-vs-expected durations.
// Example: expected 1m, observed 1m30s => scale=1.5.
func PerformanceScale(currentStep string, stepElapsed time.Duration, history []StepRecord) float64 {
	var expectedTotal, actualTotal time.Duration

	for _, rec := range history {
		expectedSecs, ok := DefaultTimings[rec.Step]
		if !ok || !rec.Ended() {
			continue
		}
		expectedTotal += time.Duration(expectedSecs) * time.Second
		actualTotal += rec.EndedAt.Sub(rec.StartedAt)
	}

	// An overrunning current step counts immediately so the ETA adapts quickly.
	if expectedSecs, ok := DefaultTimings[currentStep]; ok && stepElapsed > 0 {
		expectedCurrent := time.Duration(expectedSecs) * time.Second
		if stepElapsed > expectedCurrent {
			expectedTotal += expectedCurrent
			actualTotal += stepElapsed
		}
	}

	if expectedTotal == 0 || actualTotal == 0 {
		return 1.0
	}
	scale := float64(actualTotal) / float64(expectedTotal)
	if scale < 0.6 {
		return 0.6
	}
	if scale > 3.0 {
		return 3.0
	}
	return scale
}

// TotalEstimate returns the estimated duration of a whole task.
func TotalEstimate(kind tasks.Kind) time.Duration {
	var total time.Duration
	for _, step := range stepOrder[kind] {
		total += time.Duration(DefaultTimings[step]) * time.Second
	}
	return total
}
