package provisioning

import (
	"time"

	"github.com/imamik/k8zdb/internal/metrics"
)

// RunPhases executes phases sequentially. Before a phase starts its 1-based
// index is reported as progress; the first failure stops the run and is
// returned as a *StepError.
func RunPhases(ctx *Context, phases []Phase) error {
	start := time.Now()
	ctx.Observer.Printf("Starting %d steps...", len(phases))

	for i, phase := range phases {
		phaseStart := time.Now()
		ctx.Observer.Progress(phase.Name(), i+1, len(phases))
		LogPhaseStart(ctx.Observer, phase.Name())

		err := phase.Provision(ctx)
		metrics.ObserveStep(phase.Name(), time.Since(phaseStart), err)
		if err != nil {
			LogPhaseFailed(ctx.Observer, phase.Name(), err)
			return &StepError{Index: i + 1, Step: phase.Name(), Err: err}
		}

		LogPhaseComplete(ctx.Observer, phase.Name(), time.Since(phaseStart))
	}

	ctx.Observer.Printf("All steps completed in %v", time.Since(start).Round(time.Millisecond))
	return nil
}
