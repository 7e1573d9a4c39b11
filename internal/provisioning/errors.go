package provisioning

import (
	"errors"
	"fmt"

	"github.com/imamik/k8zdb/internal/workload"
)

// ImportWarning reports a data import that failed after the workload was
// already usable. It is logged and never fails the orchestration.
type ImportWarning struct {
	Identity workload.Identity
	File     string
	Err      error
}

func (w *ImportWarning) Error() string {
	return fmt.Sprintf("import of %s into workload %s failed: %v", w.File, w.Identity, w.Err)
}

func (w *ImportWarning) Unwrap() error {
	return w.Err
}

// StepError identifies the step at which an orchestration stopped.
type StepError struct {
	// Index is 1-based.
	Index int
	Step  string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s step failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// FailedStep returns the step index carried by err, or 0 when the failure
// happened before the first step.
func FailedStep(err error) int {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr.Index
	}
	return 0
}
