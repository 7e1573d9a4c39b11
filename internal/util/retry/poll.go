package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
)

// PollConfig bounds a fixed-interval poll. At least one of Timeout and
// Attempts must be set; when both are set whichever runs out first wins.
type PollConfig struct {
	// What names the awaited condition in errors, e.g. "claim data-pg-1a2b-0 bound".
	What     string
	Interval time.Duration
	Timeout  time.Duration
	Attempts int
}

// Condition checks the awaited state once. It returns done when the state holds
// and a short description of what it observed. Non-fatal errors are recorded
// as the observed state and polling continues; errors marked with [Fatal]
// stop the poll.
type Condition func(ctx context.Context) (done bool, observed string, err error)

// DeadlineExceededError is returned when a poll runs out of time or attempts
// before its condition holds.
type DeadlineExceededError struct {
	What      string
	LastState string
	Attempts  int
	Elapsed   time.Duration
}

func (e *DeadlineExceededError) Error() string {
	state := e.LastState
	if state == "" {
		state = "nothing observed"
	}
	return fmt.Sprintf("timed out waiting for %s after %d attempts (%v): last observed state: %s",
		e.What, e.Attempts, e.Elapsed.Round(time.Millisecond), state)
}

// Unwrap lets callers match the error with errors.Is(err, context.DeadlineExceeded).
func (e *DeadlineExceededError) Unwrap() error {
	return context.DeadlineExceeded
}

// IsDeadlineExceeded reports whether err came from an exhausted poll.
func IsDeadlineExceeded(err error) bool {
	var deadlineErr *DeadlineExceededError
	return errors.As(err, &deadlineErr)
}

var errAttemptsExhausted = errors.New("attempts exhausted")

// Poll checks cond immediately and then once per interval until it reports
// done, the deadline passes or the attempt budget is spent. There is no
// backoff: every wait is exactly cfg.Interval.
func Poll(ctx context.Context, cfg PollConfig, cond Condition) error {
	if cfg.Interval <= 0 {
		return fmt.Errorf("poll %s: interval must be positive", cfg.What)
	}
	if cfg.Timeout <= 0 && cfg.Attempts <= 0 {
		return fmt.Errorf("poll %s: either timeout or attempts must be set", cfg.What)
	}

	start := time.Now()
	attempts := 0
	lastState := ""

	check := func(ctx context.Context) (bool, error) {
		attempts++
		done, observed, err := cond(ctx)
		if err != nil {
			if IsFatal(err) {
				return false, err
			}
			observed = err.Error()
		}
		if observed != "" {
			lastState = observed
		}
		if done {
			return true, nil
		}
		if cfg.Attempts > 0 && attempts >= cfg.Attempts {
			return false, errAttemptsExhausted
		}
		return false, nil
	}

	var err error
	if cfg.Timeout > 0 {
		err = wait.PollUntilContextTimeout(ctx, cfg.Interval, cfg.Timeout, true, check)
	} else {
		backoff := wait.Backoff{Duration: cfg.Interval, Factor: 1.0, Steps: cfg.Attempts + 1}
		err = wait.ExponentialBackoffWithContext(ctx, backoff, check)
	}
	if err == nil {
		return nil
	}

	exhausted := errors.Is(err, errAttemptsExhausted) || (wait.Interrupted(err) && ctx.Err() == nil)
	if exhausted {
		return &DeadlineExceededError{
			What:      cfg.What,
			LastState: lastState,
			Attempts:  attempts,
			Elapsed:   time.Since(start),
		}
	}
	if ctx.Err() != nil {
		return fmt.Errorf("waiting for %s: %w", cfg.What, ctx.Err())
	}
	return fmt.Errorf("waiting for %s: %w", cfg.What, err)
}
