package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
)

// Backoff bounds a retried operation. The zero value tries once.
type Backoff struct {
	// Retries is the number of tries after the first.
	Retries int
	// Delay is the wait before the first retry; it doubles up to MaxDelay.
	Delay    time.Duration
	MaxDelay time.Duration
}

// ExhaustedError is returned when every try of a retried operation failed.
type ExhaustedError struct {
	Tries int
	Err   error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d tries: %v", e.Tries, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Do runs op until it succeeds, returns a [Fatal] error, the retries are spent
// or ctx ends. It reports how many tries were made. When only one try was
// allowed its error is returned as is.
func Do(ctx context.Context, b Backoff, op func(context.Context) error) (int, error) {
	delays := wait.Backoff{Duration: b.Delay, Factor: 2, Cap: b.MaxDelay, Steps: b.Retries + 1}

	for tries := 1; ; tries++ {
		err := op(ctx)
		switch {
		case err == nil:
			return tries, nil
		case IsFatal(err):
			return tries, err
		case tries > b.Retries && b.Retries == 0:
			return tries, err
		case tries > b.Retries:
			return tries, &ExhaustedError{Tries: tries, Err: err}
		}

		select {
		case <-ctx.Done():
			return tries, fmt.Errorf("interrupted after %d tries (last error: %v): %w", tries, err, ctx.Err())
		case <-time.After(delays.Step()):
		}
	}
}

// FatalError marks an error that must not be retried or polled past.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal wraps err so that Do and Poll stop on it. Fatal(nil) is nil.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

func IsFatal(err error) bool {
	var fatalErr *FatalError
	return errors.As(err, &fatalErr)
}
