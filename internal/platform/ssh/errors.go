package ssh

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrClosed is wrapped by errors from a Conn that was already closed.
var ErrClosed = errors.New("connection closed")

// ConnectError reports that no connection could be established.
type ConnectError struct {
	Addr     string
	Attempts int
	Err      error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("failed to connect to %s (%d attempts): %v", e.Addr, e.Attempts, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// ConnectionLostError reports a transport failure while running a command.
type ConnectionLostError struct {
	Host    string
	Command string
	Err     error
}

func (e *ConnectionLostError) Error() string {
	return fmt.Sprintf("connection to %s lost while running %q: %v", e.Host, e.Command, e.Err)
}

func (e *ConnectionLostError) Unwrap() error { return e.Err }

// CommandError reports a non-zero exit status.
type CommandError struct {
	Host     string
	Command  string
	ExitCode int
	Output   string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command %q on %s exited with code %d", e.Command, e.Host, e.ExitCode)
	if out := lastLines(e.Output, 5); out != "" {
		msg += ": " + out
	}
	return msg
}

// TimeoutError reports a command that was killed after its timeout.
type TimeoutError struct {
	Host    string
	Command string
	Timeout time.Duration
	Output  string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("command %q on %s timed out after %v", e.Command, e.Host, e.Timeout)
}

// IsConnectionError reports whether err is a ConnectError or ConnectionLostError.
func IsConnectionError(err error) bool {
	var connectErr *ConnectError
	var lostErr *ConnectionLostError
	return errors.As(err, &connectErr) || errors.As(err, &lostErr)
}

// IsCommandError reports whether err is a non-zero exit.
func IsCommandError(err error) bool {
	var cmdErr *CommandError
	return errors.As(err, &cmdErr)
}

// IsTimeout reports whether err is a command timeout.
func IsTimeout(err error) bool {
	var timeoutErr *TimeoutError
	return errors.As(err, &timeoutErr)
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, " | "))
}
