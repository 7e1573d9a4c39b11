package ssh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/ssh"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/k8zdb/internal/util/shell"
)

// killGrace is how long Run waits for a killed session to report back.
const killGrace = 5 * time.Second

// Runner executes commands on a remote host.
type Runner interface {
	Run(ctx context.Context, command string, opts ...RunOption) (*Result, error)
	Upload(ctx context.Context, remotePath string, content io.Reader, mode os.FileMode) error
}

// Remote is a Runner whose connection the holder must close.
type Remote interface {
	Runner
	io.Closer
}

// Result is the outcome of a command that ran to completion.
type Result struct {
	// Output is the tail of combined stdout and stderr.
	Output    string
	ExitCode  int
	Truncated bool
}

// RunOptions are the resolved settings of one Run.
type RunOptions struct {
	Timeout        time.Duration
	IgnoreExitCode bool
	OnLine         func(string)
	Stdin          io.Reader
}

// RunOption configures a single Run.
type RunOption func(*RunOptions)

// ResolveRunOptions applies opts over defaults. Runner implementations
// other than Conn use it to honor the same options.
func ResolveRunOptions(defaults RunOptions, opts ...RunOption) RunOptions {
	for _, opt := range opts {
		opt(&defaults)
	}
	return defaults
}

// WithTimeout bounds the command. On expiry the session is killed and a
// *TimeoutError is returned.
func WithTimeout(d time.Duration) RunOption {
	return func(o *RunOptions) { o.Timeout = d }
}

// IgnoreExitCode makes a non-zero exit a normal Result instead of a
// *CommandError. Used for best-effort cleanup.
func IgnoreExitCode() RunOption {
	return func(o *RunOptions) { o.IgnoreExitCode = true }
}

// WithLineHandler receives every output line as it arrives.
func WithLineHandler(fn func(line string)) RunOption {
	return func(o *RunOptions) { o.OnLine = fn }
}

// WithStdin streams r to the command's standard input.
func WithStdin(r io.Reader) RunOption {
	return func(o *RunOptions) { o.Stdin = r }
}

// Conn is an open connection. It is safe for sequential use by one
// operation; every Run uses its own session.
type Conn struct {
	client         *ssh.Client
	host           string
	commandTimeout time.Duration
	tailLimit      int

	closeOnce sync.Once
	closeErr  error
	closed    atomic.Bool
}

// Run executes command and waits for it to finish.
func (c *Conn) Run(ctx context.Context, command string, opts ...RunOption) (*Result, error) {
	o := ResolveRunOptions(RunOptions{Timeout: c.commandTimeout}, opts...)

	if c.closed.Load() {
		return nil, &ConnectionLostError{Host: c.host, Command: command, Err: ErrClosed}
	}

	log.FromContext(ctx).V(1).Info("running remote command", "host", c.host, "command", command)

	session, err := c.client.NewSession()
	if err != nil {
		return nil, &ConnectionLostError{Host: c.host, Command: command, Err: fmt.Errorf("failed to open session: %w", err)}
	}
	defer func() { _ = session.Close() }()

	out := newTailBuffer(c.tailLimit, o.OnLine)
	session.Stdout = out
	session.Stderr = out
	if o.Stdin != nil {
		session.Stdin = o.Stdin
	}

	runCtx := ctx
	if o.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	if err := session.Start(command); err != nil {
		return nil, &ConnectionLostError{Host: c.host, Command: command, Err: fmt.Errorf("failed to start command: %w", err)}
	}

	done := make(chan error, 1)
	go func() { done <- session.Wait() }()

	var waitErr error
	select {
	case waitErr = <-done:
	case <-runCtx.Done():
		_ = session.Signal(ssh.SIGKILL)
		_ = session.Close()
		select {
		case <-done:
		case <-time.After(killGrace):
		}
		out.flush()
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{Host: c.host, Command: command, Timeout: o.Timeout, Output: out.String()}
		}
		return nil, fmt.Errorf("command %q on %s cancelled: %w", command, c.host, runCtx.Err())
	}
	out.flush()

	res := &Result{Output: out.String(), Truncated: out.Truncated()}
	if waitErr == nil {
		return res, nil
	}

	var exitErr *ssh.ExitError
	if errors.As(waitErr, &exitErr) {
		res.ExitCode = exitErr.ExitStatus()
		if o.IgnoreExitCode {
			return res, nil
		}
		return res, &CommandError{Host: c.host, Command: command, ExitCode: res.ExitCode, Output: res.Output}
	}

	return nil, &ConnectionLostError{Host: c.host, Command: command, Err: waitErr}
}

// Upload writes content to remotePath, creating parent directories.
func (c *Conn) Upload(ctx context.Context, remotePath string, content io.Reader, mode os.FileMode) error {
	cmd := fmt.Sprintf("mkdir -p %s && cat > %s && chmod %o %s",
		shell.Quote(path.Dir(remotePath)),
		shell.Quote(remotePath),
		mode.Perm(),
		shell.Quote(remotePath),
	)
	if _, err := c.Run(ctx, cmd, WithStdin(content)); err != nil {
		return fmt.Errorf("failed to upload %s: %w", remotePath, err)
	}
	return nil
}

// Close closes the connection. Subsequent calls return the first result.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.closeErr = c.client.Close()
	})
	return c.closeErr
}
