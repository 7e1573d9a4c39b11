package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/imamik/k8zdb/internal/platform/ssh"
)

// Reply scripts the outcome of a command on a FakeRemote.
type Reply struct {
	Output   string
	ExitCode int
	// Err is returned as is, e.g. a *ssh.TimeoutError.
	Err error
}

type rule struct {
	match string
	reply func(cmd string) Reply
}

// FakeRemote is a scripted ssh.Remote. Commands without a matching rule
// succeed with empty output.
type FakeRemote struct {
	mu       sync.Mutex
	rules    []rule
	commands []string
	uploads  map[string][]byte
	closed   int
}

var _ ssh.Remote = (*FakeRemote)(nil)

// NewFakeRemote creates a FakeRemote with no rules.
func NewFakeRemote() *FakeRemote {
	return &FakeRemote{uploads: make(map[string][]byte)}
}

// On scripts every command containing substr. Later rules win.
func (f *FakeRemote) On(substr string, r Reply) *FakeRemote {
	return f.OnFunc(substr, func(string) Reply { return r })
}

// OnFunc scripts every command containing substr with a function.
func (f *FakeRemote) OnFunc(substr string, fn func(cmd string) Reply) *FakeRemote {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, rule{match: substr, reply: fn})
	return f
}

// OnSequence replies with each element in turn, repeating the last one.
func (f *FakeRemote) OnSequence(substr string, replies ...Reply) *FakeRemote {
	var mu sync.Mutex
	i := 0
	return f.OnFunc(substr, func(string) Reply {
		mu.Lock()
		defer mu.Unlock()
		r := replies[min(i, len(replies)-1)]
		i++
		return r
	})
}

// Run implements ssh.Runner.
func (f *FakeRemote) Run(ctx context.Context, command string, opts ...ssh.RunOption) (*ssh.Result, error) {
	o := ssh.ResolveRunOptions(ssh.RunOptions{}, opts...)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	if f.closed > 0 {
		f.mu.Unlock()
		return nil, &ssh.ConnectionLostError{Host: "fake", Command: command, Err: ssh.ErrClosed}
	}
	f.commands = append(f.commands, command)
	var fn func(string) Reply
	for i := len(f.rules) - 1; i >= 0; i-- {
		if strings.Contains(command, f.rules[i].match) {
			fn = f.rules[i].reply
			break
		}
	}
	f.mu.Unlock()

	r := Reply{}
	if fn != nil {
		r = fn(command)
	}
	if r.Err != nil {
		return nil, r.Err
	}

	if o.OnLine != nil && r.Output != "" {
		for _, line := range strings.Split(strings.TrimRight(r.Output, "\n"), "\n") {
			o.OnLine(line)
		}
	}

	res := &ssh.Result{Output: r.Output, ExitCode: r.ExitCode}
	if r.ExitCode != 0 && !o.IgnoreExitCode {
		return res, &ssh.CommandError{Host: "fake", Command: command, ExitCode: r.ExitCode, Output: r.Output}
	}
	return res, nil
}

// Upload implements ssh.Runner. The upload is recorded as a command
// "upload <path>" so it can be scripted to fail.
func (f *FakeRemote) Upload(ctx context.Context, remotePath string, content io.Reader, _ os.FileMode) error {
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	if _, err := f.Run(ctx, "upload "+remotePath); err != nil {
		return fmt.Errorf("failed to upload %s: %w", remotePath, err)
	}
	f.mu.Lock()
	f.uploads[remotePath] = data
	f.mu.Unlock()
	return nil
}

// Close implements io.Closer.
func (f *FakeRemote) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

// Commands returns every command run so far.
func (f *FakeRemote) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

// Calls counts commands containing substr.
func (f *FakeRemote) Calls(substr string) int {
	n := 0
	for _, c := range f.Commands() {
		if strings.Contains(c, substr) {
			n++
		}
	}
	return n
}

// Uploaded returns the content uploaded to path.
func (f *FakeRemote) Uploaded(path string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.uploads[path]
	return data, ok
}

// Closed returns how many times Close was called.
func (f *FakeRemote) Closed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// FakeConnector hands out Remote on every Connect, or fails with Err.
type FakeConnector struct {
	Remote *FakeRemote
	Err    error

	mu    sync.Mutex
	calls int
}

// Connect implements the provisioning connector contract.
func (c *FakeConnector) Connect(context.Context) (ssh.Remote, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	if c.Remote == nil {
		return nil, errors.New("fake connector has no remote")
	}
	return c.Remote, nil
}

// Calls returns how many times Connect was called.
func (c *FakeConnector) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}
