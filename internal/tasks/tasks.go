package tasks

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ID identifies a task. IDs are random UUIDs and never reused.
type ID string

// Kind selects the fixed-length procedure a task represents.
type Kind string

// Task kinds.
const (
	KindInstall   Kind = "install"
	KindUninstall Kind = "uninstall"
)

// Step totals per kind.
const (
	InstallSteps   = 8
	UninstallSteps = 6
)

// TotalSteps returns the number of steps of a kind.
func TotalSteps(k Kind) int {
	switch k {
	case KindInstall:
		return InstallSteps
	case KindUninstall:
		return UninstallSteps
	default:
		return 0
	}
}

// Status is the lifecycle state of a task.
type Status string

// Task statuses.
const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Errors returned by tracker mutators.
var (
	ErrNotFound = errors.New("task not found")
	ErrFinished = errors.New("task already finished")
)

// Snapshot is a consistent copy of a task's state.
type Snapshot struct {
	ID         ID         `json:"id"`
	Kind       Kind       `json:"kind"`
	Subject    string     `json:"subject,omitempty"`
	Status     Status     `json:"status"`
	Step       int        `json:"step"`
	TotalSteps int        `json:"totalSteps"`
	Progress   int        `json:"progress"`
	Logs       []string   `json:"logs"`
	Message    string     `json:"message,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartTime  time.Time  `json:"startTime"`
	EndTime    *time.Time `json:"endTime,omitempty"`
}

// Done reports whether the task reached a terminal status.
func (s Snapshot) Done() bool {
	return s.Status != StatusRunning
}

type task struct {
	mu      sync.Mutex
	id      ID
	kind    Kind
	subject string
	status  Status
	step    int
	total   int
	logs    []string
	message string
	err     string
	start   time.Time
	end     time.Time
}

func (t *task) snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Snapshot{
		ID:         t.id,
		Kind:       t.kind,
		Subject:    t.subject,
		Status:     t.status,
		Step:       t.step,
		TotalSteps: t.total,
		Logs:       append([]string(nil), t.logs...),
		Message:    t.message,
		Error:      t.err,
		StartTime:  t.start,
	}
	if t.total > 0 {
		s.Progress = t.step * 100 / t.total
	}
	if !t.end.IsZero() {
		end := t.end
		s.EndTime = &end
	}
	return s
}

// Tracker is a concurrency-safe registry of tasks.
type Tracker struct {
	mu    sync.RWMutex
	tasks map[ID]*task
	now   func() time.Time
	newID func() ID
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// NewTracker creates an empty tracker.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		tasks: make(map[ID]*task),
		now:   time.Now,
		newID: func() ID { return ID(uuid.NewString()) },
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start registers a running task of the given kind. Subject names what the
// task acts on, typically a workload identity.
func (tr *Tracker) Start(kind Kind, subject string) ID {
	t := &task{
		kind:    kind,
		subject: subject,
		status:  StatusRunning,
		total:   TotalSteps(kind),
		start:   tr.now(),
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()
	for {
		id := tr.newID()
		if _, taken := tr.tasks[id]; !taken {
			t.id = id
			tr.tasks[id] = t
			return id
		}
	}
}

func (tr *Tracker) get(id ID) (*task, error) {
	tr.mu.RLock()
	t, ok := tr.tasks[id]
	tr.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return t, nil
}

// update applies fn to a running task.
func (tr *Tracker) update(id ID, fn func(t *task)) error {
	t, err := tr.get(id)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != StatusRunning {
		return fmt.Errorf("%w: %s", ErrFinished, id)
	}
	fn(t)
	return nil
}

// AppendLog adds one line to the task log.
func (tr *Tracker) AppendLog(id ID, line string) error {
	return tr.update(id, func(t *task) {
		t.logs = append(t.logs, line)
	})
}

// Logf formats and appends one line to the task log.
func (tr *Tracker) Logf(id ID, format string, args ...any) error {
	return tr.AppendLog(id, fmt.Sprintf(format, args...))
}

// SetStep records the step the task is working on.
func (tr *Tracker) SetStep(id ID, step int) error {
	return tr.update(id, func(t *task) {
		t.step = clampStep(step, t.total)
	})
}

// Complete marks the task completed at its last step.
func (tr *Tracker) Complete(id ID, message string) error {
	now := tr.now()
	return tr.update(id, func(t *task) {
		t.status = StatusCompleted
		t.step = t.total
		t.message = message
		t.end = now
	})
}

// Fail marks the task failed at the given step.
func (tr *Tracker) Fail(id ID, message string, atStep int) error {
	now := tr.now()
	return tr.update(id, func(t *task) {
		t.status = StatusFailed
		t.step = clampStep(atStep, t.total)
		t.err = message
		t.end = now
	})
}

// Snapshot returns a copy of the task state.
func (tr *Tracker) Snapshot(id ID) (Snapshot, bool) {
	t, err := tr.get(id)
	if err != nil {
		return Snapshot{}, false
	}
	return t.snapshot(), true
}

// List returns snapshots of all tasks ordered by start time.
func (tr *Tracker) List() []Snapshot {
	tr.mu.RLock()
	all := make([]*task, 0, len(tr.tasks))
	for _, t := range tr.tasks {
		all = append(all, t)
	}
	tr.mu.RUnlock()

	out := make([]Snapshot, 0, len(all))
	for _, t := range all {
		out = append(out, t.snapshot())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

// Running returns the number of tasks still in progress.
func (tr *Tracker) Running() int {
	n := 0
	for _, s := range tr.List() {
		if !s.Done() {
			n++
		}
	}
	return n
}

func clampStep(step, total int) int {
	if step < 0 {
		return 0
	}
	if total > 0 && step > total {
		return total
	}
	return step
}
