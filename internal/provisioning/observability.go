package provisioning

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/k8zdb/internal/tasks"
)

// Logger is the minimal printf-style sink phases write to.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Observer defines the interface for structured observability during provisioning.
type Observer interface {
	Logger

	// Event emits a structured event
	Event(event Event)

	// Progress reports that step current of total has started
	Progress(phase string, current, total int)

	// WithFields returns a new Observer with additional context fields
	WithFields(fields map[string]string) Observer
}

// Event represents a structured provisioning event.
type Event struct {
	Type      EventType
	Phase     string
	Message   string
	Resource  string
	Timestamp time.Time
	Fields    map[string]string
}

// EventType represents the type of provisioning event.
type EventType string

const (
	// EventPhaseStarted indicates a provisioning phase has started.
	EventPhaseStarted EventType = "phase.started"
	// EventPhaseCompleted indicates a provisioning phase completed successfully.
	EventPhaseCompleted EventType = "phase.completed"
	// EventPhaseFailed indicates a provisioning phase failed.
	EventPhaseFailed EventType = "phase.failed"

	// EventResourceCreated indicates a resource was created successfully.
	EventResourceCreated EventType = "resource.created"
	// EventResourceExists indicates a resource already exists.
	EventResourceExists EventType = "resource.exists"
	// EventResourceDeleted indicates a delete was issued for a resource.
	EventResourceDeleted EventType = "resource.deleted"

	// EventNotice is informational output that needs no action.
	EventNotice EventType = "notice"
	// EventWarning indicates a degraded but non-fatal outcome.
	EventWarning EventType = "warning"
)

// ConsoleObserver implements Observer on a logr.Logger.
type ConsoleObserver struct {
	log           logr.Logger
	contextFields map[string]string
}

// NewConsoleObserver creates a new console-based observer.
func NewConsoleObserver(log logr.Logger) *ConsoleObserver {
	return &ConsoleObserver{
		log:           log,
		contextFields: make(map[string]string),
	}
}

func (o *ConsoleObserver) keysAndValues(extra map[string]string) []interface{} {
	merged := make(map[string]string, len(o.contextFields)+len(extra))
	for k, v := range o.contextFields {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	kv := make([]interface{}, 0, 2*len(keys))
	for _, k := range keys {
		kv = append(kv, k, merged[k])
	}
	return kv
}

// Printf implements Logger.
func (o *ConsoleObserver) Printf(format string, v ...interface{}) {
	o.log.Info(fmt.Sprintf(format, v...), o.keysAndValues(nil)...)
}

// Event implements Observer.
func (o *ConsoleObserver) Event(event Event) {
	kv := o.keysAndValues(event.Fields)
	kv = append(kv, "event", string(event.Type))
	if event.Phase != "" {
		kv = append(kv, "step", event.Phase)
	}
	if event.Resource != "" {
		kv = append(kv, "resource", event.Resource)
	}
	if event.Type == EventPhaseFailed || event.Type == EventWarning {
		o.log.Info("WARNING: "+event.Message, kv...)
		return
	}
	o.log.Info(event.Message, kv...)
}

// Progress implements Observer.
func (o *ConsoleObserver) Progress(phase string, current, total int) {
	percentage := 0
	if total > 0 {
		percentage = (current * 100) / total
	}
	o.log.V(1).Info("progress", append(o.keysAndValues(nil), "step", phase, "current", current, "total", total, "percent", percentage)...)
}

// WithFields implements Observer.
func (o *ConsoleObserver) WithFields(fields map[string]string) Observer {
	newFields := make(map[string]string, len(o.contextFields)+len(fields))
	for k, v := range o.contextFields {
		newFields[k] = v
	}
	for k, v := range fields {
		newFields[k] = v
	}
	return &ConsoleObserver{log: o.log, contextFields: newFields}
}

// TaskObserver mirrors observations into a task of the tracker and forwards
// them to an inner observer.
type TaskObserver struct {
	tracker *tasks.Tracker
	id      tasks.ID
	next    Observer
}

// NewTaskObserver creates an observer bound to one task.
func NewTaskObserver(tracker *tasks.Tracker, id tasks.ID, next Observer) *TaskObserver {
	return &TaskObserver{tracker: tracker, id: id, next: next}
}

// Printf implements Logger.
func (o *TaskObserver) Printf(format string, v ...interface{}) {
	_ = o.tracker.Logf(o.id, format, v...)
	o.next.Printf(format, v...)
}

// Event implements Observer.
func (o *TaskObserver) Event(event Event) {
	_ = o.tracker.AppendLog(o.id, FormatEvent(event))
	o.next.Event(event)
}

// Progress implements Observer.
func (o *TaskObserver) Progress(phase string, current, total int) {
	_ = o.tracker.SetStep(o.id, current)
	o.next.Progress(phase, current, total)
}

// WithFields implements Observer.
func (o *TaskObserver) WithFields(fields map[string]string) Observer {
	return &TaskObserver{tracker: o.tracker, id: o.id, next: o.next.WithFields(fields)}
}

// FormatEvent renders an event as a single task log line.
func FormatEvent(event Event) string {
	var parts []string
	if event.Phase != "" {
		parts = append(parts, fmt.Sprintf("[%s]", event.Phase))
	}
	switch event.Type {
	case EventWarning, EventPhaseFailed:
		parts = append(parts, "WARNING:")
	case EventNotice:
		parts = append(parts, "NOTICE:")
	}
	if event.Resource != "" {
		parts = append(parts, event.Resource)
	}
	parts = append(parts, event.Message)
	return strings.Join(parts, " ")
}

// LogPhaseStart logs a phase start event.
func LogPhaseStart(observer Observer, phase string) {
	observer.Event(Event{
		Type:    EventPhaseStarted,
		Phase:   phase,
		Message: "starting",
	})
}

// LogPhaseComplete logs a phase completion event.
func LogPhaseComplete(observer Observer, phase string, duration time.Duration) {
	observer.Event(Event{
		Type:    EventPhaseCompleted,
		Phase:   phase,
		Message: fmt.Sprintf("completed in %v", duration.Round(time.Millisecond)),
	})
}

// LogPhaseFailed logs a phase failure event.
func LogPhaseFailed(observer Observer, phase string, err error) {
	observer.Event(Event{
		Type:    EventPhaseFailed,
		Phase:   phase,
		Message: fmt.Sprintf("failed: %v", err),
	})
}

// LogResourceCreated logs a successful resource creation event.
func LogResourceCreated(observer Observer, phase, resourceType, resourceName string) {
	observer.Event(Event{
		Type:     EventResourceCreated,
		Phase:    phase,
		Resource: resourceName,
		Message:  fmt.Sprintf("%s created", resourceType),
		Fields:   map[string]string{"type": resourceType},
	})
}

// LogResourceExists logs when a resource already exists.
func LogResourceExists(observer Observer, phase, resourceType, resourceName string) {
	observer.Event(Event{
		Type:     EventResourceExists,
		Phase:    phase,
		Resource: resourceName,
		Message:  fmt.Sprintf("%s already exists", resourceType),
		Fields:   map[string]string{"type": resourceType},
	})
}

// LogResourceDeleted logs an issued delete.
func LogResourceDeleted(observer Observer, phase, resourceType, resourceName string) {
	observer.Event(Event{
		Type:     EventResourceDeleted,
		Phase:    phase,
		Resource: resourceName,
		Message:  fmt.Sprintf("%s deleted", resourceType),
		Fields:   map[string]string{"type": resourceType},
	})
}

// LogNotice logs an informational notice.
func LogNotice(observer Observer, phase, message string) {
	observer.Event(Event{Type: EventNotice, Phase: phase, Message: message})
}

// LogWarning logs a non-fatal problem.
func LogWarning(observer Observer, phase string, err error) {
	observer.Event(Event{Type: EventWarning, Phase: phase, Message: err.Error()})
}
