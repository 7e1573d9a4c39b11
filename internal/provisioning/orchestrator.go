package provisioning

import (
	"context"
	"fmt"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/k8zdb/internal/metrics"
	"github.com/imamik/k8zdb/internal/tasks"
	"github.com/imamik/k8zdb/internal/workload"
)

// Handle is returned by Start before any remote work happens.
type Handle struct {
	TaskID   tasks.ID          `json:"taskId"`
	Identity workload.Identity `json:"identity"`
}

// Result is the outcome of a finished orchestration.
type Result struct {
	Handle
	Record  *workload.Record
	Notices []string
	// Warning is set when the workload runs but its data import failed.
	Warning *ImportWarning
}

// Orchestrator provisions workloads.
type Orchestrator struct {
	deps       *Dependencies
	identities *workload.IdentityGenerator
	phases     []Phase
}

// NewOrchestrator creates an orchestrator. A nil generator uses the store
// as catalog with default settings.
func NewOrchestrator(deps *Dependencies, identities *workload.IdentityGenerator) (*Orchestrator, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid orchestrator dependencies: %w", err)
	}
	if identities == nil {
		identities = workload.NewIdentityGenerator(deps.Store)
	}
	return &Orchestrator{deps: deps, identities: identities, phases: Phases()}, nil
}

type job struct {
	handle Handle
	record *workload.Record
	spec   workload.Spec
}

// prepare validates the spec, allocates an identity, persists the BUILDING
// record and registers the task. Nothing touches the host.
func (o *Orchestrator) prepare(ctx context.Context, spec workload.Spec) (*job, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	id, err := o.identities.Next(ctx)
	if err != nil {
		return nil, err
	}

	rec := workload.NewRecord(id, spec, o.deps.now())
	if err := o.deps.Store.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to create workload record: %w", err)
	}

	taskID := o.deps.Tracker.Start(tasks.KindInstall, string(id))
	metrics.SetTasksRunning(o.deps.Tracker.Running())

	return &job{handle: Handle{TaskID: taskID, Identity: id}, record: rec, spec: spec}, nil
}

// Start validates synchronously and provisions in a background goroutine.
// The goroutine is detached from ctx cancellation; progress is observable
// through the task tracker and the record.
func (o *Orchestrator) Start(ctx context.Context, spec workload.Spec) (Handle, error) {
	j, err := o.prepare(ctx, spec)
	if err != nil {
		metrics.RecordOperation(metrics.OpProvision, err)
		return Handle{}, err
	}

	bg := context.WithoutCancel(ctx)
	go func() {
		_, _ = o.execute(bg, j)
	}()
	return j.handle, nil
}

// Run provisions synchronously.
func (o *Orchestrator) Run(ctx context.Context, spec workload.Spec) (*Result, error) {
	j, err := o.prepare(ctx, spec)
	if err != nil {
		metrics.RecordOperation(metrics.OpProvision, err)
		return nil, err
	}
	return o.execute(ctx, j)
}

func (o *Orchestrator) execute(ctx context.Context, j *job) (*Result, error) {
	logger := log.FromContext(ctx).WithValues("identity", j.handle.Identity, "task", j.handle.TaskID)
	ctx = log.IntoContext(ctx, logger)

	base := o.deps.BaseObserver(ctx).WithFields(map[string]string{"identity": string(j.handle.Identity)})
	observer := NewTaskObserver(o.deps.Tracker, j.handle.TaskID, base)

	res := &Result{Handle: j.handle}
	err := o.provision(ctx, j, observer, res)
	metrics.RecordOperation(metrics.OpProvision, err)

	if err != nil {
		j.record.Fail(err.Error(), o.deps.now())
		if saveErr := o.deps.Store.Update(ctx, j.record); saveErr != nil {
			logger.Error(saveErr, "failed to persist workload error state")
		}
		_ = o.deps.Tracker.Fail(j.handle.TaskID, err.Error(), FailedStep(err))
	} else {
		msg := fmt.Sprintf("workload %s running at %s:%d", j.record.Identity, j.record.Endpoint, j.record.Port)
		if res.Warning != nil {
			msg += " (data import failed)"
		}
		_ = o.deps.Tracker.Complete(j.handle.TaskID, msg)
	}
	metrics.SetTasksRunning(o.deps.Tracker.Running())

	res.Record = j.record.Clone()
	return res, err
}

func (o *Orchestrator) provision(ctx context.Context, j *job, observer Observer, res *Result) error {
	sess, err := o.deps.OpenSession(ctx, true)
	if err != nil {
		observer.Printf("%v", err)
		return err
	}
	defer CloseSession(log.FromContext(ctx), sess)

	pctx := NewContext(ctx, o.deps, sess, j.record, j.spec, observer)
	err = RunPhases(pctx, o.phases)
	res.Notices = pctx.State.Notices
	res.Warning = pctx.State.Warning
	return err
}
