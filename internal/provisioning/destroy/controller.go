package destroy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/util/validation"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/k8zdb/internal/metrics"
	"github.com/imamik/k8zdb/internal/platform/ssh"
	"github.com/imamik/k8zdb/internal/provisioning"
	"github.com/imamik/k8zdb/internal/tasks"
	"github.com/imamik/k8zdb/internal/util/labels"
	"github.com/imamik/k8zdb/internal/util/naming"
	"github.com/imamik/k8zdb/internal/util/shell"
	"github.com/imamik/k8zdb/internal/workload"
)

// Controller removes workloads.
type Controller struct {
	deps *provisioning.Dependencies
}

// NewController creates a teardown controller.
func NewController(deps *provisioning.Dependencies) (*Controller, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid destroy controller dependencies: %w", err)
	}
	return &Controller{deps: deps}, nil
}

// target is one set of names to delete in one namespace.
type target struct {
	namespace string
	names     workload.Names
	claims    string
	dir       string
}

// teardown carries the state shared by the phases of one run.
type teardown struct {
	id      workload.Identity
	deps    *provisioning.Dependencies
	targets []target
}

// Validate rejects identities that cannot name cluster objects.
func Validate(id workload.Identity) error {
	if errs := validation.IsDNS1123Label(string(id)); len(errs) > 0 {
		return workload.Invalid("identity", "%q is not a valid identity: %s", id, strings.Join(errs, "; "))
	}
	return nil
}

// Destroy tears the workload down synchronously.
func (c *Controller) Destroy(ctx context.Context, id workload.Identity) error {
	if err := Validate(id); err != nil {
		metrics.RecordOperation(metrics.OpDestroy, err)
		return err
	}
	return c.execute(ctx, id, c.deps.BaseObserver(ctx))
}

// Start validates synchronously and tears down in a background goroutine
// tracked as an uninstall task.
func (c *Controller) Start(ctx context.Context, id workload.Identity) (tasks.ID, error) {
	if err := Validate(id); err != nil {
		metrics.RecordOperation(metrics.OpDestroy, err)
		return "", err
	}
	taskID := c.deps.Tracker.Start(tasks.KindUninstall, string(id))
	metrics.SetTasksRunning(c.deps.Tracker.Running())

	bg := context.WithoutCancel(ctx)
	go func() {
		logger := log.FromContext(bg).WithValues("identity", id, "task", taskID)
		bctx := log.IntoContext(bg, logger)
		observer := provisioning.NewTaskObserver(c.deps.Tracker, taskID, c.deps.BaseObserver(bctx))

		if err := c.execute(bctx, id, observer); err != nil {
			_ = c.deps.Tracker.Fail(taskID, err.Error(), provisioning.FailedStep(err))
		} else {
			_ = c.deps.Tracker.Complete(taskID, fmt.Sprintf("workload %s removed", id))
		}
		metrics.SetTasksRunning(c.deps.Tracker.Running())
	}()
	return taskID, nil
}

func (c *Controller) execute(ctx context.Context, id workload.Identity, observer provisioning.Observer) (err error) {
	defer func() { metrics.RecordOperation(metrics.OpDestroy, err) }()
	logger := log.FromContext(ctx).WithValues("identity", id)
	observer = observer.WithFields(map[string]string{"identity": string(id)})

	sess, err := c.deps.OpenSession(ctx, false)
	if err != nil {
		observer.Printf("%v", err)
		return err
	}
	defer provisioning.CloseSession(logger, sess)

	pctx := &provisioning.Context{
		Context:  ctx,
		Remote:   sess.Remote,
		Kubectl:  c.deps.Kubectl,
		Store:    c.deps.Store,
		Timeouts: c.deps.Timeouts,
		Observer: observer,
		Now:      c.deps.Clock(),
	}
	td := &teardown{id: id, deps: c.deps}
	if err := provisioning.RunPhases(pctx, td.phases()); err != nil {
		return err
	}
	metrics.ForgetWorkload(string(id))
	return nil
}

// resolve finds what to delete. A known record pins kind and namespace;
// otherwise every kind is tried in the default namespace.
func (td *teardown) resolve(ctx *provisioning.Context) error {
	rec, err := td.deps.Store.Get(ctx, td.id)
	switch {
	case err == nil:
		info := workload.MustLookup(rec.Spec.Kind)
		td.targets = []target{td.target(rec.Spec.Namespace, info)}
		ctx.Observer.Printf("Removing %s workload %s from namespace %s", rec.Spec.Kind, td.id, rec.Spec.Namespace)
		return nil
	case errors.Is(err, workload.ErrNotFound):
		ns := td.deps.DefaultNamespace
		for _, info := range workload.Kinds() {
			td.targets = append(td.targets, td.target(ns, info))
		}
		provisioning.LogNotice(ctx.Observer, StepResolve,
			fmt.Sprintf("no record for %s, removing every kind by name in namespace %s", td.id, ns))
		return nil
	default:
		return fmt.Errorf("failed to load workload record: %w", err)
	}
}

func (td *teardown) target(ns string, info workload.KindInfo) target {
	return target{
		namespace: ns,
		names:     td.id.Names(info),
		claims:    naming.ClaimPattern(info.Prefix, string(td.id)),
		dir:       naming.RemoteDir(td.deps.RemoteDir, info.Prefix, string(td.id)),
	}
}

// deleteObjects issues a best-effort delete of one resource per target.
func (td *teardown) deleteObjects(ctx *provisioning.Context, step, resource string, name func(workload.Names) string) error {
	for _, t := range td.targets {
		obj := name(t.names)
		if _, err := ctx.Remote.Run(ctx, ctx.Kubectl.Delete(resource, t.namespace, obj),
			ssh.IgnoreExitCode(), ssh.WithTimeout(td.deps.Timeouts.Command)); err != nil {
			return fmt.Errorf("failed to delete %s %s/%s: %w", resource, t.namespace, obj, err)
		}
		provisioning.LogResourceDeleted(ctx.Observer, step, resource, t.namespace+"/"+obj)
	}
	return nil
}

// deleteClaims removes the claims of every ordinal. The StatefulSet controller
// retains them after scale-down, so they are matched by instance label.
func (td *teardown) deleteClaims(ctx *provisioning.Context) error {
	for _, t := range td.targets {
		selector := labels.SelectorString(labels.Selector(t.names.Base))
		if _, err := ctx.Remote.Run(ctx, ctx.Kubectl.DeleteBySelector("pvc", t.namespace, selector),
			ssh.IgnoreExitCode(), ssh.WithTimeout(td.deps.Timeouts.Command)); err != nil {
			return fmt.Errorf("failed to delete claims %s in %s: %w", selector, t.namespace, err)
		}
		provisioning.LogResourceDeleted(ctx.Observer, StepClaim, "pvc", t.namespace+"/"+t.claims)
	}
	return nil
}

func (td *teardown) removeFiles(ctx *provisioning.Context) error {
	args := []string{"-rf", "--"}
	for _, t := range td.targets {
		args = append(args, t.dir)
	}
	if _, err := ctx.Remote.Run(ctx, shell.Command("rm", args...),
		ssh.IgnoreExitCode(), ssh.WithTimeout(td.deps.Timeouts.Command)); err != nil {
		return fmt.Errorf("failed to remove workload files: %w", err)
	}

	if err := td.deps.Store.Delete(ctx, td.id); err != nil && !errors.Is(err, workload.ErrNotFound) {
		return fmt.Errorf("failed to delete workload record: %w", err)
	}
	ctx.Observer.Printf("Workload %s removed", td.id)
	return nil
}
