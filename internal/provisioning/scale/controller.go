package scale

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"k8s.io/apimachinery/pkg/api/resource"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/k8zdb/internal/metrics"
	"github.com/imamik/k8zdb/internal/platform/ssh"
	"github.com/imamik/k8zdb/internal/provisioning"
	"github.com/imamik/k8zdb/internal/workload"
)

// Controller scales and resizes workloads.
type Controller struct {
	deps *provisioning.Dependencies
}

// NewController creates a scale controller.
func NewController(deps *provisioning.Dependencies) (*Controller, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scale controller dependencies: %w", err)
	}
	return &Controller{deps: deps}, nil
}

// load fetches a record that is allowed to change size.
func (c *Controller) load(ctx context.Context, id workload.Identity) (*workload.Record, error) {
	rec, err := c.deps.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch rec.Status {
	case workload.StatusRunning, workload.StatusStopped:
		return rec, nil
	default:
		return nil, workload.Invalid("status", "workload %s is %s and cannot be changed", id, rec.Status)
	}
}

// Scale sets the replica count. Zero stops the workload. Out-of-range and
// unchanged values are rejected before the host is contacted.
func (c *Controller) Scale(ctx context.Context, id workload.Identity, replicas int32) (rec *workload.Record, err error) {
	defer func() { metrics.RecordOperation(metrics.OpScale, err) }()
	logger := log.FromContext(ctx).WithValues("identity", id)

	if replicas < 0 {
		return nil, workload.Invalid("replicas", "must not be negative, got %d", replicas)
	}
	if limit := c.deps.Limits.MaxReplicas; replicas > limit {
		return nil, workload.Invalid("replicas", "%d exceeds the maximum of %d", replicas, limit)
	}
	rec, err = c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if replicas == rec.Replicas {
		return nil, workload.Invalid("replicas", "workload %s already has %d replicas", id, replicas)
	}

	sess, err := c.deps.OpenSession(ctx, false)
	if err != nil {
		return nil, err
	}
	defer provisioning.CloseSession(logger, sess)

	names := rec.Names()
	ns := rec.Spec.Namespace
	res, err := sess.Remote.Run(ctx, c.deps.Kubectl.GetReplicas(ns, names.StatefulSet),
		ssh.WithTimeout(c.deps.Timeouts.Command))
	if err != nil {
		return nil, fmt.Errorf("failed to read replicas of %s: %w", names.StatefulSet, err)
	}
	live, err := parseReplicas(res.Output)
	if err != nil {
		return nil, err
	}

	if live == replicas {
		logger.Info("statefulset already at requested replicas, updating record only", "replicas", live)
	} else {
		if _, err := sess.Remote.Run(ctx, c.deps.Kubectl.Scale(ns, names.StatefulSet, replicas),
			ssh.WithTimeout(c.deps.Timeouts.Command)); err != nil {
			return nil, fmt.Errorf("failed to scale %s: %w", names.StatefulSet, err)
		}
		logger.Info("scaled statefulset", "from", live, "to", replicas)
	}

	status := workload.StatusRunning
	if replicas == 0 {
		status = workload.StatusStopped
	}
	if err := rec.Transition(status, c.deps.Clock()()); err != nil {
		return nil, err
	}
	rec.Replicas = replicas
	if err := c.deps.Store.Update(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to update workload record: %w", err)
	}
	if replicas == 0 {
		metrics.ForgetWorkload(string(id))
	}
	return rec, nil
}

// Resize raises the storage request of the workload claim. Volumes only
// grow; shrinking, unchanged and oversized requests are rejected before
// the host is contacted.
func (c *Controller) Resize(ctx context.Context, id workload.Identity, capacityGi int) (rec *workload.Record, err error) {
	defer func() { metrics.RecordOperation(metrics.OpResize, err) }()
	logger := log.FromContext(ctx).WithValues("identity", id)

	if limit := c.deps.Limits.MaxCapacityGi; capacityGi > limit {
		return nil, workload.Invalid("capacity", "%dGi exceeds the maximum of %dGi", capacityGi, limit)
	}
	rec, err = c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	current := rec.Spec.Capacity()
	switch {
	case capacityGi == current:
		return nil, workload.Invalid("capacity", "workload %s already has %dGi", id, current)
	case capacityGi < current:
		return nil, workload.Invalid("capacity", "volumes cannot shrink from %dGi to %dGi", current, capacityGi)
	}

	sess, err := c.deps.OpenSession(ctx, false)
	if err != nil {
		return nil, err
	}
	defer provisioning.CloseSession(logger, sess)

	names := rec.Names()
	ns := rec.Spec.Namespace
	res, err := sess.Remote.Run(ctx, c.deps.Kubectl.GetClaimStorage(ns, names.Claim),
		ssh.WithTimeout(c.deps.Timeouts.Command))
	if err != nil {
		return nil, fmt.Errorf("failed to read storage of %s: %w", names.Claim, err)
	}
	if live, ok := parseStorage(res.Output); ok {
		requested := resource.MustParse(strconv.Itoa(capacityGi) + "Gi")
		if live.Cmp(requested) > 0 {
			return nil, workload.Invalid("capacity", "claim %s already requests %s", names.Claim, live.String())
		}
	}

	if _, err := sess.Remote.Run(ctx, c.deps.Kubectl.PatchClaimStorage(ns, names.Claim, capacityGi),
		ssh.WithTimeout(c.deps.Timeouts.Command)); err != nil {
		return nil, fmt.Errorf("failed to resize %s: %w", names.Claim, err)
	}
	logger.Info("resized claim", "from", fmt.Sprintf("%dGi", current), "to", fmt.Sprintf("%dGi", capacityGi))

	rec.Spec.CapacityGi = capacityGi
	rec.UpdatedAt = c.deps.Clock()()
	if err := c.deps.Store.Update(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to update workload record: %w", err)
	}
	return rec, nil
}

func parseReplicas(out string) (int32, error) {
	s := strings.TrimSpace(out)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("unexpected replicas output %q: %w", s, err)
	}
	return int32(n), nil
}

// parseStorage reads a quantity; unparseable output is ignored.
func parseStorage(out string) (resource.Quantity, bool) {
	q, err := resource.ParseQuantity(strings.TrimSpace(out))
	if err != nil {
		return resource.Quantity{}, false
	}
	return q, true
}
