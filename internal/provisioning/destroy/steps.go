package destroy

import (
	"github.com/imamik/k8zdb/internal/provisioning"
	"github.com/imamik/k8zdb/internal/workload"
)

// Step names, in execution order.
const (
	StepResolve     = "workload-resolved"
	StepStatefulSet = "statefulset-deleted"
	StepService     = "service-deleted"
	StepSecret      = "secret-deleted"
	StepClaim       = "claim-deleted"
	StepFiles       = "files-removed"
)

type phase struct {
	name string
	run  func(*provisioning.Context) error
}

func (p phase) Name() string                             { return p.name }
func (p phase) Provision(ctx *provisioning.Context) error { return p.run(ctx) }

func (td *teardown) phases() []provisioning.Phase {
	del := func(step, resource string, name func(workload.Names) string) phase {
		return phase{name: step, run: func(ctx *provisioning.Context) error {
			return td.deleteObjects(ctx, step, resource, name)
		}}
	}
	return []provisioning.Phase{
		phase{name: StepResolve, run: td.resolve},
		del(StepStatefulSet, "statefulset", func(n workload.Names) string { return n.StatefulSet }),
		del(StepService, "service", func(n workload.Names) string { return n.Service }),
		del(StepSecret, "secret", func(n workload.Names) string { return n.Secret }),
		phase{name: StepClaim, run: td.deleteClaims},
		phase{name: StepFiles, run: td.removeFiles},
	}
}
