package provisioning

import (
	"context"
	"fmt"
	"time"

	"github.com/imamik/k8zdb/internal/config"
	"github.com/imamik/k8zdb/internal/platform/kube"
	"github.com/imamik/k8zdb/internal/platform/ssh"
	"github.com/imamik/k8zdb/internal/store"
	"github.com/imamik/k8zdb/internal/util/naming"
	"github.com/imamik/k8zdb/internal/workload"
)

// State holds the shared results of provisioning phases.
// It is progressively populated as each phase completes and is passed
// to subsequent phases that need earlier results.
type State struct {
	// UploadedPaths are host paths removed after the import step.
	UploadedPaths []string
	// ImportFile is the located import file on the host, if any.
	ImportFile string
	Notices    []string
	Warning    *ImportWarning
}

// Context wraps all dependencies and state needed for a provisioning phase.
type Context struct {
	context.Context

	Remote    ssh.Runner
	Inspector kube.Inspector
	Kubectl   kube.Kubectl
	Artifacts ArtifactSource
	Store     store.Store
	Timeouts  *config.Timeouts
	Observer  Observer

	Record *workload.Record
	// Spec is the caller's spec including the password. It is never logged
	// nor persisted; Record.Spec is the redacted copy.
	Spec  workload.Spec
	Info  workload.KindInfo
	Names workload.Names
	// Dir is the workload's directory on the host.
	Dir string

	State *State
	Now   func() time.Time
}

// NewContext creates a provisioning context for one workload.
func NewContext(ctx context.Context, deps *Dependencies, sess *Session, rec *workload.Record, spec workload.Spec, observer Observer) *Context {
	info := workload.MustLookup(spec.Kind)
	return &Context{
		Context:   ctx,
		Remote:    sess.Remote,
		Inspector: sess.Inspector,
		Kubectl:   deps.Kubectl,
		Artifacts: deps.Artifacts,
		Store:     deps.Store,
		Timeouts:  deps.Timeouts,
		Observer:  observer,
		Record:    rec,
		Spec:      spec,
		Info:      info,
		Names:     rec.Identity.Names(info),
		Dir:       naming.RemoteDir(deps.RemoteDir, info.Prefix, string(rec.Identity)),
		State:     &State{},
		Now:       deps.now,
	}
}

// Save persists the record.
func (c *Context) Save() error {
	c.Record.UpdatedAt = c.Now()
	if err := c.Store.Update(c, c.Record); err != nil {
		return fmt.Errorf("failed to save workload %s: %w", c.Record.Identity, err)
	}
	return nil
}
