package provisioning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/k8zdb/internal/config"
	"github.com/imamik/k8zdb/internal/platform/kube"
	"github.com/imamik/k8zdb/internal/platform/ssh"
	"github.com/imamik/k8zdb/internal/store"
	"github.com/imamik/k8zdb/internal/tasks"
)

// Dependencies are the collaborators shared by the orchestrator and the
// scale and destroy controllers.
type Dependencies struct {
	Store     store.Store
	Tracker   *tasks.Tracker
	Connector Connector
	// Credentials and NewInspector are only needed for provisioning.
	Credentials  CredentialSource
	NewInspector InspectorFactory
	Artifacts    ArtifactSource
	Kubectl      kube.Kubectl
	Timeouts     *config.Timeouts
	Limits       config.LimitsConfig
	RemoteDir    string
	// DefaultNamespace is searched when tearing down an unknown identity.
	DefaultNamespace string
	// Observer receives every observation. Nil logs through the context logger.
	Observer Observer
	// Now defaults to time.Now.
	Now func() time.Time
}

func (d *Dependencies) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Clock returns the configured time source.
func (d *Dependencies) Clock() func() time.Time {
	return d.now
}

// Validate reports missing mandatory collaborators.
func (d *Dependencies) Validate() error {
	var errs []error
	if d.Store == nil {
		errs = append(errs, errors.New("store is required"))
	}
	if d.Tracker == nil {
		errs = append(errs, errors.New("task tracker is required"))
	}
	if d.Connector == nil {
		errs = append(errs, errors.New("connector is required"))
	}
	if d.Timeouts == nil {
		errs = append(errs, errors.New("timeouts are required"))
	}
	if d.RemoteDir == "" {
		errs = append(errs, errors.New("remote directory is required"))
	}
	return errors.Join(errs...)
}

// BaseObserver returns the configured observer or a console observer on the
// context logger.
func (d *Dependencies) BaseObserver(ctx context.Context) Observer {
	if d.Observer != nil {
		return d.Observer
	}
	return NewConsoleObserver(log.FromContext(ctx))
}

// Session is one connection to the cluster host, optionally with resolved
// cluster credentials.
type Session struct {
	Remote      ssh.Remote
	Credentials *kube.Credentials
	Inspector   kube.Inspector
}

// OpenSession dials the host. With withInspector it also resolves the
// kubeconfig and builds an inspector. The caller must Close the session.
func (d *Dependencies) OpenSession(ctx context.Context, withInspector bool) (*Session, error) {
	remote, err := d.Connector.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to cluster host: %w", err)
	}
	sess := &Session{Remote: remote}
	if !withInspector {
		return sess, nil
	}

	if d.Credentials == nil || d.NewInspector == nil {
		_ = sess.Close()
		return nil, errors.New("credential source and inspector factory are required")
	}
	creds, err := d.Credentials.Resolve(ctx, remote)
	if err != nil {
		_ = sess.Close()
		return nil, fmt.Errorf("failed to resolve cluster credentials: %w", err)
	}
	sess.Credentials = creds

	inspector, err := d.NewInspector(creds)
	if err != nil {
		_ = sess.Close()
		return nil, fmt.Errorf("failed to build cluster client: %w", err)
	}
	sess.Inspector = inspector
	return sess, nil
}

// Close removes the credentials file and closes the connection.
func (s *Session) Close() error {
	var errs []error
	if s.Credentials != nil {
		errs = append(errs, s.Credentials.Close())
	}
	if s.Remote != nil {
		errs = append(errs, s.Remote.Close())
	}
	return errors.Join(errs...)
}

// CloseSession closes sess and logs failures.
func CloseSession(logger logr.Logger, sess *Session) {
	if err := sess.Close(); err != nil {
		logger.Error(err, "failed to close cluster session")
	}
}
