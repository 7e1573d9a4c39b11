package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/mattn/go-isatty"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/k8zdb/internal/artifact"
	"github.com/imamik/k8zdb/internal/config"
	"github.com/imamik/k8zdb/internal/platform/hcloud"
	"github.com/imamik/k8zdb/internal/platform/kube"
	"github.com/imamik/k8zdb/internal/platform/s3"
	"github.com/imamik/k8zdb/internal/provisioning"
	"github.com/imamik/k8zdb/internal/provisioning/destroy"
	"github.com/imamik/k8zdb/internal/provisioning/scale"
	"github.com/imamik/k8zdb/internal/registry"
	"github.com/imamik/k8zdb/internal/store"
	"github.com/imamik/k8zdb/internal/tasks"
	"github.com/imamik/k8zdb/internal/workload"
)

// App bundles the controllers behind every command.
type App struct {
	Config       *config.Config
	Deps         *provisioning.Dependencies
	Orchestrator *provisioning.Orchestrator
	Scaler       *scale.Controller
	Destroyer    *destroy.Controller

	closers []func() error
}

// Factory function variables - can be replaced in tests.
var (
	newApp = buildApp

	newStore = openStore

	newServerLookup = func(token string) registry.ServerLookup {
		return hcloud.NewRealClient(token)
	}

	newObjectOpener = func(ctx context.Context, cfg config.S3Config) (artifact.ObjectOpener, error) {
		return s3.NewClient(ctx, s3.Config{
			Endpoint:  cfg.Endpoint,
			Region:    cfg.Region,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			PathStyle: cfg.PathStyle,
		})
	}

	isInteractive = func() bool {
		return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	}
)

func loadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		path, err := config.FindConfigFile()
		if err != nil {
			return nil, fmt.Errorf("no config file found: %w", err)
		}
		configPath = path
	}
	return config.Load(configPath)
}

// buildApp wires the configured host registry, record store and data file
// source into the controllers.
func buildApp(ctx context.Context, configPath string) (*App, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	timeouts := config.LoadTimeouts()

	reg, err := newRegistry(cfg)
	if err != nil {
		return nil, err
	}
	connector := &registry.Connector{
		Registry:       reg,
		HostName:       cfg.Host.Name,
		DialTimeout:    timeouts.DialTimeout,
		MaxRetries:     cfg.Host.DialRetries,
		CommandTimeout: timeouts.Command,
	}

	st, closeStore, err := newStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	fetcher := &artifact.Fetcher{}
	if cfg.S3.Enabled() {
		objects, err := newObjectOpener(ctx, cfg.S3)
		if err != nil {
			_ = closeStore()
			return nil, fmt.Errorf("failed to create object storage client: %w", err)
		}
		fetcher.Objects = objects
	}

	deps := &provisioning.Dependencies{
		Store:     st,
		Tracker:   tasks.NewTracker(),
		Connector: connector,
		Credentials: &registry.Credentials{
			Connector: connector,
			Preferred: cfg.Kubeconfig.Path,
			Fallbacks: cfg.Kubeconfig.Fallbacks,
		},
		NewInspector:     provisioning.ClientsetInspector,
		Artifacts:        fetcher,
		Kubectl:          kube.Kubectl{Kubeconfig: cfg.Kubeconfig.RemotePath},
		Timeouts:         timeouts,
		Limits:           cfg.Limits,
		RemoteDir:        cfg.RemoteDir,
		DefaultNamespace: cfg.DefaultNamespace,
	}

	app, err := NewApp(cfg, deps)
	if err != nil {
		_ = closeStore()
		return nil, err
	}
	app.closers = append(app.closers, closeStore)
	return app, nil
}

// NewApp builds the controllers from already wired dependencies.
func NewApp(cfg *config.Config, deps *provisioning.Dependencies) (*App, error) {
	gen := workload.NewIdentityGenerator(deps.Store,
		workload.WithLength(cfg.Identity.Length),
		workload.WithMaxAttempts(cfg.Identity.MaxAttempts),
	)
	orch, err := provisioning.NewOrchestrator(deps, gen)
	if err != nil {
		return nil, err
	}
	scaler, err := scale.NewController(deps)
	if err != nil {
		return nil, err
	}
	destroyer, err := destroy.NewController(deps)
	if err != nil {
		return nil, err
	}
	return &App{
		Config:       cfg,
		Deps:         deps,
		Orchestrator: orch,
		Scaler:       scaler,
		Destroyer:    destroyer,
	}, nil
}

// Close releases the record store.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func closeApp(logger logr.Logger, app *App) {
	if err := app.Close(); err != nil {
		logger.Error(err, "failed to close application")
	}
}

func newRegistry(cfg *config.Config) (registry.Registry, error) {
	template := registry.Host{
		Name:           cfg.Host.Name,
		Address:        cfg.Host.Address,
		Port:           cfg.Host.Port,
		User:           cfg.Host.User,
		PrivateKeyPath: cfg.Host.PrivateKeyPath,
		ClusterAddress: cfg.Host.ClusterAddress,
		KubeconfigPath: cfg.Kubeconfig.Path,
	}
	switch cfg.Host.Source {
	case config.SourceStatic:
		return registry.NewStatic(template), nil
	case config.SourceHCloud:
		return registry.NewHCloud(newServerLookup(cfg.HCloudToken), template, cfg.Host.Private), nil
	default:
		return nil, fmt.Errorf("unknown host source %q", cfg.Host.Source)
	}
}

func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, func() error, error) {
	switch cfg.Driver {
	case config.StoreMemory:
		log.FromContext(ctx).V(1).Info("using in-memory record store")
		return store.NewMemory(), func() error { return nil }, nil
	case config.StorePostgres:
		pg, err := store.OpenPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open record store: %w", err)
		}
		return pg, pg.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
