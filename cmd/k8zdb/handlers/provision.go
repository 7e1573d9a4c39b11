package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/k8zdb/internal/tasks"
	"github.com/imamik/k8zdb/internal/ui/tui"
	"github.com/imamik/k8zdb/internal/workload"
)

// EnvPassword supplies the database password without a prompt.
const EnvPassword = "K8ZDB_PASSWORD"

// promptPassword asks for the password on a terminal.
var promptPassword = func() (string, error) {
	var password string
	err := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Database password").
			EchoMode(huh.EchoModePassword).
			Validate(func(s string) error {
				if s == "" {
					return errors.New("password is required")
				}
				return nil
			}).
			Value(&password),
	)).Run()
	return password, err
}

// ProvisionOptions are the inputs of the provision command.
type ProvisionOptions struct {
	ConfigPath string
	Spec       workload.Spec
	Output     string
}

// Provision creates a workload and follows its task until it finishes.
func Provision(ctx context.Context, opts ProvisionOptions) error {
	logger := log.FromContext(ctx)

	spec := opts.Spec
	if spec.Password == "" {
		spec.Password = os.Getenv(EnvPassword)
	}
	if spec.Password == "" && isInteractive() {
		password, err := promptPassword()
		if err != nil {
			return fmt.Errorf("password prompt failed: %w", err)
		}
		spec.Password = password
	}

	app, err := newApp(ctx, opts.ConfigPath)
	if err != nil {
		return err
	}
	defer closeApp(logger, app)

	handle, err := app.Orchestrator.Start(ctx, spec)
	if err != nil {
		return err
	}
	logger.Info("provisioning started", "identity", handle.Identity, "task", handle.TaskID)

	title := fmt.Sprintf("Provisioning %s %s", spec.Kind, handle.Identity)
	snap, err := watchTask(ctx, app.Deps.Tracker, handle.TaskID, title, tasks.KindInstall)
	if err != nil {
		return err
	}

	rec, err := app.Deps.Store.Get(ctx, handle.Identity)
	if err != nil {
		return err
	}
	if err := printOutput(opts.Output, rec, func() string { return tui.RenderStatus(rec, nil) }); err != nil {
		return err
	}
	return taskError(snap)
}
