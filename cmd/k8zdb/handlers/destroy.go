package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/k8zdb/internal/provisioning/destroy"
	"github.com/imamik/k8zdb/internal/tasks"
	"github.com/imamik/k8zdb/internal/workload"
)

// ErrAborted is returned when the user declines the teardown.
var ErrAborted = errors.New("destroy aborted")

// confirmDestroy asks before deleting a workload and its data.
var confirmDestroy = func(id workload.Identity) (bool, error) {
	var ok bool
	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("Destroy workload %s?", id)).
			Description("Its statefulset, service, secret, volume claim and host files are deleted.").
			Affirmative("Destroy").
			Negative("Cancel").
			Value(&ok),
	)).Run()
	return ok, err
}

// Destroy tears down a workload. Without yes it asks for confirmation, which
// requires a terminal.
func Destroy(ctx context.Context, configPath, id string, yes bool) error {
	logger := log.FromContext(ctx)
	identity := workload.Identity(id)
	if err := destroy.Validate(identity); err != nil {
		return err
	}

	if !yes {
		if !isInteractive() {
			return errors.New("refusing to destroy without --yes when not attached to a terminal")
		}
		ok, err := confirmDestroy(identity)
		if err != nil {
			return fmt.Errorf("confirmation prompt failed: %w", err)
		}
		if !ok {
			return ErrAborted
		}
	}

	app, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer closeApp(logger, app)

	taskID, err := app.Destroyer.Start(ctx, identity)
	if err != nil {
		return err
	}

	snap, err := watchTask(ctx, app.Deps.Tracker, taskID, fmt.Sprintf("Destroying %s", identity), tasks.KindUninstall)
	if err != nil {
		return err
	}
	if err := taskError(snap); err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "Workload %s destroyed\n", identity)
	return err
}
