package handlers

import (
	"context"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/k8zdb/internal/ui/tui"
	"github.com/imamik/k8zdb/internal/workload"
)

// Scale changes the replica count of a workload.
func Scale(ctx context.Context, configPath, id string, replicas int32, output string) error {
	logger := log.FromContext(ctx)
	app, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer closeApp(logger, app)

	rec, err := app.Scaler.Scale(ctx, workload.Identity(id), replicas)
	if err != nil {
		return err
	}
	return printOutput(output, rec, func() string { return tui.RenderStatus(rec, nil) })
}

// Resize grows the volume of a workload.
func Resize(ctx context.Context, configPath, id string, capacityGi int, output string) error {
	logger := log.FromContext(ctx)
	app, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer closeApp(logger, app)

	rec, err := app.Scaler.Resize(ctx, workload.Identity(id), capacityGi)
	if err != nil {
		return err
	}
	return printOutput(output, rec, func() string { return tui.RenderStatus(rec, nil) })
}
