package handlers

import (
	"context"
	"strings"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/k8zdb/internal/provisioning"
	"github.com/imamik/k8zdb/internal/ui/tui"
	"github.com/imamik/k8zdb/internal/usage"
	"github.com/imamik/k8zdb/internal/workload"
)

// Status prints one workload record, or every record when id is empty.
func Status(ctx context.Context, configPath, id, output string) error {
	logger := log.FromContext(ctx)
	app, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer closeApp(logger, app)

	if id != "" {
		rec, err := app.Deps.Store.Get(ctx, workload.Identity(id))
		if err != nil {
			return err
		}
		return printOutput(output, rec, func() string { return tui.RenderStatus(rec, nil) })
	}

	records, err := app.Deps.Store.List(ctx)
	if err != nil {
		return err
	}
	return printOutput(output, records, func() string {
		if len(records) == 0 {
			return "No workloads."
		}
		parts := make([]string, 0, len(records))
		for _, rec := range records {
			parts = append(parts, tui.RenderStatus(rec, nil))
		}
		return strings.Join(parts, "\n")
	})
}

// Usage prints the current resource usage of a workload.
func Usage(ctx context.Context, configPath, id, output string) error {
	logger := log.FromContext(ctx)
	app, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer closeApp(logger, app)

	rec, report, err := collectUsage(ctx, app, workload.Identity(id))
	if err != nil {
		return err
	}
	return printOutput(output, report, func() string { return tui.RenderStatus(rec, report) })
}

// collectUsage reads the record and samples its pods over one session.
func collectUsage(ctx context.Context, app *App, id workload.Identity) (*workload.Record, *usage.Report, error) {
	rec, err := app.Deps.Store.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if rec.Status != workload.StatusRunning {
		return nil, nil, workload.Invalid("identity", "workload %s is %s, usage needs a running workload", id, rec.Status)
	}

	sess, err := app.Deps.OpenSession(ctx, false)
	if err != nil {
		return nil, nil, err
	}
	defer provisioning.CloseSession(log.FromContext(ctx), sess)

	report, err := usage.Collect(ctx, sess.Remote, app.Deps.Kubectl, rec)
	if err != nil {
		return nil, nil, err
	}
	return rec, report, nil
}
