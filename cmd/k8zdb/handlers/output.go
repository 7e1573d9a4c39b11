package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"sigs.k8s.io/yaml"

	"github.com/imamik/k8zdb/internal/tasks"
	"github.com/imamik/k8zdb/internal/ui/tui"
)

// Output formats accepted by -o.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

const pollInterval = 500 * time.Millisecond

var (
	stdout io.Writer = os.Stdout

	runTaskTUI = tui.RunTaskTUI
)

// printOutput writes v in the requested format. Text uses render.
func printOutput(format string, v any, render func() string) error {
	switch format {
	case "", FormatText:
		_, err := fmt.Fprintln(stdout, render())
		return err
	case FormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		_, err = fmt.Fprintln(stdout, string(data))
		return err
	case FormatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		_, err = stdout.Write(data)
		return err
	default:
		return fmt.Errorf("unknown output format %q (supported: %s, %s, %s)", format, FormatText, FormatJSON, FormatYAML)
	}
}

// watchTask follows a task until it finishes. The TUI is used on a terminal;
// quitting it early falls back to plain output so the process does not exit
// while the worker is still running.
func watchTask(ctx context.Context, source tui.SnapshotSource, id tasks.ID, title string, kind tasks.Kind) (tasks.Snapshot, error) {
	if isInteractive() {
		tuiErr := runTaskTUI(ctx, source, id, title, kind, pollInterval)
		if snap, ok := source.Snapshot(id); ok && snap.Done() {
			return snap, nil
		}
		if tuiErr != nil {
			return tasks.Snapshot{}, tuiErr
		}
	}
	return tui.WatchPlain(ctx, source, id, stdout, pollInterval)
}

// taskError converts a failed snapshot into an error.
func taskError(snap tasks.Snapshot) error {
	if snap.Status != tasks.StatusFailed {
		return nil
	}
	return fmt.Errorf("task %s failed at step %d: %s", snap.ID, snap.Step, snap.Error)
}
