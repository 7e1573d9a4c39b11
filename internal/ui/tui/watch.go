package tui

import (
	"context"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/imamik/k8zdb/internal/tasks"
)

// SnapshotSource returns task snapshots by ID.
type SnapshotSource interface {
	Snapshot(id tasks.ID) (tasks.Snapshot, bool)
}

// RunTaskTUI watches a task in a Bubble Tea program until it finishes, the
// user quits or ctx ends.
func RunTaskTUI(ctx context.Context, source SnapshotSource, id tasks.ID, title string, kind tasks.Kind, interval time.Duration) error {
	m := NewTaskModel(title, kind)

	p := tea.NewProgram(m, tea.WithContext(ctx))

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			msg, done := fetchSnapshot(source, id)
			p.Send(msg)
			if done {
				return
			}
			select {
			case <-ctx.Done():
				p.Send(ErrMsg{Err: ctx.Err()})
				return
			case <-ticker.C:
			}
		}
	}()

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	fm := finalModel.(Model)
	if fm.Err != nil {
		return fm.Err
	}
	return nil
}

// fetchSnapshot reads the task and reports whether watching can stop.
func fetchSnapshot(source SnapshotSource, id tasks.ID) (SnapshotMsg, bool) {
	snap, ok := source.Snapshot(id)
	if !ok {
		return SnapshotMsg{NotFound: true}, true
	}
	return SnapshotMsg{Snapshot: snap}, snap.Done()
}

// WatchPlain prints new task log lines to w until the task finishes. It is
// used when the output is not a terminal.
func WatchPlain(ctx context.Context, source SnapshotSource, id tasks.ID, w io.Writer, interval time.Duration) (tasks.Snapshot, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	printed := 0
	for {
		snap, ok := source.Snapshot(id)
		if !ok {
			return tasks.Snapshot{}, fmt.Errorf("task %s not found", id)
		}
		for _, line := range snap.Logs[min(printed, len(snap.Logs)):] {
			fmt.Fprintf(w, "[%d/%d] %s\n", snap.Step, snap.TotalSteps, line)
		}
		printed = len(snap.Logs)

		if snap.Done() {
			return snap, nil
		}
		select {
		case <-ctx.Done():
			return snap, ctx.Err()
		case <-ticker.C:
		}
	}
}
