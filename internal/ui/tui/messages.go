// Package tui provides a Bubble Tea-based terminal UI for watching workload
// tasks.
package tui

import "github.com/imamik/k8zdb/internal/tasks"

// SnapshotMsg carries the latest state of the watched task.
type SnapshotMsg struct {
	Snapshot tasks.Snapshot
	NotFound bool
}

// TickMsg is sent periodically to refresh the display.
type TickMsg struct{}

// ErrMsg carries an error.
type ErrMsg struct{ Err error }

// DoneMsg signals that the operation is complete.
type DoneMsg struct{}
