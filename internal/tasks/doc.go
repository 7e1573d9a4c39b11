// Package tasks tracks the progress of background operations.
//
// A [Tracker] is a process-local registry. Workers write to the task they
// own; any number of readers may take [Snapshot] copies concurrently. Task
// state is lost on restart, so durable workload status remains the source
// of truth once an operation has finished.
package tasks
