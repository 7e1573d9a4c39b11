// Package store persists workload records.
//
// Two implementations are provided: [Memory] for single-process use and
// tests, and [Postgres] backed by sqlx and squirrel with goose migrations.
// Neither ever stores a workload password.
package store
