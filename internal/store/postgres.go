package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/imamik/k8zdb/internal/workload"
)

//go:embed migrations/*.sql
var migrations embed.FS

const table = "workloads"

var columns = []string{
	"identity", "kind", "namespace", "spec", "status", "endpoint", "port",
	"replicas", "manifest_path", "artifact_paths", "error", "created_at", "updated_at",
}

// uniqueViolation is the Postgres SQLSTATE for duplicate keys.
const uniqueViolation = "23505"

// Postgres stores records in a single table.
type Postgres struct {
	db *sqlx.DB
	sb sq.StatementBuilderType
}

// OpenPostgres connects to dsn and applies pending migrations.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to record store: %w", err)
	}
	if err := Migrate(ctx, db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewPostgres(db), nil
}

// NewPostgres wraps an open connection. The schema must already exist.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db, sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar)}
}

// Migrate applies the embedded migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to migrate record store: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (p *Postgres) Close() error {
	return p.db.Close()
}

type row struct {
	Identity      string         `db:"identity"`
	Kind          string         `db:"kind"`
	Namespace     string         `db:"namespace"`
	Spec          string         `db:"spec"`
	Status        string         `db:"status"`
	Endpoint      string         `db:"endpoint"`
	Port          int32          `db:"port"`
	Replicas      int32          `db:"replicas"`
	ManifestPath  string         `db:"manifest_path"`
	ArtifactPaths pq.StringArray `db:"artifact_paths"`
	Error         string         `db:"error"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func toRow(r *workload.Record) (*row, error) {
	spec, err := json.Marshal(r.Spec.Redacted())
	if err != nil {
		return nil, fmt.Errorf("failed to encode spec: %w", err)
	}
	paths := pq.StringArray(r.ArtifactPaths)
	if paths == nil {
		paths = pq.StringArray{}
	}
	return &row{
		Identity:      string(r.Identity),
		Kind:          string(r.Spec.Kind),
		Namespace:     r.Spec.Namespace,
		Spec:          string(spec),
		Status:        string(r.Status),
		Endpoint:      r.Endpoint,
		Port:          r.Port,
		Replicas:      r.Replicas,
		ManifestPath:  r.ManifestPath,
		ArtifactPaths: paths,
		Error:         r.Error,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}, nil
}

func (rw *row) record() (*workload.Record, error) {
	var spec workload.Spec
	if err := json.Unmarshal([]byte(rw.Spec), &spec); err != nil {
		return nil, fmt.Errorf("failed to decode spec of workload %s: %w", rw.Identity, err)
	}
	var paths []string
	if len(rw.ArtifactPaths) > 0 {
		paths = []string(rw.ArtifactPaths)
	}
	return &workload.Record{
		Identity:      workload.Identity(rw.Identity),
		Spec:          spec,
		Status:        workload.Status(rw.Status),
		Endpoint:      rw.Endpoint,
		Port:          rw.Port,
		Replicas:      rw.Replicas,
		ManifestPath:  rw.ManifestPath,
		ArtifactPaths: paths,
		Error:         rw.Error,
		CreatedAt:     rw.CreatedAt,
		UpdatedAt:     rw.UpdatedAt,
	}, nil
}

func (rw *row) values() map[string]interface{} {
	return sq.Eq{
		"identity":       rw.Identity,
		"kind":           rw.Kind,
		"namespace":      rw.Namespace,
		"spec":           rw.Spec,
		"status":         rw.Status,
		"endpoint":       rw.Endpoint,
		"port":           rw.Port,
		"replicas":       rw.Replicas,
		"manifest_path":  rw.ManifestPath,
		"artifact_paths": rw.ArtifactPaths,
		"error":          rw.Error,
		"created_at":     rw.CreatedAt,
		"updated_at":     rw.UpdatedAt,
	}
}

func (p *Postgres) insertQuery(r *workload.Record) (string, []interface{}, error) {
	rw, err := toRow(r)
	if err != nil {
		return "", nil, err
	}
	return p.sb.Insert(table).SetMap(rw.values()).ToSql()
}

func (p *Postgres) updateQuery(r *workload.Record) (string, []interface{}, error) {
	rw, err := toRow(r)
	if err != nil {
		return "", nil, err
	}
	values := rw.values()
	delete(values, "identity")
	delete(values, "created_at")
	return p.sb.Update(table).SetMap(values).Where(sq.Eq{"identity": rw.Identity}).ToSql()
}

func (p *Postgres) Create(ctx context.Context, r *workload.Record) error {
	query, args, err := p.insertQuery(r)
	if err != nil {
		return err
	}
	if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrExists, r.Identity)
		}
		return fmt.Errorf("failed to create workload %s: %w", r.Identity, err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, id workload.Identity) (*workload.Record, error) {
	query, args, err := p.sb.Select(columns...).From(table).Where(sq.Eq{"identity": string(id)}).ToSql()
	if err != nil {
		return nil, err
	}
	var rw row
	if err := p.db.GetContext(ctx, &rw, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", workload.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get workload %s: %w", id, err)
	}
	return rw.record()
}

func (p *Postgres) Update(ctx context.Context, r *workload.Record) error {
	query, args, err := p.updateQuery(r)
	if err != nil {
		return err
	}
	res, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update workload %s: %w", r.Identity, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update workload %s: %w", r.Identity, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", workload.ErrNotFound, r.Identity)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, id workload.Identity) error {
	query, args, err := p.sb.Delete(table).Where(sq.Eq{"identity": string(id)}).ToSql()
	if err != nil {
		return err
	}
	if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete workload %s: %w", id, err)
	}
	return nil
}

func (p *Postgres) List(ctx context.Context) ([]*workload.Record, error) {
	query, args, err := p.sb.Select(columns...).From(table).OrderBy("created_at", "identity").ToSql()
	if err != nil {
		return nil, err
	}
	var rows []row
	if err := p.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list workloads: %w", err)
	}
	out := make([]*workload.Record, 0, len(rows))
	for i := range rows {
		r, err := rows[i].record()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (p *Postgres) Exists(ctx context.Context, id workload.Identity) (bool, error) {
	query, args, err := p.sb.Select("1").From(table).Where(sq.Eq{"identity": string(id)}).Limit(1).ToSql()
	if err != nil {
		return false, err
	}
	var one int
	if err := p.db.GetContext(ctx, &one, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check workload %s: %w", id, err)
	}
	return true, nil
}
