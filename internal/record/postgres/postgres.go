// Package postgres implements the record.Store contract over PostgreSQL
// using the pgx stdlib driver, with schema migrations applied via goose.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/reelpipe/uplink/internal/record"
	"github.com/reelpipe/uplink/internal/record/postgres/migrations"
)

// DBTX is the subset of database/sql used by the repository. Both *sql.DB
// and *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository is a PostgreSQL-backed record.Store.
type Repository struct {
	db DBTX
}

var _ record.Store = (*Repository)(nil)

// NewRepository constructs a repository bound to the given DBTX.
func NewRepository(db DBTX) *Repository {
	return &Repository{db: db}
}

// Open connects to the DSN with the pgx driver and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// RunMigrations applies the embedded goose migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// CreateFileRecord inserts a new file record and returns it with the
// generated id and created_at filled in.
func (r *Repository) CreateFileRecord(ctx context.Context, rec *record.FileRecord) (*record.FileRecord, error) {
	query := `
		INSERT INTO file_records (id, project_id, category, display_name, remote_link, remote_id, size_bytes, mime_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at;
	`
	out := *rec
	id := uuid.NewString()
	err := r.db.QueryRowContext(ctx, query,
		id, rec.ProjectID, rec.Category, rec.DisplayName, rec.RemoteLink, rec.RemoteID, rec.SizeBytes, rec.MimeType,
	).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert file record: %w", err)
	}
	return &out, nil
}

// SoftDeleteFileRecord flips the deleted flag. Exactly one row must be
// affected.
func (r *Repository) SoftDeleteFileRecord(ctx context.Context, id string) error {
	query := `UPDATE file_records SET deleted = TRUE WHERE id = $1 AND deleted = FALSE`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("soft delete file record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("wrong rows affected count: %d", n)
	}
	return nil
}

// CountActiveByProject counts non-deleted records for a project.
func (r *Repository) CountActiveByProject(ctx context.Context, projectID string) (int, error) {
	query := `SELECT count(*) FROM file_records WHERE project_id = $1 AND deleted = FALSE`
	var n int
	if err := r.db.QueryRowContext(ctx, query, projectID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count file records: %w", err)
	}
	return n, nil
}
