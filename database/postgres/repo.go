// Package postgres implements the metadata repository on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invoicekit/mediagate"
)

type Repo struct {
	pool      *pgxpool.Pool
	tableName string
}

func NewRepo(pool *pgxpool.Pool, tables mediagate.Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &Repo{pool: pool, tableName: tables.MetaData}, nil
}

// Ping verifies database connectivity
func (r *Repo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repo) Get(ctx context.Context, path string) (mediagate.MetaData, error) {
	query := fmt.Sprintf(`
		SELECT id, path, content_type, etag, file_size_bytes, COALESCE(original_name, ''), created_at, updated_at
		FROM %s
		WHERE path = $1
	`, r.tableName)

	var m mediagate.MetaData
	err := r.pool.QueryRow(ctx, query, path).Scan(
		&m.ID, &m.Path, &m.ContentType, &m.Etag, &m.FileSizeBytes, &m.OriginalName, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return mediagate.MetaData{}, mediagate.ErrNotFound
		}
		return mediagate.MetaData{}, fmt.Errorf("get: %w", err)
	}

	return m, nil
}

// Upsert inserts or refreshes the row for entry.Path. The original name of
// an existing row is kept.
func (r *Repo) Upsert(ctx context.Context, entry mediagate.ObjectEntry) (mediagate.MetaData, bool, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (path, content_type, etag, file_size_bytes)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (path) DO UPDATE
		SET content_type = EXCLUDED.content_type,
			etag = EXCLUDED.etag,
			file_size_bytes = EXCLUDED.file_size_bytes,
			updated_at = NOW()
		RETURNING id, path, content_type, etag, file_size_bytes, COALESCE(original_name, ''),
			created_at, updated_at, (xmax = 0) AS inserted
	`, r.tableName)

	var m mediagate.MetaData
	var inserted bool

	err := r.pool.QueryRow(ctx, query, entry.Path, entry.ContentType, entry.ETag, entry.Size).Scan(
		&m.ID, &m.Path, &m.ContentType, &m.Etag, &m.FileSizeBytes, &m.OriginalName, &m.CreatedAt, &m.UpdatedAt, &inserted,
	)
	if err != nil {
		return mediagate.MetaData{}, false, fmt.Errorf("upsert: %w", err)
	}

	return m, inserted, nil
}

// SetOriginalName records the download name of an indexed object.
// An empty name clears it.
func (r *Repo) SetOriginalName(ctx context.Context, path, name string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET original_name = NULLIF($2, ''), updated_at = NOW()
		WHERE path = $1
	`, r.tableName)

	result, err := r.pool.Exec(ctx, query, path, name)
	if err != nil {
		return fmt.Errorf("set original name: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("set original name: %w", mediagate.ErrNotFound)
	}

	return nil
}
