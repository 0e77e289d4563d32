package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/invoicekit/mediagate"
)

type Repo struct {
	db        *sql.DB
	tableName string
}

func NewRepo(db *sql.DB, tables mediagate.Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &Repo{db: db, tableName: tables.MetaData}, nil
}

func (r *Repo) Get(ctx context.Context, path string) (mediagate.MetaData, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, path, content_type, etag, file_size_bytes, original_name, created_at, updated_at
		FROM %s
		WHERE path = ?`, quoteIdentifier(r.tableName))

	m, err := scanMetaData(r.db.QueryRowContext(ctx, query, path))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return mediagate.MetaData{}, mediagate.ErrNotFound
		}
		return mediagate.MetaData{}, fmt.Errorf("get: %w", err)
	}

	return m, nil
}

// Upsert inserts or refreshes the row for entry.Path. The original name of
// an existing row is kept.
func (r *Repo) Upsert(ctx context.Context, entry mediagate.ObjectEntry) (mediagate.MetaData, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return mediagate.MetaData{}, false, fmt.Errorf("upsert: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var existingID string
	checkQuery := fmt.Sprintf(`SELECT id FROM %s WHERE path = ?`, quoteIdentifier(r.tableName)) //nolint:gosec // table name is validated
	err = tx.QueryRowContext(ctx, checkQuery, entry.Path).Scan(&existingID)
	isInsert := errors.Is(err, sql.ErrNoRows)
	if err != nil && !isInsert {
		return mediagate.MetaData{}, false, fmt.Errorf("upsert: check existing: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	if isInsert {
		insertQuery := fmt.Sprintf( //nolint:gosec // G201: table name is validated
			`INSERT INTO %s (id, path, content_type, etag, file_size_bytes, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`, quoteIdentifier(r.tableName))

		_, err = tx.ExecContext(ctx, insertQuery,
			uuid.New().String(), entry.Path, entry.ContentType, entry.ETag, entry.Size, now, now,
		)
		if err != nil {
			return mediagate.MetaData{}, false, fmt.Errorf("upsert: insert: %w", err)
		}
	} else {
		updateQuery := fmt.Sprintf( //nolint:gosec // G201: table name is validated
			`UPDATE %s
			SET content_type = ?, etag = ?, file_size_bytes = ?, updated_at = ?
			WHERE path = ?`, quoteIdentifier(r.tableName))

		_, err = tx.ExecContext(ctx, updateQuery,
			entry.ContentType, entry.ETag, entry.Size, now, entry.Path,
		)
		if err != nil {
			return mediagate.MetaData{}, false, fmt.Errorf("upsert: update: %w", err)
		}
	}

	selectQuery := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, path, content_type, etag, file_size_bytes, original_name, created_at, updated_at
		FROM %s
		WHERE path = ?`, quoteIdentifier(r.tableName))

	m, err := scanMetaData(tx.QueryRowContext(ctx, selectQuery, entry.Path))
	if err != nil {
		return mediagate.MetaData{}, false, fmt.Errorf("upsert: read back: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return mediagate.MetaData{}, false, fmt.Errorf("upsert: commit: %w", err)
	}

	return m, isInsert, nil
}

// SetOriginalName records the download name of an indexed object.
// An empty name clears it.
func (r *Repo) SetOriginalName(ctx context.Context, path, name string) error {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`UPDATE %s
		SET original_name = NULLIF(?, ''), updated_at = ?
		WHERE path = ?`, quoteIdentifier(r.tableName))

	now := time.Now().UTC().Format(time.RFC3339Nano)
	result, err := r.db.ExecContext(ctx, query, name, now, path)
	if err != nil {
		return fmt.Errorf("set original name: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set original name: rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("set original name: %w", mediagate.ErrNotFound)
	}

	return nil
}

func scanMetaData(row *sql.Row) (mediagate.MetaData, error) {
	var m mediagate.MetaData
	var idStr, createdAt, updatedAt string
	var originalName sql.NullString

	if err := row.Scan(&idStr, &m.Path, &m.ContentType, &m.Etag, &m.FileSizeBytes, &originalName, &createdAt, &updatedAt); err != nil {
		return mediagate.MetaData{}, err
	}
	m.OriginalName = originalName.String

	var err error
	m.ID, err = uuid.Parse(idStr)
	if err != nil {
		return mediagate.MetaData{}, fmt.Errorf("parse uuid: %w", err)
	}

	m.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return mediagate.MetaData{}, fmt.Errorf("parse created_at: %w", err)
	}

	m.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return mediagate.MetaData{}, fmt.Errorf("parse updated_at: %w", err)
	}

	return m, nil
}
