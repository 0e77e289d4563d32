package sqlite_test

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/invoicekit/mediagate"
	"github.com/invoicekit/mediagate/database/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	require.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

// setupTestDB opens an in-memory database with a unique, migrated table.
func setupTestDB(t *testing.T) *sqlite.Database {
	t.Helper()

	tables := mediagate.Tables{MetaData: "metadata_" + getRandomString(t)}

	db, err := sqlite.Connect(context.Background(), ":memory:", tables)
	require.NoError(t, err, "failed to connect")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(context.Background()), "failed to migrate")
	return db
}

func TestDatabase_Validate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := setupTestDB(t)
	assert.NoError(t, db.Validate(ctx))

	fresh, err := sqlite.Connect(ctx, ":memory:", mediagate.Tables{MetaData: "never_migrated"})
	require.NoError(t, err)
	defer func() { _ = fresh.Close() }()

	err = fresh.Validate(ctx)
	assert.ErrorContains(t, err, "does not exist")
}

func TestDatabase_Validate_SchemaError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	fresh, err := sqlite.Connect(ctx, ":memory:", mediagate.Tables{MetaData: "never_migrated"})
	require.NoError(t, err)
	defer func() { _ = fresh.Close() }()

	var schemaErr *mediagate.SchemaError
	require.True(t, errors.As(fresh.Validate(ctx), &schemaErr))
	assert.True(t, schemaErr.Absent)
	assert.Equal(t, "never_migrated", schemaErr.Table)
}

func TestDatabase_Migrate_AddsOriginalName(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dsn := filepath.Join(t.TempDir(), "meta.db")
	table := "legacy_" + getRandomString(t)

	raw, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	_, err = raw.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE %q (
		id TEXT NOT NULL PRIMARY KEY,
		path TEXT NOT NULL UNIQUE,
		content_type TEXT NOT NULL,
		etag TEXT NOT NULL,
		file_size_bytes INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`, table))
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	db, err := sqlite.Connect(ctx, dsn, mediagate.Tables{MetaData: table})
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	err = db.Validate(ctx)
	var schemaErr *mediagate.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.False(t, schemaErr.Absent)
	assert.Equal(t, []string{"original_name"}, schemaErr.Missing)
	assert.Empty(t, schemaErr.Mismatched)
	assert.ErrorContains(t, err, "predates download names")

	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Validate(ctx))

	repo := db.GetRepo()
	_, _, err = repo.Upsert(ctx, mediagate.ObjectEntry{Path: "a.pdf", Size: 1, ETag: "e", ContentType: "application/pdf"})
	require.NoError(t, err)
	require.NoError(t, repo.SetOriginalName(ctx, "a.pdf", "Invoice.pdf"))
}

func TestDatabase_Validate_TypeMismatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dsn := filepath.Join(t.TempDir(), "meta.db")
	table := "wrong_" + getRandomString(t)

	raw, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	_, err = raw.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE %q (
		id TEXT NOT NULL PRIMARY KEY,
		path TEXT NOT NULL UNIQUE,
		content_type TEXT NOT NULL,
		etag TEXT NOT NULL,
		file_size_bytes TEXT NOT NULL,
		original_name TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`, table))
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	db, err := sqlite.Connect(ctx, dsn, mediagate.Tables{MetaData: table})
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	err = db.Validate(ctx)
	var schemaErr *mediagate.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Empty(t, schemaErr.Missing)
	assert.Equal(t, []string{"file_size_bytes is text, want integer"}, schemaErr.Mismatched)
}

func TestDatabase_Migrate_Idempotent(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	assert.NoError(t, db.Migrate(context.Background()))
}

func TestRepo_Upsert(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := setupTestDB(t).GetRepo()

	entry := mediagate.ObjectEntry{Path: "projects/1/video.mp4", Size: 5000, ETag: "etag-1", ContentType: "video/mp4"}

	created, inserted, err := repo.Upsert(ctx, entry)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, "projects/1/video.mp4", created.Path)
	assert.Equal(t, int64(5000), created.FileSizeBytes)
	assert.Equal(t, "etag-1", created.Etag)
	assert.Empty(t, created.OriginalName)
	assert.WithinDuration(t, time.Now(), created.CreatedAt, time.Minute)

	entry.ETag = "etag-2"
	entry.Size = 6000
	updated, inserted, err := repo.Upsert(ctx, entry)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "etag-2", updated.Etag)
	assert.Equal(t, int64(6000), updated.FileSizeBytes)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
}

func TestRepo_Get_NotFound(t *testing.T) {
	t.Parallel()
	repo := setupTestDB(t).GetRepo()

	_, err := repo.Get(context.Background(), "missing.pdf")
	assert.ErrorIs(t, err, mediagate.ErrNotFound)
}

func TestRepo_OriginalName(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := setupTestDB(t).GetRepo()

	entry := mediagate.ObjectEntry{Path: "a1b2c3.pdf", Size: 10, ETag: "e", ContentType: "application/pdf"}
	_, _, err := repo.Upsert(ctx, entry)
	require.NoError(t, err)

	require.NoError(t, repo.SetOriginalName(ctx, "a1b2c3.pdf", "Facture n°42.pdf"))

	got, err := repo.Get(ctx, "a1b2c3.pdf")
	require.NoError(t, err)
	assert.Equal(t, "Facture n°42.pdf", got.OriginalName)

	// Re-indexing keeps the name.
	entry.ETag = "e2"
	reindexed, _, err := repo.Upsert(ctx, entry)
	require.NoError(t, err)
	assert.Equal(t, "Facture n°42.pdf", reindexed.OriginalName)

	require.NoError(t, repo.SetOriginalName(ctx, "a1b2c3.pdf", ""))
	got, err = repo.Get(ctx, "a1b2c3.pdf")
	require.NoError(t, err)
	assert.Empty(t, got.OriginalName)
}

func TestRepo_SetOriginalName_NotIndexed(t *testing.T) {
	t.Parallel()
	repo := setupTestDB(t).GetRepo()

	err := repo.SetOriginalName(context.Background(), "unknown.pdf", "x.pdf")
	assert.ErrorIs(t, err, mediagate.ErrNotFound)
}

func TestDropTables(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tables := mediagate.Tables{MetaData: "drop_" + getRandomString(t)}
	db, err := sqlite.Connect(ctx, ":memory:", tables)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Validate(ctx))

	require.NoError(t, db.DropTables(ctx))
	assert.Error(t, db.Validate(ctx))
}
