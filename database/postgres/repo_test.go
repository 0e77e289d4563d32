package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoicekit/mediagate"
	"github.com/invoicekit/mediagate/database/postgres"
)

func TestDatabase_MigrateValidate(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	assert.NoError(t, db.Ping(ctx))
	assert.NoError(t, db.Validate(ctx))
	assert.NoError(t, db.Migrate(ctx), "migrate should be idempotent")
}

func TestDatabase_Validate_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("table does not exist", func(t *testing.T) {
		db, err := postgres.Connect(ctx, getSharedTestDSN(t), mediagate.Tables{MetaData: "nonexistent_table"})
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		assert.ErrorContains(t, db.Validate(ctx), "does not exist")
	})

	t.Run("missing columns", func(t *testing.T) {
		pool := newPool(t)
		tableName := "incomplete_" + getRandomString(t)

		_, err := pool.Exec(ctx, fmt.Sprintf(`CREATE TABLE %s (id UUID PRIMARY KEY, path TEXT NOT NULL)`,
			pgx.Identifier{tableName}.Sanitize()))
		require.NoError(t, err)
		t.Cleanup(func() {
			_, _ = pool.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, pgx.Identifier{tableName}.Sanitize()))
		})

		err = postgres.ValidateSchema(ctx, pool, mediagate.Tables{MetaData: tableName})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing columns")
		assert.Contains(t, err.Error(), "original_name")

		var schemaErr *mediagate.SchemaError
		require.True(t, errors.As(err, &schemaErr))
		assert.False(t, schemaErr.Absent)
		assert.Contains(t, schemaErr.Missing, "etag")
	})
}

func TestMigrate_AddsOriginalName(t *testing.T) {
	ctx := context.Background()
	pool := newPool(t)
	tableName := "legacy_" + getRandomString(t)
	tables := mediagate.Tables{MetaData: tableName}

	_, err := pool.Exec(ctx, fmt.Sprintf(`CREATE TABLE %s (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		path TEXT NOT NULL UNIQUE,
		content_type TEXT NOT NULL,
		etag TEXT NOT NULL,
		file_size_bytes BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`, pgx.Identifier{tableName}.Sanitize()))
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = pool.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, pgx.Identifier{tableName}.Sanitize()))
	})

	err = postgres.ValidateSchema(ctx, pool, tables)
	var schemaErr *mediagate.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{"original_name"}, schemaErr.Missing)
	assert.ErrorContains(t, err, "predates download names")

	require.NoError(t, postgres.Migrate(ctx, pool, tables))
	require.NoError(t, postgres.ValidateSchema(ctx, pool, tables))
	require.NoError(t, postgres.Migrate(ctx, pool, tables), "upgrade should be idempotent")
}

func TestNewRepo_InvalidTables(t *testing.T) {
	_, err := postgres.NewRepo(nil, mediagate.Tables{MetaData: "Bad Name"})
	assert.ErrorContains(t, err, "invalid metadata table name")
}

func TestRepo_Upsert(t *testing.T) {
	ctx := context.Background()
	repo := setupTestDB(t).GetRepo()

	entry := mediagate.ObjectEntry{Path: "projects/1/video.mp4", Size: 5000, ETag: "etag-1", ContentType: "video/mp4"}

	created, inserted, err := repo.Upsert(ctx, entry)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, entry.Path, created.Path)
	assert.Equal(t, "video/mp4", created.ContentType)

	entry.ETag = "etag-2"
	updated, inserted, err := repo.Upsert(ctx, entry)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "etag-2", updated.Etag)
}

func TestRepo_OriginalName(t *testing.T) {
	ctx := context.Background()
	repo := setupTestDB(t).GetRepo()

	_, err := repo.Get(ctx, "a1b2.pdf")
	assert.ErrorIs(t, err, mediagate.ErrNotFound)

	err = repo.SetOriginalName(ctx, "a1b2.pdf", "Invoice.pdf")
	assert.ErrorIs(t, err, mediagate.ErrNotFound)

	entry := mediagate.ObjectEntry{Path: "a1b2.pdf", Size: 10, ETag: "e", ContentType: "application/pdf"}
	_, _, err = repo.Upsert(ctx, entry)
	require.NoError(t, err)

	require.NoError(t, repo.SetOriginalName(ctx, "a1b2.pdf", "Invoice März.pdf"))

	entry.Size = 11
	reindexed, _, err := repo.Upsert(ctx, entry)
	require.NoError(t, err)
	assert.Equal(t, "Invoice März.pdf", reindexed.OriginalName)

	got, err := repo.Get(ctx, "a1b2.pdf")
	require.NoError(t, err)
	assert.Equal(t, "Invoice März.pdf", got.OriginalName)
	assert.Equal(t, int64(11), got.FileSizeBytes)
}
