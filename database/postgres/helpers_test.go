package postgres_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/invoicekit/mediagate"
	"github.com/invoicekit/mediagate/database/postgres"
)

var (
	testContainer *pgcontainer.PostgresContainer
	testDSN       string
	testDSNErr    error
	testDSNOnce   sync.Once
)

func TestMain(m *testing.M) {
	code := m.Run()

	if testContainer != nil {
		if err := testcontainers.TerminateContainer(testContainer); err != nil {
			fmt.Fprintf(os.Stderr, "failed to terminate container: %s\n", err)
		}
	}

	os.Exit(code)
}

// getSharedTestDSN starts one postgres container for the whole package.
func getSharedTestDSN(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	testDSNOnce.Do(func() {
		ctx := context.Background()

		pgContainer, err := pgcontainer.Run(ctx,
			"postgres:18-alpine",
			pgcontainer.WithDatabase("testdb"),
			pgcontainer.WithUsername("testuser"),
			pgcontainer.WithPassword("testpass"),
			pgcontainer.BasicWaitStrategies(),
		)
		if err != nil {
			testDSNErr = fmt.Errorf("start postgres container: %w", err)
			return
		}
		testContainer = pgContainer

		testDSN, testDSNErr = pgContainer.ConnectionString(ctx, "sslmode=disable")
	})

	require.NoError(t, testDSNErr)
	return testDSN
}

// getRandomString generates a random string for unique test identifiers.
func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	require.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

// setupTestDB connects with a unique table name and migrates it. The table
// is dropped on cleanup.
func setupTestDB(t *testing.T) *postgres.Database {
	t.Helper()
	ctx := context.Background()

	tables := mediagate.Tables{MetaData: "metadata_" + getRandomString(t)}

	db, err := postgres.Connect(ctx, getSharedTestDSN(t), tables)
	require.NoError(t, err, "failed to connect")

	require.NoError(t, db.Migrate(ctx), "failed to migrate")

	t.Cleanup(func() {
		_ = db.DropTables(ctx)
		_ = db.Close()
	})

	return db
}

func newPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	pool, err := pgxpool.New(context.Background(), getSharedTestDSN(t))
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}
