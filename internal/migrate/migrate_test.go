package migrate

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpDown_SQLite(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "migrate.db")

	require.NoError(t, Up(ctx, "sqlite", dsn))

	v, err := Version(ctx, "sqlite", dsn)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO service_requests (name, email, service_type, created_at) VALUES ('Ana', 'ana@example.org', 'repair', '2026-01-10 08:00:00')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	require.NoError(t, Up(ctx, "sqlite", dsn), "re-running up is a no-op")

	require.NoError(t, Down(ctx, "sqlite", dsn))
	v, err = Version(ctx, "sqlite", dsn)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)
}

func TestUnsupportedDriver(t *testing.T) {
	err := Up(context.Background(), "mysql", "root@/db")
	assert.Error(t, err)
}

func TestPostgresRequiresDSN(t *testing.T) {
	err := Up(context.Background(), "postgres", "")
	assert.Error(t, err)
}
