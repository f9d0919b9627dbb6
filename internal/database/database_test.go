package database

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRebind(t *testing.T) {
	t.Parallel()

	query := "UPDATE users SET language = ? WHERE telegram_id = ?"
	assert.Equal(t, "UPDATE users SET language = $1 WHERE telegram_id = $2", DialectPostgres.Rebind(query))
	assert.Equal(t, query, DialectSQLite.Rebind(query))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "mysql", "whatever", testLogger())
	require.Error(t, err)
}

func TestMigrateIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, err := Open(ctx, "sqlite", filepath.Join(t.TempDir(), "bot.db"), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	m := NewMigrator(db.DB, testLogger())
	require.NoError(t, m.Migrate(ctx, db.Dialect))
	require.NoError(t, m.Migrate(ctx, db.Dialect))

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count))
	assert.Zero(t, count)
}

func TestListMigrationsSortsUpFiles(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"m/0002_b.up.sql":   {Data: []byte("SELECT 1")},
		"m/0001_a.up.sql":   {Data: []byte("SELECT 1")},
		"m/0001_a.down.sql": {Data: []byte("SELECT 1")},
		"m/README.md":       {Data: []byte("docs")},
	}

	names, err := ListMigrations(fsys, "m")
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_a.up.sql", "0002_b.up.sql"}, names)
}

func TestEmbeddedMigrationsExistForEveryDialect(t *testing.T) {
	t.Parallel()

	for _, dialect := range []Dialect{DialectPostgres, DialectSQLite} {
		names, err := ListMigrations(migrationsFS, "migrations/"+string(dialect))
		require.NoError(t, err)
		assert.NotEmpty(t, names)
	}
}
