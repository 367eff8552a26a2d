package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenMemory(t *testing.T) {
	db := newTestDB(t)
	assert.Equal(t, ":memory:", db.Path)
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "binder.db")
	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, path)
}

func TestSchemaVersion(t *testing.T) {
	db := newTestDB(t)

	v, err := db.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, len(migrations), v)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.migrate())
	v, err := db.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, len(migrations), v)
}

func TestTablesExist(t *testing.T) {
	db := newTestDB(t)

	for _, table := range []string{"schema_versions", "cap_config", "entropy_snapshots"} {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		assert.NoError(t, err, "table %q not found", table)
	}
}

func TestSnapshotLevelConstraint(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Exec(`
		INSERT INTO entropy_snapshots
			(id, score, level, open_tasks, stale_count, zero_link_count, inbox_count, inbox_cap, task_cap, computed_at)
		VALUES ('x', 0.5, 'purple', 0, 0, 0, 0, 20, 30, 1)
	`)
	assert.Error(t, err, "level outside green/yellow/red should be rejected")
}
