package store

import (
	"github.com/cockroachdb/errors"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "cap_config: single-row inbox and task caps",
		SQL: `
CREATE TABLE cap_config (
    id         INTEGER PRIMARY KEY CHECK (id = 1),
    inbox_cap  INTEGER NOT NULL,
    task_cap   INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
`,
	},
	{
		Version:     2,
		Description: "entropy_snapshots: history of computed health scores",
		SQL: `
CREATE TABLE entropy_snapshots (
    id              TEXT PRIMARY KEY,
    score           REAL NOT NULL,
    level           TEXT NOT NULL CHECK (level IN ('green', 'yellow', 'red')),
    open_tasks      INTEGER NOT NULL,
    stale_count     INTEGER NOT NULL,
    zero_link_count INTEGER NOT NULL,
    inbox_count     INTEGER NOT NULL,
    inbox_cap       INTEGER NOT NULL,
    task_cap        INTEGER NOT NULL,
    computed_at     INTEGER NOT NULL
);

CREATE INDEX idx_snapshots_computed_at ON entropy_snapshots(computed_at DESC);
`,
	},
}

func (db *DB) migrate() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return errors.Wrap(err, "create schema_versions")
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return errors.Wrapf(err, "check migration %d", m.Version)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return errors.Wrapf(err, "begin migration %d", m.Version)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "migration %d (%s)", m.Version, m.Description)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "record migration %d", m.Version)
		}

		if err := tx.Commit(); err != nil {
			return errors.Wrapf(err, "commit migration %d", m.Version)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
