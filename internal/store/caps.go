package store

import (
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lazypower/binder/internal/engine"
)

// GetCapConfig returns the stored caps. When no row exists, or the stored
// values fall outside the guardrails, the defaults are returned.
func (db *DB) GetCapConfig() (engine.CapConfig, error) {
	var c engine.CapConfig
	err := db.QueryRow(`SELECT inbox_cap, task_cap FROM cap_config WHERE id = 1`).
		Scan(&c.InboxCap, &c.TaskCap)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.DefaultCaps(), nil
	}
	if err != nil {
		return engine.CapConfig{}, errors.Wrap(err, "get cap config")
	}
	if c.Validate() != nil {
		return engine.DefaultCaps(), nil
	}
	return c, nil
}

// SetCapConfig validates and stores the caps, replacing any previous row.
func (db *DB) SetCapConfig(c engine.CapConfig) error {
	if err := c.Validate(); err != nil {
		return err
	}
	_, err := db.Exec(`
		INSERT INTO cap_config (id, inbox_cap, task_cap, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			inbox_cap = excluded.inbox_cap,
			task_cap = excluded.task_cap,
			updated_at = excluded.updated_at
	`, c.InboxCap, c.TaskCap, time.Now().UnixMilli())
	if err != nil {
		return errors.Wrap(err, "set cap config")
	}
	return nil
}

// SeedCapConfig stores c only when no caps have been set yet.
func (db *DB) SeedCapConfig(c engine.CapConfig) error {
	if err := c.Validate(); err != nil {
		return err
	}
	_, err := db.Exec(`
		INSERT OR IGNORE INTO cap_config (id, inbox_cap, task_cap, updated_at)
		VALUES (1, ?, ?, ?)
	`, c.InboxCap, c.TaskCap, time.Now().UnixMilli())
	if err != nil {
		return errors.Wrap(err, "seed cap config")
	}
	return nil
}
