package store

import (
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/lazypower/binder/internal/engine"
)

// EntropySnapshot is one recorded entropy computation.
type EntropySnapshot struct {
	ID            string       `json:"id"`
	Score         float64      `json:"score"`
	Level         engine.Level `json:"level"`
	OpenTasks     uint32       `json:"openTasks"`
	StaleCount    uint32       `json:"staleCount"`
	ZeroLinkCount uint32       `json:"zeroLinkCount"`
	InboxCount    uint32       `json:"inboxCount"`
	InboxCap      uint32       `json:"inboxCap"`
	TaskCap       uint32       `json:"taskCap"`
	ComputedAt    int64        `json:"computedAt"`
}

// SaveEntropySnapshot records an entropy result computed at nowMs against the
// given caps.
func (db *DB) SaveEntropySnapshot(e engine.EntropyScore, caps engine.CapConfig, nowMs int64) (*EntropySnapshot, error) {
	s := &EntropySnapshot{
		ID:            uuid.NewString(),
		Score:         e.Score,
		Level:         e.Level,
		OpenTasks:     e.OpenTasks,
		StaleCount:    e.StaleCount,
		ZeroLinkCount: e.ZeroLinkCount,
		InboxCount:    e.InboxCount,
		InboxCap:      caps.InboxCap,
		TaskCap:       caps.TaskCap,
		ComputedAt:    nowMs,
	}
	_, err := db.Exec(`
		INSERT INTO entropy_snapshots
			(id, score, level, open_tasks, stale_count, zero_link_count, inbox_count, inbox_cap, task_cap, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.Score, string(s.Level), s.OpenTasks, s.StaleCount, s.ZeroLinkCount,
		s.InboxCount, s.InboxCap, s.TaskCap, s.ComputedAt)
	if err != nil {
		return nil, errors.Wrap(err, "insert entropy snapshot")
	}
	return s, nil
}

// ListEntropySnapshots returns up to limit snapshots, newest first.
func (db *DB) ListEntropySnapshots(limit int) ([]EntropySnapshot, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT id, score, level, open_tasks, stale_count, zero_link_count, inbox_count, inbox_cap, task_cap, computed_at
		FROM entropy_snapshots
		ORDER BY computed_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list entropy snapshots")
	}
	defer rows.Close()

	out := []EntropySnapshot{}
	for rows.Next() {
		var s EntropySnapshot
		var level string
		if err := rows.Scan(&s.ID, &s.Score, &level, &s.OpenTasks, &s.StaleCount, &s.ZeroLinkCount,
			&s.InboxCount, &s.InboxCap, &s.TaskCap, &s.ComputedAt); err != nil {
			return nil, errors.Wrap(err, "scan entropy snapshot")
		}
		s.Level = engine.Level(level)
		out = append(out, s)
	}
	return out, rows.Err()
}

// PruneEntropySnapshots deletes all but the newest keep snapshots and
// returns how many were removed.
func (db *DB) PruneEntropySnapshots(keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	result, err := db.Exec(`
		DELETE FROM entropy_snapshots WHERE id NOT IN (
			SELECT id FROM entropy_snapshots
			ORDER BY computed_at DESC, rowid DESC
			LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, errors.Wrap(err, "prune entropy snapshots")
	}
	return result.RowsAffected()
}
