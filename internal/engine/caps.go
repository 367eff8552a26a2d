package engine

import "github.com/cockroachdb/errors"

// Cap guardrails.
const (
	DefaultInboxCap = 20
	DefaultTaskCap  = 30

	MinInboxCap = 10
	MaxInboxCap = 30
	MinTaskCap  = 15
	MaxTaskCap  = 50

	capWarningRatio = 0.8
)

// ErrInvalidCaps is returned when a cap config falls outside the guardrails.
var ErrInvalidCaps = errors.New("invalid cap config")

// CapConfig is the user-configured inbox and open-task capacity.
type CapConfig struct {
	InboxCap uint32 `json:"inboxCap" toml:"inbox_cap"`
	TaskCap  uint32 `json:"taskCap" toml:"task_cap"`
}

// DefaultCaps returns the default cap config.
func DefaultCaps() CapConfig {
	return CapConfig{InboxCap: DefaultInboxCap, TaskCap: DefaultTaskCap}
}

// Validate checks the caps against the guardrails.
func (c CapConfig) Validate() error {
	if c.InboxCap < MinInboxCap || c.InboxCap > MaxInboxCap {
		return errors.Wrapf(ErrInvalidCaps, "inbox cap %d outside [%d, %d]", c.InboxCap, MinInboxCap, MaxInboxCap)
	}
	if c.TaskCap < MinTaskCap || c.TaskCap > MaxTaskCap {
		return errors.Wrapf(ErrInvalidCaps, "task cap %d outside [%d, %d]", c.TaskCap, MinTaskCap, MaxTaskCap)
	}
	return nil
}

// CapStatus is the fill state of a capped collection.
type CapStatus string

const (
	CapOK      CapStatus = "ok"
	CapWarning CapStatus = "warning"
	CapFull    CapStatus = "full"
)

// StatusFor returns full at or over the cap, warning at 80% of it.
func StatusFor(count, limit uint32) CapStatus {
	switch {
	case count >= limit:
		return CapFull
	case float64(count) >= float64(limit)*capWarningRatio:
		return CapWarning
	default:
		return CapOK
	}
}

// OpenTaskCount counts task atoms that are open or in progress.
func OpenTaskCount(atoms []Atom) uint32 {
	var n uint32
	for i := range atoms {
		if atoms[i].openTask() {
			n++
		}
	}
	return n
}
