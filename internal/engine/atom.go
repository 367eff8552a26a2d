package engine

// Kinds that receive a priority score. Any other kind string is accepted but
// left unscored.
const (
	KindTask  = "task"
	KindEvent = "event"
	KindNote  = "note"
)

// Task statuses counted as open load.
const (
	StatusOpen       = "open"
	StatusInProgress = "in-progress"
)

// Atom is one unit of the knowledge/task graph as supplied by the host.
// Timestamps are Unix milliseconds. Atoms are read-only for the duration of a
// call.
type Atom struct {
	ID              string
	Kind            string
	UpdatedAt       float64
	CreatedAt       float64
	Status          string
	Links           []string
	DueDate         *float64
	PinnedTier      *string
	PinnedStaleness bool
	Importance      *float64
	Energy          *string
	Content         string
}

func (a *Atom) scored() bool {
	return a.Kind == KindTask || a.Kind == KindEvent
}

func (a *Atom) openTask() bool {
	return a.Kind == KindTask && (a.Status == StatusOpen || a.Status == StatusInProgress)
}

// Tier is a discrete priority bucket.
type Tier string

const (
	TierCritical Tier = "Critical"
	TierHigh     Tier = "High"
	TierMedium   Tier = "Medium"
	TierLow      Tier = "Low"
	TierSomeday  Tier = "Someday"
)

// Energy is the cognitive-effort category of an atom.
type Energy string

const (
	EnergyQuick  Energy = "Quick"
	EnergyMedium Energy = "Medium"
	EnergyDeep   Energy = "Deep"
)

// Level is the three-way entropy classification.
type Level string

const (
	LevelGreen  Level = "green"
	LevelYellow Level = "yellow"
	LevelRed    Level = "red"
)

// AtomScore is the per-atom result of ComputeScores.
type AtomScore struct {
	ID            string  `json:"id"`
	Staleness     float64 `json:"staleness"`
	PriorityTier  *Tier   `json:"priorityTier"`
	PriorityScore float64 `json:"priorityScore"`
	Energy        Energy  `json:"energy"`
	Opacity       float64 `json:"opacity"`
}

// EntropyScore is the collection-wide health score and the counts behind it.
type EntropyScore struct {
	Score         float64 `json:"score"`
	Level         Level   `json:"level"`
	OpenTasks     uint32  `json:"openTasks"`
	StaleCount    uint32  `json:"staleCount"`
	ZeroLinkCount uint32  `json:"zeroLinkCount"`
	InboxCount    uint32  `json:"inboxCount"`
}

// CompressionCandidate is an atom eligible for archival.
type CompressionCandidate struct {
	ID        string  `json:"id"`
	Reason    string  `json:"reason"`
	Staleness float64 `json:"staleness"`
}
