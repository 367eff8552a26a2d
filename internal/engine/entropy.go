package engine

import "math"

// Entropy weights. Each ratio is load over its capacity.
const (
	weightTaskLoad  = 0.35
	weightInboxLoad = 0.35
	weightStale     = 0.20
	weightZeroLink  = 0.10

	// Staleness above this counts an atom as stale for entropy.
	entropyStaleFloor = 0.7

	yellowThreshold = 0.5
	redThreshold    = 0.75
)

// ComputeEntropy derives the collection health score. Staleness is evaluated
// here independently of any other operation. Caps and the atom total are
// floored at 1.
func ComputeEntropy(atoms []Atom, inboxCount, inboxCap, taskCap uint32, nowMs float64) EntropyScore {
	idx := newAtomIndex(atoms)

	var openTasks, staleCount, zeroLinkCount uint32
	for i := range atoms {
		a := &atoms[i]
		if a.openTask() {
			openTasks++
		}
		if staleness(a, idx, nowMs) > entropyStaleFloor {
			staleCount++
		}
		if len(a.Links) == 0 && elapsed(nowMs, a.CreatedAt) > orphanMinAgeMs {
			zeroLinkCount++
		}
	}

	inboxCapF := float64(max(inboxCap, 1))
	taskCapF := float64(max(taskCap, 1))
	total := math.Max(float64(len(atoms)), 1)

	score := weightTaskLoad*(float64(openTasks)/taskCapF) +
		weightInboxLoad*(float64(inboxCount)/inboxCapF) +
		weightStale*(float64(staleCount)/total) +
		weightZeroLink*(float64(zeroLinkCount)/total)
	score = clamp(score, 0, 1)

	return EntropyScore{
		Score:         score,
		Level:         LevelForScore(score),
		OpenTasks:     openTasks,
		StaleCount:    staleCount,
		ZeroLinkCount: zeroLinkCount,
		InboxCount:    inboxCount,
	}
}

// LevelForScore classifies an entropy score.
func LevelForScore(score float64) Level {
	switch {
	case score < yellowThreshold:
		return LevelGreen
	case score < redThreshold:
		return LevelYellow
	default:
		return LevelRed
	}
}
