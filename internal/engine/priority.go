package engine

import (
	"math"
	"strings"
)

// Priority weights. P = 0.40*deadline + 0.25*importance + 0.15*recency
// + 0.15*dependency + 0.05*energy
const (
	weightDeadline   = 0.40
	weightImportance = 0.25
	weightRecency    = 0.15
	weightDependency = 0.15
	weightEnergy     = 0.05

	deadlineHorizonDays = 30.0
	recencyHorizonDays  = 30.0
	defaultImportance   = 0.5

	// A linked task with staleness under this is treated as active.
	activeDepCeiling = 0.3
	dependencyBoost  = 0.7
)

// ParseTier maps a pinned tier string to a tier. Unrecognized values are
// Someday.
func ParseTier(s string) Tier {
	switch strings.ToLower(s) {
	case "critical":
		return TierCritical
	case "high":
		return TierHigh
	case "medium":
		return TierMedium
	case "low":
		return TierLow
	default:
		return TierSomeday
	}
}

// Score is the fixed score of a pinned tier.
func (t Tier) Score() float64 {
	switch t {
	case TierCritical:
		return 0.90
	case TierHigh:
		return 0.70
	case TierMedium:
		return 0.50
	case TierLow:
		return 0.30
	default:
		return 0.10
	}
}

// TierForScore buckets a score. Lower edges are inclusive.
func TierForScore(score float64) Tier {
	switch {
	case score >= 0.80:
		return TierCritical
	case score >= 0.60:
		return TierHigh
	case score >= 0.40:
		return TierMedium
	case score >= 0.20:
		return TierLow
	default:
		return TierSomeday
	}
}

// Priority returns the score and tier of a task or event atom. stalenessByID
// holds the already computed staleness of every atom in the call.
// A pinned tier short-circuits the formula.
func Priority(a Atom, all []Atom, stalenessByID map[string]float64, nowMs float64) (float64, Tier) {
	return priority(&a, newAtomIndex(all), stalenessByID, nowMs)
}

func priority(a *Atom, idx atomIndex, stalenessByID map[string]float64, nowMs float64) (float64, Tier) {
	if a.PinnedTier != nil {
		tier := ParseTier(*a.PinnedTier)
		return tier.Score(), tier
	}
	score := priorityScore(a, idx, stalenessByID, nowMs)
	return score, TierForScore(score)
}

func priorityScore(a *Atom, idx atomIndex, stalenessByID map[string]float64, nowMs float64) float64 {
	score := weightDeadline*deadlineUrgency(a.DueDate, nowMs) +
		weightImportance*importance(a.Importance) +
		weightRecency*recency(a.UpdatedAt, nowMs) +
		weightDependency*dependencyUrgency(a, idx, stalenessByID) +
		weightEnergy*EnergyOf(*a).boost()
	return clamp(score, 0, 1)
}

// deadlineUrgency ramps concavely from 0 at 30 days out to 1 at the due date.
func deadlineUrgency(dueMs *float64, nowMs float64) float64 {
	if dueMs == nil {
		return 0
	}
	remaining := *dueMs/dayMs - nowMs/dayMs
	switch {
	case remaining <= 0:
		return 1
	case remaining > deadlineHorizonDays:
		return 0
	default:
		return 1 - math.Sqrt(remaining/deadlineHorizonDays)
	}
}

func importance(v *float64) float64 {
	if v == nil {
		return defaultImportance
	}
	return clamp(*v, 0, 1)
}

func recency(updatedAt, nowMs float64) float64 {
	ageDays := elapsed(nowMs, updatedAt) / dayMs
	return math.Max(0, 1-ageDays/recencyHorizonDays)
}

// dependencyUrgency is binary: any linked task that is recently active.
func dependencyUrgency(a *Atom, idx atomIndex, stalenessByID map[string]float64) float64 {
	for _, id := range a.Links {
		e, ok := idx[id]
		if !ok || !e.task {
			continue
		}
		s, ok := stalenessByID[id]
		if !ok {
			s = 1
		}
		if s < activeDepCeiling {
			return dependencyBoost
		}
	}
	return 0
}
