package engine

import "math"

// Staleness Decay Algorithm:
//   - S(t) = 1 - 2^(-age / halfLife), age measured from updated_at
//   - 14-day base half-life
//   - Onboarding: atoms created < 30 days ago get 2x half-life
//   - Fresh link: linked to any atom with raw staleness < 0.5 gets 1.5x half-life
//   - Exempt: pinned_staleness atoms are always 0
//   - Link lookup is one level deep; a linked atom's own boosts are ignored,
//     so cycles cannot recurse

const (
	dayMs = 24.0 * 60.0 * 60.0 * 1000.0

	halfLifeMs         = 14 * dayMs
	onboardingWindowMs = 30 * dayMs
	orphanMinAgeMs     = 7 * dayMs
	compressionMinAge  = 14 * dayMs

	onboardingFactor = 2.0
	freshLinkFactor  = 1.5
	freshLinkCeiling = 0.5
)

// atomIndex is a flat id lookup built once per call. It records, per id, the
// most recent updated_at and whether any atom with that id is a task.
type atomIndex map[string]indexEntry

type indexEntry struct {
	updatedAt float64
	task      bool
}

func newAtomIndex(atoms []Atom) atomIndex {
	idx := make(atomIndex, len(atoms))
	for i := range atoms {
		a := &atoms[i]
		e, ok := idx[a.ID]
		if !ok || a.UpdatedAt > e.updatedAt {
			e.updatedAt = a.UpdatedAt
		}
		e.task = e.task || a.Kind == KindTask
		idx[a.ID] = e
	}
	return idx
}

// Staleness returns the [0,1] decay value of a, evaluated against the full
// atom set for link freshness.
func Staleness(a Atom, all []Atom, nowMs float64) float64 {
	return staleness(&a, newAtomIndex(all), nowMs)
}

func staleness(a *Atom, idx atomIndex, nowMs float64) float64 {
	if a.PinnedStaleness {
		return 0
	}

	age := elapsed(nowMs, a.UpdatedAt)
	createdAge := elapsed(nowMs, a.CreatedAt)

	halfLife := halfLifeMs
	if createdAge < onboardingWindowMs {
		halfLife *= onboardingFactor
	}
	if hasFreshLink(a, idx, nowMs) {
		halfLife *= freshLinkFactor
	}

	return clamp(decay(age, halfLife), 0, 1)
}

// hasFreshLink reports whether any linked atom has raw staleness below the
// fresh-link ceiling. Unknown ids are skipped.
func hasFreshLink(a *Atom, idx atomIndex, nowMs float64) bool {
	for _, id := range a.Links {
		e, ok := idx[id]
		if !ok {
			continue
		}
		if decay(elapsed(nowMs, e.updatedAt), halfLifeMs) < freshLinkCeiling {
			return true
		}
	}
	return false
}

func decay(age, halfLife float64) float64 {
	return 1 - math.Pow(2, -age/halfLife)
}

// elapsed returns now-then floored at zero.
func elapsed(nowMs, thenMs float64) float64 {
	return math.Max(0, nowMs-thenMs)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
