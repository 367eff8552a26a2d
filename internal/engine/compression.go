package engine

import (
	"fmt"
	"math"
)

// Staleness above this makes an atom a stale compression candidate.
const compressionStaleFloor = 0.8

// FilterCompressionCandidates flags stale or orphaned atoms for archival, in
// input order. Pinned-staleness atoms are never candidates. An atom that is
// both stale and orphaned is reported once, as stale.
func FilterCompressionCandidates(atoms []Atom, nowMs float64) []CompressionCandidate {
	idx := newAtomIndex(atoms)
	candidates := []CompressionCandidate{}

	for i := range atoms {
		a := &atoms[i]
		if a.PinnedStaleness {
			continue
		}

		s := staleness(a, idx, nowMs)
		createdAge := elapsed(nowMs, a.CreatedAt)

		switch {
		case s > compressionStaleFloor:
			days := wholeDays(elapsed(nowMs, a.UpdatedAt))
			candidates = append(candidates, CompressionCandidate{
				ID:        a.ID,
				Reason:    fmt.Sprintf("Stale: %d days since last edit", days),
				Staleness: s,
			})
		case len(a.Links) == 0 && createdAge > compressionMinAge:
			candidates = append(candidates, CompressionCandidate{
				ID:        a.ID,
				Reason:    fmt.Sprintf("Orphan: no links to active items (%d days old)", wholeDays(createdAge)),
				Staleness: s,
			})
		}
	}

	return candidates
}

// wholeDays truncates to whole days, saturating at the uint32 range.
func wholeDays(ms float64) uint32 {
	return uint32(min(max(ms/dayMs, 0), math.MaxUint32))
}
