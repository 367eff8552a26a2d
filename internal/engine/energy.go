package engine

import "strings"

const (
	quickMaxLen = 50
	deepMinLen  = 200
)

var (
	quickKeywords = []string{"quick", "5 min", "brief"}
	deepKeywords  = []string{"research", "write", "design", "plan", "review all"}
)

// EnergyOf returns the explicit energy override if set, otherwise the level
// inferred from content.
func EnergyOf(a Atom) Energy {
	if a.Energy != nil {
		return ParseEnergy(*a.Energy)
	}
	return inferEnergy(a.Content)
}

// ParseEnergy maps an override string to a level. Unrecognized values are
// Medium.
func ParseEnergy(s string) Energy {
	switch strings.ToLower(s) {
	case "quick":
		return EnergyQuick
	case "deep":
		return EnergyDeep
	default:
		return EnergyMedium
	}
}

// inferEnergy checks Quick before Deep, so short content with a deep keyword
// is still Quick.
func inferEnergy(content string) Energy {
	lower := strings.ToLower(content)
	n := len(content)

	if n < quickMaxLen || containsAny(lower, quickKeywords) {
		return EnergyQuick
	}
	if n > deepMinLen || containsAny(lower, deepKeywords) {
		return EnergyDeep
	}
	return EnergyMedium
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// boost is the energy term of the priority formula.
func (e Energy) boost() float64 {
	switch e {
	case EnergyQuick:
		return 0.1
	case EnergyDeep:
		return -0.05
	default:
		return 0
	}
}
