package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestEnergyOf(t *testing.T) {
	filler := strings.Repeat("a", 60)

	tests := []struct {
		name     string
		override *string
		content  string
		want     Energy
	}{
		{"override quick", strPtr("quick"), strings.Repeat("x", 500), EnergyQuick},
		{"override case-insensitive", strPtr("DEEP"), "", EnergyDeep},
		{"override unknown", strPtr("whenever"), "", EnergyMedium},
		{"override medium", strPtr("Medium"), "", EnergyMedium},
		{"empty content", nil, "", EnergyQuick},
		{"short content", nil, "call the bank", EnergyQuick},
		{"short beats deep keyword", nil, "write the plan", EnergyQuick},
		{"quick keyword", nil, "a brief note " + filler, EnergyQuick},
		{"5 min keyword", nil, "takes 5 MIN " + filler, EnergyQuick},
		{"deep keyword", nil, "research storage engines " + filler, EnergyDeep},
		{"deep keyword uppercase", nil, "REVIEW ALL open pull requests " + filler, EnergyDeep},
		{"long content", nil, strings.Repeat("z", 201), EnergyDeep},
		{"exactly 200", nil, strings.Repeat("z", 200), EnergyMedium},
		{"exactly 50", nil, strings.Repeat("z", 50), EnergyMedium},
		{"neutral", nil, filler, EnergyMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Atom{ID: "a", Kind: KindTask, Energy: tt.override, Content: tt.content}
			assert.Equal(t, tt.want, EnergyOf(a))
		})
	}
}

func TestEnergyBoost(t *testing.T) {
	assert.Equal(t, 0.1, EnergyQuick.boost())
	assert.Equal(t, 0.0, EnergyMedium.boost())
	assert.Equal(t, -0.05, EnergyDeep.boost())
}
