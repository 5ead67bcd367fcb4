package report

import (
	"fmt"
	"sort"
)

// RiskBand is a named confidence interval [Min, Max). The final band of a
// valid mapping reaches 100 and includes it.
type RiskBand struct {
	Name string  `json:"name" mapstructure:"name"`
	Min  float64 `json:"min" mapstructure:"min"`
	Max  float64 `json:"max" mapstructure:"max"`
}

// Bands is an ordered risk-band mapping over [0,100].
type Bands []RiskBand

// DefaultBands returns the built-in four-band mapping. Low confidence means
// high risk, so the critical band sits at the bottom of the scale.
func DefaultBands() Bands {
	return Bands{
		{Name: "critical", Min: 0, Max: 40},
		{Name: "high", Min: 40, Max: 60},
		{Name: "medium", Min: 60, Max: 80},
		{Name: "low", Min: 80, Max: 100},
	}
}

// Validate verifies that the bands fully partition [0,100] with no gaps or
// overlaps once sorted by lower bound.
func (b Bands) Validate() error {
	if len(b) == 0 {
		return fmt.Errorf("no risk bands defined")
	}

	sorted := make(Bands, len(b))
	copy(sorted, b)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Min < sorted[j].Min })

	seen := make(map[string]bool, len(sorted))
	for i, band := range sorted {
		if band.Name == "" {
			return fmt.Errorf("band %d has no name", i)
		}
		if seen[band.Name] {
			return fmt.Errorf("duplicate band name: %s", band.Name)
		}
		seen[band.Name] = true

		if band.Max <= band.Min {
			return fmt.Errorf("band %s has empty interval [%g,%g)", band.Name, band.Min, band.Max)
		}
		if i == 0 && band.Min != 0 {
			return fmt.Errorf("bands must start at 0, got %g", band.Min)
		}
		if i > 0 && band.Min != sorted[i-1].Max {
			return fmt.Errorf("gap or overlap between %s and %s at %g", sorted[i-1].Name, band.Name, band.Min)
		}
	}

	if sorted[len(sorted)-1].Max != 100 {
		return fmt.Errorf("bands must end at 100, got %g", sorted[len(sorted)-1].Max)
	}

	return nil
}

// Locate returns the name of the band containing the given value. A value of
// exactly 100 resolves to the top band. Values outside [0,100] are clamped.
func (b Bands) Locate(value float64) (string, bool) {
	if len(b) == 0 {
		return "", false
	}
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}

	for _, band := range b {
		if value >= band.Min && value < band.Max {
			return band.Name, true
		}
		if value == 100 && band.Max == 100 {
			return band.Name, true
		}
	}
	return "", false
}

// Lowest returns the name of the band covering the bottom of the scale.
func (b Bands) Lowest() string {
	name, _ := b.Locate(0)
	return name
}

// IsHighRisk reports whether the named band sits in the bottom half of the
// confidence scale. With the default mapping this covers critical and high.
func (b Bands) IsHighRisk(name string) bool {
	for _, band := range b {
		if band.Name == name {
			return band.Max <= 60
		}
	}
	return false
}

// AtOrAbove reports whether band a is at least as risky as band b, where
// riskier bands cover lower confidence values.
func (b Bands) AtOrAbove(a, other string) bool {
	rank := func(name string) float64 {
		for _, band := range b {
			if band.Name == name {
				return band.Min
			}
		}
		return 100
	}
	return rank(a) <= rank(other)
}
