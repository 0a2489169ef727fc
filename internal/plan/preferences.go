package plan

import (
	"fmt"
	"math"
)

// Style is a named preset overwriting the three composite weights.
type Style string

const (
	StyleQualityExplorer  Style = "quality_explorer"
	StyleEfficientTourist Style = "efficient_tourist"
	StyleBalancedTraveler Style = "balanced_traveler"
	StyleCustom           Style = "custom"
)

// Styles lists the preset styles, custom last.
var Styles = []Style{StyleQualityExplorer, StyleEfficientTourist, StyleBalancedTraveler, StyleCustom}

// Preferences holds the traveler's composite weights and per-category
// preference strengths. Weights should sum to 1.0; Validate checks this
// but the pipeline does not enforce it.
type Preferences struct {
	WeightRating     float64
	WeightPreference float64
	WeightTravel     float64

	Style Style

	CategoryWeights map[Category]float64
}

// DefaultPreferences returns a balanced traveler with the stock category mix.
func DefaultPreferences() Preferences {
	p := Preferences{
		Style: StyleBalancedTraveler,
		CategoryWeights: map[Category]float64{
			CategoryArt:           0.3,
			CategoryFood:          0.2,
			CategoryNature:        0.2,
			CategoryCulture:       0.2,
			CategoryShopping:      0.05,
			CategoryEntertainment: 0.05,
		},
	}
	p.ApplyStyle()
	return p
}

// ApplyStyle overwrites the three weights from the preset. StyleCustom
// leaves caller-supplied weights untouched.
func (p *Preferences) ApplyStyle() {
	switch p.Style {
	case StyleQualityExplorer:
		p.WeightRating, p.WeightPreference, p.WeightTravel = 0.6, 0.3, 0.1
	case StyleEfficientTourist:
		p.WeightRating, p.WeightPreference, p.WeightTravel = 0.2, 0.3, 0.5
	case StyleBalancedTraveler:
		p.WeightRating, p.WeightPreference, p.WeightTravel = 0.4, 0.4, 0.2
	}
}

// CategoryWeight returns the preference strength for a category, zero when absent.
func (p Preferences) CategoryWeight(c Category) float64 {
	return p.CategoryWeights[c]
}

// SetCategoryWeight stores a strength clamped to [0,1].
func (p *Preferences) SetCategoryWeight(c Category, w float64) {
	if p.CategoryWeights == nil {
		p.CategoryWeights = map[Category]float64{}
	}
	p.CategoryWeights[c] = math.Max(0, math.Min(1, w))
}

// NormalizeCategoryWeights rescales strengths to sum to 1.
func (p *Preferences) NormalizeCategoryWeights() {
	total := 0.0
	for _, w := range p.CategoryWeights {
		total += w
	}
	if total <= 0 {
		return
	}
	for c, w := range p.CategoryWeights {
		p.CategoryWeights[c] = w / total
	}
}

// Validate checks the three weights sum to 1.0 within floating tolerance
// and are non-negative.
func (p Preferences) Validate() error {
	if p.WeightRating < 0 || p.WeightPreference < 0 || p.WeightTravel < 0 {
		return fmt.Errorf("weights must be non-negative")
	}
	sum := p.WeightRating + p.WeightPreference + p.WeightTravel
	if math.Abs(sum-1.0) > 0.01 {
		return fmt.Errorf("weights sum to %.3f, want 1.0", sum)
	}
	return nil
}

// ParseStyle validates a raw style string.
func ParseStyle(s string) (Style, error) {
	switch Style(s) {
	case StyleQualityExplorer, StyleEfficientTourist, StyleBalancedTraveler, StyleCustom:
		return Style(s), nil
	case "":
		return StyleBalancedTraveler, nil
	}
	return "", fmt.Errorf("unknown travel style: %s", s)
}
