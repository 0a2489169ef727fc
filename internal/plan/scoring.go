package plan

import (
	"math"
	"sort"
)

// categoryAdjust tunes the quality multiplier per category. Review signal
// strength differs by category: food and entertainment reviews track
// quality closely, shopping reviews much less so.
var categoryAdjust = map[Category]float64{
	CategoryArt:           1.0,
	CategoryFood:          1.1,
	CategoryNature:        0.9,
	CategoryCulture:       1.0,
	CategoryShopping:      0.8,
	CategoryEntertainment: 1.2,
}

// Score computes the composite desirability of a place:
//
//	composite = max(0, rating10*wRating + match*wPreference - penalty*wTravel)
//
// and writes CompositeScore and TravelPenalty back onto the place.
// Re-scoring with the same inputs reproduces the same value exactly.
func Score(p *Place, prefs Preferences, travelPenalty float64) float64 {
	rating10 := p.Rating * 2

	match := preferenceMatch(p, prefs)

	composite := rating10*prefs.WeightRating +
		match*prefs.WeightPreference -
		travelPenalty*prefs.WeightTravel

	p.CompositeScore = math.Max(0, composite)
	p.TravelPenalty = travelPenalty
	return p.CompositeScore
}

// preferenceMatch quantifies how well a place's categories line up with
// the traveler's preferences, on a 0-10 scale. Only categories present in
// the preference map participate; the weighted sum is divided by the
// matched strengths, not the full map total, so a place matching one
// rare, strongly-preferred category is not diluted by absent ones.
// A place with no matching categories gets the neutral midpoint 5.0.
func preferenceMatch(p *Place, prefs Preferences) float64 {
	if len(p.Categories) == 0 {
		return 5.0
	}
	totalScore := 0.0
	totalWeight := 0.0
	for _, c := range p.Categories {
		w, ok := prefs.CategoryWeights[c]
		if !ok {
			continue
		}
		base := w * 10
		match := base * qualityMultiplier(p, c)
		totalScore += match * w
		totalWeight += w
	}
	if totalWeight <= 0 {
		return 5.0
	}
	return math.Min(10.0, totalScore/totalWeight)
}

// qualityMultiplier blends the place's own rating with log-scaled
// popularity (70/30), adjusted per category, clamped to [0.5, 1.5].
func qualityMultiplier(p *Place, c Category) float64 {
	ratingFactor := p.Rating / 5.0

	popularityFactor := 0.5
	if p.RatingsTotal > 0 {
		popularityFactor = math.Min(1.0, math.Log10(float64(p.RatingsTotal))/3.0)
	}

	adj, ok := categoryAdjust[c]
	if !ok {
		adj = 1.0
	}

	mult := (ratingFactor*0.7 + popularityFactor*0.3) * adj
	return math.Max(0.5, math.Min(1.5, mult))
}

// ScoreAll scores every place in order. Penalties are matched by index;
// a missing penalty defaults to zero. Idempotent for fixed inputs.
func ScoreAll(places []*Place, prefs Preferences, penalties []float64) {
	for i, p := range places {
		pen := 0.0
		if i < len(penalties) {
			pen = penalties[i]
		}
		Score(p, prefs, pen)
	}
}

// TopScored returns the n highest-scoring places, best first. The input
// slice is not reordered.
func TopScored(places []*Place, n int) []*Place {
	out := append([]*Place(nil), places...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CompositeScore > out[j].CompositeScore })
	if n < len(out) {
		out = out[:n]
	}
	return out
}
