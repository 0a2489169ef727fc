package model

import (
	"fmt"

	"tourplan/internal/plan"
)

const defaultVisitTimeMin = 30

// BuildPlaces converts wire candidates into pipeline places, preserving
// order so matrix indices stay aligned.
func (r PlanRequest) BuildPlaces() []*plan.Place {
	out := make([]*plan.Place, 0, len(r.Places))
	for i, in := range r.Places {
		id := in.ID
		if id == "" {
			id = fmt.Sprintf("cand_%d", i)
		}
		visit := in.VisitTimeMin
		if visit == 0 {
			visit = defaultVisitTimeMin
		}
		var lat, lng float64
		if in.Location != nil {
			lat, lng = in.Location.Lat, in.Location.Lng
		}
		out = append(out, plan.NewPlace(id, in.Name, in.Address, lat, lng, in.Rating, in.RatingsTotal, visit, in.Types))
	}
	return out
}

// BuildMatrix converts the wire matrix, or synthesizes a straight-line
// one from coordinates when the caller supplied none.
func (r PlanRequest) BuildMatrix(places []*plan.Place) (plan.Matrix, error) {
	if len(r.Matrix) == 0 {
		return plan.SyntheticMatrix(places, r.SpeedKph), nil
	}
	m := make(plan.Matrix, len(r.Matrix))
	for i, row := range r.Matrix {
		m[i] = make([]plan.Leg, len(row))
		for j, cell := range row {
			m[i][j] = plan.Leg{Status: cell.Status, DurationMin: cell.DurationMin, DistanceM: cell.DistanceM}
		}
	}
	if err := m.Validate(len(places)); err != nil {
		return nil, err
	}
	return m, nil
}

// BuildPreferences resolves the wire preferences into pipeline
// preferences: style presets overwrite weights, custom keeps them, and
// category strengths are renormalized to sum to 1.
func (p *PreferencesIn) BuildPreferences() (plan.Preferences, error) {
	if p == nil {
		return plan.DefaultPreferences(), nil
	}
	style, err := plan.ParseStyle(p.Style)
	if err != nil {
		return plan.Preferences{}, err
	}
	prefs := plan.DefaultPreferences()
	prefs.Style = style
	if style == plan.StyleCustom {
		prefs.WeightRating = p.WeightRating
		prefs.WeightPreference = p.WeightPreference
		prefs.WeightTravel = p.WeightTravel
	}
	prefs.ApplyStyle()
	if len(p.Categories) > 0 {
		prefs.CategoryWeights = map[plan.Category]float64{}
		for c, w := range p.Categories {
			prefs.SetCategoryWeight(plan.Category(c), w)
		}
		prefs.NormalizeCategoryWeights()
	}
	return prefs, nil
}

// StopsFromResult projects the ordered route back into wire stops.
func StopsFromResult(res plan.Result, places []*plan.Place) []PlanStop {
	stops := make([]PlanStop, 0, len(res.Route))
	for _, idx := range res.Route {
		p := places[idx]
		cats := make([]string, 0, len(p.Categories))
		for _, c := range p.Categories {
			cats = append(cats, string(c))
		}
		stops = append(stops, PlanStop{
			Index:          idx,
			ID:             p.ID,
			Name:           p.Name,
			Address:        p.Address,
			Rating:         p.Rating,
			VisitTimeMin:   p.VisitTime,
			CompositeScore: p.CompositeScore,
			TravelPenalty:  p.TravelPenalty,
			Categories:     cats,
		})
	}
	return stops
}
