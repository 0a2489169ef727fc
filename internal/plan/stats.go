package plan

import "math"

// unknownLegMinutes stands in for a leg with no usable travel record
// when assembling the itinerary clock. Statistics keep the honest +Inf;
// the itinerary needs a finite schedule to be displayable.
const unknownLegMinutes = 30.0

// Stats aggregates a finished route.
type Stats struct {
	Places         int     `json:"places"`
	TotalVisitMin  float64 `json:"totalVisitMin"`
	TotalTravelMin float64 `json:"totalTravelMin"`
	TotalMin       float64 `json:"totalMin"`
	AvgTravelMin   float64 `json:"avgTravelMin"`
	TotalScore     float64 `json:"totalScore"`
	TimeEfficiency float64 `json:"timeEfficiency"`
}

// RouteStats computes aggregate statistics for a route of matrix indices.
func RouteStats(route []int, places []*Place, m Matrix) Stats {
	var s Stats
	s.Places = len(route)
	if len(route) == 0 {
		return s
	}
	for _, idx := range route {
		s.TotalVisitMin += float64(places[idx].VisitTime)
		s.TotalScore += places[idx].CompositeScore
	}
	s.TotalTravelMin = m.PathTime(route)
	s.TotalMin = s.TotalVisitMin + s.TotalTravelMin
	if len(route) > 1 {
		s.AvgTravelMin = s.TotalTravelMin / float64(len(route)-1)
	}
	s.TimeEfficiency = s.TotalScore / math.Max(1, s.TotalMin)
	return s
}

// ItineraryItem is one scheduled activity: a visit or a travel leg.
type ItineraryItem struct {
	Kind        string  `json:"kind"` // visit, travel
	Index       int     `json:"index,omitempty"`
	Name        string  `json:"name,omitempty"`
	Address     string  `json:"address,omitempty"`
	FromIndex   int     `json:"fromIndex,omitempty"`
	ToIndex     int     `json:"toIndex,omitempty"`
	StartMin    float64 `json:"startMin"`
	DurationMin float64 `json:"durationMin"`
	EndMin      float64 `json:"endMin"`
}

// BuildItinerary expands a route into alternating visit and travel items
// on a running clock starting at minute zero.
func BuildItinerary(route []int, places []*Place, m Matrix) []ItineraryItem {
	items := []ItineraryItem{}
	clock := 0.0
	for i, idx := range route {
		p := places[idx]
		visit := ItineraryItem{
			Kind:        "visit",
			Index:       idx,
			Name:        p.Name,
			Address:     p.Address,
			StartMin:    clock,
			DurationMin: float64(p.VisitTime),
			EndMin:      clock + float64(p.VisitTime),
		}
		items = append(items, visit)
		clock = visit.EndMin

		if i+1 < len(route) {
			next := route[i+1]
			d := m.Time(idx, next)
			if math.IsInf(d, 1) {
				d = unknownLegMinutes
			}
			travel := ItineraryItem{
				Kind:        "travel",
				FromIndex:   idx,
				ToIndex:     next,
				Name:        places[next].Name,
				StartMin:    clock,
				DurationMin: d,
				EndMin:      clock + d,
			}
			items = append(items, travel)
			clock = travel.EndMin
		}
	}
	return items
}
