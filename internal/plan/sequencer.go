package plan

import "math"

// maxTwoOptPasses bounds the 2-opt local search so pathological inputs
// cannot spin; each pass is O(route_length^2) matrix lookups.
const maxTwoOptPasses = 100

// RouteDetails reports what the sequencer did to a route.
type RouteDetails struct {
	Algorithm          string  `json:"algorithm"`
	InitialTravelMin   float64 `json:"initialTravelMin"`
	OptimizedTravelMin float64 `json:"optimizedTravelMin"`
	ImprovementPct     float64 `json:"improvementPct"`
	Passes             int     `json:"passes"`
}

// Sequence orders the selected matrix indices to minimize total travel
// time between consecutive stops: nearest-neighbor construction seeded
// at startIndex (when selected), then 2-opt local search. Visit
// durations are fixed costs independent of order and are excluded.
// Routes of length <= 1 are returned unchanged.
func Sequence(selected []int, m Matrix, startIndex int) ([]int, RouteDetails) {
	if len(selected) <= 1 {
		out := append([]int(nil), selected...)
		return out, RouteDetails{Algorithm: "none"}
	}

	route := nearestNeighbor(selected, m, startIndex)
	initial := m.PathTime(route)

	route, passes := twoOpt(route, m)
	final := m.PathTime(route)

	improvement := 0.0
	if !math.IsInf(initial, 1) {
		improvement = (initial - final) / math.Max(1, initial) * 100
	}

	return route, RouteDetails{
		Algorithm:          "nearest-neighbor+2opt",
		InitialTravelMin:   initial,
		OptimizedTravelMin: final,
		ImprovementPct:     improvement,
		Passes:             passes,
	}
}

// nearestNeighbor builds the seed route. The start index is used when it
// is among the selected places, otherwise the first selected place.
// When no unvisited place is reachable the remainder is appended in
// original order; connectivity gaps degrade the route, they never abort it.
func nearestNeighbor(selected []int, m Matrix, startIndex int) []int {
	unvisited := append([]int(nil), selected...)

	current := -1
	for pos, idx := range unvisited {
		if idx == startIndex {
			current = idx
			unvisited = append(unvisited[:pos], unvisited[pos+1:]...)
			break
		}
	}
	if current < 0 {
		current = unvisited[0]
		unvisited = unvisited[1:]
	}

	route := []int{current}
	for len(unvisited) > 0 {
		bestPos := -1
		bestTime := math.Inf(1)
		for pos, idx := range unvisited {
			if d := m.Time(current, idx); d < bestTime {
				bestTime = d
				bestPos = pos
			}
		}
		if bestPos < 0 {
			route = append(route, unvisited...)
			break
		}
		current = unvisited[bestPos]
		route = append(route, current)
		unvisited = append(unvisited[:bestPos], unvisited[bestPos+1:]...)
	}
	return route
}

// twoOpt applies first-improvement 2-opt: scan segments [i,j) with i >= 1
// and length >= 2, accept the first reversal that strictly shortens the
// route, and restart the scan. Stops on a clean pass or at the pass cap.
func twoOpt(route []int, m Matrix) ([]int, int) {
	if len(route) < 4 {
		return route, 0
	}

	best := append([]int(nil), route...)
	bestTime := m.PathTime(best)

	passes := 0
	improved := true
	for improved && passes < maxTwoOptPasses {
		improved = false
		passes++
		for i := 1; i < len(best)-2 && !improved; i++ {
			for j := i + 2; j <= len(best); j++ {
				cand := append([]int(nil), best...)
				reverse(cand[i:j])
				if t := m.PathTime(cand); t < bestTime {
					best = cand
					bestTime = t
					improved = true
					break
				}
			}
		}
	}
	return best, passes
}

func reverse(s []int) {
	for a, b := 0, len(s)-1; a < b; a, b = a+1, b-1 {
		s[a], s[b] = s[b], s[a]
	}
}
