package plan

import "fmt"

// Params carries every knob of one planning run. Nothing in the pipeline
// reads global state; all configuration arrives here or in Preferences.
type Params struct {
	BudgetMin        int
	StartIndex       int
	TopK             int
	Strategy         string // StrategyGreedy (default) or StrategyDP
	ClusterThreshold float64
}

// Result is the full outcome of one planning run.
type Result struct {
	Route        []int           `json:"route"` // candidate-list indices, visit order
	Selection    Selection       `json:"selection"`
	Details      RouteDetails    `json:"optimization"`
	Stats        Stats           `json:"stats"`
	Itinerary    []ItineraryItem `json:"itinerary"`
	Penalties    []float64       `json:"penalties"`
	Clusters     [][]int         `json:"clusters,omitempty"`
	Connectivity Connectivity    `json:"connectivity"`
}

// Run executes the full pipeline: travel penalties, composite scoring,
// budget-constrained selection, then route sequencing. The pipeline is
// synchronous and owns its inputs for the duration of the run; places
// are scored in place. An empty candidate list or non-positive budget is
// a valid run producing an empty result. A matrix that does not match
// the candidate list is a caller bug and fails immediately.
func Run(places []*Place, m Matrix, prefs Preferences, params Params) (Result, error) {
	if err := m.Validate(len(places)); err != nil {
		return Result{}, err
	}
	switch params.Strategy {
	case "", StrategyGreedy, StrategyDP:
	default:
		return Result{}, fmt.Errorf("unknown selection strategy: %s", params.Strategy)
	}

	calc := NewPenaltyCalculator(params.TopK)
	penalties := calc.Penalties(places, m)

	ScoreAll(places, prefs, penalties)

	var sel Selection
	if params.Strategy == StrategyDP {
		sel = SelectDP(places, params.BudgetMin)
	} else {
		sel = SelectGreedy(places, m, params.BudgetMin, params.StartIndex)
	}

	route, details := Sequence(sel.Indices, m, params.StartIndex)

	threshold := params.ClusterThreshold
	if threshold <= 0 {
		threshold = DefaultClusterThreshold
	}
	clusters := calc.Clusters(places, m, penalties, threshold)

	return Result{
		Route:        route,
		Selection:    sel,
		Details:      details,
		Stats:        RouteStats(route, places, m),
		Itinerary:    BuildItinerary(route, places, m),
		Penalties:    penalties,
		Clusters:     clusters,
		Connectivity: calc.Analyze(places, penalties, clusters),
	}, nil
}
