package plan

import (
	"math"
	"sort"
)

const (
	// DefaultTopK is the reference-set size for penalty calculation.
	DefaultTopK = 5
	// DefaultClusterThreshold is the max normalized penalty for a place
	// to count as well-connected.
	DefaultClusterThreshold = 5.0
	// clusterLinkMinutes links two places into one cluster when their
	// direct travel time is at or below this cutoff.
	clusterLinkMinutes = 30.0
)

// PenaltyCalculator derives each place's travel-friction term from its
// mean travel time to the top-K places by raw rating.
type PenaltyCalculator struct {
	TopK int
}

// NewPenaltyCalculator returns a calculator with the given reference-set
// size; non-positive k falls back to DefaultTopK.
func NewPenaltyCalculator(k int) PenaltyCalculator {
	if k <= 0 {
		k = DefaultTopK
	}
	return PenaltyCalculator{TopK: k}
}

// Penalties computes normalized travel penalties in [0,10] for every
// place and writes them back onto the places. When the candidate set is
// no larger than K there is not enough population to distinguish
// clusters, so every penalty is zero.
func (c PenaltyCalculator) Penalties(places []*Place, m Matrix) []float64 {
	if len(places) <= c.TopK {
		out := make([]float64, len(places))
		for _, p := range places {
			p.TravelPenalty = 0
		}
		return out
	}

	topIdx := c.topRatedIndices(places)

	raw := make([]float64, len(places))
	for i := range places {
		raw[i] = rawPenalty(i, topIdx, m)
	}

	norm := normalizePenalties(raw)
	for i, p := range places {
		p.TravelPenalty = norm[i]
	}
	return norm
}

// topRatedIndices returns the indices of the K highest-rated places.
// Ties keep candidate-list order for determinism.
func (c PenaltyCalculator) topRatedIndices(places []*Place) []int {
	idx := make([]int, len(places))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return places[idx[a]].Rating > places[idx[b]].Rating
	})
	k := c.TopK
	if k > len(idx) {
		k = len(idx)
	}
	return idx[:k]
}

// rawPenalty is the mean travel time from one place to the reachable
// reference places, excluding the self pair. No reachable reference
// place means the penalty is infinite.
func rawPenalty(i int, topIdx []int, m Matrix) float64 {
	sum := 0.0
	n := 0
	for _, t := range topIdx {
		if t == i {
			continue
		}
		d := m.Time(i, t)
		if math.IsInf(d, 1) {
			continue
		}
		sum += d
		n++
	}
	if n == 0 {
		return math.Inf(1)
	}
	return sum / float64(n)
}

// normalizePenalties rescales raw penalties linearly onto [0,10]: finite
// minimum to 0, finite maximum to 10. Infinite penalties are force-set
// to 10 (worst case, not off the scale). Zero spread across the finite
// values yields a uniform mid-range 5.0 to avoid dividing by zero.
func normalizePenalties(raw []float64) []float64 {
	minP, maxP := math.Inf(1), math.Inf(-1)
	finite := 0
	for _, p := range raw {
		if math.IsInf(p, 1) {
			continue
		}
		finite++
		if p < minP {
			minP = p
		}
		if p > maxP {
			maxP = p
		}
	}

	out := make([]float64, len(raw))
	if finite == 0 {
		return out
	}
	if maxP == minP {
		for i, p := range raw {
			if math.IsInf(p, 1) {
				out[i] = 10.0
			} else {
				out[i] = 5.0
			}
		}
		return out
	}
	for i, p := range raw {
		if math.IsInf(p, 1) {
			out[i] = 10.0
			continue
		}
		out[i] = (p - minP) / (maxP - minP) * 10
	}
	return out
}

// Clusters groups well-connected places (penalty at or below threshold)
// by transitively linking any pair whose direct travel time is within
// the 30-minute cutoff. Single-member groups are discarded. Diagnostic
// only; the selector does not consume this.
func (c PenaltyCalculator) Clusters(places []*Place, m Matrix, penalties []float64, threshold float64) [][]int {
	eligible := []int{}
	for i := range places {
		if i < len(penalties) && penalties[i] <= threshold {
			eligible = append(eligible, i)
		}
	}
	if len(eligible) == 0 {
		return nil
	}

	// Union-find over eligible places.
	parent := map[int]int{}
	for _, i := range eligible {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	for a := 0; a < len(eligible); a++ {
		for b := a + 1; b < len(eligible); b++ {
			i, j := eligible[a], eligible[b]
			if m.Time(i, j) <= clusterLinkMinutes {
				parent[find(i)] = find(j)
			}
		}
	}

	groups := map[int][]int{}
	for _, i := range eligible {
		r := find(i)
		groups[r] = append(groups[r], i)
	}

	clusters := [][]int{}
	for _, g := range groups {
		if len(g) > 1 {
			sort.Ints(g)
			clusters = append(clusters, g)
		}
	}
	sort.Slice(clusters, func(a, b int) bool { return clusters[a][0] < clusters[b][0] })
	return clusters
}

// Connectivity summarizes how well the candidate set hangs together.
type Connectivity struct {
	TotalPlaces        int     `json:"totalPlaces"`
	AveragePenalty     float64 `json:"averagePenalty"`
	MinPenalty         float64 `json:"minPenalty"`
	MaxPenalty         float64 `json:"maxPenalty"`
	WellConnected      int     `json:"wellConnected"`
	PoorlyConnected    int     `json:"poorlyConnected"`
	ClustersFound      int     `json:"clustersFound"`
	LargestClusterSize int     `json:"largestClusterSize"`
}

// Analyze reports connectivity statistics over precomputed penalties and clusters.
func (c PenaltyCalculator) Analyze(places []*Place, penalties []float64, clusters [][]int) Connectivity {
	out := Connectivity{TotalPlaces: len(places), ClustersFound: len(clusters)}
	if len(penalties) > 0 {
		sum := 0.0
		out.MinPenalty = penalties[0]
		out.MaxPenalty = penalties[0]
		for _, p := range penalties {
			sum += p
			if p < out.MinPenalty {
				out.MinPenalty = p
			}
			if p > out.MaxPenalty {
				out.MaxPenalty = p
			}
			if p <= 5.0 {
				out.WellConnected++
			}
			if p > 7.0 {
				out.PoorlyConnected++
			}
		}
		out.AveragePenalty = sum / float64(len(penalties))
	}
	for _, cl := range clusters {
		if len(cl) > out.LargestClusterSize {
			out.LargestClusterSize = len(cl)
		}
	}
	return out
}
