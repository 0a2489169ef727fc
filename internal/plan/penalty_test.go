package plan

import (
	"math"
	"testing"
)

// minuteMatrix builds a Matrix from minute durations; negative values
// mark unreachable legs.
func minuteMatrix(mins [][]float64) Matrix {
	m := make(Matrix, len(mins))
	for i, row := range mins {
		m[i] = make([]Leg, len(row))
		for j, d := range row {
			if d < 0 {
				m[i][j] = Leg{Status: "ZERO_RESULTS"}
			} else {
				m[i][j] = Leg{Status: StatusOK, DurationMin: d, DistanceM: d * 80}
			}
		}
	}
	return m
}

func ratedPlaces(ratings ...float64) []*Place {
	out := make([]*Place, len(ratings))
	for i, r := range ratings {
		out[i] = testPlace(string(rune('a'+i)), r, 100, 30)
	}
	return out
}

func TestPenaltiesSmallPopulationAllZero(t *testing.T) {
	places := ratedPlaces(4.5, 4.0, 3.5)
	m := minuteMatrix([][]float64{{0, 5, 10}, {5, 0, 15}, {10, 15, 0}})

	pens := NewPenaltyCalculator(5).Penalties(places, m)
	for i, p := range pens {
		if p != 0 {
			t.Fatalf("penalty[%d] = %v, want 0 for population <= K", i, p)
		}
	}
	if places[0].TravelPenalty != 0 {
		t.Fatal("penalty not written back")
	}
}

func TestPenaltiesNormalizedRange(t *testing.T) {
	places := ratedPlaces(5, 4.8, 4.6, 4.4, 3.0, 2.0)
	m := minuteMatrix([][]float64{
		{0, 5, 10, 15, 20, 25},
		{5, 0, 5, 10, 15, 20},
		{10, 5, 0, 5, 10, 15},
		{15, 10, 5, 0, 5, 10},
		{20, 15, 10, 5, 0, 5},
		{25, 20, 15, 10, 5, 0},
	})

	pens := NewPenaltyCalculator(3).Penalties(places, m)
	minSeen, maxSeen := math.Inf(1), math.Inf(-1)
	for i, p := range pens {
		if p < 0 || p > 10 {
			t.Fatalf("penalty[%d] = %v outside [0,10]", i, p)
		}
		minSeen = math.Min(minSeen, p)
		maxSeen = math.Max(maxSeen, p)
	}
	if minSeen != 0 || maxSeen != 10 {
		t.Fatalf("linear rescale should hit both ends: min %v max %v", minSeen, maxSeen)
	}
}

func TestPenaltiesUnreachableGetsMax(t *testing.T) {
	places := ratedPlaces(5, 4.8, 4.6, 4.4, 1.0, 1.0)
	rows := [][]float64{
		{0, 5, 10, 15, 20, -1},
		{5, 0, 5, 10, 15, -1},
		{10, 5, 0, 5, 10, -1},
		{15, 10, 5, 0, 5, -1},
		{20, 15, 10, 5, 0, -1},
		{-1, -1, -1, -1, -1, 0}, // isolated island
	}
	pens := NewPenaltyCalculator(3).Penalties(places, minuteMatrix(rows))
	if pens[5] != 10.0 {
		t.Fatalf("unreachable place must get the max penalty 10, got %v", pens[5])
	}
}

func TestPenaltiesZeroSpread(t *testing.T) {
	places := ratedPlaces(5, 4.8, 4.6, 4.4, 4.2, 4.0)
	// Every place is exactly 7 minutes from everything else.
	rows := make([][]float64, 6)
	for i := range rows {
		rows[i] = make([]float64, 6)
		for j := range rows[i] {
			if i != j {
				rows[i][j] = 7
			}
		}
	}
	pens := NewPenaltyCalculator(3).Penalties(places, minuteMatrix(rows))
	for i, p := range pens {
		if p != 5.0 {
			t.Fatalf("zero spread should yield uniform 5.0, penalty[%d] = %v", i, p)
		}
	}
}

func TestClusters(t *testing.T) {
	places := ratedPlaces(5, 4.8, 4.6, 4.4, 4.2, 4.0)
	// Two tight pockets {0,1,2} and {4,5}, place 3 stranded between.
	rows := [][]float64{
		{0, 10, 20, 60, 90, 95},
		{10, 0, 15, 60, 90, 95},
		{20, 15, 0, 60, 90, 95},
		{60, 60, 60, 0, 60, 60},
		{90, 90, 90, 60, 0, 20},
		{95, 95, 95, 60, 20, 0},
	}
	m := minuteMatrix(rows)
	calc := NewPenaltyCalculator(3)
	pens := make([]float64, 6) // everything eligible
	clusters := calc.Clusters(places, m, pens, DefaultClusterThreshold)

	if len(clusters) != 2 {
		t.Fatalf("want 2 clusters, got %d: %v", len(clusters), clusters)
	}
	if len(clusters[0]) != 3 || clusters[0][0] != 0 {
		t.Fatalf("first cluster wrong: %v", clusters[0])
	}
	if len(clusters[1]) != 2 || clusters[1][0] != 4 {
		t.Fatalf("second cluster wrong: %v", clusters[1])
	}
}

func TestClustersTransitive(t *testing.T) {
	// 0-1 and 1-2 are close but 0-2 is far: transitive linking must
	// still put all three in one cluster.
	places := ratedPlaces(5, 4, 3)
	rows := [][]float64{
		{0, 25, 80},
		{25, 0, 25},
		{80, 25, 0},
	}
	clusters := NewPenaltyCalculator(5).Clusters(places, minuteMatrix(rows), make([]float64, 3), DefaultClusterThreshold)
	if len(clusters) != 1 || len(clusters[0]) != 3 {
		t.Fatalf("transitive linking broken: %v", clusters)
	}
}

func TestAnalyzeConnectivity(t *testing.T) {
	places := ratedPlaces(5, 4, 3)
	pens := []float64{1, 5, 8}
	c := NewPenaltyCalculator(5).Analyze(places, pens, [][]int{{0, 1}})
	if c.WellConnected != 2 || c.PoorlyConnected != 1 {
		t.Fatalf("connectivity counts wrong: %+v", c)
	}
	if c.ClustersFound != 1 || c.LargestClusterSize != 2 {
		t.Fatalf("cluster stats wrong: %+v", c)
	}
}
