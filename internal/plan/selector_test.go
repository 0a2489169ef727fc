package plan

import (
	"reflect"
	"testing"
)

func scoredPlaces(scores []float64, visits []int) []*Place {
	out := make([]*Place, len(scores))
	for i := range scores {
		out[i] = testPlace(string(rune('a'+i)), 4, 100, visits[i])
		out[i].CompositeScore = scores[i]
	}
	return out
}

func TestSelectGreedyEmptyAndZeroBudget(t *testing.T) {
	m := minuteMatrix([][]float64{{0}})
	if sel := SelectGreedy(nil, Matrix{}, 100, 0); len(sel.Indices) != 0 || sel.TotalScore != 0 {
		t.Fatalf("empty candidates should select nothing: %+v", sel)
	}
	places := scoredPlaces([]float64{5}, []int{30})
	if sel := SelectGreedy(places, m, 0, 0); len(sel.Indices) != 0 {
		t.Fatalf("zero budget should select nothing: %+v", sel)
	}
	if sel := SelectGreedy(places, m, -10, 0); len(sel.Indices) != 0 {
		t.Fatalf("negative budget should select nothing: %+v", sel)
	}
}

func TestSelectGreedyBudgetRespected(t *testing.T) {
	places := scoredPlaces([]float64{8, 6, 7, 3}, []int{30, 45, 60, 30})
	m := minuteMatrix([][]float64{
		{0, 10, 20, 30},
		{10, 0, 10, 20},
		{20, 10, 0, 10},
		{30, 20, 10, 0},
	})
	budget := 120
	sel := SelectGreedy(places, m, budget, 0)

	if sel.TimeUsedMin > float64(budget) {
		t.Fatalf("time used %v exceeds budget %d", sel.TimeUsedMin, budget)
	}
	// Recompute committed time from the log; it must match TimeUsedMin.
	sum := 0.0
	for _, step := range sel.Log {
		sum += step.TimeNeeded
	}
	if sum != sel.TimeUsedMin {
		t.Fatalf("log time %v != time used %v", sum, sel.TimeUsedMin)
	}
}

func TestSelectGreedyDeterministic(t *testing.T) {
	places := func() []*Place {
		return scoredPlaces([]float64{5, 5, 5}, []int{30, 30, 30})
	}
	m := minuteMatrix([][]float64{{0, 5, 10}, {5, 0, 15}, {10, 15, 0}})

	first := SelectGreedy(places(), m, 200, 0)
	second := SelectGreedy(places(), m, 200, 0)
	if !reflect.DeepEqual(first.Indices, second.Indices) {
		t.Fatalf("selection order not reproducible: %v vs %v", first.Indices, second.Indices)
	}
	// Equal efficiency breaks toward the earlier index: place 0 costs
	// zero travel from the start, so it goes first.
	if first.Indices[0] != 0 {
		t.Fatalf("tie-break should pick first encountered, got %v", first.Indices)
	}
}

func TestSelectGreedyAllFitWithAmpleBudget(t *testing.T) {
	places := scoredPlaces([]float64{5, 5, 5}, []int{30, 30, 30})
	m := minuteMatrix([][]float64{{0, 5, 10}, {5, 0, 15}, {10, 15, 0}})

	sel := SelectGreedy(places, m, 150, 0)
	if len(sel.Indices) != 3 {
		t.Fatalf("ample budget should take all 3, got %v", sel.Indices)
	}
	// 0 first (no travel), then 1 (5 min closer than 2), then 2.
	want := []int{0, 1, 2}
	if !reflect.DeepEqual(sel.Indices, want) {
		t.Fatalf("pick order %v, want %v", sel.Indices, want)
	}
	if sel.TimeUsedMin != 30+35+45 {
		t.Fatalf("time used %v", sel.TimeUsedMin)
	}
	if sel.FinalLocation != 2 {
		t.Fatalf("final location %d", sel.FinalLocation)
	}
}

func TestSelectGreedyOversizedVisitNeverSelected(t *testing.T) {
	places := scoredPlaces([]float64{100, 1}, []int{30, 30})
	places[0].VisitTime = MaxVisitTime // 180 > budget regardless of score
	m := minuteMatrix([][]float64{{0, 5}, {5, 0}})

	sel := SelectGreedy(places, m, 60, 0)
	for _, idx := range sel.Indices {
		if idx == 0 {
			t.Fatal("place with visit time beyond budget must never be selected")
		}
	}
}

func TestSelectGreedyUnreachableSkipped(t *testing.T) {
	places := scoredPlaces([]float64{5, 50}, []int{30, 30})
	m := minuteMatrix([][]float64{{0, -1}, {-1, 0}})

	sel := SelectGreedy(places, m, 500, 0)
	if !reflect.DeepEqual(sel.Indices, []int{0}) {
		t.Fatalf("unreachable place should be skipped, got %v", sel.Indices)
	}
}

func TestSelectGreedyLog(t *testing.T) {
	places := scoredPlaces([]float64{5, 4}, []int{30, 30})
	m := minuteMatrix([][]float64{{0, 10}, {10, 0}})

	sel := SelectGreedy(places, m, 100, 0)
	if len(sel.Log) != 2 {
		t.Fatalf("want 2 log steps, got %d", len(sel.Log))
	}
	if sel.Log[0].Iteration != 1 || sel.Log[1].Iteration != 2 {
		t.Fatalf("iterations misnumbered: %+v", sel.Log)
	}
	if sel.Log[1].RemainingMin != sel.RemainingMin {
		t.Fatalf("last log remaining %v != selection remaining %v", sel.Log[1].RemainingMin, sel.RemainingMin)
	}
}

func TestSelectDPExactOnSmallInstance(t *testing.T) {
	// Visit times 30/45/60, budget 90: best visit-time-only subset is
	// {0,2} (score 15) over {0,1} (score 14) and {1,2} (does not fit... 105).
	places := scoredPlaces([]float64{8, 6, 7}, []int{30, 45, 60})
	sel := SelectDP(places, 90)

	if !reflect.DeepEqual(sel.Indices, []int{0, 2}) {
		t.Fatalf("dp subset %v, want [0 2]", sel.Indices)
	}
	if sel.TotalScore != 15 {
		t.Fatalf("dp score %v, want 15", sel.TotalScore)
	}
	if sel.TimeUsedMin != 90 {
		t.Fatalf("dp time %v, want 90", sel.TimeUsedMin)
	}
}

func TestSelectDPEdgeCases(t *testing.T) {
	if sel := SelectDP(nil, 100); len(sel.Indices) != 0 {
		t.Fatalf("empty dp selection expected: %+v", sel)
	}
	places := scoredPlaces([]float64{9}, []int{120})
	if sel := SelectDP(places, 60); len(sel.Indices) != 0 {
		t.Fatal("item heavier than budget must not be selected")
	}
}

func TestSelectDPBudgetCapped(t *testing.T) {
	places := scoredPlaces([]float64{9}, []int{60})
	sel := SelectDP(places, 50_000_000)
	if len(sel.Indices) != 1 {
		t.Fatalf("expected the single place selected, got %v", sel.Indices)
	}
	// the table budget is clamped, so remaining time reflects the cap
	if sel.RemainingMin != float64(MaxBudgetMin-60) {
		t.Fatalf("remaining %v, want %v", sel.RemainingMin, float64(MaxBudgetMin-60))
	}
}
