package plan

import (
	"math"
	"reflect"
	"testing"
)

func TestSequenceTrivialRoutes(t *testing.T) {
	m := minuteMatrix([][]float64{{0, 5}, {5, 0}})
	route, det := Sequence(nil, m, 0)
	if len(route) != 0 || det.Algorithm != "none" {
		t.Fatalf("empty selection: %v %+v", route, det)
	}
	route, det = Sequence([]int{1}, m, 0)
	if !reflect.DeepEqual(route, []int{1}) || det.Algorithm != "none" {
		t.Fatalf("single stop must come back unchanged: %v %+v", route, det)
	}
}

func TestSequenceNearestNeighborSeed(t *testing.T) {
	// Line topology 0-1-2-3: NN from 0 should walk the line in order.
	m := minuteMatrix([][]float64{
		{0, 10, 20, 30},
		{10, 0, 10, 20},
		{20, 10, 0, 10},
		{30, 20, 10, 0},
	})
	route, det := Sequence([]int{2, 0, 3, 1}, m, 0)
	if !reflect.DeepEqual(route, []int{0, 1, 2, 3}) {
		t.Fatalf("route %v, want [0 1 2 3]", route)
	}
	if det.OptimizedTravelMin != 30 {
		t.Fatalf("optimized travel %v, want 30", det.OptimizedTravelMin)
	}
}

func TestSequenceStartIndexNotSelected(t *testing.T) {
	m := minuteMatrix([][]float64{
		{0, 10, 20},
		{10, 0, 5},
		{20, 5, 0},
	})
	// Start index 0 is not in the subset; sequencing starts at the
	// first selected place instead.
	route, _ := Sequence([]int{1, 2}, m, 0)
	if !reflect.DeepEqual(route, []int{1, 2}) {
		t.Fatalf("route %v, want [1 2]", route)
	}
}

func TestSequenceTwoOptImproves(t *testing.T) {
	// Nearest-neighbor walks into the expensive 2->3 leg
	// (0->1->2->3, 53 min); reversing [1,3) yields 0->2->1->3 (9 min).
	m := minuteMatrix([][]float64{
		{0, 1, 3, 40},
		{1, 0, 2, 4},
		{3, 2, 0, 50},
		{40, 4, 50, 0},
	})
	route, det := Sequence([]int{0, 1, 2, 3}, m, 0)
	if !reflect.DeepEqual(route, []int{0, 2, 1, 3}) {
		t.Fatalf("route %v, want [0 2 1 3]", route)
	}
	if det.InitialTravelMin != 53 || det.OptimizedTravelMin != 9 {
		t.Fatalf("travel times %v -> %v, want 53 -> 9", det.InitialTravelMin, det.OptimizedTravelMin)
	}
	if det.OptimizedTravelMin > det.InitialTravelMin {
		t.Fatalf("2-opt worsened the route: %v -> %v", det.InitialTravelMin, det.OptimizedTravelMin)
	}
	if got := m.PathTime(route); got != det.OptimizedTravelMin {
		t.Fatalf("details disagree with route: %v vs %v", det.OptimizedTravelMin, got)
	}
	if det.ImprovementPct <= 0 {
		t.Fatalf("expected positive improvement, got %v", det.ImprovementPct)
	}
}

func TestSequenceUnreachableAppendedInOrder(t *testing.T) {
	// Place 2 is cut off entirely; it must end up appended, and the
	// sequencer must not abort.
	m := minuteMatrix([][]float64{
		{0, 5, -1},
		{5, 0, -1},
		{-1, -1, 0},
	})
	route, det := Sequence([]int{0, 1, 2}, m, 0)
	if !reflect.DeepEqual(route, []int{0, 1, 2}) {
		t.Fatalf("route %v, want [0 1 2]", route)
	}
	if !math.IsInf(det.OptimizedTravelMin, 1) {
		t.Fatalf("unreachable leg should keep the total infinite, got %v", det.OptimizedTravelMin)
	}
	if det.ImprovementPct != 0 {
		t.Fatalf("improvement over an infinite seed should be 0, got %v", det.ImprovementPct)
	}
}

func TestPathTime(t *testing.T) {
	m := minuteMatrix([][]float64{{0, 7, -1}, {7, 0, 3}, {-1, 3, 0}})
	if got := m.PathTime([]int{0, 1, 2}); got != 10 {
		t.Fatalf("path time %v, want 10", got)
	}
	if got := m.PathTime([]int{0, 2}); !math.IsInf(got, 1) {
		t.Fatalf("unreachable leg should be infinite, got %v", got)
	}
	if got := m.PathTime([]int{1}); got != 0 {
		t.Fatalf("single stop path time %v", got)
	}
}

func TestMatrixValidate(t *testing.T) {
	m := minuteMatrix([][]float64{{0, 1}, {1, 0}})
	if err := m.Validate(2); err != nil {
		t.Fatalf("square matrix rejected: %v", err)
	}
	if err := m.Validate(3); err == nil {
		t.Fatal("row-count mismatch accepted")
	}
	ragged := Matrix{{Leg{}, Leg{}}, {Leg{}}}
	if err := ragged.Validate(2); err == nil {
		t.Fatal("ragged matrix accepted")
	}
}
