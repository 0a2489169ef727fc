package plan

import (
	"fmt"
	"math"
)

// StatusOK marks a traversable matrix leg. Anything else is infinite cost.
const StatusOK = "OK"

// Leg is one cell of the pairwise travel matrix.
type Leg struct {
	Status      string
	DurationMin float64
	DistanceM   float64
}

// Matrix is a square travel-time matrix positionally coupled to the
// candidate list it was built from. Rows are origins, columns destinations.
type Matrix [][]Leg

// Validate fails when the matrix is not square with side n. A mismatched
// matrix is a programming error in the caller, never silently tolerated.
func (m Matrix) Validate(n int) error {
	if len(m) != n {
		return fmt.Errorf("travel matrix has %d rows, want %d", len(m), n)
	}
	for i, row := range m {
		if len(row) != n {
			return fmt.Errorf("travel matrix row %d has %d columns, want %d", i, len(row), n)
		}
	}
	return nil
}

// Time returns the travel time in minutes from one index to another, or
// +Inf when the leg is absent or not traversable. Indices outside the
// matrix are treated as unreachable.
func (m Matrix) Time(from, to int) float64 {
	if from < 0 || from >= len(m) || to < 0 || to >= len(m[from]) {
		return math.Inf(1)
	}
	leg := m[from][to]
	if leg.Status != StatusOK {
		return math.Inf(1)
	}
	return leg.DurationMin
}

// PathTime sums consecutive leg times along a route of matrix indices.
// Visit durations are excluded; unreachable legs propagate +Inf.
func (m Matrix) PathTime(route []int) float64 {
	total := 0.0
	for i := 0; i+1 < len(route); i++ {
		total += m.Time(route[i], route[i+1])
	}
	return total
}
