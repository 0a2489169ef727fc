package plan

// Selection strategies. Both answer "which places fit the budget", but
// they optimize different relaxations: the DP strategy is exact for the
// visit-time-only problem and ignores travel entirely; the greedy
// strategy amortizes travel cost per pick from the traveler's current
// position. They are kept as distinct, separately labeled strategies.
const (
	StrategyGreedy = "greedy"
	StrategyDP     = "dp"
)

// MaxBudgetMin caps the time budget at one week of minutes. The DP
// table is budget-wide, so the budget bounds the allocation; anything
// longer than a week is not a single tour.
const MaxBudgetMin = 10080

// SelectionStep records one greedy pick for diagnostic reproducibility.
type SelectionStep struct {
	Iteration    int     `json:"iteration"`
	Index        int     `json:"index"`
	Name         string  `json:"name"`
	Composite    float64 `json:"compositeScore"`
	Efficiency   float64 `json:"efficiencyScore"`
	TimeNeeded   float64 `json:"timeNeededMin"`
	RemainingMin float64 `json:"remainingMin"`
}

// Selection is the outcome of a budget-constrained pick.
type Selection struct {
	Strategy      string          `json:"strategy"`
	Indices       []int           `json:"indices"` // candidate-list indices, in pick order
	TotalScore    float64         `json:"totalScore"`
	TimeUsedMin   float64         `json:"timeUsedMin"`
	RemainingMin  float64         `json:"remainingMin"`
	FinalLocation int             `json:"finalLocation"`
	Log           []SelectionStep `json:"log,omitempty"`
}

// SelectGreedy runs the position-aware greedy selection. The traveler
// starts at startIndex; each iteration scores every unselected place by
// composite_score / (travel from current position + visit time), keeps
// only those fitting the remaining budget, and commits the most
// efficient one. Ties break toward the earlier candidate index, so the
// pick sequence is fully deterministic. Empty input or a non-positive
// budget yields an empty selection, not an error.
func SelectGreedy(places []*Place, m Matrix, budgetMin int, startIndex int) Selection {
	sel := Selection{Strategy: StrategyGreedy, Indices: []int{}, FinalLocation: startIndex}
	if len(places) == 0 || budgetMin <= 0 {
		return sel
	}

	selected := make([]bool, len(places))
	current := startIndex
	remaining := float64(budgetMin)

	for iteration := 1; ; iteration++ {
		bestIdx := -1
		bestEff := -1.0
		bestTime := 0.0

		for i, p := range places {
			if selected[i] {
				continue
			}
			needed := m.Time(current, i) + float64(p.VisitTime)
			if needed > remaining {
				continue
			}
			eff := p.CompositeScore / needed
			if eff > bestEff {
				bestEff = eff
				bestIdx = i
				bestTime = needed
			}
		}
		if bestIdx < 0 {
			break
		}

		selected[bestIdx] = true
		sel.Indices = append(sel.Indices, bestIdx)
		sel.TotalScore += places[bestIdx].CompositeScore
		remaining -= bestTime
		current = bestIdx

		sel.Log = append(sel.Log, SelectionStep{
			Iteration:    iteration,
			Index:        bestIdx,
			Name:         places[bestIdx].Name,
			Composite:    places[bestIdx].CompositeScore,
			Efficiency:   bestEff,
			TimeNeeded:   bestTime,
			RemainingMin: remaining,
		})
	}

	sel.TimeUsedMin = float64(budgetMin) - remaining
	sel.RemainingMin = remaining
	sel.FinalLocation = current
	return sel
}

// SelectDP runs the classic 0/1 knapsack over visit time as weight and
// composite score as value, ignoring travel between picks. Exact for
// that relaxation, used as a comparison baseline. The table is a flat
// (n+1) x (budget+1) arena; the subset is recovered by walking the table
// backward, never recursively.
func SelectDP(places []*Place, budgetMin int) Selection {
	sel := Selection{Strategy: StrategyDP, Indices: []int{}, FinalLocation: -1}
	n := len(places)
	if n == 0 || budgetMin <= 0 {
		return sel
	}
	if budgetMin > MaxBudgetMin {
		budgetMin = MaxBudgetMin
	}

	cols := budgetMin + 1
	table := make([]float64, (n+1)*cols)
	at := func(i, b int) float64 { return table[i*cols+b] }

	for i := 1; i <= n; i++ {
		w := places[i-1].VisitTime
		v := places[i-1].CompositeScore
		for b := 0; b <= budgetMin; b++ {
			best := at(i-1, b)
			if w <= b {
				if take := at(i-1, b-w) + v; take > best {
					best = take
				}
			}
			table[i*cols+b] = best
		}
	}

	// Backward reconstruction: a row differing from the one above means
	// item i-1 was taken at this budget.
	b := budgetMin
	for i := n; i >= 1; i-- {
		if at(i, b) != at(i-1, b) {
			idx := i - 1
			sel.Indices = append(sel.Indices, idx)
			sel.TotalScore += places[idx].CompositeScore
			sel.TimeUsedMin += float64(places[idx].VisitTime)
			b -= places[idx].VisitTime
		}
	}
	// Reverse into candidate-list order.
	for i, j := 0, len(sel.Indices)-1; i < j; i, j = i+1, j-1 {
		sel.Indices[i], sel.Indices[j] = sel.Indices[j], sel.Indices[i]
	}
	sel.RemainingMin = float64(budgetMin) - sel.TimeUsedMin
	return sel
}
