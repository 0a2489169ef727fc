package api

import (
	"fmt"

	"tourplan/internal/model"
	"tourplan/internal/plan"
)

func validatePlanRequest(req *model.PlanRequest) error {
	if req.Strategy != "" && req.Strategy != plan.StrategyGreedy && req.Strategy != plan.StrategyDP {
		return fmt.Errorf("invalid strategy: %s", req.Strategy)
	}
	if req.BudgetMin < 0 {
		return fmt.Errorf("budgetMin must be >= 0")
	}
	if req.BudgetMin > plan.MaxBudgetMin {
		return fmt.Errorf("budgetMin must be <= %d", plan.MaxBudgetMin)
	}
	if len(req.Places) == 0 {
		return fmt.Errorf("places must not be empty")
	}
	if req.StartIndex < 0 || req.StartIndex >= len(req.Places) {
		return fmt.Errorf("startIndex out of range: %d", req.StartIndex)
	}
	if req.TopK < 0 {
		return fmt.Errorf("topK must be >= 0")
	}
	if req.SpeedKph < 0 {
		return fmt.Errorf("speedKph must be >= 0")
	}
	if len(req.Matrix) > 0 && len(req.Matrix) != len(req.Places) {
		return fmt.Errorf("matrix must have one row per place; got %d rows for %d places", len(req.Matrix), len(req.Places))
	}
	if req.Prefs != nil {
		if _, err := plan.ParseStyle(req.Prefs.Style); err != nil {
			return err
		}
		for name, w := range req.Prefs.Categories {
			if w < 0 || w > 1 {
				return fmt.Errorf("category weight %s must be in [0,1]", name)
			}
		}
	}
	for i, p := range req.Places {
		if p.Name == "" {
			return fmt.Errorf("place %d is missing a name", i)
		}
		if p.Rating < 0 || p.Rating > 5 {
			return fmt.Errorf("place %d rating must be in [0,5]", i)
		}
	}
	return nil
}
