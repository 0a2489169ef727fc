package model

import "tourplan/internal/plan"

// Wire-level types for the planning API.

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PlaceIn is a candidate place as supplied by the caller. Candidate
// order is significant: the travel matrix is positionally coupled to it.
type PlaceIn struct {
	ID           string    `json:"id,omitempty"`
	Name         string    `json:"name"`
	Address      string    `json:"address,omitempty"`
	Location     *GeoPoint `json:"location,omitempty"`
	Rating       float64   `json:"rating,omitempty"`
	RatingsTotal int       `json:"ratingsTotal,omitempty"`
	Types        []string  `json:"types,omitempty"`
	VisitTimeMin int       `json:"visitTimeMin,omitempty"`
}

// TravelLegIn is one cell of the caller-supplied travel matrix.
type TravelLegIn struct {
	Status      string  `json:"status"`
	DurationMin float64 `json:"durationMin"`
	DistanceM   float64 `json:"distM,omitempty"`
}

// PreferencesIn carries the traveler's weighting configuration.
type PreferencesIn struct {
	Style            string             `json:"style,omitempty"`
	WeightRating     float64            `json:"weightRating,omitempty"`
	WeightPreference float64            `json:"weightPreference,omitempty"`
	WeightTravel     float64            `json:"weightTravel,omitempty"`
	Categories       map[string]float64 `json:"categories,omitempty"`
}

// PlanRequest is the body of POST /v1/plans.
type PlanRequest struct {
	TenantID   string          `json:"tenantId,omitempty"`
	Strategy   string          `json:"strategy,omitempty"` // greedy (default) or dp
	BudgetMin  int             `json:"budgetMin"`
	StartIndex int             `json:"startIndex,omitempty"`
	TopK       int             `json:"topK,omitempty"`
	SpeedKph   float64         `json:"speedKph,omitempty"` // synthetic matrix fallback
	Prefs      *PreferencesIn  `json:"preferences,omitempty"`
	Places     []PlaceIn       `json:"places"`
	Matrix     [][]TravelLegIn `json:"matrix,omitempty"`
}

// PlanStop is one ordered stop of a finished plan.
type PlanStop struct {
	Index          int      `json:"index"`
	ID             string   `json:"id,omitempty"`
	Name           string   `json:"name"`
	Address        string   `json:"address,omitempty"`
	Rating         float64  `json:"rating"`
	VisitTimeMin   int      `json:"visitTimeMin"`
	CompositeScore float64  `json:"compositeScore"`
	TravelPenalty  float64  `json:"travelPenalty"`
	Categories     []string `json:"categories,omitempty"`
}

// Plan is a stored planning result.
type Plan struct {
	ID        string      `json:"id"`
	TenantID  string      `json:"tenantId"`
	Status    string      `json:"status"`
	CreatedAt string      `json:"createdAt"`
	Strategy  string      `json:"strategy"`
	BudgetMin int         `json:"budgetMin"`
	Style     string      `json:"style"`
	Stops     []PlanStop  `json:"stops"`
	Result    plan.Result `json:"result"`
}

// StyleComparison reports how one preset style performed on the same inputs.
type StyleComparison struct {
	Style          string  `json:"style"`
	Selected       int     `json:"selected"`
	TotalScore     float64 `json:"totalScore"`
	TimeUsedMin    float64 `json:"timeUsedMin"`
	TimeEfficiency float64 `json:"timeEfficiency"`
}

// CompareResponse is the body of POST /v1/plans/compare.
type CompareResponse struct {
	Styles    []StyleComparison `json:"styles"`
	BestStyle string            `json:"bestStyle"`
}

// Webhook subscriptions.

type SubscriptionRequest struct {
	TenantID string   `json:"tenantId"`
	URL      string   `json:"url"`
	Events   []string `json:"events"`
	Secret   string   `json:"secret"`
}

type Subscription struct {
	ID       string   `json:"id"`
	TenantID string   `json:"tenantId"`
	URL      string   `json:"url"`
	Events   []string `json:"events"`
	Secret   string   `json:"secret,omitempty"`
}
