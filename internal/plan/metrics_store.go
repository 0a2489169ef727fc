package plan

import "sync"

// Metrics summarizes one planning run for diagnostics.
type Metrics struct {
	Strategy       string  `json:"strategy"`
	Candidates     int     `json:"candidates"`
	Selected       int     `json:"selected"`
	Iterations     int     `json:"iterations"`
	TimeUsedMin    float64 `json:"timeUsedMin"`
	TotalScore     float64 `json:"totalScore"`
	ImprovementPct float64 `json:"improvementPct"`
	Passes         int     `json:"passes"`
}

type metricsKey struct {
	Tenant   string
	PlanID   string
	Strategy string
}

// MetricsRecorder keeps run metrics for live plans. The planning
// pipeline itself holds no state between runs; the recorder belongs to
// whoever owns the plans and rows are dropped alongside them.
type MetricsRecorder struct {
	mu   sync.Mutex
	rows map[metricsKey]Metrics
}

func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{rows: map[metricsKey]Metrics{}}
}

// Record stores run metrics keyed by tenant, plan, and strategy.
func (r *MetricsRecorder) Record(tenant, planID, strategy string, m Metrics) {
	r.mu.Lock()
	r.rows[metricsKey{Tenant: tenant, PlanID: planID, Strategy: strategy}] = m
	r.mu.Unlock()
}

// Get returns all recorded metrics for a plan, keyed by strategy.
func (r *MetricsRecorder) Get(tenant, planID string) map[string]Metrics {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]Metrics{}
	for k, v := range r.rows {
		if k.Tenant == tenant && k.PlanID == planID {
			out[k.Strategy] = v
		}
	}
	return out
}

// Drop removes every row for a plan, across strategies.
func (r *MetricsRecorder) Drop(tenant, planID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.rows {
		if k.Tenant == tenant && k.PlanID == planID {
			delete(r.rows, k)
		}
	}
}

// MetricsFromResult derives run metrics from a finished result.
func MetricsFromResult(candidates int, r Result) Metrics {
	return Metrics{
		Strategy:       r.Selection.Strategy,
		Candidates:     candidates,
		Selected:       len(r.Selection.Indices),
		Iterations:     len(r.Selection.Log),
		TimeUsedMin:    r.Selection.TimeUsedMin,
		TotalScore:     r.Selection.TotalScore,
		ImprovementPct: r.Details.ImprovementPct,
		Passes:         r.Details.Passes,
	}
}
