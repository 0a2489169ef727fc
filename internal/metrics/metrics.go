package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the API
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// PlansTotal counts planning runs by strategy and outcome
	PlansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "plans_total", Help: "Planning runs by strategy and outcome."},
		[]string{"strategy", "outcome"},
	)
	// PlanDuration records optimizer wall time in seconds
	PlanDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "plan_duration_seconds", Help: "Optimizer run duration in seconds.", Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5}},
		[]string{"strategy"},
	)
	// PlanImprovement tracks the travel time improvement from sequencing
	PlanImprovement = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "plan_route_improvement_pct", Help: "Route improvement from sequencing in percent.", Buckets: []float64{0, 1, 2, 5, 10, 20, 40, 80}},
	)
	// PlanStops tracks how many stops end up in a finished plan
	PlanStops = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "plan_stops", Help: "Stops per finished plan.", Buckets: []float64{1, 2, 4, 6, 8, 12, 16, 24}},
	)

	// WebhookDeliveries counts webhook delivery outcomes by event type and status
	WebhookDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "webhook_deliveries_total", Help: "Webhook deliveries by event type and status."},
		[]string{"event_type", "status"},
	)
	// WebhookLatency tracks webhook delivery latencies in milliseconds
	WebhookLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "webhook_delivery_latency_ms", Help: "Webhook delivery latency in ms.", Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000}},
		[]string{"event_type", "status"},
	)
)

// RegisterDefault registers collectors on the dedicated registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(PlansTotal)
		Registry.MustRegister(PlanDuration)
		Registry.MustRegister(PlanImprovement)
		Registry.MustRegister(PlanStops)
		Registry.MustRegister(WebhookDeliveries)
		Registry.MustRegister(WebhookLatency)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
