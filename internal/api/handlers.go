package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tourplan/internal/metrics"
	"tourplan/internal/model"
	"tourplan/internal/plan"
	"tourplan/internal/store"
	"tourplan/internal/webhooks"
)

// runPlan executes the optimizer for a validated request and returns the
// scored candidates alongside the result.
func (s *Server) runPlan(req model.PlanRequest) ([]*plan.Place, plan.Result, error) {
	places := req.BuildPlaces()
	m, err := req.BuildMatrix(places)
	if err != nil {
		return nil, plan.Result{}, err
	}
	prefs, err := req.Prefs.BuildPreferences()
	if err != nil {
		return nil, plan.Result{}, err
	}
	res, err := plan.Run(places, m, prefs, plan.Params{
		BudgetMin:  req.BudgetMin,
		StartIndex: req.StartIndex,
		TopK:       req.TopK,
		Strategy:   req.Strategy,
	})
	if err != nil {
		return nil, plan.Result{}, err
	}
	return places, res, nil
}

// PlansHandler handles POST/GET /v1/plans
func (s *Server) PlansHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		p := s.getPrincipal(r)
		if !p.CanPlan() { writeProblem(w, 403, "Forbidden", "planner or admin required", r.URL.Path); return }
		var req model.PlanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if err := validatePlanRequest(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid plan request", err.Error(), r.URL.Path)
			return
		}
		if req.TenantID == "" { req.TenantID = p.Tenant }
		strategy := req.Strategy
		if strategy == "" { strategy = plan.StrategyGreedy }
		start := time.Now()
		places, res, err := s.runPlan(req)
		if err != nil {
			metrics.PlansTotal.WithLabelValues(strategy, "error").Inc()
			writeProblem(w, http.StatusBadRequest, "Planning failed", err.Error(), r.URL.Path)
			return
		}
		metrics.PlansTotal.WithLabelValues(strategy, "ok").Inc()
		metrics.PlanDuration.WithLabelValues(strategy).Observe(time.Since(start).Seconds())
		metrics.PlanImprovement.Observe(res.Details.ImprovementPct)
		metrics.PlanStops.Observe(float64(len(res.Route)))

		style := ""
		if req.Prefs != nil { style = req.Prefs.Style }
		saved, err := s.Store.SavePlan(r.Context(), model.Plan{
			TenantID:  req.TenantID,
			Status:    "completed",
			Strategy:  res.Selection.Strategy,
			BudgetMin: req.BudgetMin,
			Style:     style,
			Stops:     model.StopsFromResult(res, places),
			Result:    res,
		})
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Save plan failed", err.Error(), r.URL.Path)
			return
		}
		met := plan.MetricsFromResult(len(places), res)
		s.Recorder.Record(saved.TenantID, saved.ID, met.Strategy, met)
		_ = s.Store.SavePlanMetrics(r.Context(), saved.TenantID, saved.ID, met)

		data := map[string]any{
			"planId":     saved.ID,
			"strategy":   saved.Strategy,
			"stops":      len(saved.Stops),
			"totalScore": res.Selection.TotalScore,
			"ts":         saved.CreatedAt,
		}
		s.Pub.Emit(r.Context(), saved.TenantID, webhooks.EventPlanCompleted, data)
		s.Broker.Publish(saved.ID, SSEEvent{Type: webhooks.EventPlanCompleted, Data: data})
		writeJSON(w, http.StatusCreated, saved)
	case http.MethodGet:
		p := s.getPrincipal(r)
		strategy := r.URL.Query().Get("strategy")
		cursor := r.URL.Query().Get("cursor")
		limit := 100
		if v := r.URL.Query().Get("limit"); v != "" { fmt.Sscanf(v, "%d", &limit) }
		items, next, err := s.Store.ListPlans(r.Context(), p.Tenant, strategy, cursor, limit)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List plans failed", err.Error(), r.URL.Path)
			return
		}
		if items == nil { items = []model.Plan{} }
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// PlanByIDHandler handles /v1/plans/{id}, /v1/plans/{id}/events/stream,
// and /v1/plans/{id}/metrics.
func (s *Server) PlanByIDHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	rest := strings.TrimPrefix(path, "/v1/plans/")
	if rest == path || rest == "" {
		writeProblem(w, http.StatusNotFound, "Not Found", "missing id", path)
		return
	}
	parts := strings.Split(rest, "/")
	id := parts[0]
	if len(parts) > 1 && parts[1] == "events" && len(parts) > 2 && parts[2] == "stream" {
		s.streamPlanEvents(w, r, id)
		return
	}
	if len(parts) > 1 && parts[1] == "metrics" {
		if r.Method != http.MethodGet { w.WriteHeader(http.StatusMethodNotAllowed); return }
		p := s.getPrincipal(r)
		strategy := r.URL.Query().Get("strategy")
		items, err := s.Store.ListPlanMetrics(r.Context(), p.Tenant, id, strategy)
		if err != nil || len(items) == 0 {
			// fall back to the in-process recorder
			items = items[:0]
			for st, m := range s.Recorder.Get(p.Tenant, id) {
				if strategy != "" && st != strategy { continue }
				items = append(items, m)
			}
		}
		writeJSON(w, 200, map[string]any{"items": items})
		return
	}
	switch r.Method {
	case http.MethodGet:
		p := s.getPrincipal(r)
		pl, err := s.Store.GetPlan(r.Context(), p.Tenant, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeProblem(w, http.StatusNotFound, "Plan not found", "", r.URL.Path)
				return
			}
			writeProblem(w, http.StatusInternalServerError, "Get plan failed", err.Error(), r.URL.Path)
			return
		}
		// Optional slimming of the itinerary payload
		if inc := r.URL.Query().Get("includeItinerary"); strings.EqualFold(inc, "false") || inc == "0" {
			pl.Result.Itinerary = nil
		}
		writeJSON(w, http.StatusOK, pl)
	case http.MethodDelete:
		p := s.getPrincipal(r)
		if !p.CanPlan() { writeProblem(w, 403, "Forbidden", "planner or admin required", r.URL.Path); return }
		if err := s.Store.DeletePlan(r.Context(), p.Tenant, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeProblem(w, http.StatusNotFound, "Plan not found", "", r.URL.Path)
				return
			}
			writeProblem(w, http.StatusInternalServerError, "Delete plan failed", err.Error(), r.URL.Path)
			return
		}
		s.Recorder.Drop(p.Tenant, id)
		s.Pub.Emit(r.Context(), p.Tenant, webhooks.EventPlanDeleted, map[string]any{"planId": id, "ts": time.Now().UTC().Format(time.RFC3339)})
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// streamPlanEvents serves SSE for plan events.
func (s *Server) streamPlanEvents(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet { w.WriteHeader(http.StatusMethodNotAllowed); return }
	flusher, ok := w.(http.Flusher)
	if !ok { writeProblem(w, 500, "Streaming unsupported", "", r.URL.Path); return }
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	ch := s.Broker.Subscribe(id)
	defer s.Broker.Unsubscribe(id, ch)
	// initial heartbeat
	fmt.Fprintf(w, "event: heartbeat\n")
	fmt.Fprintf(w, "data: {\"planId\":\"%s\",\"ts\":\"%s\"}\n\n", id, time.Now().Format(time.RFC3339))
	flusher.Flush()
	notify := r.Context().Done()
	for {
		select {
		case <-notify:
			return
		case evt := <-ch:
			b, _ := json.Marshal(evt.Data)
			fmt.Fprintf(w, "event: %s\n", evt.Type)
			fmt.Fprintf(w, "data: %s\n\n", string(b))
			flusher.Flush()
		case <-time.After(15 * time.Second):
			fmt.Fprintf(w, "event: heartbeat\n")
			fmt.Fprintf(w, "data: {\"planId\":\"%s\",\"ts\":\"%s\"}\n\n", id, time.Now().Format(time.RFC3339))
			flusher.Flush()
		}
	}
}

// CompareHandler handles POST /v1/plans/compare: the same inputs are
// planned once per preset style and the outcomes ranked by total score.
func (s *Server) CompareHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/v1/plans/compare" || r.Method != http.MethodPost {
		writeProblem(w, 404, "Not Found", "", r.URL.Path)
		return
	}
	p := s.getPrincipal(r)
	if !p.CanPlan() { writeProblem(w, 403, "Forbidden", "planner or admin required", r.URL.Path); return }
	var req model.PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validatePlanRequest(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid plan request", err.Error(), r.URL.Path)
		return
	}
	out := model.CompareResponse{Styles: []model.StyleComparison{}}
	best := ""
	bestScore := -1.0
	for _, style := range plan.Styles {
		if style == plan.StyleCustom { continue }
		trial := req
		prefs := model.PreferencesIn{}
		if req.Prefs != nil { prefs = *req.Prefs }
		prefs.Style = string(style)
		trial.Prefs = &prefs
		_, res, err := s.runPlan(trial)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Planning failed", err.Error(), r.URL.Path)
			return
		}
		out.Styles = append(out.Styles, model.StyleComparison{
			Style:          string(style),
			Selected:       len(res.Selection.Indices),
			TotalScore:     res.Selection.TotalScore,
			TimeUsedMin:    res.Selection.TimeUsedMin,
			TimeEfficiency: res.Stats.TimeEfficiency,
		})
		if res.Selection.TotalScore > bestScore {
			bestScore = res.Selection.TotalScore
			best = string(style)
		}
	}
	out.BestStyle = best
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) SubscriptionsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		p := s.getPrincipal(r)
		if !p.IsAdmin() { writeProblem(w, 403, "Forbidden", "admin required", r.URL.Path); return }
		var req model.SubscriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if req.URL == "" || len(req.Events) == 0 {
			writeProblem(w, http.StatusBadRequest, "Invalid subscription", "url and events required", r.URL.Path)
			return
		}
		if req.TenantID == "" { req.TenantID = p.Tenant }
		sub, err := s.Store.CreateSubscription(r.Context(), req)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Create subscription failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusCreated, sub)
	case http.MethodGet:
		p := s.getPrincipal(r)
		if !p.IsAdmin() { writeProblem(w, 403, "Forbidden", "admin required", r.URL.Path); return }
		cursor := r.URL.Query().Get("cursor")
		limit := 100
		if v := r.URL.Query().Get("limit"); v != "" { fmt.Sscanf(v, "%d", &limit) }
		items, next, err := s.Store.ListSubscriptions(r.Context(), p.Tenant, cursor, limit)
		if err != nil { writeProblem(w, 500, "List subscriptions failed", err.Error(), r.URL.Path); return }
		if items == nil { items = []model.Subscription{} }
		writeJSON(w, 200, map[string]any{"items": items, "nextCursor": next})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// Subscription delete (admin)
func (s *Server) SubscriptionByIDHandler(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, "/v1/subscriptions/") { writeProblem(w, 404, "Not Found", "", r.URL.Path); return }
	if r.Method != http.MethodDelete { w.WriteHeader(405); return }
	p := s.getPrincipal(r)
	if !p.IsAdmin() { writeProblem(w, 403, "Forbidden", "admin required", r.URL.Path); return }
	id := strings.TrimPrefix(r.URL.Path, "/v1/subscriptions/")
	if err := s.Store.DeleteSubscription(r.Context(), p.Tenant, id); err != nil { writeProblem(w, 500, "Delete subscription failed", err.Error(), r.URL.Path); return }
	w.WriteHeader(204)
}

// Admin: webhook deliveries list and retry
func (s *Server) WebhookDeliveriesHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/v1/admin/webhook-deliveries" { writeProblem(w, 404, "Not Found", "", r.URL.Path); return }
	p := s.getPrincipal(r)
	if !p.IsAdmin() { writeProblem(w, 403, "Forbidden", "admin required", r.URL.Path); return }
	if r.Method != http.MethodGet { w.WriteHeader(405); return }
	status := r.URL.Query().Get("status")
	cursor := r.URL.Query().Get("cursor")
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" { fmt.Sscanf(v, "%d", &limit) }
	items, next, err := s.Store.ListWebhookDeliveries(r.Context(), p.Tenant, status, cursor, limit)
	if err != nil { writeProblem(w, 500, "List deliveries failed", err.Error(), r.URL.Path); return }
	writeJSON(w, 200, map[string]any{"items": items, "nextCursor": next})
}

func (s *Server) WebhookDeliveryRetryHandler(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, "/v1/admin/webhook-deliveries/") || !strings.HasSuffix(r.URL.Path, "/retry") { writeProblem(w, 404, "Not Found", "", r.URL.Path); return }
	if r.Method != http.MethodPost { w.WriteHeader(405); return }
	p := s.getPrincipal(r)
	if !p.IsAdmin() { writeProblem(w, 403, "Forbidden", "admin required", r.URL.Path); return }
	id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/admin/webhook-deliveries/"), "/retry")
	if err := s.Store.RetryWebhookDelivery(r.Context(), p.Tenant, id); err != nil { writeProblem(w, 500, "Retry delivery failed", err.Error(), r.URL.Path); return }
	writeJSON(w, 202, map[string]int{"accepted": 1})
}

// Admin: webhook DLQ list and requeue
func (s *Server) WebhookDLQHandler(w http.ResponseWriter, r *http.Request) {
	p := s.getPrincipal(r)
	if !p.IsAdmin() { writeProblem(w, 403, "Forbidden", "admin required", r.URL.Path); return }
	if r.URL.Path == "/v1/admin/webhook-dlq" && r.Method == http.MethodGet {
		cursor := r.URL.Query().Get("cursor")
		limit := 100
		if v := r.URL.Query().Get("limit"); v != "" { fmt.Sscanf(v, "%d", &limit) }
		eventType := r.URL.Query().Get("eventType")
		items, next, err := s.Store.ListWebhookDLQ(r.Context(), p.Tenant, eventType, cursor, limit)
		if err != nil { writeProblem(w, 500, "List DLQ failed", err.Error(), r.URL.Path); return }
		writeJSON(w, 200, map[string]any{"items": items, "nextCursor": next})
		return
	}
	if strings.HasPrefix(r.URL.Path, "/v1/admin/webhook-dlq/") && strings.HasSuffix(r.URL.Path, "/requeue") && r.Method == http.MethodPost {
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/admin/webhook-dlq/"), "/requeue")
		if err := s.Store.RequeueWebhookDLQ(r.Context(), p.Tenant, id); err != nil { writeProblem(w, 500, "Requeue failed", err.Error(), r.URL.Path); return }
		writeJSON(w, 202, map[string]int{"accepted": 1})
		return
	}
	writeProblem(w, 404, "Not Found", "", r.URL.Path)
}

// Admin: aggregate plan stats for a tenant
func (s *Server) PlanStatsHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/v1/admin/plans/stats" || r.Method != http.MethodGet { writeProblem(w, 404, "Not Found", "", r.URL.Path); return }
	p := s.getPrincipal(r)
	if !p.IsAdmin() { writeProblem(w, 403, "Forbidden", "admin required", r.URL.Path); return }
	stats, err := s.Store.PlanStats(r.Context(), p.Tenant)
	if err != nil { writeProblem(w, 500, "Stats failed", err.Error(), r.URL.Path); return }
	writeJSON(w, 200, stats)
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	// Check DB connectivity when using Postgres store
	type pinger interface{ Ping(ctx context.Context) error }
	if pg, ok := s.Store.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := pg.Ping(ctx); err != nil { writeProblem(w, 503, "Not Ready", err.Error(), r.URL.Path); return }
	}
	writeJSON(w, 200, map[string]string{"status": "ready"})
}
