package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"tourplan/internal/model"
	"tourplan/internal/plan"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
	mu         sync.Mutex
	plans      map[string]model.Plan           // id -> plan
	plansByTen map[string][]string             // tenant -> plan ids, insertion order
	subs       map[string][]model.Subscription // tenant -> subscriptions
	// Webhooks queue state
	deliveries         map[string]*memDelivery // id -> delivery state
	deliveriesByTenant map[string][]string     // tenant -> delivery ids
	dlq                []map[string]any        // dead-lettered deliveries
	planMx             map[string]map[string][]plan.Metrics // tenant -> planID -> rows
}

func NewMemory() *Memory {
	return &Memory{
		plans:              map[string]model.Plan{},
		plansByTen:         map[string][]string{},
		subs:               map[string][]model.Subscription{},
		deliveries:         map[string]*memDelivery{},
		deliveriesByTenant: map[string][]string{},
		dlq:                []map[string]any{},
		planMx:             map[string]map[string][]plan.Metrics{},
	}
}

// memDelivery augments WebhookDelivery with scheduling/metrics
type memDelivery struct {
	WebhookDelivery
	NextAttemptAt time.Time
	LastError     string
	ResponseCode  int
	LatencyMs     int
	DeliveredAt   *time.Time
}

func (m *Memory) SavePlan(ctx context.Context, p model.Plan) (model.Plan, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	if p.ID == "" { p.ID = uuid.New().String() }
	if p.CreatedAt == "" { p.CreatedAt = time.Now().UTC().Format(time.RFC3339) }
	if _, exists := m.plans[p.ID]; !exists {
		m.plansByTen[p.TenantID] = append(m.plansByTen[p.TenantID], p.ID)
	}
	m.plans[p.ID] = p
	return p, nil
}

func (m *Memory) GetPlan(ctx context.Context, tenantID, planID string) (model.Plan, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	p, ok := m.plans[planID]
	if !ok || p.TenantID != tenantID { return model.Plan{}, ErrNotFound }
	return p, nil
}

func (m *Memory) ListPlans(ctx context.Context, tenantID, strategy, cursor string, limit int) ([]model.Plan, string, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	ids := m.plansByTen[tenantID]
	start := 0
	if cursor != "" {
		for i, id := range ids {
			if id == cursor { start = i + 1; break }
		}
	}
	if limit <= 0 { limit = 100 }
	out := []model.Plan{}
	var next string
	for i := start; i < len(ids) && len(out) < limit; i++ {
		p := m.plans[ids[i]]
		if strategy == "" || p.Strategy == strategy { out = append(out, p) }
		next = ids[i]
	}
	if len(out) < limit { next = "" }
	return out, next, nil
}

func (m *Memory) DeletePlan(ctx context.Context, tenantID, planID string) error {
	m.mu.Lock(); defer m.mu.Unlock()
	p, ok := m.plans[planID]
	if !ok || p.TenantID != tenantID { return ErrNotFound }
	delete(m.plans, planID)
	ids := m.plansByTen[tenantID]
	out := make([]string, 0, len(ids))
	for _, v := range ids { if v != planID { out = append(out, v) } }
	m.plansByTen[tenantID] = out
	if mx := m.planMx[tenantID]; mx != nil { delete(mx, planID) }
	return nil
}

func (m *Memory) PlanStats(ctx context.Context, tenantID string) (map[string]any, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	plans := 0
	stops := 0
	var score, travel float64
	for _, id := range m.plansByTen[tenantID] {
		p := m.plans[id]
		plans++
		stops += len(p.Stops)
		score += p.Result.Stats.TotalScore
		travel += p.Result.Stats.TotalTravelMin
	}
	avgStops := 0.0
	if plans > 0 { avgStops = float64(stops) / float64(plans) }
	return map[string]any{"plans": plans, "stops": stops, "totalScore": score, "totalTravelMin": travel, "avgStopsPerPlan": avgStops}, nil
}

func (m *Memory) SavePlanMetrics(ctx context.Context, tenantID, planID string, met plan.Metrics) error {
	m.mu.Lock(); defer m.mu.Unlock()
	if m.planMx[tenantID] == nil { m.planMx[tenantID] = map[string][]plan.Metrics{} }
	items := m.planMx[tenantID][planID]
	found := false
	for i := range items {
		if items[i].Strategy == met.Strategy { items[i] = met; found = true; break }
	}
	if !found { items = append(items, met) }
	m.planMx[tenantID][planID] = items
	return nil
}

func (m *Memory) ListPlanMetrics(ctx context.Context, tenantID, planID, strategy string) ([]plan.Metrics, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	items := m.planMx[tenantID][planID]
	if strategy == "" { return append([]plan.Metrics(nil), items...), nil }
	out := []plan.Metrics{}
	for _, it := range items { if it.Strategy == strategy { out = append(out, it) } }
	return out, nil
}

func (m *Memory) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	s := model.Subscription{ID: uuid.New().String(), TenantID: req.TenantID, URL: req.URL, Events: req.Events, Secret: req.Secret}
	m.subs[req.TenantID] = append(m.subs[req.TenantID], s)
	return s, nil
}

func (m *Memory) GetSubscriptionsForEvent(ctx context.Context, tenantID, eventType string) ([]model.Subscription, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	var out []model.Subscription
	for _, s := range m.subs[tenantID] {
		for _, e := range s.Events { if e == eventType { out = append(out, s); break } }
	}
	return out, nil
}

func (m *Memory) ListSubscriptions(ctx context.Context, tenantID, cursor string, limit int) ([]model.Subscription, string, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	list := m.subs[tenantID]
	start := 0
	if cursor != "" {
		for i := range list { if list[i].ID == cursor { start = i + 1; break } }
	}
	if limit <= 0 { limit = 100 }
	end := start + limit
	if end > len(list) { end = len(list) }
	items := append([]model.Subscription(nil), list[start:end]...)
	next := ""
	if end < len(list) { next = list[end-1].ID }
	return items, next, nil
}

func (m *Memory) DeleteSubscription(ctx context.Context, tenantID, id string) error {
	m.mu.Lock(); defer m.mu.Unlock()
	arr := m.subs[tenantID]
	out := make([]model.Subscription, 0, len(arr))
	for _, s := range arr { if s.ID != id { out = append(out, s) } }
	m.subs[tenantID] = out
	return nil
}

// Webhook deliveries
func (m *Memory) EnqueueWebhook(ctx context.Context, tenantID, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	id := uuid.New().String()
	d := &memDelivery{WebhookDelivery: WebhookDelivery{ID: id, TenantID: tenantID, SubscriptionID: subscriptionID, EventType: eventType, URL: url, Secret: secret, Payload: payload, Status: "pending", Attempts: 0}, NextAttemptAt: time.Now()}
	m.deliveries[id] = d
	m.deliveriesByTenant[tenantID] = append(m.deliveriesByTenant[tenantID], id)
	return id, nil
}

func (m *Memory) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	now := time.Now()
	out := []WebhookDelivery{}
	for _, id := range m.iterDeliveryIDs() {
		d := m.deliveries[id]
		if d == nil { continue }
		if (d.Status == "pending" || d.Status == "retry") && !d.NextAttemptAt.After(now) {
			out = append(out, d.WebhookDelivery)
			if limit > 0 && len(out) >= limit { break }
		}
	}
	return out, nil
}

func (m *Memory) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
	m.mu.Lock(); defer m.mu.Unlock()
	d := m.deliveries[id]
	if d == nil { return nil }
	d.Attempts++
	d.ResponseCode = responseCode
	d.LatencyMs = latencyMs
	if success {
		d.Status = "delivered"
		now := time.Now()
		d.DeliveredAt = &now
	} else {
		d.Status = "retry"
		d.LastError = lastError
		if nextAttemptAt != nil { d.NextAttemptAt = *nextAttemptAt } else { d.NextAttemptAt = time.Now().Add(1 * time.Minute) }
	}
	return nil
}

func (m *Memory) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
	m.mu.Lock(); defer m.mu.Unlock()
	d := m.deliveries[id]
	if d != nil { d.Status = "failed" }
	row := map[string]any{"id": id, "lastError": lastError, "responseCode": responseCode, "latencyMs": latencyMs}
	if d != nil { row["eventType"] = d.EventType; row["tenantId"] = d.TenantID }
	m.dlq = append(m.dlq, row)
	return nil
}

func (m *Memory) ListWebhookDeliveries(ctx context.Context, tenantID, status, cursor string, limit int) ([]map[string]any, string, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	out := []map[string]any{}
	for _, id := range m.deliveriesByTenant[tenantID] {
		d := m.deliveries[id]
		if d == nil { continue }
		if status == "" || d.Status == status {
			item := map[string]any{"id": d.ID, "eventType": d.EventType, "status": d.Status, "attempts": d.Attempts, "url": d.URL}
			if !d.NextAttemptAt.IsZero() { item["nextAttemptAt"] = d.NextAttemptAt }
			if d.LastError != "" { item["lastError"] = d.LastError }
			out = append(out, item)
		}
	}
	return out, "", nil
}

func (m *Memory) RetryWebhookDelivery(ctx context.Context, tenantID, id string) error {
	m.mu.Lock(); defer m.mu.Unlock()
	d := m.deliveries[id]
	if d != nil && d.TenantID == tenantID {
		d.Status = "pending"
		d.NextAttemptAt = time.Now()
	}
	return nil
}

func (m *Memory) ListWebhookDLQ(ctx context.Context, tenantID, eventType, cursor string, limit int) ([]map[string]any, string, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	out := []map[string]any{}
	for _, row := range m.dlq {
		if t, _ := row["tenantId"].(string); t != "" && t != tenantID { continue }
		if eventType != "" {
			if et, _ := row["eventType"].(string); et != eventType { continue }
		}
		out = append(out, row)
	}
	return out, "", nil
}

func (m *Memory) RequeueWebhookDLQ(ctx context.Context, tenantID, id string) error {
	m.mu.Lock(); defer m.mu.Unlock()
	for i, row := range m.dlq {
		if rid, _ := row["id"].(string); rid == id {
			if d := m.deliveries[id]; d != nil && d.TenantID == tenantID {
				d.Status = "pending"
				d.NextAttemptAt = time.Now()
			}
			m.dlq = append(m.dlq[:i], m.dlq[i+1:]...)
			break
		}
	}
	return nil
}

// helper: iterate delivery IDs by tenant order
func (m *Memory) iterDeliveryIDs() []string {
	ids := []string{}
	for _, lst := range m.deliveriesByTenant {
		ids = append(ids, lst...)
	}
	return ids
}
