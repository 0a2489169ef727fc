package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"tourplan/internal/model"
	"tourplan/internal/plan"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// MigrateDir applies every .sql file in dir in lexical order.
func (p *Postgres) MigrateDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil { return err }
	names := []string{}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") { names = append(names, e.Name()) }
	}
	sort.Strings(names)
	for _, n := range names {
		b, err := os.ReadFile(filepath.Join(dir, n))
		if err != nil { return err }
		if _, err := p.db.Exec(string(b)); err != nil { return err }
	}
	return nil
}

// SavePlan upserts a finished plan with its stops and full result document.
func (p *Postgres) SavePlan(ctx context.Context, pl model.Plan) (model.Plan, error) {
	if pl.ID == "" { pl.ID = uuid.New().String() }
	if pl.CreatedAt == "" { pl.CreatedAt = time.Now().UTC().Format(time.RFC3339) }
	stops, _ := json.Marshal(pl.Stops)
	result, _ := json.Marshal(pl.Result)
	_, err := p.db.ExecContext(ctx, `INSERT INTO plans (id, tenant_id, status, created_at, strategy, style, budget_min, stops, result)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO UPDATE SET status=$3, strategy=$5, style=$6, budget_min=$7, stops=$8, result=$9`,
		pl.ID, pl.TenantID, pl.Status, pl.CreatedAt, pl.Strategy, nullIfEmpty(pl.Style), pl.BudgetMin, stops, result)
	if err != nil { return model.Plan{}, err }
	return pl, nil
}

func (p *Postgres) GetPlan(ctx context.Context, tenantID, planID string) (model.Plan, error) {
	row := p.db.QueryRowContext(ctx, `SELECT id::text, status, created_at::text, strategy, COALESCE(style,''), budget_min, stops, result
		FROM plans WHERE tenant_id=$1 AND id=$2`, tenantID, planID)
	var pl model.Plan
	var stops, result []byte
	err := row.Scan(&pl.ID, &pl.Status, &pl.CreatedAt, &pl.Strategy, &pl.Style, &pl.BudgetMin, &stops, &result)
	if errors.Is(err, sql.ErrNoRows) { return model.Plan{}, ErrNotFound }
	if err != nil { return model.Plan{}, err }
	pl.TenantID = tenantID
	_ = json.Unmarshal(stops, &pl.Stops)
	_ = json.Unmarshal(result, &pl.Result)
	return pl, nil
}

func (p *Postgres) ListPlans(ctx context.Context, tenantID, strategy, cursor string, limit int) ([]model.Plan, string, error) {
	if limit <= 0 || limit > 500 { limit = 100 }
	q := `SELECT id::text, status, created_at::text, strategy, COALESCE(style,''), budget_min, stops, result FROM plans WHERE tenant_id=$1`
	args := []any{tenantID}
	if strategy != "" {
		args = append(args, strategy)
		q += ` AND strategy=$2`
	}
	if cursor != "" {
		args = append(args, cursor)
		q += ` AND id::text > $` + itoa(len(args))
	}
	args = append(args, limit)
	q += ` ORDER BY id LIMIT $` + itoa(len(args))
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil { return nil, "", err }
	defer rows.Close()
	var out []model.Plan
	var last string
	for rows.Next() {
		var pl model.Plan
		var stops, result []byte
		if err := rows.Scan(&pl.ID, &pl.Status, &pl.CreatedAt, &pl.Strategy, &pl.Style, &pl.BudgetMin, &stops, &result); err != nil { return nil, "", err }
		pl.TenantID = tenantID
		_ = json.Unmarshal(stops, &pl.Stops)
		_ = json.Unmarshal(result, &pl.Result)
		out = append(out, pl)
		last = pl.ID
	}
	next := ""
	if len(out) == limit { next = last }
	return out, next, nil
}

func (p *Postgres) DeletePlan(ctx context.Context, tenantID, planID string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM plans WHERE tenant_id=$1 AND id=$2`, tenantID, planID)
	if err != nil { return err }
	if n, _ := res.RowsAffected(); n == 0 { return ErrNotFound }
	_, err = p.db.ExecContext(ctx, `DELETE FROM plan_metrics WHERE tenant_id=$1 AND plan_id=$2`, tenantID, planID)
	return err
}

func (p *Postgres) PlanStats(ctx context.Context, tenantID string) (map[string]any, error) {
	row := p.db.QueryRowContext(ctx, `SELECT COUNT(*),
		COALESCE(SUM(jsonb_array_length(stops)),0),
		COALESCE(SUM((result->'stats'->>'totalScore')::float8),0),
		COALESCE(SUM((result->'stats'->>'totalTravelMin')::float8),0)
		FROM plans WHERE tenant_id=$1`, tenantID)
	var plans, stops int
	var score, travel float64
	if err := row.Scan(&plans, &stops, &score, &travel); err != nil { return nil, err }
	avgStops := 0.0
	if plans > 0 { avgStops = float64(stops) / float64(plans) }
	return map[string]any{"plans": plans, "stops": stops, "totalScore": score, "totalTravelMin": travel, "avgStopsPerPlan": avgStops}, nil
}

func (p *Postgres) SavePlanMetrics(ctx context.Context, tenantID, planID string, m plan.Metrics) error {
	id := uuid.New().String()
	_, err := p.db.ExecContext(ctx, `INSERT INTO plan_metrics (id, tenant_id, plan_id, strategy, candidates, selected, iterations, time_used_min, total_score, improvement_pct, passes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (tenant_id, plan_id, strategy) DO UPDATE SET
		  candidates=$5, selected=$6, iterations=$7, time_used_min=$8, total_score=$9, improvement_pct=$10, passes=$11, created_at=now()`,
		id, tenantID, planID, m.Strategy, m.Candidates, m.Selected, m.Iterations, m.TimeUsedMin, m.TotalScore, m.ImprovementPct, m.Passes)
	return err
}

func (p *Postgres) ListPlanMetrics(ctx context.Context, tenantID, planID, strategy string) ([]plan.Metrics, error) {
	base := `SELECT strategy, candidates, selected, iterations, time_used_min, total_score, improvement_pct, passes FROM plan_metrics WHERE tenant_id=$1 AND plan_id=$2`
	args := []any{tenantID, planID}
	if strategy != "" { base += ` AND strategy=$3`; args = append(args, strategy) }
	rows, err := p.db.QueryContext(ctx, base, args...)
	if err != nil { return nil, err }
	defer rows.Close()
	out := []plan.Metrics{}
	for rows.Next() {
		var m plan.Metrics
		if err := rows.Scan(&m.Strategy, &m.Candidates, &m.Selected, &m.Iterations, &m.TimeUsedMin, &m.TotalScore, &m.ImprovementPct, &m.Passes); err != nil { return nil, err }
		out = append(out, m)
	}
	return out, nil
}

func (p *Postgres) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
	id := uuid.New().String()
	ev, _ := json.Marshal(req.Events)
	_, err := p.db.ExecContext(ctx, `INSERT INTO subscriptions (id, tenant_id, url, events, secret) VALUES ($1,$2,$3,$4,$5)`, id, req.TenantID, req.URL, ev, req.Secret)
	if err != nil { return model.Subscription{}, err }
	return model.Subscription{ID: id, TenantID: req.TenantID, URL: req.URL, Events: req.Events, Secret: req.Secret}, nil
}

func (p *Postgres) GetSubscriptionsForEvent(ctx context.Context, tenantID, eventType string) ([]model.Subscription, error) {
	ev, _ := json.Marshal([]string{eventType})
	rows, err := p.db.QueryContext(ctx, `SELECT id::text, url, secret, events FROM subscriptions WHERE tenant_id=$1 AND events @> $2::jsonb`, tenantID, string(ev))
	if err != nil { return nil, err }
	defer rows.Close()
	out := []model.Subscription{}
	for rows.Next() {
		var s model.Subscription
		var events []byte
		if err := rows.Scan(&s.ID, &s.URL, &s.Secret, &events); err != nil { return nil, err }
		s.TenantID = tenantID
		_ = json.Unmarshal(events, &s.Events)
		out = append(out, s)
	}
	return out, nil
}

func (p *Postgres) ListSubscriptions(ctx context.Context, tenantID, cursor string, limit int) ([]model.Subscription, string, error) {
	if limit <= 0 || limit > 500 { limit = 100 }
	var rows *sql.Rows
	var err error
	if cursor != "" {
		rows, err = p.db.QueryContext(ctx, `SELECT id::text, url, secret, events FROM subscriptions WHERE tenant_id=$1 AND id::text > $2 ORDER BY id LIMIT $3`, tenantID, cursor, limit)
	} else {
		rows, err = p.db.QueryContext(ctx, `SELECT id::text, url, secret, events FROM subscriptions WHERE tenant_id=$1 ORDER BY id LIMIT $2`, tenantID, limit)
	}
	if err != nil { return nil, "", err }
	defer rows.Close()
	var out []model.Subscription
	var last string
	for rows.Next() {
		var s model.Subscription
		var ev []byte
		if err := rows.Scan(&s.ID, &s.URL, &s.Secret, &ev); err != nil { return nil, "", err }
		s.TenantID = tenantID
		_ = json.Unmarshal(ev, &s.Events)
		out = append(out, s)
		last = s.ID
	}
	next := ""
	if len(out) == limit { next = last }
	return out, next, nil
}

func (p *Postgres) DeleteSubscription(ctx context.Context, tenantID, id string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	return err
}

// Webhook deliveries
func (p *Postgres) EnqueueWebhook(ctx context.Context, tenantID, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
	id := uuid.New().String()
	dk := computeDedupKey(payload)
	_, err := p.db.ExecContext(ctx, `INSERT INTO webhook_deliveries (id, tenant_id, subscription_id, event_type, url, secret, payload, status, attempts, next_attempt_at, dedup_key)
		VALUES ($1,$2,$3,$4,$5,$6,$7,'pending',0,now(),$8)
		ON CONFLICT (tenant_id, event_type, url, dedup_key) DO NOTHING`, id, tenantID, nullIfEmpty(subscriptionID), eventType, url, nullIfEmpty(secret), payload, dk)
	if err != nil { return "", err }
	return id, nil
}

func (p *Postgres) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id::text, tenant_id::text, COALESCE(subscription_id::text,''), event_type, url, COALESCE(secret,''), payload, status, attempts
		FROM webhook_deliveries WHERE status IN ('pending','retry') AND next_attempt_at <= now() ORDER BY next_attempt_at ASC LIMIT $1`, limit)
	if err != nil { return nil, err }
	defer rows.Close()
	out := []WebhookDelivery{}
	for rows.Next() {
		var d WebhookDelivery
		if err := rows.Scan(&d.ID, &d.TenantID, &d.SubscriptionID, &d.EventType, &d.URL, &d.Secret, &d.Payload, &d.Status, &d.Attempts); err != nil { return nil, err }
		out = append(out, d)
	}
	return out, nil
}

func (p *Postgres) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
	if !success {
		if nextAttemptAt == nil { t := time.Now().Add(1 * time.Minute); nextAttemptAt = &t }
		_, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET attempts=attempts+1, status='retry', last_error=$1, next_attempt_at=$2, updated_at=now(), response_code=$4, latency_ms=$5 WHERE id=$3`, nullIfEmpty(lastError), *nextAttemptAt, id, responseCode, latencyMs)
		return err
	}
	_, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET attempts=attempts+1, status='delivered', delivered_at=now(), updated_at=now(), response_code=$2, latency_ms=$3 WHERE id=$1`, id, responseCode, latencyMs)
	return err
}

func (p *Postgres) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
	_, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET status='failed', last_error=$2, updated_at=now(), response_code=$3, latency_ms=$4 WHERE id=$1`, id, nullIfEmpty(lastError), responseCode, latencyMs)
	if err != nil { return err }
	// move to DLQ
	_, err = p.db.ExecContext(ctx, `INSERT INTO webhook_dlq (id, tenant_id, delivery_id, event_type, url, secret, payload, attempts, last_error)
		SELECT gen_random_uuid(), tenant_id, id, event_type, url, secret, payload, attempts+1, $2 FROM webhook_deliveries WHERE id=$1`, id, nullIfEmpty(lastError))
	return err
}

func (p *Postgres) ListWebhookDeliveries(ctx context.Context, tenantID, status, cursor string, limit int) ([]map[string]any, string, error) {
	if limit <= 0 || limit > 500 { limit = 100 }
	q := `SELECT id::text, event_type, status, attempts, next_attempt_at, COALESCE(last_error,''), url FROM webhook_deliveries WHERE tenant_id=$1`
	var rows *sql.Rows
	var err error
	if status != "" {
		q += ` AND status=$2 ORDER BY id LIMIT $3`
		rows, err = p.db.QueryContext(ctx, q, tenantID, status, limit)
	} else {
		q += ` ORDER BY id LIMIT $2`
		rows, err = p.db.QueryContext(ctx, q, tenantID, limit)
	}
	if err != nil { return nil, "", err }
	defer rows.Close()
	out := []map[string]any{}
	var last string
	for rows.Next() {
		var id, typ, st, lastErr, url string
		var attempts int
		var nextAt sql.NullTime
		if err := rows.Scan(&id, &typ, &st, &attempts, &nextAt, &lastErr, &url); err != nil { return nil, "", err }
		m := map[string]any{"id": id, "eventType": typ, "status": st, "attempts": attempts, "url": url}
		if nextAt.Valid { m["nextAttemptAt"] = nextAt.Time }
		if lastErr != "" { m["lastError"] = lastErr }
		out = append(out, m)
		last = id
	}
	next := ""
	if len(out) == limit { next = last }
	return out, next, nil
}

func (p *Postgres) RetryWebhookDelivery(ctx context.Context, tenantID, id string) error {
	_, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET status='pending', next_attempt_at=now() WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	return err
}

func (p *Postgres) ListWebhookDLQ(ctx context.Context, tenantID, eventType, cursor string, limit int) ([]map[string]any, string, error) {
	if limit <= 0 || limit > 500 { limit = 100 }
	q := `SELECT id::text, delivery_id::text, event_type, url, attempts, COALESCE(last_error,''), created_at FROM webhook_dlq WHERE tenant_id=$1`
	args := []any{tenantID}
	if eventType != "" {
		args = append(args, eventType)
		q += ` AND event_type=$2`
	}
	if cursor != "" {
		args = append(args, cursor)
		q += ` AND id::text > $` + itoa(len(args))
	}
	args = append(args, limit)
	q += ` ORDER BY id LIMIT $` + itoa(len(args))
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil { return nil, "", err }
	defer rows.Close()
	out := []map[string]any{}
	var last string
	for rows.Next() {
		var id, deliveryID, typ, url, lastErr string
		var attempts int
		var createdAt time.Time
		if err := rows.Scan(&id, &deliveryID, &typ, &url, &attempts, &lastErr, &createdAt); err != nil { return nil, "", err }
		m := map[string]any{"id": id, "deliveryId": deliveryID, "eventType": typ, "url": url, "attempts": attempts, "createdAt": createdAt}
		if lastErr != "" { m["lastError"] = lastErr }
		out = append(out, m)
		last = id
	}
	next := ""
	if len(out) == limit { next = last }
	return out, next, nil
}

func (p *Postgres) RequeueWebhookDLQ(ctx context.Context, tenantID, id string) error {
	_, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET status='pending', attempts=0, next_attempt_at=now()
		WHERE id=(SELECT delivery_id FROM webhook_dlq WHERE tenant_id=$1 AND id=$2)`, tenantID, id)
	if err != nil { return err }
	_, err = p.db.ExecContext(ctx, `DELETE FROM webhook_dlq WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	return err
}

func computeDedupKey(payload []byte) string {
	// try to parse JSON and use id
	var m map[string]any
	if json.Unmarshal(payload, &m) == nil {
		if v, ok := m["id"].(string); ok && v != "" {
			return v
		}
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:8])
}

func nullIfEmpty(s string) any { if s == "" { return nil }; return s }

func itoa(n int) string { return strconv.Itoa(n) }
