package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"tourplan/internal/model"
)

func dialPlanWS(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(s.PlanWSHandler))
	t.Cleanup(srv.Close)
	u := "ws" + strings.TrimPrefix(srv.URL, "http")
	hdr := http.Header{}
	hdr.Set("X-Tenant-Id", "t_demo")
	hdr.Set("X-Role", "viewer")
	c, _, err := websocket.DefaultDialer.Dial(u, hdr)
	if err != nil { t.Fatalf("dial: %v", err) }
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func readUntil(t *testing.T, c *websocket.Conn, msgType string) wsMessage {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	_ = c.SetReadDeadline(deadline)
	for time.Now().Before(deadline) {
		var m wsMessage
		if err := c.ReadJSON(&m); err != nil { t.Fatalf("read: %v", err) }
		if m.Type == msgType { return m }
	}
	t.Fatalf("no %s message before deadline", msgType)
	return wsMessage{}
}

func TestPlanWSConcurrentEvents(t *testing.T) {
	s := newTestServer(t)
	saved, err := s.Store.SavePlan(context.Background(), model.Plan{TenantID: "t_demo", Status: "completed"})
	if err != nil { t.Fatalf("save plan: %v", err) }

	c := dialPlanWS(t, s)
	if err := c.WriteJSON(wsMessage{Type: "connection_init"}); err != nil { t.Fatalf("init: %v", err) }
	readUntil(t, c, "connection_ack")

	pl, _ := json.Marshal(map[string]any{
		"query":     "subscription($planId: ID!) { planEvents(planId: $planId) }",
		"variables": map[string]any{"planId": saved.ID},
	})
	if err := c.WriteJSON(wsMessage{Type: "subscribe", ID: "1", Payload: pl}); err != nil { t.Fatalf("subscribe: %v", err) }
	// a pong response proves the subscribe was processed: the server
	// handles messages in order
	if err := c.WriteJSON(wsMessage{Type: "ping"}); err != nil { t.Fatalf("ping: %v", err) }
	readUntil(t, c, "pong")

	// fire events from several goroutines at once; every frame read
	// back must still decode cleanly
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.Broker.Publish(saved.ID, SSEEvent{Type: "plan.completed", Data: map[string]any{"n": n}})
		}(i)
	}
	wg.Wait()

	got := 0
	for got < 8 {
		m := readUntil(t, c, "next")
		var body struct {
			Data map[string]json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(m.Payload, &body); err != nil { t.Fatalf("payload: %v", err) }
		if _, ok := body.Data["planEvents"]; !ok { t.Fatalf("missing planEvents field: %s", m.Payload) }
		got++
	}
}

func TestPlanWSForbiddenWithoutPlan(t *testing.T) {
	s := newTestServer(t)
	c := dialPlanWS(t, s)
	if err := c.WriteJSON(wsMessage{Type: "connection_init"}); err != nil { t.Fatalf("init: %v", err) }
	readUntil(t, c, "connection_ack")

	pl, _ := json.Marshal(map[string]any{
		"query":     "subscription($planId: ID!) { planEvents(planId: $planId) }",
		"variables": map[string]any{"planId": "nope"},
	})
	if err := c.WriteJSON(wsMessage{Type: "subscribe", ID: "1", Payload: pl}); err != nil { t.Fatalf("subscribe: %v", err) }
	readUntil(t, c, "error")
	readUntil(t, c, "complete")
}
