package realtime

import (
	"context"
	"log/slog"
	"testing"
	"time"
)

func testHub() *Hub {
	return NewHub(slog.Default())
}

// ---------------------------------------------------------------------------
// shouldSend tests
// ---------------------------------------------------------------------------

func TestShouldSend_AllEvents(t *testing.T) {
	h := testHub()
	client := &Client{sub: Subscription{AllEvents: true}}

	event := &Event{Type: EventDecision, Timestamp: time.Now()}
	if !h.shouldSend(client, event) {
		t.Error("AllEvents client should receive all events")
	}
}

func TestShouldSend_EventTypeFilter(t *testing.T) {
	h := testHub()

	client := &Client{sub: Subscription{
		EventTypes: []EventType{EventModelLoaded},
	}}

	decisionEvent := &Event{Type: EventDecision}
	modelEvent := &Event{Type: EventModelLoaded}

	if h.shouldSend(client, decisionEvent) {
		t.Error("Should NOT receive decision events")
	}
	if !h.shouldSend(client, modelEvent) {
		t.Error("Should receive model_loaded events")
	}
}

func TestShouldSend_ClassificationFilter(t *testing.T) {
	h := testHub()

	client := &Client{sub: Subscription{
		Classifications: []string{"High Risk", "Medium Risk"},
	}}

	matching := &Event{
		Type: EventDecision,
		Data: Decision{Classification: "High Risk", RiskScore: 0.9},
	}
	notMatching := &Event{
		Type: EventDecision,
		Data: Decision{Classification: "Safe", RiskScore: 0.05},
	}

	if !h.shouldSend(client, matching) {
		t.Error("Should match High Risk decisions")
	}
	if h.shouldSend(client, notMatching) {
		t.Error("Should NOT match Safe decisions")
	}
}

func TestShouldSend_MinRiskScoreFilter(t *testing.T) {
	h := testHub()

	client := &Client{sub: Subscription{
		MinRiskScore: 0.5,
	}}

	high := &Event{
		Type: EventDecision,
		Data: Decision{Classification: "High Risk", RiskScore: 0.8},
	}
	low := &Event{
		Type: EventDecision,
		Data: Decision{Classification: "Safe", RiskScore: 0.1},
	}
	modelEvent := &Event{
		Type: EventModelLoaded,
		Data: map[string]interface{}{"version": "v2"},
	}

	if !h.shouldSend(client, high) {
		t.Error("Should receive high-risk decision")
	}
	if h.shouldSend(client, low) {
		t.Error("Should NOT receive low-risk decision")
	}
	if !h.shouldSend(client, modelEvent) {
		t.Error("MinRiskScore filter should only apply to decisions")
	}
}

func TestShouldSend_EmptySubscription(t *testing.T) {
	h := testHub()

	// No filters, not AllEvents
	client := &Client{sub: Subscription{}}

	event := &Event{Type: EventDecision}
	if !h.shouldSend(client, event) {
		t.Error("Empty subscription (no filters) should receive events")
	}
}

func TestShouldSend_NonDecisionData(t *testing.T) {
	h := testHub()

	client := &Client{sub: Subscription{
		Classifications: []string{"High Risk"},
	}}

	// Decision event with unexpected payload shape should not crash
	event := &Event{
		Type: EventDecision,
		Data: "string data not a decision",
	}

	// Classification filter skips data it can't inspect, so event passes through
	if !h.shouldSend(client, event) {
		t.Error("Unexpected payload should pass through when filter can't inspect it")
	}
}

// ---------------------------------------------------------------------------
// Hub lifecycle tests
// ---------------------------------------------------------------------------

func TestHub_Stats_Initial(t *testing.T) {
	h := testHub()

	stats := h.Stats()
	if stats["connectedClients"].(int) != 0 {
		t.Errorf("Expected 0 connected clients, got %v", stats["connectedClients"])
	}
	if stats["totalEvents"].(int64) != 0 {
		t.Errorf("Expected 0 total events, got %v", stats["totalEvents"])
	}
}

func TestHub_BroadcastAndStats(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	// Broadcast an event
	h.Broadcast(&Event{Type: EventDecision, Timestamp: time.Now()})
	time.Sleep(50 * time.Millisecond)

	stats := h.Stats()
	if stats["totalEvents"].(int64) != 1 {
		t.Errorf("Expected 1 total event, got %v", stats["totalEvents"])
	}
}

func TestHub_RegisterUnregister(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	client := &Client{
		hub:  h,
		send: make(chan []byte, 256),
		sub:  Subscription{AllEvents: true},
	}

	h.register <- client
	time.Sleep(50 * time.Millisecond)

	stats := h.Stats()
	if stats["connectedClients"].(int) != 1 {
		t.Errorf("Expected 1 connected client, got %v", stats["connectedClients"])
	}
	if stats["peakClients"].(int64) != 1 {
		t.Errorf("Expected peak 1, got %v", stats["peakClients"])
	}

	h.unregister <- client
	time.Sleep(50 * time.Millisecond)

	stats = h.Stats()
	if stats["connectedClients"].(int) != 0 {
		t.Errorf("Expected 0 connected clients after unregister, got %v", stats["connectedClients"])
	}
	// Peak should still be 1
	if stats["peakClients"].(int64) != 1 {
		t.Errorf("Expected peak still 1, got %v", stats["peakClients"])
	}
}

func TestHub_BroadcastDecisionToClient(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	client := &Client{
		hub:  h,
		send: make(chan []byte, 256),
		sub:  Subscription{AllEvents: true},
	}

	h.register <- client
	time.Sleep(50 * time.Millisecond)

	h.BroadcastDecision(Decision{
		TransactionID:  "TXN_WS_1",
		RiskScore:      0.85,
		Classification: "High Risk",
		Status:         "blocked",
		IsFraud:        true,
	})

	select {
	case msg := <-client.send:
		if len(msg) == 0 {
			t.Error("Expected non-empty message")
		}
	case <-time.After(time.Second):
		t.Error("Timeout waiting for broadcast")
	}
}

func TestHub_ContextCancellation(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
		// Hub stopped
	case <-time.After(2 * time.Second):
		t.Error("Hub did not stop after context cancellation")
	}
}

func TestHub_FilteredBroadcast(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	// Client only wants model swaps
	client := &Client{
		hub:  h,
		send: make(chan []byte, 256),
		sub:  Subscription{EventTypes: []EventType{EventModelLoaded}},
	}

	h.register <- client
	time.Sleep(50 * time.Millisecond)

	// Send a decision event (should be filtered out)
	h.BroadcastDecision(Decision{Classification: "Safe", RiskScore: 0.1})
	time.Sleep(100 * time.Millisecond)

	select {
	case <-client.send:
		t.Error("Client should NOT receive decision event")
	default:
		// Good - filtered out
	}

	// Send a model event (should be received)
	h.BroadcastModelLoaded("fraud-lr-2")

	select {
	case msg := <-client.send:
		if len(msg) == 0 {
			t.Error("Expected non-empty message")
		}
	case <-time.After(time.Second):
		t.Error("Client should receive model_loaded event")
	}
}
