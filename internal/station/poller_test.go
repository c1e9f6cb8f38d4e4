package station

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"enbw-hass/internal/api"
)

// stationServer serves a mutable station payload and counts requests.
type stationServer struct {
	mu       sync.Mutex
	payload  *api.StationResponse
	failWith int // when > 0, respond with this status instead
	requests int
}

func (s *stationServer) handler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests++
	if s.failWith > 0 {
		http.Error(w, "boom", s.failWith)
		return
	}
	json.NewEncoder(w).Encode(s.payload)
}

func (s *stationServer) requestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

func (s *stationServer) set(payload *api.StationResponse, failWith int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payload = payload
	s.failWith = failWith
}

func newTestPoller(t *testing.T, srv *stationServer) (*Poller, *time.Time) {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(srv.handler))
	t.Cleanup(ts.Close)

	client := api.NewClient(ts.URL, "test-key", "test-agent", time.Second, testLogger())
	p := NewPoller(client, "Test Station", "393894", time.Minute, testLogger())

	now := time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }
	return p, &now
}

func TestRefreshThrottledWithinInterval(t *testing.T) {
	srv := &stationServer{payload: twoPointPayload()}
	p, now := newTestPoller(t, srv)

	if !p.Refresh(context.Background()) {
		t.Fatal("First refresh should succeed")
	}
	if !p.Refresh(context.Background()) {
		t.Fatal("Throttled refresh should report success")
	}
	if got := srv.requestCount(); got != 1 {
		t.Errorf("Expected exactly 1 network call for two refreshes within the interval, got %d", got)
	}

	*now = now.Add(61 * time.Second)
	p.Refresh(context.Background())
	if got := srv.requestCount(); got != 2 {
		t.Errorf("Expected a second network call after the interval, got %d", got)
	}
}

func TestEntitySetCreatedOnceAndFrozen(t *testing.T) {
	srv := &stationServer{payload: twoPointPayload()}
	p, now := newTestPoller(t, srv)

	p.Refresh(context.Background())

	// 1 state + 3 counts + 2 charge points
	if got := len(p.Entities()); got != 6 {
		t.Fatalf("Expected 6 entities for a 2-point payload, got %d", got)
	}

	// A later payload with 3 points must not grow the entity set.
	payload := twoPointPayload()
	payload.NumberOfChargePoints = 3
	payload.ChargePoints = append(payload.ChargePoints, api.ChargePoint{
		EvseID: "DE*ENBW*E393894*3",
		Status: api.StatusAvailable,
	})
	srv.set(payload, 0)

	*now = now.Add(2 * time.Minute)
	p.Refresh(context.Background())
	if got := len(p.Entities()); got != 6 {
		t.Errorf("Expected entity set frozen at 6, got %d", got)
	}
}

func TestRefreshFailureKeepsPreviousState(t *testing.T) {
	srv := &stationServer{payload: twoPointPayload()}
	p, now := newTestPoller(t, srv)

	p.Refresh(context.Background())
	before := p.EntityStates()

	srv.set(nil, http.StatusInternalServerError)
	*now = now.Add(2 * time.Minute)
	if p.Refresh(context.Background()) {
		t.Error("Refresh against a failing endpoint should report failure")
	}

	after := p.EntityStates()
	if len(after) != len(before) {
		t.Fatalf("Entity count changed on failure: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if after[i].State != before[i].State {
			t.Errorf("Entity %s state changed on failed refresh: %q -> %q",
				before[i].EntityID, before[i].State, after[i].State)
		}
	}
}

func TestFailedRefreshStillThrottles(t *testing.T) {
	srv := &stationServer{failWith: http.StatusBadGateway}
	p, _ := newTestPoller(t, srv)

	p.Refresh(context.Background())
	p.Refresh(context.Background())
	p.Refresh(context.Background())

	if got := srv.requestCount(); got != 1 {
		t.Errorf("Expected a failing endpoint to be retried at most once per interval, got %d calls", got)
	}
}

func TestRefreshBeforeFirstSuccessHasNoEntities(t *testing.T) {
	srv := &stationServer{failWith: http.StatusNotFound}
	p, _ := newTestPoller(t, srv)

	p.Refresh(context.Background())
	if got := len(p.Entities()); got != 0 {
		t.Errorf("Expected no entities before the first successful refresh, got %d", got)
	}
	if p.Snapshot() != nil {
		t.Error("Expected nil snapshot before the first successful refresh")
	}
}

func TestRefreshUpdatesAvailability(t *testing.T) {
	payload := twoPointPayload()
	payload.AvailableChargePoints = 0
	srv := &stationServer{payload: payload}
	p, now := newTestPoller(t, srv)

	p.Refresh(context.Background())
	if state := findEntityState(t, p, "enbw_station_393894_state"); state.State != StateOff {
		t.Errorf("Expected station OFF with no available points, got %q", state.State)
	}

	next := twoPointPayload()
	next.AvailableChargePoints = 3
	srv.set(next, 0)
	*now = now.Add(2 * time.Minute)
	p.Refresh(context.Background())

	if state := findEntityState(t, p, "enbw_station_393894_state"); state.State != StateOn {
		t.Errorf("Expected station ON with 3 available points, got %q", state.State)
	}
}

func findEntityState(t *testing.T, p *Poller, entityID string) EntityState {
	t.Helper()
	for _, state := range p.EntityStates() {
		if state.EntityID == entityID {
			return state
		}
	}
	t.Fatalf("Entity %s not found", entityID)
	return EntityState{}
}
