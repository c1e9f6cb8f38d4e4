package finder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"enbw-hass/internal/api"
	"enbw-hass/internal/config"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// newTestFinder wires a finder against a test server, with home at the given
// coordinate.
func newTestFinder(t *testing.T, handler http.HandlerFunc, homeLat, homeLon float64) *Finder {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	client := api.NewClient(ts.URL, "key", "agent", time.Second, testLogger())
	return NewFinder(client, homeLat, homeLon, testLogger())
}

func TestSearchSortsByDistanceAndTruncates(t *testing.T) {
	// 20 stations, each further north than the last. Served in reverse order
	// so the finder has to sort them.
	var stations []api.StationResponse
	for i := 19; i >= 0; i-- {
		stations = append(stations, api.StationResponse{
			StationID: fmt.Sprintf("s%d", i),
			Lat:       48.0 + float64(i)*0.01,
			Lon:       9.0,
		})
	}
	handler := func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(stations)
	}

	f := newTestFinder(t, handler, 48.0, 9.0)
	candidates := f.Search(context.Background(), 48.0, 9.0, 5)

	if len(candidates) != config.MaxSearchResults {
		t.Fatalf("Expected %d candidates, got %d", config.MaxSearchResults, len(candidates))
	}
	for i := 1; i < len(candidates); i++ {
		if candidates[i].DistanceKm < candidates[i-1].DistanceKm {
			t.Errorf("Candidates not sorted ascending at index %d: %f < %f",
				i, candidates[i].DistanceKm, candidates[i-1].DistanceKm)
		}
	}
	if candidates[0].StationNumber != "s0" {
		t.Errorf("Expected closest station s0 first, got %s", candidates[0].StationNumber)
	}
}

func TestSearchRanksAgainstHomeNotCenter(t *testing.T) {
	stations := []api.StationResponse{
		{StationID: "near-center", Lat: 50.00, Lon: 9.0},
		{StationID: "near-home", Lat: 48.01, Lon: 9.0},
	}
	handler := func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(stations)
	}

	// Home is at 48.0 but the search centers on 50.0.
	f := newTestFinder(t, handler, 48.0, 9.0)
	candidates := f.Search(context.Background(), 50.0, 9.0, 5)

	if len(candidates) != 2 {
		t.Fatalf("Expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].StationNumber != "near-home" {
		t.Errorf("Expected distance ranking against home, got %s first", candidates[0].StationNumber)
	}
}

func TestSearchFailureYieldsEmptyResult(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}
	f := newTestFinder(t, handler, 48.0, 9.0)

	if candidates := f.Search(context.Background(), 48.0, 9.0, 5); len(candidates) != 0 {
		t.Errorf("Expected empty result on HTTP error, got %d candidates", len(candidates))
	}
}

func TestSearchBuildsBoundingBoxFromRadius(t *testing.T) {
	var query map[string][]string
	handler := func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Write([]byte(`[]`))
	}
	f := newTestFinder(t, handler, 48.0, 9.0)
	f.Search(context.Background(), 48.0, 9.0, 111)

	// 111 km is one degree by the linear approximation.
	if got := query["fromLat"]; len(got) == 0 || got[0] != "47.000000" {
		t.Errorf("Expected fromLat 47.000000, got %v", query["fromLat"])
	}
	if got := query["toLat"]; len(got) == 0 || got[0] != "49.000000" {
		t.Errorf("Expected toLat 49.000000, got %v", query["toLat"])
	}
}

func TestLookupByID(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.StationResponse{
			StationID:            "393894",
			ShortAddress:         "Teststraße 1",
			NumberOfChargePoints: 2,
			MaxPowerInKw:         300,
			PlugTypeNames:        []string{"CCS (Typ 2)"},
			Lat:                  48.1,
			Lon:                  9.1,
		})
	}
	f := newTestFinder(t, handler, 48.0, 9.0)

	candidate, found := f.LookupByID(context.Background(), "393894")
	if !found {
		t.Fatal("Expected lookup to succeed")
	}
	if candidate.StationNumber != "393894" {
		t.Errorf("Expected station number 393894, got %s", candidate.StationNumber)
	}
	if candidate.ChargePointCount != 2 || candidate.MaxPowerKw != 300 {
		t.Errorf("Unexpected candidate: %+v", candidate)
	}
	if candidate.DistanceKm <= 0 {
		t.Errorf("Expected positive distance to home, got %f", candidate.DistanceKm)
	}
}

func TestLookupByIDNotFound(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown station", http.StatusNotFound)
	}
	f := newTestFinder(t, handler, 48.0, 9.0)

	if _, found := f.LookupByID(context.Background(), "999999"); found {
		t.Error("Expected not-found for a 404 response")
	}
}

func TestLookupByIDNetworkFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close()
	client := api.NewClient(ts.URL, "key", "agent", time.Second, testLogger())
	f := NewFinder(client, 48.0, 9.0, testLogger())

	if _, found := f.LookupByID(context.Background(), "393894"); found {
		t.Error("Expected not-found when the API is unreachable")
	}
}
