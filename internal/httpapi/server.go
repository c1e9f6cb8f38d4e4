package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"enbw-hass/internal/finder"
	"enbw-hass/internal/station"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// Server exposes the current station state and the setup-flow search over a
// small local REST surface.
type Server struct {
	Poller *station.Poller
	Finder *finder.Finder
	Logger *logrus.Logger
}

// NewServer creates a status server for one station poller.
func NewServer(poller *station.Poller, f *finder.Finder, logger *logrus.Logger) *Server {
	return &Server{Poller: poller, Finder: f, Logger: logger}
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/api/v1/station", s.GetStation)
	r.Get("/api/v1/search", s.SearchStations)

	return r
}

type stationStatus struct {
	Name          string                `json:"name"`
	StationNumber string                `json:"stationNumber"`
	UpdatedAt     *time.Time            `json:"updatedAt,omitempty"`
	Entities      []station.EntityState `json:"entities"`
}

// GetStation returns the latest entity states for the configured station.
// 503 until the first successful refresh has populated the entity set.
func (s *Server) GetStation(w http.ResponseWriter, r *http.Request) {
	states := s.Poller.EntityStates()
	if len(states) == 0 {
		http.Error(w, "no station data yet", http.StatusServiceUnavailable)
		return
	}

	status := stationStatus{
		Name:          s.Poller.Name(),
		StationNumber: s.Poller.StationNumber(),
		Entities:      states,
	}
	if updated := s.Poller.UpdatedAt(); !updated.IsZero() {
		status.UpdatedAt = &updated
	}

	writeJSON(w, s.Logger, status)
}

// SearchStations runs the setup-flow area search. Query parameters: lat, lon,
// radius (km).
func (s *Server) SearchStations(w http.ResponseWriter, r *http.Request) {
	lat, err1 := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, err2 := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	radius, err3 := strconv.ParseFloat(r.URL.Query().Get("radius"), 64)
	if err1 != nil || err2 != nil || err3 != nil || radius <= 0 {
		http.Error(w, "lat, lon and radius (km, > 0) query parameters are required", http.StatusBadRequest)
		return
	}

	candidates := s.Finder.Search(r.Context(), lat, lon, radius)
	if candidates == nil {
		candidates = []finder.CandidateStation{}
	}

	writeJSON(w, s.Logger, candidates)
}

func writeJSON(w http.ResponseWriter, logger *logrus.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithError(err).Warn("Failed to encode HTTP response")
	}
}
