package finder

import (
	"context"
	"sort"

	"enbw-hass/internal/api"
	"enbw-hass/internal/config"
	"enbw-hass/internal/geo"

	"github.com/sirupsen/logrus"
)

// CandidateStation is one station offered for selection during setup.
type CandidateStation struct {
	StationNumber    string   `json:"stationNumber"`
	Address          string   `json:"address"`
	PlugTypes        []string `json:"plugTypes"`
	MaxPowerKw       float64  `json:"maxPowerKw"`
	ChargePointCount int      `json:"chargePointCount"`
	Lat              float64  `json:"lat"`
	Lon              float64  `json:"lon"`
	DistanceKm       float64  `json:"distanceKm"`
}

// Finder looks up charge stations for the setup flow: either directly by
// station number or by searching an area around a point. Results are ranked
// by distance from the configured home coordinate.
type Finder struct {
	client  *api.Client
	homeLat float64
	homeLon float64
	logger  *logrus.Logger
}

// NewFinder creates a finder ranking results against the given home point.
func NewFinder(client *api.Client, homeLat, homeLon float64, logger *logrus.Logger) *Finder {
	return &Finder{
		client:  client,
		homeLat: homeLat,
		homeLon: homeLon,
		logger:  logger,
	}
}

// Search returns the stations within radiusKm of the center, ordered by
// ascending distance from home and truncated to the closest
// config.MaxSearchResults. Each call fetches anew; any failure yields an
// empty result.
func (f *Finder) Search(ctx context.Context, lat, lon, radiusKm float64) []CandidateStation {
	box := geo.BoundingBox(lat, lon, radiusKm)

	stations, err := f.client.SearchArea(ctx, box)
	if err != nil {
		f.logger.WithError(err).Warn("Station search failed")
		return nil
	}

	candidates := make([]CandidateStation, 0, len(stations))
	for _, station := range stations {
		candidates = append(candidates, f.toCandidate(&station))
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].DistanceKm < candidates[j].DistanceKm
	})
	if len(candidates) > config.MaxSearchResults {
		candidates = candidates[:config.MaxSearchResults]
	}

	f.logger.WithField("candidates", len(candidates)).Debug("Station search finished")

	return candidates
}

// LookupByID fetches one station by number. The second return value is false
// when the station does not exist or could not be reached; the two cases are
// not distinguished.
func (f *Finder) LookupByID(ctx context.Context, stationNumber string) (*CandidateStation, bool) {
	resp, err := f.client.GetStation(ctx, stationNumber)
	if err != nil {
		f.logger.WithError(err).WithField("station", stationNumber).Warn("Station lookup failed")
		return nil, false
	}
	candidate := f.toCandidate(resp)
	if candidate.StationNumber == "" {
		candidate.StationNumber = stationNumber
	}
	return &candidate, true
}

func (f *Finder) toCandidate(resp *api.StationResponse) CandidateStation {
	return CandidateStation{
		StationNumber:    resp.StationID,
		Address:          resp.ShortAddress,
		PlugTypes:        resp.PlugTypeNames,
		MaxPowerKw:       resp.MaxPowerInKw,
		ChargePointCount: resp.NumberOfChargePoints,
		Lat:              resp.Lat,
		Lon:              resp.Lon,
		DistanceKm:       geo.HaversineKm(f.homeLat, f.homeLon, resp.Lat, resp.Lon),
	}
}
