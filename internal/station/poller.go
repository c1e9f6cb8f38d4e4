package station

import (
	"context"
	"fmt"
	"sync"
	"time"

	"enbw-hass/internal/api"

	"github.com/sirupsen/logrus"
)

// Poller owns one station's identity and keeps its entity set up to date from
// the EnBW API. Refresh calls arriving within the configured interval of the
// previous attempt are dropped without a network call, so the interval is a
// rate limit on API traffic, not a freshness guarantee.
//
// The mutex exists because the HTTP status server reads entity state while
// the run loop refreshes; Refresh itself must still not be called from more
// than one goroutine.
type Poller struct {
	client *api.Client
	logger *logrus.Logger

	name          string
	stationNumber string
	uniqueID      string
	interval      time.Duration
	now           func() time.Time

	mu          sync.RWMutex
	lastAttempt time.Time
	entities    []Entity
	snapshot    *api.StationResponse
}

// NewPoller creates a poller for a single station.
func NewPoller(client *api.Client, name, stationNumber string, interval time.Duration, logger *logrus.Logger) *Poller {
	return &Poller{
		client:        client,
		logger:        logger,
		name:          name,
		stationNumber: stationNumber,
		uniqueID:      fmt.Sprintf("enbw_station_%s", stationNumber),
		interval:      interval,
		now:           time.Now,
	}
}

// Name returns the configured display name.
func (p *Poller) Name() string { return p.name }

// StationNumber returns the EnBW station number.
func (p *Poller) StationNumber() string { return p.stationNumber }

// UniqueID returns the stable identifier prefix for this station's entities.
func (p *Poller) UniqueID() string { return p.uniqueID }

// Refresh fetches the station state unless a refresh was attempted within the
// interval. It returns false only when a network call was made and failed; a
// throttled call counts as success. Failures never disturb the entity states
// from the previous successful refresh.
func (p *Poller) Refresh(ctx context.Context) bool {
	p.mu.Lock()
	if !p.lastAttempt.IsZero() && p.now().Sub(p.lastAttempt) < p.interval {
		p.mu.Unlock()
		return true
	}
	// Advance on entry so a failing endpoint is retried once per interval,
	// not on every tick.
	p.lastAttempt = p.now()
	p.mu.Unlock()

	resp, err := p.client.GetStation(ctx, p.stationNumber)
	if err != nil {
		p.logger.WithError(err).WithField("station", p.stationNumber).Warn("Station refresh failed")
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.entities) == 0 {
		p.createEntities(resp)
	}
	for _, entity := range p.entities {
		entity.UpdateFromResponse(resp)
	}
	p.snapshot = resp

	return true
}

// createEntities builds the full entity set from the first successful
// payload. The set is frozen afterwards: later payloads with a different
// charge point count neither add nor remove entities. Callers hold p.mu.
func (p *Poller) createEntities(resp *api.StationResponse) {
	p.entities = append(p.entities,
		newStateBinarySensor(p),
		newCountSensor(p, countTotal),
		newCountSensor(p, countAvailable),
		newCountSensor(p, countUnknown),
	)

	pointCount := resp.NumberOfChargePoints
	if pointCount > len(resp.ChargePoints) {
		pointCount = len(resp.ChargePoints)
	}
	for i := 0; i < pointCount; i++ {
		p.entities = append(p.entities, newChargePointBinarySensor(p, resp.ChargePoints[i].EvseID, i+1))
	}

	p.logger.WithFields(logrus.Fields{
		"station":  p.stationNumber,
		"entities": len(p.entities),
	}).Info("Created station entities")
}

// Entities returns the current entity set. Empty until the first successful
// refresh.
func (p *Poller) Entities() []Entity {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Entity, len(p.entities))
	copy(out, p.entities)
	return out
}

// EntityState is an immutable rendering of one entity, safe to hand to other
// goroutines while the poller keeps refreshing.
type EntityState struct {
	EntityID   string         `json:"entityId"`
	Name       string         `json:"name"`
	Component  string         `json:"component"`
	State      string         `json:"state"`
	Icon       string         `json:"icon,omitempty"`
	Attributes map[string]any `json:"attributes"`
}

// EntityStates renders the current state of every entity.
func (p *Poller) EntityStates() []EntityState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]EntityState, 0, len(p.entities))
	for _, entity := range p.entities {
		out = append(out, EntityState{
			EntityID:   entity.EntityID(),
			Name:       entity.Name(),
			Component:  entity.Component(),
			State:      entity.State(),
			Icon:       entity.Icon(),
			Attributes: entity.Attributes(),
		})
	}
	return out
}

// Snapshot returns the payload of the most recent successful refresh, or nil.
func (p *Poller) Snapshot() *api.StationResponse {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot
}

// UpdatedAt returns the time of the most recent refresh attempt.
func (p *Poller) UpdatedAt() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastAttempt
}

// updatedAt is the lock-free variant for entities updating under p.mu.
func (p *Poller) updatedAt() time.Time { return p.lastAttempt }
