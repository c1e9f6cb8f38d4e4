package transmission

import "enbw-hass/internal/station"

// Transmitter defines the interface for pushing entity states to a
// home-automation host.
type Transmitter interface {
	Transmit(device DeviceInfo, states []station.EntityState) error
	IsConnected() bool
}

// DeviceInfo identifies the station device the entities belong to.
type DeviceInfo struct {
	Name      string
	UniqueID  string
	StationID string
}
