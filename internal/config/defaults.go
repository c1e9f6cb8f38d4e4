package config

import "time"

// Central place for all application-wide timing constants and other defaults.
// Changing a value here immediately affects all components that import
// enbw-hass/internal/config.

const (
	// DefaultBaseURL is the public EnBW e-mobility API.
	DefaultBaseURL = "https://enbw-emp.azure-api.net/emobility-public-api/api/v1"

	// DefaultUserAgent matches what the upstream API expects from
	// well-behaved clients.
	DefaultUserAgent = "Home Assistant"

	// DefaultRefreshInterval bounds how often a station is actually fetched.
	// The poller drops refresh requests that arrive sooner than this.
	DefaultRefreshInterval = 60 * time.Second

	// PollTick is how often the run loop asks the poller to refresh. The
	// poller's own interval throttle decides whether a network call happens.
	PollTick = 15 * time.Second

	// Operation time-outs
	APITimeout  = 1 * time.Second // EnBW API call
	MQTTTimeout = 5 * time.Second // MQTT publish

	// MaxSearchResults caps how many candidates a station search returns.
	MaxSearchResults = 15

	// DefaultDiscoveryPrefix is Home Assistant's default MQTT discovery root.
	DefaultDiscoveryPrefix = "homeassistant"
)
