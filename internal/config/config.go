package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the enbw-hass application
type Config struct {
	// Station identity
	Name          string `yaml:"name"`           // Display name for the station
	StationNumber string `yaml:"station_number"` // EnBW station number
	APIKey        string `yaml:"api_key"`        // Ocp-Apim subscription key

	// Home location, used to rank search results by distance
	HomeLatitude   float64 `yaml:"latitude"`
	HomeLongitude  float64 `yaml:"longitude"`
	SearchRadiusKm float64 `yaml:"search_radius"` // Station search radius in km

	// MQTT Configuration
	MQTTUrl         string `yaml:"mqtt_url"`         // MQTT URL (supports both WebSocket and standard MQTT)
	DiscoveryPrefix string `yaml:"discovery_prefix"` // Home Assistant discovery prefix

	// HTTP status server; empty disables it
	HTTPListen string `yaml:"http_listen"`

	// API Configuration
	BaseURL         string `yaml:"base_url"`         // EnBW API base URL
	UserAgent       string `yaml:"user_agent"`       // User-Agent header value
	RefreshInterval int    `yaml:"refresh_interval"` // Minimum seconds between station fetches

	// Application Configuration
	Verbose bool `yaml:"verbose"` // Enable verbose logging
}

// GetDefaultConfig returns a configuration with sensible defaults
func GetDefaultConfig() *Config {
	return &Config{
		Name:            "Charge Station",
		DiscoveryPrefix: DefaultDiscoveryPrefix,
		BaseURL:         DefaultBaseURL,
		UserAgent:       DefaultUserAgent,
		RefreshInterval: int(DefaultRefreshInterval / time.Second),
		SearchRadiusKm:  5,
	}
}

// LoadFile overlays values from a YAML config file onto the receiver.
// Fields absent from the file keep their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: decode yaml: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.StationNumber == "" {
		return fmt.Errorf("station number is required")
	}
	if c.APIKey == "" {
		return fmt.Errorf("API key is required")
	}

	// MQTT validation - support both WebSocket and standard MQTT protocols
	if c.MQTTUrl != "" {
		if !strings.HasPrefix(c.MQTTUrl, "ws://") &&
			!strings.HasPrefix(c.MQTTUrl, "wss://") &&
			!strings.HasPrefix(c.MQTTUrl, "mqtt://") &&
			!strings.HasPrefix(c.MQTTUrl, "mqtts://") {
			return fmt.Errorf("MQTT URL must use supported protocol (ws://, wss://, mqtt://, or mqtts://)")
		}
	}

	if c.SearchRadiusKm < 0 {
		return fmt.Errorf("search radius must not be negative")
	}

	// Set defaults for invalid values
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = int(DefaultRefreshInterval / time.Second)
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}

	return nil
}

// HasMQTT returns true if MQTT is configured
func (c *Config) HasMQTT() bool {
	return c.MQTTUrl != ""
}

// GetRefreshInterval returns the refresh throttle as a duration
func (c *Config) GetRefreshInterval() time.Duration {
	return time.Duration(c.RefreshInterval) * time.Second
}
