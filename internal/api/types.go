package api

// StationResponse is the decoded payload of the station-detail endpoint. The
// area-search endpoint returns an array of the same objects with lat/lon and
// stationId filled in.
type StationResponse struct {
	StationID                string        `json:"stationId"`
	Lat                      float64       `json:"lat"`
	Lon                      float64       `json:"lon"`
	ShortAddress             string        `json:"shortAddress"`
	NumberOfChargePoints     int           `json:"numberOfChargePoints"`
	AvailableChargePoints    int           `json:"availableChargePoints"`
	UnknownStateChargePoints int           `json:"unknownStateChargePoints"`
	MaxPowerInKw             float64       `json:"maxPowerInKw"`
	PlugTypeNames            []string      `json:"plugTypeNames"`
	ChargePoints             []ChargePoint `json:"chargePoints"`
}

// ChargePoint is one physical EVSE reported by the station.
type ChargePoint struct {
	EvseID     string      `json:"evseId"`
	Status     string      `json:"status"`
	Connectors []Connector `json:"connectors"`
}

// Connector is one plug on a charge point.
type Connector struct {
	PlugTypeName  string  `json:"plugTypeName"`
	CableAttached bool    `json:"cableAttached"`
	MaxPowerInKw  float64 `json:"maxPowerInKw"`
}

// Charge point status values as reported by the API.
const (
	StatusAvailable    = "AVAILABLE"
	StatusOccupied     = "OCCUPIED"
	StatusOutOfService = "OUT_OF_SERVICE"
)
