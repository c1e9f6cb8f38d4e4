package station

import (
	"fmt"
	"strconv"
	"time"

	"enbw-hass/internal/api"
)

// Entity components as understood by Home Assistant MQTT discovery.
const (
	ComponentSensor       = "sensor"
	ComponentBinarySensor = "binary_sensor"
)

// Binary sensor state payloads.
const (
	StateOn  = "ON"
	StateOff = "OFF"
)

// Attribute keys exposed on entities. They mirror the upstream API field
// names so dashboards can template against them directly.
const (
	attrCableAttached         = "cableAttached"
	attrPlugTypeName          = "plugTypeName"
	attrMaxPowerInKw          = "maxPowerInKw"
	attrMaxPowerPerPlugType   = "maxPowerInKwPerPlugType"
	attrEvseID                = "evseId"
	attrState                 = "state"
	attrStationID             = "stationId"
	attrLatitude              = "latitude"
	attrLongitude             = "longitude"
	attrAddress               = "address"
	attrUpdatedAt             = "updatedAt"
	attrAvailableChargePoints = "availableChargePoints"
	attrTotalChargePoints     = "totalChargePoints"
	attrOutOfService          = "isOutOfService"
	attrColor                 = "color"
)

// Entity is one value derived from a station payload. Implementations never
// fail: when the payload lacks what an entity needs, that entity simply keeps
// its previous state for this refresh.
type Entity interface {
	EntityID() string
	Name() string
	Component() string
	State() string
	Attributes() map[string]any
	Icon() string
	UpdateFromResponse(resp *api.StationResponse)
}

// baseEntity carries the state shared by all entity variants.
type baseEntity struct {
	station  *Poller
	entityID string
	name     string
	state    string
	attrs    map[string]any
	icon     string
}

func (e *baseEntity) EntityID() string { return e.entityID }
func (e *baseEntity) Name() string     { return e.name }
func (e *baseEntity) State() string    { return e.state }
func (e *baseEntity) Icon() string     { return e.icon }

// Attributes returns a copy so callers cannot mutate entity state.
func (e *baseEntity) Attributes() map[string]any {
	out := make(map[string]any, len(e.attrs))
	for k, v := range e.attrs {
		out[k] = v
	}
	return out
}

func (e *baseEntity) updateState(state string) { e.state = state }

func (e *baseEntity) updateBinaryState(on bool) {
	if on {
		e.state = StateOn
	} else {
		e.state = StateOff
	}
}

func (e *baseEntity) updateAttributes(attrs map[string]any) {
	if e.attrs == nil {
		e.attrs = make(map[string]any, len(attrs))
	}
	for k, v := range attrs {
		e.attrs[k] = v
	}
}

func (e *baseEntity) updateIcon(icon string) { e.icon = icon }

func (e *baseEntity) updatedAt() string {
	return e.station.updatedAt().UTC().Format(time.RFC3339)
}

// -----------------------------------------------------------------------------
// Count sensors
// -----------------------------------------------------------------------------

type countKind int

const (
	countTotal countKind = iota
	countAvailable
	countUnknown
)

// CountSensor reads one integer field from the payload: total, available or
// unknown-state charge points. The available variant additionally records the
// station coordinates as attributes.
type CountSensor struct {
	baseEntity
	kind countKind
}

func newCountSensor(station *Poller, kind countKind) *CountSensor {
	var suffix, label string
	switch kind {
	case countTotal:
		suffix, label = "total_charge_points", "Total Charge Points"
	case countAvailable:
		suffix, label = "available_charge_points", "Available Charge Points"
	case countUnknown:
		suffix, label = "unknown_state_charge_points", "Unknown State Charge Points"
	}
	return &CountSensor{
		baseEntity: baseEntity{
			station:  station,
			entityID: GenerateEntityID(fmt.Sprintf("%s_%s", station.UniqueID(), suffix)),
			name:     fmt.Sprintf("%s %s", station.Name(), label),
			icon:     "mdi:ev-station",
		},
		kind: kind,
	}
}

func (s *CountSensor) Component() string { return ComponentSensor }

func (s *CountSensor) UpdateFromResponse(resp *api.StationResponse) {
	switch s.kind {
	case countTotal:
		s.updateState(strconv.Itoa(resp.NumberOfChargePoints))
	case countAvailable:
		s.updateState(strconv.Itoa(resp.AvailableChargePoints))
		s.updateAttributes(map[string]any{
			attrLatitude:  strconv.FormatFloat(resp.Lat, 'f', -1, 64),
			attrLongitude: strconv.FormatFloat(resp.Lon, 'f', -1, 64),
			attrUpdatedAt: s.updatedAt(),
		})
	case countUnknown:
		s.updateState(strconv.Itoa(resp.UnknownStateChargePoints))
	}
}

// -----------------------------------------------------------------------------
// Station availability binary sensor
// -----------------------------------------------------------------------------

// StateBinarySensor is the station-level availability flag: on when at least
// one charge point is available. Its attributes aggregate, per plug type, the
// cable-attached OR and rated-power MAX across all connectors of all points.
type StateBinarySensor struct {
	baseEntity
}

func newStateBinarySensor(station *Poller) *StateBinarySensor {
	return &StateBinarySensor{
		baseEntity: baseEntity{
			station:  station,
			entityID: GenerateEntityID(fmt.Sprintf("%s_state", station.UniqueID())),
			name:     station.Name(),
		},
	}
}

func (s *StateBinarySensor) Component() string { return ComponentBinarySensor }

func (s *StateBinarySensor) UpdateFromResponse(resp *api.StationResponse) {
	on := resp.AvailableChargePoints > 0
	s.updateBinaryState(on)

	var connectors []api.Connector
	for _, point := range resp.ChargePoints {
		connectors = append(connectors, point.Connectors...)
	}

	cableAttached := make(map[string]bool, len(resp.PlugTypeNames))
	maxPower := make(map[string]float64, len(resp.PlugTypeNames))
	for _, typeName := range resp.PlugTypeNames {
		for _, connector := range connectors {
			if connector.PlugTypeName != typeName {
				continue
			}
			cableAttached[typeName] = cableAttached[typeName] || connector.CableAttached
			if connector.MaxPowerInKw > maxPower[typeName] {
				maxPower[typeName] = connector.MaxPowerInKw
			}
		}
	}

	s.updateAttributes(map[string]any{
		attrCableAttached:         cableAttached,
		attrPlugTypeName:          resp.PlugTypeNames,
		attrMaxPowerInKw:          resp.MaxPowerInKw,
		attrMaxPowerPerPlugType:   maxPower,
		attrStationID:             resp.StationID,
		attrAddress:               resp.ShortAddress,
		attrAvailableChargePoints: resp.AvailableChargePoints,
		attrTotalChargePoints:     resp.NumberOfChargePoints,
		attrUpdatedAt:             s.updatedAt(),
	})

	if on {
		s.updateIcon("mdi:car-electric-outline")
	} else {
		s.updateIcon("mdi:car-electric")
	}
}

// -----------------------------------------------------------------------------
// Per charge point binary sensor
// -----------------------------------------------------------------------------

// ChargePointBinarySensor tracks occupancy of one EVSE. It matches itself to
// the payload by its fixed evseId; when the id is absent from a refresh the
// sensor keeps its previous value.
type ChargePointBinarySensor struct {
	baseEntity
	pointID string
	index   int
}

func newChargePointBinarySensor(station *Poller, pointID string, index int) *ChargePointBinarySensor {
	return &ChargePointBinarySensor{
		baseEntity: baseEntity{
			station:  station,
			entityID: GenerateEntityID(fmt.Sprintf("%s_charge_point_%d", station.UniqueID(), index)),
			name:     fmt.Sprintf("%s Charge Point %d", station.Name(), index),
		},
		pointID: pointID,
		index:   index,
	}
}

func (s *ChargePointBinarySensor) Component() string { return ComponentBinarySensor }

// PointID returns the fixed EVSE id this sensor is bound to.
func (s *ChargePointBinarySensor) PointID() string { return s.pointID }

func (s *ChargePointBinarySensor) UpdateFromResponse(resp *api.StationResponse) {
	var point *api.ChargePoint
	for i := range resp.ChargePoints {
		if resp.ChargePoints[i].EvseID == s.pointID {
			point = &resp.ChargePoints[i]
			break
		}
	}
	if point == nil {
		return
	}

	occupied := point.Status != api.StatusAvailable
	s.updateBinaryState(occupied)

	plugTypeNames := make([]string, 0, len(point.Connectors))
	cableAttached := make([]bool, 0, len(point.Connectors))
	maxPower := make([]float64, 0, len(point.Connectors))
	for _, connector := range point.Connectors {
		plugTypeNames = append(plugTypeNames, connector.PlugTypeName)
		cableAttached = append(cableAttached, connector.CableAttached)
		maxPower = append(maxPower, connector.MaxPowerInKw)
	}

	s.updateAttributes(map[string]any{
		attrCableAttached: cableAttached,
		attrPlugTypeName:  plugTypeNames,
		attrMaxPowerInKw:  maxPower,
		attrAddress:       resp.ShortAddress,
		attrEvseID:        point.EvseID,
		attrState:         point.Status,
		attrStationID:     resp.StationID,
		attrUpdatedAt:     s.updatedAt(),
		attrOutOfService:  point.Status == api.StatusOutOfService,
		attrColor:         statusColor(point.Status),
	})

	s.updateIcon(chargePointIcon(occupied, plugTypeNames))
}

// statusColor maps a charge point status to its display color.
func statusColor(status string) string {
	switch status {
	case api.StatusAvailable:
		return "green"
	case api.StatusOccupied:
		return "gold"
	default:
		return "red"
	}
}

func chargePointIcon(occupied bool, plugTypeNames []string) string {
	if occupied {
		return "mdi:car-electric-outline"
	}
	if len(plugTypeNames) != 1 {
		return "mdi:car-electric"
	}
	switch plugTypeNames[0] {
	case "Typ 2", "Type 2":
		return "mdi:ev-plug-type2"
	case "CCS (Typ 2)":
		return "mdi:ev-plug-ccs2"
	case "CHAdeMO":
		return "mdi:ev-plug-chademo"
	default:
		return "mdi:car-electric"
	}
}
