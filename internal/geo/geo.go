package geo

import "math"

// DegPerKm is the linear degrees-per-kilometre factor used to turn a search
// radius into a bounding box. One degree of latitude is roughly 111 km; we
// apply the same factor to longitude, which overestimates the box away from
// the equator. Good enough for the small radii this tool deals with.
const DegPerKm = 1.0 / 111.0

// Box is a rectangular lat/lon region as expected by the area-search endpoint.
type Box struct {
	FromLat float64
	ToLat   float64
	FromLon float64
	ToLon   float64
}

// BoundingBox approximates the box covering radiusKm around a center point.
func BoundingBox(lat, lon, radiusKm float64) Box {
	d := radiusKm * DegPerKm
	return Box{
		FromLat: lat - d,
		ToLat:   lat + d,
		FromLon: lon - d,
		ToLon:   lon + d,
	}
}

// HaversineKm returns the great-circle distance in kilometres between two
// lat/lon points.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const r = 6371.0 // Earth radius in km
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	lat1Rad := toRad(lat1)
	lat2Rad := toRad(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return r * c
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }
