// Package geo provides great-circle math for vessel-to-port distances.
package geo

import "math"

const (
	earthRadiusKm = 6371.0
	kmPerNm       = 1.852
)

// Point is a WGS84 coordinate pair in decimal degrees.
type Point struct {
	Latitude  float64
	Longitude float64
}

// DistanceNm returns the great-circle distance between two points in nautical
// miles, using the haversine formula on a mean Earth radius. Callers are
// responsible for feeding it valid coordinates.
func DistanceNm(a, b Point) float64 {
	dLat := radians(b.Latitude - a.Latitude)
	dLon := radians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(a.Latitude))*math.Cos(radians(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	km := earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return km / kmPerNm
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
