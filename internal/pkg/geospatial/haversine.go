package geospatial

import "math"

const (
	earthRadiusKm   = 6371.0
	metersPerDegLat = 111320.0
)

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c * 1000 // meters
}

// PlanarDistance approximates the ground distance in meters between two
// points by treating degrees as a flat grid (Δlat·111 km, Δlng·111 km·cos lat).
// Good enough at the tens-of-meters scale the dedup radius works at.
func PlanarDistance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * metersPerDegLat
	dLng := (lng2 - lng1) * metersPerDegLat * math.Cos(toRad(lat1))
	return math.Sqrt(dLat*dLat + dLng*dLng)
}

// BoundingBox returns a bounding box around a point with the given radius in
// meters, using the same planar approximation.
func BoundingBox(lat, lng, radiusMeters float64) (minLat, minLng, maxLat, maxLng float64) {
	latDelta := radiusMeters / metersPerDegLat
	lngDelta := radiusMeters / (metersPerDegLat * math.Cos(toRad(lat)))

	return lat - latDelta, lng - lngDelta, lat + latDelta, lng + lngDelta
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
