// Package geo provides great-circle math and coordinate validation for
// positioning wireless sightings on a spherical Earth model.
package geo

import "math"

// EarthRadiusMeters is the mean Earth radius used by the haversine
// approximation.
const EarthRadiusMeters = 6371000.0

const degToRad = math.Pi / 180

// Distance returns the great-circle distance in meters between two
// points given in decimal degrees, using the haversine formula.
//
// The function performs no input validation; callers are expected to
// screen coordinates with ValidCoordinate first. It is called once per
// consecutive sighting pair when summing movement paths, so it stays
// allocation free. Identical points return exactly 0.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	if lat1 == lat2 && lon1 == lon2 {
		return 0
	}

	dLat := (lat2 - lat1) * degToRad
	dLon := (lon2 - lon1) * degToRad

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	a := sinLat*sinLat + math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*sinLon*sinLon
	if a > 1 {
		a = 1 // clamp rounding error out of the asin domain
	}

	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(a))
}

// ValidCoordinate reports whether a latitude/longitude pair is usable
// for distance accumulation and mapping. A pair is unusable when either
// value is out of range, or when both are exactly zero, which capture
// sources emit as a placeholder for "no GPS fix".
func ValidCoordinate(lat, lon float64) bool {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return false
	}
	return lat != 0 || lon != 0
}
