package core

import (
	"math"

	"github.com/signalsfoundry/uav-trace-synth/model"
)

// EarthRadiusMeters is the mean Earth radius used by all geodesic
// calculations in the synthesis engine. The Earth is modelled as a
// sphere; there is no ellipsoid correction and no altitude term.
const EarthRadiusMeters = 6371000.0

// Haversine returns the great-circle distance between two coordinates
// in metres.
func Haversine(a, b model.Coordinate) float64 {
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(a.Lat))*math.Cos(radians(b.Lat))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusMeters * c
}

// InitialBearing returns the initial compass bearing from a to b in
// radians. The result is undefined when a == b; callers must guard.
func InitialBearing(a, b model.Coordinate) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLon := radians(b.Lon - a.Lon)

	x := math.Sin(dLon) * math.Cos(lat2)
	y := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	return math.Atan2(x, y)
}

// MetersToDegrees converts a distance in metres to arc degrees on the
// sphere. This is a small-angle approximation: it does not correct for
// the latitude-dependent longitude scale.
func MetersToDegrees(m float64) float64 {
	return m / EarthRadiusMeters * (180 / math.Pi)
}

// DegreesToMeters converts arc degrees back to metres on the sphere.
func DegreesToMeters(d float64) float64 {
	return d * EarthRadiusMeters * (math.Pi / 180)
}

// ClampStep limits the displacement from start to end to maxMeters,
// preserving direction. When the haversine distance exceeds maxMeters
// the returned point is interpolated linearly in degree space, which is
// only locally accurate; otherwise end is returned unchanged.
func ClampStep(start, end model.Coordinate, maxMeters float64) model.Coordinate {
	d := Haversine(start, end)
	if d <= maxMeters {
		return end
	}
	ratio := maxMeters / d
	return model.Coordinate{
		Lat: start.Lat + (end.Lat-start.Lat)*ratio,
		Lon: start.Lon + (end.Lon-start.Lon)*ratio,
	}
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
