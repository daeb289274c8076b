package core

import (
	"math"
	"testing"

	"github.com/signalsfoundry/uav-trace-synth/model"
)

func TestHaversine_OneDegreeOfLatitude(t *testing.T) {
	a := model.Coordinate{Lat: 0, Lon: 0}
	b := model.Coordinate{Lat: 1, Lon: 0}

	got := Haversine(a, b)
	want := DegreesToMeters(1)
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("one degree of latitude: got %v m, want %v m", got, want)
	}
}

func TestHaversine_ZeroDistance(t *testing.T) {
	p := model.Coordinate{Lat: 48.77, Lon: 9.17}
	if got := Haversine(p, p); got != 0 {
		t.Errorf("distance to self: got %v, want 0", got)
	}
}

func TestInitialBearing_CardinalDirections(t *testing.T) {
	origin := model.Coordinate{Lat: 0, Lon: 0}

	if got := InitialBearing(origin, model.Coordinate{Lat: 1, Lon: 0}); math.Abs(got) > 1e-12 {
		t.Errorf("bearing due north: got %v rad, want 0", got)
	}
	if got := InitialBearing(origin, model.Coordinate{Lat: 0, Lon: 1}); math.Abs(got-math.Pi/2) > 1e-12 {
		t.Errorf("bearing due east: got %v rad, want pi/2", got)
	}
	if got := InitialBearing(origin, model.Coordinate{Lat: -1, Lon: 0}); math.Abs(got-math.Pi) > 1e-12 {
		t.Errorf("bearing due south: got %v rad, want pi", got)
	}
}

func TestMetersToDegrees_RoundTrip(t *testing.T) {
	const meters = 123.45
	got := DegreesToMeters(MetersToDegrees(meters))
	if math.Abs(got-meters) > 1e-9 {
		t.Errorf("round trip: got %v m, want %v m", got, meters)
	}
}

func TestClampStep_WithinLimit(t *testing.T) {
	start := model.Coordinate{Lat: 10, Lon: 20}
	end := model.Coordinate{Lat: 10 + MetersToDegrees(5), Lon: 20}

	if got := ClampStep(start, end, 10); got != end {
		t.Errorf("step under the limit must pass through unchanged, got %#v", got)
	}
}

func TestClampStep_ClampsToMaxDistance(t *testing.T) {
	start := model.Coordinate{Lat: 10, Lon: 20}
	end := model.Coordinate{Lat: 10 + MetersToDegrees(80), Lon: 20 + MetersToDegrees(60)}

	got := ClampStep(start, end, 10)
	// Degree-space interpolation is only locally accurate, so allow a
	// millimetre of curvature error.
	if d := Haversine(start, got); math.Abs(d-10) > 1e-3 {
		t.Errorf("clamped displacement: got %v m, want 10 m", d)
	}

	// The clamped point stays on the degree-space segment.
	latRatio := (got.Lat - start.Lat) / (end.Lat - start.Lat)
	lonRatio := (got.Lon - start.Lon) / (end.Lon - start.Lon)
	if math.Abs(latRatio-lonRatio) > 1e-9 {
		t.Errorf("clamped point left the segment: lat ratio %v, lon ratio %v", latRatio, lonRatio)
	}
}
