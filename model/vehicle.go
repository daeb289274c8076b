package model

import "sort"

// Category classifies an agent in the simulation. The category set is
// fixed per run: every ingested vehicle type becomes a category, plus
// CategoryUAV for generated drones.
type Category string

// CategoryUAV is the category assigned to every generated drone.
const CategoryUAV Category = "UAV"

// Coordinate is a geographic position in decimal degrees (WGS84-style
// spherical approximation, no ellipsoid correction).
type Coordinate struct {
	Lat float64
	Lon float64
}

// Sample is one kinematic record of a vehicle at a discrete tick.
// TrackPos, Lane and Slope are passthrough fields from the source trace
// format; generated drones carry the neutral placeholder "0" in all three.
type Sample struct {
	Time    int
	Pos     Coordinate
	Bearing float64 // degrees clockwise from north
	Speed   float64 // metres per second

	TrackPos string
	Lane     string
	Slope    string
}

// Vehicle is a tracked agent (ingested ground vehicle or generated drone)
// with a sparse time series of samples keyed by tick. A vehicle may be
// absent at any tick outside its active window.
type Vehicle struct {
	ID       string
	Category Category

	samples map[int]Sample
}

// NewVehicle constructs an empty vehicle.
func NewVehicle(id string, category Category) *Vehicle {
	return &Vehicle{
		ID:       id,
		Category: category,
		samples:  make(map[int]Sample),
	}
}

// AddSample records a sample at its tick, replacing any previous sample
// at the same tick.
func (v *Vehicle) AddSample(s Sample) {
	v.samples[s.Time] = s
}

// SampleAt returns the sample at the given tick, if present.
func (v *Vehicle) SampleAt(tick int) (Sample, bool) {
	s, ok := v.samples[tick]
	return s, ok
}

// Present reports whether the vehicle has a sample at the given tick.
func (v *Vehicle) Present(tick int) bool {
	_, ok := v.samples[tick]
	return ok
}

// SampleCount returns the number of ticks the vehicle is present at.
func (v *Vehicle) SampleCount() int {
	return len(v.samples)
}

// Ticks returns the ticks the vehicle is present at, in ascending order.
func (v *Vehicle) Ticks() []int {
	out := make([]int, 0, len(v.samples))
	for t := range v.samples {
		out = append(out, t)
	}
	sort.Ints(out)
	return out
}
