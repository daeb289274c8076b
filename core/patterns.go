package core

import (
	"fmt"
	"math"

	"github.com/signalsfoundry/uav-trace-synth/model"
)

// Orientation selects the base bearing of a tractor sweep.
type Orientation int

const (
	// OrientationHorizontal sweeps long legs east-west.
	OrientationHorizontal Orientation = iota
	// OrientationVertical sweeps long legs north-south.
	OrientationVertical
)

func (o Orientation) baseBearing() float64 {
	if o == OrientationVertical {
		return 90
	}
	return 0
}

// CircularPlan builds the segment plan for a circular orbit around
// center. One sample corresponds to one second, so the angular speed is
// omega = maxSpeed / radiusMeters rad/s and a full revolution takes
// floor(2*pi/omega) steps of maxSpeed metres each. The start point is
// placed on the circle at startAngleDeg and each step moves along the
// tangent at the current position angle, keeping the walk on the
// circle to within one step's positional error per revolution. A short
// closing segment covers the residual arc left by the floor, so cyclic
// replays of the plan do not translate the orbit.
func CircularPlan(center model.Coordinate, radiusMeters, maxSpeed, startAngleDeg float64) (SegmentPlan, error) {
	if radiusMeters <= 0 {
		return SegmentPlan{}, fmt.Errorf("%w: circular radius %g m", ErrBadPattern, radiusMeters)
	}
	if maxSpeed <= 0 {
		return SegmentPlan{}, fmt.Errorf("%w: circular max speed %g", ErrBadPattern, maxSpeed)
	}

	omega := maxSpeed / radiusMeters
	steps := int(2 * math.Pi / omega)
	if steps < 1 {
		return SegmentPlan{}, fmt.Errorf("%w: speed %g too high for radius %g m (under one step per revolution)",
			ErrBadPattern, maxSpeed, radiusMeters)
	}

	radiusDeg := MetersToDegrees(radiusMeters)
	start := model.Coordinate{
		Lat: center.Lat + radiusDeg*math.Cos(radians(startAngleDeg)),
		Lon: center.Lon + radiusDeg*math.Sin(radians(startAngleDeg)),
	}

	distances := make([]float64, steps)
	bearings := make([]float64, steps)
	for i := 0; i < steps; i++ {
		theta := radians(startAngleDeg) + omega*float64(i)
		distances[i] = maxSpeed
		// Tangent to the circle at position angle theta.
		bearings[i] = degrees(theta) + 90
	}

	if residual := (2*math.Pi - float64(steps)*omega) * radiusMeters; residual > 1e-9 {
		distances = append(distances, residual)
		bearings = append(bearings, degrees(radians(startAngleDeg)+omega*float64(steps))+90)
	}

	return SegmentPlan{Start: start, Distances: distances, Bearings: bearings}, nil
}

// AngularPlan builds a zig-zag lattice: maxTurns repetitions of the
// bearing pair (startAngle+alpha, 180-startAngle-alpha), followed by
// maxTurns repetitions of the mirrored pair (startAngle-alpha,
// 180+startAngle+alpha), every leg maxLength metres.
func AngularPlan(start model.Coordinate, maxLength, startAngleDeg float64, maxTurns int, angleAlphaDeg float64) (SegmentPlan, error) {
	if maxLength <= 0 {
		return SegmentPlan{}, fmt.Errorf("%w: angular leg length %g m", ErrBadPattern, maxLength)
	}
	if maxTurns < 1 {
		return SegmentPlan{}, fmt.Errorf("%w: angular turns %d", ErrBadPattern, maxTurns)
	}

	var distances, bearings []float64
	for turn := 0; turn < maxTurns; turn++ {
		bearings = append(bearings, startAngleDeg+angleAlphaDeg)
		distances = append(distances, maxLength)
		bearings = append(bearings, 180-startAngleDeg-angleAlphaDeg)
		distances = append(distances, maxLength)
	}
	for turn := 0; turn < maxTurns; turn++ {
		bearings = append(bearings, startAngleDeg-angleAlphaDeg)
		distances = append(distances, maxLength)
		bearings = append(bearings, 180+startAngleDeg+angleAlphaDeg)
		distances = append(distances, maxLength)
	}

	return SegmentPlan{Start: start, Distances: distances, Bearings: bearings}, nil
}

// TractorPlan builds a lawn-mower sweep: long legs of maxLength
// alternating between bearings 90-base and 270-base, separated by
// lateral hops of widthBetweenTracks at the base bearing, for maxTurns
// passes, then a full-width return hop and the mirrored return passes.
func TractorPlan(start model.Coordinate, widthBetweenTracks, maxLength float64, maxTurns int, orientation Orientation) (SegmentPlan, error) {
	if widthBetweenTracks <= 0 {
		return SegmentPlan{}, fmt.Errorf("%w: tractor track width %g m", ErrBadPattern, widthBetweenTracks)
	}
	if maxLength <= 0 {
		return SegmentPlan{}, fmt.Errorf("%w: tractor leg length %g m", ErrBadPattern, maxLength)
	}
	if maxTurns < 1 {
		return SegmentPlan{}, fmt.Errorf("%w: tractor turns %d", ErrBadPattern, maxTurns)
	}

	base := orientation.baseBearing()

	var distances, bearings []float64
	distances = append(distances, widthBetweenTracks)
	bearings = append(bearings, base)

	for turn := 0; turn < maxTurns; turn++ {
		if turn%2 == 0 {
			bearings = append(bearings, 90-base)
		} else {
			bearings = append(bearings, 270-base)
		}
		distances = append(distances, maxLength)
		distances = append(distances, widthBetweenTracks)
		bearings = append(bearings, base)
	}

	bearings = append(bearings, 180+base)
	distances = append(distances, widthBetweenTracks)

	for turn := 0; turn < maxTurns; turn++ {
		if turn%2 == 0 {
			bearings = append(bearings, 270-base)
		} else {
			bearings = append(bearings, 90-base)
		}
		distances = append(distances, maxLength)
		bearings = append(bearings, 180+base)
		distances = append(distances, widthBetweenTracks)
	}

	return SegmentPlan{Start: start, Distances: distances, Bearings: bearings}, nil
}

// SquarePlan builds a square centred on center: four legs of sideLength
// at bearings angleDeg - 90*i normalized to [0,360). The start point is
// back-computed from the centre via a diagonal offset of
// sideLength*sqrt(2)/2 at the derived direction -3*angleDeg + 315, so
// the polygon is centred rather than anchored at a corner.
func SquarePlan(center model.Coordinate, sideLength, angleDeg float64) (SegmentPlan, error) {
	if sideLength <= 0 {
		return SegmentPlan{}, fmt.Errorf("%w: square side %g m", ErrBadPattern, sideLength)
	}

	distances := make([]float64, 4)
	bearings := make([]float64, 4)
	for i := 0; i < 4; i++ {
		distances[i] = sideLength
		bearings[i] = normalizeDegrees(angleDeg - 90*float64(i))
	}

	centerDirection := normalizeDegrees(-3*angleDeg + 315)
	halfDiagonalDeg := MetersToDegrees(math.Sqrt2 * sideLength / 2)
	start := model.Coordinate{
		Lat: center.Lat - math.Abs(halfDiagonalDeg*math.Cos(radians(centerDirection))),
		Lon: center.Lon - math.Abs(halfDiagonalDeg*math.Sin(radians(centerDirection))),
	}

	return SegmentPlan{Start: start, Distances: distances, Bearings: bearings}, nil
}

// normalizeDegrees maps an angle into [0, 360).
func normalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
