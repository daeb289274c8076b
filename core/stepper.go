package core

import (
	"errors"
	"fmt"
	"math"

	"github.com/signalsfoundry/uav-trace-synth/model"
)

// ErrBadPattern flags degenerate pattern geometry rejected at the
// builder boundary (zero radius, empty segment lists, and so on).
var ErrBadPattern = errors.New("invalid pattern geometry")

// SegmentPlan is a cyclic polyline: an ordered list of (distance,
// bearing) segments walked from Start at a constant per-tick step.
// Distances are metres, bearings degrees clockwise from north.
type SegmentPlan struct {
	Start     model.Coordinate
	Distances []float64
	Bearings  []float64
}

// PatternSample is one generated position with its per-tick speed.
type PatternSample struct {
	Pos   model.Coordinate
	Speed float64
}

func (p SegmentPlan) validate() error {
	if len(p.Distances) == 0 {
		return fmt.Errorf("%w: empty segment list", ErrBadPattern)
	}
	if len(p.Distances) != len(p.Bearings) {
		return fmt.Errorf("%w: %d distances vs %d bearings", ErrBadPattern, len(p.Distances), len(p.Bearings))
	}
	for i, d := range p.Distances {
		if d <= 0 {
			return fmt.Errorf("%w: segment %d has non-positive length %g", ErrBadPattern, i, d)
		}
	}
	return nil
}

// GeneratePattern walks the plan's segments and emits exactly
// sampleCount samples, one per tick. The first sample is always the
// unmodified start point at speed 0; every later sample advances the
// position by maxSpeed metres (converted to degrees) along the current
// segment's bearing. The segment list is replayed cyclically as often
// as needed, so the shape is not required to close on a boundary
// aligned with sampleCount.
//
// The very first segment is shrunk by sqrt(2) so composite shapes start
// at a diagonal offset from their logical corner. When a step would
// overshoot the current segment, the unused fraction of that tick's
// displacement is carried over along the next segment's bearing rather
// than truncated, so no speed is lost at corners. A segment whose
// remaining length is exactly zero advances the turn without emitting.
func GeneratePattern(plan SegmentPlan, sampleCount int, maxSpeed float64) ([]PatternSample, error) {
	if err := plan.validate(); err != nil {
		return nil, err
	}
	if sampleCount <= 0 {
		return nil, fmt.Errorf("%w: sample count %d", ErrBadPattern, sampleCount)
	}
	if maxSpeed <= 0 {
		return nil, fmt.Errorf("%w: max speed %g", ErrBadPattern, maxSpeed)
	}

	out := make([]PatternSample, 0, sampleCount)
	out = append(out, PatternSample{Pos: plan.Start, Speed: 0})

	stepDeg := MetersToDegrees(maxSpeed)
	pos := plan.Start

	turn := 0
	toCover := MetersToDegrees(plan.Distances[turn]) / math.Sqrt2
	bearing := plan.Bearings[turn]
	covered := 0.0

	advance := func(distDeg, bearingDeg float64) {
		rad := radians(bearingDeg)
		pos.Lat += distDeg * math.Cos(rad)
		pos.Lon += distDeg * math.Sin(rad)
	}

	for len(out) < sampleCount {
		if covered+stepDeg <= toCover {
			advance(stepDeg, bearing)
			covered += stepDeg
			out = append(out, PatternSample{Pos: pos, Speed: maxSpeed})
			continue
		}

		remaining := toCover - covered
		if remaining > 0 {
			// Finish the segment, then spend the rest of this tick's
			// displacement along the next segment's bearing.
			advance(remaining, bearing)
			carried := stepDeg - remaining

			turn = (turn + 1) % len(plan.Distances)
			toCover = MetersToDegrees(plan.Distances[turn])
			bearing = plan.Bearings[turn]

			advance(carried, bearing)
			covered = carried
			out = append(out, PatternSample{Pos: pos, Speed: maxSpeed})
			continue
		}

		// Segment consumed exactly: advance the turn without emitting.
		turn = (turn + 1) % len(plan.Distances)
		toCover = MetersToDegrees(plan.Distances[turn])
		bearing = plan.Bearings[turn]
		covered = 0
	}

	return out, nil
}
