package core

import (
	"math"

	"github.com/signalsfoundry/uav-trace-synth/model"
)

// DefaultSmoothing is the exponential smoothing factor applied to the
// raw offset position of a following drone.
const DefaultSmoothing = 0.4

// TrackPoint is one tick of a coordinate track. Present is false when
// the agent has no sample at that tick; the position is then
// meaningless. This replaces the (0,0) absence sentinel of the source
// trace format, which collides with a legitimate equatorial position.
type TrackPoint struct {
	Pos     model.Coordinate
	Present bool
}

// FollowSample is one tick of a generated following track.
type FollowSample struct {
	Pos     model.Coordinate
	Speed   float64
	Present bool
}

// FollowTrack derives a drone track that shadows the given coordinate
// track at a lateral offset. For every present tick the followed
// agent's instantaneous bearing is computed from its positions at i and
// i+1 (falling back to the most recent present tick and i at the end
// of the track), the drone is
// offset by offsetMeters from the agent with a cos(latitude) correction
// on the longitude term, the raw position is exponentially smoothed
// toward the previous drone position, and the per-tick displacement is
// clamped to maxSpeed. Speed is the clamped displacement divided by the
// tick gap since the last emitted sample, rounded to two decimals.
//
// Ticks where the followed agent is absent stay absent in the output.
// The first present tick emits the agent's own position at speed 0.
func FollowTrack(track []TrackPoint, offsetMeters, maxSpeed, smoothing float64) []FollowSample {
	out := make([]FollowSample, 0, len(track))

	seeded := false
	previousTime := 0
	var prev model.Coordinate

	for i, pt := range track {
		if !pt.Present {
			out = append(out, FollowSample{})
			continue
		}

		if !seeded {
			seeded = true
			prev = pt.Pos
			previousTime = i
			out = append(out, FollowSample{Pos: pt.Pos, Speed: 0, Present: true})
			continue
		}

		bearing, ok := trackBearing(track, i)
		if !ok {
			// No direction defined: hold the previous drone position.
			out = append(out, FollowSample{Pos: prev, Speed: 0, Present: true})
			previousTime = i
			continue
		}

		offsetDeg := MetersToDegrees(offsetMeters)
		raw := model.Coordinate{
			Lat: pt.Pos.Lat - offsetDeg*math.Cos(bearing),
			Lon: pt.Pos.Lon - offsetDeg/math.Cos(radians(pt.Pos.Lat))*math.Sin(bearing),
		}

		smoothed := model.Coordinate{
			Lat: prev.Lat + smoothing*(raw.Lat-prev.Lat),
			Lon: prev.Lon + smoothing*(raw.Lon-prev.Lon),
		}
		next := ClampStep(prev, smoothed, maxSpeed)

		gap := i - previousTime
		speed := Haversine(prev, next) / float64(gap)
		speed = math.Round(speed*100) / 100

		out = append(out, FollowSample{Pos: next, Speed: speed, Present: true})
		prev = next
		previousTime = i
	}

	return out
}

// trackBearing returns the followed agent's bearing at tick i, using
// the next present tick when possible and the most recent present tick
// at the end of the track. ok is false when no direction is defined
// (isolated sample, or the agent has not moved since its last sample).
func trackBearing(track []TrackPoint, i int) (float64, bool) {
	if i+1 < len(track) && track[i+1].Present && track[i+1].Pos != track[i].Pos {
		return InitialBearing(track[i].Pos, track[i+1].Pos), true
	}
	for j := i - 1; j >= 0; j-- {
		if !track[j].Present {
			continue
		}
		if track[j].Pos != track[i].Pos {
			return InitialBearing(track[j].Pos, track[i].Pos), true
		}
		// Stationary since tick j.
		break
	}
	return 0, false
}
