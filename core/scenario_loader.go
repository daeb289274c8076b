package core

import (
	"context"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/uav-trace-synth/internal/logging"
	"github.com/signalsfoundry/uav-trace-synth/model"
)

// Scenario is a declarative run description: which trace to ingest,
// which drones to synthesize, and what to export. Entries are applied
// in order.
type Scenario struct {
	Trace   string       `yaml:"trace"`
	Drones  []DroneSpec  `yaml:"drones"`
	Legends []LegendSpec `yaml:"legends"`
	Remove  []string     `yaml:"remove"`
	Export  *ExportSpec  `yaml:"export"`
}

// PointSpec is a coordinate in a scenario file.
type PointSpec struct {
	Lat float64 `yaml:"lat"`
	Lon float64 `yaml:"lon"`
}

func (p *PointSpec) coordinate() model.Coordinate {
	return model.Coordinate{Lat: p.Lat, Lon: p.Lon}
}

// DroneSpec selects a pattern and carries its parameter group. Fields
// irrelevant to the selected pattern are ignored; omitted numeric
// parameters fall back to the pattern defaults.
type DroneSpec struct {
	Pattern string `yaml:"pattern"`

	Point      *PointSpec `yaml:"point"`       // static
	Center     *PointSpec `yaml:"center"`      // circular, square
	StartPoint *PointSpec `yaml:"start_point"` // angular, tractor

	RadiusMeters float64 `yaml:"radius_m"`               // circular
	SideMeters   float64 `yaml:"side_m"`                 // square
	MaxLength    float64 `yaml:"max_length_m"`           // angular, tractor
	TrackWidth   float64 `yaml:"width_between_tracks_m"` // tractor
	MaxTurns     int     `yaml:"max_turns"`              // angular, tractor
	StartAngle   float64 `yaml:"start_angle"`            // circular, angular
	AngleAlpha   float64 `yaml:"angle_alpha"`            // angular
	AngleDegrees float64 `yaml:"angle_degrees"`          // square
	Orientation  string  `yaml:"orientation"`            // tractor

	VehicleID    string  `yaml:"vehicle_id"` // following
	OffsetMeters float64 `yaml:"offset_m"`   // following

	MaxSpeed float64 `yaml:"max_speed"`
}

// LegendSpec renames a category's display label.
type LegendSpec struct {
	Category string `yaml:"category"`
	Label    string `yaml:"label"`
}

// ExportSpec controls trace serialization at the end of a run.
type ExportSpec struct {
	Path   string `yaml:"path"`
	Planar bool   `yaml:"planar"`
}

// ScenarioResult summarizes what a scenario run produced.
type ScenarioResult struct {
	DroneIDs []string
	Skipped  int
}

// Scenario parameter defaults, matching the original configuration
// surface.
const (
	defaultMaxSpeed    = 10.0
	defaultMaxTurns    = 3
	defaultAngleAlpha  = 30.0
	defaultSquareAngle = 90.0
)

// LoadScenario decodes a YAML scenario from r.
func LoadScenario(r io.Reader) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if sc.Trace == "" {
		return nil, fmt.Errorf("scenario missing trace path")
	}
	return &sc, nil
}

// Run applies the scenario to an already-ingested simulation: drones
// first, then legend renames, removals, and finally the export, if
// requested. Unrecognized drone patterns are skipped with a warning;
// everything else fails hard.
func (sc *Scenario) Run(sim *Simulation, log logging.Logger) (*ScenarioResult, error) {
	if log == nil {
		log = logging.Noop()
	}
	ctx := context.Background()
	result := &ScenarioResult{}

	for i, spec := range sc.Drones {
		id, err := spec.create(sim)
		if err == errUnknownPattern {
			log.Warn(ctx, "unrecognized drone pattern, skipping",
				logging.Int("entry", i),
				logging.String("pattern", spec.Pattern),
			)
			result.Skipped++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("drone entry %d (%s): %w", i, spec.Pattern, err)
		}
		result.DroneIDs = append(result.DroneIDs, id)
	}

	for _, legend := range sc.Legends {
		if err := sim.RenameCategoryLabel(model.Category(legend.Category), legend.Label); err != nil {
			return nil, err
		}
	}

	for _, id := range sc.Remove {
		if err := sim.RemoveVehicle(id); err != nil {
			return nil, err
		}
	}

	if sc.Export != nil {
		if err := sim.ExportTraceFile(sc.Export.Path, sc.Export.Planar); err != nil {
			return nil, fmt.Errorf("export to %q: %w", sc.Export.Path, err)
		}
	}

	return result, nil
}

var errUnknownPattern = fmt.Errorf("unknown pattern")

func (spec DroneSpec) create(sim *Simulation) (string, error) {
	maxSpeed := spec.MaxSpeed
	if maxSpeed == 0 {
		maxSpeed = defaultMaxSpeed
	}
	maxTurns := spec.MaxTurns
	if maxTurns == 0 {
		maxTurns = defaultMaxTurns
	}
	angleAlpha := spec.AngleAlpha
	if angleAlpha == 0 {
		angleAlpha = defaultAngleAlpha
	}
	angleDeg := spec.AngleDegrees
	if angleDeg == 0 {
		angleDeg = defaultSquareAngle
	}

	switch strings.ToLower(spec.Pattern) {
	case "circular":
		if spec.Center == nil {
			return "", fmt.Errorf("%w: circular pattern missing center", ErrBadPattern)
		}
		return sim.CreateCircularDrone(spec.Center.coordinate(), spec.RadiusMeters, maxSpeed, spec.StartAngle)
	case "angular":
		if spec.StartPoint == nil {
			return "", fmt.Errorf("%w: angular pattern missing start_point", ErrBadPattern)
		}
		return sim.CreateAngularDrone(spec.StartPoint.coordinate(), spec.MaxLength, spec.StartAngle, maxTurns, angleAlpha, maxSpeed)
	case "tractor":
		if spec.StartPoint == nil {
			return "", fmt.Errorf("%w: tractor pattern missing start_point", ErrBadPattern)
		}
		orientation := OrientationHorizontal
		if strings.EqualFold(spec.Orientation, "vertical") {
			orientation = OrientationVertical
		}
		return sim.CreateTractorDrone(spec.StartPoint.coordinate(), spec.TrackWidth, spec.MaxLength, maxTurns, orientation, maxSpeed)
	case "square":
		if spec.Center == nil {
			return "", fmt.Errorf("%w: square pattern missing center", ErrBadPattern)
		}
		return sim.CreateSquareDrone(spec.Center.coordinate(), spec.SideMeters, angleDeg, maxSpeed)
	case "static":
		if spec.Point == nil {
			return "", fmt.Errorf("%w: static pattern missing point", ErrBadPattern)
		}
		return sim.CreateStaticDrone(spec.Point.coordinate())
	case "following":
		if spec.VehicleID == "" {
			return "", fmt.Errorf("%w: following pattern missing vehicle_id", ErrBadPattern)
		}
		return sim.CreateFollowingDrone(spec.VehicleID, spec.OffsetMeters, maxSpeed)
	default:
		return "", errUnknownPattern
	}
}
