package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/signalsfoundry/uav-trace-synth/internal/logging"
	"github.com/signalsfoundry/uav-trace-synth/model"
)

var (
	ErrVehicleNotFound = errors.New("vehicle not found")
	ErrVehicleExists   = errors.New("vehicle already exists")
	ErrUnknownCategory = errors.New("unknown category")
	ErrNoTrace         = errors.New("no trace ingested")
)

// dronePlaceholder is the neutral value carried in the passthrough
// fields (pos, lane, slope) of every generated sample.
const dronePlaceholder = "0"

// Recorder receives synthesis metrics. The observability package
// provides a Prometheus-backed implementation; a nil Recorder on the
// Simulation disables recording.
type Recorder interface {
	DroneCreated(pattern string)
	SamplesGenerated(n int)
	IngestObserved(ticks int, seconds float64)
	ExportObserved(seconds float64)
	RegistrySize(vehicles int)
}

type nopRecorder struct{}

func (nopRecorder) DroneCreated(string)         {}
func (nopRecorder) SamplesGenerated(int)        {}
func (nopRecorder) IngestObserved(int, float64) {}
func (nopRecorder) ExportObserved(float64)      {}
func (nopRecorder) RegistrySize(int)            {}

// Simulation owns the registry of agents for one run: the ingested
// ground vehicles plus every generated drone. A Simulation is
// exclusively owned by its caller; all operations are synchronous
// in-memory computation, the only I/O being trace ingest and export.
type Simulation struct {
	log logging.Logger
	rec Recorder

	vehicles map[string]*model.Vehicle
	labels   map[model.Category]string

	// order tracks first-encounter insertion order so exports emit
	// vehicle records in a stable order matching the source trace.
	order []string

	// lastTick is the highest tick stored during ingestion (source
	// times are truncated and offset by +1, reserving tick 0). It is
	// also the sample count contract for every generated pattern.
	lastTick int

	tracePath    string
	droneCounter int
}

// NewSimulation constructs an empty simulation. log and rec may be nil.
func NewSimulation(log logging.Logger, rec Recorder) *Simulation {
	if log == nil {
		log = logging.Noop()
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Simulation{
		log:      log,
		rec:      rec,
		vehicles: make(map[string]*model.Vehicle),
		labels:   map[model.Category]string{model.CategoryUAV: string(model.CategoryUAV)},
	}
}

// LastIngestedTick returns the highest tick present in the ingested
// trace after the +1 offset. It is 0 before any trace is loaded.
func (s *Simulation) LastIngestedTick() int { return s.lastTick }

// MaxTickExclusive returns the exclusive upper bound for tick
// iteration: every lookup walks ticks [0, MaxTickExclusive).
func (s *Simulation) MaxTickExclusive() int { return s.lastTick + 1 }

// TracePath returns the path of the ingested source trace, if any.
func (s *Simulation) TracePath() string { return s.tracePath }

// VehicleByID returns the vehicle with the given id.
func (s *Simulation) VehicleByID(id string) (*model.Vehicle, error) {
	v, ok := s.vehicles[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrVehicleNotFound, id)
	}
	return v, nil
}

// AddVehicle inserts an externally built vehicle, registering its
// category with a default display label when unseen.
func (s *Simulation) AddVehicle(v *model.Vehicle) error {
	if _, exists := s.vehicles[v.ID]; exists {
		return fmt.Errorf("%w: %q", ErrVehicleExists, v.ID)
	}
	s.vehicles[v.ID] = v
	s.order = append(s.order, v.ID)
	if _, ok := s.labels[v.Category]; !ok {
		s.labels[v.Category] = string(v.Category)
	}
	s.rec.RegistrySize(len(s.vehicles))
	return nil
}

// RemoveVehicle deletes a vehicle from the registry.
func (s *Simulation) RemoveVehicle(id string) error {
	if _, ok := s.vehicles[id]; !ok {
		return fmt.Errorf("%w: %q", ErrVehicleNotFound, id)
	}
	delete(s.vehicles, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.rec.RegistrySize(len(s.vehicles))
	s.log.Info(context.Background(), "vehicle removed", logging.String("id", id))
	return nil
}

// RenameCategoryLabel changes the display label of a known category.
func (s *Simulation) RenameCategoryLabel(category model.Category, label string) error {
	if _, ok := s.labels[category]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	s.labels[category] = label
	return nil
}

// CategoryLabels returns a copy of the category display-label mapping.
func (s *Simulation) CategoryLabels() map[model.Category]string {
	out := make(map[model.Category]string, len(s.labels))
	for c, l := range s.labels {
		out[c] = l
	}
	return out
}

// Timeline returns one entry per tick in [0, MaxTickExclusive) for the
// given vehicle, nil where the vehicle is absent.
func (s *Simulation) Timeline(id string) ([]*model.Sample, error) {
	v, err := s.VehicleByID(id)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Sample, s.MaxTickExclusive())
	for tick := range out {
		if sample, ok := v.SampleAt(tick); ok {
			c := sample
			out[tick] = &c
		}
	}
	return out, nil
}

// CategoryTracks bundles the per-tick coordinate tracks of every
// vehicle in one category, in the shape the plot/video renderer
// consumes. Absence is explicit via TrackPoint.Present.
type CategoryTracks struct {
	Category   model.Category
	Label      string
	VehicleIDs []string
	Tracks     [][]TrackPoint
}

// CoordinateVectors returns the coordinate tracks of every vehicle,
// grouped by category. Categories and vehicles are sorted for
// deterministic output; every track spans ticks [0, MaxTickExclusive).
func (s *Simulation) CoordinateVectors() []CategoryTracks {
	byCategory := make(map[model.Category][]string)
	for id, v := range s.vehicles {
		byCategory[v.Category] = append(byCategory[v.Category], id)
	}

	categories := make([]model.Category, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

	out := make([]CategoryTracks, 0, len(categories))
	for _, c := range categories {
		ids := byCategory[c]
		sort.Strings(ids)

		tracks := make([][]TrackPoint, 0, len(ids))
		for _, id := range ids {
			v := s.vehicles[id]
			track := make([]TrackPoint, s.MaxTickExclusive())
			for tick := range track {
				if sample, ok := v.SampleAt(tick); ok {
					track[tick] = TrackPoint{Pos: sample.Pos, Present: true}
				}
			}
			tracks = append(tracks, track)
		}

		out = append(out, CategoryTracks{
			Category:   c,
			Label:      s.labels[c],
			VehicleIDs: ids,
			Tracks:     tracks,
		})
	}
	return out
}

//
// ---------- Drone creation ----------
//

// CreateCircularDrone adds a drone orbiting center at radiusMeters.
func (s *Simulation) CreateCircularDrone(center model.Coordinate, radiusMeters, maxSpeed, startAngleDeg float64) (string, error) {
	plan, err := CircularPlan(center, radiusMeters, maxSpeed, startAngleDeg)
	if err != nil {
		return "", err
	}
	return s.createPatternDrone("circular", plan, maxSpeed)
}

// CreateAngularDrone adds a drone flying the zig-zag lattice pattern.
func (s *Simulation) CreateAngularDrone(start model.Coordinate, maxLength, startAngleDeg float64, maxTurns int, angleAlphaDeg, maxSpeed float64) (string, error) {
	plan, err := AngularPlan(start, maxLength, startAngleDeg, maxTurns, angleAlphaDeg)
	if err != nil {
		return "", err
	}
	return s.createPatternDrone("angular", plan, maxSpeed)
}

// CreateTractorDrone adds a drone flying a lawn-mower sweep.
func (s *Simulation) CreateTractorDrone(start model.Coordinate, widthBetweenTracks, maxLength float64, maxTurns int, orientation Orientation, maxSpeed float64) (string, error) {
	plan, err := TractorPlan(start, widthBetweenTracks, maxLength, maxTurns, orientation)
	if err != nil {
		return "", err
	}
	return s.createPatternDrone("tractor", plan, maxSpeed)
}

// CreateSquareDrone adds a drone flying a square centred on center.
func (s *Simulation) CreateSquareDrone(center model.Coordinate, sideLength, angleDeg, maxSpeed float64) (string, error) {
	plan, err := SquarePlan(center, sideLength, angleDeg)
	if err != nil {
		return "", err
	}
	return s.createPatternDrone("square", plan, maxSpeed)
}

// CreateGenericDrone adds a drone walking a caller-supplied segment
// plan.
func (s *Simulation) CreateGenericDrone(plan SegmentPlan, maxSpeed float64) (string, error) {
	return s.createPatternDrone("generic", plan, maxSpeed)
}

// CreateStaticDrone adds a drone hovering at a fixed point for the
// whole run.
func (s *Simulation) CreateStaticDrone(point model.Coordinate) (string, error) {
	n := s.lastTick
	if n <= 0 {
		return "", ErrNoTrace
	}

	id := s.nextDroneID()
	drone := model.NewVehicle(id, model.CategoryUAV)
	for i := 0; i < n; i++ {
		drone.AddSample(droneSample(i+1, point, 0))
	}
	s.insertDrone(drone, "static", n)
	return id, nil
}

// CreateFollowingDrone adds a drone shadowing an existing vehicle at a
// lateral offset, using the default smoothing factor. The followed
// vehicle must already be registered.
func (s *Simulation) CreateFollowingDrone(vehicleID string, offsetMeters, maxSpeed float64) (string, error) {
	v, err := s.VehicleByID(vehicleID)
	if err != nil {
		return "", err
	}
	if s.lastTick <= 0 {
		return "", ErrNoTrace
	}

	track := make([]TrackPoint, s.MaxTickExclusive())
	for tick := range track {
		if sample, ok := v.SampleAt(tick); ok {
			track[tick] = TrackPoint{Pos: sample.Pos, Present: true}
		}
	}

	follow := FollowTrack(track, offsetMeters, maxSpeed, DefaultSmoothing)

	id := s.nextDroneID()
	drone := model.NewVehicle(id, model.CategoryUAV)
	backfilled := false
	for tick, fs := range follow {
		if !fs.Present {
			continue
		}
		drone.AddSample(droneSample(tick, fs.Pos, fs.Speed))
		if !backfilled {
			// The drone hovers at its first position during the
			// followed vehicle's leading absence.
			for earlier := 0; earlier < tick; earlier++ {
				drone.AddSample(droneSample(earlier, fs.Pos, fs.Speed))
			}
			backfilled = true
		}
	}
	s.insertDrone(drone, "following", drone.SampleCount())
	return id, nil
}

// createPatternDrone runs the stepper over a plan and registers the
// resulting drone. Sample i lands on tick i+1 so a generated drone is
// present at every source timestep.
func (s *Simulation) createPatternDrone(pattern string, plan SegmentPlan, maxSpeed float64) (string, error) {
	n := s.lastTick
	if n <= 0 {
		return "", ErrNoTrace
	}

	samples, err := GeneratePattern(plan, n, maxSpeed)
	if err != nil {
		return "", err
	}

	id := s.nextDroneID()
	drone := model.NewVehicle(id, model.CategoryUAV)
	for i, ps := range samples {
		drone.AddSample(droneSample(i+1, ps.Pos, ps.Speed))
	}
	s.insertDrone(drone, pattern, len(samples))
	return id, nil
}

func (s *Simulation) nextDroneID() string {
	s.droneCounter++
	return fmt.Sprintf("drone%d", s.droneCounter)
}

func (s *Simulation) insertDrone(drone *model.Vehicle, pattern string, samples int) {
	// Collisions with ingested ids are not checked; drone ids are
	// counter-seeded and assumed disjoint from the source trace.
	s.vehicles[drone.ID] = drone
	s.order = append(s.order, drone.ID)
	s.rec.DroneCreated(pattern)
	s.rec.SamplesGenerated(samples)
	s.rec.RegistrySize(len(s.vehicles))
	s.log.Info(context.Background(), "drone created",
		logging.String("id", drone.ID),
		logging.String("pattern", pattern),
		logging.Int("samples", samples),
	)
}

func droneSample(tick int, pos model.Coordinate, speed float64) model.Sample {
	return model.Sample{
		Time:     tick,
		Pos:      pos,
		Bearing:  0,
		Speed:    math.Round(speed*100) / 100,
		TrackPos: dronePlaceholder,
		Lane:     dronePlaceholder,
		Slope:    dronePlaceholder,
	}
}
