package core

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/signalsfoundry/uav-trace-synth/model"
)

const sampleTrace = `<?xml version="1.0" encoding="UTF-8"?>
<fcd-export xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xsi:noNamespaceSchemaLocation="http://sumo.dlr.de/xsd/fcd_file.xsd">
    <timestep time="0.00">
        <vehicle id="veh0" x="48.771" y="9.172" angle="85.3" type="passenger" speed="5.5" pos="12.1" lane="e1_0" slope="0"/>
    </timestep>
    <timestep time="1.00">
        <vehicle id="veh0" x="48.772" y="9.173" angle="85.3" type="passenger" speed="5.6" pos="17.6" lane="e1_0" slope="0"/>
    </timestep>
</fcd-export>
`

func writeTempTrace(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.xml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write trace fixture: %v", err)
	}
	return path
}

// newTestSim returns a simulation with the two-timestep sample trace
// already ingested: veh0 at ticks 1 and 2, lastTick 2.
func newTestSim(t *testing.T) *Simulation {
	t.Helper()
	sim := NewSimulation(nil, nil)
	if err := sim.LoadTraceFile(writeTempTrace(t, sampleTrace)); err != nil {
		t.Fatalf("LoadTraceFile returned error: %v", err)
	}
	return sim
}

func TestSimulation_TickBounds(t *testing.T) {
	sim := newTestSim(t)

	if got := sim.LastIngestedTick(); got != 2 {
		t.Errorf("LastIngestedTick: got %d, want 2", got)
	}
	if got := sim.MaxTickExclusive(); got != 3 {
		t.Errorf("MaxTickExclusive: got %d, want 3", got)
	}
}

func TestSimulation_VehicleByID_Unknown(t *testing.T) {
	sim := NewSimulation(nil, nil)
	if _, err := sim.VehicleByID("ghost"); !errors.Is(err, ErrVehicleNotFound) {
		t.Errorf("unknown id: got %v, want ErrVehicleNotFound", err)
	}
}

func TestSimulation_AddVehicle_Duplicate(t *testing.T) {
	sim := newTestSim(t)
	if err := sim.AddVehicle(model.NewVehicle("veh0", "passenger")); !errors.Is(err, ErrVehicleExists) {
		t.Errorf("duplicate id: got %v, want ErrVehicleExists", err)
	}
}

func TestSimulation_RemoveVehicle(t *testing.T) {
	sim := newTestSim(t)

	if err := sim.RemoveVehicle("veh0"); err != nil {
		t.Fatalf("RemoveVehicle returned error: %v", err)
	}
	if _, err := sim.VehicleByID("veh0"); !errors.Is(err, ErrVehicleNotFound) {
		t.Errorf("removed vehicle still present: %v", err)
	}
	if err := sim.RemoveVehicle("veh0"); !errors.Is(err, ErrVehicleNotFound) {
		t.Errorf("second removal: got %v, want ErrVehicleNotFound", err)
	}
}

func TestSimulation_RenameCategoryLabel(t *testing.T) {
	sim := newTestSim(t)

	if err := sim.RenameCategoryLabel("passenger", "Cars"); err != nil {
		t.Fatalf("RenameCategoryLabel returned error: %v", err)
	}
	if got := sim.CategoryLabels()["passenger"]; got != "Cars" {
		t.Errorf("renamed label: got %q, want %q", got, "Cars")
	}
	if err := sim.RenameCategoryLabel("bogus", "x"); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("unknown category: got %v, want ErrUnknownCategory", err)
	}
}

func TestSimulation_PatternDronesRequireIngestedTrace(t *testing.T) {
	sim := NewSimulation(nil, nil)

	if _, err := sim.CreateStaticDrone(model.Coordinate{Lat: 48, Lon: 9}); !errors.Is(err, ErrNoTrace) {
		t.Errorf("static before ingest: got %v, want ErrNoTrace", err)
	}
	if _, err := sim.CreateCircularDrone(model.Coordinate{Lat: 48, Lon: 9}, 100, 10, 0); !errors.Is(err, ErrNoTrace) {
		t.Errorf("circular before ingest: got %v, want ErrNoTrace", err)
	}
}

func TestSimulation_CreateStaticDrone_CoversEveryIngestedTick(t *testing.T) {
	sim := newTestSim(t)
	point := model.Coordinate{Lat: 48.77, Lon: 9.17}

	id, err := sim.CreateStaticDrone(point)
	if err != nil {
		t.Fatalf("CreateStaticDrone returned error: %v", err)
	}
	if id != "drone1" {
		t.Errorf("drone id: got %q, want %q", id, "drone1")
	}

	drone, err := sim.VehicleByID(id)
	if err != nil {
		t.Fatalf("VehicleByID returned error: %v", err)
	}
	if drone.Category != model.CategoryUAV {
		t.Errorf("drone category: got %q, want %q", drone.Category, model.CategoryUAV)
	}
	for tick := 1; tick <= sim.LastIngestedTick(); tick++ {
		s, ok := drone.SampleAt(tick)
		if !ok {
			t.Fatalf("tick %d: drone absent", tick)
		}
		if s.Pos != point || s.Speed != 0 {
			t.Errorf("tick %d: got pos %#v speed %v, want %#v and 0", tick, s.Pos, s.Speed, point)
		}
		if s.TrackPos != "0" || s.Lane != "0" || s.Slope != "0" {
			t.Errorf("tick %d: passthrough fields not the neutral placeholder: %#v", tick, s)
		}
	}
	if drone.Present(0) {
		t.Errorf("static drone has a sample at reserved tick 0")
	}
}

func TestSimulation_CreatePatternDrone_SampleLandsOnTickPlusOne(t *testing.T) {
	sim := newTestSim(t)

	id, err := sim.CreateCircularDrone(model.Coordinate{Lat: 48.77, Lon: 9.17}, 100, 10, 0)
	if err != nil {
		t.Fatalf("CreateCircularDrone returned error: %v", err)
	}

	drone, err := sim.VehicleByID(id)
	if err != nil {
		t.Fatalf("VehicleByID returned error: %v", err)
	}
	// lastTick samples shifted onto ticks 1..lastTick.
	if got, want := drone.SampleCount(), sim.LastIngestedTick(); got != want {
		t.Errorf("sample count: got %d, want %d", got, want)
	}
	if drone.Present(0) {
		t.Errorf("pattern drone has a sample at reserved tick 0")
	}
	if !drone.Present(sim.LastIngestedTick()) {
		t.Errorf("pattern drone absent at the last ingested tick")
	}

	s, _ := drone.SampleAt(1)
	if s.Speed != 0 {
		t.Errorf("first pattern sample speed: got %v, want 0", s.Speed)
	}
}

func TestSimulation_DroneIDsAreSequential(t *testing.T) {
	sim := newTestSim(t)
	point := model.Coordinate{Lat: 48.77, Lon: 9.17}

	first, err := sim.CreateStaticDrone(point)
	if err != nil {
		t.Fatalf("first drone: %v", err)
	}
	second, err := sim.CreateStaticDrone(point)
	if err != nil {
		t.Fatalf("second drone: %v", err)
	}
	if first != "drone1" || second != "drone2" {
		t.Errorf("drone ids: got %q and %q, want drone1 and drone2", first, second)
	}
}

func TestSimulation_CreateFollowingDrone_UnknownTargetLeavesRegistryUntouched(t *testing.T) {
	sim := newTestSim(t)

	if _, err := sim.CreateFollowingDrone("ghost", 10, 10); !errors.Is(err, ErrVehicleNotFound) {
		t.Fatalf("unknown target: got %v, want ErrVehicleNotFound", err)
	}
	if _, err := sim.VehicleByID("drone1"); !errors.Is(err, ErrVehicleNotFound) {
		t.Errorf("failed creation registered a drone anyway")
	}

	// The id counter must not burn a number on the failed attempt.
	id, err := sim.CreateStaticDrone(model.Coordinate{Lat: 48, Lon: 9})
	if err != nil {
		t.Fatalf("CreateStaticDrone returned error: %v", err)
	}
	if id != "drone1" {
		t.Errorf("next drone id: got %q, want %q", id, "drone1")
	}
}

func TestSimulation_CreateFollowingDrone_BackfillsLeadingAbsence(t *testing.T) {
	sim := newTestSim(t)

	id, err := sim.CreateFollowingDrone("veh0", 10, 10)
	if err != nil {
		t.Fatalf("CreateFollowingDrone returned error: %v", err)
	}
	drone, err := sim.VehicleByID(id)
	if err != nil {
		t.Fatalf("VehicleByID returned error: %v", err)
	}

	// veh0 first appears at tick 1; tick 0 is back-filled with the
	// seed position.
	seed, ok := drone.SampleAt(1)
	if !ok {
		t.Fatalf("follower absent at the target's first tick")
	}
	veh, _ := sim.VehicleByID("veh0")
	target, _ := veh.SampleAt(1)
	if seed.Pos != target.Pos {
		t.Errorf("seed position: got %#v, want the target position %#v", seed.Pos, target.Pos)
	}

	backfill, ok := drone.SampleAt(0)
	if !ok {
		t.Fatalf("leading absence not back-filled")
	}
	if backfill.Pos != seed.Pos {
		t.Errorf("back-filled position: got %#v, want %#v", backfill.Pos, seed.Pos)
	}
}

func TestSimulation_Timeline(t *testing.T) {
	sim := newTestSim(t)

	timeline, err := sim.Timeline("veh0")
	if err != nil {
		t.Fatalf("Timeline returned error: %v", err)
	}
	if len(timeline) != sim.MaxTickExclusive() {
		t.Fatalf("timeline length: got %d, want %d", len(timeline), sim.MaxTickExclusive())
	}
	if timeline[0] != nil {
		t.Errorf("tick 0: got a sample, want nil (reserved tick)")
	}
	if timeline[1] == nil || timeline[2] == nil {
		t.Fatalf("ticks 1 and 2 must both carry samples")
	}
	if timeline[1].Pos != (model.Coordinate{Lat: 48.771, Lon: 9.172}) {
		t.Errorf("tick 1 position: got %#v", timeline[1].Pos)
	}

	if _, err := sim.Timeline("ghost"); !errors.Is(err, ErrVehicleNotFound) {
		t.Errorf("unknown id: got %v, want ErrVehicleNotFound", err)
	}
}

func TestSimulation_CoordinateVectors(t *testing.T) {
	sim := newTestSim(t)
	if _, err := sim.CreateStaticDrone(model.Coordinate{Lat: 48.77, Lon: 9.17}); err != nil {
		t.Fatalf("CreateStaticDrone returned error: %v", err)
	}

	groups := sim.CoordinateVectors()
	if len(groups) != 2 {
		t.Fatalf("category groups: got %d, want 2", len(groups))
	}
	// Sorted by category: UAV before passenger.
	if groups[0].Category != model.CategoryUAV || groups[1].Category != "passenger" {
		t.Fatalf("category order: got %q then %q", groups[0].Category, groups[1].Category)
	}

	uav := groups[0]
	if uav.Label != "UAV" {
		t.Errorf("UAV label: got %q, want %q", uav.Label, "UAV")
	}
	if len(uav.VehicleIDs) != 1 || uav.VehicleIDs[0] != "drone1" {
		t.Fatalf("UAV vehicles: got %v", uav.VehicleIDs)
	}
	track := uav.Tracks[0]
	if len(track) != sim.MaxTickExclusive() {
		t.Fatalf("track length: got %d, want %d", len(track), sim.MaxTickExclusive())
	}
	if track[0].Present {
		t.Errorf("tick 0: drone marked present")
	}
	if !track[1].Present || !track[2].Present {
		t.Errorf("drone must be present at ticks 1 and 2")
	}

	passenger := groups[1]
	if !passenger.Tracks[0][1].Present {
		t.Errorf("veh0 must be present at tick 1")
	}
}

func TestSimulation_CreateGenericDrone(t *testing.T) {
	sim := newTestSim(t)

	plan := SegmentPlan{
		Start:     model.Coordinate{Lat: 48.77, Lon: 9.17},
		Distances: []float64{100},
		Bearings:  []float64{45},
	}
	id, err := sim.CreateGenericDrone(plan, 10)
	if err != nil {
		t.Fatalf("CreateGenericDrone returned error: %v", err)
	}
	drone, err := sim.VehicleByID(id)
	if err != nil {
		t.Fatalf("VehicleByID returned error: %v", err)
	}
	if got, want := drone.SampleCount(), sim.LastIngestedTick(); got != want {
		t.Errorf("sample count: got %d, want %d", got, want)
	}
}
