package core

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/signalsfoundry/uav-trace-synth/internal/logging"
	"github.com/signalsfoundry/uav-trace-synth/model"
)

// ErrMalformedTrace flags a source trace missing required structure or
// attributes. It is never recovered from; ingestion fails immediately.
var ErrMalformedTrace = errors.New("malformed trace")

// traceDocument is the parsed shape of a SUMO fcd-export trace. The
// root and timestep attributes are kept verbatim so an export can
// preserve every non-vehicle part of the source file.
type traceDocument struct {
	rootName  string
	rootAttrs []xml.Attr
	timesteps []traceTimestep
}

type traceTimestep struct {
	time     string // verbatim time attribute
	vehicles []traceVehicle
}

// traceVehicle carries the raw attribute text of one vehicle record.
type traceVehicle struct {
	id    string
	x     string
	y     string
	angle string
	typ   string
	speed string
	pos   string
	lane  string
	slope string
}

type xmlTrace struct {
	XMLName   xml.Name
	Attrs     []xml.Attr    `xml:",any,attr"`
	Timesteps []xmlTimestep `xml:"timestep"`
}

type xmlTimestep struct {
	Time     string       `xml:"time,attr"`
	Vehicles []xmlVehicle `xml:"vehicle"`
}

type xmlVehicle struct {
	ID    string `xml:"id,attr"`
	X     string `xml:"x,attr"`
	Y     string `xml:"y,attr"`
	Angle string `xml:"angle,attr"`
	Type  string `xml:"type,attr"`
	Speed string `xml:"speed,attr"`
	Pos   string `xml:"pos,attr"`
	Lane  string `xml:"lane,attr"`
	Slope string `xml:"slope,attr"`
}

func parseTraceDocument(r io.Reader) (*traceDocument, error) {
	var raw xmlTrace
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTrace, err)
	}

	doc := &traceDocument{
		rootName:  raw.XMLName.Local,
		rootAttrs: raw.Attrs,
		timesteps: make([]traceTimestep, 0, len(raw.Timesteps)),
	}
	for _, ts := range raw.Timesteps {
		if ts.Time == "" {
			return nil, fmt.Errorf("%w: timestep without time attribute", ErrMalformedTrace)
		}
		step := traceTimestep{time: ts.Time, vehicles: make([]traceVehicle, 0, len(ts.Vehicles))}
		for _, v := range ts.Vehicles {
			step.vehicles = append(step.vehicles, traceVehicle{
				id:    v.ID,
				x:     v.X,
				y:     v.Y,
				angle: v.Angle,
				typ:   v.Type,
				speed: v.Speed,
				pos:   v.Pos,
				lane:  v.Lane,
				slope: v.Slope,
			})
		}
		doc.timesteps = append(doc.timesteps, step)
	}
	return doc, nil
}

// IngestTrace reads a trace from r and populates the registry. Source
// times are truncated to integers and offset by +1, reserving tick 0.
// The first encounter of a vehicle id creates the agent and registers
// its category with a default display label.
func (s *Simulation) IngestTrace(r io.Reader) error {
	start := time.Now()

	doc, err := parseTraceDocument(r)
	if err != nil {
		return err
	}

	for _, ts := range doc.timesteps {
		srcTime, err := strconv.ParseFloat(ts.time, 64)
		if err != nil {
			return fmt.Errorf("%w: bad timestep time %q", ErrMalformedTrace, ts.time)
		}
		tick := int(math.Trunc(srcTime)) + 1
		if tick > s.lastTick {
			s.lastTick = tick
		}

		for _, tv := range ts.vehicles {
			sample, err := tv.toSample(tick)
			if err != nil {
				return err
			}

			v, ok := s.vehicles[tv.id]
			if !ok {
				category := model.Category(tv.typ)
				v = model.NewVehicle(tv.id, category)
				s.vehicles[tv.id] = v
				s.order = append(s.order, tv.id)
				if _, seen := s.labels[category]; !seen {
					s.labels[category] = tv.typ
				}
			}
			v.AddSample(sample)
		}
	}

	s.rec.IngestObserved(s.lastTick, time.Since(start).Seconds())
	s.rec.RegistrySize(len(s.vehicles))
	s.log.Info(context.Background(), "trace ingested",
		logging.Int("vehicles", len(s.vehicles)),
		logging.Int("last_tick", s.lastTick),
	)
	return nil
}

// LoadTraceFile ingests the trace at path and remembers the path for
// export.
func (s *Simulation) LoadTraceFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open trace %q: %w", path, err)
	}
	defer f.Close()

	if err := s.IngestTrace(f); err != nil {
		return fmt.Errorf("ingest trace %q: %w", path, err)
	}
	s.tracePath = path
	return nil
}

func (tv traceVehicle) toSample(tick int) (model.Sample, error) {
	if tv.id == "" {
		return model.Sample{}, fmt.Errorf("%w: vehicle without id", ErrMalformedTrace)
	}
	for name, val := range map[string]string{
		"x": tv.x, "y": tv.y, "angle": tv.angle, "type": tv.typ, "speed": tv.speed,
	} {
		if val == "" {
			return model.Sample{}, fmt.Errorf("%w: vehicle %q missing attribute %q", ErrMalformedTrace, tv.id, name)
		}
	}

	x, err := strconv.ParseFloat(tv.x, 64)
	if err != nil {
		return model.Sample{}, fmt.Errorf("%w: vehicle %q bad x %q", ErrMalformedTrace, tv.id, tv.x)
	}
	y, err := strconv.ParseFloat(tv.y, 64)
	if err != nil {
		return model.Sample{}, fmt.Errorf("%w: vehicle %q bad y %q", ErrMalformedTrace, tv.id, tv.y)
	}
	angle, err := strconv.ParseFloat(tv.angle, 64)
	if err != nil {
		return model.Sample{}, fmt.Errorf("%w: vehicle %q bad angle %q", ErrMalformedTrace, tv.id, tv.angle)
	}
	speed, err := strconv.ParseFloat(tv.speed, 64)
	if err != nil {
		return model.Sample{}, fmt.Errorf("%w: vehicle %q bad speed %q", ErrMalformedTrace, tv.id, tv.speed)
	}

	pos, lane, slope := tv.pos, tv.lane, tv.slope
	if pos == "" {
		pos = dronePlaceholder
	}
	if lane == "" {
		lane = dronePlaceholder
	}
	if slope == "" {
		slope = dronePlaceholder
	}

	return model.Sample{
		Time:     tick,
		Pos:      model.Coordinate{Lat: x, Lon: y},
		Bearing:  angle,
		Speed:    speed,
		TrackPos: pos,
		Lane:     lane,
		Slope:    slope,
	}, nil
}
