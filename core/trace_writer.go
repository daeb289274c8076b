package core

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/signalsfoundry/uav-trace-synth/internal/logging"
)

const xsiNamespace = "http://www.w3.org/2001/XMLSchema-instance"

// ExportTrace re-reads the source trace and rewrites every timestep's
// vehicle records from the registry, preserving the root element, its
// attributes and the timestep grid. The lookup tick is the truncated
// source time plus one, undoing the ingestion offset, so an unmodified
// simulation round-trips its input. When planar is true all coordinates
// are re-projected to planar metres before writing.
func (s *Simulation) ExportTrace(w io.Writer, planar bool) error {
	if s.tracePath == "" {
		return ErrNoTrace
	}

	start := time.Now()

	f, err := os.Open(s.tracePath)
	if err != nil {
		return fmt.Errorf("reopen trace %q: %w", s.tracePath, err)
	}
	defer f.Close()

	doc, err := parseTraceDocument(f)
	if err != nil {
		return err
	}

	for i := range doc.timesteps {
		ts := &doc.timesteps[i]
		srcTime, err := strconv.ParseFloat(ts.time, 64)
		if err != nil {
			return fmt.Errorf("%w: bad timestep time %q", ErrMalformedTrace, ts.time)
		}
		tick := int(math.Trunc(srcTime)) + 1
		if tick >= s.MaxTickExclusive() {
			ts.vehicles = nil
			continue
		}

		records := make([]traceVehicle, 0, len(ts.vehicles))
		for _, id := range s.order {
			v := s.vehicles[id]
			sample, ok := v.SampleAt(tick)
			if !ok {
				continue
			}
			records = append(records, traceVehicle{
				id:    v.ID,
				x:     formatDecimal(sample.Pos.Lat),
				y:     formatDecimal(sample.Pos.Lon),
				angle: formatDecimal(sample.Bearing),
				typ:   string(v.Category),
				speed: formatDecimal(sample.Speed),
				pos:   sample.TrackPos,
				lane:  sample.Lane,
				slope: sample.Slope,
			})
		}
		ts.vehicles = records
	}

	if planar {
		projectPlanar(doc)
	}

	if err := writeTraceDocument(w, doc); err != nil {
		return err
	}

	s.rec.ExportObserved(time.Since(start).Seconds())
	s.log.Info(context.Background(), "trace exported",
		logging.Int("timesteps", len(doc.timesteps)),
		logging.Int("vehicles", len(s.vehicles)),
	)
	return nil
}

// ExportTraceFile exports to a file path.
func (s *Simulation) ExportTraceFile(path string, planar bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export %q: %w", path, err)
	}
	defer f.Close()

	if err := s.ExportTrace(f, planar); err != nil {
		return err
	}
	return f.Close()
}

func writeTraceDocument(w io.Writer, doc *traceDocument) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "    ")

	root := xml.StartElement{Name: xml.Name{Local: doc.rootName}}
	for _, a := range doc.rootAttrs {
		root.Attr = append(root.Attr, xml.Attr{
			Name:  xml.Name{Local: flattenAttrName(a.Name)},
			Value: a.Value,
		})
	}
	if err := enc.EncodeToken(root); err != nil {
		return err
	}

	for _, ts := range doc.timesteps {
		step := xml.StartElement{
			Name: xml.Name{Local: "timestep"},
			Attr: []xml.Attr{{Name: xml.Name{Local: "time"}, Value: ts.time}},
		}
		if err := enc.EncodeToken(step); err != nil {
			return err
		}
		for _, v := range ts.vehicles {
			el := xml.StartElement{
				Name: xml.Name{Local: "vehicle"},
				Attr: []xml.Attr{
					{Name: xml.Name{Local: "id"}, Value: v.id},
					{Name: xml.Name{Local: "x"}, Value: v.x},
					{Name: xml.Name{Local: "y"}, Value: v.y},
					{Name: xml.Name{Local: "angle"}, Value: v.angle},
					{Name: xml.Name{Local: "type"}, Value: v.typ},
					{Name: xml.Name{Local: "speed"}, Value: v.speed},
					{Name: xml.Name{Local: "pos"}, Value: v.pos},
					{Name: xml.Name{Local: "lane"}, Value: v.lane},
					{Name: xml.Name{Local: "slope"}, Value: v.slope},
				},
			}
			if err := enc.EncodeToken(el); err != nil {
				return err
			}
			if err := enc.EncodeToken(el.End()); err != nil {
				return err
			}
		}
		if err := enc.EncodeToken(step.End()); err != nil {
			return err
		}
	}

	if err := enc.EncodeToken(root.End()); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// flattenAttrName restores the prefixed spelling of a namespaced
// attribute so schema declarations survive the round trip.
func flattenAttrName(n xml.Name) string {
	switch {
	case n.Space == "":
		return n.Local
	case n.Space == "xmlns":
		return "xmlns:" + n.Local
	case n.Space == xsiNamespace:
		return "xsi:" + n.Local
	default:
		if strings.Contains(n.Space, "://") {
			return n.Local
		}
		return n.Space + ":" + n.Local
	}
}

// formatDecimal renders a numeric field as plain decimal text, never
// scientific notation.
func formatDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
