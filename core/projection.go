package core

import (
	"fmt"
	"io"
	"math"
	"strconv"
)

// equatorialRadiusMeters is the WGS84 equatorial radius used by the
// planar visualization projection. It differs from the mean radius
// used by the synthesis engine on purpose: the projection matches the
// downstream renderer's expectations, not the pattern math.
const equatorialRadiusMeters = 6378137.0

// projectPlanar rewrites every vehicle's coordinates as planar metres
// relative to the trace's minimum latitude/longitude, using an
// equirectangular approximation with a cos(minLat) longitude scale.
// Values are rounded to two decimals.
func projectPlanar(doc *traceDocument) {
	minLat := math.Inf(1)
	minLon := math.Inf(1)

	for _, ts := range doc.timesteps {
		for _, v := range ts.vehicles {
			lat, err1 := strconv.ParseFloat(v.x, 64)
			lon, err2 := strconv.ParseFloat(v.y, 64)
			if err1 != nil || err2 != nil {
				continue
			}
			if lat < minLat {
				minLat = lat
			}
			if lon < minLon {
				minLon = lon
			}
		}
	}
	if math.IsInf(minLat, 1) {
		return // no vehicles, nothing to project
	}

	for i := range doc.timesteps {
		ts := &doc.timesteps[i]
		for j := range ts.vehicles {
			v := &ts.vehicles[j]
			lat, err1 := strconv.ParseFloat(v.x, 64)
			lon, err2 := strconv.ParseFloat(v.y, 64)
			if err1 != nil || err2 != nil {
				continue
			}
			north := equatorialRadiusMeters * radians(lat-minLat)
			east := equatorialRadiusMeters * radians(lon-minLon) * math.Cos(radians(minLat))
			v.x = formatRounded(north)
			v.y = formatRounded(east)
		}
	}
}

// ConvertTraceToPlanar reads a geographic trace from r and writes the
// same trace with planar-metre coordinates to w.
func ConvertTraceToPlanar(r io.Reader, w io.Writer) error {
	doc, err := parseTraceDocument(r)
	if err != nil {
		return fmt.Errorf("planar conversion: %w", err)
	}
	projectPlanar(doc)
	return writeTraceDocument(w, doc)
}

func formatRounded(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
