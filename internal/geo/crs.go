// Package geo holds the vector data model and coordinate reference system
// handling. Coordinates are always ordered (lon, lat), x before y.
package geo

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// CRS identifies a coordinate reference system by its EPSG code.
type CRS int

const (
	// WGS84 is the CRS used by GPS. Units are degrees,
	// 0,0 is the intersection of the Greenwich meridian and the equator.
	WGS84 CRS = 4326

	// WebMercator is the CRS used by most web maps (OSM, Google, Bing).
	// Units are meters. Not accurate above MaxLat.
	WebMercator CRS = 3857
)

// MaxLat is the Web Mercator latitude cutoff in degrees.
const MaxLat = 85.05112878

// ParseCRS parses strings like "epsg:4326", "EPSG:3857" or a bare code.
func ParseCRS(s string) (CRS, error) {
	raw := strings.TrimSpace(strings.ToLower(s))
	raw = strings.TrimPrefix(raw, "epsg:")

	code, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid CRS %q: %w", s, err)
	}

	crs := CRS(code)
	switch crs {
	case WGS84, WebMercator:
		return crs, nil
	}

	return 0, fmt.Errorf("unsupported CRS epsg:%d", code)
}

func (c CRS) String() string {
	return fmt.Sprintf("epsg:%d", int(c))
}

// IsGeographic reports whether coordinates in this CRS are angular degrees.
// Planar area and distance values are not meaningful in a geographic CRS.
func (c CRS) IsGeographic() bool {
	return c == WGS84
}

// toMercator projects lon/lat to Web Mercator meters,
// clamping latitude so projected values stay finite.
var toMercator orb.Projection = func(p orb.Point) orb.Point {
	if p[1] > MaxLat {
		p[1] = MaxLat
	} else if p[1] < -MaxLat {
		p[1] = -MaxLat
	}
	return project.WGS84.ToMercator(p)
}

// Transform converts a geometry from c to dst. Geometries already
// in dst are returned unchanged.
func (c CRS) Transform(g orb.Geometry, dst CRS) orb.Geometry {
	if g == nil || c == dst {
		return g
	}

	if c == WGS84 && dst == WebMercator {
		return project.Geometry(orb.Clone(g), toMercator)
	}

	return project.Geometry(orb.Clone(g), project.Mercator.ToWGS84)
}

// TransformPoint converts a single point from c to dst.
func (c CRS) TransformPoint(p orb.Point, dst CRS) orb.Point {
	if c == dst {
		return p
	}

	if c == WGS84 && dst == WebMercator {
		return toMercator(p)
	}

	return project.Mercator.ToWGS84(p)
}

// TransformBound converts a bound from c to dst.
func (c CRS) TransformBound(b orb.Bound, dst CRS) orb.Bound {
	return orb.Bound{
		Min: c.TransformPoint(b.Min, dst),
		Max: c.TransformPoint(b.Max, dst),
	}
}
