package geo

import (
	"errors"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

var (
	// ErrNoCRS is returned by operations that need a defined reference system.
	ErrNoCRS = errors.New("layer has no CRS set")

	// ErrGeographicArea is returned when planar area is requested for
	// coordinates in degrees. Reproject to a projected CRS first.
	ErrGeographicArea = errors.New("area is not meaningful in a geographic CRS, reproject first")

	// ErrEmptyLayer is returned by operations that need at least one feature.
	ErrEmptyLayer = errors.New("layer has no features")
)

// Layer is an ordered collection of vector features sharing one CRS.
// A zero CRS means the reference system has not been set yet; it must be
// set before the layer can be reprojected or written to a file.
type Layer struct {
	Features []*geojson.Feature
	CRS      CRS
}

// NewLayer creates a layer from the given features with no CRS set.
func NewLayer(features ...*geojson.Feature) *Layer {
	return &Layer{Features: features}
}

// FromFeatureCollection wraps a decoded GeoJSON feature collection.
// GeoJSON is WGS84 unless stated otherwise, so that is the default CRS.
func FromFeatureCollection(fc *geojson.FeatureCollection) *Layer {
	return &Layer{Features: fc.Features, CRS: WGS84}
}

// FeatureCollection returns the layer as a GeoJSON feature collection.
func (l *Layer) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.Features = l.Features
	return fc
}

// Len returns the number of features.
func (l *Layer) Len() int {
	return len(l.Features)
}

// Append adds a feature to the layer.
func (l *Layer) Append(f *geojson.Feature) {
	l.Features = append(l.Features, f)
}

// SetCRS tags the layer with a reference system without transforming
// coordinates. Use ToCRS to actually reproject.
func (l *Layer) SetCRS(c CRS) {
	l.CRS = c
}

// Columns returns the sorted union of property keys across all features.
func (l *Layer) Columns() []string {
	seen := make(map[string]struct{})
	for _, f := range l.Features {
		for k := range f.Properties {
			seen[k] = struct{}{}
		}
	}

	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)

	return cols
}

// GeometryTypes returns the sorted set of GeoJSON geometry types present.
func (l *Layer) GeometryTypes() []string {
	seen := make(map[string]struct{})
	for _, f := range l.Features {
		if f.Geometry != nil {
			seen[f.Geometry.GeoJSONType()] = struct{}{}
		}
	}

	types := make([]string, 0, len(seen))
	for t := range seen {
		types = append(types, t)
	}
	sort.Strings(types)

	return types
}

// Head returns a new layer holding the first n features.
func (l *Layer) Head(n int) *Layer {
	if n > len(l.Features) {
		n = len(l.Features)
	}
	if n < 0 {
		n = 0
	}

	return &Layer{Features: l.Features[:n], CRS: l.CRS}
}

// Select returns a new layer whose features carry only the given
// property columns. Geometries are shared, properties are copied.
func (l *Layer) Select(cols ...string) *Layer {
	out := &Layer{
		Features: make([]*geojson.Feature, 0, len(l.Features)),
		CRS:      l.CRS,
	}

	for _, f := range l.Features {
		nf := geojson.NewFeature(f.Geometry)
		nf.ID = f.ID
		for _, c := range cols {
			if v, ok := f.Properties[c]; ok {
				nf.Properties[c] = v
			}
		}
		out.Features = append(out.Features, nf)
	}

	return out
}

// Bounds returns the total bounds of all feature geometries.
func (l *Layer) Bounds() (orb.Bound, error) {
	var b orb.Bound
	first := true

	for _, f := range l.Features {
		if f.Geometry == nil {
			continue
		}
		if first {
			b = f.Geometry.Bound()
			first = false
			continue
		}
		b = b.Union(f.Geometry.Bound())
	}

	if first {
		return orb.Bound{}, ErrEmptyLayer
	}

	return b, nil
}

// Dissolve combines all feature geometries into a single collection.
func (l *Layer) Dissolve() orb.Collection {
	c := make(orb.Collection, 0, len(l.Features))
	for _, f := range l.Features {
		if f.Geometry != nil {
			c = append(c, f.Geometry)
		}
	}
	return c
}

// Centroid returns the centroid of the dissolved layer geometry.
func (l *Layer) Centroid() (orb.Point, error) {
	c := l.Dissolve()
	if len(c) == 0 {
		return orb.Point{}, ErrEmptyLayer
	}

	centroid, _ := planar.CentroidArea(c)
	return centroid, nil
}

// Areas returns the planar area of every feature geometry. The layer must
// be in a projected CRS; degrees-squared would be a silently wrong number.
func (l *Layer) Areas() ([]float64, error) {
	if l.CRS == 0 {
		return nil, ErrNoCRS
	}
	if l.CRS.IsGeographic() {
		return nil, ErrGeographicArea
	}

	areas := make([]float64, len(l.Features))
	for i, f := range l.Features {
		if f.Geometry != nil {
			areas[i] = planar.Area(f.Geometry)
		}
	}

	return areas, nil
}

// AreaStats summarizes feature areas in the units of the layer CRS.
type AreaStats struct {
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
	Mean   float64
}

// AreaStats computes min, quartiles, max and mean of feature areas.
func (l *Layer) AreaStats() (*AreaStats, error) {
	areas, err := l.Areas()
	if err != nil {
		return nil, err
	}
	if len(areas) == 0 {
		return nil, ErrEmptyLayer
	}

	sorted := append([]float64(nil), areas...)
	sort.Float64s(sorted)

	sum := 0.0
	for _, a := range sorted {
		sum += a
	}

	return &AreaStats{
		Min:    sorted[0],
		Q1:     quantile(sorted, 0.25),
		Median: quantile(sorted, 0.5),
		Q3:     quantile(sorted, 0.75),
		Max:    sorted[len(sorted)-1],
		Mean:   sum / float64(len(sorted)),
	}, nil
}

// quantile computes the q-th quantile of sorted values with
// linear interpolation between adjacent ranks.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}

	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ToCRS reprojects the layer into dst, returning a new layer. Feature
// count, order, IDs and properties are unchanged.
func (l *Layer) ToCRS(dst CRS) (*Layer, error) {
	if l.CRS == 0 {
		return nil, ErrNoCRS
	}

	out := &Layer{
		Features: make([]*geojson.Feature, 0, len(l.Features)),
		CRS:      dst,
	}

	for _, f := range l.Features {
		nf := geojson.NewFeature(l.CRS.Transform(f.Geometry, dst))
		nf.ID = f.ID
		for k, v := range f.Properties {
			nf.Properties[k] = v
		}
		out.Features = append(out.Features, nf)
	}

	return out, nil
}
