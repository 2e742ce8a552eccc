package geo

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func squareFeature(x, y, size float64, props map[string]interface{}) *geojson.Feature {
	f := geojson.NewFeature(orb.Polygon{{
		{x, y}, {x + size, y}, {x + size, y + size}, {x, y + size}, {x, y},
	}})
	for k, v := range props {
		f.Properties[k] = v
	}
	return f
}

func testLayer() *Layer {
	l := NewLayer(
		squareFeature(0, 0, 1, map[string]interface{}{"name": "a", "class": "low"}),
		squareFeature(2, 0, 2, map[string]interface{}{"name": "b", "class": "high"}),
		squareFeature(0, 3, 3, map[string]interface{}{"name": "c", "risk": 0.7}),
	)
	l.SetCRS(WGS84)
	return l
}

func TestColumns(t *testing.T) {
	l := testLayer()
	assert.Equal(t, []string{"class", "name", "risk"}, l.Columns())
}

func TestGeometryTypes(t *testing.T) {
	l := testLayer()
	l.Append(geojson.NewFeature(orb.Point{1, 1}))
	assert.Equal(t, []string{"Point", "Polygon"}, l.GeometryTypes())
}

func TestHead(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		expected int
	}{
		{name: "subset", n: 2, expected: 2},
		{name: "overshoot", n: 10, expected: 3},
		{name: "zero", n: 0, expected: 0},
		{name: "negative", n: -1, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := testLayer()
			h := l.Head(tt.n)
			assert.Equal(t, tt.expected, h.Len())
			assert.Equal(t, WGS84, h.CRS)
		})
	}
}

func TestSelect(t *testing.T) {
	l := testLayer()
	s := l.Select("name")

	assert.Equal(t, l.Len(), s.Len())
	assert.Equal(t, []string{"name"}, s.Columns())

	// original untouched
	assert.Contains(t, l.Columns(), "class")
}

func TestBounds(t *testing.T) {
	l := testLayer()
	b, err := l.Bounds()
	require.NoError(t, err)

	assert.Equal(t, orb.Point{0, 0}, b.Min)
	assert.Equal(t, orb.Point{4, 6}, b.Max)
}

func TestBoundsEmpty(t *testing.T) {
	l := NewLayer()
	_, err := l.Bounds()
	assert.ErrorIs(t, err, ErrEmptyLayer)
}

func TestCentroid(t *testing.T) {
	l := NewLayer(squareFeature(0, 0, 2, nil))
	l.SetCRS(WGS84)

	c, err := l.Centroid()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, c[0], 1e-9)
	assert.InDelta(t, 1.0, c[1], 1e-9)
}

func TestAreasGeographicCRS(t *testing.T) {
	l := testLayer()
	_, err := l.Areas()
	assert.ErrorIs(t, err, ErrGeographicArea)
}

func TestAreasNoCRS(t *testing.T) {
	l := NewLayer(squareFeature(0, 0, 1, nil))
	_, err := l.Areas()
	assert.ErrorIs(t, err, ErrNoCRS)
}

func TestAreasProjected(t *testing.T) {
	l := NewLayer(
		squareFeature(0, 0, 10, nil),
		squareFeature(100, 100, 20, nil),
	)
	l.SetCRS(WebMercator)

	areas, err := l.Areas()
	require.NoError(t, err)
	require.Len(t, areas, 2)
	assert.InDelta(t, 100.0, areas[0], 1e-9)
	assert.InDelta(t, 400.0, areas[1], 1e-9)
}

func TestAreaStats(t *testing.T) {
	// areas 1, 4, 9, 16
	l := NewLayer(
		squareFeature(0, 0, 1, nil),
		squareFeature(10, 0, 2, nil),
		squareFeature(20, 0, 3, nil),
		squareFeature(30, 0, 4, nil),
	)
	l.SetCRS(WebMercator)

	stats, err := l.AreaStats()
	require.NoError(t, err)

	assert.InDelta(t, 1.0, stats.Min, 1e-9)
	assert.InDelta(t, 16.0, stats.Max, 1e-9)
	assert.InDelta(t, 7.5, stats.Mean, 1e-9)
	assert.InDelta(t, 6.5, stats.Median, 1e-9)
	assert.InDelta(t, 3.25, stats.Q1, 1e-9)
	assert.InDelta(t, 10.75, stats.Q3, 1e-9)
}

func TestToCRSPreservesFeatures(t *testing.T) {
	l := testLayer()

	out, err := l.ToCRS(WebMercator)
	require.NoError(t, err)

	assert.Equal(t, WebMercator, out.CRS)
	assert.Equal(t, l.Len(), out.Len())
	assert.Equal(t, l.Columns(), out.Columns())

	// coordinates changed, source untouched
	srcBound, _ := l.Bounds()
	dstBound, _ := out.Bounds()
	assert.Equal(t, orb.Point{0, 0}, srcBound.Min)
	assert.NotEqual(t, srcBound.Max, dstBound.Max)
}

func TestToCRSRequiresCRS(t *testing.T) {
	l := NewLayer(squareFeature(0, 0, 1, nil))
	_, err := l.ToCRS(WebMercator)
	assert.ErrorIs(t, err, ErrNoCRS)
}

func TestFromFeatureCollectionDefaultsToWGS84(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(orb.Point{1, 2}))

	l := FromFeatureCollection(fc)
	assert.Equal(t, WGS84, l.CRS)
	assert.Equal(t, 1, l.Len())
}
