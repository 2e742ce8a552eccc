package explore

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vecmap/vecmap/internal/geo"
	"github.com/vecmap/vecmap/internal/render"
)

func pointLayer() *geo.Layer {
	a := geojson.NewFeature(orb.Point{120.98, 14.6})
	a.Properties["name"] = "clinic"
	a.Properties["amenity"] = "health"

	b := geojson.NewFeature(orb.Point{121.05, 14.55})
	b.Properties["name"] = "hospital"
	b.Properties["amenity"] = "health"

	l := geo.NewLayer(a, b)
	l.SetCRS(geo.WGS84)
	return l
}

func TestAddLayerRequiresCRS(t *testing.T) {
	m := NewMap()
	err := m.AddLayer("x", geo.NewLayer(geojson.NewFeature(orb.Point{0, 0})), render.Style{})
	assert.ErrorIs(t, err, geo.ErrNoCRS)
}

func TestRenderContainsLeafletAndLayers(t *testing.T) {
	m := NewMap()
	m.Pretty = true
	require.NoError(t, m.AddLayer("healthcare", pointLayer(), render.Style{Column: "amenity"}))

	out, err := m.Render()
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "leaflet.js")
	assert.Contains(t, html, "healthcare")
	assert.Contains(t, html, "clinic")
	assert.Contains(t, html, "__color")
	assert.Contains(t, html, m.Provider.Attribution)
}

func TestRenderMinifiesByDefault(t *testing.T) {
	pretty := NewMap()
	pretty.Pretty = true
	require.NoError(t, pretty.AddLayer("a", pointLayer(), render.Style{}))
	prettyOut, err := pretty.Render()
	require.NoError(t, err)

	min := NewMap()
	require.NoError(t, min.AddLayer("a", pointLayer(), render.Style{}))
	minOut, err := min.Render()
	require.NoError(t, err)

	assert.Less(t, len(minOut), len(prettyOut))
}

func TestLayerControlOnlyForMultipleLayers(t *testing.T) {
	single := NewMap()
	single.Pretty = true
	require.NoError(t, single.AddLayer("only", pointLayer(), render.Style{}))
	out, err := single.Render()
	require.NoError(t, err)
	assert.NotContains(t, string(out), "L.control.layers")

	multi := NewMap()
	multi.Pretty = true
	require.NoError(t, multi.AddLayer("one", pointLayer(), render.Style{}))
	require.NoError(t, multi.AddLayer("two", pointLayer(), render.Style{}))
	out, err = multi.Render()
	require.NoError(t, err)
	assert.Contains(t, string(out), "L.control.layers")
}

func TestCenterAndFitBounds(t *testing.T) {
	m := NewMap()
	m.Pretty = true
	center := orb.Point{121.0, 14.6}
	m.Center = &center
	m.Zoom = 9
	require.NoError(t, m.AddLayer("a", pointLayer(), render.Style{}))

	out, err := m.Render()
	require.NoError(t, err)
	assert.Contains(t, string(out), "zoom: 9")
	assert.NotContains(t, string(out), "fitBounds")

	auto := NewMap()
	auto.Pretty = true
	require.NoError(t, auto.AddLayer("a", pointLayer(), render.Style{}))
	out, err = auto.Render()
	require.NoError(t, err)
	assert.Contains(t, string(out), "fitBounds")
}

func TestReprojectsMercatorLayers(t *testing.T) {
	merc, err := pointLayer().ToCRS(geo.WebMercator)
	require.NoError(t, err)

	m := NewMap()
	m.Pretty = true
	require.NoError(t, m.AddLayer("a", merc, render.Style{}))

	out, err := m.Render()
	require.NoError(t, err)

	// embedded coordinates are lon/lat again, not meters
	assert.Contains(t, string(out), "120.98")
}

func TestSanitizeValue(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected interface{}
	}{
		{name: "plain", input: 1.5, expected: 1.5},
		{name: "nan", input: math.NaN(), expected: "NaN"},
		{name: "inf", input: math.Inf(1), expected: "+Inf"},
		{name: "string", input: "x", expected: "x"},
		{name: "nested", input: map[string]interface{}{"v": math.Inf(-1)}, expected: map[string]interface{}{"v": "-Inf"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeValue(tt.input))
		})
	}
}

func TestNaNPropertiesDoNotBreakEncoding(t *testing.T) {
	l := pointLayer()
	l.Features[0].Properties["bad"] = math.NaN()

	m := NewMap()
	m.Pretty = true
	require.NoError(t, m.AddLayer("a", l, render.Style{}))

	_, err := m.Render()
	assert.NoError(t, err)
}

func TestAddLayerDoesNotMutateSource(t *testing.T) {
	l := pointLayer()

	m := NewMap()
	require.NoError(t, m.AddLayer("a", l, render.Style{}))

	_, hasColor := l.Features[0].Properties[colorProperty]
	assert.False(t, hasColor)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.html")

	m := NewMap()
	require.NoError(t, m.AddLayer("a", pointLayer(), render.Style{}))
	require.NoError(t, m.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "leaflet")
}
