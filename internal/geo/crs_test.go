package geo

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCRS(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    CRS
		expectError bool
	}{
		{name: "wgs84 lowercase", input: "epsg:4326", expected: WGS84},
		{name: "web mercator uppercase", input: "EPSG:3857", expected: WebMercator},
		{name: "bare code", input: "4326", expected: WGS84},
		{name: "padded", input: "  epsg:3857 ", expected: WebMercator},
		{name: "unsupported code", input: "epsg:2056", expectError: true},
		{name: "garbage", input: "wgs84", expectError: true},
		{name: "empty", input: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			crs, err := ParseCRS(tt.input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, crs)
		})
	}
}

func TestCRSString(t *testing.T) {
	assert.Equal(t, "epsg:4326", WGS84.String())
	assert.Equal(t, "epsg:3857", WebMercator.String())
}

func TestIsGeographic(t *testing.T) {
	assert.True(t, WGS84.IsGeographic())
	assert.False(t, WebMercator.IsGeographic())
}

func TestTransformPointRoundTrip(t *testing.T) {
	p := orb.Point{-71.092562, 42.357602}

	merc := WGS84.TransformPoint(p, WebMercator)
	assert.NotEqual(t, p, merc)

	back := WebMercator.TransformPoint(merc, WGS84)
	assert.InDelta(t, p[0], back[0], 1e-6)
	assert.InDelta(t, p[1], back[1], 1e-6)
}

func TestTransformClampsLatitude(t *testing.T) {
	polar := orb.Point{0, 90}
	merc := WGS84.TransformPoint(polar, WebMercator)

	limit := WGS84.TransformPoint(orb.Point{0, MaxLat}, WebMercator)
	assert.Equal(t, limit[1], merc[1])
}

func TestTransformGeometryIsPure(t *testing.T) {
	ring := orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}
	poly := orb.Polygon{ring}

	out := WGS84.Transform(poly, WebMercator)

	// source geometry untouched
	assert.Equal(t, orb.Point{0, 0}, poly[0][0])
	assert.Equal(t, orb.Point{1, 0}, poly[0][1])

	projected, ok := out.(orb.Polygon)
	require.True(t, ok)
	assert.Len(t, projected[0], len(ring))
}

func TestTransformSameCRSNoop(t *testing.T) {
	p := orb.Point{10, 20}
	assert.Equal(t, orb.Geometry(p), WGS84.Transform(p, WGS84))
}
