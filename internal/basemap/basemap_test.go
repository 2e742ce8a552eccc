package basemap

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expectError bool
	}{
		{name: "exact", input: "OpenStreetMap.Mapnik"},
		{name: "case insensitive", input: "cartodb.voyager"},
		{name: "unknown", input: "Gaode.Normal", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Lookup(tt.input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, p.URL)
			assert.NotEmpty(t, p.Attribution)
		})
	}
}

func TestTileURL(t *testing.T) {
	p := Provider{URL: "https://{s}.tiles.test/{z}/{x}/{y}.png", Subdomains: []string{"a", "b"}}
	url := p.TileURL(maptile.New(3, 5, 4))

	assert.Contains(t, url, "/4/3/5.png")
	assert.NotContains(t, url, "{s}")
}

func solidTilePNG(t *testing.T, c color.NRGBA) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 256, 256))
	for y := 0; y < 256; y++ {
		for x := 0; x < 256; x++ {
			img.SetRGBA(x, y, color.RGBA{c.R, c.G, c.B, c.A})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testProvider(serverURL string) Provider {
	return Provider{
		Name:        "Test.Local",
		URL:         serverURL + "/{z}/{x}/{y}.png",
		Attribution: "test",
		MaxZoom:     19,
	}
}

func TestBoundsImageStitches(t *testing.T) {
	tile := solidTilePNG(t, color.NRGBA{0, 128, 255, 255})

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write(tile)
	}))
	defer srv.Close()

	f := NewFetcher("")
	f.Client = srv.Client()

	// Manila area, zoom 6 covers a few tiles
	b := orb.Bound{Min: orb.Point{115, 0}, Max: orb.Point{130, 25}}

	img, extent, err := f.BoundsImage(context.Background(), testProvider(srv.URL), b, 6)
	require.NoError(t, err)

	require.Greater(t, hits.Load(), int64(1))
	assert.Equal(t, 0, img.Bounds().Dx()%256)
	assert.Equal(t, 0, img.Bounds().Dy()%256)

	// extent is Web Mercator meters and must contain the requested bound
	assert.Less(t, extent.Min[0], 12801741.0) // ~115°E in meters
	assert.Greater(t, extent.Max[0], 14471533.0)

	c := img.At(10, 10)
	r0, g0, b0, _ := c.RGBA()
	assert.Equal(t, uint32(0), r0>>8)
	assert.Equal(t, uint32(128), g0>>8)
	assert.Equal(t, uint32(255), b0>>8)
}

func TestBoundsImageZoomOutOfRange(t *testing.T) {
	f := NewFetcher("")
	p := Provider{Name: "X", URL: "http://x/{z}/{x}/{y}", MaxZoom: 10}

	_, _, err := f.BoundsImage(context.Background(), p, orb.Bound{}, 11)
	assert.Error(t, err)
}

func TestTileCaching(t *testing.T) {
	tile := solidTilePNG(t, color.NRGBA{200, 30, 30, 255})

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write(tile)
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	f.Client = srv.Client()
	p := testProvider(srv.URL)

	tl := maptile.New(1, 1, 2)

	_, err := f.Tile(context.Background(), p, tl)
	require.NoError(t, err)
	assert.Equal(t, int64(1), hits.Load())

	// second request served from disk
	_, err = f.Tile(context.Background(), p, tl)
	require.NoError(t, err)
	assert.Equal(t, int64(1), hits.Load())
}

func TestTileFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewFetcher("")
	f.Client = srv.Client()

	_, err := f.Tile(context.Background(), testProvider(srv.URL), maptile.New(0, 0, 0))
	assert.Error(t, err)
}

func TestBoundsImageSurvivesFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewFetcher("")
	f.Client = srv.Client()

	b := orb.Bound{Min: orb.Point{115, 0}, Max: orb.Point{130, 25}}
	img, _, err := f.BoundsImage(context.Background(), testProvider(srv.URL), b, 5)

	require.NoError(t, err)
	assert.NotNil(t, img)
}

func TestAutoZoom(t *testing.T) {
	p := Provider{MaxZoom: 19}

	world := orb.Bound{Min: orb.Point{-179, -80}, Max: orb.Point{179, 80}}
	city := orb.Bound{Min: orb.Point{-71.1, 42.35}, Max: orb.Point{-71.05, 42.37}}

	wz := AutoZoom(world, p, 16)
	cz := AutoZoom(city, p, 16)

	assert.Less(t, wz, cz)
	assert.LessOrEqual(t, cz, p.MaxZoom)
}
