package basemap

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/chai2010/webp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/rs/zerolog/log"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/vecmap/vecmap/internal/geo"
)

const userAgent = "vecmap/1.0 (+https://github.com/vecmap/vecmap)"

// Fetcher downloads tiles, optionally caching them on disk as WebP so
// repeated renders of the same area skip the network.
type Fetcher struct {
	Client      *http.Client
	CacheDir    string
	Concurrency int
}

// NewFetcher returns a fetcher with a sane HTTP client. cacheDir may be
// empty to disable the disk cache.
func NewFetcher(cacheDir string) *Fetcher {
	return &Fetcher{
		Client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
			},
			Timeout: 15 * time.Second,
		},
		CacheDir:    cacheDir,
		Concurrency: 8,
	}
}

func (f *Fetcher) cachePath(p Provider, t maptile.Tile) string {
	return filepath.Join(
		f.CacheDir,
		p.cacheName(),
		strconv.Itoa(int(t.Z)),
		strconv.FormatUint(uint64(t.X), 10),
		strconv.FormatUint(uint64(t.Y), 10)+".webp",
	)
}

// CachedPath returns the on-disk location a tile is cached at, false
// when the disk cache is disabled.
func (f *Fetcher) CachedPath(p Provider, t maptile.Tile) (string, bool) {
	if f.CacheDir == "" {
		return "", false
	}
	return f.cachePath(p, t), true
}

// Tile returns one tile image, from cache when possible.
func (f *Fetcher) Tile(ctx context.Context, p Provider, t maptile.Tile) (image.Image, error) {
	if f.CacheDir != "" {
		if img, err := readCachedTile(f.cachePath(p, t)); err == nil {
			return img, nil
		}
	}

	img, err := f.fetchTile(ctx, p, t)
	if err != nil {
		return nil, err
	}

	if f.CacheDir != "" {
		if err := writeCachedTile(f.cachePath(p, t), img); err != nil {
			log.Warn().Err(err).Msg("Failed to cache tile")
		}
	}

	return img, nil
}

func (f *Fetcher) fetchTile(ctx context.Context, p Provider, t maptile.Tile) (image.Image, error) {
	url := p.TileURL(t)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tile %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("tile %s: decode: %w", url, err)
	}

	// 1px images are a common "no data here" response
	if img.Bounds().Dx() <= 1 {
		return nil, fmt.Errorf("tile %s: empty tile", url)
	}

	return img, nil
}

func readCachedTile(path string) (image.Image, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = fh.Close() }()

	return webp.Decode(fh)
}

func writeCachedTile(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = fh.Close() }()

	return webp.Encode(fh, img, &webp.Options{Lossless: false, Quality: 80})
}

type tileJob struct {
	tile maptile.Tile
}

type tileResult struct {
	tile maptile.Tile
	img  image.Image
}

// BoundsImage fetches all tiles covering the lon/lat bound b at the given
// zoom and stitches them into one image. It returns the image together
// with its extent in Web Mercator (EPSG:3857) coordinates. Failed tiles
// stay transparent; a render should not die because one tile timed out.
func (f *Fetcher) BoundsImage(ctx context.Context, p Provider, b orb.Bound, zoom int) (image.Image, orb.Bound, error) {
	if zoom < 0 || zoom > p.MaxZoom {
		return nil, orb.Bound{}, fmt.Errorf("zoom %d out of range for %s (max %d)", zoom, p.Name, p.MaxZoom)
	}

	z := maptile.Zoom(zoom)
	minTile := maptile.At(orb.Point{b.Min[0], b.Max[1]}, z) // top-left
	maxTile := maptile.At(orb.Point{b.Max[0], b.Min[1]}, z) // bottom-right

	nx := int(maxTile.X-minTile.X) + 1
	ny := int(maxTile.Y-minTile.Y) + 1
	size := p.tileSize()

	log.Debug().
		Str("provider", p.Name).
		Int("zoom", zoom).
		Int("tiles", nx*ny).
		Msg("Fetching basemap tiles")

	canvas := image.NewRGBA(image.Rect(0, 0, nx*size, ny*size))

	jobs := make(chan tileJob, nx*ny)
	results := make(chan tileResult, nx*ny)

	go func() {
		for x := minTile.X; x <= maxTile.X; x++ {
			for y := minTile.Y; y <= maxTile.Y; y++ {
				jobs <- tileJob{tile: maptile.New(x, y, z)}
			}
		}
		close(jobs)
	}()

	concurrency := f.Concurrency
	if concurrency <= 0 {
		concurrency = 8
	}

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				img, err := f.Tile(ctx, p, j.tile)
				if err != nil {
					log.Debug().
						Err(err).
						Uint32("x", j.tile.X).
						Uint32("y", j.tile.Y).
						Msg("Tile unavailable")
					continue
				}
				results <- tileResult{tile: j.tile, img: img}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		dx := int(res.tile.X-minTile.X) * size
		dy := int(res.tile.Y-minTile.Y) * size
		rect := image.Rect(dx, dy, dx+size, dy+size)

		if res.img.Bounds().Dx() == size && res.img.Bounds().Dy() == size {
			draw.Draw(canvas, rect, res.img, res.img.Bounds().Min, draw.Src)
		} else {
			xdraw.ApproxBiLinear.Scale(canvas, rect, res.img, res.img.Bounds(), draw.Src, nil)
		}
	}

	extent := tileRangeExtent(minTile, maxTile)
	return canvas, extent, nil
}

// tileRangeExtent is the Web Mercator bound covered by the tile rectangle.
func tileRangeExtent(minTile, maxTile maptile.Tile) orb.Bound {
	tl := minTile.Bound()
	br := maxTile.Bound()

	min := geo.WGS84.TransformPoint(orb.Point{tl.Min[0], br.Min[1]}, geo.WebMercator)
	max := geo.WGS84.TransformPoint(orb.Point{br.Max[0], tl.Max[1]}, geo.WebMercator)

	return orb.Bound{Min: min, Max: max}
}

// AutoZoom picks the highest zoom whose covering tile count stays within
// budget, so renders stay fast without asking the user for a zoom level.
func AutoZoom(b orb.Bound, p Provider, budget int) int {
	if budget <= 0 {
		budget = 16
	}

	best := 0
	for z := 0; z <= p.MaxZoom; z++ {
		zoom := maptile.Zoom(z)
		minTile := maptile.At(orb.Point{b.Min[0], b.Max[1]}, zoom)
		maxTile := maptile.At(orb.Point{b.Max[0], b.Min[1]}, zoom)

		count := (int(maxTile.X-minTile.X) + 1) * (int(maxTile.Y-minTile.Y) + 1)
		if count > budget {
			break
		}
		best = z
	}

	return best
}
