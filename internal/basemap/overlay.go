package basemap

import (
	"context"
	"errors"

	"github.com/vecmap/vecmap/internal/geo"
	"github.com/vecmap/vecmap/internal/render"
)

// AddBasemap fetches tiles covering the renderer's extent and installs
// them as the background. Works in whatever CRS the renderer's layers
// are in; for a distortion-free overlay render in Web Mercator.
func AddBasemap(ctx context.Context, f *Fetcher, r *render.Renderer, p Provider, zoom int) error {
	crs := r.CRS()
	if crs == 0 {
		return errors.New("add at least one layer before the basemap")
	}

	extent, err := r.WorldExtent()
	if err != nil {
		return err
	}

	ll := crs.TransformBound(extent, geo.WGS84)

	if zoom <= 0 {
		zoom = AutoZoom(ll, p, 16)
	}

	img, mercExtent, err := f.BoundsImage(ctx, p, ll, zoom)
	if err != nil {
		return err
	}

	r.SetBasemap(img, geo.WebMercator.TransformBound(mercExtent, crs))
	return nil
}
