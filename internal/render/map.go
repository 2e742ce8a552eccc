// Package render draws layers onto static map images, the way a notebook
// plot call would: colormap fills, optional basemap underlay, legend, title.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chai2010/webp"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"
	xdraw "golang.org/x/image/draw"

	"github.com/vecmap/vecmap/internal/geo"
)

// Renderer composes a static map image from vector layers. Layers are
// drawn in the order they were added, on top of an optional basemap.
// All layers must share one CRS; reproject before adding.
type Renderer struct {
	Width  int
	Height int

	// Extent fixes the visible world rectangle in layer coordinates.
	// When nil the union of layer bounds is used, padded by 5%.
	Extent *orb.Bound

	// Title drawn centered at the top of the image.
	Title string

	// Background fill, white by default.
	Background color.NRGBA

	crs           geo.CRS
	layers        []renderLayer
	basemap       image.Image
	basemapExtent orb.Bound
}

type renderLayer struct {
	layer  *geo.Layer
	style  Style
	colors []color.NRGBA
	legend []legendEntry
}

type legendEntry struct {
	label string
	color color.NRGBA
}

// New creates a renderer with the given canvas size in pixels.
func New(width, height int) *Renderer {
	return &Renderer{
		Width:      width,
		Height:     height,
		Background: color.NRGBA{255, 255, 255, 255},
	}
}

// CRS returns the reference system of the layers added so far,
// zero if none have been added.
func (r *Renderer) CRS() geo.CRS {
	return r.crs
}

// SetBasemap places a background image covering extent (in layer
// coordinates) underneath the vector layers.
func (r *Renderer) SetBasemap(img image.Image, extent orb.Bound) {
	r.basemap = img
	r.basemapExtent = extent
}

// AddLayer registers a layer for drawing and resolves its feature colors.
func (r *Renderer) AddLayer(l *geo.Layer, s Style) error {
	s = s.normalized()

	if r.crs == 0 {
		r.crs = l.CRS
	} else if l.CRS != r.crs {
		return fmt.Errorf("layer CRS %s does not match renderer CRS %s, reproject first", l.CRS, r.crs)
	}

	rl := renderLayer{layer: l, style: s}

	cm, err := ColormapByName(s.Cmap)
	if err != nil {
		return err
	}

	switch {
	case s.Color != "":
		flat, err := parseHexColor(s.Color)
		if err != nil {
			return err
		}
		rl.colors = make([]color.NRGBA, l.Len())
		for i := range rl.colors {
			rl.colors[i] = flat
		}

	case s.Column != "":
		rl.colors, rl.legend, err = columnColors(l, s.Column, cm)
		if err != nil {
			return err
		}

	default:
		// arbitrary per-feature colors from the qualitative cycle
		rl.colors = make([]color.NRGBA, l.Len())
		for i := range rl.colors {
			rl.colors[i] = cm.Class(i)
		}
	}

	r.layers = append(r.layers, rl)
	return nil
}

// columnColors encodes a property column as feature colors: a normalized
// ramp for numeric columns, palette classes for everything else.
func columnColors(l *geo.Layer, column string, cm Colormap) ([]color.NRGBA, []legendEntry, error) {
	numeric := true
	for _, f := range l.Features {
		v, ok := f.Properties[column]
		if !ok || v == nil {
			continue
		}
		if _, isNum := toFloat(v); !isNum {
			numeric = false
			break
		}
	}

	colors := make([]color.NRGBA, l.Len())

	if numeric {
		min, max := math.Inf(1), math.Inf(-1)
		for _, f := range l.Features {
			if v, ok := toFloat(f.Properties[column]); ok {
				min = math.Min(min, v)
				max = math.Max(max, v)
			}
		}

		span := max - min
		for i, f := range l.Features {
			v, ok := toFloat(f.Properties[column])
			if !ok {
				colors[i] = cm.At(0)
				continue
			}
			t := 0.0
			if span > 0 {
				t = (v - min) / span
			}
			colors[i] = cm.At(t)
		}

		legend := []legendEntry{
			{label: fmt.Sprintf("%s %.4g", column, min), color: cm.At(0)},
			{label: fmt.Sprintf("%s %.4g", column, (min+max)/2), color: cm.At(0.5)},
			{label: fmt.Sprintf("%s %.4g", column, max), color: cm.At(1)},
		}
		return colors, legend, nil
	}

	// categorical: stable class order by sorted value
	seen := make(map[string]struct{})
	for _, f := range l.Features {
		seen[categoryKey(f.Properties[column])] = struct{}{}
	}

	cats := make([]string, 0, len(seen))
	for c := range seen {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	class := make(map[string]int, len(cats))
	legend := make([]legendEntry, len(cats))
	for i, c := range cats {
		class[c] = i
		legend[i] = legendEntry{label: c, color: cm.Class(i)}
	}

	for i, f := range l.Features {
		colors[i] = cm.Class(class[categoryKey(f.Properties[column])])
	}

	return colors, legend, nil
}

func toFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	}
	return 0, false
}

func categoryKey(v interface{}) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

// transform maps world coordinates to pixels, preserving aspect ratio.
type transform struct {
	minX, maxY float64
	scale      float64
	offX, offY float64
}

func newTransform(extent orb.Bound, width, height int) transform {
	dx := extent.Max[0] - extent.Min[0]
	dy := extent.Max[1] - extent.Min[1]
	if dx <= 0 {
		dx = 1
	}
	if dy <= 0 {
		dy = 1
	}

	scale := math.Min(float64(width)/dx, float64(height)/dy)

	return transform{
		minX:  extent.Min[0],
		maxY:  extent.Max[1],
		scale: scale,
		offX:  (float64(width) - dx*scale) / 2,
		offY:  (float64(height) - dy*scale) / 2,
	}
}

func (t transform) pt(p orb.Point) (float32, float32) {
	x := t.offX + (p[0]-t.minX)*t.scale
	y := t.offY + (t.maxY-p[1])*t.scale
	return float32(x), float32(y)
}

// WorldExtent returns the world rectangle the map will cover, either the
// fixed Extent or the padded union of layer bounds.
func (r *Renderer) WorldExtent() (orb.Bound, error) {
	return r.renderExtent()
}

// renderExtent resolves the world rectangle to draw.
func (r *Renderer) renderExtent() (orb.Bound, error) {
	if r.Extent != nil {
		return *r.Extent, nil
	}

	var b orb.Bound
	first := true
	for _, rl := range r.layers {
		lb, err := rl.layer.Bounds()
		if err != nil {
			continue
		}
		if first {
			b = lb
			first = false
		} else {
			b = b.Union(lb)
		}
	}

	if first {
		if r.basemap != nil {
			return r.basemapExtent, nil
		}
		// blank map over the whole world of the unit square
		return orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}}, nil
	}

	// 5% padding so geometries do not touch the frame
	pad := math.Max(b.Max[0]-b.Min[0], b.Max[1]-b.Min[1]) * 0.05
	if pad == 0 {
		pad = 1
	}
	b.Min[0] -= pad
	b.Min[1] -= pad
	b.Max[0] += pad
	b.Max[1] += pad

	return b, nil
}

// Render draws all layers and decorations into a new image.
func (r *Renderer) Render() (*image.RGBA, error) {
	if r.Width <= 0 || r.Height <= 0 {
		return nil, fmt.Errorf("invalid figure size %dx%d", r.Width, r.Height)
	}

	img := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(r.Background), image.Point{}, draw.Src)

	extent, err := r.renderExtent()
	if err != nil {
		return nil, err
	}
	tf := newTransform(extent, r.Width, r.Height)

	if r.basemap != nil {
		r.drawBasemap(img, tf)
	}

	for _, rl := range r.layers {
		drawLayer(img, rl, tf)
	}

	for _, rl := range r.layers {
		if rl.style.Legend && len(rl.legend) > 0 {
			drawLegend(img, rl.legend)
			break
		}
	}

	if r.Title != "" {
		drawTitle(img, r.Title)
	}

	log.Debug().
		Int("width", r.Width).
		Int("height", r.Height).
		Int("layers", len(r.layers)).
		Bool("basemap", r.basemap != nil).
		Msg("Map rendered")

	return img, nil
}

// drawBasemap scales the basemap image into the pixel rectangle its
// extent occupies under the current transform. The destination may
// extend past the canvas; scaling clips.
func (r *Renderer) drawBasemap(img *image.RGBA, tf transform) {
	x0, y0 := tf.pt(orb.Point{r.basemapExtent.Min[0], r.basemapExtent.Max[1]})
	x1, y1 := tf.pt(orb.Point{r.basemapExtent.Max[0], r.basemapExtent.Min[1]})

	rect := image.Rect(int(x0), int(y0), int(math.Ceil(float64(x1))), int(math.Ceil(float64(y1))))
	xdraw.BiLinear.Scale(img, rect, r.basemap, r.basemap.Bounds(), draw.Over, nil)
}

// WriteFile renders and encodes the map, format chosen by extension
// (.png or .webp).
func (r *Renderer) WriteFile(path string) error {
	img, err := r.Render()
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Error().Err(closeErr).Str("path", path).Msg("Failed to close file")
		}
	}()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		err = png.Encode(f, img)
	case ".webp":
		err = webp.Encode(f, img, &webp.Options{Lossless: false, Quality: 90})
	default:
		return fmt.Errorf("unsupported image format %q", filepath.Ext(path))
	}

	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}
