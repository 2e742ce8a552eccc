// Package explore builds self-contained interactive Leaflet maps from
// vector layers, the notebook .explore() workflow as an HTML export.
package explore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"math"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	minhtml "github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"

	"github.com/vecmap/vecmap/internal/basemap"
	"github.com/vecmap/vecmap/internal/geo"
	"github.com/vecmap/vecmap/internal/render"
)

// colorProperty carries the resolved feature color into the Leaflet style
// callback. Keys with this prefix are hidden from popups.
const colorProperty = "__color"

// Map accumulates layers and produces a single HTML document.
type Map struct {
	// Title of the HTML document.
	Title string

	// Provider supplies the background tiles, OpenStreetMap by default.
	Provider basemap.Provider

	// Center in lon/lat and Zoom fix the initial view. When Center is
	// nil the map fits the bounds of its layers.
	Center *orb.Point
	Zoom   int

	// Width and Height in pixels; zero means fill the page.
	Width  int
	Height int

	// Pretty skips minification for debuggable output.
	Pretty bool

	layers []mapLayer
}

type mapLayer struct {
	name    string
	geojson []byte
}

// NewMap returns a map with the default tile provider.
func NewMap() *Map {
	p, _ := basemap.Lookup("OpenStreetMap.Mapnik")
	return &Map{Provider: p, Zoom: 5}
}

// AddLayer styles the layer and embeds it. Layers must carry a CRS;
// anything not already lon/lat is reprojected, since Leaflet speaks
// WGS84 only.
func (m *Map) AddLayer(name string, l *geo.Layer, style render.Style) error {
	if l.CRS == 0 {
		return geo.ErrNoCRS
	}

	if l.CRS != geo.WGS84 {
		var err error
		l, err = l.ToCRS(geo.WGS84)
		if err != nil {
			return err
		}
	}

	colors, err := render.FeatureColors(l, style)
	if err != nil {
		return err
	}

	// copy features: the embedded color and sanitized values must not
	// leak back into the caller's layer
	out := l.Select(l.Columns()...)
	for i, f := range out.Features {
		for k, v := range f.Properties {
			f.Properties[k] = sanitizeValue(v)
		}
		f.Properties[colorProperty] = fmt.Sprintf("#%02x%02x%02x", colors[i].R, colors[i].G, colors[i].B)
	}

	data, err := json.Marshal(out.FeatureCollection())
	if err != nil {
		return fmt.Errorf("encode layer %q: %w", name, err)
	}

	m.layers = append(m.layers, mapLayer{name: name, geojson: data})

	log.Debug().
		Str("layer", name).
		Int("features", out.Len()).
		Msg("Layer added to interactive map")

	return nil
}

// sanitizeValue makes property values JSON-encodable: NaN and the
// infinities have no JSON representation and are stringified instead.
func sanitizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return fmt.Sprintf("%v", t)
		}
		return t
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, sub := range t {
			out[k] = sanitizeValue(sub)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, sub := range t {
			out[i] = sanitizeValue(sub)
		}
		return out
	default:
		return v
	}
}

type templateLayer struct {
	Name    string
	GeoJSON template.JS
}

type templateData struct {
	Title        string
	TileURL      string
	Attribution  string
	Subdomains   string
	MaxZoom      int
	HasCenter    bool
	Lat, Lon     float64
	Zoom         int
	SizeCSS      template.CSS
	Layers       []templateLayer
	LayerControl bool
}

// Render produces the HTML document.
func (m *Map) Render() ([]byte, error) {
	data := templateData{
		Title:        m.Title,
		TileURL:      m.Provider.URL,
		Attribution:  m.Provider.Attribution,
		MaxZoom:      m.Provider.MaxZoom,
		Zoom:         m.Zoom,
		LayerControl: len(m.layers) > 1,
	}

	if data.Title == "" {
		data.Title = "vecmap"
	}
	if data.Zoom <= 0 {
		data.Zoom = 5
	}
	for _, s := range m.Provider.Subdomains {
		data.Subdomains += s
	}

	if m.Center != nil {
		data.HasCenter = true
		data.Lon = (*m.Center)[0]
		data.Lat = (*m.Center)[1]
	}

	if m.Width > 0 && m.Height > 0 {
		data.SizeCSS = template.CSS(fmt.Sprintf("width:%dpx;height:%dpx;", m.Width, m.Height))
	} else {
		data.SizeCSS = "width:100%;height:100vh;"
	}

	for _, l := range m.layers {
		data.Layers = append(data.Layers, templateLayer{
			Name:    l.name,
			GeoJSON: template.JS(l.geojson),
		})
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render map template: %w", err)
	}

	if m.Pretty {
		return buf.Bytes(), nil
	}

	return minifyHTML(buf.Bytes())
}

func minifyHTML(in []byte) ([]byte, error) {
	mn := minify.New()
	mn.AddFunc("text/css", css.Minify)
	mn.AddFunc("text/html", minhtml.Minify)
	mn.AddFunc("text/javascript", js.Minify)
	mn.AddFunc("application/javascript", js.Minify)

	out, err := mn.Bytes("text/html", in)
	if err != nil {
		return nil, fmt.Errorf("minify map: %w", err)
	}
	return out, nil
}

// WriteFile renders the map and writes it to path.
func (m *Map) WriteFile(path string) error {
	data, err := m.Render()
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	log.Info().
		Str("path", path).
		Int("layers", len(m.layers)).
		Int("bytes", len(data)).
		Msg("Interactive map written")

	return nil
}
