// Package vector reads and writes vector file formats. GeoJSON and ESRI
// Shapefile are supported; the format is detected from the file extension.
package vector

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"

	"github.com/vecmap/vecmap/internal/geo"
)

// Supported file extensions.
const (
	ExtShapefile = ".shp"
	ExtGeoJSON   = ".geojson"
	ExtJSON      = ".json"
)

// ErrUnsupportedFormat is returned for file extensions no reader or
// writer is registered for.
var ErrUnsupportedFormat = errors.New("unsupported vector format")

// ErrNoCRS is returned when writing a layer with no CRS set.
var ErrNoCRS = geo.ErrNoCRS

var httpClient = &http.Client{Timeout: 30 * time.Second}

// ReadFile loads a vector file into a layer. Remote GeoJSON can be read
// directly from an http(s) URL.
func ReadFile(path string) (*geo.Layer, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return readGeoJSONURL(path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ExtGeoJSON, ExtJSON:
		return readGeoJSON(path)
	case ExtShapefile:
		return readShapefile(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func readGeoJSON(path string) (*geo.Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return decodeGeoJSON(data, path)
}

func readGeoJSONURL(url string) (*geo.Layer, error) {
	log.Debug().Str("url", url).Msg("Fetching remote GeoJSON")

	resp, err := httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}

	return decodeGeoJSON(data, url)
}

func decodeGeoJSON(data []byte, source string) (*geo.Layer, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", source, err)
	}

	layer := geo.FromFeatureCollection(fc)

	log.Debug().
		Str("source", source).
		Int("features", layer.Len()).
		Msg("GeoJSON loaded")

	return layer, nil
}
