package vector

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/vecmap/vecmap/internal/geo"
)

// WriteFile writes a layer to disk, format detected from the extension.
// The layer must have a CRS set: files without a declared reference
// system are a frequent source of downstream errors.
func WriteFile(path string, layer *geo.Layer) error {
	if layer.CRS == 0 {
		return fmt.Errorf("write %s: %w", path, ErrNoCRS)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtGeoJSON, ExtJSON:
		err = writeGeoJSON(path, layer)
	case ExtShapefile:
		err = writeShapefile(path, layer)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}

	if err != nil {
		return err
	}

	log.Debug().
		Str("path", path).
		Int("features", layer.Len()).
		Stringer("crs", layer.CRS).
		Msg("Layer written")

	return nil
}

func writeGeoJSON(path string, layer *geo.Layer) error {
	// GeoJSON is lon/lat by definition
	out := layer
	if layer.CRS != geo.WGS84 {
		var err error
		out, err = layer.ToCRS(geo.WGS84)
		if err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	data, err := json.MarshalIndent(out.FeatureCollection(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
