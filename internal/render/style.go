package render

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/vecmap/vecmap/internal/geo"
)

// Style controls how a layer is drawn.
type Style struct {
	// Color is a flat fill like "#FF55FF". When empty, colors come from
	// the colormap: per-category when Column holds strings, a normalized
	// ramp when it holds numbers, arbitrary cycling otherwise.
	Color string

	// Column selects the property to encode with color.
	Column string

	// Cmap names the colormap, default Set2.
	Cmap string

	// Alpha in (0,1]; 0 means the default of 1.
	Alpha float64

	// Legend draws a legend box for this layer.
	Legend bool

	// StrokeWidth for lines and polygon outlines, in pixels. 0 means 1.
	StrokeWidth float64

	// PointRadius for point markers, in pixels. 0 means 4.
	PointRadius float64
}

func (s Style) normalized() Style {
	if s.Cmap == "" {
		s.Cmap = "Set2"
	}
	if s.Alpha <= 0 || s.Alpha > 1 {
		s.Alpha = 1
	}
	if s.StrokeWidth <= 0 {
		s.StrokeWidth = 1
	}
	if s.PointRadius <= 0 {
		s.PointRadius = 4
	}
	return s
}

// FeatureColors resolves one color per feature for the given style, the
// same palette logic the static renderer uses: flat color, column
// encoding, or the qualitative cycle.
func FeatureColors(l *geo.Layer, s Style) ([]color.NRGBA, error) {
	s = s.normalized()

	cm, err := ColormapByName(s.Cmap)
	if err != nil {
		return nil, err
	}

	switch {
	case s.Color != "":
		flat, err := parseHexColor(s.Color)
		if err != nil {
			return nil, err
		}
		colors := make([]color.NRGBA, l.Len())
		for i := range colors {
			colors[i] = flat
		}
		return colors, nil

	case s.Column != "":
		colors, _, err := columnColors(l, s.Column, cm)
		return colors, err

	default:
		colors := make([]color.NRGBA, l.Len())
		for i := range colors {
			colors[i] = cm.Class(i)
		}
		return colors, nil
	}
}

// parseHexColor parses "#RGB", "#RRGGBB" and "#RRGGBBAA".
func parseHexColor(s string) (color.NRGBA, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(s), "#")

	var hexParts [4]string
	switch len(raw) {
	case 3:
		hexParts = [4]string{raw[0:1] + raw[0:1], raw[1:2] + raw[1:2], raw[2:3] + raw[2:3], "ff"}
	case 6:
		hexParts = [4]string{raw[0:2], raw[2:4], raw[4:6], "ff"}
	case 8:
		hexParts = [4]string{raw[0:2], raw[2:4], raw[4:6], raw[6:8]}
	default:
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}

	var c [4]uint8
	for i, p := range hexParts {
		v, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
		}
		c[i] = uint8(v)
	}

	return color.NRGBA{R: c[0], G: c[1], B: c[2], A: c[3]}, nil
}

func withAlpha(c color.NRGBA, alpha float64) color.NRGBA {
	c.A = uint8(float64(c.A) * alpha)
	return c
}
