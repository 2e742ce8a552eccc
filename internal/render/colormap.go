package render

import (
	"fmt"
	"image/color"
	"math"
	"sort"
	"strings"
)

// Colormap is a named color scale. Qualitative maps cycle through their
// colors per category; sequential maps interpolate along the ramp.
type Colormap struct {
	Name        string
	Qualitative bool
	colors      []color.NRGBA
}

var colormaps = map[string]Colormap{
	"set2": {
		Name:        "Set2",
		Qualitative: true,
		colors: []color.NRGBA{
			{102, 194, 165, 255}, {252, 141, 98, 255}, {141, 160, 203, 255},
			{231, 138, 195, 255}, {166, 216, 84, 255}, {255, 217, 47, 255},
			{229, 196, 148, 255}, {179, 179, 179, 255},
		},
	},
	"set3": {
		Name:        "Set3",
		Qualitative: true,
		colors: []color.NRGBA{
			{141, 211, 199, 255}, {255, 255, 179, 255}, {190, 186, 218, 255},
			{251, 128, 114, 255}, {128, 177, 211, 255}, {253, 180, 98, 255},
			{179, 222, 105, 255}, {252, 205, 229, 255}, {217, 217, 217, 255},
			{188, 128, 189, 255}, {204, 235, 197, 255}, {255, 237, 111, 255},
		},
	},
	"reds": {
		Name: "Reds",
		colors: []color.NRGBA{
			{255, 245, 240, 255}, {252, 187, 161, 255}, {251, 106, 74, 255},
			{203, 24, 29, 255}, {103, 0, 13, 255},
		},
	},
	"viridis": {
		Name: "Viridis",
		colors: []color.NRGBA{
			{68, 1, 84, 255}, {59, 82, 139, 255}, {33, 145, 140, 255},
			{94, 201, 98, 255}, {253, 231, 37, 255},
		},
	},
}

// ColormapByName looks up a colormap, case-insensitive.
func ColormapByName(name string) (Colormap, error) {
	cm, ok := colormaps[strings.ToLower(name)]
	if !ok {
		return Colormap{}, fmt.Errorf("unknown colormap %q (have %s)", name, strings.Join(ColormapNames(), ", "))
	}
	return cm, nil
}

// ColormapNames lists the registered colormap names, sorted.
func ColormapNames() []string {
	names := make([]string, 0, len(colormaps))
	for _, cm := range colormaps {
		names = append(names, cm.Name)
	}
	sort.Strings(names)
	return names
}

// At maps t in [0,1] through the ramp with linear interpolation.
func (c Colormap) At(t float64) color.NRGBA {
	if math.IsNaN(t) || t <= 0 {
		return c.colors[0]
	}
	if t >= 1 {
		return c.colors[len(c.colors)-1]
	}

	pos := t * float64(len(c.colors)-1)
	lo := int(pos)
	frac := pos - float64(lo)
	a, b := c.colors[lo], c.colors[lo+1]

	return color.NRGBA{
		R: lerp(a.R, b.R, frac),
		G: lerp(a.G, b.G, frac),
		B: lerp(a.B, b.B, frac),
		A: 255,
	}
}

// Class returns the color for a category index, cycling when the
// number of categories exceeds the palette.
func (c Colormap) Class(i int) color.NRGBA {
	if i < 0 {
		i = -i
	}
	return c.colors[i%len(c.colors)]
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}
