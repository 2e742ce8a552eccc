// Package config loads YAML map-project files used by the render and
// explore commands: which layers to draw, how to style them, and which
// basemap to put underneath.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vecmap/vecmap/internal/basemap"
	"github.com/vecmap/vecmap/internal/geo"
	"github.com/vecmap/vecmap/internal/render"
)

// Project is the root of a map-project file.
type Project struct {
	Title   string    `yaml:"title,omitempty"`
	Width   int       `yaml:"width,omitempty"`
	Height  int       `yaml:"height,omitempty"`
	Basemap string    `yaml:"basemap,omitempty"`
	Zoom    int       `yaml:"zoom,omitempty"`
	Extent  []float64 `yaml:"extent,omitempty"` // west, south, east, north
	Layers  []Layer   `yaml:"layers"`
}

// Layer describes one input file and its style.
type Layer struct {
	Path   string  `yaml:"path"`
	Name   string  `yaml:"name,omitempty"`
	Column string  `yaml:"column,omitempty"`
	Cmap   string  `yaml:"cmap,omitempty"`
	Color  string  `yaml:"color,omitempty"`
	Alpha  float64 `yaml:"alpha,omitempty"`
	Legend bool    `yaml:"legend,omitempty"`
	SetCRS string  `yaml:"set_crs,omitempty"`
	ToCRS  string  `yaml:"to_crs,omitempty"`
}

// Style converts the layer entry to a render style.
func (l Layer) Style() render.Style {
	return render.Style{
		Color:  l.Color,
		Column: l.Column,
		Cmap:   l.Cmap,
		Alpha:  l.Alpha,
		Legend: l.Legend,
	}
}

// Load reads and parses a project file from the specified path.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project %s: %w", path, err)
	}

	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse project %s: %w", path, err)
	}

	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("project %s: %w", path, err)
	}

	p.applyDefaults()
	return &p, nil
}

func (p *Project) validate() error {
	if len(p.Layers) == 0 {
		return fmt.Errorf("no layers defined")
	}

	if p.Basemap != "" {
		if _, err := basemap.Lookup(p.Basemap); err != nil {
			return err
		}
	}

	if len(p.Extent) != 0 && len(p.Extent) != 4 {
		return fmt.Errorf("extent needs 4 values (west south east north), got %d", len(p.Extent))
	}

	for i, l := range p.Layers {
		if l.Path == "" {
			return fmt.Errorf("layer %d: path is required", i)
		}
		if l.Cmap != "" {
			if _, err := render.ColormapByName(l.Cmap); err != nil {
				return fmt.Errorf("layer %d: %w", i, err)
			}
		}
		if l.SetCRS != "" {
			if _, err := geo.ParseCRS(l.SetCRS); err != nil {
				return fmt.Errorf("layer %d: %w", i, err)
			}
		}
		if l.ToCRS != "" {
			if _, err := geo.ParseCRS(l.ToCRS); err != nil {
				return fmt.Errorf("layer %d: %w", i, err)
			}
		}
	}

	return nil
}

func (p *Project) applyDefaults() {
	if p.Width <= 0 {
		p.Width = 1000
	}
	if p.Height <= 0 {
		p.Height = 800
	}

	for i := range p.Layers {
		if p.Layers[i].Name == "" {
			p.Layers[i].Name = fmt.Sprintf("layer-%d", i)
		}
	}
}
