package main

import (
	"context"
	"errors"
	"os"

	"github.com/vecmap/vecmap/internal/basemap"
	"github.com/vecmap/vecmap/internal/config"
	"github.com/vecmap/vecmap/internal/geo"
	"github.com/vecmap/vecmap/internal/logger"
	"github.com/vecmap/vecmap/internal/render"
	"github.com/vecmap/vecmap/internal/vector"

	"github.com/jessevdk/go-flags"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config" env:"CONFIG_FILE" description:"Map project file, replaces the INPUT argument"`
	Output     string `short:"o" long:"output" description:"Output image (.png or .webp)" default:"map.png"`

	Width  int    `short:"W" long:"width"  description:"Image width in pixels"  default:"1000"`
	Height int    `short:"H" long:"height" description:"Image height in pixels" default:"800"`
	Title  string `short:"t" long:"title"  description:"Title drawn above the map"`

	Color  string  `long:"color"  description:"Flat fill color like #FF5500"`
	Column string  `long:"column" description:"Attribute column to encode with color"`
	Cmap   string  `long:"cmap"   description:"Colormap name" default:"Set2"`
	Alpha  float64 `long:"alpha"  description:"Fill opacity in (0,1]" default:"1"`
	Legend bool    `long:"legend" description:"Draw a legend"`

	Basemap   string    `short:"b" long:"basemap" description:"Basemap provider, e.g. OpenStreetMap.Mapnik"`
	Zoom      int       `short:"z" long:"zoom"    description:"Tile zoom, 0 picks one from the extent"`
	CacheDir  string    `long:"tile-cache" env:"TILE_CACHE" description:"Directory for cached tiles"`
	Extent    []float64 `short:"e" long:"extent"  description:"Map extent as west south east north (four values)"`

	SetCRS string `long:"set-crs" description:"Assume this CRS when the file does not declare one"`

	Args struct {
		Inputs []string `positional-arg-name:"INPUT"`
	} `positional-args:"yes"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	project, err := buildProject(opts)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid arguments")
	}

	if err := renderProject(project, opts); err != nil {
		log.Fatal().Err(err).Msg("Render failed")
	}
}

// buildProject loads the project file or synthesizes one from flags.
func buildProject(opts Options) (*config.Project, error) {
	if opts.ConfigFile != "" {
		return config.Load(opts.ConfigFile)
	}

	if len(opts.Args.Inputs) == 0 {
		return nil, errors.New("no input files and no --config")
	}

	p := &config.Project{
		Title:   opts.Title,
		Width:   opts.Width,
		Height:  opts.Height,
		Basemap: opts.Basemap,
		Zoom:    opts.Zoom,
		Extent:  opts.Extent,
	}

	for _, path := range opts.Args.Inputs {
		p.Layers = append(p.Layers, config.Layer{
			Path:   path,
			Column: opts.Column,
			Cmap:   opts.Cmap,
			Color:  opts.Color,
			Alpha:  opts.Alpha,
			Legend: opts.Legend,
			SetCRS: opts.SetCRS,
		})
	}

	return p, nil
}

func renderProject(p *config.Project, opts Options) error {
	r := render.New(p.Width, p.Height)
	r.Title = p.Title

	var provider basemap.Provider
	if p.Basemap != "" {
		var err error
		if provider, err = basemap.Lookup(p.Basemap); err != nil {
			return err
		}
	}

	for _, lc := range p.Layers {
		layer, err := vector.ReadFile(lc.Path)
		if err != nil {
			return err
		}

		if lc.SetCRS != "" {
			crs, err := geo.ParseCRS(lc.SetCRS)
			if err != nil {
				return err
			}
			layer.SetCRS(crs)
		}

		if lc.ToCRS != "" {
			crs, err := geo.ParseCRS(lc.ToCRS)
			if err != nil {
				return err
			}
			if layer, err = layer.ToCRS(crs); err != nil {
				return err
			}
		}

		// tiles are Web Mercator, draw the layers in the same plane
		if p.Basemap != "" && layer.CRS == geo.WGS84 {
			if layer, err = layer.ToCRS(geo.WebMercator); err != nil {
				return err
			}
		}

		if err := r.AddLayer(layer, lc.Style()); err != nil {
			return err
		}

		log.Debug().Str("path", lc.Path).Int("features", layer.Len()).Msg("Layer added")
	}

	if len(p.Extent) == 4 {
		b := orb.Bound{
			Min: orb.Point{p.Extent[0], p.Extent[1]},
			Max: orb.Point{p.Extent[2], p.Extent[3]},
		}
		r.Extent = &b
	}

	if p.Basemap != "" {
		fetcher := basemap.NewFetcher(opts.CacheDir)
		if err := basemap.AddBasemap(context.Background(), fetcher, r, provider, p.Zoom); err != nil {
			return err
		}
	}

	if err := r.WriteFile(opts.Output); err != nil {
		return err
	}

	log.Info().
		Str("output", opts.Output).
		Int("layers", len(p.Layers)).
		Str("basemap", p.Basemap).
		Msg("Map rendered")

	return nil
}
