package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/vecmap/vecmap/internal/basemap"
	"github.com/vecmap/vecmap/internal/explore"
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

	Output string `short:"o" long:"output" description:"Output HTML file" default:"map.html"`
	Title  string `short:"t" long:"title"  description:"Document title"`
	Tiles  string `long:"tiles" description:"Tile provider" default:"OpenStreetMap.Mapnik"`

	Center []float64 `long:"center" description:"Initial view as lon lat (two values), default fits the layers"`
	Zoom   int       `short:"z" long:"zoom" description:"Initial zoom when --center is set" default:"5"`

	Width  int  `short:"W" long:"width"  description:"Map width in pixels, 0 fills the page"`
	Height int  `short:"H" long:"height" description:"Map height in pixels, 0 fills the page"`
	Pretty bool `long:"pretty" description:"Skip HTML minification"`

	Color  string  `long:"color"  description:"Flat fill color like #FF5500"`
	Column string  `long:"column" description:"Attribute column to encode with color"`
	Cmap   string  `long:"cmap"   description:"Colormap name" default:"Set2"`
	Alpha  float64 `long:"alpha"  description:"Fill opacity in (0,1]" default:"1"`

	SetCRS string `long:"set-crs" description:"Assume this CRS when a file does not declare one"`

	Args struct {
		Inputs []string `positional-arg-name:"INPUT" required:"1"`
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

	m := explore.NewMap()
	m.Title = opts.Title
	m.Width = opts.Width
	m.Height = opts.Height
	m.Pretty = opts.Pretty
	m.Zoom = opts.Zoom

	provider, err := basemap.Lookup(opts.Tiles)
	if err != nil {
		log.Fatal().Err(err).Msg("Unknown tile provider")
	}
	m.Provider = provider

	if len(opts.Center) == 2 {
		m.Center = &orb.Point{opts.Center[0], opts.Center[1]}
	} else if len(opts.Center) != 0 {
		log.Fatal().Msg("--center needs exactly two values: lon lat")
	}

	style := render.Style{
		Color:  opts.Color,
		Column: opts.Column,
		Cmap:   opts.Cmap,
		Alpha:  opts.Alpha,
	}

	for _, path := range opts.Args.Inputs {
		layer, err := vector.ReadFile(path)
		if err != nil {
			log.Fatal().Err(err).Str("file", path).Msg("Failed to read input")
		}

		if opts.SetCRS != "" {
			crs, err := geo.ParseCRS(opts.SetCRS)
			if err != nil {
				log.Fatal().Err(err).Msg("Invalid --set-crs")
			}
			layer.SetCRS(crs)
		}

		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if err := m.AddLayer(name, layer, style); err != nil {
			log.Fatal().Err(err).Str("file", path).Msg("Failed to add layer")
		}
	}

	if err := m.WriteFile(opts.Output); err != nil {
		log.Fatal().Err(err).Str("file", opts.Output).Msg("Failed to write map")
	}

	log.Info().
		Str("output", opts.Output).
		Int("layers", len(opts.Args.Inputs)).
		Str("tiles", opts.Tiles).
		Msg("Interactive map exported")
}
