package main

import (
	"os"

	"github.com/vecmap/vecmap/internal/geo"
	"github.com/vecmap/vecmap/internal/logger"
	"github.com/vecmap/vecmap/internal/vector"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	Head   int      `short:"n" long:"head"    description:"Keep only the first N features"`
	Select []string `short:"s" long:"select"  description:"Keep only these attribute columns (repeatable)"`
	SetCRS string   `long:"set-crs" description:"Assign this CRS without transforming coordinates"`
	ToCRS  string   `long:"to-crs"  description:"Reproject to this CRS"`

	Args struct {
		Input  string `positional-arg-name:"INPUT" required:"yes"`
		Output string `positional-arg-name:"OUTPUT" required:"yes"`
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

	layer, err := vector.ReadFile(opts.Args.Input)
	if err != nil {
		log.Fatal().Err(err).Str("file", opts.Args.Input).Msg("Failed to read input")
	}

	if opts.SetCRS != "" {
		crs, err := geo.ParseCRS(opts.SetCRS)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid --set-crs")
		}
		layer.SetCRS(crs)
	}

	if opts.ToCRS != "" {
		crs, err := geo.ParseCRS(opts.ToCRS)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid --to-crs")
		}
		if layer, err = layer.ToCRS(crs); err != nil {
			log.Fatal().Err(err).Msg("Failed to reproject")
		}
	}

	if opts.Head > 0 {
		layer = layer.Head(opts.Head)
	}
	if len(opts.Select) > 0 {
		layer = layer.Select(opts.Select...)
	}

	if err := vector.WriteFile(opts.Args.Output, layer); err != nil {
		log.Fatal().Err(err).Str("file", opts.Args.Output).Msg("Failed to write output")
	}

	log.Info().
		Str("input", opts.Args.Input).
		Str("output", opts.Args.Output).
		Int("features", layer.Len()).
		Str("crs", layer.CRS.String()).
		Msg("Converted")
}
