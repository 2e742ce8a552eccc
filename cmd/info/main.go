package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/vecmap/vecmap/internal/geo"
	"github.com/vecmap/vecmap/internal/logger"
	"github.com/vecmap/vecmap/internal/vector"

	"github.com/jessevdk/go-flags"
	"github.com/mmcloughlin/geohash"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	Head   int    `short:"n" long:"head"    description:"Number of attribute rows to print" default:"5"`
	Stats  bool   `short:"s" long:"stats"   description:"Print area statistics (projected CRS only)"`
	Bounds bool   `short:"b" long:"bounds"  description:"Print per-feature bounds"`
	SetCRS string `long:"set-crs" description:"Assume this CRS when the file does not declare one"`

	Args struct {
		Files []string `positional-arg-name:"FILE" required:"1"`
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

	for i, path := range opts.Args.Files {
		if i > 0 {
			fmt.Println()
		}
		if err := describe(path, opts); err != nil {
			log.Fatal().Err(err).Str("file", path).Msg("Failed to describe file")
		}
	}
}

func describe(path string, opts Options) error {
	layer, err := vector.ReadFile(path)
	if err != nil {
		return err
	}

	if opts.SetCRS != "" {
		crs, err := geo.ParseCRS(opts.SetCRS)
		if err != nil {
			return err
		}
		layer.SetCRS(crs)
	}

	fmt.Printf("%s\n", path)
	fmt.Printf("  features:   %d\n", layer.Len())
	fmt.Printf("  geometry:   %s\n", strings.Join(layer.GeometryTypes(), ", "))
	if layer.CRS != 0 {
		fmt.Printf("  crs:        %s\n", layer.CRS)
	} else {
		fmt.Printf("  crs:        (not set)\n")
	}

	if cols := layer.Columns(); len(cols) > 0 {
		fmt.Printf("  columns:    %s\n", strings.Join(cols, ", "))
	}

	if bounds, err := layer.Bounds(); err == nil {
		fmt.Printf("  bounds:     %.6f %.6f %.6f %.6f\n",
			bounds.Min[0], bounds.Min[1], bounds.Max[0], bounds.Max[1])
	}

	if centroid, err := layer.Centroid(); err == nil {
		fmt.Printf("  centroid:   %.6f %.6f", centroid[0], centroid[1])
		if layer.CRS == geo.WGS84 {
			fmt.Printf("  (%s)", geohash.EncodeWithPrecision(centroid[1], centroid[0], 9))
		}
		fmt.Println()
	}

	if opts.Stats {
		stats, err := layer.AreaStats()
		if err != nil {
			return err
		}
		fmt.Printf("  area min:   %.3f\n", stats.Min)
		fmt.Printf("  area q1:    %.3f\n", stats.Q1)
		fmt.Printf("  area med:   %.3f\n", stats.Median)
		fmt.Printf("  area q3:    %.3f\n", stats.Q3)
		fmt.Printf("  area max:   %.3f\n", stats.Max)
		fmt.Printf("  area mean:  %.3f\n", stats.Mean)
	}

	if opts.Bounds {
		fmt.Printf("  feature bounds:\n")
		for i, f := range layer.Features {
			if f.Geometry == nil {
				continue
			}
			fb := f.Geometry.Bound()
			fmt.Printf("    %d: %.6f %.6f %.6f %.6f\n", i, fb.Min[0], fb.Min[1], fb.Max[0], fb.Max[1])
		}
	}

	if opts.Head > 0 {
		printHead(layer, opts.Head)
	}

	return nil
}

// printHead prints the first attribute rows, columns sorted by name.
func printHead(layer *geo.Layer, n int) {
	head := layer.Head(n)
	cols := head.Columns()
	if len(cols) == 0 || head.Len() == 0 {
		return
	}
	sort.Strings(cols)

	fmt.Printf("  head:\n")
	for _, f := range head.Features {
		row := make([]string, 0, len(cols))
		for _, c := range cols {
			row = append(row, fmt.Sprintf("%s=%v", c, f.Properties[c]))
		}
		fmt.Printf("    %s\n", strings.Join(row, "  "))
	}
}
