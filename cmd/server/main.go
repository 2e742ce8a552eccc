package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/vecmap/vecmap/internal/basemap"
	"github.com/vecmap/vecmap/internal/logger"
	"github.com/vecmap/vecmap/internal/server"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	Workspace string `short:"w" long:"workspace"  env:"WORKSPACE"      description:"Directory with exported maps and layers" default:"."`
	CacheDir  string `long:"tile-cache"           env:"TILE_CACHE"     description:"Directory for cached tiles"`
	Addr      string `short:"a" long:"addr"       env:"LISTEN_ADDRESS" description:"Address to listen on" default:"0.0.0.0"`
	Port      int    `short:"p" long:"port"       env:"LISTEN_PORT"    description:"Port to listen on"    default:"8080"`
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

	// Setup Logging
	opts.Logger.Setup()

	srvCtx, err := server.NewServerContext(opts.Workspace, basemap.NewFetcher(opts.CacheDir))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize server")
	}

	// Routes
	mux := http.NewServeMux()
	mux.HandleFunc("/api/providers", srvCtx.HandleProviders)
	mux.HandleFunc("/tiles/", srvCtx.HandleTile)
	mux.HandleFunc("/", srvCtx.HandleWorkspace)

	handler := server.RequestLogger(mux)

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	log.Info().
		Str("addr", listenAddr).
		Str("workspace", opts.Workspace).
		Msg("Web server started")

	if err := http.ListenAndServe(listenAddr, handler); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
