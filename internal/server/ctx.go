package server

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/vecmap/vecmap/internal/basemap"
)

// ServerContext holds dependencies for request handlers: the workspace
// directory with exported maps and layers, and the tile fetcher backing
// the caching tile proxy.
type ServerContext struct {
	Root    string
	Fetcher *basemap.Fetcher
}

// NewServerContext validates the workspace directory and wires the
// tile fetcher.
func NewServerContext(root string, fetcher *basemap.Fetcher) (*ServerContext, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("workspace %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace %s is not a directory", root)
	}

	log.Info().
		Str("root", root).
		Bool("tile_cache", fetcher.CacheDir != "").
		Msg("Initializing server context")

	return &ServerContext{Root: root, Fetcher: fetcher}, nil
}
