// Package server exposes a rendered workspace over HTTP: exported maps,
// GeoJSON layers, and a caching basemap tile proxy.
package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/chai2010/webp"
	"github.com/paulmach/orb/maptile"
	"github.com/rs/zerolog/log"

	"github.com/vecmap/vecmap/internal/basemap"
)

const etagCap = 64

var contentTypes = map[string]string{
	".geojson": "application/geo+json",
	".json":    "application/json",
	".html":    "text/html; charset=utf-8",
	".png":     "image/png",
	".webp":    "image/webp",
}

// HandleProviders serves the list of known basemap providers.
func (s *ServerContext) HandleProviders(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(basemap.Names())
}

// HandleTile proxies /tiles/{provider}/{z}/{x}/{y} through the caching
// fetcher, converting whatever the provider returns to WebP.
func (s *ServerContext) HandleTile(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	// parts: tiles, provider, z, x, y
	if len(parts) != 5 {
		http.NotFound(w, r)
		return
	}

	provider, err := basemap.Lookup(parts[1])
	if err != nil {
		http.NotFound(w, r)
		return
	}

	z, errZ := strconv.Atoi(parts[2])
	x, errX := strconv.ParseUint(parts[3], 10, 32)
	y, errY := strconv.ParseUint(strings.TrimSuffix(parts[4], ".webp"), 10, 32)
	if errZ != nil || errX != nil || errY != nil || z < 0 || z > provider.MaxZoom {
		http.NotFound(w, r)
		return
	}

	tile := maptile.New(uint32(x), uint32(y), maptile.Zoom(z))

	img, err := s.Fetcher.Tile(r.Context(), provider, tile)
	if err != nil {
		log.Debug().Err(err).Str("provider", provider.Name).Msg("Tile proxy miss")
		http.NotFound(w, r)
		return
	}

	// the fetcher just cached it, serve from disk to get ETag handling
	if path, ok := s.Fetcher.CachedPath(provider, tile); ok {
		if s.serveFile(w, r, path, "image/webp") {
			return
		}
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Lossless: false, Quality: 80}); err != nil {
		http.Error(w, "encode failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/webp")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(buf.Bytes())
}

// HandleWorkspace serves exported artifacts from the workspace root and
// renders a plain index for directories.
func (s *ServerContext) HandleWorkspace(w http.ResponseWriter, r *http.Request) {
	rel := filepath.Clean(strings.TrimPrefix(r.URL.Path, "/"))
	if strings.HasPrefix(rel, "..") {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(s.Root, rel)

	info, err := os.Stat(path)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if info.IsDir() {
		s.serveIndex(w, r, path, rel)
		return
	}

	contentType := contentTypes[strings.ToLower(filepath.Ext(path))]
	if !s.serveFile(w, r, path, contentType) {
		http.NotFound(w, r)
	}
}

// serveIndex lists a workspace directory as minimal HTML.
func (s *ServerContext) serveIndex(w http.ResponseWriter, r *http.Request, dir, rel string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		http.Error(w, "read failed", http.StatusInternalServerError)
		return
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><body><ul>")
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		href := name
		if rel != "." {
			href = rel + "/" + name
		}
		fmt.Fprintf(&b, `<li><a href="/%s">%s</a></li>`, html.EscapeString(href), html.EscapeString(name))
	}
	b.WriteString("</ul></body></html>")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(b.String()))
}

// serveFile tries to serve a file from disk with ETag generation.
// It returns true if the file was found and served (or 304).
func (s *ServerContext) serveFile(w http.ResponseWriter, r *http.Request, path string, contentType string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}

	buf := make([]byte, 0, etagCap)
	buf = append(buf, '"')
	buf = strconv.AppendInt(buf, info.Size(), 16)
	buf = append(buf, '-')
	buf = strconv.AppendInt(buf, info.ModTime().UnixNano(), 16)
	buf = append(buf, '"')
	etag := string(buf)

	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return true
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}

	http.ServeFile(w, r, path)
	return true
}
