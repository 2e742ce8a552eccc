// Package basemap fetches XYZ basemap tiles from public providers and
// stitches them into background images for map rendering.
package basemap

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/orb/maptile"
)

// Provider describes an XYZ tile source.
type Provider struct {
	Name        string
	URL         string // template with {s} {z} {x} {y}
	Subdomains  []string
	Attribution string
	MaxZoom     int
	TileSize    int
}

var providers = []Provider{
	{
		Name:        "OpenStreetMap.Mapnik",
		URL:         "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: "© OpenStreetMap contributors",
		MaxZoom:     19,
	},
	{
		Name:        "CartoDB.Voyager",
		URL:         "https://{s}.basemaps.cartocdn.com/rastertiles/voyager/{z}/{x}/{y}.png",
		Subdomains:  []string{"a", "b", "c", "d"},
		Attribution: "© OpenStreetMap contributors © CARTO",
		MaxZoom:     20,
	},
	{
		Name:        "CartoDB.Positron",
		URL:         "https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}.png",
		Subdomains:  []string{"a", "b", "c", "d"},
		Attribution: "© OpenStreetMap contributors © CARTO",
		MaxZoom:     20,
	},
	{
		Name:        "CartoDB.DarkMatter",
		URL:         "https://{s}.basemaps.cartocdn.com/dark_all/{z}/{x}/{y}.png",
		Subdomains:  []string{"a", "b", "c", "d"},
		Attribution: "© OpenStreetMap contributors © CARTO",
		MaxZoom:     20,
	},
	{
		Name:        "CartoDB.DarkMatterOnlyLabels",
		URL:         "https://{s}.basemaps.cartocdn.com/dark_only_labels/{z}/{x}/{y}.png",
		Subdomains:  []string{"a", "b", "c", "d"},
		Attribution: "© OpenStreetMap contributors © CARTO",
		MaxZoom:     20,
	},
	{
		Name:        "Esri.WorldImagery",
		URL:         "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
		Attribution: "Esri, Maxar, Earthstar Geographics",
		MaxZoom:     18,
	},
}

// Lookup finds a provider by name, case-insensitive.
func Lookup(name string) (Provider, error) {
	for _, p := range providers {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return Provider{}, fmt.Errorf("unknown basemap provider %q (have %s)", name, strings.Join(Names(), ", "))
}

// Names lists the registered provider names, sorted.
func Names() []string {
	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}

// TileURL expands the URL template for a tile.
func (p Provider) TileURL(t maptile.Tile) string {
	s := strings.ReplaceAll(p.URL, "{z}", strconv.Itoa(int(t.Z)))
	s = strings.ReplaceAll(s, "{x}", strconv.FormatUint(uint64(t.X), 10))
	s = strings.ReplaceAll(s, "{y}", strconv.FormatUint(uint64(t.Y), 10))

	if strings.Contains(s, "{s}") {
		sub := "a"
		if len(p.Subdomains) > 0 {
			sub = p.Subdomains[int(t.X+t.Y)%len(p.Subdomains)]
		}
		s = strings.ReplaceAll(s, "{s}", sub)
	}

	return s
}

func (p Provider) tileSize() int {
	if p.TileSize > 0 {
		return p.TileSize
	}
	return 256
}

// cacheName is the provider name made safe for a directory component.
func (p Provider) cacheName() string {
	return strings.ToLower(strings.ReplaceAll(p.Name, ".", "-"))
}
