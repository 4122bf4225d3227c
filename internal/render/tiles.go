package render

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrUnknownTiles is returned by Tiles for a provider name it does not know.
var ErrUnknownTiles = errors.New("unknown tile provider")

// TileLayer is a raster tile source in Leaflet's {z}/{x}/{y} URL form.
type TileLayer struct {
	Name        string
	URL         string
	Attribution string
	MaxZoom     int
	TileSize    int // 0 leaves Leaflet's default of 256
	ZoomOffset  int
}

const osmAttribution = `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`

var tileLayers = map[string]TileLayer{
	"openstreetmap": {
		Name:        "OpenStreetMap",
		URL:         "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: osmAttribution,
		MaxZoom:     19,
	},
	"cartodb positron": {
		Name:        "CartoDB positron",
		URL:         "https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}{r}.png",
		Attribution: osmAttribution + ` &copy; <a href="https://carto.com/attributions">CARTO</a>`,
		MaxZoom:     20,
	},
	"cartodb dark_matter": {
		Name:        "CartoDB dark_matter",
		URL:         "https://{s}.basemaps.cartocdn.com/dark_all/{z}/{x}/{y}{r}.png",
		Attribution: osmAttribution + ` &copy; <a href="https://carto.com/attributions">CARTO</a>`,
		MaxZoom:     20,
	},
}

// Tiles resolves a provider name (case-insensitive) to a tile layer.
// "Mapbox" needs an access token; style is a Mapbox style ID such as
// "mapbox/streets-v12".
func Tiles(name, mapboxToken, mapboxStyle string) (TileLayer, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "mapbox" {
		return mapboxTiles(mapboxToken, mapboxStyle)
	}
	layer, ok := tileLayers[key]
	if !ok {
		return TileLayer{}, fmt.Errorf("%w: %q", ErrUnknownTiles, name)
	}
	return layer, nil
}

func mapboxTiles(token, style string) (TileLayer, error) {
	if token == "" {
		return TileLayer{}, errors.New("mapbox tiles need an access token")
	}
	if style == "" {
		style = "mapbox/streets-v12"
	}
	return TileLayer{
		Name:        "Mapbox",
		URL:         "https://api.mapbox.com/styles/v1/" + style + "/tiles/{z}/{x}/{y}?access_token=" + url.QueryEscape(token),
		Attribution: `&copy; <a href="https://www.mapbox.com/about/maps/">Mapbox</a> ` + osmAttribution,
		MaxZoom:     22,
		TileSize:    512,
		ZoomOffset:  -1,
	}, nil
}
