// Package mapview renders geocoded points as a self-contained Leaflet map.
package mapview

import (
	"encoding/json"
	"html"
	"html/template"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/praxis-map/internal/geo"
)

// Defaults used when a Map field is left empty.
const (
	DefaultLatitude    = 52.52
	DefaultLongitude   = 13.405
	DefaultZoom        = 11
	DefaultTileURL     = "https://tile.openstreetmap.org/{z}/{x}/{y}.png"
	DefaultAttribution = "&copy; OpenStreetMap contributors"
	DefaultTitle       = "Arztpraxen"

	leafletCSS = "https://unpkg.com/leaflet@1.9.4/dist/leaflet.css"
	leafletJS  = "https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"
)

// PropPopup is the feature property holding the popup HTML.
const PropPopup = "popup"

// MarkerStyle mirrors Leaflet's circleMarker path options.
type MarkerStyle struct {
	Radius      float64 `json:"radius"`
	Color       string  `json:"color"`
	Fill        bool    `json:"fill"`
	FillColor   string  `json:"fillColor"`
	FillOpacity float64 `json:"fillOpacity"`
}

// DefaultMarkerStyle is a small red filled circle.
var DefaultMarkerStyle = MarkerStyle{
	Radius:      4,
	Color:       "red",
	Fill:        true,
	FillColor:   "red",
	FillOpacity: 0.7,
}

// Map describes the page to render. A zero center falls back to the
// midpoint of the points, and then to Berlin.
type Map struct {
	Title       string
	Latitude    float64
	Longitude   float64
	Zoom        int
	TileURL     string
	Attribution string
	Style       MarkerStyle
	Points      []geo.Point
}

// view is the data handed to the template. Config is JSON-encoded by
// html/template because it is used in a script context.
type view struct {
	Title      string
	LeafletCSS string
	LeafletJS  string
	Config     viewConfig
	Features   template.JS
}

type viewConfig struct {
	Center      [2]float64  `json:"center"`
	Zoom        int         `json:"zoom"`
	TileURL     string      `json:"tileUrl"`
	Attribution string      `json:"attribution"`
	Style       MarkerStyle `json:"style"`
}

var page = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<link rel="stylesheet" href="{{.LeafletCSS}}">
<script src="{{.LeafletJS}}"></script>
<style>html, body, #map { height: 100%; margin: 0; }</style>
</head>
<body>
<div id="map"></div>
<script>
var cfg = {{.Config}};
var features = {{.Features}};
var map = L.map("map").setView(cfg.center, cfg.zoom);
L.tileLayer(cfg.tileUrl, {attribution: cfg.attribution, maxZoom: 19}).addTo(map);
L.geoJSON(features, {
  pointToLayer: function (feature, latlng) { return L.circleMarker(latlng, cfg.style); },
  onEachFeature: function (feature, layer) { layer.bindPopup(feature.properties.popup); }
}).addTo(map);
</script>
</body>
</html>
`))

// Popup returns the popup HTML for a point: the escaped name and address
// separated by a line break.
func Popup(p geo.Point) string {
	return html.EscapeString(p.Name) + "<br>" + html.EscapeString(p.Address)
}

// Render writes the map page to w.
func Render(w io.Writer, m Map) error {
	m = withDefaults(m)

	fc := geo.FeatureCollection(m.Points)
	for i, f := range fc.Features {
		f.Properties[PropPopup] = Popup(m.Points[i])
	}
	features, err := json.Marshal(fc)
	if err != nil {
		return eris.Wrap(err, "mapview: marshal features")
	}

	v := view{
		Title:      m.Title,
		LeafletCSS: leafletCSS,
		LeafletJS:  leafletJS,
		Config: viewConfig{
			Center:      [2]float64{m.Latitude, m.Longitude},
			Zoom:        m.Zoom,
			TileURL:     m.TileURL,
			Attribution: m.Attribution,
			Style:       m.Style,
		},
		// json.Marshal escapes <, > and & so the payload cannot close the script tag.
		Features: template.JS(features), //nolint:gosec
	}
	if err := page.Execute(w, v); err != nil {
		return eris.Wrap(err, "mapview: render")
	}
	return nil
}

// Save renders the map to path.
func Save(path string, m Map) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "mapview: create %s", path)
	}
	if err := Render(f, m); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "mapview: close %s", path)
	}
	zap.L().Info("map saved", zap.String("path", path), zap.Int("markers", len(m.Points)))
	return nil
}

func withDefaults(m Map) Map {
	if m.Title == "" {
		m.Title = DefaultTitle
	}
	if m.Latitude == 0 && m.Longitude == 0 {
		m.Latitude, m.Longitude = DefaultLatitude, DefaultLongitude
		if lat, lng, ok := geo.Center(m.Points); ok {
			m.Latitude, m.Longitude = lat, lng
		}
	}
	if m.Zoom == 0 {
		m.Zoom = DefaultZoom
	}
	if m.TileURL == "" {
		m.TileURL = DefaultTileURL
	}
	if m.Attribution == "" {
		m.Attribution = DefaultAttribution
	}
	if m.Style == (MarkerStyle{}) {
		m.Style = DefaultMarkerStyle
	}
	return m
}
