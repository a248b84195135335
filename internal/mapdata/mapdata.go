// Package mapdata converts aggregated devices, snoopers and alerts
// into a render-ready geospatial document: a GeoJSON feature collection
// with presentation properties and legend metadata attached.
package mapdata

import (
	"time"
)

// Feature kinds, carried in Properties.Kind and used by renderers to
// split features into toggleable layers.
const (
	KindDevice  = "device"
	KindSnooper = "snooper"
	KindTrack   = "track"
	KindAlert   = "alert"
)

// DefaultZoom is the initial zoom level for interactive maps.
const DefaultZoom = 15

// FeatureCollection is the document root. It serializes to GeoJSON
// with a foreign metadata member.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
	Metadata Metadata  `json:"metadata"`
}

// Feature is one map feature: a device sighting, a snooper fix, a
// snooper track or an alert.
type Feature struct {
	Type       string     `json:"type"`
	Geometry   Geometry   `json:"geometry"`
	Properties Properties `json:"properties"`
}

// Geometry holds a GeoJSON geometry. Coordinates follow the GeoJSON
// axis order: longitude first.
type Geometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

func point(lat, lon float64) Geometry {
	return Geometry{Type: "Point", Coordinates: []float64{lon, lat}}
}

func lineString(coords [][]float64) Geometry {
	return Geometry{Type: "LineString", Coordinates: coords}
}

// Properties carries the presentation attributes of a feature. Fields
// irrelevant to a feature kind are left empty.
type Properties struct {
	Kind    string `json:"kind"`
	MAC     string `json:"mac,omitempty"`
	Name    string `json:"name,omitempty"`
	Title   string `json:"title,omitempty"`
	Type    string `json:"deviceType,omitempty"`
	Icon    string `json:"icon,omitempty"`
	Color   string `json:"color,omitempty"`
	Drone   bool   `json:"drone,omitempty"`
	Popup   string `json:"popup,omitempty"`
	Tooltip string `json:"tooltip,omitempty"`

	// Approximate marks an alert placed next to a nearby device
	// sighting, or at the map center, because the alert itself carried
	// no usable location.
	Approximate bool `json:"approximate,omitempty"`
}

// Metadata describes the document as a whole: identity, map framing,
// counts and the legend.
type Metadata struct {
	RunID       string    `json:"runId,omitempty"`
	GeneratedAt time.Time `json:"generatedAt"`
	Capture     string    `json:"capture,omitempty"`

	// Center is the initial map center, longitude first.
	Center []float64 `json:"center"`
	Zoom   int       `json:"zoom"`

	Devices  int `json:"devices"`
	Drones   int `json:"drones"`
	Snoopers int `json:"snoopers"`
	Alerts   int `json:"alerts"`

	Legend Legend `json:"legend"`
}

// Legend carries the marker styles and the signature sets the run
// classified with, so a rendered map can show what was searched for.
type Legend struct {
	Entries      []LegendEntry `json:"entries"`
	MACPrefixes  []string      `json:"macPrefixes"`
	NameKeywords []string      `json:"nameKeywords"`
}

// LegendEntry is one legend row.
type LegendEntry struct {
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// Style describes how a device type is presented: a Font Awesome icon
// name, a marker color and a popup title.
type Style struct {
	Icon  string
	Color string
	Title string
}

// deviceStyles maps lower case scanner device types to their
// presentation, following wardriving map conventions.
var deviceStyles = map[string]Style{
	"wi-fi ap":      {Icon: "wifi", Color: "blue", Title: "Wi-Fi Access Point"},
	"wi-fi client":  {Icon: "user", Color: "lightblue", Title: "Wi-Fi Client"},
	"btle":          {Icon: "bluetooth", Color: "green", Title: "Bluetooth LE Device"},
	"br/edr":        {Icon: "bluetooth", Color: "darkgreen", Title: "Bluetooth Classic Device"},
	"wi-fi bridged": {Icon: "exchange-alt", Color: "orange", Title: "Wi-Fi Bridged Device"},
	"wi-fi wds ap":  {Icon: "wifi", Color: "cadetblue", Title: "Wi-Fi WDS Access Point"},
	"wi-fi ad-hoc":  {Icon: "users", Color: "purple", Title: "Wi-Fi Ad-Hoc Network"},
	"wi-fi wds":     {Icon: "wifi", Color: "lightblue", Title: "Wi-Fi WDS Device"},
	"wi-fi device":  {Icon: "wifi", Color: "gray", Title: "Wi-Fi Device"},
	"tpms":          {Icon: "car", Color: "purple", Title: "Tire Pressure Monitoring System"},
	"airplane":      {Icon: "plane", Color: "blue", Title: "Airplane"},
	"ads-b":         {Icon: "plane", Color: "blue", Title: "ADS-B Device"},
	"unknown":       {Icon: "question-circle", Color: "darkgray", Title: "Unknown Device"},
}

var (
	droneStyle   = Style{Icon: "plane", Color: "red", Title: "Drone Detected!"}
	alertStyle   = Style{Icon: "exclamation-triangle", Color: "black", Title: "Alert"}
	snooperStyle = Style{Icon: "circle", Color: "orange", Title: "Snooper"}
)

// styleFor resolves the presentation of a device sighting. The drone
// override wins over the device type.
func styleFor(devType string, drone bool) Style {
	if drone {
		return droneStyle
	}
	if s, ok := deviceStyles[devType]; ok {
		return s
	}
	return deviceStyles["unknown"]
}

// legendEntries returns the stock legend rows.
func legendEntries() []LegendEntry {
	return []LegendEntry{
		{Label: "Wi-Fi AP", Icon: "wifi", Color: "blue"},
		{Label: "Wi-Fi Client", Icon: "user", Color: "lightblue"},
		{Label: "Bluetooth", Icon: "bluetooth", Color: "green"},
		{Label: "TPMS", Icon: "car", Color: "purple"},
		{Label: "Airplane", Icon: "plane", Color: "blue"},
		{Label: "Drone", Icon: droneStyle.Icon, Color: droneStyle.Color},
		{Label: "Alert", Icon: alertStyle.Icon, Color: alertStyle.Color},
		{Label: "Snooper", Icon: snooperStyle.Icon, Color: snooperStyle.Color},
	}
}
