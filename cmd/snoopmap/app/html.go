package app

import (
	"encoding/json"
	"fmt"
	"html/template"
	"os"

	"github.com/roman-kulish/wireless-surveillance/internal/mapdata"
)

const leafletVersion = "1.9.4"

var mapTemplate = template.Must(template.New("map").Parse(leafletTemplate))

type mapTemplateData struct {
	Title          string
	LeafletVersion string
	Doc            template.JS
}

// writeHTML emits a self-contained interactive map: the document is
// embedded as GeoJSON and Leaflet comes from the CDN, so the file
// needs nothing but a browser and network access for the tiles.
func writeHTML(path string, doc *mapdata.FeatureCollection) (err error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding map document: %w", err)
	}

	title := "Wireless survey"
	if doc.Metadata.Capture != "" {
		title = fmt.Sprintf("%s: %s", title, doc.Metadata.Capture)
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer closeWithError(out, &err)

	return mapTemplate.Execute(out, mapTemplateData{
		Title:          title,
		LeafletVersion: leafletVersion,
		Doc:            template.JS(payload),
	})
}

const leafletTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@{{.LeafletVersion}}/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@{{.LeafletVersion}}/dist/leaflet.js"></script>
<style>
html, body { height: 100%; margin: 0; }
#map { height: 100%; }
.legend { background: white; padding: 8px 10px; font: 12px/1.5 sans-serif; box-shadow: 0 0 4px rgba(0,0,0,0.3); border-radius: 4px; }
.legend .swatch { display: inline-block; width: 10px; height: 10px; margin-right: 6px; border-radius: 50%; }
</style>
</head>
<body>
<div id="map"></div>
<script>
var doc = {{.Doc}};

var map = L.map('map').setView([doc.metadata.center[1], doc.metadata.center[0]], doc.metadata.zoom);
L.tileLayer('https://tile.openstreetmap.org/{z}/{x}/{y}.png', {
	maxZoom: 19,
	attribution: '&copy; OpenStreetMap contributors'
}).addTo(map);

var layers = {};
function layerFor(kind) {
	if (!layers[kind]) {
		layers[kind] = L.layerGroup().addTo(map);
	}
	return layers[kind];
}

L.geoJSON(doc, {
	pointToLayer: function (feature, latlng) {
		var p = feature.properties;
		if (p.kind === 'snooper') {
			return L.circleMarker(latlng, {radius: 5, color: p.color, fill: true, fillColor: p.color, fillOpacity: 0.7});
		}
		return L.circleMarker(latlng, {radius: 6, color: p.color, fill: true, fillColor: p.color, fillOpacity: 0.9});
	},
	style: function (feature) {
		return {color: feature.properties.color, weight: 2, opacity: 0.6};
	},
	onEachFeature: function (feature, layer) {
		var p = feature.properties;
		if (p.popup) {
			layer.bindPopup(p.popup);
		}
		if (p.tooltip) {
			layer.bindTooltip(p.tooltip);
		}
		layerFor(p.kind).addLayer(layer);
	}
});

L.control.layers(null, {
	'Devices': layerFor('device'),
	'Snoopers': layerFor('snooper'),
	'Tracks': layerFor('track'),
	'Alerts': layerFor('alert')
}).addTo(map);

var legend = L.control({position: 'bottomright'});
legend.onAdd = function () {
	var div = L.DomUtil.create('div', 'legend');
	doc.metadata.legend.entries.forEach(function (e) {
		var row = document.createElement('div');
		var swatch = document.createElement('span');
		swatch.className = 'swatch';
		swatch.style.background = e.color;
		row.appendChild(swatch);
		row.appendChild(document.createTextNode(e.label));
		div.appendChild(row);
	});
	return div;
};
legend.addTo(map);
</script>
</body>
</html>
`
