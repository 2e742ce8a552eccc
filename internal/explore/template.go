package explore

import "html/template"

var pageTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8"/>
<meta name="viewport" content="width=device-width, initial-scale=1.0"/>
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css"/>
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>
body { margin: 0; }
#map { {{.SizeCSS}} }
</style>
</head>
<body>
<div id="map"></div>
<script>
var map = L.map('map'{{if .HasCenter}}, {center: [{{.Lat}}, {{.Lon}}], zoom: {{.Zoom}}}{{end}});
L.tileLayer('{{.TileURL}}', {
  attribution: '{{.Attribution}}',
  maxZoom: {{.MaxZoom}}{{if .Subdomains}},
  subdomains: '{{.Subdomains}}'{{end}}
}).addTo(map);

function featureStyle(f) {
  var c = f.properties['__color'] || '#3388ff';
  return {color: c, fillColor: c, weight: 2, fillOpacity: 0.6};
}

function featurePopup(f, layer) {
  var rows = [];
  for (var k in f.properties) {
    if (k.indexOf('__') === 0) { continue; }
    rows.push('<tr><th>' + k + '</th><td>' + f.properties[k] + '</td></tr>');
  }
  if (rows.length) {
    layer.bindPopup('<table>' + rows.join('') + '</table>');
  }
}

var overlays = {};
{{range $i, $l := .Layers}}
var layer{{$i}} = L.geoJSON({{$l.GeoJSON}}, {
  style: featureStyle,
  pointToLayer: function (f, latlng) {
    return L.circleMarker(latlng, {radius: 5});
  },
  onEachFeature: featurePopup
}).addTo(map);
overlays[{{$l.Name}}] = layer{{$i}};
{{end}}
{{if .LayerControl}}
L.control.layers(null, overlays).addTo(map);
{{end}}
{{if not .HasCenter}}
var group = L.featureGroup(Object.keys(overlays).map(function (k) { return overlays[k]; }));
if (group.getLayers().length) { map.fitBounds(group.getBounds()); }
{{end}}
</script>
</body>
</html>
`))
