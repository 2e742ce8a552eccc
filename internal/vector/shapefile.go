package vector

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"

	"github.com/vecmap/vecmap/internal/geo"
)

// Well-known text written to .prj sidecar files.
const (
	wgs84WKT = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

	webMercatorWKT = `PROJCS["WGS_1984_Web_Mercator_Auxiliary_Sphere",GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]],PROJECTION["Mercator_Auxiliary_Sphere"],PARAMETER["False_Easting",0.0],PARAMETER["False_Northing",0.0],PARAMETER["Central_Meridian",0.0],PARAMETER["Standard_Parallel_1",0.0],PARAMETER["Auxiliary_Sphere_Type",0.0],UNIT["Meter",1.0]]`
)

func readShapefile(path string) (*geo.Layer, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = r.Close() }()

	fields := r.Fields()
	layer := geo.NewLayer()

	for r.Next() {
		row, shape := r.Shape()

		g := shapeToGeometry(shape)
		if g == nil {
			log.Warn().Int("row", row).Msg("Skipping unsupported shape type")
			continue
		}

		f := geojson.NewFeature(g)
		for i, fld := range fields {
			raw := strings.TrimSpace(r.ReadAttribute(row, i))
			f.Properties[fld.String()] = parseAttribute(fld, raw)
		}
		layer.Append(f)
	}

	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	layer.SetCRS(readPRJ(path))

	log.Debug().
		Str("path", path).
		Int("features", layer.Len()).
		Stringer("crs", layer.CRS).
		Msg("Shapefile loaded")

	return layer, nil
}

// parseAttribute converts a DBF string value to a typed property.
func parseAttribute(fld shp.Field, raw string) interface{} {
	if raw == "" {
		return nil
	}

	switch fld.Fieldtype {
	case 'N', 'F':
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	case 'L':
		switch strings.ToLower(raw) {
		case "t", "y":
			return true
		case "f", "n":
			return false
		}
	}

	return raw
}

// readPRJ determines the CRS from the .prj sidecar. A missing sidecar
// defaults to WGS84: most distributed shapefiles are lon/lat.
func readPRJ(shpPath string) geo.CRS {
	prjPath := strings.TrimSuffix(shpPath, ExtShapefile) + ".prj"

	data, err := os.ReadFile(prjPath)
	if err != nil {
		log.Warn().
			Str("path", shpPath).
			Msg("No .prj sidecar found, assuming WGS84")
		return geo.WGS84
	}

	wkt := string(data)
	if strings.Contains(wkt, "3857") || strings.Contains(wkt, "Mercator") {
		return geo.WebMercator
	}

	return geo.WGS84
}

func shapeToGeometry(shape shp.Shape) orb.Geometry {
	switch s := shape.(type) {
	case *shp.Point:
		return orb.Point{s.X, s.Y}
	case *shp.PointM:
		return orb.Point{s.X, s.Y}
	case *shp.PointZ:
		return orb.Point{s.X, s.Y}
	case *shp.MultiPoint:
		mp := make(orb.MultiPoint, 0, len(s.Points))
		for _, p := range s.Points {
			mp = append(mp, orb.Point{p.X, p.Y})
		}
		return mp
	case *shp.PolyLine:
		lines := splitParts(s.Parts, s.Points)
		if len(lines) == 1 {
			return orb.LineString(lines[0])
		}
		mls := make(orb.MultiLineString, 0, len(lines))
		for _, l := range lines {
			mls = append(mls, orb.LineString(l))
		}
		return mls
	case *shp.Polygon:
		return assemblePolygons(splitParts(s.Parts, s.Points))
	default:
		return nil
	}
}

// splitParts slices the flat point array into rings/lines by part offsets.
func splitParts(parts []int32, points []shp.Point) [][]orb.Point {
	if len(parts) == 0 {
		parts = []int32{0}
	}

	out := make([][]orb.Point, 0, len(parts))
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}

		part := make([]orb.Point, 0, end-start)
		for _, p := range points[start:end] {
			part = append(part, orb.Point{p.X, p.Y})
		}
		out = append(out, part)
	}

	return out
}

// assemblePolygons groups shapefile rings into polygons. Outer rings are
// clockwise per the shapefile spec; counter-clockwise rings are holes
// belonging to the preceding outer ring.
func assemblePolygons(rings [][]orb.Point) orb.Geometry {
	var polys []orb.Polygon

	for _, pts := range rings {
		ring := orb.Ring(pts)
		if signedArea(ring) <= 0 || len(polys) == 0 {
			polys = append(polys, orb.Polygon{ring})
		} else {
			polys[len(polys)-1] = append(polys[len(polys)-1], ring)
		}
	}

	if len(polys) == 1 {
		return polys[0]
	}
	return orb.MultiPolygon(polys)
}

// signedArea is the shoelace sum: positive for counter-clockwise rings.
func signedArea(ring orb.Ring) float64 {
	sum := 0.0
	for i := 0; i < len(ring)-1; i++ {
		sum += ring[i][0]*ring[i+1][1] - ring[i+1][0]*ring[i][1]
	}
	return sum / 2
}

func reverseRing(ring orb.Ring) orb.Ring {
	out := make(orb.Ring, len(ring))
	for i, p := range ring {
		out[len(ring)-1-i] = p
	}
	return out
}

func writeShapefile(path string, layer *geo.Layer) error {
	if layer.Len() == 0 {
		return fmt.Errorf("write %s: %w: shapefiles cannot be empty", path, geo.ErrEmptyLayer)
	}

	shapeType, err := layerShapeType(layer)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	w, err := shp.Create(path, shapeType)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer w.Close()

	cols := layer.Columns()
	fields := buildFields(layer, cols)
	w.SetFields(fields)

	for row, f := range layer.Features {
		shape, err := geometryToShape(f.Geometry)
		if err != nil {
			return fmt.Errorf("write %s row %d: %w", path, row, err)
		}
		w.Write(shape)

		for i, col := range cols {
			w.WriteAttribute(row, i, attributeValue(f.Properties[col]))
		}
	}

	return writePRJ(path, layer.CRS)
}

// layerShapeType picks the shapefile geometry class. All features in a
// shapefile share one class, point/line/polygon variants included.
func layerShapeType(layer *geo.Layer) (shp.ShapeType, error) {
	var t shp.ShapeType

	for _, f := range layer.Features {
		var ft shp.ShapeType
		switch f.Geometry.(type) {
		case orb.Point:
			ft = shp.POINT
		case orb.MultiPoint:
			ft = shp.MULTIPOINT
		case orb.LineString, orb.MultiLineString:
			ft = shp.POLYLINE
		case orb.Polygon, orb.MultiPolygon:
			ft = shp.POLYGON
		default:
			return 0, fmt.Errorf("geometry type %s cannot be written to a shapefile", f.Geometry.GeoJSONType())
		}

		if t == 0 {
			t = ft
		} else if t != ft {
			return 0, fmt.Errorf("mixed geometry types %v and %v in one shapefile", t, ft)
		}
	}

	return t, nil
}

func buildFields(layer *geo.Layer, cols []string) []shp.Field {
	fields := make([]shp.Field, 0, len(cols))

	for _, col := range cols {
		numeric := true
		for _, f := range layer.Features {
			v, ok := f.Properties[col]
			if !ok || v == nil {
				continue
			}
			switch v.(type) {
			case float64, float32, int, int64:
			default:
				numeric = false
			}
		}

		// DBF limits field names to 10 characters
		name := col
		if len(name) > 10 {
			name = name[:10]
		}

		if numeric {
			fields = append(fields, shp.FloatField(name, 24, 8))
		} else {
			fields = append(fields, shp.StringField(name, 128))
		}
	}

	return fields
}

func attributeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case nil:
		return ""
	case float64, float32, int, int64, string:
		return t
	case bool:
		if t {
			return "T"
		}
		return "F"
	default:
		return fmt.Sprintf("%v", t)
	}
}

func geometryToShape(g orb.Geometry) (shp.Shape, error) {
	switch t := g.(type) {
	case orb.Point:
		return &shp.Point{X: t[0], Y: t[1]}, nil
	case orb.MultiPoint:
		return multiPointShape(t), nil
	case orb.LineString:
		return polyLineShape([][]orb.Point{t}), nil
	case orb.MultiLineString:
		parts := make([][]orb.Point, 0, len(t))
		for _, ls := range t {
			parts = append(parts, ls)
		}
		return polyLineShape(parts), nil
	case orb.Polygon:
		return polygonShape([]orb.Polygon{t}), nil
	case orb.MultiPolygon:
		return polygonShape(t), nil
	default:
		return nil, fmt.Errorf("geometry type %s cannot be written to a shapefile", g.GeoJSONType())
	}
}

func toShpPoints(pts []orb.Point) []shp.Point {
	out := make([]shp.Point, len(pts))
	for i, p := range pts {
		out[i] = shp.Point{X: p[0], Y: p[1]}
	}
	return out
}

func multiPointShape(mp orb.MultiPoint) *shp.MultiPoint {
	b := mp.Bound()
	return &shp.MultiPoint{
		Box:       shp.Box{MinX: b.Min[0], MinY: b.Min[1], MaxX: b.Max[0], MaxY: b.Max[1]},
		NumPoints: int32(len(mp)),
		Points:    toShpPoints(mp),
	}
}

func polyLineShape(parts [][]orb.Point) *shp.PolyLine {
	shpParts := make([][]shp.Point, len(parts))
	for i, p := range parts {
		shpParts[i] = toShpPoints(p)
	}
	return shp.NewPolyLine(shpParts)
}

// polygonShape flattens polygons to shapefile rings: outers clockwise,
// holes counter-clockwise.
func polygonShape(polys []orb.Polygon) *shp.Polygon {
	var parts [][]shp.Point

	for _, poly := range polys {
		for i, ring := range poly {
			outer := i == 0
			ccw := signedArea(ring) > 0
			if outer == ccw {
				ring = reverseRing(ring)
			}
			parts = append(parts, toShpPoints(ring))
		}
	}

	pl := shp.NewPolyLine(parts)
	poly := shp.Polygon(*pl)
	return &poly
}

func writePRJ(shpPath string, crs geo.CRS) error {
	prjPath := strings.TrimSuffix(shpPath, ExtShapefile) + ".prj"

	wkt := wgs84WKT
	if crs == geo.WebMercator {
		wkt = webMercatorWKT
	}

	if err := os.WriteFile(prjPath, []byte(wkt), 0644); err != nil {
		return fmt.Errorf("write %s: %w", prjPath, err)
	}
	return nil
}
