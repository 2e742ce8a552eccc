package render

import (
	"image"
	"image/color"
	"math"

	"github.com/paulmach/orb"
	"golang.org/x/image/vector"
)

// drawLayer rasterizes every feature of a layer onto the image.
func drawLayer(img *image.RGBA, rl renderLayer, tf transform) {
	for i, f := range rl.layer.Features {
		if f.Geometry == nil {
			continue
		}
		c := withAlpha(rl.colors[i], rl.style.Alpha)
		drawGeometry(img, f.Geometry, c, rl.style, tf)
	}
}

func drawGeometry(img *image.RGBA, g orb.Geometry, c color.NRGBA, s Style, tf transform) {
	switch t := g.(type) {
	case orb.Point:
		drawPoint(img, t, c, s.PointRadius, tf)
	case orb.MultiPoint:
		for _, p := range t {
			drawPoint(img, p, c, s.PointRadius, tf)
		}
	case orb.LineString:
		drawLine(img, t, c, s.StrokeWidth, tf)
	case orb.MultiLineString:
		for _, ls := range t {
			drawLine(img, ls, c, s.StrokeWidth, tf)
		}
	case orb.Polygon:
		drawPolygon(img, t, c, tf)
	case orb.MultiPolygon:
		for _, p := range t {
			drawPolygon(img, p, c, tf)
		}
	case orb.Collection:
		for _, sub := range t {
			drawGeometry(img, sub, c, s, tf)
		}
	case orb.Bound:
		drawPolygon(img, orb.Polygon{t.ToRing()}, c, tf)
	}
}

// drawPolygon fills a polygon with its holes. The rasterizer cancels
// opposite-wound subpaths, so outer rings go counter-clockwise and
// holes clockwise in pixel space.
func drawPolygon(img *image.RGBA, poly orb.Polygon, c color.NRGBA, tf transform) {
	ras := vector.NewRasterizer(img.Bounds().Dx(), img.Bounds().Dy())

	for i, ring := range poly {
		if len(ring) < 3 {
			continue
		}

		// pixel y grows downward, flipping orientation
		outer := i == 0
		cw := ringSum(ring) < 0
		reversed := outer == cw

		addRing(ras, ring, reversed, tf)
	}

	ras.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{})
}

func addRing(ras *vector.Rasterizer, ring orb.Ring, reversed bool, tf transform) {
	n := len(ring)

	at := func(i int) orb.Point {
		if reversed {
			return ring[n-1-i]
		}
		return ring[i]
	}

	x, y := tf.pt(at(0))
	ras.MoveTo(x, y)
	for i := 1; i < n; i++ {
		x, y := tf.pt(at(i))
		ras.LineTo(x, y)
	}
	ras.ClosePath()
}

func ringSum(ring orb.Ring) float64 {
	sum := 0.0
	for i := 0; i < len(ring)-1; i++ {
		sum += ring[i][0]*ring[i+1][1] - ring[i+1][0]*ring[i][1]
	}
	return sum
}

// drawLine strokes a line by rasterizing each segment as a quad of the
// stroke width. Round joins are not drawn; at map scale it is invisible.
func drawLine(img *image.RGBA, ls orb.LineString, c color.NRGBA, width float64, tf transform) {
	if len(ls) < 2 {
		return
	}

	half := float32(width / 2)
	if half < 0.5 {
		half = 0.5
	}

	ras := vector.NewRasterizer(img.Bounds().Dx(), img.Bounds().Dy())

	for i := 0; i < len(ls)-1; i++ {
		x0, y0 := tf.pt(ls[i])
		x1, y1 := tf.pt(ls[i+1])

		dx, dy := x1-x0, y1-y0
		length := float32(math.Hypot(float64(dx), float64(dy)))
		if length == 0 {
			continue
		}

		// unit normal scaled to half width
		nx := -dy / length * half
		ny := dx / length * half

		ras.MoveTo(x0+nx, y0+ny)
		ras.LineTo(x1+nx, y1+ny)
		ras.LineTo(x1-nx, y1-ny)
		ras.LineTo(x0-nx, y0-ny)
		ras.ClosePath()
	}

	ras.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{})
}

const discSegments = 24

// drawPoint fills a disc approximated by a polygon.
func drawPoint(img *image.RGBA, p orb.Point, c color.NRGBA, radius float64, tf transform) {
	cx, cy := tf.pt(p)
	r := float32(radius)

	ras := vector.NewRasterizer(img.Bounds().Dx(), img.Bounds().Dy())

	for i := 0; i <= discSegments; i++ {
		angle := 2 * math.Pi * float64(i) / discSegments
		x := cx + r*float32(math.Cos(angle))
		y := cy + r*float32(math.Sin(angle))
		if i == 0 {
			ras.MoveTo(x, y)
		} else {
			ras.LineTo(x, y)
		}
	}
	ras.ClosePath()

	ras.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{})
}
