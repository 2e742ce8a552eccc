package render

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	legendPad     = 8
	legendRow     = 18
	legendSwatch  = 12
	legendMargin  = 10
	titleBaseline = 18
)

var (
	legendBG     = color.NRGBA{255, 255, 255, 235}
	legendBorder = color.NRGBA{120, 120, 120, 255}
	textColor    = color.NRGBA{30, 30, 30, 255}
)

// drawLegend paints a legend box in the top-right corner.
func drawLegend(img *image.RGBA, entries []legendEntry) {
	face := basicfont.Face7x13

	maxLabel := 0
	for _, e := range entries {
		if w := font.MeasureString(face, e.label).Ceil(); w > maxLabel {
			maxLabel = w
		}
	}

	boxW := legendPad*2 + legendSwatch + 6 + maxLabel
	boxH := legendPad*2 + legendRow*len(entries)

	x0 := img.Bounds().Dx() - boxW - legendMargin
	y0 := legendMargin
	box := image.Rect(x0, y0, x0+boxW, y0+boxH)

	draw.Draw(img, box, image.NewUniform(legendBG), image.Point{}, draw.Over)
	strokeRect(img, box, legendBorder)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(textColor),
		Face: face,
	}

	for i, e := range entries {
		rowY := y0 + legendPad + i*legendRow

		swatch := image.Rect(x0+legendPad, rowY+2, x0+legendPad+legendSwatch, rowY+2+legendSwatch)
		draw.Draw(img, swatch, image.NewUniform(e.color), image.Point{}, draw.Over)
		strokeRect(img, swatch, legendBorder)

		d.Dot = fixed.P(x0+legendPad+legendSwatch+6, rowY+legendSwatch)
		d.DrawString(e.label)
	}
}

// drawTitle paints the title centered along the top edge.
func drawTitle(img *image.RGBA, title string) {
	face := basicfont.Face7x13

	w := font.MeasureString(face, title).Ceil()
	x := (img.Bounds().Dx() - w) / 2
	if x < legendMargin {
		x = legendMargin
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(textColor),
		Face: face,
		Dot:  fixed.P(x, titleBaseline),
	}
	d.DrawString(title)
}

func strokeRect(img *image.RGBA, r image.Rectangle, c color.NRGBA) {
	for x := r.Min.X; x < r.Max.X; x++ {
		img.Set(x, r.Min.Y, c)
		img.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.Set(r.Min.X, y, c)
		img.Set(r.Max.X-1, y, c)
	}
}
