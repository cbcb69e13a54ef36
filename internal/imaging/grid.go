package imaging

import (
	"fmt"
	"image"
	"image/color"
)

// drawGrid rules a line every spacing pixels in both directions. With labels
// set, each crossing is tagged with its coordinates so glyph positions can be
// read off the photograph.
func drawGrid(img *image.RGBA, spacing int, c color.RGBA, labels bool, fg, bg color.RGBA) {
	b := img.Bounds()
	for x := spacing; x < b.Dx(); x += spacing {
		for y := 0; y < b.Dy(); y++ {
			img.SetRGBA(x, y, c)
		}
	}
	for y := spacing; y < b.Dy(); y += spacing {
		for x := 0; x < b.Dx(); x++ {
			img.SetRGBA(x, y, c)
		}
	}

	if !labels {
		return
	}
	for y := spacing; y < b.Dy(); y += spacing {
		for x := spacing; x < b.Dx(); x += spacing {
			drawLabel(img, x+2, y+2, fmt.Sprintf("%d,%d", x, y), fg, bg)
		}
	}
}
