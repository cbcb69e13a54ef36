package imaging

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// GlyphCropOptions controls how a single glyph region is cut out for a
// per-glyph classifier.
type GlyphCropOptions struct {
	// Padding is the white margin, in pixels, added around the region.
	Padding int `mapstructure:"padding" json:"padding"`
	// Scale enlarges the crop; engines tuned for printed text read small
	// carved glyphs poorly. Values <= 0 or 1 keep the original size.
	Scale float64 `mapstructure:"scale" json:"scale"`
}

// CropGlyph cuts region out of the ink-on-white rendering of n, pads it and
// optionally scales it.
//
// The region is clipped to the image; an empty intersection is an error.
func CropGlyph(n *NormalizedImage, region image.Rectangle, opts GlyphCropOptions) (image.Image, error) {
	r := region.Intersect(n.Bounds())
	if r.Empty() {
		return nil, fmt.Errorf("crop region %v outside image bounds %v", region, n.Bounds())
	}

	cropped := imaging.Crop(n.Gray(), r)

	if opts.Padding > 0 {
		p := opts.Padding
		canvas := imaging.New(r.Dx()+2*p, r.Dy()+2*p, color.White)
		cropped = imaging.Paste(canvas, cropped, image.Pt(p, p))
	}

	if opts.Scale > 0 && opts.Scale != 1.0 {
		newWidth := max(1, int(float64(cropped.Bounds().Dx())*opts.Scale))
		newHeight := max(1, int(float64(cropped.Bounds().Dy())*opts.Scale))
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	return cropped, nil
}
