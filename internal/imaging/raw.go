package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ErrInvalidImage reports input that cannot be normalized: nil, zero-size or
// not decodable as a supported image format.
var ErrInvalidImage = errors.New("invalid image")

// RawImage is an immutable photograph of an inscription.
//
// The zero value is not a valid image; Normalize rejects it with
// ErrInvalidImage.
type RawImage struct {
	img      image.Image
	channels int
}

// NewRawImage wraps a decoded image.
//
// Returns ErrInvalidImage if img is nil or has zero width or height.
func NewRawImage(img image.Image) (RawImage, error) {
	if img == nil {
		return RawImage{}, fmt.Errorf("%w: nil image", ErrInvalidImage)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return RawImage{}, fmt.Errorf("%w: zero-size image (%dx%d)", ErrInvalidImage, b.Dx(), b.Dy())
	}
	return RawImage{img: img, channels: channelCount(img)}, nil
}

// DecodeRawImage decodes a PNG, JPEG, GIF, BMP, TIFF or WebP stream.
//
// EXIF orientation is applied so that the reading direction of the photograph
// matches the stone, which the detector's left-to-right contract relies on.
func DecodeRawImage(r io.Reader) (RawImage, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return RawImage{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return NewRawImage(img)
}

// DecodeRawImageBytes is DecodeRawImage over an in-memory buffer.
func DecodeRawImageBytes(data []byte) (RawImage, error) {
	if len(data) == 0 {
		return RawImage{}, fmt.Errorf("%w: empty input", ErrInvalidImage)
	}
	return DecodeRawImage(bytes.NewReader(data))
}

// LoadRawImage reads and decodes an image file.
//
// A missing or unreadable file is reported as ErrInvalidImage as well: from
// the pipeline's point of view the input is unreadable either way.
func LoadRawImage(path string) (RawImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return RawImage{}, fmt.Errorf("%w: failed to open image: %v", ErrInvalidImage, err)
	}
	defer f.Close()
	return DecodeRawImage(f)
}

// Width returns the image width in pixels.
func (r RawImage) Width() int {
	if r.img == nil {
		return 0
	}
	return r.img.Bounds().Dx()
}

// Height returns the image height in pixels.
func (r RawImage) Height() int {
	if r.img == nil {
		return 0
	}
	return r.img.Bounds().Dy()
}

// Channels returns the number of colour channels of the source model:
// 1 for grey, 3 for colour without alpha, 4 for colour with alpha.
func (r RawImage) Channels() int { return r.channels }

// Image returns the underlying image. Callers must not modify it.
func (r RawImage) Image() image.Image { return r.img }

// Valid reports whether r holds a usable image.
func (r RawImage) Valid() bool { return r.Width() > 0 && r.Height() > 0 }

func channelCount(img image.Image) int {
	switch m := img.(type) {
	case *image.Gray, *image.Gray16, *image.Alpha, *image.Alpha16:
		return 1
	case *image.YCbCr:
		return 3
	case *image.CMYK:
		return 4
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64, *image.NYCbCrA:
		return 4
	case *image.Paletted:
		for _, c := range m.Palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return 4
			}
		}
		return 3
	default:
		return 4
	}
}
