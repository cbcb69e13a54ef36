package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// Luminance modes.
const (
	LuminanceLuma = "luma"
	LuminanceLab  = "lab"
)

// NormalizeOptions tunes the normalization steps.
type NormalizeOptions struct {
	// DenoiseStrength is the median filter radius. Zero disables denoising.
	DenoiseStrength float64 `mapstructure:"denoise_strength" json:"denoise_strength"`
	// ThresholdWindow is the side of the local neighbourhood used by the
	// adaptive threshold. Must be odd and at least 3.
	ThresholdWindow int `mapstructure:"threshold_window" json:"threshold_window"`
	// ThresholdBias is subtracted from the local mean before comparison.
	ThresholdBias float64 `mapstructure:"threshold_bias" json:"threshold_bias"`
	// CloseKernelSize is the side of the square closing element. 1 disables
	// closing.
	CloseKernelSize int `mapstructure:"close_kernel_size" json:"close_kernel_size"`
	// Luminance is LuminanceLuma or LuminanceLab.
	Luminance string `mapstructure:"luminance" json:"luminance"`
	// MaxDimension bounds the longer side before processing. Zero keeps the
	// original size.
	MaxDimension int `mapstructure:"max_dimension" json:"max_dimension"`
}

// DefaultNormalizeOptions returns the reference preprocessing parameters.
func DefaultNormalizeOptions() NormalizeOptions {
	return NormalizeOptions{
		DenoiseStrength: 1,
		ThresholdWindow: 11,
		ThresholdBias:   2,
		CloseKernelSize: 2,
		Luminance:       LuminanceLuma,
	}
}

// Validate checks the options for values the filters cannot honour.
func (o NormalizeOptions) Validate() error {
	if o.DenoiseStrength < 0 || math.IsNaN(o.DenoiseStrength) {
		return fmt.Errorf("denoise_strength must be >= 0, got %v", o.DenoiseStrength)
	}
	if o.ThresholdWindow < 3 || o.ThresholdWindow%2 == 0 {
		return fmt.Errorf("threshold_window must be an odd number >= 3, got %d", o.ThresholdWindow)
	}
	if math.IsNaN(o.ThresholdBias) || math.IsInf(o.ThresholdBias, 0) {
		return fmt.Errorf("threshold_bias must be finite")
	}
	if o.CloseKernelSize < 1 {
		return fmt.Errorf("close_kernel_size must be >= 1, got %d", o.CloseKernelSize)
	}
	switch strings.ToLower(o.Luminance) {
	case "", LuminanceLuma, LuminanceLab:
	default:
		return fmt.Errorf("unknown luminance mode %q", o.Luminance)
	}
	if o.MaxDimension < 0 {
		return fmt.Errorf("max_dimension must be >= 0, got %d", o.MaxDimension)
	}
	return nil
}

// Normalizer converts RawImages into NormalizedImages.
type Normalizer struct {
	opts NormalizeOptions
}

// NewNormalizer validates opts and returns a Normalizer.
func NewNormalizer(opts NormalizeOptions) (*Normalizer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.Luminance = strings.ToLower(opts.Luminance)
	if opts.Luminance == "" {
		opts.Luminance = LuminanceLuma
	}
	return &Normalizer{opts: opts}, nil
}

// Options returns the options in effect.
func (n *Normalizer) Options() NormalizeOptions { return n.opts }

// Normalize runs the default preprocessing on raw.
func Normalize(raw RawImage) (*NormalizedImage, error) {
	n, _ := NewNormalizer(DefaultNormalizeOptions())
	return n.Normalize(raw)
}

// Normalize produces the binary rendering of raw. The same input always
// yields the same output.
//
// Output dimensions equal the input dimensions unless MaxDimension forced a
// downscale.
func (n *Normalizer) Normalize(raw RawImage) (*NormalizedImage, error) {
	if !raw.Valid() {
		return nil, fmt.Errorf("%w: empty raw image", ErrInvalidImage)
	}

	src := n.fit(raw.Image())
	if raw.Channels() == 4 {
		src = flatten(src)
	}
	lum := n.luminance(src)
	den := n.denoise(lum)
	mean := localMean(den, n.opts.ThresholdWindow)

	w, h := den.Bounds().Dx(), den.Bounds().Dy()
	mask := make([]bool, w*h)
	for i := range mask {
		mask[i] = float64(den.Pix[i]) <= float64(mean.Pix[i])-n.opts.ThresholdBias
	}

	return &NormalizedImage{
		width:  w,
		height: h,
		fg:     closeMask(mask, w, h, n.opts.CloseKernelSize),
	}, nil
}

// Scale returns the factor applied to raw coordinates to obtain normalized
// coordinates. It is 1 unless MaxDimension forces a downscale.
func (n *Normalizer) Scale(raw RawImage) float64 {
	m := n.opts.MaxDimension
	w, h := raw.Width(), raw.Height()
	if m <= 0 || (w <= m && h <= m) {
		return 1
	}
	return math.Min(float64(m)/float64(w), float64(m)/float64(h))
}

func (n *Normalizer) fit(img image.Image) image.Image {
	m := n.opts.MaxDimension
	b := img.Bounds()
	if m <= 0 || (b.Dx() <= m && b.Dy() <= m) {
		return img
	}
	return imaging.Fit(img, m, m, imaging.Lanczos)
}

// flatten composites img over a white ground so transparent areas read as
// background rather than black ink.
func flatten(img image.Image) image.Image {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

func (n *Normalizer) luminance(img image.Image) *image.Gray {
	if n.opts.Luminance != LuminanceLab {
		var g image.Image = effect.Grayscale(img)
		return toGray(g)
	}

	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c, ok := colorful.MakeColor(img.At(b.Min.X+x, b.Min.Y+y))
			if !ok {
				// Fully transparent pixels count as ground.
				g.Pix[y*g.Stride+x] = 255
				continue
			}
			l, _, _ := c.Lab()
			g.Pix[y*g.Stride+x] = uint8(math.Round(clamp01(l) * 255))
		}
	}
	return g
}

func (n *Normalizer) denoise(g *image.Gray) *image.Gray {
	if n.opts.DenoiseStrength <= 0 {
		return g
	}
	return toGray(effect.Median(g, n.opts.DenoiseStrength))
}

// localMean returns the Gaussian-weighted mean of each pixel's window×window
// neighbourhood.
func localMean(g *image.Gray, window int) *image.Gray {
	return toGray(blur.Gaussian(g, float64(window-1)/2))
}

// toGray copies img into a tightly packed *image.Gray anchored at the origin.
func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	if g, ok := img.(*image.Gray); ok && b.Min == (image.Point{}) && g.Stride == b.Dx() {
		return g
	}
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Bounds(), img, b.Min, draw.Src)
	return g
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
