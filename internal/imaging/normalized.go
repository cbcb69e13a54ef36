package imaging

import "image"

// NormalizedImage is a binary rendering of a RawImage: every pixel is either
// foreground (a carved stroke) or background. It is immutable.
type NormalizedImage struct {
	width  int
	height int
	fg     []bool
}

// NewNormalizedImage builds a NormalizedImage of the given size whose
// foreground is selected by the predicate. Non-positive sizes yield an empty
// image.
func NewNormalizedImage(width, height int, foreground func(x, y int) bool) *NormalizedImage {
	if width <= 0 || height <= 0 {
		return &NormalizedImage{}
	}
	n := &NormalizedImage{width: width, height: height, fg: make([]bool, width*height)}
	if foreground == nil {
		return n
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			n.fg[y*width+x] = foreground(x, y)
		}
	}
	return n
}

// Width returns the image width in pixels.
func (n *NormalizedImage) Width() int { return n.width }

// Height returns the image height in pixels.
func (n *NormalizedImage) Height() int { return n.height }

// Bounds returns the image rectangle, anchored at the origin.
func (n *NormalizedImage) Bounds() image.Rectangle { return image.Rect(0, 0, n.width, n.height) }

// Foreground reports whether (x, y) is a stroke pixel. Out-of-range
// coordinates are background.
func (n *NormalizedImage) Foreground(x, y int) bool {
	if x < 0 || y < 0 || x >= n.width || y >= n.height {
		return false
	}
	return n.fg[y*n.width+x]
}

// ForegroundCount returns the number of stroke pixels.
func (n *NormalizedImage) ForegroundCount() int {
	c := 0
	for _, v := range n.fg {
		if v {
			c++
		}
	}
	return c
}

// Empty reports whether the image has no pixels.
func (n *NormalizedImage) Empty() bool { return n.width == 0 || n.height == 0 }

// Gray renders the image as dark ink on a white ground, the polarity OCR
// engines expect.
func (n *NormalizedImage) Gray() *image.Gray {
	g := image.NewGray(n.Bounds())
	for i, v := range n.fg {
		if v {
			g.Pix[i] = 0
		} else {
			g.Pix[i] = 255
		}
	}
	return g
}

// Equal reports whether two images have the same size and foreground.
func (n *NormalizedImage) Equal(o *NormalizedImage) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.width != o.width || n.height != o.height {
		return false
	}
	for i := range n.fg {
		if n.fg[i] != o.fg[i] {
			return false
		}
	}
	return true
}
