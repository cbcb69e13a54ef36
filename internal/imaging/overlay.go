package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"
)

// Default overlay colours.
const (
	DefaultOverlayColor = "#ff0000"
	DefaultGridColor    = "#808080"
)

// OverlayOptions selects what RenderOverlay draws besides the boxes.
type OverlayOptions struct {
	// BoxColor is a "#rrggbb" or "#rgb" hex colour. Empty means
	// DefaultOverlayColor.
	BoxColor string
	// GridSpacing rules a coordinate grid every GridSpacing pixels under the
	// boxes. Zero draws no grid.
	GridSpacing int
	// GridColor defaults to DefaultGridColor.
	GridColor string
	// GridLabels writes "x,y" at each grid crossing.
	GridLabels bool
}

// OverlayResult contains the annotated image.
type OverlayResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
	Boxes       int    `json:"boxes"`
	GridSpacing int    `json:"grid_spacing,omitempty"`
}

// RenderOverlay draws each box on top of base and labels it with its reading
// order index, starting at 1. Boxes are in base's coordinate space with the
// origin at base's top-left corner.
func RenderOverlay(base image.Image, boxes []image.Rectangle, opts OverlayOptions) (*OverlayResult, error) {
	if base == nil {
		return nil, fmt.Errorf("%w: nil overlay base", ErrInvalidImage)
	}
	if opts.GridSpacing < 0 {
		return nil, fmt.Errorf("grid spacing must be >= 0, got %d", opts.GridSpacing)
	}
	boxColor, err := parseHexColor(orDefault(opts.BoxColor, DefaultOverlayColor))
	if err != nil {
		return nil, err
	}
	gridColor, err := parseHexColor(orDefault(opts.GridColor, DefaultGridColor))
	if err != nil {
		return nil, err
	}

	b := base.Bounds()
	result := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(result, result.Bounds(), base, b.Min, draw.Src)

	labelColor := color.RGBA{255, 255, 255, 255}
	bgColor := color.RGBA{0, 0, 0, 180}
	if opts.GridSpacing > 0 {
		drawGrid(result, opts.GridSpacing, gridColor, opts.GridLabels, labelColor, bgColor)
	}
	for i, box := range boxes {
		drawRect(result, box, boxColor)
		drawLabel(result, box.Min.X, box.Min.Y-8, strconv.Itoa(i+1), labelColor, bgColor)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, result); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &OverlayResult{
		Width:       b.Dx(),
		Height:      b.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
		Boxes:       len(boxes),
		GridSpacing: opts.GridSpacing,
	}, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// parseHexColor parses "#rrggbb" or "#rgb".
func parseHexColor(hex string) (color.RGBA, error) {
	c, err := colorful.Hex(expandShortHex(hex))
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: %w", hex, err)
	}
	r, g, bl := c.RGB255()
	return color.RGBA{R: r, G: g, B: bl, A: 255}, nil
}

func expandShortHex(hex string) string {
	if len(hex) == 4 && hex[0] == '#' {
		return string([]byte{'#', hex[1], hex[1], hex[2], hex[2], hex[3], hex[3]})
	}
	return hex
}

// drawRect outlines r with a two pixel border, clipped to img.
func drawRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	r = r.Canon()
	for t := 0; t < 2; t++ {
		for x := r.Min.X - t; x < r.Max.X+t; x++ {
			setClipped(img, x, r.Min.Y-1-t, c)
			setClipped(img, x, r.Max.Y+t, c)
		}
		for y := r.Min.Y - 1 - t; y <= r.Max.Y+t; y++ {
			setClipped(img, r.Min.X-1-t, y, c)
			setClipped(img, r.Max.X+t, y, c)
		}
	}
}

func setClipped(img *image.RGBA, x, y int, c color.RGBA) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}

// drawLabel draws digits and commas with a 3x5 pixel font on a filled
// background.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
		',': {"000", "000", "000", "010", "010"},
	}

	if y < 1 {
		y = 1
	}
	charWidth := 4
	labelWidth := len(text) * charWidth

	for dy := -1; dy < 6; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			setClipped(img, x+dx, y+dy, bg)
		}
	}

	cx := x
	for _, ch := range text {
		for row, line := range glyphs[ch] {
			for col, pixel := range line {
				if pixel == '1' {
					setClipped(img, cx+col, y+row, fg)
				}
			}
		}
		cx += charWidth
	}
}
