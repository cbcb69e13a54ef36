package detection

import (
	"github.com/ironsheep/inscription-decoder/internal/imaging"
)

// SegmentOptions tunes glyph segmentation.
type SegmentOptions struct {
	// MinArea drops connected components with fewer foreground pixels.
	// Stone pitting survives normalization as specks of a few pixels.
	MinArea int `mapstructure:"min_area" json:"min_area"`

	// MergeGap joins components whose column ranges overlap or are separated
	// by at most this many empty columns. Vowel signs and dotted strokes are
	// separate components of one glyph.
	MergeGap int `mapstructure:"merge_gap" json:"merge_gap"`

	// LineGap is the largest run of empty rows inside one text line. Signs
	// written above or below a glyph stay on its line; glyphs further apart
	// vertically start a new line.
	LineGap int `mapstructure:"line_gap" json:"line_gap"`

	// MaxAspect drops components whose long side exceeds MaxAspect times
	// their short side. Surface cracks and chisel scratches are long and
	// thin; glyphs are not. Zero keeps every component.
	MaxAspect float64 `mapstructure:"max_aspect" json:"max_aspect"`
}

// DefaultSegmentOptions returns the options used when none are configured.
func DefaultSegmentOptions() SegmentOptions {
	return SegmentOptions{MinArea: 4, MergeGap: 1, LineGap: 4, MaxAspect: 8}
}

type point struct{ x, y int }

// Segment finds glyph regions in img and returns them in reading order: text
// lines top to bottom, each line left to right. See DetectLines.
func Segment(img *imaging.NormalizedImage, opts SegmentOptions) []Bounds {
	var regions []Bounds
	for _, line := range DetectLines(img, opts) {
		regions = append(regions, line.Glyphs...)
	}
	return regions
}

// findComponents returns the bounds of each 8-connected foreground component
// holding at least minArea pixels.
func findComponents(img *imaging.NormalizedImage, minArea int) []Bounds {
	width, height := img.Width(), img.Height()
	visited := make([]bool, width*height)
	regions := make([]Bounds, 0)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !img.Foreground(x, y) || visited[y*width+x] {
				continue
			}
			b, n := floodFill(img, visited, x, y)
			if n >= minArea {
				regions = append(regions, b)
			}
		}
	}
	return regions
}

// floodFill marks the component containing (startX, startY) as visited and
// returns its bounds and pixel count. It uses an explicit stack so large
// components cannot overflow the goroutine stack.
func floodFill(img *imaging.NormalizedImage, visited []bool, startX, startY int) (Bounds, int) {
	width, height := img.Width(), img.Height()
	b := Bounds{X1: startX, Y1: startY, X2: startX + 1, Y2: startY + 1}
	count := 0

	stack := []point{{startX, startY}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.x < 0 || p.x >= width || p.y < 0 || p.y >= height {
			continue
		}
		i := p.y*width + p.x
		if visited[i] || !img.Foreground(p.x, p.y) {
			continue
		}
		visited[i] = true
		count++
		b = mergeBounds(b, Bounds{X1: p.x, Y1: p.y, X2: p.x + 1, Y2: p.y + 1})

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, point{p.x + dx, p.y + dy})
			}
		}
	}
	return b, count
}

// columnGap returns the number of empty columns between a and b; overlapping
// ranges give zero or less.
func columnGap(a, b Bounds) int {
	return max(a.X1, b.X1) - min(a.X2, b.X2)
}

// mergeColumns unions regions until no two are within gap columns. Callers
// pass the components of a single text line.
func mergeColumns(regions []Bounds, gap int) []Bounds {
	merged := append([]Bounds(nil), regions...)
	for changed := true; changed; {
		changed = false
		for i := 0; i < len(merged) && !changed; i++ {
			for j := i + 1; j < len(merged); j++ {
				if columnGap(merged[i], merged[j]) <= gap {
					merged[i] = mergeBounds(merged[i], merged[j])
					merged = append(merged[:j], merged[j+1:]...)
					changed = true
					break
				}
			}
		}
	}
	return merged
}
