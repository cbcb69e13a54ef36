package detection

import (
	"sort"

	"github.com/ironsheep/inscription-decoder/internal/imaging"
)

// TextLine is one horizontal band of glyphs.
type TextLine struct {
	Bounds Bounds   `json:"bounds"`
	Glyphs []Bounds `json:"glyphs"`
}

// DetectLines finds the glyph regions of img grouped into text lines.
//
// # Algorithm
//
//  1. Components: group 8-connected foreground pixels with an iterative
//     flood fill.
//  2. Filtering: drop components smaller than MinArea pixels, and cracks
//     (components longer than MaxAspect times their width).
//  3. Lines: sort components by top edge and group those whose vertical
//     extents overlap or are separated by at most LineGap empty rows.
//  4. Merging: within a line, repeatedly union components that share columns
//     or sit within MergeGap columns of each other.
//  5. Ordering: lines top to bottom; glyphs by left edge, then top edge.
func DetectLines(img *imaging.NormalizedImage, opts SegmentOptions) []TextLine {
	if img == nil || img.Empty() {
		return nil
	}
	components := dropCracks(findComponents(img, opts.MinArea), opts.MaxAspect)

	bands := groupBands(components, opts.LineGap)
	lines := make([]TextLine, 0, len(bands))
	for _, band := range bands {
		glyphs := mergeColumns(band, opts.MergeGap)
		sort.Slice(glyphs, func(i, j int) bool {
			if glyphs[i].X1 != glyphs[j].X1 {
				return glyphs[i].X1 < glyphs[j].X1
			}
			return glyphs[i].Y1 < glyphs[j].Y1
		})
		b := glyphs[0]
		for _, g := range glyphs[1:] {
			b = mergeBounds(b, g)
		}
		lines = append(lines, TextLine{Bounds: b, Glyphs: glyphs})
	}
	return lines
}

// isCrack reports whether b is too elongated to be a glyph.
func isCrack(b Bounds, maxAspect float64) bool {
	if maxAspect <= 0 {
		return false
	}
	long, short := max(b.Width(), b.Height()), min(b.Width(), b.Height())
	return float64(long) > maxAspect*float64(short)
}

func dropCracks(components []Bounds, maxAspect float64) []Bounds {
	kept := components[:0]
	for _, c := range components {
		if !isCrack(c, maxAspect) {
			kept = append(kept, c)
		}
	}
	return kept
}

// groupBands splits components into runs whose vertical extents lie within
// gap rows of each other, top to bottom.
func groupBands(components []Bounds, gap int) [][]Bounds {
	sorted := append([]Bounds(nil), components...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Y1 < sorted[j].Y1 })

	var bands [][]Bounds
	bottom := 0
	for _, c := range sorted {
		if len(bands) == 0 || c.Y1-bottom > gap {
			bands = append(bands, []Bounds{c})
			bottom = c.Y2
			continue
		}
		last := len(bands) - 1
		bands[last] = append(bands[last], c)
		bottom = max(bottom, c.Y2)
	}
	return bands
}
