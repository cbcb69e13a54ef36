package imaging

// closeMask performs a morphological closing of a w×h foreground mask with a
// k×k square element anchored at (k/2, k/2). For k <= 1 the mask is returned
// unchanged.
//
// Erosion uses the reflected element so that the closing contains the input
// for even k as well as odd.
func closeMask(mask []bool, w, h, k int) []bool {
	if k <= 1 {
		return mask
	}
	return erode(dilate(mask, w, h, k), w, h, k)
}

func dilate(src []bool, w, h, k int) []bool {
	a := k / 2
	dst := make([]bool, len(src))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst[y*w+x] = anyInWindow(src, w, h, x-a, y-a, k)
		}
	}
	return dst
}

func erode(src []bool, w, h, k int) []bool {
	a := k / 2
	dst := make([]bool, len(src))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst[y*w+x] = allInWindow(src, w, h, x+a-(k-1), y+a-(k-1), k)
		}
	}
	return dst
}

// anyInWindow reports whether any in-bounds pixel of the k×k window at
// (x0, y0) is set. Out-of-bounds pixels count as background.
func anyInWindow(src []bool, w, h, x0, y0, k int) bool {
	for y := max(y0, 0); y < min(y0+k, h); y++ {
		row := src[y*w:]
		for x := max(x0, 0); x < min(x0+k, w); x++ {
			if row[x] {
				return true
			}
		}
	}
	return false
}

// allInWindow reports whether every in-bounds pixel of the k×k window at
// (x0, y0) is set. Out-of-bounds pixels count as foreground.
func allInWindow(src []bool, w, h, x0, y0, k int) bool {
	for y := max(y0, 0); y < min(y0+k, h); y++ {
		row := src[y*w:]
		for x := max(x0, 0); x < min(x0+k, w); x++ {
			if !row[x] {
				return false
			}
		}
	}
	return true
}
