// Package imaging prepares photographs of inscribed stone for glyph detection.
//
// The package owns the two image types of the decoding pipeline:
//
//   - RawImage: the photograph as handed over by a capture or upload
//     collaborator. It is never modified after construction.
//   - NormalizedImage: a binary foreground/background grid derived from a
//     RawImage by the Normalizer. Foreground marks carved strokes.
//
// # Normalization
//
// Normalize runs four steps in a fixed order:
//
//  1. Luminance: collapse colour to a single channel ("luma" weights, or CIE
//     L* when the "lab" mode is selected).
//  2. Denoise: median filter whose radius is the denoise strength. Granular
//     stone texture is removed while glyph edges survive.
//  3. Adaptive threshold: each pixel is compared against the Gaussian-weighted
//     mean of its ThresholdWindow×ThresholdWindow neighbourhood minus
//     ThresholdBias, so uneven lighting across the stone does not erase faint
//     strokes.
//  4. Closing: dilation followed by erosion with a CloseKernelSize square
//     structuring element reconnects strokes broken by erosion of the stone.
//
// The defaults (strength 1, window 11, bias 2, kernel 2) reproduce the
// reference preprocessing.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner. Regions
// are image.Rectangle values: Min is inclusive, Max is exclusive.
//
// # Thread Safety
//
// RawImage and NormalizedImage are immutable and can be shared between
// goroutines. A Normalizer holds only its options and is safe for concurrent
// use. ImageCache is safe for concurrent use.
//
// # Error Handling
//
// Zero-size, nil or undecodable input fails with ErrInvalidImage. Every other
// step is total.
package imaging
