// Package detection turns a normalized inscription image into an ordered
// sequence of glyph detections.
//
// # Detectors
//
// Every variant implements Detector:
//
//   - StubDetector returns a fixed, caller-supplied sequence. It backs tests
//     and demo deployments without a trained model.
//   - SegmentingDetector splits the image into glyph regions with Segment and
//     hands each region to a Classifier, several at a time.
//   - The tesseract subpackage wraps the Tesseract engine, either as a whole
//     image Detector or as a per-glyph Classifier.
//
// The pipeline never inspects which variant it was given.
//
// # Reading Order
//
// Detections are returned in left-to-right reading order, matching the
// physical arrangement on the stone. Segment groups glyphs into horizontal
// text lines first (DetectLines) and reads them top to bottom. Right-to-left
// layouts are not reconstructed.
//
// # Damaged Stone
//
// Pitting below MinArea and long thin cracks beyond MaxAspect are dropped
// before glyphs are grouped, so a crack running under a line cannot fuse its
// glyphs into one region. A crack that touches a glyph is part of that
// glyph's component and is not separated.
//
// # Confidence Scores
//
// Confidence is a value in [0,1]. ValidateDetections rejects anything else,
// including NaN, as a detector failure.
//
// # Coordinate System
//
// Bounds use the image convention: origin at the top-left corner, X1/Y1
// inclusive, X2/Y2 exclusive.
//
// # Errors
//
// A missing or failing detection capability is reported as
// ErrDetectionUnavailable. An empty result is valid and means no legible
// glyphs were found.
package detection
