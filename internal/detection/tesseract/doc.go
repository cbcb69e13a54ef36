// Package tesseract adapts the Tesseract OCR engine to the glyph detection
// interfaces.
//
// Two shapes are offered:
//
//   - Detector runs Tesseract over the whole normalized image and reports one
//     detection per recognised symbol, with its bounding box.
//   - Classifier reads a single glyph crop and is meant to drive a
//     detection.SegmentingDetector.
//
// Tesseract needs traineddata for the configured language. Inscriptions in a
// script without official traineddata need a custom-trained model placed in
// the tessdata directory; point Options.TessdataPrefix at it.
//
// On builds without cgo the engine is unavailable and every call fails with
// detection.ErrDetectionUnavailable.
package tesseract
