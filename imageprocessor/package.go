// Package imageprocessor decodes image files into grayscale matrices and
// computes DCT-based perceptual fingerprints from them.
package imageprocessor
