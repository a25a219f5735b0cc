package processor

import (
	"fmt"
	"runtime/debug"

	"findimg/imageprocessor"
	"findimg/logging"
)

// ImageProcessor is an adapter that loads a file through the loader
// registry and fingerprints it
type ImageProcessor struct {
	sensitivity imageprocessor.Sensitivity
	registry    *imageprocessor.ImageLoaderRegistry
}

// NewImageProcessor creates a new ImageProcessor for one sensitivity
func NewImageProcessor(sensitivity imageprocessor.Sensitivity) (*ImageProcessor, error) {
	if err := sensitivity.Validate(); err != nil {
		return nil, err
	}
	return &ImageProcessor{
		sensitivity: sensitivity,
		registry:    imageprocessor.NewImageLoaderRegistry(),
	}, nil
}

// Sensitivity returns the sensitivity every fingerprint is computed with
func (p *ImageProcessor) Sensitivity() imageprocessor.Sensitivity {
	return p.sensitivity
}

// Fingerprint decodes the file and computes its perceptual hash. Every
// failure, including a decoder panic, comes back as *imageprocessor.HashError.
func (p *ImageProcessor) Fingerprint(path string) (fp imageprocessor.Fingerprint, err error) {
	// Use defer to recover from any panics inside cgo-backed decoders
	defer func() {
		if r := recover(); r != nil {
			logging.DebugLog("Panic while hashing %s: %v\n%s", path, r, debug.Stack())
			fp = imageprocessor.Fingerprint{}
			err = &imageprocessor.HashError{Path: path, Err: fmt.Errorf("panic during image loading: %v", r)}
		}
	}()

	return imageprocessor.HashFile(path, p.sensitivity, p.registry)
}

// IsImageFile checks if the path is a recognized image file
func (p *ImageProcessor) IsImageFile(path string) bool {
	return imageprocessor.IsImageFile(path) && p.registry.CanLoadFile(path)
}
