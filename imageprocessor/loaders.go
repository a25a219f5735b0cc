package imageprocessor

import (
	"io"
	"os"
	"slices"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// ImageLoader interface defines methods for image decoding
type ImageLoader interface {
	// CanLoad determines if this loader handles the given file format
	CanLoad(path string) bool

	// Decode turns encoded file contents into a single channel gocv.Mat
	Decode(data []byte) (gocv.Mat, error)
}

// BaseImageLoader provides common functionality for all image loaders
type BaseImageLoader struct {
	// Formats this loader can handle
	SupportedFormats []FormatType
}

// CanLoad checks if this loader supports the file's format
func (l *BaseImageLoader) CanLoad(path string) bool {
	return slices.Contains(l.SupportedFormats, GetFileFormat(path))
}

// readFile reads the whole file and closes it before returning
func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrap(err, "read")
	}
	if len(data) == 0 {
		return nil, errors.New("file is empty")
	}
	return data, nil
}

// newImageLoadError creates a standardized error for image loading failures
func newImageLoadError(message, path string) error {
	return errors.Errorf("%s: %s", message, path)
}
