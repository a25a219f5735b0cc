package imageprocessor

import (
	"path/filepath"
	"strings"
	"sync"

	"findimg/logging"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// ImageLoaderRegistry maintains a registry of image loaders
type ImageLoaderRegistry struct {
	loaders        map[string]ImageLoader
	fallbackLoader ImageLoader
	mutex          sync.RWMutex
}

// NewImageLoaderRegistry creates a new image loader registry
func NewImageLoaderRegistry() *ImageLoaderRegistry {
	registry := &ImageLoaderRegistry{
		loaders: make(map[string]ImageLoader),
	}

	registry.registerStandardLoaders()
	registry.registerSpecializedLoaders()

	return registry
}

// registerStandardLoaders registers loaders for raster formats
func (r *ImageLoaderRegistry) registerStandardLoaders() {
	cvLoader := NewOpenCVImageLoader()
	for _, ext := range []string{".jpg", ".jpeg", ".jpe", ".png", ".bmp", ".webp", ".tif", ".tiff"} {
		r.RegisterLoader(ext, cvLoader)
	}

	// image.Decode returns the first GIF frame only
	goLoader := NewGoImageLoader()
	r.RegisterLoader(".gif", goLoader)

	r.fallbackLoader = goLoader
}

// registerSpecializedLoaders registers loaders for formats OpenCV cannot read
func (r *ImageLoaderRegistry) registerSpecializedLoaders() {
	pnmLoader := NewNetpbmImageLoader()
	for _, ext := range []string{".pbm", ".pgm", ".ppm", ".pnm"} {
		r.RegisterLoader(ext, pnmLoader)
	}

	r.RegisterLoader(".svg", NewSVGImageLoader())
}

// RegisterLoader registers a new loader for a specific file extension
func (r *ImageLoaderRegistry) RegisterLoader(ext string, loader ImageLoader) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ext = strings.ToLower(ext)
	r.loaders[ext] = loader
}

// GetLoader returns the loader registered for the path's extension, or nil
func (r *ImageLoaderRegistry) GetLoader(path string) ImageLoader {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	ext := strings.ToLower(filepath.Ext(path))
	return r.loaders[ext]
}

// CanLoadFile checks if any registered loader can handle the given file
func (r *ImageLoaderRegistry) CanLoadFile(path string) bool {
	return r.GetLoader(path) != nil
}

// LoadImage reads the file and decodes it with the registered loader.
// If that fails and the fallback loader handles the format, it is tried too.
// Files with no registered loader go straight to the fallback.
func (r *ImageLoaderRegistry) LoadImage(path string) (gocv.Mat, error) {
	loader := r.GetLoader(path)
	if loader == nil && r.fallbackLoader == nil {
		return gocv.NewMat(), newImageLoadError("no suitable loader found", path)
	}

	data, err := readFile(path)
	if err != nil {
		return gocv.NewMat(), errors.Wrapf(err, "failed to load image %s", path)
	}

	// Unknown extension: the fallback detects the format from content
	if loader == nil {
		logging.DebugLog("No loader registered for %s, detecting format from content", path)
		img, err := r.fallbackLoader.Decode(data)
		if err != nil {
			return gocv.NewMat(), errors.Wrapf(err, "no suitable loader found for %s", path)
		}
		return img, nil
	}

	img, err := loader.Decode(data)
	if err == nil {
		return img, nil
	}

	fallback := r.fallbackLoader
	if fallback == nil || fallback == loader || !fallback.CanLoad(path) {
		return gocv.NewMat(), errors.Wrapf(err, "failed to load image %s", path)
	}

	logging.DebugLog("Primary decoder failed for %s (%v), trying fallback", path, err)
	img, fbErr := fallback.Decode(data)
	if fbErr != nil {
		return gocv.NewMat(), errors.Wrapf(fbErr, "failed to load image %s", path)
	}
	return img, nil
}
