package imageprocessor

import (
	"path/filepath"
	"slices"
	"strings"
)

// FormatType represents a known image format type
type FormatType string

// Known image format constants
const (
	FormatUnknown FormatType = "unknown"
	FormatJPEG    FormatType = "jpeg"
	FormatPNG     FormatType = "png"
	FormatGIF     FormatType = "gif"
	FormatSVG     FormatType = "svg"
	FormatBMP     FormatType = "bmp"
	FormatWEBP    FormatType = "webp"
	FormatTIFF    FormatType = "tiff"
	FormatPNM     FormatType = "pnm"
)

// Map of extensions to format types
var formatExtensions = map[string]FormatType{
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".jpe":  FormatJPEG,
	".png":  FormatPNG,
	".gif":  FormatGIF,
	".svg":  FormatSVG,
	".bmp":  FormatBMP,
	".webp": FormatWEBP,
	".tif":  FormatTIFF,
	".tiff": FormatTIFF,

	// netpbm family
	".pbm": FormatPNM,
	".pgm": FormatPNM,
	".ppm": FormatPNM,
	".pnm": FormatPNM,
}

// Declared content type per extension
var extensionMIMETypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".jpe":  "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".pbm":  "image/x-portable-bitmap",
	".pgm":  "image/x-portable-graymap",
	".ppm":  "image/x-portable-pixmap",
	".pnm":  "image/x-portable-anymap",
}

// CandidateMIMETypes lists the content types treated as searchable images
var CandidateMIMETypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/svg+xml",
	"image/bmp",
	"image/webp",
	"image/tiff",
	"image/x-portable-anymap",
	"image/x-portable-bitmap",
	"image/x-portable-graymap",
	"image/x-portable-pixmap",
}

// MIMEType returns the declared content type for a path, or "" if unknown
func MIMEType(path string) string {
	return extensionMIMETypes[strings.ToLower(filepath.Ext(path))]
}

// IsImageFile checks if a file is a candidate image based on its declared type
func IsImageFile(path string) bool {
	mime := MIMEType(path)
	return mime != "" && slices.Contains(CandidateMIMETypes, mime)
}

// GetFileFormat returns the format type based on file extension
func GetFileFormat(path string) FormatType {
	ext := strings.ToLower(filepath.Ext(path))
	format, exists := formatExtensions[ext]
	if !exists {
		return FormatUnknown
	}
	return format
}

// GetSupportedExtensions returns all supported image file extensions, sorted
func GetSupportedExtensions() []string {
	extensions := make([]string, 0, len(formatExtensions))
	for ext := range formatExtensions {
		extensions = append(extensions, ext)
	}
	slices.Sort(extensions)
	return extensions
}
