package imageprocessor

import (
	"bytes"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/spakin/netpbm"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"gocv.io/x/gocv"
)

// maxSVGSide bounds the rasterized size of vector images
const maxSVGSide = 1024

var jpegMagic = []byte{0xFF, 0xD8, 0xFF}

// OpenCVImageLoader decodes raster formats with OpenCV
type OpenCVImageLoader struct {
	BaseImageLoader
}

// NewOpenCVImageLoader creates a new loader for formats OpenCV reads natively
func NewOpenCVImageLoader() *OpenCVImageLoader {
	return &OpenCVImageLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []FormatType{
				FormatJPEG,
				FormatPNG,
				FormatBMP,
				FormatWEBP,
				FormatTIFF,
			},
		},
	}
}

// Decode decodes the buffer to 8-bit grayscale. Images with an alpha
// channel are composited onto white, the same as the Go loaders do.
func (l *OpenCVImageLoader) Decode(data []byte) (gocv.Mat, error) {
	img, err := l.decode8Bit(data)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer img.Close()

	switch img.Channels() {
	case 1:
		return img.Clone(), nil
	case 2, 4:
		return imageToGrayMat(matToNRGBA(img))
	default:
		gray := gocv.NewMat()
		if err := toGray(img, &gray); err != nil {
			gray.Close()
			return gocv.NewMat(), err
		}
		return gray, nil
	}
}

// decode8Bit decodes keeping every channel, rescaled to 8 bits per sample
func (l *OpenCVImageLoader) decode8Bit(data []byte) (gocv.Mat, error) {
	// JPEG has no alpha, and only the converting read modes apply EXIF orientation
	flags := gocv.IMReadUnchanged
	if bytes.HasPrefix(data, jpegMagic) {
		flags = gocv.IMReadGrayScale
	}

	img, err := gocv.IMDecode(data, flags)
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "opencv decode")
	}
	defer img.Close()
	if img.Empty() {
		return gocv.NewMat(), errors.New("opencv could not decode image")
	}

	img8 := gocv.NewMat()
	if err := to8Bit(img, &img8); err != nil {
		img8.Close()
		return gocv.NewMat(), err
	}
	return img8, nil
}

// to8Bit rescales 16-bit and float samples into 0..255
func to8Bit(src gocv.Mat, dst *gocv.Mat) error {
	switch depth := src.Type() & 7; depth {
	case gocv.MatTypeCV8U:
		src.CopyTo(dst)
	case gocv.MatTypeCV16U:
		src.ConvertToWithParams(dst, gocv.MatTypeCV8U, 1.0/257, 0)
	case gocv.MatTypeCV32F, gocv.MatTypeCV64F:
		src.ConvertToWithParams(dst, gocv.MatTypeCV8U, 255, 0)
	default:
		return errors.Errorf("unsupported sample depth %d", depth)
	}
	return nil
}

// matToNRGBA converts an 8-bit gray+alpha or BGRA Mat into straight-alpha RGBA
func matToNRGBA(m gocv.Mat) *image.NRGBA {
	w, h, ch := m.Cols(), m.Rows(), m.Channels()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := m.GetVecbAt(y, x)
			var c color.NRGBA
			if ch == 2 {
				c = color.NRGBA{R: v[0], G: v[0], B: v[0], A: v[1]}
			} else {
				c = color.NRGBA{R: v[2], G: v[1], B: v[0], A: v[3]}
			}
			out.SetNRGBA(x, y, c)
		}
	}
	return out
}

// GoImageLoader decodes through the image package registry, honoring EXIF orientation.
// It also serves as the fallback when OpenCV rejects a buffer.
type GoImageLoader struct {
	BaseImageLoader
}

// NewGoImageLoader creates a loader backed by Go image decoders
func NewGoImageLoader() *GoImageLoader {
	return &GoImageLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []FormatType{
				FormatJPEG,
				FormatPNG,
				FormatGIF,
				FormatBMP,
				FormatWEBP,
				FormatTIFF,
			},
		},
	}
}

// Decode decodes the first frame and converts it to grayscale
func (l *GoImageLoader) Decode(data []byte) (gocv.Mat, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "decode")
	}
	return imageToGrayMat(img)
}

// NetpbmImageLoader decodes PBM, PGM, PPM and PAM files
type NetpbmImageLoader struct {
	BaseImageLoader
}

// NewNetpbmImageLoader creates a new netpbm loader
func NewNetpbmImageLoader() *NetpbmImageLoader {
	return &NetpbmImageLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []FormatType{FormatPNM},
		},
	}
}

// Decode decodes any netpbm variant
func (l *NetpbmImageLoader) Decode(data []byte) (gocv.Mat, error) {
	img, err := netpbm.Decode(bytes.NewReader(data), &netpbm.DecodeOptions{})
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "netpbm decode")
	}
	return imageToGrayMat(img)
}

// SVGImageLoader rasterizes SVG documents
type SVGImageLoader struct {
	BaseImageLoader
}

// NewSVGImageLoader creates a new SVG loader
func NewSVGImageLoader() *SVGImageLoader {
	return &SVGImageLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []FormatType{FormatSVG},
		},
	}
}

// Decode rasterizes the document at its viewBox size on a white background
func (l *SVGImageLoader) Decode(data []byte) (gocv.Mat, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "parse svg")
	}

	w, h := svgTargetSize(icon.ViewBox.W, icon.ViewBox.H)
	icon.SetTarget(0, 0, float64(w), float64(h))

	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(rgba, rgba.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(w, h, rgba, rgba.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	icon.Draw(raster, 1.0)

	return imageToGrayMat(rgba)
}

// svgTargetSize keeps the aspect ratio and clamps the long side
func svgTargetSize(vw, vh float64) (int, int) {
	if vw <= 0 || vh <= 0 {
		return maxSVGSide, maxSVGSide
	}

	scale := 1.0
	if long := math.Max(vw, vh); long > maxSVGSide {
		scale = maxSVGSide / long
	}

	w := int(math.Round(vw * scale))
	h := int(math.Round(vh * scale))
	return max(w, 1), max(h, 1)
}

// imageToGrayMat flattens transparency onto white and converts to an 8-bit gray Mat
func imageToGrayMat(img image.Image) (gocv.Mat, error) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return gocv.NewMat(), errors.New("image has no pixels")
	}

	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(gray, gray.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(gray, gray.Bounds(), img, bounds.Min, draw.Over)

	mat, err := gocv.ImageGrayToMatGray(gray)
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "convert to mat")
	}
	return mat, nil
}
