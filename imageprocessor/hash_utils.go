package imageprocessor

import (
	"image"
	"math"
	"slices"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// coefficients smaller than this are transform residue
const residueEpsilon = 1e-6

// ComputePerceptualHash computes a DCT-based perceptual hash for the image.
// The image is resampled to a (4s)x(4s) square, transformed, and the top-left
// s×s block (DC term included) is thresholded against its median.
func ComputePerceptualHash(img gocv.Mat, s Sensitivity) (Fingerprint, error) {
	if err := s.Validate(); err != nil {
		return Fingerprint{}, newHashError("", err)
	}
	if img.Empty() {
		return Fingerprint{}, newHashError("", errors.New("cannot compute hash for empty image"))
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if err := toGray(img, &gray); err != nil {
		return Fingerprint{}, newHashError("", err)
	}

	// Resize with area resampling; nearest neighbour aliases badly
	side := s.SampleSize()
	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(gray, &resized, image.Point{X: side, Y: side}, 0, 0, gocv.InterpolationArea)

	floatImg := gocv.NewMat()
	defer floatImg.Close()
	resized.ConvertTo(&floatImg, gocv.MatTypeCV64F)

	dct := gocv.NewMat()
	defer func() { dct.Close() }()
	gocv.DCT(floatImg, &dct, 0)
	if dct.Empty() {
		dct.Close()
		dct = applyDCT(floatImg)
	}

	values := lowFrequencies(dct, int(s))
	median := calculateMedian(values)

	hashBits := make([]bool, len(values))
	for i, v := range values {
		hashBits[i] = v > median
	}

	fp, err := NewFingerprint(hashBits)
	if err != nil {
		return Fingerprint{}, newHashError("", err)
	}
	return fp, nil
}

// toGray converts img to a single channel matrix
func toGray(img gocv.Mat, dst *gocv.Mat) error {
	switch img.Channels() {
	case 1:
		img.CopyTo(dst)
	case 3:
		gocv.CvtColor(img, dst, gocv.ColorBGRToGray)
	case 4:
		gocv.CvtColor(img, dst, gocv.ColorBGRAToGray)
	default:
		return errors.Errorf("unsupported channel count %d", img.Channels())
	}
	return nil
}

// lowFrequencies flattens the top-left n×n block in row-major order
func lowFrequencies(dct gocv.Mat, n int) []float64 {
	values := make([]float64, 0, n*n)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			v := dct.GetDoubleAt(y, x)
			if math.Abs(v) < residueEpsilon {
				v = 0
			}
			values = append(values, v)
		}
	}
	return values
}

// applyDCT applies an orthonormal 2-D DCT-II to a CV64F matrix.
// Used when OpenCV's DCT returns nothing.
func applyDCT(img gocv.Mat) gocv.Mat {
	rows, cols := img.Rows(), img.Cols()
	result := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV64F)

	// Separable: transform rows, then columns
	tmp := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		row := make([]float64, cols)
		for j := 0; j < cols; j++ {
			row[j] = img.GetDoubleAt(i, j)
		}
		tmp[i] = dct1D(row)
	}

	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			col[i] = tmp[i][j]
		}
		out := dct1D(col)
		for i := 0; i < rows; i++ {
			result.SetDoubleAt(i, j, out[i])
		}
	}

	return result
}

func dct1D(in []float64) []float64 {
	n := len(in)
	out := make([]float64, n)
	for k := 0; k < n; k++ {
		var sum float64
		for i, v := range in {
			sum += v * math.Cos(math.Pi*float64(k)*(2*float64(i)+1)/(2*float64(n)))
		}
		scale := math.Sqrt(2.0 / float64(n))
		if k == 0 {
			scale = math.Sqrt(1.0 / float64(n))
		}
		out[k] = sum * scale
	}
	return out
}

// calculateMedian returns the median, averaging the two middle values for even counts
func calculateMedian(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	length := len(sorted)
	if length == 0 {
		return 0
	} else if length%2 == 0 {
		return (sorted[length/2-1] + sorted[length/2]) / 2
	}
	return sorted[length/2]
}

// HashFile loads path through the registry and fingerprints it. Failures are
// returned as *HashError carrying the path.
func HashFile(path string, s Sensitivity, registry *ImageLoaderRegistry) (Fingerprint, error) {
	img, err := registry.LoadImage(path)
	if err != nil {
		return Fingerprint{}, newHashError(path, err)
	}
	defer img.Close()

	if img.Empty() {
		return Fingerprint{}, newHashError(path, errors.New("image is empty after loading"))
	}

	fp, err := ComputePerceptualHash(img, s)
	if err != nil {
		var herr *HashError
		if errors.As(err, &herr) {
			return Fingerprint{}, newHashError(path, herr.Err)
		}
		return Fingerprint{}, newHashError(path, err)
	}
	return fp, nil
}
