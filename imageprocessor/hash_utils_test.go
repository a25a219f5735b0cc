package imageprocessor

import (
	"errors"
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"gocv.io/x/gocv"
)

// blockImage draws a cells×cells grid of random gray levels in [30, 200]
func blockImage(seed int64, side, cells int) gocv.Mat {
	rng := rand.New(rand.NewSource(seed))
	levels := make([]uint8, cells*cells)
	for i := range levels {
		levels[i] = uint8(30 + rng.Intn(171))
	}

	img := gocv.NewMatWithSize(side, side, gocv.MatTypeCV8U)
	cell := side / cells
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			img.SetUCharAt(y, x, levels[(y/cell)*cells+x/cell])
		}
	}
	return img
}

func perturb(img gocv.Mat, seed int64, amplitude int) gocv.Mat {
	rng := rand.New(rand.NewSource(seed))
	out := img.Clone()
	for y := 0; y < out.Rows(); y++ {
		for x := 0; x < out.Cols(); x++ {
			v := int(out.GetUCharAt(y, x)) + rng.Intn(2*amplitude+1) - amplitude
			out.SetUCharAt(y, x, uint8(min(max(v, 0), 255)))
		}
	}
	return out
}

func mustHash(t *testing.T, img gocv.Mat, s Sensitivity) Fingerprint {
	t.Helper()
	fp, err := ComputePerceptualHash(img, s)
	if err != nil {
		t.Fatalf("ComputePerceptualHash() error = %v", err)
	}
	return fp
}

func mustDistance(t *testing.T, a, b Fingerprint) int {
	t.Helper()
	d, err := Distance(a, b)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestComputePerceptualHashLength(t *testing.T) {
	img := blockImage(1, 112, 8)
	defer img.Close()

	for s := MinSensitivity; s <= MaxSensitivity; s++ {
		fp := mustHash(t, img, s)
		if fp.Len() != s.Bits() {
			t.Errorf("sensitivity %d: Len() = %d, want %d", s, fp.Len(), s.Bits())
		}
	}
}

func TestComputePerceptualHashDeterministic(t *testing.T) {
	img := blockImage(2, 112, 8)
	defer img.Close()

	first := mustHash(t, img, DefaultSensitivity)
	for i := 0; i < 3; i++ {
		if again := mustHash(t, img, DefaultSensitivity); !again.Equal(first) {
			t.Fatalf("run %d: %s != %s", i, again, first)
		}
	}
}

func TestComputePerceptualHashErrors(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()

	if _, err := ComputePerceptualHash(empty, DefaultSensitivity); err == nil {
		t.Error("expected an error for an empty image")
	}

	img := blockImage(3, 64, 8)
	defer img.Close()
	for _, s := range []Sensitivity{0, 1, 9} {
		if _, err := ComputePerceptualHash(img, s); err == nil {
			t.Errorf("expected an error for sensitivity %d", s)
		}
	}
}

func TestComputePerceptualHashFlatImage(t *testing.T) {
	for _, level := range []uint8{29, 76, 200} {
		img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(float64(level), 0, 0, 0), 100, 100, gocv.MatTypeCV8U)
		fp := mustHash(t, img, DefaultSensitivity)
		img.Close()

		if !fp.Bit(0) {
			t.Errorf("level %d: DC bit must be set", level)
		}
		for i := 1; i < fp.Len(); i++ {
			if fp.Bit(i) {
				t.Errorf("level %d: bit %d set on a flat image", level, i)
				break
			}
		}
	}
}

func TestComputePerceptualHashColorMatchesGray(t *testing.T) {
	gray := blockImage(4, 112, 8)
	defer gray.Close()

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(gray, &bgr, gocv.ColorGrayToBGR)

	if d := mustDistance(t, mustHash(t, gray, DefaultSensitivity), mustHash(t, bgr, DefaultSensitivity)); d != 0 {
		t.Errorf("gray and BGR copies differ by %d bits", d)
	}
}

func TestComputePerceptualHashNoiseTolerance(t *testing.T) {
	for seed := int64(10); seed < 15; seed++ {
		img := blockImage(seed, 112, 8)
		noisy := perturb(img, seed*31, 2)

		d := mustDistance(t, mustHash(t, img, DefaultSensitivity), mustHash(t, noisy, DefaultSensitivity))
		img.Close()
		noisy.Close()

		if d > 2 {
			t.Errorf("seed %d: noisy copy is %d bits away, want <= 2", seed, d)
		}
	}
}

func TestComputePerceptualHashBrightnessTolerance(t *testing.T) {
	img := blockImage(20, 112, 8)
	defer img.Close()

	brighter := gocv.NewMat()
	defer brighter.Close()
	img.ConvertToWithParams(&brighter, gocv.MatTypeCV8U, 1, 20)

	if d := mustDistance(t, mustHash(t, img, DefaultSensitivity), mustHash(t, brighter, DefaultSensitivity)); d > 2 {
		t.Errorf("brightened copy is %d bits away, want <= 2", d)
	}
}

func TestComputePerceptualHashResizeTolerance(t *testing.T) {
	img := blockImage(30, 112, 8)
	defer img.Close()
	small := blockImage(30, 56, 8)
	defer small.Close()

	if d := mustDistance(t, mustHash(t, img, DefaultSensitivity), mustHash(t, small, DefaultSensitivity)); d > 2 {
		t.Errorf("half size copy is %d bits away, want <= 2", d)
	}
}

func TestComputePerceptualHashDistinguishesImages(t *testing.T) {
	a := blockImage(40, 112, 8)
	defer a.Close()
	b := blockImage(41, 112, 8)
	defer b.Close()

	if d := mustDistance(t, mustHash(t, a, DefaultSensitivity), mustHash(t, b, DefaultSensitivity)); d == 0 {
		t.Error("unrelated images must not share a fingerprint")
	}
}

func TestApplyDCTMatchesOpenCV(t *testing.T) {
	src := blockImage(50, 16, 4)
	defer src.Close()

	floatImg := gocv.NewMat()
	defer floatImg.Close()
	src.ConvertTo(&floatImg, gocv.MatTypeCV64F)

	want := gocv.NewMat()
	defer want.Close()
	gocv.DCT(floatImg, &want, 0)

	got := applyDCT(floatImg)
	defer got.Close()

	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if diff := math.Abs(got.GetDoubleAt(y, x) - want.GetDoubleAt(y, x)); diff > 1e-6 {
				t.Fatalf("coefficient (%d,%d) differs by %g", y, x, diff)
			}
		}
	}
}

func TestCalculateMedian(t *testing.T) {
	tests := []struct {
		values []float64
		want   float64
	}{
		{nil, 0},
		{[]float64{3}, 3},
		{[]float64{5, 1, 3}, 3},
		{[]float64{4, 1, 3, 2}, 2.5},
		{[]float64{-1, -1, 7, 7}, 3},
	}

	for _, tt := range tests {
		if got := calculateMedian(tt.values); got != tt.want {
			t.Errorf("calculateMedian(%v) = %v, want %v", tt.values, got, tt.want)
		}
	}
}

func TestHashFile(t *testing.T) {
	registry := NewImageLoaderRegistry()
	img := blockImage(11, 64, 8)
	defer img.Close()

	path := filepath.Join(t.TempDir(), "block.png")
	if !gocv.IMWrite(path, img) {
		t.Fatalf("IMWrite(%s) failed", path)
	}

	got, err := HashFile(path, DefaultSensitivity, registry)
	if err != nil {
		t.Fatalf("HashFile() error = %v", err)
	}
	if want := mustHash(t, img, DefaultSensitivity); !got.Equal(want) {
		t.Errorf("HashFile() = %s, want %s", got, want)
	}

	missing := filepath.Join(t.TempDir(), "missing.png")
	_, err = HashFile(missing, DefaultSensitivity, registry)
	var herr *HashError
	if !errors.As(err, &herr) || herr.Path != missing {
		t.Errorf("HashFile(missing) error = %v, want *HashError for %s", err, missing)
	}
	if !errors.Is(err, ErrCannotFingerprint) {
		t.Errorf("HashFile(missing) error does not match ErrCannotFingerprint")
	}
}
