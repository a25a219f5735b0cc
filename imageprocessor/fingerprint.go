package imageprocessor

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/pkg/errors"
)

// Sensitivity bounds and default
const (
	MinSensitivity     Sensitivity = 2
	MaxSensitivity     Sensitivity = 8
	DefaultSensitivity Sensitivity = 7
)

var (
	// ErrCannotFingerprint is matched by every HashError
	ErrCannotFingerprint = errors.New("cannot compute fingerprint")

	// ErrLengthMismatch is returned when comparing fingerprints of different sizes
	ErrLengthMismatch = errors.New("fingerprint length mismatch")

	// ErrInvalidSensitivity is returned for a sensitivity outside [2, 8]
	ErrInvalidSensitivity = errors.New("invalid sensitivity")
)

// Sensitivity is the side of the low-frequency block kept from the DCT.
// A fingerprint holds Sensitivity² bits.
type Sensitivity int

// Validate checks that the sensitivity is within the supported range
func (s Sensitivity) Validate() error {
	if s < MinSensitivity || s > MaxSensitivity {
		return errors.Wrapf(ErrInvalidSensitivity,
			"sensitivity must be in range from %d to %d, got %d", MinSensitivity, MaxSensitivity, int(s))
	}
	return nil
}

// Bits returns the fingerprint length produced with this sensitivity
func (s Sensitivity) Bits() int {
	return int(s) * int(s)
}

// SampleSize returns the side of the square the image is resampled to
func (s Sensitivity) SampleSize() int {
	return 4 * int(s)
}

// Fingerprint is an immutable perceptual hash. The first coefficient
// occupies the most significant of the used bits.
type Fingerprint struct {
	bits uint64
	size int
}

// NewFingerprint builds a fingerprint from a bit sequence, first bit first
func NewFingerprint(values []bool) (Fingerprint, error) {
	if len(values) == 0 || len(values) > 64 {
		return Fingerprint{}, errors.Errorf("fingerprint must hold 1 to 64 bits, got %d", len(values))
	}

	var packed uint64
	for _, v := range values {
		packed <<= 1
		if v {
			packed |= 1
		}
	}
	return Fingerprint{bits: packed, size: len(values)}, nil
}

// Len returns the number of bits
func (f Fingerprint) Len() int {
	return f.size
}

// Bit reports the i-th bit in coefficient order
func (f Fingerprint) Bit(i int) bool {
	if i < 0 || i >= f.size {
		return false
	}
	return f.bits&(1<<uint(f.size-1-i)) != 0
}

// IsZero reports whether the fingerprint was never computed
func (f Fingerprint) IsZero() bool {
	return f.size == 0
}

// Equal compares both length and bits
func (f Fingerprint) Equal(other Fingerprint) bool {
	return f.size == other.size && f.bits == other.bits
}

// String renders the bits as hex, padding the last byte with zeros on the right
func (f Fingerprint) String() string {
	if f.size == 0 {
		return ""
	}

	nbytes := (f.size + 7) / 8
	shifted := f.bits << uint(nbytes*8-f.size)

	var sb strings.Builder
	for i := nbytes - 1; i >= 0; i-- {
		fmt.Fprintf(&sb, "%02x", byte(shifted>>(uint(i)*8)))
	}
	return sb.String()
}

// Distance returns the Hamming distance between two fingerprints
func Distance(a, b Fingerprint) (int, error) {
	if a.size != b.size {
		return 0, errors.Wrapf(ErrLengthMismatch, "%d bits vs %d bits", a.size, b.size)
	}
	return bits.OnesCount64(a.bits ^ b.bits), nil
}

// HashError reports a file that could not be turned into a fingerprint
type HashError struct {
	Path string
	Err  error
}

func (e *HashError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v: %v", ErrCannotFingerprint, e.Err)
	}
	return fmt.Sprintf("%v for %s: %v", ErrCannotFingerprint, e.Path, e.Err)
}

func (e *HashError) Unwrap() error {
	return e.Err
}

// Is makes every HashError match ErrCannotFingerprint
func (e *HashError) Is(target error) bool {
	return target == ErrCannotFingerprint
}

func newHashError(path string, err error) error {
	return &HashError{Path: path, Err: err}
}
