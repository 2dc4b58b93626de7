package hash

import (
	"fmt"
	"image"
	"image/draw"
	"sort"
	"strconv"

	"github.com/corona10/goimagehash"
)

// Strategy computes a 64-bit visual fingerprint for a decoded image.
// Distances are only meaningful between hashes produced by the same
// strategy, so a run must use one strategy throughout.
type Strategy interface {
	// Name identifies the strategy in configuration and persisted runs.
	Name() string
	// Hash fingerprints a decoded image.
	Hash(img image.Image) (uint64, error)
}

// BitWidth is the fingerprint width all strategies produce.
const BitWidth = 64

type averageStrategy struct{}

func (averageStrategy) Name() string { return "average" }

// Hash downscales to an 8x8 grid, thresholds each grayscale sample
// against the mean luminance, and packs the 64 bits.
func (averageStrategy) Hash(img image.Image) (uint64, error) {
	h, err := goimagehash.AverageHash(Normalize(img))
	if err != nil {
		return 0, fmt.Errorf("average hash: %w", err)
	}
	return h.GetHash(), nil
}

type perceptionStrategy struct{}

func (perceptionStrategy) Name() string { return "perception" }

func (perceptionStrategy) Hash(img image.Image) (uint64, error) {
	h, err := goimagehash.PerceptionHash(Normalize(img))
	if err != nil {
		return 0, fmt.Errorf("perception hash: %w", err)
	}
	return h.GetHash(), nil
}

type differenceStrategy struct{}

func (differenceStrategy) Name() string { return "difference" }

func (differenceStrategy) Hash(img image.Image) (uint64, error) {
	h, err := goimagehash.DifferenceHash(Normalize(img))
	if err != nil {
		return 0, fmt.Errorf("difference hash: %w", err)
	}
	return h.GetHash(), nil
}

// strategies holds every registered fingerprinting method. Only
// "average" is wired into the default scan path; the gradient and
// frequency-domain alternates are selectable but inactive by default.
var strategies = map[string]Strategy{
	"average":    averageStrategy{},
	"perception": perceptionStrategy{},
	"difference": differenceStrategy{},
}

// ForName returns the strategy registered under name.
func ForName(name string) (Strategy, error) {
	s, ok := strategies[name]
	if !ok {
		return nil, fmt.Errorf("unknown hash strategy %q (available: %v)", name, StrategyNames())
	}
	return s, nil
}

// StrategyNames lists registered strategies in stable order.
func StrategyNames() []string {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Normalize converts palette, CMYK and other exotic color modes to RGBA
// before sampling. Full-color and grayscale images pass through.
func Normalize(img image.Image) image.Image {
	switch img.(type) {
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64,
		*image.Gray, *image.Gray16, *image.YCbCr:
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// FormatBits serializes a 64-bit fingerprint as a 16-character hex
// string, most significant bit first. The inverse is ParseBits.
func FormatBits(bits uint64) string {
	return fmt.Sprintf("%016x", bits)
}

// ParseBits parses a fingerprint produced by FormatBits.
func ParseBits(s string) (uint64, error) {
	if len(s) != BitWidth/4 {
		return 0, fmt.Errorf("fingerprint %q is not %d hex chars", s, BitWidth/4)
	}
	bits, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed fingerprint %q: %w", s, err)
	}
	return bits, nil
}
