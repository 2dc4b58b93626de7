package match

import (
	"imagedupe/internal/hash"
	"imagedupe/internal/models"
)

// Score maps a Hamming distance to a 0-100 similarity score using the
// fixed piecewise rule. The mapping is non-increasing in d and its exact
// values are load-bearing: exports and thresholds depend on them.
func Score(d int) float64 {
	switch {
	case d <= 0:
		return 100.0
	case d <= 5:
		return 95.0 - float64(d)*2
	case d <= 10:
		return 85.0 - float64(d-5)*3
	default:
		s := 70.0 - float64(d-10)*5
		if s < 0 {
			return 0
		}
		return s
	}
}

// Distance returns the Hamming distance between the perceptual hashes
// of two records. ok is false when either side has no usable hash; the
// comparison is then indeterminate and must be skipped, never treated
// as maximally dissimilar.
func Distance(a, b *models.FileRecord) (d int, ok bool) {
	if a.Perceptual.State != models.HashReady || b.Perceptual.State != models.HashReady {
		return 0, false
	}
	return hash.HammingDistance(a.Perceptual.Bits, b.Perceptual.Bits), true
}
