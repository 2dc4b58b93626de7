package models

import (
	"fmt"
	"image"
	"os"
	"sync"
	"time"

	"github.com/nfnt/resize"
)

// HashState tracks whether a fingerprint channel has been computed.
// A failed channel is distinct from one that was never attempted, so
// callers can tell "skip this comparison" from "not fingerprinted yet".
type HashState int

const (
	HashPending HashState = iota
	HashReady
	HashFailed
)

// ContentHash is a cryptographic digest of the raw file bytes.
type ContentHash struct {
	State HashState
	Hex   string // lowercase hex, empty unless State == HashReady
}

// PerceptualHash is a fixed-width visual fingerprint.
type PerceptualHash struct {
	State HashState
	Bits  uint64
	Hex   string // 16-char hex serialization of Bits
}

// FileRecord holds the fingerprint and metadata for one scanned file.
// Once both hash channels have left HashPending the record is read-only
// and safe to share across comparison workers; only the thumbnail is
// populated lazily.
type FileRecord struct {
	Path       string
	Filename   string
	Size       int64
	Content    ContentHash
	Perceptual PerceptualHash
	Width      int
	Height     int
	Format     string
	ModTime    time.Time
	HasExif    bool
	Score      float64

	thumbOnce sync.Once
	thumb     image.Image
	thumbErr  error
}

// ThumbnailSize bounds the longest edge of lazily generated previews.
const ThumbnailSize = 200

// Thumbnail decodes the file and returns a preview scaled to fit
// ThumbnailSize. The result is computed once and cached on the record.
// Not required for comparison; only the review layer asks for it.
func (r *FileRecord) Thumbnail() (image.Image, error) {
	r.thumbOnce.Do(func() {
		f, err := os.Open(r.Path)
		if err != nil {
			r.thumbErr = fmt.Errorf("failed to open file: %w", err)
			return
		}
		defer f.Close()

		img, _, err := image.Decode(f)
		if err != nil {
			r.thumbErr = fmt.Errorf("failed to decode image: %w", err)
			return
		}
		r.thumb = resize.Thumbnail(ThumbnailSize, ThumbnailSize, img, resize.Lanczos3)
	})
	return r.thumb, r.thumbErr
}

// MatchType classifies how a duplicate pair was detected.
type MatchType string

const (
	MatchExact  MatchType = "exact"
	MatchVisual MatchType = "visual"
)

// DuplicatePair is the classified result of comparing two distinct
// FileRecords. Exact pairs always carry similarity 100 and difference 0.
type DuplicatePair struct {
	First          *FileRecord
	Second         *FileRecord
	Similarity     float64 // 0-100
	Type           MatchType
	HashDifference int // Hamming distance in bits, 0 for exact
}

// Method selects which detection channels run.
type Method string

const (
	MethodExact  Method = "exact"
	MethodVisual Method = "visual"
	MethodAll    Method = "all"
)

// Valid reports whether m is a known detection method.
func (m Method) Valid() bool {
	switch m {
	case MethodExact, MethodVisual, MethodAll:
		return true
	}
	return false
}

// Exact reports whether the exact channel is enabled.
func (m Method) Exact() bool { return m == MethodExact || m == MethodAll }

// Visual reports whether the visual channel is enabled.
func (m Method) Visual() bool { return m == MethodVisual || m == MethodAll }

// DefaultThreshold is the minimum similarity score for a visual pair.
const DefaultThreshold = 85

// Options configures one detection run.
type Options struct {
	Threshold int           // similarity threshold 0-100
	Method    Method        // detection channels
	Strategy  string        // perceptual hash strategy name
	Workers   int           // fingerprint/comparison parallelism
	Timeout   time.Duration // per-file fingerprint timeout
}

// DefaultOptions returns the reference configuration.
func DefaultOptions() Options {
	return Options{
		Threshold: DefaultThreshold,
		Method:    MethodAll,
		Strategy:  "average",
		Workers:   8,
		Timeout:   30 * time.Second,
	}
}

// Validate rejects out-of-range options rather than silently clamping.
func (o Options) Validate() error {
	if o.Threshold < 0 || o.Threshold > 100 {
		return fmt.Errorf("similarity threshold %d out of range 0-100", o.Threshold)
	}
	if !o.Method.Valid() {
		return fmt.Errorf("unknown detection method %q", o.Method)
	}
	if o.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", o.Workers)
	}
	return nil
}

// Run records a completed detection run for persistence.
type Run struct {
	ID         int64
	Dir1       string
	Dir2       string // empty for single-directory runs
	Method     Method
	Strategy   string
	Threshold  int
	TotalFiles int
	TotalPairs int
	CreatedAt  time.Time
}

// FormatQualityMultiplier weights the quality score by image format.
func FormatQualityMultiplier(format string) float64 {
	switch format {
	case "png", "tiff", "bmp":
		return 1.2 // Lossless formats
	case "webp":
		return 1.1 // Often lossless or high quality
	case "jpeg", "jpg":
		return 1.0 // Lossy
	case "gif":
		return 0.9 // Limited colors
	default:
		return 1.0
	}
}

// MetadataMultiplier weights the quality score by metadata presence.
func MetadataMultiplier(hasExif bool) float64 {
	if hasExif {
		return 1.1 // Prefer images with metadata
	}
	return 1.0
}

// QualityScore ranks a record for the review layer: resolution scaled by
// format and metadata multipliers. Higher means keep.
func QualityScore(width, height int, format string, hasExif bool) float64 {
	resolution := float64(width * height)
	return resolution * FormatQualityMultiplier(format) * MetadataMultiplier(hasExif)
}
