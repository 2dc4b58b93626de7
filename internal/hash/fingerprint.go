package hash

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/rwcarlsen/goexif/exif"

	"imagedupe/internal/models"
)

// Fingerprinter computes full FileRecords: content digest, perceptual
// fingerprint and image metadata.
type Fingerprinter struct {
	strategy Strategy
}

// NewFingerprinter creates a Fingerprinter using the given strategy for
// the perceptual channel.
func NewFingerprinter(strategy Strategy) *Fingerprinter {
	return &Fingerprinter{strategy: strategy}
}

// Strategy returns the perceptual strategy in use.
func (f *Fingerprinter) Strategy() Strategy { return f.strategy }

// Fingerprint builds a FileRecord for path. Per-channel failures are
// recorded in the hash states rather than aborting: a file that cannot
// be decoded still participates in exact matching, and vice versa. An
// error is returned only when the file cannot be stat'd at all.
func (f *Fingerprinter) Fingerprint(path string) (*models.FileRecord, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	rec := &models.FileRecord{
		Path:     path,
		Filename: filepath.Base(path),
		Size:     stat.Size(),
		ModTime:  stat.ModTime(),
	}

	if digest, err := Content(path); err != nil {
		rec.Content = models.ContentHash{State: models.HashFailed}
	} else {
		rec.Content = models.ContentHash{State: models.HashReady, Hex: digest}
	}

	// EXIF probe before decode; both consume the reader from the start.
	rec.HasExif = checkExif(path)

	img, format, err := decodeImage(path)
	if err != nil {
		rec.Perceptual = models.PerceptualHash{State: models.HashFailed}
		return rec, nil
	}

	bounds := img.Bounds()
	rec.Width = bounds.Dx()
	rec.Height = bounds.Dy()
	rec.Format = strings.ToLower(format)
	rec.Score = models.QualityScore(rec.Width, rec.Height, rec.Format, rec.HasExif)

	bits, err := f.strategy.Hash(img)
	if err != nil {
		rec.Perceptual = models.PerceptualHash{State: models.HashFailed}
		return rec, nil
	}
	rec.Perceptual = models.PerceptualHash{
		State: models.HashReady,
		Bits:  bits,
		Hex:   FormatBits(bits),
	}

	return rec, nil
}

// FingerprintContext runs Fingerprint under the deadline or cancellation
// of ctx, so a stuck decode reports a per-file failure instead of
// stalling the whole run.
func (f *Fingerprinter) FingerprintContext(ctx context.Context, path string) (*models.FileRecord, error) {
	done := make(chan struct{})
	var rec *models.FileRecord
	var err error

	go func() {
		rec, err = f.Fingerprint(path)
		close(done)
	}()

	select {
	case <-done:
		return rec, err
	case <-ctx.Done():
		return nil, fmt.Errorf("fingerprint %s: %w", path, ctx.Err())
	}
}

func decodeImage(path string) (image.Image, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}

// checkExif reports whether the file carries EXIF data.
func checkExif(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	_, err = exif.Decode(file)
	return err == nil
}

// IsSupportedImage reports whether the file extension is in the
// supported image set. Unsupported files are filtered, not errors.
func IsSupportedImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tiff", ".tif":
		return true
	default:
		return false
	}
}
