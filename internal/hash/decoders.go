package hash

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrNoDecoder means the image decoding precondition failed; a run must
// abort before scanning starts.
var ErrNoDecoder = errors.New("no image decoder available")

// VerifyDecoders proves the required codecs are registered by
// round-tripping a minimal image through each core encoder and the
// format-sniffing decode path. Called once before any scan work.
func VerifyDecoders() error {
	probe := image.NewRGBA(image.Rect(0, 0, 1, 1))
	probe.Set(0, 0, color.RGBA{R: 255, A: 255})

	encoders := []struct {
		format string
		encode func(*bytes.Buffer) error
	}{
		{"png", func(b *bytes.Buffer) error { return png.Encode(b, probe) }},
		{"jpeg", func(b *bytes.Buffer) error { return jpeg.Encode(b, probe, nil) }},
		{"gif", func(b *bytes.Buffer) error { return gif.Encode(b, probe, nil) }},
	}

	for _, enc := range encoders {
		var buf bytes.Buffer
		if err := enc.encode(&buf); err != nil {
			return fmt.Errorf("%w: %s encoder broken: %v", ErrNoDecoder, enc.format, err)
		}
		if _, format, err := image.Decode(&buf); err != nil {
			return fmt.Errorf("%w: cannot decode %s", ErrNoDecoder, enc.format)
		} else if format != enc.format {
			return fmt.Errorf("%w: %s decoded as %s", ErrNoDecoder, enc.format, format)
		}
	}

	return nil
}
