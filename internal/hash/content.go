package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// contentChunkSize bounds memory while digesting arbitrarily large files.
const contentChunkSize = 64 * 1024

// Content streams the file through SHA-256 and returns the digest as a
// lowercase hex string. Two files are exact duplicates only when both
// their byte size and this digest match.
func Content(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, contentChunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
