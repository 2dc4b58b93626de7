package scan

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"imagedupe/internal/hash"
	"imagedupe/internal/models"
)

// ErrNotDirectory means an input path does not exist or is not a
// directory; the scan of that path yields zero files.
var ErrNotDirectory = errors.New("not a directory")

// Scanner enumerates the immediate image files of a directory and
// produces FileRecords through the cache and fingerprinter.
type Scanner struct {
	fp         *hash.Fingerprinter
	cache      *Cache
	workers    int
	timeout    time.Duration
	progressFn func(scanned, total int, current string)
	log        logrus.FieldLogger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithWorkers sets the number of parallel fingerprint workers.
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithTimeout sets the per-file fingerprint timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Scanner) {
		s.timeout = d
	}
}

// WithProgress sets a progress callback reporting the file currently
// being processed. Thread-safe delivery, advisory only.
func WithProgress(fn func(scanned, total int, current string)) Option {
	return func(s *Scanner) {
		s.progressFn = fn
	}
}

// WithCache shares a fingerprint cache across scans of one run, so a
// path appearing in both inputs is fingerprinted once.
func WithCache(c *Cache) Option {
	return func(s *Scanner) {
		s.cache = c
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Scanner) {
		s.log = log
	}
}

// NewScanner creates a Scanner fingerprinting through fp.
func NewScanner(fp *hash.Fingerprinter, opts ...Option) *Scanner {
	s := &Scanner{
		fp:      fp,
		workers: 8,
		timeout: 30 * time.Second,
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = NewCache()
	}
	return s
}

// Cache returns the fingerprint cache backing this scanner.
func (s *Scanner) Cache() *Cache { return s.cache }

// ScanDirectory enumerates the immediate files of dir (non-recursive),
// filters by supported extension, and fingerprints each file on a
// bounded worker pool. Files are returned sorted by path so downstream
// pair order does not depend on filesystem listing order. Per-file
// failures are logged and skipped; a missing directory is an error.
func (s *Scanner) ScanDirectory(ctx context.Context, dir string) ([]*models.FileRecord, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	entries, err := os.ReadDir(absDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		p := filepath.Join(absDir, entry.Name())
		if hash.IsSupportedImage(p) {
			paths = append(paths, p)
		}
	}
	// ReadDir sorts by name already; sort the joined paths anyway so
	// ordering is a guarantee of this function, not of the platform.
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, nil
	}

	results := make([]*models.FileRecord, len(paths))
	var next, scanned int64
	total := len(paths)

	g, gctx := errgroup.WithContext(ctx)
	workers := s.workers
	if workers > total {
		workers = total
	}

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				// Cooperative cancellation between files.
				if err := gctx.Err(); err != nil {
					return err
				}
				k := atomic.AddInt64(&next, 1) - 1
				if k >= int64(total) {
					return nil
				}
				results[k] = s.scanOne(gctx, paths[k])

				n := atomic.AddInt64(&scanned, 1)
				if s.progressFn != nil {
					s.progressFn(int(n), total, paths[k])
				}
			}
		})
	}

	err = g.Wait()

	records := make([]*models.FileRecord, 0, total)
	for _, rec := range results {
		if rec != nil {
			records = append(records, rec)
		}
	}
	if len(records) == 0 {
		records = nil
	}
	return records, err
}

// scanOne produces the record for one path, reusing the cache when the
// path was already fingerprinted this run. Returns nil when the file is
// unusable on both channels.
func (s *Scanner) scanOne(ctx context.Context, path string) *models.FileRecord {
	if rec, ok := s.cache.Lookup(path); ok {
		return rec
	}

	fctx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	rec, err := s.fp.FingerprintContext(fctx, path)
	if err != nil {
		s.log.WithField("path", path).WithError(err).Warn("skipping unreadable file")
		return nil
	}

	if rec.Content.State == models.HashFailed {
		s.log.WithField("path", path).Warn("content hash failed, excluded from exact matching")
	}
	if rec.Perceptual.State == models.HashFailed {
		s.log.WithField("path", path).Warn("image undecodable, excluded from visual matching")
	}
	if rec.Content.State != models.HashReady && rec.Perceptual.State != models.HashReady {
		return nil
	}

	return s.cache.Store(rec)
}
