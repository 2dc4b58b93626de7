package match

import (
	"context"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"imagedupe/internal/models"
)

// ProgressFunc receives comparison progress. It is advisory: calls may
// be coalesced by slow consumers and never gate correctness.
type ProgressFunc func(done, total int)

// Matcher iterates candidate pairs and collects qualifying duplicates.
// For a fixed input ordering the output pair order is deterministic;
// callers sort scanned files by path to make it reproducible across
// platforms.
type Matcher struct {
	opts       models.Options
	progressFn ProgressFunc
	log        logrus.FieldLogger
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithProgress sets the comparison progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(m *Matcher) {
		m.progressFn = fn
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(m *Matcher) {
		m.log = log
	}
}

// New creates a Matcher. opts must have been validated.
func New(opts models.Options, mopts ...Option) *Matcher {
	m := &Matcher{
		opts: opts,
		log:  logrus.StandardLogger(),
	}
	for _, opt := range mopts {
		opt(m)
	}
	return m
}

// FindWithin compares every unordered pair (i, j), i < j, of files from
// one directory: n*(n-1)/2 comparisons. On cancellation the pairs
// already collected are returned alongside the context error.
func (m *Matcher) FindWithin(ctx context.Context, files []*models.FileRecord) ([]*models.DuplicatePair, error) {
	n := len(files)
	if n < 2 {
		return nil, nil
	}

	pairs := make([][2]*models.FileRecord, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, [2]*models.FileRecord{files[i], files[j]})
		}
	}

	return m.run(ctx, pairs)
}

// FindAcross compares the full cross product of set A and set B: m*n
// ordered comparisons, no pair within the same set.
func (m *Matcher) FindAcross(ctx context.Context, a, b []*models.FileRecord) ([]*models.DuplicatePair, error) {
	if len(a) == 0 || len(b) == 0 {
		return nil, nil
	}

	pairs := make([][2]*models.FileRecord, 0, len(a)*len(b))
	for _, fa := range a {
		for _, fb := range b {
			pairs = append(pairs, [2]*models.FileRecord{fa, fb})
		}
	}

	return m.run(ctx, pairs)
}

// run evaluates candidate pairs on a bounded worker pool. Results land
// in a slot per candidate so output order matches candidate order no
// matter which worker finishes first.
func (m *Matcher) run(ctx context.Context, pairs [][2]*models.FileRecord) ([]*models.DuplicatePair, error) {
	total := len(pairs)
	results := make([]*models.DuplicatePair, total)

	var next, done int64
	g, ctx := errgroup.WithContext(ctx)
	workers := m.opts.Workers
	if workers > total {
		workers = total
	}

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				// Cancellation is checked between pairs, not mid-compare.
				if err := ctx.Err(); err != nil {
					return err
				}
				k := atomic.AddInt64(&next, 1) - 1
				if k >= int64(total) {
					return nil
				}
				results[k] = m.Compare(pairs[k][0], pairs[k][1])
				d := atomic.AddInt64(&done, 1)
				if m.progressFn != nil {
					m.progressFn(int(d), total)
				}
			}
		})
	}

	err := g.Wait()

	collected := make([]*models.DuplicatePair, 0, total/8)
	for _, p := range results {
		if p != nil {
			collected = append(collected, p)
		}
	}
	if len(collected) == 0 {
		collected = nil
	}
	return collected, err
}

// Compare applies the detection channels to one candidate pair in fixed
// order: the exact check first, then the visual check only if the pair
// was not already classified exact. Returns nil when the pair does not
// qualify.
func (m *Matcher) Compare(a, b *models.FileRecord) *models.DuplicatePair {
	if m.opts.Method.Exact() {
		// Size first as a cheap short-circuit; digests only count when
		// both sides actually have one.
		if a.Size == b.Size &&
			a.Content.State == models.HashReady && b.Content.State == models.HashReady &&
			a.Content.Hex == b.Content.Hex {
			return &models.DuplicatePair{
				First:          a,
				Second:         b,
				Similarity:     100.0,
				Type:           models.MatchExact,
				HashDifference: 0,
			}
		}
	}

	if m.opts.Method.Visual() {
		d, ok := Distance(a, b)
		if !ok {
			// No verdict without both fingerprints.
			return nil
		}
		score := Score(d)
		if score >= float64(m.opts.Threshold) {
			return &models.DuplicatePair{
				First:          a,
				Second:         b,
				Similarity:     score,
				Type:           models.MatchVisual,
				HashDifference: d,
			}
		}
	}

	return nil
}
