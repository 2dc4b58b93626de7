package scan

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"imagedupe/internal/hash"
	"imagedupe/internal/models"
)

func testScanner(t *testing.T, opts ...Option) *Scanner {
	t.Helper()
	strat, err := hash.ForName("average")
	if err != nil {
		t.Fatal(err)
	}
	return NewScanner(hash.NewFingerprinter(strat), opts...)
}

// writeTestPNG writes a small image whose pixels are offset by seed so
// different seeds give different bytes.
func writeTestPNG(t *testing.T, path string, seed uint8) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			v := uint8(x*16) + seed
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestNewScanner_Defaults(t *testing.T) {
	s := testScanner(t)

	if s.workers != 8 {
		t.Errorf("default workers = %d, want 8", s.workers)
	}
	if s.timeout != 30*time.Second {
		t.Errorf("default timeout = %v, want 30s", s.timeout)
	}
	if s.cache == nil {
		t.Error("scanner should create its own cache by default")
	}
}

func TestNewScanner_Options(t *testing.T) {
	cache := NewCache()
	s := testScanner(t,
		WithWorkers(4),
		WithTimeout(5*time.Second),
		WithCache(cache),
	)

	if s.workers != 4 {
		t.Errorf("workers = %d, want 4", s.workers)
	}
	if s.timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", s.timeout)
	}
	if s.Cache() != cache {
		t.Error("cache option not applied")
	}

	// Zero and negative worker counts keep the default.
	if testScanner(t, WithWorkers(0)).workers != 8 {
		t.Error("workers with 0 should keep default")
	}
	if testScanner(t, WithWorkers(-1)).workers != 8 {
		t.Error("workers with -1 should keep default")
	}
}

func TestScanDirectory_Missing(t *testing.T) {
	s := testScanner(t)
	_, err := s.ScanDirectory(context.Background(), filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, ErrNotDirectory) {
		t.Errorf("err = %v, want ErrNotDirectory", err)
	}
}

func TestScanDirectory_FileNotDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "f.jpg")
	os.WriteFile(path, []byte("x"), 0644)

	s := testScanner(t)
	_, err := s.ScanDirectory(context.Background(), path)
	if !errors.Is(err, ErrNotDirectory) {
		t.Errorf("err = %v, want ErrNotDirectory", err)
	}
}

func TestScanDirectory_Empty(t *testing.T) {
	s := testScanner(t)
	records, err := s.ScanDirectory(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("ScanDirectory failed: %v", err)
	}
	if records != nil {
		t.Errorf("expected nil for empty directory, got %d records", len(records))
	}
}

func TestScanDirectory_FiltersUnsupported(t *testing.T) {
	tmpDir := t.TempDir()
	writeTestPNG(t, filepath.Join(tmpDir, "keep.png"), 0)
	os.WriteFile(filepath.Join(tmpDir, "skip.txt"), []byte("text"), 0644)
	os.WriteFile(filepath.Join(tmpDir, "skip.pdf"), []byte("pdf"), 0644)

	s := testScanner(t)
	records, err := s.ScanDirectory(context.Background(), tmpDir)
	if err != nil {
		t.Fatalf("ScanDirectory failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if records[0].Filename != "keep.png" {
		t.Errorf("kept %q, want keep.png", records[0].Filename)
	}
}

func TestScanDirectory_NonRecursive(t *testing.T) {
	tmpDir := t.TempDir()
	writeTestPNG(t, filepath.Join(tmpDir, "top.png"), 0)

	sub := filepath.Join(tmpDir, "nested")
	os.MkdirAll(sub, 0755)
	writeTestPNG(t, filepath.Join(sub, "deep.png"), 1)

	s := testScanner(t)
	records, err := s.ScanDirectory(context.Background(), tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1 (no recursion)", len(records))
	}
	if records[0].Filename != "top.png" {
		t.Errorf("scanned %q, want top.png", records[0].Filename)
	}
}

func TestScanDirectory_SortedOutput(t *testing.T) {
	tmpDir := t.TempDir()
	for i, name := range []string{"zebra.png", "alpha.png", "mid.png"} {
		writeTestPNG(t, filepath.Join(tmpDir, name), uint8(i))
	}

	s := testScanner(t, WithWorkers(4))
	records, err := s.ScanDirectory(context.Background(), tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}

	paths := make([]string, len(records))
	for i, r := range records {
		paths[i] = r.Path
	}
	if !sort.StringsAreSorted(paths) {
		t.Errorf("records not sorted by path: %v", paths)
	}
}

func TestScanDirectory_RecordsComplete(t *testing.T) {
	tmpDir := t.TempDir()
	writeTestPNG(t, filepath.Join(tmpDir, "img.png"), 3)

	s := testScanner(t)
	records, err := s.ScanDirectory(context.Background(), tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}

	rec := records[0]
	if rec.Content.State != models.HashReady {
		t.Error("content hash not ready")
	}
	if rec.Perceptual.State != models.HashReady {
		t.Error("perceptual hash not ready")
	}
	if rec.Width != 16 || rec.Height != 16 {
		t.Errorf("dimensions = %dx%d, want 16x16", rec.Width, rec.Height)
	}
	if !filepath.IsAbs(rec.Path) {
		t.Errorf("path %q not absolute", rec.Path)
	}
}

func TestScanDirectory_CorruptFileStillExactEligible(t *testing.T) {
	tmpDir := t.TempDir()
	for i := 0; i < 4; i++ {
		writeTestPNG(t, filepath.Join(tmpDir, string(rune('a'+i))+".png"), uint8(i))
	}
	os.WriteFile(filepath.Join(tmpDir, "corrupt.jpg"), []byte("not a jpeg"), 0644)

	s := testScanner(t)
	records, err := s.ScanDirectory(context.Background(), tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	// The corrupt file keeps its content hash and stays in the run.
	if len(records) != 5 {
		t.Fatalf("records = %d, want 5", len(records))
	}

	var corrupt *models.FileRecord
	for _, r := range records {
		if r.Filename == "corrupt.jpg" {
			corrupt = r
		}
	}
	if corrupt == nil {
		t.Fatal("corrupt file missing from records")
	}
	if corrupt.Content.State != models.HashReady {
		t.Error("corrupt file should still have a content hash")
	}
	if corrupt.Perceptual.State != models.HashFailed {
		t.Error("corrupt file should have a failed perceptual hash")
	}
}

func TestScanDirectory_Progress(t *testing.T) {
	tmpDir := t.TempDir()
	for i := 0; i < 3; i++ {
		writeTestPNG(t, filepath.Join(tmpDir, string(rune('a'+i))+".png"), uint8(i))
	}

	var mu sync.Mutex
	var seen []string
	s := testScanner(t, WithProgress(func(scanned, total int, current string) {
		mu.Lock()
		defer mu.Unlock()
		if total != 3 {
			t.Errorf("total = %d, want 3", total)
		}
		seen = append(seen, filepath.Base(current))
	}))

	if _, err := s.ScanDirectory(context.Background(), tmpDir); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 3 {
		t.Errorf("progress calls = %d, want 3", len(seen))
	}
}

func TestScanDirectory_CacheReuse(t *testing.T) {
	tmpDir := t.TempDir()
	writeTestPNG(t, filepath.Join(tmpDir, "img.png"), 0)

	s := testScanner(t)
	first, err := s.ScanDirectory(context.Background(), tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.ScanDirectory(context.Background(), tmpDir)
	if err != nil {
		t.Fatal(err)
	}

	if len(first) != 1 || len(second) != 1 {
		t.Fatal("expected one record per scan")
	}
	if first[0] != second[0] {
		t.Error("second scan should reuse the cached record, not recompute")
	}
}

func TestScanDirectory_Cancelled(t *testing.T) {
	tmpDir := t.TempDir()
	for i := 0; i < 3; i++ {
		writeTestPNG(t, filepath.Join(tmpDir, string(rune('a'+i))+".png"), uint8(i))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := testScanner(t)
	_, err := s.ScanDirectory(ctx, tmpDir)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
