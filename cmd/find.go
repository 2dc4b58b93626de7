package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"

	"github.com/cheggaaa/pb"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"imagedupe/internal/export"
	"imagedupe/internal/hash"
	"imagedupe/internal/match"
	"imagedupe/internal/models"
	"imagedupe/internal/scan"
	"imagedupe/internal/storage"
)

var (
	findCSV        string
	findSave       bool
	findNoProgress bool
)

var findCmd = &cobra.Command{
	Use:   "find <dir> [dir2]",
	Short: "Find duplicate images in one or two directories",
	Long: `Scan one or two directories (non-recursive) and report duplicate pairs.

With one directory, every unordered pair of files is compared. With two
directories, every file from the first is compared against every file
from the second.

Each pair is classified as:
  exact  - identical byte size and content digest
  visual - perceptual hash similarity at or above the threshold

Example:
  imagedupe find ./photos
  imagedupe find ./photos ./backup --threshold 90
  imagedupe find ./photos --method exact --csv dupes.csv
  imagedupe find ./photos --save`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runFind,
}

func init() {
	findCmd.Flags().StringVar(&findCSV, "csv", "", "Export duplicate pairs to this CSV file")
	findCmd.Flags().BoolVar(&findSave, "save", false, "Save the run to the database")
	findCmd.Flags().BoolVar(&findNoProgress, "no-progress", false, "Disable progress bars")
	rootCmd.AddCommand(findCmd)
}

func runFind(cmd *cobra.Command, args []string) error {
	opts := models.Options{
		Threshold: threshold,
		Method:    models.Method(method),
		Strategy:  strategy,
		Workers:   workers,
		Timeout:   timeout,
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	strat, err := hash.ForName(opts.Strategy)
	if err != nil {
		return err
	}

	// Fatal precondition: without working decoders the whole run aborts
	// before any scanning.
	if err := hash.VerifyDecoders(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	scanBar := newPhaseBar("Scanning  ")
	cache := scan.NewCache()
	scanner := scan.NewScanner(hash.NewFingerprinter(strat),
		scan.WithCache(cache),
		scan.WithWorkers(opts.Workers),
		scan.WithTimeout(opts.Timeout),
		scan.WithProgress(func(scanned, total int, current string) {
			scanBar.update(scanned, total)
		}),
	)

	sets := make([][]*models.FileRecord, 0, len(args))
	totalFiles := 0
	for _, dir := range args {
		files, err := scanner.ScanDirectory(ctx, dir)
		if err != nil && !errors.Is(err, context.Canceled) {
			scanBar.finish()
			return fmt.Errorf("scan failed: %w", err)
		}
		sets = append(sets, files)
		totalFiles += len(files)
	}
	scanBar.finish()
	fmt.Printf("Scanned %d images\n", totalFiles)

	compareBar := newPhaseBar("Comparing ")
	matcher := match.New(opts, match.WithProgress(func(done, total int) {
		compareBar.update(done, total)
	}))

	var pairs []*models.DuplicatePair
	var matchErr error
	if len(sets) == 1 {
		pairs, matchErr = matcher.FindWithin(ctx, sets[0])
	} else {
		pairs, matchErr = matcher.FindAcross(ctx, sets[0], sets[1])
	}
	compareBar.finish()

	if matchErr != nil {
		if errors.Is(matchErr, context.Canceled) {
			fmt.Println("Interrupted; showing pairs found so far.")
		} else {
			return fmt.Errorf("matching failed: %w", matchErr)
		}
	}

	printSummary(pairs)

	if findCSV != "" {
		if err := export.WriteCSVFile(findCSV, pairs); err != nil {
			return fmt.Errorf("CSV export failed: %w", err)
		}
		fmt.Printf("Exported %d pairs to %s\n", len(pairs), findCSV)
	}

	if findSave {
		run := &models.Run{
			Dir1:       args[0],
			Method:     opts.Method,
			Strategy:   opts.Strategy,
			Threshold:  opts.Threshold,
			TotalFiles: totalFiles,
		}
		if len(args) == 2 {
			run.Dir2 = args[1]
		}

		store, err := storage.NewStorage(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer store.Close()

		runID, err := store.SaveRun(run, pairs)
		if err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		fmt.Printf("Saved run #%d (%d pairs)\n", runID, len(pairs))
		fmt.Println("Run 'imagedupe list' to re-display it")
		fmt.Println("Run 'imagedupe resolve --dry-run' to preview cleanup")
	}

	logrus.WithFields(logrus.Fields{
		"files": totalFiles,
		"pairs": len(pairs),
	}).Debug("run complete")

	return nil
}

// phaseBar lazily creates a progress bar once the phase total is known.
// Engine progress callbacks arrive from multiple workers.
type phaseBar struct {
	mu     sync.Mutex
	bar    *pb.ProgressBar
	prefix string
}

func newPhaseBar(prefix string) *phaseBar {
	return &phaseBar{prefix: prefix}
}

func (p *phaseBar) update(done, total int) {
	if findNoProgress {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar == nil {
		p.bar = pb.New(total).Prefix(p.prefix)
		p.bar.ShowTimeLeft = false
		p.bar.Start()
	}
	p.bar.Set(done)
}

func (p *phaseBar) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		p.bar.Finish()
		p.bar = nil
	}
}
