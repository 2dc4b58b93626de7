package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"imagedupe/internal/fileutil"
	"imagedupe/internal/models"
	"imagedupe/internal/storage"
)

var (
	resolveRunID     int64
	resolveType      string
	resolveMoveTo    string
	resolvePermanent bool
	resolveDryRun    bool
	resolveYes       bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Act on a saved run: remove or move duplicate files",
	Long: `Resolve the duplicate pairs of a saved run by keeping the higher
quality side of each pair and removing the other.

Quality is ranked by resolution, format and metadata; ties fall back to
file size and then path. Removed files go to the system trash unless
--move-to or --permanent is given. A file that is the kept side of any
pair is never removed.

Example:
  imagedupe resolve --dry-run              # Preview only
  imagedupe resolve --type exact           # Only byte-identical pairs
  imagedupe resolve --move-to ./dupes      # Move instead of trash
  imagedupe resolve --permanent --yes      # Delete without prompting`,
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().Int64Var(&resolveRunID, "run", 0, "Run ID to resolve (0 = latest)")
	resolveCmd.Flags().StringVar(&resolveType, "type", "all", "Pair types to resolve: exact, visual or all")
	resolveCmd.Flags().StringVar(&resolveMoveTo, "move-to", "", "Move duplicates to this folder")
	resolveCmd.Flags().BoolVar(&resolvePermanent, "permanent", false, "Delete permanently instead of moving to trash")
	resolveCmd.Flags().BoolVar(&resolveDryRun, "dry-run", false, "Preview without removing")
	resolveCmd.Flags().BoolVarP(&resolveYes, "yes", "y", false, "Skip confirmation prompt")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	want := models.Method(resolveType)
	if !want.Valid() {
		return fmt.Errorf("unknown pair type %q", resolveType)
	}

	store, err := storage.NewStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	run, err := loadRun(store, resolveRunID)
	if err != nil {
		return err
	}

	pairs, err := store.GetPairs(run.ID)
	if err != nil {
		return fmt.Errorf("failed to get pairs: %w", err)
	}

	var selected []*models.DuplicatePair
	for _, p := range pairs {
		if want == models.MethodAll ||
			(want == models.MethodExact && p.Type == models.MatchExact) ||
			(want == models.MethodVisual && p.Type == models.MatchVisual) {
			selected = append(selected, p)
		}
	}

	if len(selected) == 0 {
		fmt.Println("No matching pairs to resolve.")
		return nil
	}

	toRemove, totalSize := planRemovals(selected)
	if len(toRemove) == 0 {
		fmt.Println("No files to remove (files may have been already deleted).")
		return nil
	}

	var action string
	switch {
	case resolveMoveTo != "":
		action = fmt.Sprintf("move to %s", resolveMoveTo)
	case resolvePermanent:
		action = "permanently delete"
	default:
		action = "move to trash"
	}

	fmt.Printf("Run #%d: will %s %d files (%s)\n\n",
		run.ID, action, len(toRemove), humanize.Bytes(uint64(totalSize)))

	if resolveDryRun {
		fmt.Println("Files to be removed:")
		for _, path := range toRemove {
			fmt.Printf("  %s\n", path)
		}
		fmt.Println("\n(Dry run - no files were modified)")
		return nil
	}

	if !resolveYes {
		fmt.Printf("Are you sure you want to %s %d files? [y/N]: ", action, len(toRemove))
		reader := bufio.NewReader(os.Stdin)
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	var processed, failed int
	for _, path := range toRemove {
		var err error
		switch {
		case resolveMoveTo != "":
			err = fileutil.MoveFile(path, resolveMoveTo)
		case resolvePermanent:
			err = os.Remove(path)
		default:
			err = fileutil.MoveToTrash(path)
		}

		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to process %s: %v\n", path, err)
			failed++
			continue
		}
		processed++
		store.DeletePairsForPath(run.ID, path)
	}

	fmt.Printf("\nProcessed %d files", processed)
	if failed > 0 {
		fmt.Printf(" (%d failed)", failed)
	}
	fmt.Printf("\nSpace reclaimed: %s\n", humanize.Bytes(uint64(totalSize)))

	return nil
}

// planRemovals picks the losing side of each pair by quality score
// (score, then size, then path) and returns the set of paths to remove.
// A path kept by any pair is never removed, each path is removed once,
// and paths that no longer exist are skipped.
func planRemovals(pairs []*models.DuplicatePair) ([]string, int64) {
	keep := make(map[string]bool)
	remove := make(map[string]int64)

	for _, p := range pairs {
		kept, lost := p.First, p.Second
		if worseThan(kept, lost) {
			kept, lost = lost, kept
		}
		keep[kept.Path] = true
		remove[lost.Path] = lost.Size
	}

	var paths []string
	var total int64
	for _, p := range pairs {
		for _, side := range []*models.FileRecord{p.First, p.Second} {
			size, marked := remove[side.Path]
			if !marked || keep[side.Path] {
				continue
			}
			if _, err := os.Stat(side.Path); err != nil {
				delete(remove, side.Path)
				continue
			}
			paths = append(paths, side.Path)
			total += size
			delete(remove, side.Path)
		}
	}
	return paths, total
}

// worseThan reports whether a ranks below b for retention.
func worseThan(a, b *models.FileRecord) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	if a.Size != b.Size {
		return a.Size < b.Size
	}
	return a.Path > b.Path
}
