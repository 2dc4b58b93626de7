package cmd

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"imagedupe/internal/models"
	"imagedupe/internal/storage"
)

var (
	listRunID   int64
	listRuns    bool
	listVerbose bool
	listLimit   int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Re-display a saved run's duplicate pairs",
	Long: `Display the duplicate pairs of a saved run.

By default the most recent run is shown. Use --run to pick an older run
and --runs to see all recorded runs.

Example:
  imagedupe list              # Pairs of the latest run
  imagedupe list --runs       # All recorded runs
  imagedupe list --run 3      # Pairs of run #3
  imagedupe list -n 0         # All pairs, no cap`,
	RunE: runList,
}

func init() {
	listCmd.Flags().Int64Var(&listRunID, "run", 0, "Run ID to display (0 = latest)")
	listCmd.Flags().BoolVar(&listRuns, "runs", false, "List recorded runs instead of pairs")
	listCmd.Flags().BoolVar(&listVerbose, "detail", false, "Show quality scores per pair")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "Limit number of pairs to display (0 = all)")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	store, err := storage.NewStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	if listRuns {
		return printRuns(store)
	}

	run, err := loadRun(store, listRunID)
	if err != nil {
		return err
	}

	pairs, err := store.GetPairs(run.ID)
	if err != nil {
		return fmt.Errorf("failed to get pairs: %w", err)
	}

	where := run.Dir1
	if run.Dir2 != "" {
		where += " vs " + run.Dir2
	}
	fmt.Printf("Run #%d  %s  (%s, threshold %d, %d files)\n",
		run.ID, where, run.Method, run.Threshold, run.TotalFiles)
	fmt.Println(strings.Repeat("-", 70))

	if len(pairs) == 0 {
		fmt.Println("No duplicate pairs in this run.")
		return nil
	}

	shown := pairs
	if listLimit > 0 && listLimit < len(shown) {
		shown = shown[:listLimit]
	}

	for i, p := range shown {
		printPair(i+1, p)
	}

	if len(shown) < len(pairs) {
		fmt.Printf("\nShowing %d of %d pairs (use -n 0 for all)\n", len(shown), len(pairs))
	}

	return nil
}

func loadRun(store *storage.Storage, id int64) (*models.Run, error) {
	if id > 0 {
		run, err := store.GetRun(id)
		if err != nil {
			return nil, fmt.Errorf("run #%d not found: %w", id, err)
		}
		return run, nil
	}
	run, err := store.LatestRun()
	if err != nil {
		return nil, fmt.Errorf("no saved runs; use 'imagedupe find --save' first")
	}
	return run, nil
}

func printRuns(store *storage.Storage) error {
	runs, err := store.ListRuns()
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No saved runs.")
		return nil
	}

	fmt.Printf("%-5s  %-19s  %-7s  %-6s  %-6s  %s\n",
		"Run", "Created", "Method", "Files", "Pairs", "Directories")
	fmt.Println(strings.Repeat("-", 78))
	for _, r := range runs {
		where := r.Dir1
		if r.Dir2 != "" {
			where += " vs " + r.Dir2
		}
		fmt.Printf("#%-4d  %-19s  %-7s  %-6d  %-6d  %s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Method,
			r.TotalFiles, r.TotalPairs, where)
	}
	return nil
}

func printPair(n int, p *models.DuplicatePair) {
	marker := color.YellowString("~")
	if p.Type == models.MatchExact {
		marker = color.RedString("=")
	}

	fmt.Printf("%3d. %s %-30s %10s\n", n, marker,
		truncateName(p.First.Filename, 30), humanize.Bytes(uint64(p.First.Size)))
	fmt.Printf("       %-30s %10s   %.1f%% %s (diff %d)\n",
		truncateName(p.Second.Filename, 30), humanize.Bytes(uint64(p.Second.Size)),
		p.Similarity, p.Type, p.HashDifference)
	if listVerbose {
		fmt.Printf("       scores: %.0f / %.0f\n", p.First.Score, p.Second.Score)
	}
}

func truncateName(name string, maxLen int) string {
	if len(name) <= maxLen {
		return name
	}
	return name[:maxLen-3] + "..."
}
