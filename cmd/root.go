package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	dbPath    string
	threshold int
	method    string
	strategy  string
	workers   int
	timeout   time.Duration
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "imagedupe",
	Short: "Find duplicate and near-duplicate images",
	Long: `imagedupe detects duplicate and visually similar images.

It combines exact content matching (SHA-256 of the file bytes) with
perceptual hashing, so it finds both byte-identical copies and
re-encoded, resized or recompressed versions of the same picture.

Example usage:
  imagedupe find ./photos               # Duplicates within one folder
  imagedupe find ./photos ./backup      # Duplicates across two folders
  imagedupe find ./photos --csv out.csv # Export pairs to CSV
  imagedupe list                        # Re-display a saved run
  imagedupe resolve --dry-run           # Preview duplicate cleanup`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		} else {
			logrus.SetLevel(logrus.WarnLevel)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	homeDir, _ := os.UserHomeDir()
	defaultDB := filepath.Join(homeDir, ".imagedupe", "runs.db")

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "Path to SQLite database for saved runs")
	rootCmd.PersistentFlags().IntVar(&threshold, "threshold", 85, "Similarity threshold for visual matches (0-100)")
	rootCmd.PersistentFlags().StringVar(&method, "method", "all", "Detection method: exact, visual or all")
	rootCmd.PersistentFlags().StringVar(&strategy, "strategy", "average", "Perceptual hash strategy")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 8, "Number of parallel workers")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Per-file fingerprint timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}
