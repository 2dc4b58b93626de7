package cmd

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"imagedupe/internal/models"
)

// previewCap limits how many pairs of each match type the console
// summary lists before trailing off.
const previewCap = 10

func printSummary(pairs []*models.DuplicatePair) {
	if len(pairs) == 0 {
		color.Green("\nNo duplicates found!")
		return
	}

	fmt.Printf("\nFound %d duplicate pair(s):\n", len(pairs))
	fmt.Println(strings.Repeat("=", 70))

	var exact, visual []*models.DuplicatePair
	for _, p := range pairs {
		switch p.Type {
		case models.MatchExact:
			exact = append(exact, p)
		case models.MatchVisual:
			visual = append(visual, p)
		}
	}

	if len(exact) > 0 {
		color.New(color.Bold).Printf("\nExact matches: %d\n", len(exact))
		for i, p := range exact {
			if i == previewCap {
				fmt.Printf("     ... and %d more\n", len(exact)-previewCap)
				break
			}
			fmt.Printf("  %d. %s <-> %s\n", i+1, p.First.Filename, p.Second.Filename)
			fmt.Printf("     Size: %s | 100%% match\n", humanize.Bytes(uint64(p.First.Size)))
		}
	}

	if len(visual) > 0 {
		color.New(color.Bold).Printf("\nVisual matches: %d\n", len(visual))
		for i, p := range visual {
			if i == previewCap {
				fmt.Printf("     ... and %d more\n", len(visual)-previewCap)
				break
			}
			fmt.Printf("  %d. %s <-> %s\n", i+1, p.First.Filename, p.Second.Filename)
			fmt.Printf("     Similarity: %.1f%% | Hash diff: %d\n", p.Similarity, p.HashDifference)
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
}
