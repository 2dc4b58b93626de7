// Package export writes duplicate pair lists for external consumers.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"imagedupe/internal/models"
)

var csvHeader = []string{
	"File1_Path", "File1_Name", "File1_Size",
	"File2_Path", "File2_Name", "File2_Size",
	"Similarity_Score", "Match_Type", "Hash_Difference",
}

// WriteCSV writes pairs to w in the reference column layout. The
// similarity score is formatted as a percentage with one decimal.
func WriteCSV(w io.Writer, pairs []*models.DuplicatePair) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, p := range pairs {
		row := []string{
			p.First.Path, p.First.Filename, strconv.FormatInt(p.First.Size, 10),
			p.Second.Path, p.Second.Filename, strconv.FormatInt(p.Second.Size, 10),
			fmt.Sprintf("%.1f%%", p.Similarity),
			string(p.Type),
			strconv.Itoa(p.HashDifference),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes pairs to the named file, creating or truncating it.
func WriteCSVFile(path string, pairs []*models.DuplicatePair) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := WriteCSV(f, pairs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
