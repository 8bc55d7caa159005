package commands

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/uhppoted/dbm-sheets/report"
)

// reportToTSV writes the trimmed report rows as tab separated values. Short rows are padded
// to the width of the widest row.
func reportToTSV(f io.Writer, rows [][]string) error {
	if len(rows) == 0 {
		return fmt.Errorf("Empty report")
	}

	grid, _, width := report.Rectangle(rows)

	w := csv.NewWriter(f)
	w.Comma = '\t'

	for _, row := range grid {
		record := make([]string, width)
		for i, v := range row {
			record[i] = clean(v)
		}

		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()

	return w.Error()
}

func clean(v string) string {
	return strings.TrimSpace(v)
}
