// Package report fetches the latest DBM report for a linked sheet and writes it into the
// sheet's grid.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/uhppoted/dbm-sheets/dbm"
)

// Parse reads the report CSV into rows of cells. Rows may have different widths and blank
// lines are kept as rows with a single empty cell.
func Parse(text string) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows := [][]string{}
	for {
		offset := r.InputOffset()
		record, err := r.Read()

		rows = append(rows, blanks(text[offset:r.InputOffset()])...)

		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("invalid report CSV (%w)", err)
		}

		rows = append(rows, record)
	}

	return rows, nil
}

// blanks returns an empty row for each line break at the start of the text consumed by a
// read, i.e. for each blank line the CSV reader skipped.
func blanks(consumed string) [][]string {
	rows := [][]string{}
	for {
		switch {
		case strings.HasPrefix(consumed, "\r\n"):
			consumed = consumed[2:]

		case strings.HasPrefix(consumed, "\n"):
			consumed = consumed[1:]

		default:
			return rows
		}

		rows = append(rows, []string{""})
	}
}

// Trim discards the summary rows DBM appends after the report data. The first row with an
// empty first cell marks the end of the data (row 1 if there is no such row). v1 reports
// keep the rows before the boundary and v2 reports keep the boundary row too.
func Trim(rows [][]string, version dbm.Version) [][]string {
	boundary := 1
	for i, row := range rows {
		if len(row) == 0 || row[0] == "" {
			boundary = i
			break
		}
	}

	keep := boundary
	if version == dbm.V2 {
		keep = boundary + 1
	}

	if keep > len(rows) {
		keep = len(rows)
	}

	return rows[:keep]
}

// Rectangle pads the rows to a common width and returns the row and column counts.
func Rectangle(rows [][]string) ([][]string, int, int) {
	columns := 0
	for _, row := range rows {
		if len(row) > columns {
			columns = len(row)
		}
	}

	grid := make([][]string, len(rows))
	for i, row := range rows {
		grid[i] = make([]string, columns)
		copy(grid[i], row)
	}

	return grid, len(grid), columns
}
