package report

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/uhppoted/dbm-sheets/dbm"
)

// Grid is a single worksheet.
type Grid interface {
	// Clear removes the cell values, leaving the formatting untouched.
	Clear(ctx context.Context) error

	// Write replaces the values of the block starting at A1, growing the grid if necessary.
	Write(ctx context.Context, rows [][]string) error

	// Resize sets the physical row and column count.
	Resize(ctx context.Context, rows, columns int) error
}

// Workbook is a spreadsheet document.
type Workbook interface {
	Sheet(ctx context.Context, sheetID int64) (Grid, error)
}

// Document is a Workbook along with the document metadata needed for unattended syncs.
type Document interface {
	Workbook
	Sheets(ctx context.Context) ([]Sheet, error)
	Title(ctx context.Context) (string, error)
	Owner(ctx context.Context) (string, error)
	URL(ctx context.Context) (string, error)
}

type Sheet struct {
	ID    int64
	Title string
}

type Writer struct {
	workbook Workbook
	logger   *zap.Logger
}

func NewWriter(workbook Workbook, logger *zap.Logger) *Writer {
	return &Writer{
		workbook: workbook,
		logger:   logger.Named("writer"),
	}
}

// Apply replaces the sheet contents with the trimmed report. The sheet is left untouched
// if nothing remains after trimming.
func (w *Writer) Apply(ctx context.Context, text string, sheetID int64, version dbm.Version) error {
	rows, err := Parse(text)
	if err != nil {
		w.logger.Error("error parsing report", zap.Int64("sheet", sheetID), zap.Error(err))
		return err
	}

	rows, height, width := Rectangle(Trim(rows, version))
	if height == 0 || width == 0 {
		w.logger.Warn("empty report", zap.Int64("sheet", sheetID), zap.Stringer("version", version))
		return nil
	}

	grid, err := w.workbook.Sheet(ctx, sheetID)
	if err != nil {
		return err
	}

	if err := grid.Clear(ctx); err != nil {
		return fmt.Errorf("error clearing sheet %v (%w)", sheetID, err)
	}

	if err := grid.Write(ctx, rows); err != nil {
		return fmt.Errorf("error writing sheet %v (%w)", sheetID, err)
	}

	if err := grid.Resize(ctx, height, width); err != nil {
		return fmt.Errorf("error resizing sheet %v (%w)", sheetID, err)
	}

	w.logger.Debug("updated sheet", zap.Int64("sheet", sheetID), zap.Int("rows", height), zap.Int("columns", width))

	return nil
}
