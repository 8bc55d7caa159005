package gsheets

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/sheets/v4"
)

type grid struct {
	spreadsheet *Spreadsheet
	properties  *sheets.SheetProperties
}

func (g *grid) Clear(ctx context.Context) error {
	rq := sheets.BatchClearValuesRequest{
		Ranges: []string{quote(g.properties.Title)},
	}

	if _, err := g.spreadsheet.sheets.Spreadsheets.Values.BatchClear(g.spreadsheet.ID, &rq).Context(ctx).Do(); err != nil {
		return err
	}

	return nil
}

func (g *grid) Write(ctx context.Context, rows [][]string) error {
	height := int64(len(rows))
	width := int64(0)
	values := make([][]any, 0, len(rows))

	for _, row := range rows {
		width = max(width, int64(len(row)))

		record := make([]any, len(row))
		for i, v := range row {
			record[i] = v
		}

		values = append(values, record)
	}

	// ... grow the grid if necessary, shrinking is left to Resize
	rowCount, columnCount := g.extent()
	if err := g.resize(ctx, max(rowCount, height), max(columnCount, width)); err != nil {
		return err
	}

	vr := sheets.ValueRange{
		Range:  quote(g.properties.Title) + "!A1",
		Values: values,
	}

	if _, err := g.spreadsheet.sheets.Spreadsheets.Values.Update(g.spreadsheet.ID, vr.Range, &vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do(); err != nil {
		return err
	}

	return nil
}

func (g *grid) Resize(ctx context.Context, rows, columns int) error {
	if rows < 1 || columns < 1 {
		return fmt.Errorf("invalid grid size %vx%v", rows, columns)
	}

	return g.resize(ctx, int64(rows), int64(columns))
}

func (g *grid) resize(ctx context.Context, rows, columns int64) error {
	rowCount, columnCount := g.extent()
	requests := []*sheets.Request{}

	requests = append(requests, g.dimension("ROWS", rowCount, rows)...)
	requests = append(requests, g.dimension("COLUMNS", columnCount, columns)...)

	if len(requests) == 0 {
		return nil
	}

	if err := g.spreadsheet.batchUpdate(ctx, requests...); err != nil {
		return fmt.Errorf("error resizing worksheet '%v' (%w)", g.properties.Title, err)
	}

	g.spreadsheet.logger.Debug("resized worksheet",
		zap.String("sheet", g.properties.Title),
		zap.Int64("rows", rows),
		zap.Int64("columns", columns))

	if g.properties.GridProperties == nil {
		g.properties.GridProperties = &sheets.GridProperties{}
	}

	g.properties.GridProperties.RowCount = rows
	g.properties.GridProperties.ColumnCount = columns

	return nil
}

func (g *grid) dimension(dimension string, current, required int64) []*sheets.Request {
	switch {
	case current < required:
		return []*sheets.Request{
			&sheets.Request{
				AppendDimension: &sheets.AppendDimensionRequest{
					SheetId:         g.properties.SheetId,
					Dimension:       dimension,
					Length:          required - current,
					ForceSendFields: []string{"SheetId"},
				},
			},
		}

	case current > required:
		return []*sheets.Request{
			&sheets.Request{
				DeleteDimension: &sheets.DeleteDimensionRequest{
					Range: &sheets.DimensionRange{
						SheetId:         g.properties.SheetId,
						Dimension:       dimension,
						StartIndex:      required,
						EndIndex:        current,
						ForceSendFields: []string{"SheetId"},
					},
				},
			},
		}

	default:
		return nil
	}
}

func (g *grid) extent() (int64, int64) {
	if p := g.properties.GridProperties; p != nil {
		return p.RowCount, p.ColumnCount
	}

	return 0, 0
}

// quote returns the sheet title in A1 notation form.
func quote(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
