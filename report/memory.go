package report

import (
	"context"
	"fmt"
	"sync"
)

// MemoryGrid is an in-process Grid. Cells outside the grid extent are discarded on resize.
type MemoryGrid struct {
	Rows    int
	Columns int
	Cells   [][]string
	Format  map[string]string
}

// MemoryWorkbook is an in-process Document. Sheets are listed in the order they were added.
type MemoryWorkbook struct {
	sync.Mutex
	Name   string
	Owned  string
	Link   string
	Grids  map[int64]*MemoryGrid
	titles map[int64]string
	order  []int64
}

var _ Document = (*MemoryWorkbook)(nil)

func NewMemoryWorkbook() *MemoryWorkbook {
	return &MemoryWorkbook{
		Name:   "Untitled spreadsheet",
		Owned:  "owner@example.com",
		Link:   "https://docs.google.com/spreadsheets/d/memory/edit",
		Grids:  map[int64]*MemoryGrid{},
		titles: map[int64]string{},
	}
}

func (w *MemoryWorkbook) Add(sheetID int64, rows, columns int) *MemoryGrid {
	w.Lock()
	defer w.Unlock()

	grid := &MemoryGrid{
		Format: map[string]string{},
	}

	grid.resize(rows, columns)

	if _, ok := w.Grids[sheetID]; !ok {
		w.order = append(w.order, sheetID)
	}

	w.Grids[sheetID] = grid
	w.titles[sheetID] = fmt.Sprintf("Sheet%v", len(w.order))

	return grid
}

func (w *MemoryWorkbook) Sheet(ctx context.Context, sheetID int64) (Grid, error) {
	w.Lock()
	defer w.Unlock()

	if grid, ok := w.Grids[sheetID]; ok {
		return grid, nil
	}

	return nil, fmt.Errorf("no sheet with ID %v", sheetID)
}

func (w *MemoryWorkbook) Sheets(ctx context.Context) ([]Sheet, error) {
	w.Lock()
	defer w.Unlock()

	list := []Sheet{}
	for _, id := range w.order {
		list = append(list, Sheet{ID: id, Title: w.titles[id]})
	}

	return list, nil
}

func (w *MemoryWorkbook) Title(ctx context.Context) (string, error) {
	return w.Name, nil
}

func (w *MemoryWorkbook) Owner(ctx context.Context) (string, error) {
	return w.Owned, nil
}

func (w *MemoryWorkbook) URL(ctx context.Context) (string, error) {
	return w.Link, nil
}

func (g *MemoryGrid) Clear(ctx context.Context) error {
	for _, row := range g.Cells {
		for i := range row {
			row[i] = ""
		}
	}

	return nil
}

func (g *MemoryGrid) Write(ctx context.Context, rows [][]string) error {
	height := g.Rows
	width := g.Columns

	for _, row := range rows {
		width = max(width, len(row))
	}

	g.resize(max(height, len(rows)), width)

	for i, row := range rows {
		copy(g.Cells[i], row)
	}

	return nil
}

func (g *MemoryGrid) Resize(ctx context.Context, rows, columns int) error {
	if rows < 1 || columns < 1 {
		return fmt.Errorf("invalid grid size %vx%v", rows, columns)
	}

	g.resize(rows, columns)

	return nil
}

func (g *MemoryGrid) resize(rows, columns int) {
	cells := make([][]string, rows)
	for i := range cells {
		cells[i] = make([]string, columns)
		if i < len(g.Cells) {
			copy(cells[i], g.Cells[i])
		}
	}

	g.Rows = rows
	g.Columns = columns
	g.Cells = cells
}
