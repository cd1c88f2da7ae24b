package pagecount

import (
	"bytes"
	"math"

	"github.com/xuri/excelize/v2"
)

// estimateXLSX sums a page estimate per worksheet. Each sheet's used range,
// the minimal rectangle holding every non-empty cell, is sized with fixed
// per-column and per-row dimensions and tiled across the printable area in
// both directions, the way spreadsheet printing splits wide content onto a
// grid of pages. An empty sheet still prints one page.
func (e *Estimator) estimateXLSX(data []byte) Result {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return unknown(FormatXLSX)
	}
	defer wb.Close()

	layout := e.layout
	printableW := layout.printableWidth()
	printableH := layout.printableHeight()

	total := 0
	for _, sheet := range wb.GetSheetList() {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			// An unreadable sheet still occupies a page.
			total++
			continue
		}
		minRow, maxRow, minCol, maxCol := usedRange(rows)
		if minRow == 0 {
			total++
			continue
		}
		usedCols := float64(maxCol - minCol + 1)
		usedRows := float64(maxRow - minRow + 1)
		widthPages := math.Ceil(usedCols * layout.SheetColWidth / printableW)
		heightPages := math.Ceil(usedRows * layout.SheetRowHeight / printableH)
		pages := int(widthPages) * int(heightPages)
		if pages < 1 {
			pages = 1
		}
		total += pages
	}
	return known(FormatXLSX, total)
}

// usedRange finds the 1-based bounding rectangle of non-empty cells. A zero
// minRow means the sheet holds no content at all.
func usedRange(rows [][]string) (minRow, maxRow, minCol, maxCol int) {
	for r, row := range rows {
		for c, val := range row {
			if val == "" {
				continue
			}
			rowIdx, colIdx := r+1, c+1
			if minRow == 0 || rowIdx < minRow {
				minRow = rowIdx
			}
			if rowIdx > maxRow {
				maxRow = rowIdx
			}
			if minCol == 0 || colIdx < minCol {
				minCol = colIdx
			}
			if colIdx > maxCol {
				maxCol = colIdx
			}
		}
	}
	return minRow, maxRow, minCol, maxCol
}
