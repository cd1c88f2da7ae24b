package pagecount

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbookBytes(t *testing.T, build func(wb *excelize.File)) []byte {
	t.Helper()
	wb := excelize.NewFile()
	defer wb.Close()
	if build != nil {
		build(wb)
	}
	buf, err := wb.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestXLSXEmptyWorkbook(t *testing.T) {
	data := workbookBytes(t, nil)
	res := New().Estimate(data, "empty.xlsx")
	require.True(t, res.Known)
	assert.Equal(t, FormatXLSX, res.Format)
	assert.Equal(t, 1, res.Pages)
}

func TestXLSXEmptySheetsEachCount(t *testing.T) {
	data := workbookBytes(t, func(wb *excelize.File) {
		for _, name := range []string{"Second", "Third"} {
			_, err := wb.NewSheet(name)
			require.NoError(t, err)
		}
	})
	res := New().Estimate(data, "sheets.xlsx")
	require.True(t, res.Known)
	assert.Equal(t, 3, res.Pages)
}

func TestXLSXSingleCell(t *testing.T) {
	data := workbookBytes(t, func(wb *excelize.File) {
		require.NoError(t, wb.SetCellValue("Sheet1", "Z100", "lonely"))
	})
	res := New().Estimate(data, "single.xlsx")
	require.True(t, res.Known)
	// The used range is the single cell, wherever it sits on the grid.
	assert.Equal(t, 1, res.Pages)
}

// Eight used columns exceed the printable width, splitting the sheet into
// two page columns.
func TestXLSXWideRow(t *testing.T) {
	data := workbookBytes(t, func(wb *excelize.File) {
		for col := 0; col < 8; col++ {
			cell, err := excelize.CoordinatesToCellName(col+1, 1)
			require.NoError(t, err)
			require.NoError(t, wb.SetCellValue("Sheet1", cell, col))
		}
	})
	res := New().Estimate(data, "wide.xlsx")
	require.True(t, res.Known)
	assert.Equal(t, 2, res.Pages)
}

// The used range is measured from the first used cell, not from A1, so an
// offset block the same size as a corner block tiles identically.
func TestXLSXOffsetBlock(t *testing.T) {
	data := workbookBytes(t, func(wb *excelize.File) {
		for row := 5; row <= 6; row++ {
			for col := 4; col <= 11; col++ {
				cell, err := excelize.CoordinatesToCellName(col, row)
				require.NoError(t, err)
				require.NoError(t, wb.SetCellValue("Sheet1", cell, "v"))
			}
		}
	})
	res := New().Estimate(data, "offset.xlsx")
	require.True(t, res.Known)
	assert.Equal(t, 2, res.Pages)
}

func TestXLSXTallColumn(t *testing.T) {
	tall := func(rows int) []byte {
		return workbookBytes(t, func(wb *excelize.File) {
			for row := 1; row <= rows; row++ {
				require.NoError(t, wb.SetCellValue("Sheet1", fmt.Sprintf("A%d", row), row))
			}
		})
	}

	res := New().Estimate(tall(46), "tall.xlsx")
	require.True(t, res.Known)
	assert.Equal(t, 1, res.Pages)

	// The 47th row pushes past the printable height.
	res = New().Estimate(tall(47), "taller.xlsx")
	require.True(t, res.Known)
	assert.Equal(t, 2, res.Pages)
}

func TestXLSXSheetsSum(t *testing.T) {
	data := workbookBytes(t, func(wb *excelize.File) {
		_, err := wb.NewSheet("Wide")
		require.NoError(t, err)
		for col := 0; col < 8; col++ {
			cell, err := excelize.CoordinatesToCellName(col+1, 1)
			require.NoError(t, err)
			require.NoError(t, wb.SetCellValue("Wide", cell, col))
		}
	})
	res := New().Estimate(data, "sum.xlsx")
	require.True(t, res.Known)
	// Sheet1 empty (1) plus the wide sheet (2).
	assert.Equal(t, 3, res.Pages)
}

func TestXLSXCorrupt(t *testing.T) {
	res := New().Estimate([]byte("definitely not a workbook"), "broken.xlsx")
	assert.False(t, res.Known)
	assert.Equal(t, FormatXLSX, res.Format)
}

func TestUsedRange(t *testing.T) {
	rows := [][]string{
		{},
		{"", "", ""},
		{"", "a", "b"},
		{"", "", "", "c"},
	}
	minRow, maxRow, minCol, maxCol := usedRange(rows)
	assert.Equal(t, 3, minRow)
	assert.Equal(t, 4, maxRow)
	assert.Equal(t, 2, minCol)
	assert.Equal(t, 4, maxCol)

	minRow, _, _, _ = usedRange([][]string{{""}, {}})
	assert.Equal(t, 0, minRow)
}
