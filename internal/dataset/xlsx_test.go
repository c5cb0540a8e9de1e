package dataset

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func mkXLSX(rows [][]any) []byte {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	buf := bytes.NewBuffer(nil)
	_, _ = f.WriteTo(buf)
	return buf.Bytes()
}

func TestReadWorkbook(t *testing.T) {
	blob := mkXLSX([][]any{
		{" Indicator ", "Sex", "Fiscal_Year", "Targets", "Quarter_1", "Quarter_2", "Mechanism_Code", "Site_ID"},
		{"TX_CURR", "Female", 2021, 120.5, 10, "nan", 81234.0, 77},
		{nil, nil, nil, nil, nil, nil, nil, nil},
		{"TX_NEW", "Male", "2022", nil, "oops", 0, "ABC-1", "S-9"},
	})

	rows, err := ReadWorkbook(bytes.NewReader(blob))
	require.NoError(t, err)
	require.Len(t, rows, 2, "blank rows are skipped")

	first := rows[0]
	assert.Equal(t, "Indicator", first.Columns[0], "headers are trimmed")

	v, _ := first.Get("Indicator")
	assert.Equal(t, "TX_CURR", v)
	v, _ = first.Get("Fiscal_Year")
	assert.Equal(t, 2021.0, v)
	v, _ = first.Get("Targets")
	assert.Equal(t, 120.5, v)
	v, ok := first.Get("Quarter_2")
	assert.True(t, ok)
	assert.Nil(t, v)
	v, _ = first.Get("Mechanism_Code")
	assert.Equal(t, "81234", v)
	v, _ = first.Get("Site_ID")
	assert.Equal(t, 77.0, v)

	second := rows[1]
	v, _ = second.Get("Fiscal_Year")
	assert.Equal(t, 2022.0, v)
	v, ok = second.Get("Targets")
	assert.True(t, ok)
	assert.Nil(t, v)
	v, _ = second.Get("Quarter_1")
	assert.Nil(t, v)
	v, _ = second.Get("Quarter_2")
	assert.Equal(t, 0.0, v)
	v, _ = second.Get("Mechanism_Code")
	assert.Equal(t, "ABC-1", v)
	v, _ = second.Get("Site_ID")
	assert.Equal(t, "S-9", v)
}

func TestXLSXFileLoad(t *testing.T) {
	dir := t.TempDir()
	src := NewXLSXFile(filepath.Join(dir, "Mechanisms_Data.xlsx"))

	_, err := src.Load(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)

	blob := mkXLSX([][]any{{"Indicator", "Quarter_1"}, {"TX_CURR", 3}})
	require.NoError(t, os.WriteFile(src.Path, blob, 0o644))

	rows, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
