package dataset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"mechdash/internal"
	"mechdash/internal/util"
)

// Columns the source workbook stores as numbers. Whole values are kept whole,
// anything unparseable becomes null.
var numericColumns = map[string]struct{}{
	"Targets":     {},
	"Quarter_1":   {},
	"Quarter_2":   {},
	"Quarter_3":   {},
	"Quarter_4":   {},
	"Fiscal_Year": {},
}

// Mechanism codes are identifiers that Excel tends to store as floats.
const mechanismCodeColumn = "Mechanism_Code"

// XLSXFile reads the first worksheet of a workbook directly.
type XLSXFile struct {
	Path string
}

func NewXLSXFile(path string) *XLSXFile {
	return &XLSXFile{Path: path}
}

func (s *XLSXFile) Name() string { return KindXLSX + ":" + s.Path }

func (s *XLSXFile) Load(ctx context.Context) ([]internal.RawRecord, error) {
	blob, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, unavailable("%s not found", filepath.Base(s.Path))
	}
	if err != nil {
		return nil, unavailable("read %s: %v", s.Path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := ReadWorkbook(bytes.NewReader(blob))
	if err != nil {
		return nil, unavailable("parse %s: %v", s.Path, err)
	}
	return rows, nil
}

// ReadWorkbook turns the first sheet into raw records keyed by the header row.
func ReadWorkbook(r io.Reader) ([]internal.RawRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	out := []internal.RawRecord{}
	if len(rows) == 0 {
		return out, nil
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = util.CleanHeader(h)
		if headers[i] == "" {
			headers[i] = fmt.Sprintf("Unnamed: %d", i)
		}
	}

	for i, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		rowNumber := i + 2
		rec := internal.NewRawRecord()
		for col, header := range headers {
			raw := ""
			if col < len(row) {
				raw = row[col]
			}
			rec.Set(header, convertCell(f, sheet, header, col, rowNumber, raw))
		}
		out = append(out, rec)
	}

	return out, nil
}

func convertCell(f *excelize.File, sheet, header string, col, rowNumber int, raw string) any {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	if _, ok := numericColumns[header]; ok {
		if n := util.ToNumber(raw); n != nil {
			return *n
		}
		return nil
	}
	if header == mechanismCodeColumn {
		if n := util.ToInt(raw); n != nil {
			return strconv.Itoa(*n)
		}
		return raw
	}

	cell, err := excelize.CoordinatesToCellName(col+1, rowNumber)
	if err != nil {
		return raw
	}
	cellType, err := f.GetCellType(sheet, cell)
	if err != nil {
		return raw
	}
	switch cellType {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		if n := util.ToNumber(raw); n != nil {
			return *n
		}
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true")
	}
	return raw
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
