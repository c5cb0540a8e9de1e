package pipeline

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"mechdash/internal"
	"mechdash/internal/util"
)

const (
	SheetRecords = "Records"
	SheetByYear  = "By Year"
	SheetTrend   = "Quarterly Trend"
)

var recordHeaders = []string{
	"indicator", "coarse_age", "sex", "fiscal_year", "partner", "mechanism",
	"targets", "quarter_1", "quarter_2", "quarter_3", "quarter_4",
	"cum_total", "percent",
}

// ExportResultToXLSX writes the query result as a three-sheet workbook.
func ExportResultToXLSX(result internal.QueryResult, outputPath string) error {
	f, err := buildWorkbook(result)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func WriteResultXLSX(result internal.QueryResult, w io.Writer) error {
	f, err := buildWorkbook(result)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteTo(w)
	return err
}

// ExportFilename names a workbook after the filters that produced it.
func ExportFilename(f FilterSpec) string {
	if f.IsEmpty() {
		return "mechanisms.xlsx"
	}
	parts := []string{"mechanisms"}
	for _, v := range []*string{f.Indicator, f.CoarseAge, f.Sex, f.Partner, f.Mechanism} {
		if v != nil {
			parts = append(parts, strings.TrimSpace(*v))
		}
	}
	if f.FiscalYear != nil {
		parts = append(parts, "FY"+strconv.Itoa(*f.FiscalYear))
	}
	return util.SanitizeFilename(strings.Join(parts, "_")) + ".xlsx"
}

func buildWorkbook(result internal.QueryResult) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetRecords); err != nil {
		return nil, err
	}
	for _, name := range []string{SheetByYear, SheetTrend} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	writeRow(f, SheetRecords, 1, stringsToAny(recordHeaders))
	for i, rec := range result.Records {
		writeRow(f, SheetRecords, i+2, []any{
			derefString(rec.Indicator),
			derefString(rec.CoarseAge),
			derefString(rec.Sex),
			derefInt(rec.FiscalYear),
			derefString(rec.Partner),
			derefString(rec.Mechanism),
			derefFloat(rec.Target),
			derefFloat(rec.Quarter1),
			derefFloat(rec.Quarter2),
			derefFloat(rec.Quarter3),
			derefFloat(rec.Quarter4),
			rec.CumulativeTotal,
			derefFloat(rec.PercentOfTarget),
		})
	}

	writeRow(f, SheetByYear, 1, []any{"fiscal_year", "targets", "cum_total", "percent"})
	for i, agg := range result.AggregatesByYear {
		writeRow(f, SheetByYear, i+2, []any{agg.FiscalYear, agg.Targets, agg.CumulativeTotal, derefFloat(agg.Percent)})
	}

	trend := result.QuarterlyTrend
	writeRow(f, SheetTrend, 1, []any{"Q1", "Q2", "Q3", "Q4"})
	writeRow(f, SheetTrend, 2, []any{trend.Q1, trend.Q2, trend.Q3, trend.Q4})

	return f, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func stringsToAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func derefFloat(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func derefInt(v *int) any {
	if v == nil {
		return ""
	}
	return *v
}
