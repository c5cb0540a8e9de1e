package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// RawRecord is one source row: column names in source order plus their values.
// Values are string, float64, json.Number, int, bool or nil.
type RawRecord struct {
	Columns []string
	Values  map[string]any
}

func NewRawRecord() RawRecord {
	return RawRecord{Values: map[string]any{}}
}

// Set stores value under column, appending the column the first time it is seen.
func (r *RawRecord) Set(column string, value any) {
	if r.Values == nil {
		r.Values = map[string]any{}
	}
	if _, exists := r.Values[column]; !exists {
		r.Columns = append(r.Columns, column)
	}
	r.Values[column] = value
}

func (r RawRecord) Get(column string) (any, bool) {
	v, ok := r.Values[column]
	return v, ok
}

func (r RawRecord) Len() int {
	return len(r.Columns)
}

// With returns a copy of r with column set to value. r is left untouched.
func (r RawRecord) With(column string, value any) RawRecord {
	out := RawRecord{
		Columns: make([]string, len(r.Columns), len(r.Columns)+1),
		Values:  make(map[string]any, len(r.Values)+1),
	}
	copy(out.Columns, r.Columns)
	for k, v := range r.Values {
		out.Values[k] = v
	}
	out.Set(column, value)
	return out
}

func (r RawRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		value := r.Values[col]
		if f, ok := value.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			value = nil
		}
		blob, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col, err)
		}
		buf.Write(blob)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *RawRecord) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("raw record: expected object, got %v", tok)
	}

	out := NewRawRecord()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("raw record: unexpected key %v", keyTok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("raw record column %q: %w", key, err)
		}
		out.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*r = out
	return nil
}

// CanonicalField names a logical column the engine understands.
type CanonicalField int

const (
	FieldIndicator CanonicalField = iota
	FieldCoarseAge
	FieldSex
	FieldFiscalYear
	FieldTarget
	FieldPartner
	FieldMechanism
	FieldQuarter1
	FieldQuarter2
	FieldQuarter3
	FieldQuarter4
)

var canonicalFieldNames = [...]string{
	FieldIndicator:  "indicator",
	FieldCoarseAge:  "coarseAge",
	FieldSex:        "sex",
	FieldFiscalYear: "fiscalYear",
	FieldTarget:     "target",
	FieldPartner:    "partner",
	FieldMechanism:  "mechanism",
	FieldQuarter1:   "quarter1",
	FieldQuarter2:   "quarter2",
	FieldQuarter3:   "quarter3",
	FieldQuarter4:   "quarter4",
}

// CanonicalFields lists every field in declaration order.
var CanonicalFields = []CanonicalField{
	FieldIndicator, FieldCoarseAge, FieldSex, FieldFiscalYear, FieldTarget,
	FieldPartner, FieldMechanism, FieldQuarter1, FieldQuarter2, FieldQuarter3, FieldQuarter4,
}

func (f CanonicalField) String() string {
	if f < 0 || int(f) >= len(canonicalFieldNames) {
		return fmt.Sprintf("field(%d)", int(f))
	}
	return canonicalFieldNames[f]
}

// ParseCanonicalField maps a field name (as returned by String) back to its value.
func ParseCanonicalField(name string) (CanonicalField, bool) {
	for i, n := range canonicalFieldNames {
		if n == name {
			return CanonicalField(i), true
		}
	}
	return 0, false
}

type NormalizedRecord struct {
	Indicator  *string  `json:"indicator"`
	CoarseAge  *string  `json:"coarseAge"`
	Sex        *string  `json:"sex"`
	FiscalYear *int     `json:"fiscalYear"`
	Target     *float64 `json:"target"`
	Partner    *string  `json:"partner"`
	Mechanism  *string  `json:"mechanism"`
	Quarter1   *float64 `json:"quarter1"`
	Quarter2   *float64 `json:"quarter2"`
	Quarter3   *float64 `json:"quarter3"`
	Quarter4   *float64 `json:"quarter4"`

	Raw RawRecord `json:"-"`
}

type ComputedRecord struct {
	NormalizedRecord
	CumulativeTotal float64
	PercentOfTarget *float64
}

type computedFields struct {
	CumTotal float64  `json:"cum_total"`
	Percent  *float64 `json:"percent"`
}

// MarshalJSON renders the source columns followed by a "_computed" object.
func (c ComputedRecord) MarshalJSON() ([]byte, error) {
	return c.Raw.With("_computed", computedFields{
		CumTotal: c.CumulativeTotal,
		Percent:  c.PercentOfTarget,
	}).MarshalJSON()
}

type YearAggregate struct {
	FiscalYear      int      `json:"fiscalYear"`
	Targets         float64  `json:"targets"`
	CumulativeTotal float64  `json:"cum_total"`
	Percent         *float64 `json:"percent"`
}

type QuarterlyTrend struct {
	Q1 float64 `json:"Q1"`
	Q2 float64 `json:"Q2"`
	Q3 float64 `json:"Q3"`
	Q4 float64 `json:"Q4"`
}

type FilterOptions struct {
	Indicators  []string `json:"indicators"`
	CoarseAges  []string `json:"coarseAges"`
	Sexes       []string `json:"sexes"`
	FiscalYears []int    `json:"fiscalYears"`
	Partners    []string `json:"partners"`
}

type Summary struct {
	UniquePartners   int `json:"unique_partners"`
	UniqueMechanisms int `json:"unique_mechanisms"`
}

type QueryResult struct {
	Summary          Summary          `json:"summary"`
	Filters          FilterOptions    `json:"filters"`
	AggregatesByYear []YearAggregate  `json:"aggregates_by_year"`
	QuarterlyTrend   QuarterlyTrend   `json:"quarterly_trend"`
	Records          []ComputedRecord `json:"records"`
}

type ImportRow struct {
	ID        int
	RunID     string
	Source    string
	RowCount  int
	TookMs    int64
	CreatedAt string
}
