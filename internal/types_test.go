package internal

import (
	"encoding/json"
	"math"
	"testing"
)

func TestRawRecordJSONKeepsColumnOrder(t *testing.T) {
	in := `{"Quarter_1":10,"Indicator":"TX_CURR","Partner Name":null,"Targets":12.5}`

	var rec RawRecord
	if err := json.Unmarshal([]byte(in), &rec); err != nil {
		t.Fatal(err)
	}
	want := []string{"Quarter_1", "Indicator", "Partner Name", "Targets"}
	for i, col := range want {
		if rec.Columns[i] != col {
			t.Fatalf("column %d=%q want %q", i, rec.Columns[i], col)
		}
	}
	if v, _ := rec.Get("Quarter_1"); v != json.Number("10") {
		t.Fatalf("quarter=%#v", v)
	}

	out, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != in {
		t.Fatalf("got %s want %s", out, in)
	}
}

func TestRawRecordRejectsNonObject(t *testing.T) {
	var rec RawRecord
	if err := json.Unmarshal([]byte(`[1,2]`), &rec); err == nil {
		t.Fatal("expected error")
	}
}

func TestRawRecordNaNBecomesNull(t *testing.T) {
	rec := NewRawRecord()
	rec.Set("Targets", math.NaN())
	rec.Set("Quarter_1", math.Inf(1))
	out, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"Targets":null,"Quarter_1":null}` {
		t.Fatalf("got %s", out)
	}
}

func TestRawRecordWithCopies(t *testing.T) {
	rec := NewRawRecord()
	rec.Set("Indicator", "TX_NEW")

	next := rec.With("_computed", 1)
	if rec.Len() != 1 || next.Len() != 2 {
		t.Fatalf("len rec=%d next=%d", rec.Len(), next.Len())
	}
	if _, ok := rec.Get("_computed"); ok {
		t.Fatal("receiver was modified")
	}

	rec.Set("Indicator", "TX_CURR")
	if v, _ := next.Get("Indicator"); v != "TX_NEW" {
		t.Fatalf("copy shares values: %v", v)
	}
}

func TestComputedRecordJSON(t *testing.T) {
	raw := NewRawRecord()
	raw.Set("Indicator", "TX_NEW")
	pct := 50.0
	rec := ComputedRecord{NormalizedRecord: NormalizedRecord{Raw: raw}, CumulativeTotal: 5, PercentOfTarget: &pct}

	out, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"Indicator":"TX_NEW","_computed":{"cum_total":5,"percent":50}}` {
		t.Fatalf("got %s", out)
	}
}

func TestParseCanonicalField(t *testing.T) {
	for _, f := range CanonicalFields {
		got, ok := ParseCanonicalField(f.String())
		if !ok || got != f {
			t.Fatalf("round trip %v: got %v %v", f, got, ok)
		}
	}
	if _, ok := ParseCanonicalField("quarter5"); ok {
		t.Fatal("unexpected field")
	}
}
