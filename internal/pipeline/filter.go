package pipeline

import (
	"mechdash/internal"
	"mechdash/internal/util"
)

// FilterSpec selects records. A nil field is a wildcard.
type FilterSpec struct {
	Indicator  *string
	CoarseAge  *string
	Sex        *string
	FiscalYear *int
	Partner    *string
	Mechanism  *string
}

func (f FilterSpec) IsEmpty() bool {
	return f.Indicator == nil && f.CoarseAge == nil && f.Sex == nil &&
		f.FiscalYear == nil && f.Partner == nil && f.Mechanism == nil
}

func Matches(rec internal.NormalizedRecord, f FilterSpec) bool {
	if !matchText(rec.Indicator, f.Indicator) ||
		!matchText(rec.CoarseAge, f.CoarseAge) ||
		!matchText(rec.Sex, f.Sex) ||
		!matchText(rec.Partner, f.Partner) ||
		!matchText(rec.Mechanism, f.Mechanism) {
		return false
	}
	if f.FiscalYear != nil {
		if rec.FiscalYear == nil || *rec.FiscalYear != *f.FiscalYear {
			return false
		}
	}
	return true
}

func matchText(value, want *string) bool {
	if want == nil {
		return true
	}
	if value == nil {
		return false
	}
	return util.SameText(*value, *want)
}

// FilterRecords keeps matching records in source order.
func FilterRecords(records []internal.NormalizedRecord, f FilterSpec) []internal.NormalizedRecord {
	out := make([]internal.NormalizedRecord, 0, len(records))
	for _, rec := range records {
		if Matches(rec, f) {
			out = append(out, rec)
		}
	}
	return out
}
