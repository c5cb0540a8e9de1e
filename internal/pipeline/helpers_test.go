package pipeline

import (
	"mechdash/internal"
)

// row builds a raw record from alternating column/value pairs.
func row(pairs ...any) internal.RawRecord {
	rec := internal.NewRawRecord()
	for i := 0; i+1 < len(pairs); i += 2 {
		rec.Set(pairs[i].(string), pairs[i+1])
	}
	return rec
}

func sp(v string) *string { return &v }

func fp(v float64) *float64 { return &v }

func ip(v int) *int { return &v }
