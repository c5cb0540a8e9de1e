package pipeline

import "mechdash/internal"

// Engine answers dashboard queries. It holds no mutable state and is safe for
// concurrent use as long as the record slices it is given are not modified.
type Engine struct {
	rules      Rules
	normalizer *Normalizer
}

func NewEngine(rules Rules) *Engine {
	return &Engine{rules: rules, normalizer: NewNormalizer(rules.Aliases)}
}

func (e *Engine) Normalizer() *Normalizer { return e.normalizer }

// Query filters, computes and folds records. Filter options are drawn from all
// records; everything else reflects the filtered view only.
func (e *Engine) Query(records []internal.NormalizedRecord, filter FilterSpec) internal.QueryResult {
	filtered := FilterRecords(records, filter)

	computed := make([]internal.ComputedRecord, 0, len(filtered))
	for _, rec := range filtered {
		computed = append(computed, Compute(rec, e.rules))
	}

	return internal.QueryResult{
		Summary:          Summarize(computed),
		Filters:          BuildFilterOptions(records),
		AggregatesByYear: AggregateByYear(computed),
		QuarterlyTrend:   TrendByQuarter(computed),
		Records:          computed,
	}
}

func (e *Engine) QueryRaw(raws []internal.RawRecord, filter FilterSpec) internal.QueryResult {
	return e.Query(e.normalizer.NormalizeAll(raws), filter)
}
