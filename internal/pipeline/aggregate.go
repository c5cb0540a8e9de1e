package pipeline

import (
	"sort"

	"mechdash/internal"
	"mechdash/internal/util"
)

// AggregateByYear sums targets and cumulative totals per fiscal year.
// Records without a fiscal year are skipped. Percent is taken over the sums.
func AggregateByYear(records []internal.ComputedRecord) []internal.YearAggregate {
	type bucket struct {
		targets, total float64
	}
	byYear := map[int]*bucket{}
	for _, rec := range records {
		if rec.FiscalYear == nil {
			continue
		}
		b, ok := byYear[*rec.FiscalYear]
		if !ok {
			b = &bucket{}
			byYear[*rec.FiscalYear] = b
		}
		b.targets += util.DerefFloat(rec.Target)
		b.total += rec.CumulativeTotal
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	out := make([]internal.YearAggregate, 0, len(years))
	for _, y := range years {
		b := byYear[y]
		out = append(out, internal.YearAggregate{
			FiscalYear:      y,
			Targets:         b.targets,
			CumulativeTotal: b.total,
			Percent:         PercentOfTarget(b.total, &b.targets),
		})
	}
	return out
}

func TrendByQuarter(records []internal.ComputedRecord) internal.QuarterlyTrend {
	var trend internal.QuarterlyTrend
	for _, rec := range records {
		trend.Q1 += util.DerefFloat(rec.Quarter1)
		trend.Q2 += util.DerefFloat(rec.Quarter2)
		trend.Q3 += util.DerefFloat(rec.Quarter3)
		trend.Q4 += util.DerefFloat(rec.Quarter4)
	}
	return trend
}

// BuildFilterOptions lists the distinct values of every filterable field.
// Callers pass the whole dataset so the options do not shrink with the view.
func BuildFilterOptions(records []internal.NormalizedRecord) internal.FilterOptions {
	indicators := newDistinct()
	ages := newDistinct()
	sexes := newDistinct()
	partners := newDistinct()
	years := map[int]struct{}{}

	for _, rec := range records {
		indicators.add(rec.Indicator)
		ages.add(rec.CoarseAge)
		sexes.add(rec.Sex)
		partners.add(rec.Partner)
		if rec.FiscalYear != nil {
			years[*rec.FiscalYear] = struct{}{}
		}
	}

	fiscalYears := make([]int, 0, len(years))
	for y := range years {
		fiscalYears = append(fiscalYears, y)
	}
	sort.Ints(fiscalYears)

	return internal.FilterOptions{
		Indicators:  indicators.sorted(),
		CoarseAges:  ages.sorted(),
		Sexes:       sexes.sorted(),
		FiscalYears: fiscalYears,
		Partners:    partners.sorted(),
	}
}

func Summarize(records []internal.ComputedRecord) internal.Summary {
	partners := newDistinct()
	mechanisms := newDistinct()
	for _, rec := range records {
		partners.add(rec.Partner)
		mechanisms.add(rec.Mechanism)
	}
	return internal.Summary{
		UniquePartners:   partners.len(),
		UniqueMechanisms: mechanisms.len(),
	}
}

// distinct collects non-empty strings, case-sensitively.
type distinct map[string]struct{}

func newDistinct() distinct { return distinct{} }

func (d distinct) add(v *string) {
	if v == nil || *v == "" {
		return
	}
	d[*v] = struct{}{}
}

func (d distinct) len() int { return len(d) }

func (d distinct) sorted() []string {
	out := make([]string, 0, len(d))
	for v := range d {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
