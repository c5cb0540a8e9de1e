package pipeline

import "mechdash/internal"

// CumulativeTotal rolls the four quarters into one value. Non-additive
// indicators take the latest non-nil quarter (0 when none is reported);
// everything else sums the quarters with nil counted as 0.
func CumulativeTotal(rec internal.NormalizedRecord, nonAdditive IndicatorSet) float64 {
	if nonAdditive.Contains(rec.Indicator) {
		for _, q := range []*float64{rec.Quarter4, rec.Quarter3, rec.Quarter2, rec.Quarter1} {
			if q != nil {
				return *q
			}
		}
		return 0
	}

	total := 0.0
	for _, q := range []*float64{rec.Quarter1, rec.Quarter2, rec.Quarter3, rec.Quarter4} {
		if q != nil {
			total += *q
		}
	}
	return total
}

// PercentOfTarget is nil for a missing or zero target.
func PercentOfTarget(total float64, target *float64) *float64 {
	if target == nil || *target == 0 {
		return nil
	}
	pct := total / *target * 100
	return &pct
}

func Compute(rec internal.NormalizedRecord, rules Rules) internal.ComputedRecord {
	total := CumulativeTotal(rec, rules.NonAdditive)
	return internal.ComputedRecord{
		NormalizedRecord: rec,
		CumulativeTotal:  total,
		PercentOfTarget:  PercentOfTarget(total, rec.Target),
	}
}
