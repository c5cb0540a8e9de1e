package pipeline

import "mechdash/internal"

// AliasTable maps each canonical field to the raw column names that may carry it,
// in priority order. Every spelling that occurs in real extracts must be listed:
// lookup is exact, column names are never normalized.
type AliasTable map[internal.CanonicalField][]string

var defaultAliases = AliasTable{
	internal.FieldIndicator:  {"Indicator", "indicator"},
	internal.FieldCoarseAge:  {"Coarse Age", "Coarse_Age", "CoarseAge"},
	internal.FieldSex:        {"Sex", "sex"},
	internal.FieldFiscalYear: {"Fiscal Year", "Fiscal_Year", "FY"},
	internal.FieldTarget:     {"Targets", "Target"},
	internal.FieldPartner:    {"Partner Name", "Partner", "Partner_Name"},
	internal.FieldMechanism:  {"Mechanism Name", "Mechanism", "Mechanism_Name"},
	internal.FieldQuarter1:   {"Quarter 1", "Quarter_1", "Q1"},
	internal.FieldQuarter2:   {"Quarter 2", "Quarter_2", "Q2"},
	internal.FieldQuarter3:   {"Quarter 3", "Quarter_3", "Q3"},
	internal.FieldQuarter4:   {"Quarter 4", "Quarter_4", "Q4"},
}

// DefaultAliases returns a private copy of the built-in alias table.
func DefaultAliases() AliasTable {
	return defaultAliases.Clone()
}

func (t AliasTable) Clone() AliasTable {
	out := make(AliasTable, len(t))
	for field, aliases := range t {
		out[field] = append([]string(nil), aliases...)
	}
	return out
}

// Lookup returns the value of the first alias of field present in raw.
// A present column holding nil still wins over later aliases.
func (t AliasTable) Lookup(raw internal.RawRecord, field internal.CanonicalField) (any, bool) {
	for _, alias := range t[field] {
		if v, ok := raw.Get(alias); ok {
			return v, true
		}
	}
	return nil, false
}
