package pipeline

import (
	"mechdash/internal"
	"mechdash/internal/util"
)

// Normalizer is the only place untyped source cells become typed values.
type Normalizer struct {
	aliases AliasTable
}

func NewNormalizer(aliases AliasTable) *Normalizer {
	return &Normalizer{aliases: aliases}
}

func (n *Normalizer) Normalize(raw internal.RawRecord) internal.NormalizedRecord {
	text := func(field internal.CanonicalField) *string {
		v, _ := n.aliases.Lookup(raw, field)
		return util.ToText(v)
	}
	number := func(field internal.CanonicalField) *float64 {
		v, _ := n.aliases.Lookup(raw, field)
		return util.ToNumber(v)
	}
	fy, _ := n.aliases.Lookup(raw, internal.FieldFiscalYear)

	return internal.NormalizedRecord{
		Indicator:  text(internal.FieldIndicator),
		CoarseAge:  text(internal.FieldCoarseAge),
		Sex:        text(internal.FieldSex),
		FiscalYear: util.ToInt(fy),
		Target:     number(internal.FieldTarget),
		Partner:    text(internal.FieldPartner),
		Mechanism:  text(internal.FieldMechanism),
		Quarter1:   number(internal.FieldQuarter1),
		Quarter2:   number(internal.FieldQuarter2),
		Quarter3:   number(internal.FieldQuarter3),
		Quarter4:   number(internal.FieldQuarter4),
		Raw:        raw,
	}
}

func (n *Normalizer) NormalizeAll(raws []internal.RawRecord) []internal.NormalizedRecord {
	out := make([]internal.NormalizedRecord, 0, len(raws))
	for _, raw := range raws {
		out = append(out, n.Normalize(raw))
	}
	return out
}
