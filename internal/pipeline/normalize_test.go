package pipeline

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mechdash/internal"
)

func TestNormalizeResolvesAliases(t *testing.T) {
	n := NewNormalizer(DefaultAliases())

	rec := n.Normalize(row(
		"indicator", "TX_CURR",
		"Coarse_Age", "15+",
		"Sex", "Female",
		"Fiscal_Year", "2021.0",
		"Target", json.Number("120"),
		"Partner_Name", "Partner A",
		"Mechanism", "Mech 1",
		"Q1", 10.0,
		"Quarter_2", "",
		"Quarter 3", "nan",
		"Quarter_4", 0.0,
	))

	require.NotNil(t, rec.Indicator)
	assert.Equal(t, "TX_CURR", *rec.Indicator)
	assert.Equal(t, "15+", *rec.CoarseAge)
	assert.Equal(t, "Female", *rec.Sex)
	require.NotNil(t, rec.FiscalYear)
	assert.Equal(t, 2021, *rec.FiscalYear)
	assert.Equal(t, 120.0, *rec.Target)
	assert.Equal(t, "Partner A", *rec.Partner)
	assert.Equal(t, "Mech 1", *rec.Mechanism)
	assert.Equal(t, 10.0, *rec.Quarter1)
	assert.Nil(t, rec.Quarter2)
	assert.Nil(t, rec.Quarter3)
	require.NotNil(t, rec.Quarter4, "explicit zero must not collapse to nil")
	assert.Equal(t, 0.0, *rec.Quarter4)
}

func TestNormalizeFirstAliasWinsEvenWhenNil(t *testing.T) {
	n := NewNormalizer(DefaultAliases())

	rec := n.Normalize(row("Partner Name", nil, "Partner", "Shadow"))
	assert.Nil(t, rec.Partner)

	rec = n.Normalize(row("Partner", "Second", "Partner_Name", "Third"))
	require.NotNil(t, rec.Partner)
	assert.Equal(t, "Second", *rec.Partner)
}

func TestNormalizeMissingAndMalformed(t *testing.T) {
	n := NewNormalizer(DefaultAliases())

	rec := n.Normalize(row("Unrelated", "x", "Fiscal Year", "FY2021", "Targets", "lots"))
	assert.Nil(t, rec.Indicator)
	assert.Nil(t, rec.FiscalYear)
	assert.Nil(t, rec.Target)
	assert.Nil(t, rec.Quarter1)
}

func TestNormalizeKeepsStringsUntrimmed(t *testing.T) {
	n := NewNormalizer(DefaultAliases())
	rec := n.Normalize(row("Sex", " female "))
	require.NotNil(t, rec.Sex)
	assert.Equal(t, " female ", *rec.Sex)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	n := NewNormalizer(DefaultAliases())
	raw := row("Indicator", "HTS_TST", "Fiscal Year", 2022.0, "Quarter 1", "3", "Quarter 2", nil)

	first := n.Normalize(raw)
	second := n.Normalize(raw)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("normalize not idempotent (-first +second):\n%s", diff)
	}
}

func TestNormalizeAllPreservesOrder(t *testing.T) {
	n := NewNormalizer(DefaultAliases())
	out := n.NormalizeAll([]internal.RawRecord{
		row("Indicator", "A"), row("Indicator", "B"), row("Indicator", "C"),
	})
	require.Len(t, out, 3)
	assert.Equal(t, "A", *out[0].Indicator)
	assert.Equal(t, "C", *out[2].Indicator)
}
