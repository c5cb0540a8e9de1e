package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mechdash/internal"
)

func TestJSONFileMissingIsUnavailable(t *testing.T) {
	src := NewJSONFile(filepath.Join(t.TempDir(), "mech.json"))
	_, err := src.Load(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "mech.json not found")
}

func TestJSONFileMalformedIsUnavailable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mech.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"Indicator": `), 0o644))

	_, err := NewJSONFile(path).Load(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestDecodeRecords(t *testing.T) {
	rows, err := DecodeRecords([]byte(`[{"Indicator":"TX_CURR","Quarter_1":10,"Quarter_2":null}]`))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"Indicator", "Quarter_1", "Quarter_2"}, rows[0].Columns)

	rows, err = DecodeRecords([]byte(` {"records": [{"Sex": "Male"}, {"Sex": "Female"}]}`))
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = DecodeRecords([]byte(`{"rows": []}`))
	assert.Error(t, err)

	rows, err = DecodeRecords([]byte(`null`))
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestWriteJSONFileRoundTrip(t *testing.T) {
	rec := internal.NewRawRecord()
	rec.Set("Mechanism_Code", "81234")
	rec.Set("Fiscal_Year", 2021.0)
	rec.Set("Targets", nil)

	path := filepath.Join(t.TempDir(), "json", "mech.json")
	require.NoError(t, WriteJSONFile([]internal.RawRecord{rec}, path))

	rows, err := NewJSONFile(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, rec.Columns, rows[0].Columns)

	blob, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(blob), `"Fiscal_Year": 2021`)
}
