package dataset

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mechdash/internal/config"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func testRemote(fn roundTripFunc) *Remote {
	src := NewRemote(config.Config{
		DatasetURL:          "https://example.test/api/mech.json",
		DatasetToken:        "secret",
		DatasetRateLimitRPS: 1000,
		DatasetTimeoutMs:    1000,
	})
	src.httpClient = &http.Client{Transport: fn}
	return src
}

func TestRemoteRetriesThenDecodes(t *testing.T) {
	attempt := 0
	src := testRemote(func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		attempt++
		if attempt == 1 {
			return response(http.StatusServiceUnavailable, `{"error":"warming up"}`), nil
		}
		return response(http.StatusOK, `[{"Indicator":"TX_CURR"},{"Indicator":"TX_NEW"}]`), nil
	})

	rows, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, 2, attempt)
}

func TestRemoteClientErrorIsUnavailable(t *testing.T) {
	attempt := 0
	src := testRemote(func(r *http.Request) (*http.Response, error) {
		attempt++
		return response(http.StatusNotFound, `not here`), nil
	})

	_, err := src.Load(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 1, attempt, "4xx is not retried")
}

func TestRemoteHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := testRemote(func(r *http.Request) (*http.Response, error) {
		return nil, r.Context().Err()
	})

	_, err := src.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpenKind(t *testing.T) {
	cfg := config.Config{JSONPath: "a.json", XLSXPath: "a.xlsx"}

	src, err := OpenKind(cfg, KindJSON, nil)
	require.NoError(t, err)
	assert.Equal(t, "json:a.json", src.Name())

	src, err = OpenKind(cfg, KindXLSX, nil)
	require.NoError(t, err)
	assert.Equal(t, "xlsx:a.xlsx", src.Name())

	_, err = OpenKind(cfg, KindSQLite, nil)
	assert.Error(t, err)

	_, err = OpenKind(cfg, KindRemote, nil)
	assert.EqualError(t, err, "missing required env var: DATASET_URL")

	_, err = OpenKind(cfg, "parquet", nil)
	assert.EqualError(t, err, "unsupported dataset kind: parquet")
}
