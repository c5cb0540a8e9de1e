package listener

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"mechdash/internal/config"
	"mechdash/internal/dataset"
	"mechdash/internal/pipeline"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeDataset(t *testing.T, path string, indicators ...string) {
	t.Helper()
	blob := "["
	for i, ind := range indicators {
		if i > 0 {
			blob += ","
		}
		blob += `{"Indicator":"` + ind + `"}`
	}
	blob += "]"
	require.NoError(t, os.WriteFile(path, []byte(blob), 0o644))
}

func startService(t *testing.T, cfg config.Config) (*dataset.Holder, func()) {
	t.Helper()
	holder := dataset.NewHolder(dataset.NewJSONFile(cfg.JSONPath), pipeline.NewNormalizer(pipeline.DefaultAliases()), nil)
	svc := NewService(holder, cfg, nil)
	svc.debounce = 10 * time.Millisecond
	if cfg.ReloadIntervalSec == 0 {
		svc.interval = 0
	} else {
		svc.interval = 20 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	return holder, func() {
		cancel()
		require.NoError(t, <-done)
	}
}

func recordCount(h *dataset.Holder) int {
	snap, err := h.Current()
	if err != nil {
		return -1
	}
	return len(snap.Records)
}

func TestServiceReloadsOnFileChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mech.json")
	writeDataset(t, path, "TX_CURR")

	holder, stop := startService(t, config.Config{DatasetKind: "json", JSONPath: path, ReloadWatch: true})
	defer stop()

	require.Eventually(t, func() bool { return recordCount(holder) == 1 }, 2*time.Second, 5*time.Millisecond)

	writeDataset(t, path, "TX_CURR", "TX_NEW", "HTS_TST")
	require.Eventually(t, func() bool { return recordCount(holder) == 3 }, 2*time.Second, 5*time.Millisecond)
}

func TestServiceStartsWithoutDataset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mech.json")

	holder, stop := startService(t, config.Config{DatasetKind: "json", JSONPath: path, ReloadWatch: true})
	defer stop()

	time.Sleep(20 * time.Millisecond)
	require.Equal(t, -1, recordCount(holder))

	writeDataset(t, path, "TX_CURR", "TX_NEW")
	require.Eventually(t, func() bool { return recordCount(holder) == 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestServicePollsWithoutWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mech.json")
	writeDataset(t, path, "TX_CURR")

	holder, stop := startService(t, config.Config{DatasetKind: "json", JSONPath: path, ReloadWatch: false, ReloadIntervalSec: 1})
	defer stop()

	require.Eventually(t, func() bool { return recordCount(holder) == 1 }, 2*time.Second, 5*time.Millisecond)

	writeDataset(t, path, "TX_CURR", "TX_NEW")
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))
	require.Eventually(t, func() bool { return recordCount(holder) == 2 }, 2*time.Second, 5*time.Millisecond)
}
