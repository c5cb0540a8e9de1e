package dataset

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"mechdash/internal"
	"mechdash/internal/pipeline"
)

// Snapshot is one immutable, normalized copy of the dataset.
type Snapshot struct {
	Source   string
	Raw      []internal.RawRecord
	Records  []internal.NormalizedRecord
	LoadedAt time.Time
}

// Holder owns the current snapshot. Readers never block; reloads build a new
// snapshot off to the side and swap the pointer.
type Holder struct {
	source     Source
	normalizer *pipeline.Normalizer
	logger     *zap.Logger

	reloadMu sync.Mutex
	current  atomic.Pointer[Snapshot]
}

func NewHolder(source Source, normalizer *pipeline.Normalizer, logger *zap.Logger) *Holder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Holder{source: source, normalizer: normalizer, logger: logger}
}

// Current returns the live snapshot, or ErrUnavailable if none ever loaded.
func (h *Holder) Current() (*Snapshot, error) {
	snap := h.current.Load()
	if snap == nil {
		return nil, unavailable("%s has not been loaded", h.source.Name())
	}
	return snap, nil
}

// Reload loads the source again. On failure the previous snapshot stays live.
func (h *Holder) Reload(ctx context.Context) (*Snapshot, error) {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()

	start := time.Now()
	raws, err := h.source.Load(ctx)
	if err != nil {
		h.logger.Warn("dataset reload failed",
			zap.String("source", h.source.Name()),
			zap.Bool("keptPrevious", h.current.Load() != nil),
			zap.Error(err))
		return nil, err
	}

	snap := &Snapshot{
		Source:   h.source.Name(),
		Raw:      raws,
		Records:  h.normalizer.NormalizeAll(raws),
		LoadedAt: time.Now(),
	}
	h.current.Store(snap)

	h.logger.Info("dataset loaded",
		zap.String("source", snap.Source),
		zap.Int("records", len(snap.Records)),
		zap.Duration("took", time.Since(start)))
	return snap, nil
}

func (h *Holder) SourceName() string { return h.source.Name() }
