package dataset

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mechdash/internal"
	"mechdash/internal/storage"
)

const metaLastImport = "dataset.last_import"

// ImportService materializes a source into SQLite so the server can run from
// the database instead of the source file.
type ImportService struct {
	db     importStore
	logger *zap.Logger
}

// importStore is the part of storage.DB the import service writes through.
type importStore interface {
	InsertImport(runID, source string, rows []internal.RawRecord, tookMs int64) (internal.ImportRow, error)
	PruneImports(keep int) (int, error)
	SetMetadata(key, value string) error
	GetMetadata(key string) (*string, error)
}

func NewImportService(db *storage.DB, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{db: db, logger: logger}
}

type ImportResult struct {
	Import internal.ImportRow
	Pruned int
}

// Import loads src and stores it as a new import. keep bounds how many imports
// are retained; 0 keeps everything.
func (s *ImportService) Import(ctx context.Context, src Source, keep int) (ImportResult, error) {
	start := time.Now()
	runID := uuid.NewString()

	rows, err := src.Load(ctx)
	if err != nil {
		return ImportResult{}, err
	}

	imp, err := s.db.InsertImport(runID, src.Name(), rows, time.Since(start).Milliseconds())
	if err != nil {
		return ImportResult{}, err
	}
	if err := s.db.SetMetadata(metaLastImport, time.Now().UTC().Format(time.RFC3339)); err != nil {
		s.logger.Warn("record last import time", zap.String("runId", runID), zap.Error(err))
	}

	pruned := 0
	if keep > 0 {
		pruned, err = s.db.PruneImports(keep)
		if err != nil {
			return ImportResult{}, err
		}
	}

	s.logger.Info("dataset imported",
		zap.String("runId", runID),
		zap.String("source", src.Name()),
		zap.Int("rows", imp.RowCount),
		zap.Int("pruned", pruned),
		zap.Int64("tookMs", imp.TookMs))
	return ImportResult{Import: imp, Pruned: pruned}, nil
}

// LastImportAt returns the RFC3339 time of the last successful import, if any.
func (s *ImportService) LastImportAt() (*string, error) {
	return s.db.GetMetadata(metaLastImport)
}
