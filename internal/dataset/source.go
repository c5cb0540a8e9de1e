package dataset

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mechdash/internal"
	"mechdash/internal/config"
	"mechdash/internal/storage"
)

// ErrUnavailable means the dataset could not be produced at all. Callers must
// treat it as "no data" rather than as an empty dataset.
var ErrUnavailable = errors.New("dataset unavailable")

// Source produces the raw rows of the dataset, already extracted from their
// on-disk or remote format.
type Source interface {
	Load(ctx context.Context) ([]internal.RawRecord, error)
	Name() string
}

const (
	KindJSON   = "json"
	KindXLSX   = "xlsx"
	KindSQLite = "sqlite"
	KindRemote = "remote"
)

// Open builds the source selected by cfg.DatasetKind. db is only used for sqlite.
func Open(cfg config.Config, db *storage.DB) (Source, error) {
	return OpenKind(cfg, strings.ToLower(strings.TrimSpace(cfg.DatasetKind)), db)
}

func OpenKind(cfg config.Config, kind string, db *storage.DB) (Source, error) {
	switch kind {
	case KindJSON, "":
		return NewJSONFile(cfg.JSONPath), nil
	case KindXLSX:
		return NewXLSXFile(cfg.XLSXPath), nil
	case KindSQLite:
		if db == nil {
			return nil, errors.New("sqlite dataset requires an open database")
		}
		return NewStore(db), nil
	case KindRemote:
		if err := cfg.Require("DATASET_URL", cfg.DatasetURL); err != nil {
			return nil, err
		}
		return NewRemote(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported dataset kind: %s", kind)
	}
}

func unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnavailable, fmt.Sprintf(format, args...))
}
