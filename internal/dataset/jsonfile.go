package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"mechdash/internal"
)

// JSONFile reads the array-of-objects file written by the convert command.
type JSONFile struct {
	Path string
}

func NewJSONFile(path string) *JSONFile {
	return &JSONFile{Path: path}
}

func (s *JSONFile) Name() string { return KindJSON + ":" + s.Path }

func (s *JSONFile) Load(ctx context.Context) ([]internal.RawRecord, error) {
	blob, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, unavailable("%s not found, run `mechdash convert` first", filepath.Base(s.Path))
	}
	if err != nil {
		return nil, unavailable("read %s: %v", s.Path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := DecodeRecords(blob)
	if err != nil {
		return nil, unavailable("decode %s: %v", s.Path, err)
	}
	return rows, nil
}

// DecodeRecords accepts either a bare array of rows or an object with a
// "records" array.
func DecodeRecords(blob []byte) ([]internal.RawRecord, error) {
	trimmed := bytes.TrimSpace(blob)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Records []internal.RawRecord `json:"records"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, err
		}
		if wrapped.Records == nil {
			return nil, errors.New(`object payload has no "records" array`)
		}
		return wrapped.Records, nil
	}

	var rows []internal.RawRecord
	if err := json.Unmarshal(trimmed, &rows); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []internal.RawRecord{}
	}
	return rows, nil
}

// WriteJSONFile writes rows as an indented JSON array, creating parent dirs.
func WriteJSONFile(rows []internal.RawRecord, path string) error {
	if rows == nil {
		rows = []internal.RawRecord{}
	}
	blob, err := json.MarshalIndent(rows, "", "    ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, blob, 0o644)
}
