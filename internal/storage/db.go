package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"mechdash/internal"
)

// ErrNoImports is returned when the store holds no dataset yet.
var ErrNoImports = errors.New("no dataset imported")

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS imports (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId TEXT NOT NULL UNIQUE,
  source TEXT NOT NULL,
  rowCount INTEGER NOT NULL,
  tookMs INTEGER NOT NULL DEFAULT 0,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS records (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  importId INTEGER NOT NULL,
  rowNo INTEGER NOT NULL,
  rawJson TEXT NOT NULL,
  UNIQUE(importId, rowNo),
  FOREIGN KEY(importId) REFERENCES imports(id)
);
CREATE INDEX IF NOT EXISTS idx_records_importId ON records(importId);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// InsertImport stores a full dataset as one import. Rows keep their source order.
func (d *DB) InsertImport(runID, source string, rows []internal.RawRecord, tookMs int64) (internal.ImportRow, error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return internal.ImportRow{}, err
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.Exec(`INSERT INTO imports (runId, source, rowCount, tookMs) VALUES (?, ?, ?, ?)`, runID, source, len(rows), tookMs)
	if err != nil {
		return internal.ImportRow{}, err
	}
	importID, err := result.LastInsertId()
	if err != nil {
		return internal.ImportRow{}, err
	}

	stmt, err := tx.Prepare(`INSERT INTO records (importId, rowNo, rawJson) VALUES (?, ?, ?)`)
	if err != nil {
		return internal.ImportRow{}, err
	}
	defer stmt.Close()

	for i, row := range rows {
		blob, err := json.Marshal(row)
		if err != nil {
			return internal.ImportRow{}, fmt.Errorf("row %d: %w", i+1, err)
		}
		if _, err := stmt.Exec(importID, i+1, string(blob)); err != nil {
			return internal.ImportRow{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return internal.ImportRow{}, err
	}

	imp, err := d.GetImport(int(importID))
	if err != nil {
		return internal.ImportRow{}, err
	}
	if imp == nil {
		return internal.ImportRow{}, errors.New("failed to insert import")
	}
	return *imp, nil
}

func (d *DB) GetImport(id int) (*internal.ImportRow, error) {
	var row internal.ImportRow
	err := d.conn.QueryRow(`
SELECT id, runId, source, rowCount, tookMs, createdAt FROM imports WHERE id = ?
`, id).Scan(&row.ID, &row.RunID, &row.Source, &row.RowCount, &row.TookMs, &row.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) LatestImport() (*internal.ImportRow, error) {
	var row internal.ImportRow
	err := d.conn.QueryRow(`
SELECT id, runId, source, rowCount, tookMs, createdAt FROM imports ORDER BY id DESC LIMIT 1
`).Scan(&row.ID, &row.RunID, &row.Source, &row.RowCount, &row.TookMs, &row.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) ListImports(limit int) ([]internal.ImportRow, error) {
	rows, err := d.conn.Query(`
SELECT id, runId, source, rowCount, tookMs, createdAt FROM imports ORDER BY id DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ImportRow
	for rows.Next() {
		var row internal.ImportRow
		if err := rows.Scan(&row.ID, &row.RunID, &row.Source, &row.RowCount, &row.TookMs, &row.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// LoadRecords returns the rows of one import in row order.
func (d *DB) LoadRecords(ctx context.Context, importID int) ([]internal.RawRecord, error) {
	rows, err := d.conn.QueryContext(ctx, `SELECT rowNo, rawJson FROM records WHERE importId = ? ORDER BY rowNo ASC`, importID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []internal.RawRecord{}
	for rows.Next() {
		var rowNo int
		var rawJSON string
		if err := rows.Scan(&rowNo, &rawJSON); err != nil {
			return nil, err
		}
		var rec internal.RawRecord
		if err := json.Unmarshal([]byte(rawJSON), &rec); err != nil {
			return nil, fmt.Errorf("import %d row %d: %w", importID, rowNo, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// LoadLatest returns the newest import and its rows, or ErrNoImports.
func (d *DB) LoadLatest(ctx context.Context) (internal.ImportRow, []internal.RawRecord, error) {
	imp, err := d.LatestImport()
	if err != nil {
		return internal.ImportRow{}, nil, err
	}
	if imp == nil {
		return internal.ImportRow{}, nil, ErrNoImports
	}
	rows, err := d.LoadRecords(ctx, imp.ID)
	if err != nil {
		return internal.ImportRow{}, nil, err
	}
	return *imp, rows, nil
}

// PruneImports deletes all but the newest keep imports. It returns how many went.
func (d *DB) PruneImports(keep int) (int, error) {
	if keep < 1 {
		keep = 1
	}
	tx, err := d.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.Query(`SELECT id FROM imports ORDER BY id DESC LIMIT -1 OFFSET ?`, keep)
	if err != nil {
		return 0, err
	}
	var stale []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return 0, err
		}
		stale = append(stale, id)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return 0, err
	}
	_ = rows.Close()

	for _, id := range stale {
		if _, err := tx.Exec(`DELETE FROM records WHERE importId = ?`, id); err != nil {
			return 0, err
		}
		if _, err := tx.Exec(`DELETE FROM imports WHERE id = ?`, id); err != nil {
			return 0, err
		}
	}

	return len(stale), tx.Commit()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
