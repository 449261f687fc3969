// Package storage persists named tables in a SQLite database. It is the
// result store experiments read simulation output from and write their
// analysis tables to.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/san-kum/sensim/internal/table"
)

// DBFile is the database file name inside a data directory.
const DBFile = "sensim.db"

const schema = `
CREATE TABLE IF NOT EXISTS data_tables (
	name       TEXT PRIMARY KEY,
	columns    TEXT NOT NULL,
	run_id     TEXT NOT NULL,
	written_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS data_rows (
	table_name TEXT NOT NULL,
	row_index  INTEGER NOT NULL,
	cells      TEXT NOT NULL,
	PRIMARY KEY (table_name, row_index)
);
`

type Store struct {
	db    *sql.DB
	runID string
}

// TableInfo describes one stored table.
type TableInfo struct {
	Name      string
	Columns   []string
	Rows      int
	RunID     string
	WrittenAt time.Time
}

// Open opens (creating if needed) the database at path. Every table
// written through the returned store is stamped with the same run id.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &Store{db: db, runID: uuid.NewString()}, nil
}

// OpenDir opens the store kept in dir, creating the directory.
func OpenDir(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return Open(filepath.Join(dir, DBFile))
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) RunID() string { return s.runID }

// GetData returns the named table. An unknown name yields an empty table.
func (s *Store) GetData(ctx context.Context, name string) (*table.Table, error) {
	var colsJSON string
	err := s.db.QueryRowContext(ctx, `SELECT columns FROM data_tables WHERE name = ?`, name).Scan(&colsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return table.New(name), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	var cols []string
	if err := json.Unmarshal([]byte(colsJSON), &cols); err != nil {
		return nil, fmt.Errorf("read %s columns: %w", name, err)
	}

	t := table.New(name, cols...)
	rows, err := s.db.QueryContext(ctx, `SELECT cells FROM data_rows WHERE table_name = ? ORDER BY row_index`, name)
	if err != nil {
		return nil, fmt.Errorf("read %s rows: %w", name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		cells, err := decodeCells(raw)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		r := t.NewRow()
		for col, v := range cells {
			t.Set(r, col, v)
		}
	}
	return t, rows.Err()
}

// DeleteDataInTable removes every row of the named table. Deleting an
// unknown table is not an error.
func (s *Store) DeleteDataInTable(ctx context.Context, name string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return deleteTable(ctx, tx, name)
	})
}

// WriteTable appends t's rows to the stored table of the same name. New
// columns are added; rows written earlier read them as missing.
func (s *Store) WriteTable(ctx context.Context, t *table.Table) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return s.appendTable(ctx, tx, t)
	})
}

// ReplaceTable deletes the stored table and writes t in its place.
func (s *Store) ReplaceTable(ctx context.Context, t *table.Table) error {
	return s.ReplaceTables(ctx, t)
}

// ReplaceTables replaces every given table in one transaction, so either
// all of them change or none do.
func (s *Store) ReplaceTables(ctx context.Context, tables ...*table.Table) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, t := range tables {
			if err := deleteTable(ctx, tx, t.Name); err != nil {
				return err
			}
			if err := s.appendTable(ctx, tx, t); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteTable(ctx context.Context, tx *sql.Tx, name string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM data_rows WHERE table_name = ?`, name); err != nil {
		return fmt.Errorf("delete %s rows: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM data_tables WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

func (s *Store) appendTable(ctx context.Context, tx *sql.Tx, t *table.Table) error {
	var existing []string
	var colsJSON string
	err := tx.QueryRowContext(ctx, `SELECT columns FROM data_tables WHERE name = ?`, t.Name).Scan(&colsJSON)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("write %s: %w", t.Name, err)
	default:
		if err := json.Unmarshal([]byte(colsJSON), &existing); err != nil {
			return fmt.Errorf("write %s columns: %w", t.Name, err)
		}
	}

	cols := unionColumns(existing, t.Columns())
	encoded, err := json.Marshal(cols)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO data_tables (name, columns, run_id, written_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			columns = excluded.columns,
			run_id = excluded.run_id,
			written_at = excluded.written_at
	`, t.Name, string(encoded), s.runID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("write %s: %w", t.Name, err)
	}

	var next int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(row_index) + 1, 0) FROM data_rows WHERE table_name = ?`, t.Name).Scan(&next); err != nil {
		return fmt.Errorf("write %s: %w", t.Name, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO data_rows (table_name, row_index, cells) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for r := 0; r < t.Len(); r++ {
		cells, err := encodeCells(t.Row(r))
		if err != nil {
			return fmt.Errorf("write %s row %d: %w", t.Name, r+1, err)
		}
		if _, err := stmt.ExecContext(ctx, t.Name, next+r, cells); err != nil {
			return fmt.Errorf("write %s row %d: %w", t.Name, r+1, err)
		}
	}
	return nil
}

func (s *Store) TableNames(ctx context.Context) ([]string, error) {
	infos, err := s.Tables(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	return names, nil
}

// Tables lists every stored table by name.
func (s *Store) Tables(ctx context.Context) ([]TableInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.name, t.columns, t.run_id, t.written_at,
			(SELECT COUNT(*) FROM data_rows r WHERE r.table_name = t.name)
		FROM data_tables t
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TableInfo
	for rows.Next() {
		var info TableInfo
		var colsJSON string
		if err := rows.Scan(&info.Name, &colsJSON, &info.RunID, &info.WrittenAt, &info.Rows); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(colsJSON), &info.Columns); err != nil {
			return nil, fmt.Errorf("table %s columns: %w", info.Name, err)
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func unionColumns(existing, add []string) []string {
	out := append([]string(nil), existing...)
	seen := make(map[string]bool, len(existing))
	for _, c := range existing {
		seen[c] = true
	}
	for _, c := range add {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
