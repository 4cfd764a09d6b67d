// Package index writes machine-readable listings of a flushed bundle.
package index

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ohler55/ojg/oj"
	_ "modernc.org/sqlite"

	"github.com/agentic-research/respack/api"
)

const schema = `
CREATE TABLE assets (
	path TEXT PRIMARY KEY,
	parent TEXT NOT NULL,
	name TEXT NOT NULL,
	kind TEXT NOT NULL,
	size INTEGER DEFAULT 0,
	flags JSON,
	origin TEXT
);
CREATE INDEX idx_parent_name ON assets(parent, name);

CREATE TABLE asset_flags (
	flag TEXT,
	path TEXT,
	PRIMARY KEY (flag, path)
) WITHOUT ROWID;

CREATE TABLE meta (
	key TEXT PRIMARY KEY,
	value TEXT
);
`

// WriteSQLite replaces the database at path with one row per asset.
func WriteSQLite(path, runID string, assets []api.Asset) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite %s: %w", path, err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec("PRAGMA journal_mode = MEMORY"); err != nil {
		return err
	}
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	if err := insertAssets(tx, runID, assets); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func insertAssets(tx *sql.Tx, runID string, assets []api.Asset) error {
	stmtAsset, err := tx.Prepare(`INSERT OR REPLACE INTO assets (path, parent, name, kind, size, flags, origin) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmtAsset.Close() }()
	stmtFlag, err := tx.Prepare(`INSERT OR IGNORE INTO asset_flags (flag, path) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmtFlag.Close() }()

	for _, a := range assets {
		flags := a.Flags
		if flags == nil {
			flags = []string{}
		}
		if _, err := stmtAsset.Exec(a.Path, a.Parent, a.Name, a.Kind(), a.Size, oj.JSON(flags), a.Origin); err != nil {
			return fmt.Errorf("insert %s: %w", a.Path, err)
		}
		for _, f := range a.Flags {
			if _, err := stmtFlag.Exec(f, a.Path); err != nil {
				return fmt.Errorf("insert flag %q of %s: %w", f, a.Path, err)
			}
		}
	}

	meta := map[string]string{
		"run_id":     runID,
		"created_at": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		if _, err := tx.Exec(`INSERT INTO meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return err
		}
	}
	return nil
}

// LoadSQLite reads the assets back, ordered by path.
func LoadSQLite(path string) ([]api.Asset, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	defer func() { _ = db.Close() }()

	rows, err := db.Query(`SELECT path, parent, name, kind, size, flags, origin FROM assets ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("query assets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []api.Asset
	for rows.Next() {
		var (
			a         api.Asset
			kind, raw string
			origin    sql.NullString
		)
		if err := rows.Scan(&a.Path, &a.Parent, &a.Name, &kind, &a.Size, &raw, &origin); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		a.Dir = kind == "dir"
		a.Origin = origin.String
		flags, err := oj.ParseString(raw)
		if err != nil {
			return nil, fmt.Errorf("parse flags of %s: %w", a.Path, err)
		}
		if list, ok := flags.([]any); ok {
			for _, f := range list {
				if s, ok := f.(string); ok {
					a.Flags = append(a.Flags, s)
				}
			}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// WithFlag returns the paths of assets whose source carried flag.
func WithFlag(path, flag string) ([]string, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	defer func() { _ = db.Close() }()

	rows, err := db.Query(`SELECT path FROM asset_flags WHERE flag = ? ORDER BY path`, flag)
	if err != nil {
		return nil, fmt.Errorf("query flags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// RunID returns the run id recorded in the database.
func RunID(path string) (string, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return "", fmt.Errorf("open sqlite %s: %w", path, err)
	}
	defer func() { _ = db.Close() }()

	var id string
	if err := db.QueryRow(`SELECT value FROM meta WHERE key = 'run_id'`).Scan(&id); err != nil {
		return "", fmt.Errorf("read run id: %w", err)
	}
	return id, nil
}
