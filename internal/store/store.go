// Package store persists pipeline state in SQLite: the purified-result
// cache, the host fragment store swept by the auditor, provider attempts,
// and CSV job checkpoints.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"
)

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// CAS updates on fragments rely on a single writer connection.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	-- purified_cache holds gate-accepted results keyed by content hash
	CREATE TABLE IF NOT EXISTS purified_cache (
		content_hash TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		text TEXT NOT NULL,
		purity_score REAL NOT NULL,
		path TEXT NOT NULL,
		rule_set_version TEXT NOT NULL,
		usage_count INTEGER DEFAULT 0,
		created_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL,
		last_used INTEGER,
		PRIMARY KEY (content_hash, target_lang)
	);

	-- fragments is the host text store swept by the output auditor
	CREATE TABLE IF NOT EXISTS fragments (
		id TEXT PRIMARY KEY,
		language TEXT NOT NULL,
		content_type TEXT NOT NULL,
		text TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);

	-- attempts records every provider call made by the orchestrator
	CREATE TABLE IF NOT EXISTS attempts (
		id TEXT PRIMARY KEY,
		content_hash TEXT NOT NULL,
		source_text TEXT NOT NULL,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		content_type TEXT NOT NULL,
		provider TEXT NOT NULL,
		output_text TEXT,
		score REAL,
		accepted BOOLEAN DEFAULT FALSE,
		latency_ms INTEGER,
		failure_kind TEXT,
		error TEXT,
		created_at INTEGER NOT NULL
	);

	-- csv_checkpoints tracks progress of CSV purification jobs for resume support
	CREATE TABLE IF NOT EXISTS csv_checkpoints (
		id TEXT PRIMARY KEY,
		input_file TEXT NOT NULL,
		output_file TEXT NOT NULL,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		status TEXT DEFAULT 'running',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- csv_checkpoint_cells stores per-cell purified results
	CREATE TABLE IF NOT EXISTS csv_checkpoint_cells (
		checkpoint_id TEXT NOT NULL,
		row_idx INTEGER NOT NULL,
		col_idx INTEGER NOT NULL,
		text TEXT NOT NULL,
		path TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (checkpoint_id, row_idx, col_idx),
		FOREIGN KEY (checkpoint_id) REFERENCES csv_checkpoints(id)
	);

	CREATE INDEX IF NOT EXISTS idx_cache_expiry ON purified_cache(expires_at);
	CREATE INDEX IF NOT EXISTS idx_fragments_language ON fragments(language);
	CREATE INDEX IF NOT EXISTS idx_attempts_provider ON attempts(provider);
	CREATE INDEX IF NOT EXISTS idx_checkpoint_cells ON csv_checkpoint_cells(checkpoint_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// normalizeText trims whitespace and applies Unicode NFC normalization
// so equivalent inputs are recorded identically.
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
