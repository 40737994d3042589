package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"sitecap/internal/application/port/output"
	"sitecap/internal/domain/entity"
)

var (
	_ output.CapabilityStore = (*SQLiteStore)(nil)
	_ output.SessionHistory  = (*SQLiteStore)(nil)
)

const schema = `
-- Capability documents, one row per domain, stored as JSON. The summary
-- columns exist so listing does not decode every document.
CREATE TABLE IF NOT EXISTS capabilities (
	domain TEXT PRIMARY KEY,
	document TEXT NOT NULL,
	pages INTEGER NOT NULL DEFAULT 0,
	elements INTEGER NOT NULL DEFAULT 0,
	updated_at TEXT NOT NULL
);

-- Audit trail of recording sessions.
CREATE TABLE IF NOT EXISTS sessions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	domain TEXT NOT NULL,
	scenario TEXT,
	state TEXT NOT NULL,
	turns INTEGER NOT NULL DEFAULT 0,
	input_tokens INTEGER NOT NULL DEFAULT 0,
	output_tokens INTEGER NOT NULL DEFAULT 0,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	started_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_domain ON sessions(domain);
CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at);
`

// SQLiteStore keeps capability documents and the session audit trail in
// one SQLite file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite supports a single writer; more connections only add lock
	// contention.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) Load(ctx context.Context, domain string) (*entity.SiteCapability, error) {
	var docJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM capabilities WHERE domain = ?`, domain).Scan(&docJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load capability %s: %w", domain, err)
	}

	var doc entity.SiteCapability
	if err := json.Unmarshal([]byte(docJSON), &doc); err != nil {
		return nil, fmt.Errorf("parse capability %s: %w", domain, err)
	}
	return &doc, nil
}

func (s *SQLiteStore) Save(ctx context.Context, doc *entity.SiteCapability) (string, error) {
	if doc == nil || doc.Domain == "" {
		return "", fmt.Errorf("capability document has no domain")
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode capability %s: %w", doc.Domain, err)
	}

	query := `
	INSERT INTO capabilities (domain, document, pages, elements, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(domain) DO UPDATE SET
		document = excluded.document,
		pages = excluded.pages,
		elements = excluded.elements,
		updated_at = excluded.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		doc.Domain,
		string(docJSON),
		len(doc.Pages),
		doc.ElementCount(),
		doc.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("save capability %s: %w", doc.Domain, err)
	}

	return fmt.Sprintf("%s#%s", s.path, doc.Domain), nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]output.CapabilitySummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT domain, pages, elements, updated_at FROM capabilities ORDER BY domain`)
	if err != nil {
		return nil, fmt.Errorf("list capabilities: %w", err)
	}
	defer rows.Close()

	var out []output.CapabilitySummary
	for rows.Next() {
		var summary output.CapabilitySummary
		var updatedAt string
		if err := rows.Scan(&summary.Domain, &summary.Pages, &summary.Elements, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan capability row: %w", err)
		}
		summary.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		out = append(out, summary)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AppendSession(ctx context.Context, rec output.SessionRecord) error {
	query := `
	INSERT INTO sessions (session_id, domain, scenario, state, turns, input_tokens, output_tokens, duration_ms, started_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.SessionID,
		rec.Domain,
		rec.Scenario,
		string(rec.State),
		rec.Turns,
		rec.Usage.Input,
		rec.Usage.Output,
		rec.DurationMS,
		rec.StartedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("append session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RecentSessions(ctx context.Context, limit int) ([]output.SessionRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
	SELECT session_id, domain, scenario, state, turns, input_tokens, output_tokens, duration_ms, started_at
	FROM sessions
	ORDER BY id DESC
	LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []output.SessionRecord
	for rows.Next() {
		var rec output.SessionRecord
		var scenario sql.NullString
		var state, startedAt string
		if err := rows.Scan(
			&rec.SessionID,
			&rec.Domain,
			&scenario,
			&state,
			&rec.Turns,
			&rec.Usage.Input,
			&rec.Usage.Output,
			&rec.DurationMS,
			&startedAt,
		); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		rec.Scenario = scenario.String
		rec.State = entity.SessionState(state)
		rec.Usage.Total = rec.Usage.Input + rec.Usage.Output
		rec.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
