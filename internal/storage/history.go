package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/JMTC-dev/CodeSurf/pkg/models"

	_ "modernc.org/sqlite" // SQLite driver.
)

// HistoryFileName is the session history database inside StateDir.
const HistoryFileName = "history.db"

// timeLayout has a fixed-width fraction so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SessionHistoryStore records closed playback sessions in SQLite.
type SessionHistoryStore interface {
	Record(summary models.SessionSummary) error
	Recent(ctx context.Context, limit int) ([]models.SessionSummary, error)
	Clear(ctx context.Context) error
	Close() error
}

type sqliteHistory struct {
	db *sql.DB
}

// HistoryPath returns the database location for the workspace at basePath.
func HistoryPath(basePath string) string {
	return filepath.Join(basePath, StateDir, HistoryFileName)
}

// OpenSessionHistory opens or creates the history database and applies the
// schema.
func OpenSessionHistory(path string) (SessionHistoryStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("opening session history: creating directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening session history: %w", err)
	}
	// A single connection serializes writers from the engine loop and readers
	// from the CLI.
	db.SetMaxOpenConns(1)

	h := &sqliteHistory{db: db}
	if err := h.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("opening session history: migrating: %w", err)
	}
	return h, nil
}

func (h *sqliteHistory) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			video TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			lines_generated INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at);`,
	}
	for _, stmt := range stmts {
		if _, err := h.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Record inserts a closed session. Recording the same ID twice replaces the
// earlier row.
func (h *sqliteHistory) Record(summary models.SessionSummary) error {
	_, err := h.db.Exec(
		`INSERT OR REPLACE INTO sessions (id, video, started_at, ended_at, duration_ms, lines_generated)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		summary.ID,
		summary.Video,
		summary.StartedAt.UTC().Format(timeLayout),
		summary.EndedAt.UTC().Format(timeLayout),
		summary.Duration.Milliseconds(),
		summary.LinesGenerated,
	)
	if err != nil {
		return fmt.Errorf("recording session %s: %w", summary.ID, err)
	}
	return nil
}

// Recent returns up to limit sessions, newest first.
func (h *sqliteHistory) Recent(ctx context.Context, limit int) ([]models.SessionSummary, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := h.db.QueryContext(ctx,
		`SELECT id, video, started_at, ended_at, duration_ms, lines_generated
		 FROM sessions ORDER BY ended_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []models.SessionSummary
	for rows.Next() {
		var (
			s                  models.SessionSummary
			startedAt, endedAt string
			durationMS         int64
		)
		if err := rows.Scan(&s.ID, &s.Video, &startedAt, &endedAt, &durationMS, &s.LinesGenerated); err != nil {
			return nil, fmt.Errorf("listing sessions: %w", err)
		}
		if s.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("listing sessions: parsing started_at: %w", err)
		}
		if s.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
			return nil, fmt.Errorf("listing sessions: parsing ended_at: %w", err)
		}
		s.Duration = time.Duration(durationMS) * time.Millisecond
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	return result, nil
}

// Clear removes every recorded session.
func (h *sqliteHistory) Clear(ctx context.Context) error {
	if _, err := h.db.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("clearing session history: %w", err)
	}
	return nil
}

func (h *sqliteHistory) Close() error {
	return h.db.Close()
}
