// Package history keeps accepted generations in a local SQLite database so
// past formulas can be listed, searched, and reused.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/formulaspark/formulaspark/pkg/models"
)

const createTable = `
CREATE TABLE IF NOT EXISTS history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	prompt TEXT NOT NULL,
	formula TEXT NOT NULL,
	model TEXT NOT NULL,
	sheet TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_history_created ON history(created_at);
`

// Store implements the history log with a SQLite database.
type Store struct {
	db    *sql.DB
	limit int
}

// New opens the history database at path and runs auto-migration. A
// positive limit caps retained entries; each Add trims the oldest rows
// beyond it. Zero or negative keeps everything.
func New(path string, limit int) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}
	return &Store{db: db, limit: limit}, nil
}

// Add stores one accepted generation. A zero CreatedAt becomes the current
// UTC time.
func (s *Store) Add(ctx context.Context, entry models.HistoryEntry) error {
	created := entry.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO history (prompt, formula, model, sheet, created_at) VALUES (?, ?, ?, ?, ?)`,
		entry.Prompt, entry.Formula, entry.Model, entry.Sheet, created,
	)
	if err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	if s.limit > 0 {
		_, err = s.db.ExecContext(ctx,
			`DELETE FROM history WHERE id NOT IN
			 (SELECT id FROM history ORDER BY created_at DESC, id DESC LIMIT ?)`,
			s.limit,
		)
		if err != nil {
			return fmt.Errorf("trim history: %w", err)
		}
	}
	return nil
}

// Recent returns up to n entries, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]models.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, prompt, formula, model, sheet, created_at FROM history
		 ORDER BY created_at DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var entries []models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		if err := rows.Scan(&e.ID, &e.Prompt, &e.Formula, &e.Model, &e.Sheet, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Search returns up to n entries whose prompt or formula contains term,
// newest first.
func (s *Store) Search(ctx context.Context, term string, n int) ([]models.HistoryEntry, error) {
	pattern := "%" + term + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, prompt, formula, model, sheet, created_at FROM history
		 WHERE prompt LIKE ? OR formula LIKE ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`,
		pattern, pattern, n)
	if err != nil {
		return nil, fmt.Errorf("search history: %w", err)
	}
	defer rows.Close()

	var entries []models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		if err := rows.Scan(&e.ID, &e.Prompt, &e.Formula, &e.Model, &e.Sheet, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM history`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}

// Clear deletes every entry.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM history`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
