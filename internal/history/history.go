// Package history keeps an append-only audit log of processed complaint
// emails in a local sqlite database. The customer ledger remains the source
// of truth for complaint state; this log exists for the status command and
// the dashboard.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Branch values recorded per processed message.
const (
	BranchMissingDetails = "missing_details"
	BranchNewComplaint   = "new_complaint"
	BranchStatusUpdate   = "status_update"
	BranchClosed         = "closed"
)

// Entry is one processed inbound message.
type Entry struct {
	ID          int64
	RegNo       string
	Ticket      string
	Branch      string
	Sender      string
	Subject     string
	ProblemArea string
	Outcome     string // free-text note, e.g. which fields were missing
	ProcessedAt time.Time
}

type Store struct {
	db *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS processed_messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		reg_no TEXT,
		ticket TEXT,
		branch TEXT NOT NULL,
		sender TEXT,
		subject TEXT,
		problem_area TEXT,
		outcome TEXT,
		processed_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_pm_reg_no ON processed_messages(reg_no);
	CREATE INDEX IF NOT EXISTS idx_pm_branch ON processed_messages(branch);
	CREATE INDEX IF NOT EXISTS idx_pm_processed_at ON processed_messages(processed_at);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func (s *Store) Add(e *Entry) error {
	if e.ProcessedAt.IsZero() {
		e.ProcessedAt = time.Now()
	}

	result, err := s.db.Exec(`
	INSERT INTO processed_messages (reg_no, ticket, branch, sender, subject, problem_area, outcome, processed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RegNo, e.Ticket, e.Branch, e.Sender, e.Subject, e.ProblemArea, e.Outcome, e.ProcessedAt)
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	e.ID = id
	return nil
}

// Recent returns the latest entries, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	rows, err := s.db.Query(`
	SELECT id, reg_no, ticket, branch, sender, subject, problem_area, outcome, processed_at
	FROM processed_messages ORDER BY processed_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var regNo, ticket, sender, subject, problemArea, outcome sql.NullString
		var processedAt sql.NullTime
		if err := rows.Scan(&e.ID, &regNo, &ticket, &e.Branch, &sender, &subject,
			&problemArea, &outcome, &processedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		e.RegNo = regNo.String
		e.Ticket = ticket.String
		e.Sender = sender.String
		e.Subject = subject.String
		e.ProblemArea = problemArea.String
		e.Outcome = outcome.String
		e.ProcessedAt = processedAt.Time
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats returns processed-message counts per branch.
func (s *Store) Stats() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT branch, COUNT(*) FROM processed_messages GROUP BY branch`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var branch string
		var count int
		if err := rows.Scan(&branch, &count); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		stats[branch] = count
	}
	return stats, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
