package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/amishk599/jobdigest/internal/model"
)

// Message statuses stored in the ledger.
const (
	StatusPublished    = "published"
	StatusDeleted      = "deleted"
	StatusDeleteFailed = "delete_failed"
)

// MemoryPath opens a ledger that lives only as long as the process.
const MemoryPath = ":memory:"

// Ensure SQLiteLedger implements model.MessageLedger.
var _ model.MessageLedger = (*SQLiteLedger)(nil)

// SQLiteLedger records every published digest and how its deletion resolved.
// It is never read back to decide what to publish.
type SQLiteLedger struct {
	db *sql.DB
}

// NewSQLiteLedger opens (or creates) the ledger at dbPath. An empty path or
// MemoryPath keeps the ledger in memory.
func NewSQLiteLedger(dbPath string) (*SQLiteLedger, error) {
	if dbPath == "" {
		dbPath = MemoryPath
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// Each connection to :memory: is a separate database, and writes from
	// concurrent deletion tasks are serialized anyway.
	db.SetMaxOpenConns(1)

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	createTable := `CREATE TABLE IF NOT EXISTS messages (
		channel      TEXT NOT NULL,
		message_id   TEXT NOT NULL,
		run_id       TEXT NOT NULL,
		source       TEXT NOT NULL,
		page         INTEGER NOT NULL,
		published_at TEXT NOT NULL,
		status       TEXT NOT NULL,
		error        TEXT NOT NULL DEFAULT '',
		updated_at   TEXT NOT NULL,
		PRIMARY KEY (channel, message_id)
	)`
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating messages table: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS messages_run_id ON messages (run_id)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating run_id index: %w", err)
	}

	return &SQLiteLedger{db: db}, nil
}

// RecordPublished stores a freshly sent message.
func (s *SQLiteLedger) RecordPublished(runID, source string, page int, msg model.PublishedMessage) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO messages
		(channel, message_id, run_id, source, page, published_at, status, error, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, '', ?)`,
		msg.Handle.Channel, msg.Handle.ID, runID, source, page,
		formatTime(msg.PublishedAt), StatusPublished, formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("recording message %s: %w", msg.Handle.ID, err)
	}
	return nil
}

// MarkDeleted records a successful deletion.
func (s *SQLiteLedger) MarkDeleted(handle model.MessageHandle) error {
	return s.setStatus(handle, StatusDeleted, "")
}

// MarkDeleteFailed records a failed deletion and why it failed.
func (s *SQLiteLedger) MarkDeleteFailed(handle model.MessageHandle, reason string) error {
	return s.setStatus(handle, StatusDeleteFailed, reason)
}

func (s *SQLiteLedger) setStatus(handle model.MessageHandle, status, reason string) error {
	res, err := s.db.Exec(`UPDATE messages SET status = ?, error = ?, updated_at = ?
		WHERE channel = ? AND message_id = ?`,
		status, reason, formatTime(time.Now()), handle.Channel, handle.ID,
	)
	if err != nil {
		return fmt.Errorf("marking message %s %s: %w", handle.ID, status, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("marking message %s %s: %w", handle.ID, status, err)
	}
	if n == 0 {
		return fmt.Errorf("marking message %s %s: message not recorded", handle.ID, status)
	}
	return nil
}

// Counts returns the number of messages per status for one run.
func (s *SQLiteLedger) Counts(runID string) (model.LedgerCounts, error) {
	rows, err := s.db.Query(`SELECT status, COUNT(*) FROM messages WHERE run_id = ? GROUP BY status`, runID)
	if err != nil {
		return model.LedgerCounts{}, fmt.Errorf("counting messages for run %s: %w", runID, err)
	}
	defer rows.Close()

	var counts model.LedgerCounts
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return model.LedgerCounts{}, fmt.Errorf("counting messages for run %s: %w", runID, err)
		}
		switch status {
		case StatusPublished:
			counts.Pending = n
		case StatusDeleted:
			counts.Deleted = n
		case StatusDeleteFailed:
			counts.DeleteFailed = n
		}
	}
	if err := rows.Err(); err != nil {
		return model.LedgerCounts{}, fmt.Errorf("counting messages for run %s: %w", runID, err)
	}
	return counts, nil
}

// Close closes the underlying database connection.
func (s *SQLiteLedger) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
