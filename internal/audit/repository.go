// Package audit records every command publish attempt for operator
// inspection: what was sent, where, and whether the broker acknowledged it.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Publish outcomes stored in the command log.
const (
	OutcomeSent   = "sent"
	OutcomeFailed = "failed"
)

// Entry is a single command log record.
type Entry struct {
	ID        string    `json:"id"`
	Command   string    `json:"command"`
	Topic     string    `json:"topic"`
	Outcome   string    `json:"outcome"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Filter controls which entries List returns.
type Filter struct {
	Outcome string // optional: "sent" or "failed"
	Limit   int    // default 50, max 200
	Offset  int    // pagination offset
}

// ListResult contains the paginated command log results.
type ListResult struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// Repository defines the interface for command log operations.
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository stores the command log in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new command log repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// InitSchema creates the command_log table if it does not exist.
// Called once at startup.
func (r *SQLiteRepository) InitSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS command_log (
			id         TEXT PRIMARY KEY,
			command    TEXT NOT NULL,
			topic      TEXT NOT NULL,
			outcome    TEXT NOT NULL,
			error      TEXT,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_command_log_created_at
			ON command_log(created_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("creating command_log schema: %w", err)
	}
	return nil
}

// Create inserts a new command log entry. ID and CreatedAt are generated
// when empty.
func (r *SQLiteRepository) Create(ctx context.Context, entry *Entry) error {
	if entry.ID == "" {
		entry.ID = "cmd-" + uuid.NewString()[:8]
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO command_log (id, command, topic, outcome, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Command, entry.Topic, entry.Outcome,
		nullableString(entry.Error),
		entry.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting command log entry: %w", err)
	}

	return nil
}

// nullableString returns nil for empty strings, for nullable TEXT columns.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// List returns command log entries matching the filter, most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 200 {
		filter.Limit = 200
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	where := ""
	var args []any
	if filter.Outcome != "" {
		where = "WHERE outcome = ?"
		args = append(args, filter.Outcome)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM command_log " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting command log entries: %w", err)
	}

	query := `SELECT id, command, topic, outcome, error, created_at
		FROM command_log ` + where + `
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying command log: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	entries := make([]Entry, 0, filter.Limit)
	for rows.Next() {
		var e Entry
		var errText sql.NullString
		var createdAt string
		if err := rows.Scan(&e.ID, &e.Command, &e.Topic, &e.Outcome, &errText, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning command log entry: %w", err)
		}
		if errText.Valid {
			e.Error = errText.String
		}
		ts, parseErr := time.Parse(time.RFC3339, createdAt)
		if parseErr != nil {
			return nil, fmt.Errorf("parsing created_at %q: %w", createdAt, parseErr)
		}
		e.CreatedAt = ts
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating command log: %w", err)
	}

	return &ListResult{
		Entries: entries,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}
