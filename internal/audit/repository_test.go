package audit

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// testRepo returns a repository backed by an in-memory SQLite database.
func testRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	// In-memory databases vanish per connection; pin the pool to one.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	repo := NewSQLiteRepository(db)
	if err := repo.InitSchema(context.Background()); err != nil {
		t.Fatalf("InitSchema() error = %v", err)
	}
	return repo
}

func TestCreateAndList(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	entries := []*Entry{
		{Command: "LED_ON", Topic: "device/d1/command", Outcome: OutcomeSent,
			CreatedAt: time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)},
		{Command: "LED_OFF", Topic: "device/d1/command", Outcome: OutcomeFailed, Error: "mqtt: client not connected",
			CreatedAt: time.Date(2026, 8, 26, 10, 1, 0, 0, time.UTC)},
	}
	for _, e := range entries {
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if e.ID == "" {
			t.Error("Create() did not generate an ID")
		}
	}

	result, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 2 {
		t.Errorf("Total = %d, want 2", result.Total)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(result.Entries))
	}

	// Most recent first.
	if result.Entries[0].Command != "LED_OFF" {
		t.Errorf("Entries[0].Command = %q, want LED_OFF (most recent)", result.Entries[0].Command)
	}
	if result.Entries[0].Error != "mqtt: client not connected" {
		t.Errorf("Entries[0].Error = %q, want stored error text", result.Entries[0].Error)
	}
	if result.Entries[1].Error != "" {
		t.Errorf("Entries[1].Error = %q, want empty for successful publish", result.Entries[1].Error)
	}
}

func TestList_OutcomeFilter(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	for i, outcome := range []string{OutcomeSent, OutcomeFailed, OutcomeSent} {
		err := repo.Create(ctx, &Entry{
			Command:   "PING",
			Topic:     "device/d1/command",
			Outcome:   outcome,
			CreatedAt: time.Date(2026, 8, 26, 10, i, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	result, err := repo.List(ctx, Filter{Outcome: OutcomeFailed})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 1 || len(result.Entries) != 1 {
		t.Fatalf("filtered result = %d/%d entries, want 1/1", result.Total, len(result.Entries))
	}
	if result.Entries[0].Outcome != OutcomeFailed {
		t.Errorf("Outcome = %q, want failed", result.Entries[0].Outcome)
	}
}

func TestList_Pagination(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		err := repo.Create(ctx, &Entry{
			Command:   "PING",
			Topic:     "device/d1/command",
			Outcome:   OutcomeSent,
			CreatedAt: time.Date(2026, 8, 26, 10, i, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	result, err := repo.List(ctx, Filter{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 5 {
		t.Errorf("Total = %d, want 5", result.Total)
	}
	if len(result.Entries) != 2 {
		t.Errorf("len(Entries) = %d, want 2", len(result.Entries))
	}
	if result.Limit != 2 || result.Offset != 2 {
		t.Errorf("Limit/Offset = %d/%d, want 2/2", result.Limit, result.Offset)
	}
}

func TestRecorder(t *testing.T) {
	repo := testRepo(t)
	rec := NewRecorder(repo, nil)
	ctx := context.Background()

	rec.RecordCommand(ctx, "LED_ON", "device/d1/command", nil)
	rec.RecordCommand(ctx, "LED_OFF", "device/d1/command", errors.New("publish timeout"))

	result, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 2 {
		t.Fatalf("Total = %d, want 2", result.Total)
	}

	byCommand := map[string]Entry{}
	for _, e := range result.Entries {
		byCommand[e.Command] = e
	}
	if got := byCommand["LED_ON"]; got.Outcome != OutcomeSent || got.Error != "" {
		t.Errorf("LED_ON entry = %+v, want sent with no error", got)
	}
	if got := byCommand["LED_OFF"]; got.Outcome != OutcomeFailed || got.Error != "publish timeout" {
		t.Errorf("LED_OFF entry = %+v, want failed with error text", got)
	}
}
