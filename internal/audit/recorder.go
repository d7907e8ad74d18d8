package audit

import (
	"context"
	"time"
)

// recordTimeout bounds the audit write so a slow disk never extends the
// HTTP caller's command latency by more than this.
const recordTimeout = 2 * time.Second

// Logger is the logging interface used by the Recorder.
type Logger interface {
	Error(msg string, args ...any)
}

// Recorder adapts a Repository to the dispatcher's CommandRecorder hook.
// Recording is best-effort: a failed audit write is logged, never surfaced
// to the command path.
type Recorder struct {
	repo   Repository
	logger Logger
}

// NewRecorder creates a Recorder writing to repo.
func NewRecorder(repo Repository, logger Logger) *Recorder {
	return &Recorder{repo: repo, logger: logger}
}

// RecordCommand stores one publish outcome.
func (r *Recorder) RecordCommand(ctx context.Context, command, topic string, publishErr error) {
	entry := &Entry{
		Command: command,
		Topic:   topic,
		Outcome: OutcomeSent,
	}
	if publishErr != nil {
		entry.Outcome = OutcomeFailed
		entry.Error = publishErr.Error()
	}

	ctx, cancel := context.WithTimeout(ctx, recordTimeout)
	defer cancel()

	if err := r.repo.Create(ctx, entry); err != nil && r.logger != nil {
		r.logger.Error("failed to record command in audit log", "error", err)
	}
}
