package bridge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/lumen-bridge/internal/infrastructure/mqtt"
)

// Canonical actuator command tokens understood by the device firmware.
const (
	CommandLEDOn  = "LED_ON"
	CommandLEDOff = "LED_OFF"
)

// Publisher is the dispatcher's view of the session: publish through the
// live connection or fail fast. The Supervisor satisfies it.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
}

// Ack describes a broker-acknowledged command publish.
type Ack struct {
	Topic   string    `json:"topic"`
	Command string    `json:"command"`
	SentAt  time.Time `json:"sentAt"`
}

// CommandRecorder receives the outcome of every publish attempt, e.g. for
// the audit trail. Recording is best-effort; implementations handle their
// own failures.
type CommandRecorder interface {
	RecordCommand(ctx context.Context, command, topic string, publishErr error)
}

// Dispatcher serialises command delivery over the broker session.
//
// Each call is one publish with at-least-once delivery, acknowledged by the
// broker — not by the device. The dispatcher never updates the state cache:
// state only changes via confirmed telemetry, so the cache always reflects
// device-reported truth rather than bridge-assumed truth. Concurrent calls
// may reach the device in any order; no sequencing is attempted because the
// device cannot guarantee it either.
type Dispatcher struct {
	session Publisher
	topics  mqtt.TopicSet
	qos     byte
	logger  Logger
	audit   CommandRecorder

	// now stamps acknowledgments; overridable in tests.
	now func() time.Time
}

// NewDispatcher creates a dispatcher publishing on the device's command topic.
func NewDispatcher(session Publisher, topics mqtt.TopicSet, qos byte) *Dispatcher {
	return &Dispatcher{
		session: session,
		topics:  topics,
		qos:     qos,
		logger:  noopLogger{},
		now:     time.Now,
	}
}

// SetLogger sets the logger for the dispatcher.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.logger = logger
}

// SetCommandRecorder sets an optional audit recorder for publish outcomes.
func (d *Dispatcher) SetCommandRecorder(r CommandRecorder) {
	d.audit = r
}

// SendBool publishes the canonical actuator command for the requested state.
//
// Returns the broker acknowledgment, or an error wrapping ErrPublish when
// no session is live or the broker did not acknowledge in time. Each call
// is an independent publish; consecutive calls are never coalesced.
func (d *Dispatcher) SendBool(ctx context.Context, on bool) (Ack, error) {
	command := CommandLEDOff
	if on {
		command = CommandLEDOn
	}
	return d.send(ctx, command)
}

// SendRaw publishes an opaque free-text command.
//
// Empty or whitespace-only input fails with ErrEmptyCommand before any
// network round-trip is attempted.
func (d *Dispatcher) SendRaw(ctx context.Context, command string) (Ack, error) {
	if strings.TrimSpace(command) == "" {
		return Ack{}, ErrEmptyCommand
	}
	return d.send(ctx, command)
}

// send performs the publish and records the outcome.
func (d *Dispatcher) send(ctx context.Context, command string) (Ack, error) {
	err := d.session.Publish(d.topics.Command, []byte(command), d.qos, false)

	if d.audit != nil {
		d.audit.RecordCommand(ctx, command, d.topics.Command, err)
	}

	if err != nil {
		d.logger.Warn("command publish failed", "command", command, "error", err)
		return Ack{}, fmt.Errorf("%w: %w", ErrPublish, err)
	}

	d.logger.Info("command published", "command", command, "topic", d.topics.Command)
	return Ack{
		Topic:   d.topics.Command,
		Command: command,
		SentAt:  d.now(),
	}, nil
}
