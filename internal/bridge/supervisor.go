package bridge

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/lumen-bridge/internal/infrastructure/mqtt"
)

// SessionState describes the supervisor's view of the broker session.
type SessionState int

// Session lifecycle states. The only terminal transition is a deliberate
// shutdown; everything else cycles back through Connecting/Reconnecting.
const (
	Disconnected SessionState = iota
	Connecting
	Connected
	Reconnecting
)

// String returns the lowercase state name for logs and health responses.
func (s SessionState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

// Session is the broker session as the supervisor and dispatcher see it:
// an explicitly owned object constructed once per connection, passed in
// rather than shared ambiently.
type Session interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	IsConnected() bool
	SetOnConnect(func())
	SetOnDisconnect(func(err error))
	Close() error
}

// Connector dials the broker and returns a live session. The supervisor
// calls it repeatedly until it succeeds.
type Connector func() (Session, error)

// TelemetryRecorder receives each accepted snapshot, e.g. for time-series
// history. Implementations must not block.
type TelemetryRecorder interface {
	RecordSnapshot(state DeviceState)
}

// Logger is the logging interface used by the bridge core.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Supervisor owns one broker session end-to-end: connect, subscribe,
// dispatch inbound messages, and survive every failure short of shutdown.
//
// It runs as a single background task. Connection failures (transport, TLS,
// auth rejection) are indistinguishable from transient broker trouble from
// the client side, so all of them are retried indefinitely on a fixed
// interval; only the current connectivity fact and last error string cross
// the boundary to HTTP-facing callers.
type Supervisor struct {
	connect       Connector
	topics        mqtt.TopicSet
	cache         *StateCache
	qos           byte
	retryInterval time.Duration

	mu      sync.RWMutex
	state   SessionState
	lastErr string
	session Session

	logger   Logger
	recorder TelemetryRecorder
}

// NewSupervisor creates a supervisor. It does not connect; call Run.
//
// Parameters:
//   - connect: dials the broker (typically wraps mqtt.Connect)
//   - topics: the device's topic set
//   - cache: destination for accepted telemetry
//   - qos: QoS level for inbound subscriptions
//   - retryInterval: delay between failed connection attempts
func NewSupervisor(connect Connector, topics mqtt.TopicSet, cache *StateCache, qos byte, retryInterval time.Duration) *Supervisor {
	return &Supervisor{
		connect:       connect,
		topics:        topics,
		cache:         cache,
		qos:           qos,
		retryInterval: retryInterval,
		state:         Disconnected,
		logger:        noopLogger{},
	}
}

// SetLogger sets the logger for the supervisor.
func (s *Supervisor) SetLogger(logger Logger) {
	s.logger = logger
}

// SetTelemetryRecorder sets an optional recorder for accepted snapshots.
// Must be called before Run.
func (s *Supervisor) SetTelemetryRecorder(r TelemetryRecorder) {
	s.recorder = r
}

// Run connects to the broker and supervises the session until ctx is
// cancelled. It never returns an error for broker unavailability: a broker
// that never becomes reachable yields a permanently disconnected bridge,
// not a dead process.
//
// The initial connection is retried on a fixed interval with no attempt
// limit. Once established, mid-session drops are handled by the session
// layer's auto-reconnect; the supervisor only tracks the resulting state
// transitions. On cancellation the session is closed gracefully.
func (s *Supervisor) Run(ctx context.Context) error {
	var sess Session

	for {
		s.setState(Connecting, "")
		s.logger.Info("connecting to broker", "data_topic", s.topics.Data)

		var err error
		sess, err = s.connect()
		if err == nil {
			break
		}

		s.setState(Disconnected, err.Error())
		s.logger.Warn("broker connection failed, will retry",
			"error", err,
			"retry_in", s.retryInterval,
		)

		select {
		case <-ctx.Done():
			s.logger.Info("shutdown before broker became reachable")
			return nil
		case <-time.After(s.retryInterval):
		}
	}

	s.attach(sess)

	<-ctx.Done()

	s.logger.Info("shutting down broker session")
	s.setState(Disconnected, "")
	if err := sess.Close(); err != nil {
		s.logger.Error("error closing broker session", "error", err)
	}
	return nil
}

// attach wires the session into the supervisor: state-transition callbacks,
// inbound subscriptions, and the Connected transition.
func (s *Supervisor) attach(sess Session) {
	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()

	// Fires on every reconnect. The session layer replays tracked
	// subscriptions before this callback runs, but a subscribe that failed
	// outright was never tracked — reissue the inbound set on every
	// Connected re-entry so a one-off failure is not permanent.
	// Re-subscribing to an already-live subscription is idempotent.
	sess.SetOnConnect(func() {
		s.subscribeInbound(sess)
		s.setState(Connected, "")
		s.logger.Info("broker session established")
	})

	sess.SetOnDisconnect(func(err error) {
		msg := ""
		if err != nil {
			msg = err.Error()
		}
		s.setState(Reconnecting, msg)
		s.logger.Warn("broker session lost, reconnecting", "error", err)
	})

	s.subscribeInbound(sess)
	s.setState(Connected, "")
	s.logger.Info("broker session established")
}

// subscribeInbound issues the telemetry and status subscriptions. Failures
// are logged, not fatal: the device keeps publishing and the subscriptions
// are reissued on the next Connected re-entry.
func (s *Supervisor) subscribeInbound(sess Session) {
	if err := sess.Subscribe(s.topics.Data, s.qos, s.handleTelemetry); err != nil {
		s.logger.Error("telemetry subscription failed", "topic", s.topics.Data, "error", err)
	}
	if err := sess.Subscribe(s.topics.Status, s.qos, s.handleStatus); err != nil {
		s.logger.Error("status subscription failed", "topic", s.topics.Status, "error", err)
	}
}

// handleTelemetry routes a data-topic message into the state cache.
// Malformed payloads are logged and dropped; the last good snapshot stays.
func (s *Supervisor) handleTelemetry(_ string, payload []byte) error {
	if err := s.cache.Replace(payload); err != nil {
		s.logger.Warn("discarding malformed telemetry", "error", err)
		return nil
	}

	snapshot := s.cache.Read()
	s.logger.Debug("telemetry applied", "led_on", snapshot.LEDOn)

	if s.recorder != nil {
		s.recorder.RecordSnapshot(snapshot)
	}
	return nil
}

// handleStatus logs status-topic messages. Status is observational only and
// never mutates the state cache.
func (s *Supervisor) handleStatus(_ string, payload []byte) error {
	s.logger.Info("device status", "status", strings.TrimSpace(string(payload)))
	return nil
}

// setState records a state transition and, when provided, the error that
// caused it. An empty lastErr clears nothing: the previous error is kept
// for operator inspection until a new one replaces it.
func (s *Supervisor) setState(state SessionState, lastErr string) {
	s.mu.Lock()
	s.state = state
	if lastErr != "" {
		s.lastErr = lastErr
	}
	s.mu.Unlock()
}

// State returns the current session state.
func (s *Supervisor) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsConnected reports whether a live session exists right now. Cheap enough
// to poll per HTTP request.
func (s *Supervisor) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == Connected && s.session != nil && s.session.IsConnected()
}

// LastError returns the most recent session-level error string, or "" if
// none has occurred. Raw transport errors never cross this boundary as
// values — only their text, for status reporting.
func (s *Supervisor) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Publish sends a payload through the active session. It fails with
// mqtt.ErrNotConnected when no live session exists, without blocking on
// reconnection.
func (s *Supervisor) Publish(topic string, payload []byte, qos byte, retained bool) error {
	s.mu.RLock()
	sess := s.session
	state := s.state
	s.mu.RUnlock()

	if sess == nil || state != Connected {
		return mqtt.ErrNotConnected
	}
	return sess.Publish(topic, payload, qos, retained)
}
