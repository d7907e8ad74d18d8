package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/nerrad567/lumen-bridge/internal/audit"
	"github.com/nerrad567/lumen-bridge/internal/bridge"
)

// StateResponse is the snapshot response: the last-known device state plus
// the current session connectivity fact. Staleness is tolerated by design —
// the read never blocks on device liveness.
type StateResponse struct {
	bridge.DeviceState
	SessionConnected bool `json:"sessionConnected"`
}

// HealthResponse reports broker session liveness.
type HealthResponse struct {
	SessionConnected bool   `json:"sessionConnected"`
	SessionState     string `json:"sessionState"`
	LastError        string `json:"lastError,omitempty"`
	Version          string `json:"version"`
}

// CommandResponse confirms a broker-acknowledged command publish.
type CommandResponse struct {
	Ack         bridge.Ack `json:"ack"`
	CommandSent bool       `json:"commandSent"`
}

// LEDCommandRequest is the body for POST /api/v1/command/led.
// State is a pointer so a missing or non-boolean field is distinguishable
// from false.
type LEDCommandRequest struct {
	State *bool `json:"state"`
}

// RawCommandRequest is the body for POST /api/v1/command/raw.
type RawCommandRequest struct {
	Command string `json:"command"`
}

// handleGetState returns the current snapshot. Never fails.
func (s *Server) handleGetState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, StateResponse{
		DeviceState:      s.cache.Read(),
		SessionConnected: s.session.IsConnected(),
	})
}

// handleGetHealth returns session liveness. Never fails: a disconnected
// broker is a reportable fact, not an HTTP error.
func (s *Server) handleGetHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		SessionConnected: s.session.IsConnected(),
		SessionState:     s.session.State().String(),
		LastError:        s.session.LastError(),
		Version:          s.version,
	})
}

// handleSendLEDCommand publishes the canonical actuator command.
func (s *Server) handleSendLEDCommand(w http.ResponseWriter, r *http.Request) {
	var req LEDCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.State == nil {
		writeBadRequest(w, "state field is required and must be a boolean")
		return
	}

	ack, err := s.dispatcher.SendBool(r.Context(), *req.State)
	if err != nil {
		writePublishError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, CommandResponse{Ack: ack, CommandSent: true})
}

// handleSendRawCommand publishes an opaque free-text command.
func (s *Server) handleSendRawCommand(w http.ResponseWriter, r *http.Request) {
	var req RawCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	ack, err := s.dispatcher.SendRaw(r.Context(), req.Command)
	if err != nil {
		if errors.Is(err, bridge.ErrEmptyCommand) {
			writeBadRequest(w, "command must not be empty or whitespace-only")
			return
		}
		writePublishError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, CommandResponse{Ack: ack, CommandSent: true})
}

// handleListCommands returns the command audit log, most recent first.
// Returns an empty list when the audit trail is disabled.
func (s *Server) handleListCommands(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeJSON(w, http.StatusOK, audit.ListResult{Entries: []audit.Entry{}})
		return
	}

	filter := audit.Filter{
		Outcome: r.URL.Query().Get("outcome"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "limit must be an integer")
			return
		}
		filter.Limit = limit
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "offset must be an integer")
			return
		}
		filter.Offset = offset
	}

	result, err := s.audit.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list command log", "error", err)
		writeInternalError(w, "failed to list command log")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
