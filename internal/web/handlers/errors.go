package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ward-resolver/internal/engine"
)

// ErrorResponse is the body of every non-2xx JSON response
type ErrorResponse struct {
	Error string `json:"error"`
}

// Error messages exposed to clients
const (
	MsgWardNotFound       = "Ward not found"
	MsgStoreUnavailable   = "Reference store unavailable"
	MsgInternalError      = "Internal server error"
	MsgAddressRequired    = "address is required"
	MsgInvalidRequestBody = "invalid request body"
)

// statusForError maps an engine error kind to an HTTP status and client
// message. Invalid input errors are echoed to the caller.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, engine.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, engine.ErrDataIntegrity):
		return http.StatusInternalServerError, MsgInternalError
	case errors.Is(err, engine.ErrUpstream):
		return http.StatusServiceUnavailable, MsgStoreUnavailable
	default:
		return http.StatusInternalServerError, MsgInternalError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeEngineError logs err with the request logger and writes the mapped response
func writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusForError(err)
	evt := zerolog.Ctx(r.Context()).Warn()
	if status >= http.StatusInternalServerError {
		evt = zerolog.Ctx(r.Context()).Error()
	}
	evt.Err(err).Int("status", status).Msg("request failed")
	writeError(w, status, msg)
}

func normalizeCity(city, fallback string) string {
	city = strings.ToLower(strings.TrimSpace(city))
	if city == "" {
		return fallback
	}
	return city
}
