package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Pinger reports whether the reference store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatusHandler serves liveness and readiness probes
type StatusHandler struct {
	Store       Pinger
	PingTimeout time.Duration
}

// StatusResponse is the body of the probe endpoints
type StatusResponse struct {
	Status string `json:"status"`
}

// Liveness always reports ok while the process serves requests
func (h *StatusHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// Readiness reports ready only when the reference store answers a ping
func (h *StatusHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	timeout := h.PingTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	if err := h.Store.Ping(ctx); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("readiness check failed")
		writeError(w, http.StatusServiceUnavailable, MsgStoreUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ready"})
}
