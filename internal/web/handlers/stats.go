package handlers

import (
	"context"
	"net/http"

	"github.com/ward-resolver/internal/engine"
)

// Counter reports reference row counts for a city
type Counter interface {
	Counts(ctx context.Context, city string) (wards, mohallas int, err error)
}

// StatsHandler handles reference data statistics
type StatsHandler struct {
	Store       Counter
	DefaultCity string
}

// StatsResponse represents the reference data held for one city
type StatsResponse struct {
	City     string `json:"city"`
	Wards    int    `json:"wards"`
	Mohallas int    `json:"mohallas"`
}

// GetStats returns ward and mohalla counts for ?city=
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	city := normalizeCity(r.URL.Query().Get("city"), h.DefaultCity)

	wards, mohallas, err := h.Store.Counts(r.Context(), city)
	if err != nil {
		writeEngineError(w, r, engine.WrapError(engine.ErrUpstream, "count reference rows", err))
		return
	}

	writeJSON(w, http.StatusOK, StatsResponse{City: city, Wards: wards, Mohallas: mohallas})
}
