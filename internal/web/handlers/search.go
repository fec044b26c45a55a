package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/ward-resolver/internal/engine"
	"github.com/ward-resolver/internal/normalize"
)

// CandidateSearcher runs a single fuzzy search against one reference collection
type CandidateSearcher interface {
	SearchWardsPhonetic(ctx context.Context, query, city string) ([]engine.WardCandidate, error)
	SearchMohallasFuzzy(ctx context.Context, query, city string) ([]engine.MohallaCandidate, error)
}

// SearchHandler exposes raw candidate searches for diagnosing resolutions
type SearchHandler struct {
	Store       CandidateSearcher
	DefaultCity string
}

// SearchResponse wraps the candidates of one search
type SearchResponse[T any] struct {
	Query      string `json:"query"`
	City       string `json:"city"`
	Candidates []T    `json:"candidates"`
}

// SearchMohallas returns mohalla candidates for ?q=
func (h *SearchHandler) SearchMohallas(w http.ResponseWriter, r *http.Request) {
	query, city, limit, ok := h.parseSearch(w, r)
	if !ok {
		return
	}

	candidates, err := h.Store.SearchMohallasFuzzy(r.Context(), query, city)
	if err != nil {
		writeEngineError(w, r, engine.WrapError(engine.ErrUpstream, "search "+engine.CollectionMohallas, err))
		return
	}
	if candidates == nil {
		candidates = []engine.MohallaCandidate{}
	}
	writeJSON(w, http.StatusOK, SearchResponse[engine.MohallaCandidate]{
		Query:      query,
		City:       city,
		Candidates: truncate(candidates, limit),
	})
}

// SearchWards returns ward-name candidates for ?q=
func (h *SearchHandler) SearchWards(w http.ResponseWriter, r *http.Request) {
	query, city, limit, ok := h.parseSearch(w, r)
	if !ok {
		return
	}

	candidates, err := h.Store.SearchWardsPhonetic(r.Context(), query, city)
	if err != nil {
		writeEngineError(w, r, engine.WrapError(engine.ErrUpstream, "search "+engine.CollectionWards, err))
		return
	}
	if candidates == nil {
		candidates = []engine.WardCandidate{}
	}
	writeJSON(w, http.StatusOK, SearchResponse[engine.WardCandidate]{
		Query:      query,
		City:       city,
		Candidates: truncate(candidates, limit),
	})
}

func (h *SearchHandler) parseSearch(w http.ResponseWriter, r *http.Request) (query, city string, limit int, ok bool) {
	params := r.URL.Query()

	query = normalize.Normalize(params.Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "Search term required")
		return "", "", 0, false
	}

	limit = parseIntParam(params.Get("limit"), 10)
	if limit > 50 {
		limit = 50 // Maximum limit
	}
	return query, normalizeCity(params.Get("city"), h.DefaultCity), limit, true
}

func parseIntParam(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return defaultVal
	}
	return v
}

func truncate[T any](items []T, limit int) []T {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
