package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ward-resolver/internal/engine"
)

const maxRequestBody = 64 << 10

// Resolver is the resolution capability the handler depends on
type Resolver interface {
	Resolve(ctx context.Context, addr engine.Address) (engine.Result, error)
}

// ResolveHandler serves POST /resolve-ward
type ResolveHandler struct {
	Resolver    Resolver
	DefaultCity string
}

// ResolveRequest is the request body of POST /resolve-ward
type ResolveRequest struct {
	Address *string `json:"address"`
	City    string `json:"city"`
}

// ResolveResponse is the body of a successful resolution
type ResolveResponse struct {
	WardNumber int     `json:"ward_number"`
	WardName   string  `json:"ward_name"`
	Mohalla    *string `json:"mohalla"`
	Score      float64 `json:"score"`
}

// ResolveWard resolves a free-text address to a ward
func (h *ResolveHandler) ResolveWard(w http.ResponseWriter, r *http.Request) {
	req, err := decodeResolveRequest(w, r)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	result, err := h.Resolver.Resolve(r.Context(), engine.Address{
		Text: *req.Address,
		City: normalizeCity(req.City, h.DefaultCity),
	})
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	if !result.Resolved() {
		writeError(w, http.StatusNotFound, MsgWardNotFound)
		return
	}

	writeJSON(w, http.StatusOK, toResolveResponse(result))
}

func decodeResolveRequest(w http.ResponseWriter, r *http.Request) (ResolveRequest, error) {
	var req ResolveRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty body")
		}
		return req, engine.WrapError(engine.ErrInvalidInput, MsgInvalidRequestBody, err)
	}
	// A blank address is a valid request that resolves to nothing.
	if req.Address == nil {
		return req, engine.WrapError(engine.ErrInvalidInput, MsgAddressRequired, nil)
	}
	return req, nil
}

func toResolveResponse(result engine.Result) ResolveResponse {
	resp := ResolveResponse{
		WardNumber: result.Ward.Number,
		WardName:   result.Ward.Name,
		Score:      result.Ward.Confidence,
	}
	if result.Basis == engine.BasisMohalla {
		mohalla := result.Ward.Mohalla
		resp.Mohalla = &mohalla
	}
	return resp
}
