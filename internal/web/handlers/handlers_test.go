package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ward-resolver/internal/engine"
)

type stubResolver struct {
	result engine.Result
	err    error
	got    engine.Address
	calls  int
}

func (s *stubResolver) Resolve(_ context.Context, addr engine.Address) (engine.Result, error) {
	s.calls++
	s.got = addr
	return s.result, s.err
}

func postResolve(t *testing.T, h *ResolveHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/resolve-ward", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ResolveWard(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestResolveWardByMohalla(t *testing.T) {
	stub := &stubResolver{result: engine.Result{
		Basis: engine.BasisMohalla,
		Ward:  &engine.ResolvedWard{Number: 12, Name: "Ramganj Ward", Mohalla: "Ramganj", Confidence: 0.62},
	}}
	h := &ResolveHandler{Resolver: stub, DefaultCity: "lucknow"}

	rec := postResolve(t, h, `{"address":"462/236 ramganj hussianabad lucknow","city":" Lucknow "}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"ward_number":12,"ward_name":"Ramganj Ward","mohalla":"Ramganj","score":0.62}`, rec.Body.String())
	assert.Equal(t, "lucknow", stub.got.City)
	assert.Equal(t, "462/236 ramganj hussianabad lucknow", stub.got.Text)
}

func TestResolveWardByNameHasNullMohalla(t *testing.T) {
	stub := &stubResolver{result: engine.Result{
		Basis: engine.BasisWardName,
		Ward:  &engine.ResolvedWard{Number: 40, Name: "Chowk", Confidence: 0.83},
	}}
	h := &ResolveHandler{Resolver: stub, DefaultCity: "lucknow"}

	rec := postResolve(t, h, `{"address":"chowk"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ward_number":40,"ward_name":"Chowk","mohalla":null,"score":0.83}`, rec.Body.String())
	assert.Equal(t, "lucknow", stub.got.City, "empty city falls back to the default")
}

func TestResolveWardResponses(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		result     engine.Result
		err        error
		wantStatus int
		wantError  string
		wantCalls  int
	}{
		{
			name:       "unresolved",
			body:       `{"address":"near 12","city":"lucknow"}`,
			result:     engine.Result{Reason: engine.ReasonInsufficientConfidence},
			wantStatus: http.StatusNotFound,
			wantError:  MsgWardNotFound,
			wantCalls:  1,
		},
		{
			name:       "malformed json",
			body:       `{"address":`,
			wantStatus: http.StatusBadRequest,
			wantError:  MsgInvalidRequestBody,
		},
		{
			name:       "empty body",
			body:       ``,
			wantStatus: http.StatusBadRequest,
			wantError:  MsgInvalidRequestBody,
		},
		{
			name:       "missing address",
			body:       `{"city":"lucknow"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  MsgAddressRequired,
		},
		{
			name:       "null address",
			body:       `{"address":null}`,
			wantStatus: http.StatusBadRequest,
			wantError:  MsgAddressRequired,
		},
		{
			name:       "empty address is unresolved",
			body:       `{"address":""}`,
			result:     engine.Result{Reason: engine.ReasonInsufficientConfidence},
			wantStatus: http.StatusNotFound,
			wantError:  MsgWardNotFound,
			wantCalls:  1,
		},
		{
			name:       "blank address is unresolved",
			body:       `{"address":"   "}`,
			result:     engine.Result{Reason: engine.ReasonInsufficientConfidence},
			wantStatus: http.StatusNotFound,
			wantError:  MsgWardNotFound,
			wantCalls:  1,
		},
		{
			name:       "integrity fault",
			body:       `{"address":"ramganj"}`,
			err:        engine.WrapError(engine.ErrDataIntegrity, "get ward", errors.New("missing ward id 404")),
			wantStatus: http.StatusInternalServerError,
			wantError:  MsgInternalError,
			wantCalls:  1,
		},
		{
			name:       "upstream fault",
			body:       `{"address":"ramganj"}`,
			err:        engine.WrapError(engine.ErrUpstream, "search mohallas", errors.New("connection refused")),
			wantStatus: http.StatusServiceUnavailable,
			wantError:  MsgStoreUnavailable,
			wantCalls:  1,
		},
		{
			name:       "unclassified error",
			body:       `{"address":"ramganj"}`,
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantError:  MsgInternalError,
			wantCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubResolver{result: tt.result, err: tt.err}
			h := &ResolveHandler{Resolver: stub, DefaultCity: "lucknow"}

			rec := postResolve(t, h, tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeBody(t, rec)
			assert.Contains(t, body["error"], tt.wantError)
			assert.Equal(t, tt.wantCalls, stub.calls)
		})
	}
}

func TestResolveWardRejectsOversizedBody(t *testing.T) {
	h := &ResolveHandler{Resolver: &stubResolver{}, DefaultCity: "lucknow"}
	big := `{"address":"` + strings.Repeat("a", maxRequestBody) + `"}`

	rec := postResolve(t, h, big)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestStatusHandlers(t *testing.T) {
	live := httptest.NewRecorder()
	(&StatusHandler{Store: stubPinger{err: errors.New("down")}}).Liveness(live, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, live.Code)
	assert.JSONEq(t, `{"status":"ok"}`, live.Body.String())

	ready := httptest.NewRecorder()
	(&StatusHandler{Store: stubPinger{}}).Readiness(ready, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, ready.Code)
	assert.JSONEq(t, `{"status":"ready"}`, ready.Body.String())

	notReady := httptest.NewRecorder()
	(&StatusHandler{Store: stubPinger{err: errors.New("down")}}).Readiness(notReady, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, notReady.Code)
	assert.JSONEq(t, `{"error":"Reference store unavailable"}`, notReady.Body.String())
}

type stubSearcher struct {
	mohallas []engine.MohallaCandidate
	wards    []engine.WardCandidate
	err      error
	query    string
	city     string
}

func (s *stubSearcher) SearchWardsPhonetic(_ context.Context, query, city string) ([]engine.WardCandidate, error) {
	s.query, s.city = query, city
	return s.wards, s.err
}

func (s *stubSearcher) SearchMohallasFuzzy(_ context.Context, query, city string) ([]engine.MohallaCandidate, error) {
	s.query, s.city = query, city
	return s.mohallas, s.err
}

func TestSearchMohallas(t *testing.T) {
	store := &stubSearcher{mohallas: []engine.MohallaCandidate{
		{Name: "Ramganj", WardID: 7, Score: 1},
		{Name: "Rajganj", WardID: 9, Score: 0.5},
	}}
	h := &SearchHandler{Store: store, DefaultCity: "lucknow"}

	rec := httptest.NewRecorder()
	h.SearchMohallas(rec, httptest.NewRequest(http.MethodGet, "/api/search/mohallas?q=Ramganj,%20Road&limit=1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ramganj", store.query)
	assert.Equal(t, "lucknow", store.city)
	assert.JSONEq(t, `{"query":"ramganj","city":"lucknow","candidates":[{"mohalla_name":"Ramganj","ward_id":7,"score":1}]}`, rec.Body.String())
}

func TestSearchWardsEmptyResultIsArray(t *testing.T) {
	h := &SearchHandler{Store: &stubSearcher{}, DefaultCity: "lucknow"}

	rec := httptest.NewRecorder()
	h.SearchWards(rec, httptest.NewRequest(http.MethodGet, "/api/search/wards?q=chowk&city=Kanpur", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"query":"chowk","city":"kanpur","candidates":[]}`, rec.Body.String())
}

func TestSearchValidationAndFailure(t *testing.T) {
	h := &SearchHandler{Store: &stubSearcher{err: errors.New("timeout")}, DefaultCity: "lucknow"}

	rec := httptest.NewRecorder()
	h.SearchWards(rec, httptest.NewRequest(http.MethodGet, "/api/search/wards?q=near", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.SearchWards(rec, httptest.NewRequest(http.MethodGet, "/api/search/wards?q=chowk", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type stubCounter struct {
	wards, mohallas int
	err             error
	city            string
}

func (s *stubCounter) Counts(_ context.Context, city string) (int, int, error) {
	s.city = city
	return s.wards, s.mohallas, s.err
}

func TestGetStats(t *testing.T) {
	counter := &stubCounter{wards: 110, mohallas: 1450}
	h := &StatsHandler{Store: counter, DefaultCity: "lucknow"}

	rec := httptest.NewRecorder()
	h.GetStats(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"city":"lucknow","wards":110,"mohallas":1450}`, rec.Body.String())

	counter.err = errors.New("down")
	rec = httptest.NewRecorder()
	h.GetStats(rec, httptest.NewRequest(http.MethodGet, "/api/stats?city=kanpur", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "kanpur", counter.city)
}

func TestStatusForError(t *testing.T) {
	status, msg := statusForError(engine.WrapError(engine.ErrInvalidInput, MsgAddressRequired, nil))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "address is required: invalid input", msg)

	status, msg = statusForError(engine.WrapError(engine.ErrUpstream, "search wards", errors.New("dial tcp: refused")))
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, MsgStoreUnavailable, msg)
}
