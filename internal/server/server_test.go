package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsift/docsift/internal/corpus"
	"github.com/docsift/docsift/internal/lexical"
	"github.com/docsift/docsift/internal/search"
)

// ============================================================================
// Test doubles and helpers
// ============================================================================

type stubSearcher struct {
	results  []search.Result
	queryErr error
	stats    search.Stats

	lastText string
	lastOpts search.Options
}

func (s *stubSearcher) Query(_ context.Context, text string, opts search.Options) ([]search.Result, error) {
	s.lastText = text
	s.lastOpts = opts
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return s.results, nil
}

func (s *stubSearcher) Load(context.Context, []corpus.Passage) error { return nil }
func (s *stubSearcher) Stats() search.Stats                          { return s.stats }
func (s *stubSearcher) Ready() bool                                  { return s.stats.Ready }

func readyStats() search.Stats {
	return search.Stats{Ready: true, Passages: 5, Vocabulary: 40, Dimensions: 128}
}

func sampleResults() []search.Result {
	return []search.Result{
		{
			Passage: corpus.Passage{
				ID:       0,
				Source:   "GDPR Handbook",
				Location: "Page 12",
				Text:     "GDPR compliance requires consent",
				Link:     "https://example.com/gdpr.pdf#page=12",
			},
			Score:        0.82,
			DenseScore:   0.9,
			LexicalScore: 0.63,
			Highlighted:  "<mark>GDPR</mark> compliance requires <mark>consent</mark>",
		},
	}
}

func newTestRouter(t *testing.T, stub *stubSearcher) http.Handler {
	t.Helper()
	srv, err := New(stub, Config{})
	require.NoError(t, err)
	return srv.Router()
}

func doRequest(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

// ============================================================================
// Construction
// ============================================================================

func TestNew_NilSearcher(t *testing.T) {
	_, err := New(nil, Config{})
	assert.ErrorContains(t, err, "searcher is required")
}

// ============================================================================
// POST /search
// ============================================================================

func TestSearchPost_ReturnsResults(t *testing.T) {
	stub := &stubSearcher{results: sampleResults(), stats: readyStats()}
	router := newTestRouter(t, stub)

	rec := doRequest(t, router, http.MethodPost, "/search", map[string]any{"query": "gdpr consent"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp searchResponse
	decodeInto(t, rec, &resp)
	assert.Equal(t, "gdpr consent", resp.Query)
	assert.Equal(t, 1, resp.TotalResults)
	require.Len(t, resp.Results, 1)

	got := resp.Results[0]
	assert.Equal(t, "GDPR Handbook", got.Source)
	assert.Equal(t, "Page 12", got.Location)
	assert.Equal(t, "https://example.com/gdpr.pdf#page=12", got.Link)
	assert.InDelta(t, 0.82, got.Score, 1e-9)
	assert.InDelta(t, 0.9, got.DenseScore, 1e-9)
	assert.InDelta(t, 0.63, got.LexicalScore, 1e-9)
	assert.Contains(t, got.Highlighted, "<mark>GDPR</mark>")

	assert.Equal(t, "gdpr consent", stub.lastText)
	assert.Equal(t, 5, stub.lastOpts.TopK, "omitted max_results uses the configured default")
	assert.Nil(t, stub.lastOpts.Weight, "omitted fusion_weight keeps the engine default")
}

func TestSearchPost_ExplicitParameters(t *testing.T) {
	stub := &stubSearcher{results: sampleResults(), stats: readyStats()}
	router := newTestRouter(t, stub)

	rec := doRequest(t, router, http.MethodPost, "/search", map[string]any{
		"query":              "gdpr",
		"max_results":        2,
		"fusion_weight":      0.4,
		"include_highlights": false,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 2, stub.lastOpts.TopK)
	require.NotNil(t, stub.lastOpts.Weight)
	assert.InDelta(t, 0.4, *stub.lastOpts.Weight, 1e-9)

	assert.NotContains(t, rec.Body.String(), "highlighted_text")
}

func TestSearchPost_ExplicitZeroMaxResultsPassedThrough(t *testing.T) {
	// An explicit 0 is not the same as an omitted field; the engine decides
	// it is invalid.
	stub := &stubSearcher{queryErr: fmt.Errorf("%w: got 0", search.ErrInvalidK), stats: readyStats()}
	router := newTestRouter(t, stub)

	rec := doRequest(t, router, http.MethodPost, "/search", map[string]any{
		"query":       "gdpr",
		"max_results": 0,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, stub.lastOpts.TopK)
}

func TestSearchPost_MissingQuery(t *testing.T) {
	stub := &stubSearcher{stats: readyStats()}
	router := newTestRouter(t, stub)

	rec := doRequest(t, router, http.MethodPost, "/search", map[string]any{"max_results": 3})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	decodeInto(t, rec, &resp)
	assert.Equal(t, "query is required", resp.Error)
}

func TestSearchPost_MalformedBody(t *testing.T) {
	stub := &stubSearcher{stats: readyStats()}
	router := newTestRouter(t, stub)

	req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid request body")
}

// ============================================================================
// GET /search
// ============================================================================

func TestSearchGet_ParsesParams(t *testing.T) {
	stub := &stubSearcher{results: sampleResults(), stats: readyStats()}
	router := newTestRouter(t, stub)

	rec := doRequest(t, router, http.MethodGet,
		"/search?q=gdpr+consent&max_results=7&fusion_weight=0.25&include_highlights=false", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "gdpr consent", stub.lastText)
	assert.Equal(t, 7, stub.lastOpts.TopK)
	require.NotNil(t, stub.lastOpts.Weight)
	assert.InDelta(t, 0.25, *stub.lastOpts.Weight, 1e-9)
	assert.NotContains(t, rec.Body.String(), "highlighted_text")
}

func TestSearchGet_InvalidParams(t *testing.T) {
	stub := &stubSearcher{stats: readyStats()}
	router := newTestRouter(t, stub)

	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"non-numeric max_results", "/search?q=x&max_results=many", "max_results must be an integer"},
		{"non-numeric fusion_weight", "/search?q=x&fusion_weight=heavy", "fusion_weight must be a number"},
		{"non-boolean include_highlights", "/search?q=x&include_highlights=si", "include_highlights must be a boolean"},
		{"missing q", "/search", "query is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodGet, tt.target, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

// ============================================================================
// Error mapping
// ============================================================================

func TestSearch_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not ready", search.ErrNotReady, http.StatusServiceUnavailable},
		{"unscorable query", fmt.Errorf("tokenize query: %w", lexical.ErrEmptyQuery), http.StatusBadRequest},
		{"invalid k", fmt.Errorf("%w: got -1", search.ErrInvalidK), http.StatusBadRequest},
		{"invalid weight", fmt.Errorf("%w: got 1.5", search.ErrInvalidWeight), http.StatusBadRequest},
		{"embedding outage", &search.EmbeddingError{Err: errors.New("api down")}, http.StatusBadGateway},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubSearcher{queryErr: tt.err, stats: readyStats()}
			router := newTestRouter(t, stub)

			rec := doRequest(t, router, http.MethodPost, "/search", map[string]any{"query": "gdpr"})
			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp errorResponse
			decodeInto(t, rec, &resp)
			assert.NotEmpty(t, resp.Error)
			if tt.wantStatus == http.StatusInternalServerError {
				assert.Equal(t, "internal error", resp.Error, "internals are not leaked to clients")
			}
		})
	}
}

// ============================================================================
// POST /chat
// ============================================================================

func TestChat_FormatsMessage(t *testing.T) {
	stub := &stubSearcher{results: sampleResults(), stats: readyStats()}
	router := newTestRouter(t, stub)

	rec := doRequest(t, router, http.MethodPost, "/chat", map[string]any{"message": "gdpr consent"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp chatResponse
	decodeInto(t, rec, &resp)
	assert.Equal(t, "gdpr consent", resp.Query)
	assert.Equal(t, 1, resp.TotalResults)
	assert.Contains(t, resp.Message, "**1. GDPR Handbook (Page 12)**")
	assert.Contains(t, resp.Message, `<mark style=`, "chat messages carry styled highlights")
	assert.Contains(t, resp.Message, "(https://example.com/gdpr.pdf#page=12)")

	assert.Equal(t, 3, stub.lastOpts.TopK, "chat uses its own smaller default")
}

func TestChat_AcceptsQueryKey(t *testing.T) {
	stub := &stubSearcher{results: sampleResults(), stats: readyStats()}
	router := newTestRouter(t, stub)

	rec := doRequest(t, router, http.MethodPost, "/chat", map[string]any{"query": "gdpr"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gdpr", stub.lastText)
}

func TestChat_NoResults(t *testing.T) {
	stub := &stubSearcher{stats: readyStats()}
	router := newTestRouter(t, stub)

	rec := doRequest(t, router, http.MethodPost, "/chat", map[string]any{"message": "quantum"})
	require.Equal(t, http.StatusOK, rec.Code, "an empty result set is a successful answer")

	var resp chatResponse
	decodeInto(t, rec, &resp)
	assert.Contains(t, resp.Message, "couldn't find any relevant information")
	assert.Equal(t, 0, resp.TotalResults)
}

func TestChat_MissingMessage(t *testing.T) {
	stub := &stubSearcher{stats: readyStats()}
	router := newTestRouter(t, stub)

	rec := doRequest(t, router, http.MethodPost, "/chat", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "message is required")
}

// ============================================================================
// Health, index, 404, metrics
// ============================================================================

func TestHealth_BeforeLoad(t *testing.T) {
	stub := &stubSearcher{}
	router := newTestRouter(t, stub)

	rec := doRequest(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp healthResponse
	decodeInto(t, rec, &resp)
	assert.Equal(t, "loading", resp.Status)
	assert.False(t, resp.Ready)
}

func TestHealth_Ready(t *testing.T) {
	stub := &stubSearcher{stats: readyStats()}
	router := newTestRouter(t, stub)

	rec := doRequest(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	decodeInto(t, rec, &resp)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Ready)
	assert.Equal(t, 5, resp.Passages)
	assert.Equal(t, 40, resp.Vocabulary)
	assert.Equal(t, 128, resp.Dimensions)
}

func TestIndex_DescribesService(t *testing.T) {
	router := newTestRouter(t, &stubSearcher{})

	rec := doRequest(t, router, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "docsift")
	assert.Contains(t, rec.Body.String(), "/search")
}

func TestNotFound_IsJSON(t *testing.T) {
	router := newTestRouter(t, &stubSearcher{})

	rec := doRequest(t, router, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp errorResponse
	decodeInto(t, rec, &resp)
	assert.Equal(t, "endpoint not found", resp.Error)
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubSearcher{})

	rec := doRequest(t, router, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# HELP")
}

func TestCORS_AllowsAnyOrigin(t *testing.T) {
	router := newTestRouter(t, &stubSearcher{stats: readyStats()})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://copilot.example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
