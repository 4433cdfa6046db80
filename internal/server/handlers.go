package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/docsift/docsift/internal/highlight"
	"github.com/docsift/docsift/internal/lexical"
	"github.com/docsift/docsift/internal/search"
	"github.com/docsift/docsift/pkg/version"
)

// searchRequest is the POST /search body. Pointer fields distinguish an
// omitted value from an explicit zero: absent max_results falls back to the
// configured default, an explicit 0 is rejected.
type searchRequest struct {
	Query             string   `json:"query"`
	MaxResults        *int     `json:"max_results"`
	FusionWeight      *float64 `json:"fusion_weight"`
	IncludeHighlights *bool    `json:"include_highlights"`
}

type searchResult struct {
	Source       string  `json:"source"`
	Location     string  `json:"location,omitempty"`
	Text         string  `json:"text"`
	Link         string  `json:"link,omitempty"`
	Score        float64 `json:"score"`
	DenseScore   float64 `json:"dense_score"`
	LexicalScore float64 `json:"lexical_score"`
	Highlighted  string  `json:"highlighted_text,omitempty"`
}

type searchResponse struct {
	Query        string         `json:"query"`
	TotalResults int            `json:"total_results"`
	Results      []searchResult `json:"results"`
}

// chatRequest accepts the query under either key; chat connectors send
// "message", plain API clients tend to send "query".
type chatRequest struct {
	Message    string `json:"message"`
	Query      string `json:"query"`
	MaxResults *int   `json:"max_results"`
}

type chatResponse struct {
	Message      string         `json:"message"`
	Query        string         `json:"query"`
	TotalResults int            `json:"total_results"`
	Results      []searchResult `json:"results"`
}

type healthResponse struct {
	Status     string `json:"status"`
	Ready      bool   `json:"ready"`
	Passages   int    `json:"passages"`
	Vocabulary int    `json:"vocabulary,omitempty"`
	Dimensions int    `json:"dimensions,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":   "docsift",
		"version":   version.Short(),
		"endpoints": []string{"/search", "/chat", "/health", "/metrics"},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	stats := s.searcher.Stats()
	if !stats.Ready {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "loading"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:     "ok",
		Ready:      true,
		Passages:   stats.Passages,
		Vocabulary: stats.Vocabulary,
		Dimensions: stats.Dimensions,
	})
}

func (s *Server) handleSearchPost(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	s.search(w, r, req)
}

func (s *Server) handleSearchGet(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	req := searchRequest{Query: params.Get("q")}

	if raw := params.Get("max_results"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "max_results must be an integer")
			return
		}
		req.MaxResults = &n
	}
	if raw := params.Get("fusion_weight"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "fusion_weight must be a number")
			return
		}
		req.FusionWeight = &f
	}
	if raw := params.Get("include_highlights"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "include_highlights must be a boolean")
			return
		}
		req.IncludeHighlights = &b
	}

	s.search(w, r, req)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request, req searchRequest) {
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	topK := s.config.DefaultTopK
	if req.MaxResults != nil {
		topK = *req.MaxResults
	}

	results, err := s.searcher.Query(r.Context(), req.Query, search.Options{
		TopK:   topK,
		Weight: req.FusionWeight,
	})
	if err != nil {
		s.writeSearchError(w, err)
		return
	}

	includeHighlights := req.IncludeHighlights == nil || *req.IncludeHighlights
	writeJSON(w, http.StatusOK, searchResponse{
		Query:        req.Query,
		TotalResults: len(results),
		Results:      toResults(results, includeHighlights),
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	query := req.Message
	if query == "" {
		query = req.Query
	}
	if strings.TrimSpace(query) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	topK := s.config.ChatTopK
	if req.MaxResults != nil {
		topK = *req.MaxResults
	}

	results, err := s.searcher.Query(r.Context(), query, search.Options{TopK: topK})
	if err != nil {
		s.writeSearchError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Message:      chatMessage(query, results),
		Query:        query,
		TotalResults: len(results),
		Results:      toResults(results, true),
	})
}

// writeSearchError maps engine failures onto HTTP statuses: invalid input is
// the caller's fault, a missing corpus means the service is still starting,
// and an embedding failure is an upstream outage.
func (s *Server) writeSearchError(w http.ResponseWriter, err error) {
	var embErr *search.EmbeddingError
	switch {
	case errors.Is(err, search.ErrNotReady):
		writeError(w, http.StatusServiceUnavailable, "no corpus loaded yet")
	case errors.Is(err, lexical.ErrEmptyQuery):
		writeError(w, http.StatusBadRequest, "query has no searchable terms")
	case errors.Is(err, search.ErrInvalidK):
		writeError(w, http.StatusBadRequest, "max_results must be positive")
	case errors.Is(err, search.ErrInvalidWeight):
		writeError(w, http.StatusBadRequest, "fusion_weight must be between 0 and 1")
	case errors.As(err, &embErr):
		slog.Error("embedding provider failed", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "embedding provider unavailable")
	default:
		slog.Error("search failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func toResults(results []search.Result, includeHighlights bool) []searchResult {
	out := make([]searchResult, len(results))
	for i, r := range results {
		out[i] = searchResult{
			Source:       r.Passage.Source,
			Location:     r.Passage.Location,
			Text:         r.Passage.Text,
			Link:         r.Passage.Link,
			Score:        r.Score,
			DenseScore:   r.DenseScore,
			LexicalScore: r.LexicalScore,
		}
		if includeHighlights {
			out[i].Highlighted = r.Highlighted
		}
	}
	return out
}

// chatMessage renders results as a short markdown answer for chat
// connectors: numbered entries with styled highlights and a deep link each.
func chatMessage(query string, results []search.Result) string {
	if len(results) == 0 {
		return fmt.Sprintf("I couldn't find any relevant information about %q. Try rephrasing the question or using different keywords.", query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I found %d relevant passages for %q:\n\n", len(results), query)
	for i, r := range results {
		title := r.Passage.Source
		if r.Passage.Location != "" {
			title = fmt.Sprintf("%s (%s)", title, r.Passage.Location)
		}
		fmt.Fprintf(&b, "**%d. %s**\n", i+1, title)
		b.WriteString(highlight.AnnotateWith(r.Passage.Text, query, highlight.StyledOpen, highlight.DefaultClose))
		b.WriteString("\n")
		if r.Passage.Link != "" {
			fmt.Fprintf(&b, "[Open %s](%s)\n", title, r.Passage.Link)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
