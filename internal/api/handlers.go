package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"stockintel/pkg/stockintel"
)

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, map[string]any{"healthy": true})
}

// analyze runs the full analysis pipeline for one symbol and returns the
// synthesized report. Repeated requests within the cache TTL are served
// from cache.
func (h *handler) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	report, err := h.core.Analyze(r.Context(), req.Symbol)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}

	writeSuccess(w, analyzeResponse{
		Symbol:      report.Symbol,
		CompanyName: report.CompanyName,
		Timestamp:   report.GeneratedAt.Format(time.RFC3339),
		Report: reportPayload{
			HTMLContent: report.HTMLContent,
			Verdict:     report.Verdict,
			Sections:    report.Sections,
			Partial:     report.Partial,
		},
	})
}

// search resolves a free-text query to candidate symbols. Queries below
// the minimum length yield an empty list, not an error, without reaching
// the resolver.
func (h *handler) search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(query) < stockintel.MinSearchQueryLen {
		writeSuccess(w, []stockintel.SymbolMatch{})
		return
	}
	writeSuccess(w, h.core.SearchSymbols(r.Context(), query))
}

func (h *handler) invalidateReport(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	h.core.InvalidateReport(symbol)
	writeSuccess(w, map[string]string{"invalidated": symbol})
}
