package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"stockintel/pkg/stockintel"
)

// NewRouter builds the HTTP API router.
func NewRouter(core *stockintel.Core) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLoggingMiddleware(core.Logger()))
	r.Use(recoveryLoggingMiddleware(core.Logger()))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	h := &handler{core: core}

	r.Get("/api/health", h.health)

	// Analysis
	r.Post("/api/analyze", h.analyze)
	r.Delete("/api/reports/{symbol}", h.invalidateReport)

	// Symbol search
	r.Get("/api/search", h.search)

	return r
}

type handler struct {
	core *stockintel.Core
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
