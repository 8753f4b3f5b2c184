package router

import (
	"encoding/json"
	"net/http"

	"github.com/BerylCAtieno/legal-document-analyzer/internal/handlers"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/middleware"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/ratelimit"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/services"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/utils"

	"github.com/gorilla/mux"
)

type Options struct {
	// AllowedOrigins are the CORS origins; "*" allows any.
	AllowedOrigins []string
	// Limiter is optional. Without it requests are not rate limited.
	Limiter ratelimit.Limiter
}

func NewRouter(docService services.DocumentService, opts Options, logger *utils.Logger) http.Handler {
	r := mux.NewRouter()

	docHandler := handlers.NewDocumentHandler(docService, logger)

	// Every route is also served under /api for clients behind a path-based proxy.
	registerRoutes(r.PathPrefix("/api").Subrouter(), docHandler)
	registerRoutes(r, docHandler)

	return middleware.Chain(r,
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(opts.AllowedOrigins),
		middleware.RateLimit(opts.Limiter, logger, "/health", "/api/health"),
	)
}

func registerRoutes(r *mux.Router, docHandler *handlers.DocumentHandler) {
	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	r.HandleFunc("/health", docHandler.Health).Methods(http.MethodGet)

	r.HandleFunc("/documents/analyze", docHandler.AnalyzeDocument).Methods(http.MethodPost)
	r.HandleFunc("/documents/languages", docHandler.SupportedLanguages).Methods(http.MethodGet)
	r.HandleFunc("/documents/supported-types", docHandler.SupportedTypes).Methods(http.MethodGet)
	r.HandleFunc("/documents/history", docHandler.ListAnalyses).Methods(http.MethodGet)
	r.HandleFunc("/documents/history/{id}", docHandler.GetAnalysis).Methods(http.MethodGet)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "Route not found",
		"path":  r.URL.RequestURI(),
	})
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "Method not allowed",
		"path":  r.URL.RequestURI(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
