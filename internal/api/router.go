package api

import (
	"askai-backend/internal/config"
	"askai-backend/internal/handlers"
	"askai-backend/pkg/httputil"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterDependencies holds all the dependencies required by the router setup,
// primarily handlers and configuration.
type RouterDependencies struct {
	AskHandler *handlers.AskHandlers
	Config     *config.Config
}

// NewRouter creates and configures the main Chi router for the application.
func NewRouter(deps RouterDependencies) *chi.Mux {
	if deps.AskHandler == nil {
		panic("AskHandler dependency is nil in router setup")
	}
	if deps.Config == nil {
		panic("Config dependency is nil in router setup")
	}

	r := chi.NewRouter()

	// --- Base Middleware Stack ---
	r.Use(middleware.RequestID) // Inject request ID into context
	r.Use(middleware.RealIP)    // Use X-Forwarded-For or X-Real-IP
	r.Use(middleware.Logger)    // Log requests
	r.Use(middleware.Recoverer) // Recover from panics, return 500
	// Outer bound for the whole request; the provider call has its own, shorter timeout.
	r.Use(middleware.Timeout(deps.Config.ProviderTimeout + 15*time.Second))

	// --- CORS Configuration ---
	// "*" for deployed builds, a single dev origin (e.g. http://localhost:5173) locally.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Get("/", deps.AskHandler.HandleRoot)
	r.Get("/health", deps.AskHandler.HandleHealth)
	r.Post("/ask", deps.AskHandler.HandleAsk)
	r.Get("/history", deps.AskHandler.HandleHistory)
	r.Get("/diagnostics/provider", deps.AskHandler.HandleDiagnostics)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.RespondError(w, http.StatusNotFound, "Not Found")
	})

	return r
}
