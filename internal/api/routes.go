// Route registration and go-chi router setup.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Lay3rLabs/wavs-hats/internal/api/handlers"
	apmiddleware "github.com/Lay3rLabs/wavs-hats/internal/api/middleware"
	"github.com/Lay3rLabs/wavs-hats/internal/domain/run"
	"github.com/Lay3rLabs/wavs-hats/internal/infra/eventbus"
)

// Deps carries the services the router wires into handlers.
type Deps struct {
	Runner  handlers.PromptRunner
	Journal *run.Journal
	Bus     eventbus.EventBus
	// Hats enables the /api/v1/hats routes when non-nil.
	Hats     handlers.HatReader
	Provider string
	Model    string
	// JWTSecret enables bearer auth on /api/v1 when non-empty.
	JWTSecret string
}

// NewRouter creates and configures a new chi router with all routes.
// /health is always public; /api/v1/* requires a Bearer token when a
// JWT secret is configured.
func NewRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (runs on all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check — unauthenticated, used by load balancers and health probes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})

	agentHandler := handlers.NewAgentHandler(deps.Runner, deps.Journal, deps.Bus, deps.Provider, deps.Model)
	runHandler := handlers.NewRunHandler(deps.Journal)

	r.Route("/api/v1", func(r chi.Router) {
		if deps.JWTSecret != "" {
			r.Use(apmiddleware.Auth([]byte(deps.JWTSecret)))
		}

		r.Post("/prompt", agentHandler.Prompt)   // POST /api/v1/prompt
		r.Post("/trigger", agentHandler.Trigger) // POST /api/v1/trigger

		r.Route("/runs", func(r chi.Router) {
			r.Get("/", runHandler.ListRuns)   // GET /api/v1/runs
			r.Get("/{id}", runHandler.GetRun) // GET /api/v1/runs/{id}
		})

		if deps.Hats != nil {
			hatHandler := handlers.NewHatHandler(deps.Hats)
			r.Get("/hats/{address}", hatHandler.GetHat) // GET /api/v1/hats/{address}
		}
	})

	return r
}
