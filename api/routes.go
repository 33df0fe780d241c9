package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"shortcut-panel/app"
)

func RegisterRoutes(c *app.Container) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	origins := c.Config.Server.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	h := &handler{app: c}

	// Command shortcuts
	r.Get("/api/commands", h.listCommands)
	r.Post("/api/commands", h.addCommand)
	r.Delete("/api/commands/{id}", h.deleteCommand)
	r.Post("/api/commands/{id}/execute", h.executeCommand)

	// Snippet shortcuts
	r.Get("/api/snippets", h.listSnippets)
	r.Post("/api/snippets", h.addSnippet)
	r.Delete("/api/snippets/{id}", h.deleteSnippet)
	r.Post("/api/snippets/{id}/execute", h.executeSnippet)

	// Panel views
	r.Get("/api/completions", h.completions)
	r.Get("/api/tree", h.tree)
	r.Get("/api/events", h.handleEvents)

	// Terminal sessions
	r.Get("/api/sessions", h.listSessions)
	r.Post("/api/sessions", h.createSession)
	r.Delete("/api/sessions/{id}", h.killSession)
	r.Get("/api/sessions/{id}/ws", h.handleWS)

	return r
}

type handler struct {
	app *app.Container
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
