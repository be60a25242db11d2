package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/mpmail/internal/handler"
	"github.com/mpmail/internal/middleware"
	"github.com/mpmail/internal/web"
)

func (app *App) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders)

	// Static files
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(web.StaticFS)))

	// Health check
	r.Get("/api/health", handler.Health(app.directory))

	composeHandler := handler.NewComposeHandler(app.logger, app.directory, app.service, web.Templates,
		app.defaultTemplate, app.config.PreserveAnswers)
	apiHandler := handler.NewAPIHandler(app.logger, app.directory, app.service)

	r.Get("/", composeHandler.Page)
	r.Get("/api/representatives", apiHandler.Representatives)

	// Field refreshes follow template edits and stay unlimited.
	r.Post("/fields", composeHandler.Fields)
	r.Post("/api/fields", apiHandler.Fields)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(app.config.RateLimitPerMinute))

		r.Post("/compose", composeHandler.Compose)
		r.Post("/api/compose", apiHandler.Compose)
	})
	return r
}
