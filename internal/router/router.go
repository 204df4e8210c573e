package router

import (
	"github.com/Totarae/ShortLinks/internal/auth"
	"github.com/Totarae/ShortLinks/internal/handlers"
	"github.com/Totarae/ShortLinks/internal/middleware"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// NewRouter создаёт и настраивает маршрутизатор
func NewRouter(handler *handlers.Handler, admin *auth.Admin, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.LoggingMiddleware(logger))
	r.Use(middleware.GzipMiddleware)
	r.Use(middleware.CORSMiddleware)

	r.Get("/ping", handler.Ping)
	r.Get("/{hash}", handler.Redirect)

	r.Route("/api/links", func(r chi.Router) {
		r.Post("/", handler.CreateLink)
		r.Get("/", handler.ListLinks)

		// Административные операции за проверкой токена
		r.Group(func(r chi.Router) {
			r.Use(admin.Middleware)
			r.Delete("/", handler.DeleteAllLinks)
			r.Delete("/{id}", handler.DeleteLink)
		})
	})

	return r
}
