package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/nlorenzo/facturo/internal/http/auth"
	"github.com/nlorenzo/facturo/internal/http/catalog"
	"github.com/nlorenzo/facturo/internal/http/document"
	"github.com/nlorenzo/facturo/internal/http/party"
)

type Config struct {
	// JWTSecret guards the API when set; empty disables auth for local use.
	JWTSecret      string
	AllowedOrigins []string
}

func New(
	cfg Config,
	invoicesV1 *document.Handler,
	ordersV1 *document.Handler,
	catalogV1 *catalog.Handler,
	clientsV1 *party.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	router.Route("/api/v1", func(r chi.Router) {
		if cfg.JWTSecret != "" {
			r.Use(auth.Middleware(cfg.JWTSecret))
		}

		r.Route("/invoices", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			invoicesV1.Routes(r)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			ordersV1.Routes(r)
		})

		// /catalog/import takes multipart uploads, so no content-type guard.
		r.Route("/catalog", catalogV1.Routes)

		r.Route("/clients", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			clientsV1.Routes(r)
		})
	})

	return router
}
