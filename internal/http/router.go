package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/bonsai/internal/http/auth"
	"github.com/MrJamesThe3rd/bonsai/internal/http/company"
	"github.com/MrJamesThe3rd/bonsai/internal/http/export"
	"github.com/MrJamesThe3rd/bonsai/internal/http/importcsv"
	"github.com/MrJamesThe3rd/bonsai/internal/http/matching"
	"github.com/MrJamesThe3rd/bonsai/internal/http/receipt"
	"github.com/MrJamesThe3rd/bonsai/internal/http/respond"
	"github.com/MrJamesThe3rd/bonsai/internal/http/transaction"
	"github.com/MrJamesThe3rd/bonsai/internal/http/user"
)

type Options struct {
	Timeout     time.Duration
	CORSOrigins []string
	// Authenticate guards every route except /auth and /healthz.
	Authenticate func(http.Handler) http.Handler
}

type Handlers struct {
	Auth         *auth.Handler
	Users        *user.Handler
	Transactions *transaction.Handler
	Receipts     *receipt.Handler
	Companies    *company.Handler
	Import       *importcsv.Handler
	Matching     *matching.Handler
	Export       *export.Handler
}

func New(opts Options, h Handlers) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if opts.Timeout > 0 {
		router.Use(middleware.Timeout(opts.Timeout))
	}

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Auth.Routes(r)
		})

		r.Group(func(r chi.Router) {
			if opts.Authenticate != nil {
				r.Use(opts.Authenticate)
			}

			r.Route("/users", h.Users.Routes)

			r.Route("/transactions", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				h.Transactions.Routes(r)
			})

			r.Route("/receipts", h.Receipts.Routes)

			r.Route("/companies", h.Companies.Routes)

			r.Route("/import", h.Import.Routes)

			r.Route("/matching", h.Matching.Routes)

			r.Route("/export", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				h.Export.Routes(r)
			})
		})
	})

	return router
}
