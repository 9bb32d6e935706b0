package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"entitlement/internal/http/handlers"
	"entitlement/internal/infra"
	"entitlement/internal/middleware"
)

// NewRouter wires the HTTP surface: public catalog/health plus the
// authenticated entitlement endpoints. lookup resolves client countries for
// locale detection and may be nil.
func NewRouter(app *handlers.App, cfg *infra.Config, logger zerolog.Logger, lookup middleware.CountryLookup) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(logger),
		middleware.CORS(cfg.AllowedOrigins),
		middleware.I18N(cfg.DefaultLocale, lookup),
		middleware.RateLimit(cfg.RateLimitPerMin, time.Minute),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/plans", app.Plans)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(cfg.JWTSecret))

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(cfg.EvaluateTimeout))
			r.Post("/v1/subscriptions", app.Subscribe)
			r.Delete("/v1/subscriptions/current", app.CancelCurrent)
			r.Get("/v1/entitlement", app.Entitlement)
			r.Get("/v1/entitlement/decision", app.Decision)
		})

		// the watch socket is long-lived and must not inherit the timeout
		r.Get("/v1/entitlement/watch", app.WatchActive)
	})

	return r
}
