package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/uplift-app/uplift-api/internal/http/handlers"
	"github.com/uplift-app/uplift-api/internal/infra"
	"github.com/uplift-app/uplift-api/internal/middleware"
)

// NewRouter wires the middleware chain and the versioned API surface.
// lookup may be nil when no GeoIP database is configured; locale
// detection then relies on headers alone.
func NewRouter(cfg *infra.Config, app *handlers.App, lookup middleware.CountryLookup) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Locale"},
			AllowCredentials: false,
			MaxAge:           300,
		}),
		middleware.I18N("en", lookup),
		middleware.RateLimit(cfg.RateLimitPerMin, time.Minute),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/health/providers", app.ProviderHealth)
	r.Post("/v1/webhooks/payments", app.PaymentWebhook)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(cfg.JWTSecret))
		r.Post("/v1/messages/generate", app.GenerateMessage)
		r.Get("/v1/quota", app.Quota)
		r.Get("/v1/daily-drop", app.DailyDrop)
		r.Post("/v1/daily-drop/challenge/complete", app.CompleteChallenge)
		r.Get("/v1/entitlements", app.Entitlements)
	})

	return r
}
