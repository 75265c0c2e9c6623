// Package api собирает HTTP API: маршруты, middleware и зависимости.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/fairwaylab/swingcoach/internal/entitlement"
	"github.com/fairwaylab/swingcoach/internal/http/handlers/admin/approve"
	"github.com/fairwaylab/swingcoach/internal/http/handlers/admin/pending"
	"github.com/fairwaylab/swingcoach/internal/http/handlers/admin/users"
	"github.com/fairwaylab/swingcoach/internal/http/handlers/auth/login"
	"github.com/fairwaylab/swingcoach/internal/http/handlers/auth/me"
	"github.com/fairwaylab/swingcoach/internal/http/handlers/auth/register"
	"github.com/fairwaylab/swingcoach/internal/http/handlers/entitlement/access"
	"github.com/fairwaylab/swingcoach/internal/http/handlers/entitlement/features"
	plansh "github.com/fairwaylab/swingcoach/internal/http/handlers/entitlement/plans"
	"github.com/fairwaylab/swingcoach/internal/http/handlers/health"
	"github.com/fairwaylab/swingcoach/internal/http/handlers/payment/request"
	"github.com/fairwaylab/swingcoach/internal/http/handlers/subscription/current"
	"github.com/fairwaylab/swingcoach/internal/http/middlewarectx"
	"github.com/fairwaylab/swingcoach/internal/metrics"
	"github.com/fairwaylab/swingcoach/internal/plans"
	"github.com/fairwaylab/swingcoach/internal/ratelimit"
	"github.com/fairwaylab/swingcoach/internal/services/admin"
	"github.com/fairwaylab/swingcoach/internal/services/auth"
	"github.com/fairwaylab/swingcoach/internal/services/payment"
	"github.com/fairwaylab/swingcoach/internal/services/subscription"

	// Регистрация swagger-спецификации.
	_ "github.com/fairwaylab/swingcoach/docs"
)

// Deps — зависимости маршрутов.
type Deps struct {
	Log          *slog.Logger
	Auth         *auth.Service
	Verifier     middlewarectx.Verifier
	Ledger       *payment.Ledger
	Subscription *subscription.Activator
	Admin        *admin.Gateway
	Resolver     *entitlement.Resolver
	Authorizer   access.Authorizer // nil: доступ решает Resolver
	Catalog      *plans.Catalog
	Limiter      ratelimit.Limiter
	Metrics      *metrics.Metrics
	MetricsPage  http.Handler
	Health       health.Checker
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, d Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middlewarectx.MetricsMiddleware(d.Metrics),
	)

	limited := middlewarectx.RateLimitMiddleware(d.Limiter, d.Log)
	required := middlewarectx.JWTMiddleware(d.Verifier, d.Log)
	optional := middlewarectx.OptionalJWT(d.Verifier, d.Log)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Get("/plans", plansh.New(d.Log, d.Catalog, d.Resolver).ServeHTTP)
		r.With(limited).Post("/auth/register", register.New(d.Log, d.Auth).ServeHTTP)
		r.With(limited).Post("/auth/login", login.New(d.Log, d.Auth).ServeHTTP)
		r.With(limited, optional).Post("/payments/request", request.New(d.Log, d.Ledger).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(required)
			r.Get("/auth/me", me.New(d.Log, d.Auth).ServeHTTP)
			r.Get("/features", features.New(d.Log, d.Resolver).ServeHTTP)
			r.Get("/features/{feature}/access", access.New(d.Log, d.Resolver, d.Authorizer, d.Metrics).ServeHTTP)
			r.Get("/subscription", current.New(d.Log, d.Subscription).ServeHTTP)

			r.Route("/admin", func(r chi.Router) {
				r.Get("/payments/pending", pending.New(d.Log, d.Admin).ServeHTTP)
				r.Post("/payments/approve", approve.New(d.Log, d.Admin).ServeHTTP)
				r.Get("/users", users.New(d.Log, d.Admin).ServeHTTP)
			})
		})
	})

	r.Get("/health", health.New(d.Log, d.Health).ServeHTTP)
	if d.MetricsPage != nil {
		r.Handle("/metrics", d.MetricsPage)
	}
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
