// Package access отвечает, может ли вызывающий пользоваться функцией.
package access

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/fairwaylab/swingcoach/internal/apperr"
	"github.com/fairwaylab/swingcoach/internal/http/middlewarectx"
	"github.com/fairwaylab/swingcoach/internal/http/response"
	"github.com/fairwaylab/swingcoach/internal/lib/sl"
	"github.com/fairwaylab/swingcoach/internal/metrics"
	"github.com/fairwaylab/swingcoach/internal/models"
)

type Result struct {
	Feature string      `json:"feature"`
	Role    models.Role `json:"role"`
	Allowed bool        `json:"allowed"`
}

type Resolver interface {
	CanAccess(role models.Role, feature string) bool
}

// Authorizer проверяет доступ на стороне сервиса токенов по исходному токену.
type Authorizer interface {
	Authorize(ctx context.Context, token, feature string) (bool, models.Role, error)
}

type Handler struct {
	log        *slog.Logger
	resolver   Resolver
	authorizer Authorizer
	metrics    *metrics.Metrics
}

// New создаёт Handler. Если authorizer не nil, решение принимает сервис
// токенов, иначе локальный resolver.
func New(log *slog.Logger, resolver Resolver, authorizer Authorizer, m *metrics.Metrics) *Handler {
	return &Handler{log: log, resolver: resolver, authorizer: authorizer, metrics: m}
}

// ServeHTTP godoc
// @Summary Проверка доступа к функции
// @Description Отказ возвращается как allowed=false со статусом 200.
// @Tags Entitlements
// @Produce json
// @Security BearerAuth
// @Param feature path string true "Идентификатор функции, например batch-analysis"
// @Success 200 {object} response.Response{data=Result}
// @Failure 401 {object} response.ErrorResponse
// @Router /features/{feature}/access [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.entitlement.access"

	caller, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		response.Fail(w, r, apperr.Authentication("authentication required"))
		return
	}
	feature := chi.URLParam(r, "feature")
	if feature == "" {
		response.Fail(w, r, apperr.Validation("feature is required"))
		return
	}

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	role := caller.Role
	var allowed bool
	if h.authorizer != nil {
		token, _ := middlewarectx.TokenFrom(r.Context())
		var err error
		allowed, role, err = h.authorizer.Authorize(r.Context(), token, feature)
		if err != nil {
			log.Info("remote entitlement check failed", sl.Err(err))
			response.Fail(w, r, err)
			return
		}
	} else {
		allowed = h.resolver.CanAccess(role, feature)
	}

	h.metrics.EntitlementChecked(allowed)
	log.Debug("entitlement checked",
		slog.String("role", role.String()),
		slog.String("feature", feature),
		slog.Bool("allowed", allowed))

	render.JSON(w, r, response.OKWithData(Result{Feature: feature, Role: role, Allowed: allowed}))
}
