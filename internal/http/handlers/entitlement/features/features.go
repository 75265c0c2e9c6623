// Package features отдаёт список функций, доступных роли вызывающего.
package features

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/fairwaylab/swingcoach/internal/apperr"
	"github.com/fairwaylab/swingcoach/internal/http/middlewarectx"
	"github.com/fairwaylab/swingcoach/internal/http/response"
	"github.com/fairwaylab/swingcoach/internal/models"
)

type Result struct {
	Role     models.Role `json:"role"`
	Features []string    `json:"features"`
}

type Resolver interface {
	Features(role models.Role) []string
}

type Handler struct {
	log      *slog.Logger
	resolver Resolver
}

func New(log *slog.Logger, resolver Resolver) *Handler {
	return &Handler{log: log, resolver: resolver}
}

// ServeHTTP godoc
// @Summary Доступные функции
// @Description Роль берётся из токена, поэтому после оплаты нужен свежий токен (/auth/me).
// @Tags Entitlements
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=Result}
// @Failure 401 {object} response.ErrorResponse
// @Router /features [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	caller, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		response.Fail(w, r, apperr.Authentication("authentication required"))
		return
	}
	fs := h.resolver.Features(caller.Role)
	if fs == nil {
		fs = []string{}
	}
	render.JSON(w, r, response.OKWithData(Result{Role: caller.Role, Features: fs}))
}
