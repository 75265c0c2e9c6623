// Package users отдаёт администратору список пользователей без хешей паролей.
package users

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/fairwaylab/swingcoach/internal/apperr"
	"github.com/fairwaylab/swingcoach/internal/http/middlewarectx"
	"github.com/fairwaylab/swingcoach/internal/http/response"
	"github.com/fairwaylab/swingcoach/internal/lib/sl"
	"github.com/fairwaylab/swingcoach/internal/models"
)

type Service interface {
	ListUsers(ctx context.Context, caller models.Identity) ([]models.UserView, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Пользователи
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.UserView}
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /admin/users [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.users"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	caller, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		response.Fail(w, r, apperr.Authentication("authentication required"))
		return
	}

	list, err := h.service.ListUsers(r.Context(), caller)
	if err != nil {
		log.Info("failed to list users", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	if list == nil {
		list = []models.UserView{}
	}
	render.JSON(w, r, response.OKWithData(list))
}
