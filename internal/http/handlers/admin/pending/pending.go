// Package pending отдаёт администратору заявки, ожидающие подтверждения.
package pending

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
	ListPendingPayments(ctx context.Context, caller models.Identity) ([]*models.PaymentRequest, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Заявки в ожидании
// @Description Список заявок pending, новые первыми. Пустой список кодируется как [].
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.PaymentRequest}
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /admin/payments/pending [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.pending"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	caller, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		response.Fail(w, r, apperr.Authentication("authentication required"))
		return
	}

	list, err := h.service.ListPendingPayments(r.Context(), caller)
	if err != nil {
		log.Info("failed to list pending payments", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	if list == nil {
		list = []*models.PaymentRequest{}
	}

	log.Debug("pending payments listed", slog.Int("count", len(list)))
	render.JSON(w, r, response.OKWithData(list))
}
