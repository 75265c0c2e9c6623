// Package approve подтверждает заявку на оплату и активирует подписку.
package approve

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/fairwaylab/swingcoach/internal/apperr"
	"github.com/fairwaylab/swingcoach/internal/http/middlewarectx"
	"github.com/fairwaylab/swingcoach/internal/http/response"
	"github.com/fairwaylab/swingcoach/internal/lib/sl"
	"github.com/fairwaylab/swingcoach/internal/models"
)

type Request struct {
	PaymentID int64 `json:"paymentId" validate:"gt=0"`
}

// Result — итог подтверждения. Subscription пуст для анонимной заявки.
type Result struct {
	Message         string               `json:"message"`
	PaymentID       int64                `json:"paymentId"`
	AlreadyApproved bool                 `json:"alreadyApproved"`
	Subscription    *models.Subscription `json:"subscription,omitempty"`
}

type Service interface {
	ApprovePayment(ctx context.Context, caller models.Identity, paymentID int64) (*models.ApprovalResult, error)
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Подтверждение оплаты
// @Description Переводит заявку в approved и в той же транзакции активирует подписку. Повторный вызов ничего не меняет.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "ID заявки"
// @Success 200 {object} response.Response{data=Result}
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/payments/approve [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.approve"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	caller, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		response.Fail(w, r, apperr.Authentication("authentication required"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.InvalidBody(w, r)
		return
	}
	if !response.Validate(w, r, h.validate, req) {
		return
	}

	res, err := h.service.ApprovePayment(r.Context(), caller, req.PaymentID)
	if err != nil {
		log.Info("approve failed", slog.Int64("payment_id", req.PaymentID), sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	msg := "payment approved"
	if res.AlreadyApproved {
		msg = "payment already approved"
	}
	log.Info(msg, slog.Int64("payment_id", req.PaymentID), slog.String("admin", caller.UserID))
	render.JSON(w, r, response.OKWithData(Result{
		Message:         msg,
		PaymentID:       res.Payment.ID,
		AlreadyApproved: res.AlreadyApproved,
		Subscription:    res.Subscription,
	}))
}
