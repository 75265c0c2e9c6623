// Package request принимает заявку о ручном банковском переводе.
// Токен необязателен: анонимная заявка сохраняется без user_id.
package request

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/fairwaylab/swingcoach/internal/http/middlewarectx"
	"github.com/fairwaylab/swingcoach/internal/http/response"
	"github.com/fairwaylab/swingcoach/internal/lib/sl"
	"github.com/fairwaylab/swingcoach/internal/models"
	"github.com/fairwaylab/swingcoach/internal/services/payment"
)

// Request — заявка на оплату.
type Request struct {
	Amount     int64   `json:"amount" validate:"gt=0"`
	SenderName string  `json:"senderName" validate:"required,max=200"`
	PlanName   string  `json:"planName" validate:"required,max=100"`
	ClubName   *string `json:"clubName,omitempty" validate:"omitempty,max=200"`
}

// Result — идентификатор созданной заявки.
type Result struct {
	PaymentID int64 `json:"paymentId"`
}

type Service interface {
	Submit(ctx context.Context, req payment.SubmitRequest) (*models.PaymentRequest, error)
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
// @Summary Заявка на оплату
// @Description Регистрирует банковский перевод в статусе pending. Клубные планы требуют clubName.
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body Request true "Данные перевода"
// @Success 200 {object} response.Response{data=Result}
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 429 {object} response.ErrorResponse
// @Router /payments/request [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.request"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.InvalidBody(w, r)
		return
	}
	if !response.Validate(w, r, h.validate, req) {
		return
	}

	submit := payment.SubmitRequest{
		Amount:     req.Amount,
		SenderName: req.SenderName,
		PlanName:   req.PlanName,
		ClubName:   req.ClubName,
	}
	if caller, ok := middlewarectx.IdentityFrom(r.Context()); ok {
		userID := caller.UserID
		submit.UserID = &userID
	}

	p, err := h.service.Submit(r.Context(), submit)
	if err != nil {
		log.Info("payment request rejected", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("payment request stored", slog.Int64("payment_id", p.ID))
	render.JSON(w, r, response.OKWithData(Result{PaymentID: p.ID}))
}
