// Package admin — Admin Gateway: проверяет, что вызывающий администратор,
// и делегирует операции журналу оплат и хранилищу пользователей.
package admin

import (
	"context"
	"log/slog"

	"github.com/fairwaylab/swingcoach/internal/apperr"
	"github.com/fairwaylab/swingcoach/internal/lib/sl"
	"github.com/fairwaylab/swingcoach/internal/models"
)

// Ledger — операции журнала оплат, доступные администратору.
type Ledger interface {
	ListPending(ctx context.Context) ([]*models.PaymentRequest, error)
	Approve(ctx context.Context, id int64) (*models.ApprovalResult, error)
}

// UserLister читает пользователей из Credential Store.
type UserLister interface {
	ListUsers(ctx context.Context) ([]*models.User, error)
}

// Gateway — граница авторизации перед журналом и хранилищем.
type Gateway struct {
	ledger Ledger
	users  UserLister
	log    *slog.Logger
}

func New(ledger Ledger, users UserLister, log *slog.Logger) *Gateway {
	return &Gateway{
		ledger: ledger,
		users:  users,
		log:    log,
	}
}

func (g *Gateway) authorize(caller models.Identity, op string) error {
	if caller.UserID == "" {
		return apperr.Authentication("authentication required")
	}
	if !caller.IsAdmin() {
		g.log.Warn("admin operation denied",
			slog.String("op", op),
			slog.String("user_id", caller.UserID),
			slog.String("role", caller.Role.String()))
		return apperr.Forbidden("admin role required")
	}
	return nil
}

// ListPendingPayments возвращает ожидающие заявки.
func (g *Gateway) ListPendingPayments(ctx context.Context, caller models.Identity) ([]*models.PaymentRequest, error) {
	if err := g.authorize(caller, "admin.ListPendingPayments"); err != nil {
		return nil, err
	}
	return g.ledger.ListPending(ctx)
}

// ApprovePayment подтверждает заявку и активирует подписку одной транзакцией.
func (g *Gateway) ApprovePayment(ctx context.Context, caller models.Identity, paymentID int64) (*models.ApprovalResult, error) {
	const op = "admin.ApprovePayment"
	if err := g.authorize(caller, op); err != nil {
		return nil, err
	}
	if paymentID <= 0 {
		return nil, apperr.Validation("payment id must be positive")
	}

	res, err := g.ledger.Approve(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	g.log.Info("payment approved by admin",
		slog.String("op", op),
		slog.String("admin_id", caller.UserID),
		slog.Int64("payment_id", paymentID),
		slog.Bool("already_approved", res.AlreadyApproved))
	return res, nil
}

// ListUsers возвращает пользователей без хешей паролей.
func (g *Gateway) ListUsers(ctx context.Context, caller models.Identity) ([]models.UserView, error) {
	if err := g.authorize(caller, "admin.ListUsers"); err != nil {
		return nil, err
	}

	users, err := g.users.ListUsers(ctx)
	if err != nil {
		g.log.Error("failed to list users", sl.Err(err))
		return nil, apperr.Internal("failed to load users", err)
	}
	views := make([]models.UserView, 0, len(users))
	for _, u := range users {
		views = append(views, u.View())
	}
	return views, nil
}
