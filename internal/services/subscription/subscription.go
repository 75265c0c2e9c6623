// Package subscription реализует Subscription Activator: вычисляет окно
// подписки на один календарный месяц и сохраняет его вместе с ролью плана.
package subscription

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fairwaylab/swingcoach/internal/apperr"
	"github.com/fairwaylab/swingcoach/internal/lib/month"
	"github.com/fairwaylab/swingcoach/internal/lib/sl"
	"github.com/fairwaylab/swingcoach/internal/models"
	"github.com/fairwaylab/swingcoach/internal/plans"
	"github.com/fairwaylab/swingcoach/internal/storage"
)

// Repository определяет методы хранилища подписок.
type Repository interface {
	// ActivateSubscription атомарно записывает подписку и роль пользователя.
	ActivateSubscription(ctx context.Context, act models.Activation) error
	// GetSubscription возвращает подписку пользователя.
	GetSubscription(ctx context.Context, userID string) (*models.Subscription, error)
}

// Option настраивает Activator.
type Option func(*Activator)

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(a *Activator) {
		a.now = now
	}
}

// Activator вычисляет и сохраняет окна подписок.
type Activator struct {
	repo    Repository
	catalog *plans.Catalog
	log     *slog.Logger
	now     func() time.Time
}

// New создаёт Activator.
func New(repo Repository, catalog *plans.Catalog, log *slog.Logger, opts ...Option) *Activator {
	a := &Activator{
		repo:    repo,
		catalog: catalog,
		log:     log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Prepare вычисляет активацию плана для пользователя без записи в хранилище.
// Используется журналом оплат внутри его транзакции.
func (a *Activator) Prepare(userID, planName string) (*models.Activation, error) {
	plan, ok := a.catalog.Lookup(planName)
	if !ok {
		return nil, apperr.Wrap(apperr.KindValidation, "unknown plan: "+planName, plans.ErrUnknownPlan)
	}

	start, end := month.Window(a.now().UTC(), 1)
	return &models.Activation{
		Subscription: models.Subscription{
			UserID:    userID,
			PlanType:  plan.ID,
			StartDate: start,
			EndDate:   end,
			Status:    models.SubscriptionActive,
		},
		Role: plan.Role,
	}, nil
}

// Activate выдаёт пользователю подписку на план с текущего момента.
// Существующая подписка перезаписывается.
func (a *Activator) Activate(ctx context.Context, userID, planType string) (*models.Subscription, error) {
	const op = "subscription.Activate"
	log := a.log.With(slog.String("op", op), slog.String("user_id", userID))

	act, err := a.Prepare(userID, planType)
	if err != nil {
		return nil, err
	}

	if err = a.repo.ActivateSubscription(ctx, *act); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		log.Error("failed to activate subscription", sl.Err(err))
		return nil, apperr.Internal("failed to activate subscription", err)
	}

	log.Info("subscription activated",
		slog.String("plan", act.Subscription.PlanType),
		slog.Time("end_date", act.Subscription.EndDate))
	sub := act.Subscription
	return &sub, nil
}

// Current возвращает подписку пользователя со статусом на текущий момент.
func (a *Activator) Current(ctx context.Context, userID string) (*models.Subscription, error) {
	sub, err := a.repo.GetSubscription(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("no subscription")
		}
		a.log.Error("failed to load subscription", slog.String("user_id", userID), sl.Err(err))
		return nil, apperr.Internal("failed to load subscription", err)
	}
	sub.Status = sub.StatusAt(a.now())
	return sub, nil
}
