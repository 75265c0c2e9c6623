// Package payment реализует Payment Ledger: приём заявок о ручных
// банковских переводах, список ожидающих и подтверждение, связанное с
// активацией подписки одной транзакцией.
package payment

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/fairwaylab/swingcoach/internal/apperr"
	"github.com/fairwaylab/swingcoach/internal/lib/sl"
	"github.com/fairwaylab/swingcoach/internal/metrics"
	"github.com/fairwaylab/swingcoach/internal/models"
	"github.com/fairwaylab/swingcoach/internal/plans"
	"github.com/fairwaylab/swingcoach/internal/storage"
)

// Repository определяет методы хранилища заявок.
type Repository interface {
	CreatePayment(ctx context.Context, p models.NewPayment) (*models.PaymentRequest, error)
	ListPendingPayments(ctx context.Context) ([]*models.PaymentRequest, error)
	// ApprovePayment подтверждает заявку и вызывает activate внутри той же транзакции.
	ApprovePayment(ctx context.Context, id int64, approvedAt time.Time, activate models.ActivateFunc) (*models.ApprovalResult, error)
}

// Activator вычисляет активацию подписки для плана.
type Activator interface {
	Prepare(userID, planName string) (*models.Activation, error)
}

// Publisher публикует события журнала после коммита.
type Publisher interface {
	PublishPaymentEvent(ctx context.Context, event models.PaymentEvent) error
}

// Ledger — журнал заявок на оплату.
type Ledger struct {
	repo      Repository
	activator Activator
	catalog   *plans.Catalog
	publisher Publisher
	metrics   *metrics.Metrics
	log       *slog.Logger
	now       func() time.Time
}

// New создаёт Ledger. publisher и m могут быть nil.
func New(repo Repository, activator Activator, catalog *plans.Catalog, publisher Publisher, m *metrics.Metrics, log *slog.Logger) *Ledger {
	return &Ledger{
		repo:      repo,
		activator: activator,
		catalog:   catalog,
		publisher: publisher,
		metrics:   m,
		log:       log,
		now:       time.Now,
	}
}

// SubmitRequest — входные данные заявки.
type SubmitRequest struct {
	UserID     *string
	Amount     int64
	SenderName string
	PlanName   string
	ClubName   *string
}

// Submit записывает заявку в статусе pending. Сумма не сверяется с ценой
// плана: перевод ручной, администратор сверяет выписку.
func (l *Ledger) Submit(ctx context.Context, req SubmitRequest) (*models.PaymentRequest, error) {
	const op = "payment.Submit"
	log := l.log.With(slog.String("op", op))

	if req.Amount <= 0 {
		return nil, apperr.Validation("amount must be positive")
	}
	sender := strings.TrimSpace(req.SenderName)
	if sender == "" {
		return nil, apperr.Validation("sender name is required")
	}
	plan, ok := l.catalog.Lookup(req.PlanName)
	if !ok {
		return nil, apperr.Validation("unknown plan: " + req.PlanName)
	}

	var club *string
	if plan.IsClub() {
		if req.ClubName == nil || strings.TrimSpace(*req.ClubName) == "" {
			return nil, apperr.Validation("club name is required for club plans")
		}
		name := strings.TrimSpace(*req.ClubName)
		club = &name
	}

	p, err := l.repo.CreatePayment(ctx, models.NewPayment{
		UserID:     req.UserID,
		Amount:     req.Amount,
		SenderName: sender,
		PlanName:   plan.Name,
		ClubName:   club,
	})
	if err != nil {
		log.Error("failed to create payment request", sl.Err(err))
		return nil, apperr.Internal("failed to create payment request", err)
	}

	l.metrics.PaymentSubmitted()
	log.Info("payment request submitted",
		slog.Int64("payment_id", p.ID),
		slog.String("plan", plan.ID),
		slog.Bool("anonymous", p.UserID == nil))
	l.publish(ctx, models.NewPaymentEvent(models.EventPaymentSubmitted, *p, l.now()))
	return p, nil
}

// ListPending возвращает ожидающие заявки, новые первыми. Пустой список не ошибка.
func (l *Ledger) ListPending(ctx context.Context) ([]*models.PaymentRequest, error) {
	list, err := l.repo.ListPendingPayments(ctx)
	if err != nil {
		l.log.Error("failed to list pending payments", sl.Err(err))
		return nil, apperr.Internal("failed to load payments", err)
	}
	if list == nil {
		list = make([]*models.PaymentRequest, 0)
	}
	return list, nil
}

// Approve подтверждает заявку. Если у заявки есть существующий пользователь,
// в той же транзакции ему активируется подписка на план заявки. Заявка на
// план, убранный из каталога, подтверждается без активации, как анонимная.
// Повторный вызов для подтверждённой заявки ничего не меняет.
func (l *Ledger) Approve(ctx context.Context, id int64) (*models.ApprovalResult, error) {
	const op = "payment.Approve"
	log := l.log.With(slog.String("op", op), slog.Int64("payment_id", id))

	res, err := l.repo.ApprovePayment(ctx, id, l.now(), func(p models.PaymentRequest) (*models.Activation, error) {
		act, err := l.activator.Prepare(*p.UserID, p.PlanName)
		if errors.Is(err, plans.ErrUnknownPlan) {
			log.Warn("plan is no longer in the catalog, approving without activation",
				slog.String("plan", p.PlanName),
				slog.String("user_id", *p.UserID))
			return nil, nil
		}
		return act, err
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("pending payment not found")
		}
		if kind := apperr.KindOf(err); kind != apperr.KindInternal {
			return nil, err
		}
		log.Error("failed to approve payment", sl.Err(err))
		return nil, apperr.Internal("failed to approve payment", err)
	}

	l.metrics.PaymentApproved(res.AlreadyApproved)
	if res.AlreadyApproved {
		log.Info("payment already approved")
		return res, nil
	}

	event := models.NewPaymentEvent(models.EventPaymentApproved, res.Payment, l.now())
	if res.Subscription != nil {
		end := res.Subscription.EndDate
		event.EndDate = &end
		log.Info("payment approved, subscription activated",
			slog.String("user_id", res.Subscription.UserID),
			slog.String("plan", res.Subscription.PlanType))
	} else {
		log.Info("payment approved without activation")
	}
	l.publish(ctx, event)
	return res, nil
}

func (l *Ledger) publish(ctx context.Context, event models.PaymentEvent) {
	if l.publisher == nil {
		return
	}
	if err := l.publisher.PublishPaymentEvent(ctx, event); err != nil {
		l.log.Warn("failed to publish payment event",
			slog.String("type", event.Type),
			slog.Int64("payment_id", event.PaymentID),
			sl.Err(err))
	}
}
