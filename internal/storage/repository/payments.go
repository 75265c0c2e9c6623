package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fairwaylab/swingcoach/internal/models"
	"github.com/fairwaylab/swingcoach/internal/storage"
)

const paymentColumns = `id, user_id, amount, sender_name, plan_name, club_name, status, created_at, approved_at`

func scanPayment(row rowScanner) (*models.PaymentRequest, error) {
	var (
		p          models.PaymentRequest
		userID     sql.NullString
		clubName   sql.NullString
		status     string
		approvedAt sql.NullTime
	)
	if err := row.Scan(&p.ID, &userID, &p.Amount, &p.SenderName, &p.PlanName,
		&clubName, &status, &p.CreatedAt, &approvedAt); err != nil {
		return nil, err
	}
	p.Status = models.PaymentStatus(status)
	if userID.Valid {
		p.UserID = &userID.String
	}
	if clubName.Valid {
		p.ClubName = &clubName.String
	}
	if approvedAt.Valid {
		p.ApprovedAt = &approvedAt.Time
	}
	return &p, nil
}

// CreatePayment записывает заявку в статусе pending.
func (s *Storage) CreatePayment(ctx context.Context, p models.NewPayment) (*models.PaymentRequest, error) {
	const op = "storage.CreatePayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO payment_requests (user_id, amount, sender_name, plan_name, club_name, status)
			  VALUES ($1, $2, $3, $4, $5, 'pending')
			  RETURNING ` + paymentColumns
	created, err := scanPayment(s.DB.QueryRowContext(ctx, query,
		p.UserID, p.Amount, p.SenderName, p.PlanName, p.ClubName))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// GetPayment возвращает заявку по ID.
func (s *Storage) GetPayment(ctx context.Context, id int64) (*models.PaymentRequest, error) {
	const op = "storage.GetPayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	p, err := scanPayment(s.DB.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payment_requests WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// ListPendingPayments возвращает заявки в статусе pending, новые первыми.
func (s *Storage) ListPendingPayments(ctx context.Context) ([]*models.PaymentRequest, error) {
	const op = "storage.ListPendingPayments"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + paymentColumns + `
			  FROM payment_requests
			  WHERE status = 'pending'
			  ORDER BY created_at DESC, id DESC`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.PaymentRequest, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ApprovePayment переводит заявку в approved и, если activate вернул
// активацию, записывает подписку и роль пользователя в той же транзакции.
// Строка заявки блокируется (FOR UPDATE), поэтому конкурентный вызов ждёт
// коммита и видит уже подтверждённую заявку. Повторное подтверждение
// ничего не меняет и возвращает AlreadyApproved.
func (s *Storage) ApprovePayment(ctx context.Context, id int64, approvedAt time.Time, activate models.ActivateFunc) (*models.ApprovalResult, error) {
	const op = "storage.ApprovePayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rollback(tx)

	p, err := scanPayment(tx.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payment_requests WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if p.Status == models.PaymentApproved {
		return &models.ApprovalResult{Payment: *p, AlreadyApproved: true}, nil
	}
	if p.Status != models.PaymentPending {
		return nil, fmt.Errorf("%s: payment %d is %s: %w", op, id, p.Status, storage.ErrNotFound)
	}

	if err = tx.QueryRowContext(ctx,
		`UPDATE payment_requests SET status = 'approved', approved_at = $1
		 WHERE id = $2
		 RETURNING approved_at`, approvedAt, id).Scan(&approvedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p.Status = models.PaymentApproved
	p.ApprovedAt = &approvedAt

	result := &models.ApprovalResult{Payment: *p}

	if p.UserID != nil {
		exists, err := lockUser(ctx, tx, *p.UserID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if exists {
			act, err := activate(*p)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			if act != nil {
				if err = applyActivation(ctx, tx, act); err != nil {
					return nil, fmt.Errorf("%s: %w", op, err)
				}
				sub := act.Subscription
				result.Subscription = &sub
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
