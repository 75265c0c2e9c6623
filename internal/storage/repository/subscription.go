package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fairwaylab/swingcoach/internal/models"
	"github.com/fairwaylab/swingcoach/internal/storage"
)

// GetSubscription возвращает подписку пользователя.
func (s *Storage) GetSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	const op = "storage.GetSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if _, err := uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	var (
		sub    models.Subscription
		status string
	)
	query := `SELECT user_id, plan_type, start_date, end_date, status
			  FROM subscriptions
			  WHERE user_id = $1`
	err := s.DB.QueryRowContext(ctx, query, userID).
		Scan(&sub.UserID, &sub.PlanType, &sub.StartDate, &sub.EndDate, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sub.Status = models.SubscriptionStatus(status)
	return &sub, nil
}

// ActivateSubscription записывает окно подписки и роль пользователя
// в одной транзакции. Отсутствующий пользователь — storage.ErrNotFound.
func (s *Storage) ActivateSubscription(ctx context.Context, act models.Activation) error {
	const op = "storage.ActivateSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer rollback(tx)

	exists, err := lockUser(ctx, tx, act.Subscription.UserID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	if err = applyActivation(ctx, tx, &act); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func lockUser(ctx context.Context, tx *sql.Tx, userID string) (bool, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return false, nil
	}
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// applyActivation делает upsert подписки и поднимает роль пользователя.
// Роль admin не понижается.
func applyActivation(ctx context.Context, tx *sql.Tx, act *models.Activation) error {
	sub := act.Subscription
	_, err := tx.ExecContext(ctx, `
		INSERT INTO subscriptions (user_id, plan_type, start_date, end_date, status, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET plan_type = EXCLUDED.plan_type,
		    start_date = EXCLUDED.start_date,
		    end_date = EXCLUDED.end_date,
		    status = EXCLUDED.status,
		    updated_at = NOW()`,
		sub.UserID, sub.PlanType, sub.StartDate, sub.EndDate, string(sub.Status))
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE users
		SET role = CASE WHEN role = 'admin' THEN role ELSE $1 END,
		    subscription_expires_at = $2
		WHERE id = $3`,
		string(act.Role), sub.EndDate, sub.UserID)
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	return nil
}
