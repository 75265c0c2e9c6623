package models

import "time"

// Типы событий журнала оплат. Значение используется и как routing key.
const (
	EventPaymentSubmitted = "payment.submitted"
	EventPaymentApproved  = "payment.approved"
)

// PaymentEvent публикуется в брокер после коммита изменения заявки.
type PaymentEvent struct {
	Type       string     `json:"type"`
	PaymentID  int64      `json:"payment_id"`
	UserID     *string    `json:"user_id,omitempty"`
	Amount     int64      `json:"amount"`
	SenderName string     `json:"sender_name"`
	PlanName   string     `json:"plan_name"`
	ClubName   *string    `json:"club_name,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// NewPaymentEvent собирает событие из заявки.
func NewPaymentEvent(eventType string, p PaymentRequest, at time.Time) PaymentEvent {
	return PaymentEvent{
		Type:       eventType,
		PaymentID:  p.ID,
		UserID:     p.UserID,
		Amount:     p.Amount,
		SenderName: p.SenderName,
		PlanName:   p.PlanName,
		ClubName:   p.ClubName,
		OccurredAt: at,
	}
}
