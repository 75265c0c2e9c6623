package models

import "time"

// SubscriptionStatus — статус окна подписки.
type SubscriptionStatus string

const (
	SubscriptionActive  SubscriptionStatus = "active"
	SubscriptionExpired SubscriptionStatus = "expired"
)

// Subscription — единственная подписка пользователя (upsert при продлении).
type Subscription struct {
	UserID    string             `json:"user_id"`
	PlanType  string             `json:"plan_type"`
	StartDate time.Time          `json:"start_date"`
	EndDate   time.Time          `json:"end_date"`
	Status    SubscriptionStatus `json:"status"`
}

// StatusAt возвращает статус на момент now: после end_date подписка
// считается истёкшей независимо от сохранённого значения.
func (s Subscription) StatusAt(now time.Time) SubscriptionStatus {
	if now.After(s.EndDate) {
		return SubscriptionExpired
	}
	return s.Status
}

// Activation — то, что нужно записать в одной транзакции при подтверждении
// оплаты: окно подписки и роль, которую она даёт.
type Activation struct {
	Subscription Subscription
	Role         Role
}
