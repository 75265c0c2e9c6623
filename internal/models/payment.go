package models

import "time"

// PaymentStatus — состояние заявки на оплату.
type PaymentStatus string

const (
	// PaymentPending — заявка создана и ждёт подтверждения администратором.
	PaymentPending PaymentStatus = "pending"
	// PaymentApproved — терминальное состояние после подтверждения.
	PaymentApproved PaymentStatus = "approved"
	// PaymentRejected зарезервирован в схеме, но ни одна операция его не выставляет.
	// TODO: добавить отклонение заявок, когда появится сценарий возврата перевода.
	PaymentRejected PaymentStatus = "rejected"
)

// PaymentRequest — заявка о ручном банковском переводе.
type PaymentRequest struct {
	ID         int64         `json:"id"`
	UserID     *string       `json:"user_id"`
	Amount     int64         `json:"amount"`
	SenderName string        `json:"sender_name"`
	PlanName   string        `json:"plan_name"`
	ClubName   *string       `json:"club_name,omitempty"`
	Status     PaymentStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	ApprovedAt *time.Time    `json:"approved_at,omitempty"`
}

// NewPayment — данные для создания заявки, уже прошедшие валидацию.
type NewPayment struct {
	UserID     *string
	Amount     int64
	SenderName string
	PlanName   string
	ClubName   *string
}

// ApprovalResult — итог подтверждения заявки.
type ApprovalResult struct {
	Payment         PaymentRequest
	Subscription    *Subscription // nil, если заявка анонимная или пользователь не найден
	AlreadyApproved bool          // повторный вызов: ничего не изменено
}

// ActivateFunc вычисляет активацию подписки для подтверждаемой заявки
// с непустым user_id. Возвращает nil, если активировать нечего.
type ActivateFunc func(p PaymentRequest) (*Activation, error)
