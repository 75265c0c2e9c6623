// Package models содержит доменные структуры сервиса: пользователя,
// заявку на оплату, подписку и проверенную личность из токена.
package models

import "time"

// User представляет учётную запись из Credential Store.
type User struct {
	ID                    string     // Неизменяемый идентификатор (uuid)
	Email                 string     // Уникальный e-mail в нижнем регистре
	PasswordHash          string     // bcrypt-хеш пароля
	Name                  *string    // Отображаемое имя (опционально)
	Role                  Role       // Текущая сохранённая роль
	SubscriptionExpiresAt *time.Time // Конец оплаченного окна, nil если не оплачивал
	IsActive              bool
	CreatedAt             time.Time
}

// EffectiveRole возвращает роль, которую следует выдать в токене на момент now.
// Платная роль с истёкшей подпиской выдаётся как RoleUser; сохранённое
// значение при этом не меняется. Администратор не понижается никогда.
func (u *User) EffectiveRole(now time.Time) Role {
	if !u.Role.IsPaid() {
		return u.Role
	}
	if u.SubscriptionExpiresAt != nil && now.After(*u.SubscriptionExpiresAt) {
		return RoleUser
	}
	return u.Role
}

// UserView — представление пользователя для админки, без password_hash.
type UserView struct {
	ID                    string     `json:"id"`
	Email                 string     `json:"email"`
	Name                  *string    `json:"name,omitempty"`
	Role                  Role       `json:"role"`
	SubscriptionExpiresAt *time.Time `json:"subscription_expires_at,omitempty"`
	IsActive              bool       `json:"is_active"`
	CreatedAt             time.Time  `json:"created_at"`
}

// View формирует безопасное для выдачи представление пользователя.
func (u *User) View() UserView {
	return UserView{
		ID:                    u.ID,
		Email:                 u.Email,
		Name:                  u.Name,
		Role:                  u.Role,
		SubscriptionExpiresAt: u.SubscriptionExpiresAt,
		IsActive:              u.IsActive,
		CreatedAt:             u.CreatedAt,
	}
}
