package models

import "time"

// Identity — проверенные данные вызывающего, извлечённые из токена.
// Роль в ней уже разобрана; сырые строки claim дальше границы не уходят.
type Identity struct {
	UserID    string
	Email     string
	Role      Role
	ExpiresAt time.Time
}

// IsAdmin сообщает, несёт ли токен роль администратора.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
