package models

import "strings"

// Role — закрытое перечисление уровней доступа пользователя.
type Role string

// Известные роли. RoleUnknown получает любое значение, пришедшее извне
// (claim токена, строка из БД, аргумент CLI), которое не распознано.
const (
	RoleUnknown        Role = ""
	RoleUser           Role = "user"
	RolePro            Role = "pro"
	RoleElite          Role = "elite"
	RoleClubStarter    Role = "club_starter"
	RoleClubPro        Role = "club_pro"
	RoleClubEnterprise Role = "club_enterprise"
	RoleAdmin          Role = "admin"
)

// Roles возвращает все известные роли в порядке возрастания уровня.
func Roles() []Role {
	return []Role{
		RoleUser,
		RolePro,
		RoleElite,
		RoleClubStarter,
		RoleClubPro,
		RoleClubEnterprise,
		RoleAdmin,
	}
}

// ParseRole разбирает строку в Role. Нераспознанное значение даёт RoleUnknown,
// а не ошибку: решение о доступе для неизвестной роли принимает резолвер.
func ParseRole(s string) Role {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Roles() {
		if r == known {
			return r
		}
	}
	return RoleUnknown
}

// Valid сообщает, является ли роль одним из известных значений.
func (r Role) Valid() bool {
	return r != RoleUnknown && ParseRole(string(r)) == r
}

// IsPaid — роль выдаётся только через оплаченную подписку.
func (r Role) IsPaid() bool {
	switch r {
	case RolePro, RoleElite, RoleClubStarter, RoleClubPro, RoleClubEnterprise:
		return true
	}
	return false
}

func (r Role) String() string {
	if r == RoleUnknown {
		return "unknown"
	}
	return string(r)
}
