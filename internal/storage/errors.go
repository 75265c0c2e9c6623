// Package storage задаёт ошибки, общие для реализаций хранилища.
package storage

import "errors"

var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("record not found")
	// ErrEmailTaken — e-mail уже зарегистрирован (без учёта регистра).
	ErrEmailTaken = errors.New("email already registered")
)
