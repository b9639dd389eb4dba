package repo

import "errors"

// Ошибки журнала исполнений.
var (
	// ErrNotFound — запись журнала не найдена.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists — запись с таким ID уже есть (конфликт уникальности).
	ErrAlreadyExists = errors.New("already exists")
)
