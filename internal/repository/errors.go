package repository

import "errors"

var (
	ErrNotFound        = errors.New("запись не найдена")
	ErrVersionConflict = errors.New("конфликт версий")
	ErrAlreadyExists   = errors.New("запись уже существует")
	// ErrRejected - хранилище отклонило сами данные, повтор не поможет
	ErrRejected = errors.New("данные отклонены хранилищем")
)
