package service

import (
	"errors"
	"fmt"
)

const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeAccessDenied = "ACCESS_DENIED"
	CodeConflict     = "CONFLICT"
	CodeInvalidState = "INVALID_STATE"
	CodeStorage      = "STORAGE_ERROR"
)

type Resource string

const ResourceTask Resource = "Задача"

type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

type Detail struct {
	Key     string
	Payload any
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

func ToDetail(key string, payload any) Detail {
	return Detail{
		Key:     key,
		Payload: payload,
	}
}

func NewBusinessError(code string, message string, details ...Detail) *BusinessError {
	BusErr := &BusinessError{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}

	for _, detail := range details {
		BusErr.Details[detail.Key] = detail.Payload
	}

	return BusErr
}

func NewNotFound(resource Resource, id string) *BusinessError {
	return &BusinessError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %s не найден(а)", resource, id),
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

func NewValidationError(field, reason string) *BusinessError {
	return &BusinessError{
		Code:    CodeValidation,
		Message: fmt.Sprintf("Неверное значение поля '%s': %s", field, reason),
		Details: map[string]any{
			"field":  field,
			"reason": reason,
		},
	}
}

// NewAccessDenied не раскрывает состояние ресурса: только его id
func NewAccessDenied(resource Resource, id string) *BusinessError {
	return &BusinessError{
		Code:    CodeAccessDenied,
		Message: "Доступ запрещён",
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

func NewConflict(message string, err error, details ...Detail) *BusinessError {
	busErr := NewBusinessError(CodeConflict, message, details...)
	busErr.Err = err
	return busErr
}

func NewInvalidState(message string, err error, details ...Detail) *BusinessError {
	busErr := NewBusinessError(CodeInvalidState, message, details...)
	busErr.Err = err
	return busErr
}

func NewStorageError(operation string, err error) *BusinessError {
	return &BusinessError{
		Code:    CodeStorage,
		Message: "Ошибка хранилища",
		Details: map[string]any{
			"operation": operation,
		},
		Err: err,
	}
}

// HasCode проверяет код бизнес-ошибки в цепочке обёрток
func HasCode(err error, code string) bool {
	var busErr *BusinessError
	if errors.As(err, &busErr) {
		return busErr.Code == code
	}
	return false
}
