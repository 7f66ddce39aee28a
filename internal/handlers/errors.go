package handlers

import (
	"errors"
	"net/http"
	"taskPlanner/internal/logger"
	"taskPlanner/internal/service"

	"go.uber.org/zap"
)

// handleBusinessError пишет ответ для бизнес-ошибки; false - ошибка не бизнесовая
func handleBusinessError(w http.ResponseWriter, err error) bool {
	var businessErr *service.BusinessError
	if !errors.As(err, &businessErr) {
		return false
	}

	statusCode := mapBusinessErrorToHTTP(businessErr.Code)

	logger.Warn("HTTP: Бизнес-ошибка",
		zap.String("error_code", businessErr.Code),
		zap.Int("http_status", statusCode))

	// детали сбоя хранилища наружу не отдаются
	if businessErr.Code == service.CodeStorage {
		responseWithJSON(w, statusCode,
			toPayload("error", businessErr.Code),
			toPayload("message", "Внутренняя ошибка, повторите запрос позже"),
		)
		return true
	}

	responseWithJSON(w, statusCode,
		toPayload("error", businessErr.Code),
		toPayload("message", businessErr.Message),
		toPayload("details", businessErr.Details),
	)
	return true
}

// handleServiceError: бизнес-ошибка по коду, всё остальное - 500 без подробностей
func handleServiceError(w http.ResponseWriter, err error) {
	if handleBusinessError(w, err) {
		return
	}
	responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeValidation:
		return http.StatusBadRequest
	case service.CodeAccessDenied:
		return http.StatusForbidden
	case service.CodeConflict, service.CodeInvalidState:
		return http.StatusConflict
	case service.CodeStorage:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
