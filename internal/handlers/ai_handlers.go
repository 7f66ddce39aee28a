package handlers

import (
	"net/http"
	"strconv"
	"taskPlanner/internal/handlers/dto"
	"taskPlanner/internal/logger"
	"taskPlanner/internal/service"
	"time"

	"go.uber.org/zap"
)

// GetCoachAdvice при сбое отвечает 500, но всё равно отдаёт общий совет
func (s *TaskHandler) GetCoachAdvice(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	caller, ok := callerID(w, r)
	if !ok {
		return
	}

	advice, err := s.TaskService.Advise(r.Context(), caller)
	if err != nil {
		logger.Error("HTTP: Ошибка построения совета", err, zap.String("user_id", caller))
		writeJSON(w, http.StatusInternalServerError, dto.CoachResponse{Advice: service.FallbackAdvice})
		return
	}

	logger.Info("HTTP_OUT: Совет построен",
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	writeJSON(w, http.StatusOK, dto.CoachResponse{Advice: advice})
}

// PostSchedule строит расписание; ?apply=true сохраняет слоты в задачи на сегодня
func (s *TaskHandler) PostSchedule(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	caller, ok := callerID(w, r)
	if !ok {
		return
	}

	apply := false
	if raw := r.URL.Query().Get("apply"); raw != "" {
		var err error
		apply, err = strconv.ParseBool(raw)
		if err != nil {
			logger.Warn("HTTP: Неверное значение параметра",
				zap.String("query", "apply"),
				zap.String("client_ip", r.RemoteAddr))

			responseWithError(w, http.StatusBadRequest, "неверное значение apply")
			return
		}
	}

	entries, err := s.TaskService.BuildSchedule(r.Context(), caller)
	if err != nil {
		logger.Error("HTTP: Ошибка построения расписания", err, zap.String("user_id", caller))
		writeJSON(w, http.StatusInternalServerError, dto.ScheduleResponse{Schedule: []service.ScheduleEntry{}})
		return
	}

	response := dto.ScheduleResponse{Schedule: entries}
	if apply {
		applied, err := s.TaskService.ApplySchedule(r.Context(), caller, s.now(), entries)
		if err != nil {
			logger.Error("HTTP: Ошибка сохранения расписания", err, zap.String("user_id", caller))
			handleServiceError(w, err)
			return
		}
		response.Applied = dto.FromTaskList(applied)
	}

	logger.Info("HTTP_OUT: Расписание построено",
		zap.Int("entries", len(entries)),
		zap.Bool("applied", apply),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	writeJSON(w, http.StatusOK, response)
}
