package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"taskPlanner/internal/broadcast"
	"taskPlanner/internal/logger"
	"taskPlanner/internal/models/task"
	"taskPlanner/internal/repository"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// здесь происходит проверка ошибок бизнес-логики

const maxConflictAttempts = 3

// EventSink - получатель событий; Publish не должен блокировать
type EventSink interface {
	Publish(room, event string, payload any)
}

type nopSink struct{}

func (nopSink) Publish(room, event string, payload any) {}

type TaskService struct {
	repo       repository.TaskStore
	users      repository.UserStore
	events     EventSink
	analyzer   Analyzer
	transition TransitionPolicy
	visibility VisibilityPolicy
	now        func() time.Time
	retry      RetryConfig
	window     Window
	coachLimit int
	planLimit  int
}

type Option func(*TaskService)

func WithEvents(sink EventSink) Option {
	return func(s *TaskService) {
		if sink != nil {
			s.events = sink
		}
	}
}

func WithAnalyzer(a Analyzer) Option {
	return func(s *TaskService) {
		if a != nil {
			s.analyzer = a
		}
	}
}

func WithTransitionPolicy(p TransitionPolicy) Option {
	return func(s *TaskService) {
		if p != nil {
			s.transition = p
		}
	}
}

func WithVisibility(p VisibilityPolicy) Option {
	return func(s *TaskService) {
		if p != nil {
			s.visibility = p
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *TaskService) {
		if now != nil {
			s.now = now
		}
	}
}

func WithRetry(cfg RetryConfig) Option {
	return func(s *TaskService) {
		s.retry = cfg
	}
}

// WithWorkWindow задаёт окно по умолчанию для пользователей без настроек
func WithWorkWindow(startHour, endHour int) Option {
	return func(s *TaskService) {
		if startHour >= 0 && endHour > startHour && endHour <= 24 {
			s.window = Window{StartHour: startHour, EndHour: endHour}
		}
	}
}

func WithLimits(coachLimit, planLimit int) Option {
	return func(s *TaskService) {
		if coachLimit > 0 {
			s.coachLimit = coachLimit
		}
		if planLimit > 0 {
			s.planLimit = planLimit
		}
	}
}

func NewTaskService(repo repository.TaskStore, users repository.UserStore, options ...Option) *TaskService {
	s := &TaskService{
		repo:       repo,
		users:      users,
		events:     nopSink{},
		analyzer:   PlaceholderAnalyzer{},
		transition: AllowAllTransitions,
		visibility: TeamTaskVisibility{},
		now:        time.Now,
		retry:      DefaultRetryConfig(),
		window:     DefaultWindow(),
		coachLimit: CoachWindow,
		planLimit:  ScheduleTaskLimit,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

type CreateTaskInput struct {
	Title               string
	Description         string
	Priority            task.Priority
	TeamID              string
	ProjectID           string
	Deadline            *time.Time
	EnergyLevelRequired task.EnergyLevel
	Subtasks            []string
}

// UpdateTaskInput: nil - поле не передано
type UpdateTaskInput struct {
	Status      *task.Status
	Priority    *task.Priority
	Description *string
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		logger.Error("Service: Проверка здоровья не пройдена", err)
		return NewStorageError("проверка здоровья сервиса", err)
	}
	return nil
}

func (s *TaskService) CreateTask(ctx context.Context, ownerID string, in CreateTaskInput) (*task.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, NewValidationError("title", "название не может быть пустым")
	}
	if utf8.RuneCountInString(in.Title) > task.MaxTitleLength {
		return nil, NewValidationError("title", fmt.Sprintf("название длиннее %d символов", task.MaxTitleLength))
	}
	if !in.Priority.IsValid() {
		return nil, NewValidationError("priority", "допустимо Low, Medium или High")
	}
	if in.EnergyLevelRequired != "" && !in.EnergyLevelRequired.IsValid() {
		return nil, NewValidationError("energy_level_required", "допустимо Low, Medium или High")
	}

	priority := in.Priority
	if priority == task.PriorityUnset {
		priority = task.PriorityMedium
	}
	energy := in.EnergyLevelRequired
	if energy == "" {
		energy = task.EnergyMedium
	}

	subtasks := make([]task.Subtask, 0, len(in.Subtasks))
	for _, st := range in.Subtasks {
		st = strings.TrimSpace(st)
		if st == "" {
			return nil, NewValidationError("subtasks", "название подзадачи не может быть пустым")
		}
		subtasks = append(subtasks, task.Subtask{Title: st})
	}

	newTask := &task.Task{
		ID:                  uuid.NewString(),
		Title:               in.Title,
		Description:         in.Description,
		Status:              task.StatusTodo,
		Priority:            priority,
		Deadline:            in.Deadline,
		EnergyLevelRequired: energy,
		AssignedTo:          ownerID,
		TeamID:              in.TeamID,
		ProjectID:           in.ProjectID,
		IsPrivate:           in.TeamID == "",
		Subtasks:            subtasks,
		TimeLog:             []task.TimeLogEntry{},
		AIConfidenceScore:   DefaultConfidenceScore,
		AITags:              []string{},
		CreatedAt:           s.now(),
	}
	newTask.AIEstimatedDurationMinutes = s.analyzer.EstimateDuration(newTask)
	newTask.AIPriorityReasoning = s.analyzer.ExplainPriority(newTask)

	err := s.withRetry(ctx, "create_task", func(ctx context.Context) error {
		return s.repo.Create(ctx, newTask)
	})
	if err != nil {
		if errors.Is(err, repository.ErrRejected) {
			logger.Warn("Service: Хранилище отклонило задачу", zap.String("owner_id", ownerID), zap.Error(err))
			return nil, rejectedError(err)
		}
		logger.Error("Service: Не удалось создать задачу", err, zap.String("owner_id", ownerID))
		return nil, NewStorageError("создание задачи", err)
	}

	logger.Info("Service: Задача создана",
		zap.String("task_id", newTask.ID),
		zap.String("owner_id", ownerID))
	s.publishUpdate(newTask)
	return newTask, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, taskID, callerID string, in UpdateTaskInput) (*task.Task, error) {
	if in.Status != nil && *in.Status != "" && !in.Status.IsValid() {
		return nil, NewValidationError("status", "допустимо Todo, In Progress или Done")
	}
	if in.Priority != nil && *in.Priority != "" && !in.Priority.IsValid() {
		return nil, NewValidationError("priority", "допустимо Low, Medium или High")
	}

	return s.mutate(ctx, "update_task", taskID, callerID, false, func(t *task.Task) error {
		options := []task.TaskOption{}
		if in.Status != nil && *in.Status != "" {
			if err := s.transition(t.Status, *in.Status); err != nil {
				return NewInvalidState("Недопустимая смена статуса", err,
					ToDetail("from", t.Status),
					ToDetail("to", *in.Status))
			}
			options = append(options, task.WithStatus(*in.Status, s.now()))
		}
		if in.Priority != nil {
			options = append(options, task.WithPriority(*in.Priority))
		}
		if in.Description != nil {
			options = append(options, task.WithDescription(*in.Description))
		}
		t.Apply(options...)
		return nil
	})
}

// DeleteTask - мягкое удаление; повторный вызов перезаписывает DeletedAt
func (s *TaskService) DeleteTask(ctx context.Context, taskID, callerID string) error {
	_, err := s.mutate(ctx, "delete_task", taskID, callerID, true, func(t *task.Task) error {
		now := s.now()
		t.IsDeleted = true
		t.DeletedAt = &now
		return nil
	})
	return err
}

func (s *TaskService) GetTask(ctx context.Context, taskID, callerID string) (*task.Task, error) {
	t, err := s.load(ctx, "get_task", taskID)
	if err != nil {
		return nil, err
	}
	if !t.IsActive() {
		logger.Info("Service: Задача удалена", zap.String("target_id", taskID))
		return nil, NewNotFound(ResourceTask, taskID)
	}

	visible, err := s.visibility.CanView(ctx, callerID, t)
	if err != nil {
		logger.Error("Service: Ошибка проверки доступа", err, zap.String("target_id", taskID))
		return nil, NewStorageError("проверка доступа", err)
	}
	if !visible {
		logger.Warn("Service: Доступ к задаче запрещён",
			zap.String("target_id", taskID),
			zap.String("caller_id", callerID))
		return nil, NewAccessDenied(ResourceTask, taskID)
	}
	return t, nil
}

// ListTasks возвращает свои и командные задачи, новые первыми
func (s *TaskService) ListTasks(ctx context.Context, callerID string) ([]*task.Task, error) {
	tasks, err := s.find(ctx, "list_tasks",
		repository.TaskFilter{OwnerOrTeam: callerID},
		repository.FindOptions{Sort: repository.SortCreatedDesc})
	if err != nil {
		return nil, err
	}

	res := make([]*task.Task, 0, len(tasks))
	for _, t := range tasks {
		visible, err := s.visibility.CanView(ctx, callerID, t)
		if err != nil {
			logger.Error("Service: Ошибка проверки доступа", err, zap.String("target_id", t.ID))
			return nil, NewStorageError("проверка доступа", err)
		}
		if visible {
			res = append(res, t)
		}
	}
	return res, nil
}

func (s *TaskService) CanJoinTeam(ctx context.Context, callerID, teamID string) (bool, error) {
	return s.visibility.CanJoinTeam(ctx, callerID, teamID)
}

// errUnchanged - мутация решила ничего не записывать
var errUnchanged = errors.New("без изменений")

// mutate - цикл read-modify-write: перечитать, перепроверить владельца и состояние,
// применить изменение и записать с прочитанной версией. При конфликте версий
// всё повторяется с новым чтением.
func (s *TaskService) mutate(ctx context.Context, operation, taskID, callerID string, allowDeleted bool, apply func(t *task.Task) error) (*task.Task, error) {
	for attempt := 1; attempt <= maxConflictAttempts; attempt++ {
		t, err := s.load(ctx, operation, taskID)
		if err != nil {
			return nil, err
		}
		if !t.IsActive() && !allowDeleted {
			logger.Info("Service: Задача удалена", zap.String("target_id", taskID))
			return nil, NewNotFound(ResourceTask, taskID)
		}
		if t.AssignedTo != callerID {
			logger.Warn("Service: Изменение чужой задачи",
				zap.String("operation", operation),
				zap.String("target_id", taskID),
				zap.String("caller_id", callerID))
			return nil, NewAccessDenied(ResourceTask, taskID)
		}

		if err := apply(t); err != nil {
			if errors.Is(err, errUnchanged) {
				return t, nil
			}
			return nil, err
		}

		readVersion := t.Version
		writes := 0
		err = s.withRetry(ctx, operation, func(ctx context.Context) error {
			writes++
			return s.repo.Update(ctx, t)
		})
		if err == nil {
			logger.Info("Service: Задача обновлена",
				zap.String("operation", operation),
				zap.String("task_id", t.ID),
				zap.Int("version", t.Version))
			s.publishUpdate(t)
			return t, nil
		}

		if errors.Is(err, repository.ErrVersionConflict) {
			// сбойная попытка могла успеть записаться: тогда конфликт - с самим собой
			if writes > 1 {
				if stored, ok := s.landed(ctx, operation, t, readVersion); ok {
					logger.Warn("Service: Запись прошла несмотря на сбой",
						zap.String("operation", operation),
						zap.String("task_id", taskID),
						zap.Int("version", stored.Version))
					s.publishUpdate(stored)
					return stored, nil
				}
			}
			logger.Warn("Service: Конфликт версий, повторное чтение",
				zap.String("task_id", taskID),
				zap.Int("attempt", attempt))
			continue
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFound(ResourceTask, taskID)
		}
		if errors.Is(err, repository.ErrRejected) {
			logger.Warn("Service: Хранилище отклонило задачу", zap.String("task_id", taskID), zap.Error(err))
			return nil, rejectedError(err)
		}

		logger.Error("Service: Не удалось сохранить задачу", err, zap.String("task_id", taskID))
		return nil, NewStorageError(operation, err)
	}

	return nil, NewConflict("Задача одновременно изменяется другим запросом", repository.ErrVersionConflict,
		ToDetail("id", taskID),
		ToDetail("attempts", maxConflictAttempts))
}

// landed проверяет, что в хранилище лежит именно отправленная запись:
// версия сдвинута ровно на один шаг и записываемые поля совпадают
func (s *TaskService) landed(ctx context.Context, operation string, sent *task.Task, readVersion int) (*task.Task, bool) {
	stored, err := s.load(ctx, operation, sent.ID)
	if err != nil || stored.Version != readVersion+1 {
		return nil, false
	}
	return stored, sameWrite(stored, sent)
}

// sameWrite сравнивает поля, которые пишет Update. Время сравнивается
// с точностью до миллисекунды: mongo хранит не точнее.
func sameWrite(a, b *task.Task) bool {
	if a.Title != b.Title || a.Description != b.Description ||
		a.Status != b.Status || a.Priority != b.Priority ||
		a.TotalTimeSpent != b.TotalTimeSpent || a.TrackedSeconds != b.TrackedSeconds ||
		a.IsDeleted != b.IsDeleted {
		return false
	}
	if !sameTimePtr(a.ScheduledStart, b.ScheduledStart) || !sameTimePtr(a.ScheduledEnd, b.ScheduledEnd) ||
		!sameTimePtr(a.CompletedAt, b.CompletedAt) || !sameTimePtr(a.DeletedAt, b.DeletedAt) {
		return false
	}
	if len(a.Subtasks) != len(b.Subtasks) || len(a.TimeLog) != len(b.TimeLog) {
		return false
	}
	for i := range a.Subtasks {
		if a.Subtasks[i] != b.Subtasks[i] {
			return false
		}
	}
	for i := range a.TimeLog {
		ea, eb := a.TimeLog[i], b.TimeLog[i]
		if ea.UserID != eb.UserID || !sameTime(ea.StartTime, eb.StartTime) || !sameTimePtr(ea.EndTime, eb.EndTime) ||
			ea.DurationSeconds != eb.DurationSeconds {
			return false
		}
	}
	return true
}

func sameTime(a, b time.Time) bool {
	return a.Sub(b).Abs() < time.Millisecond
}

func sameTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return sameTime(*a, *b)
}

// rejectedError - данные не прошли ограничения хранилища, это ошибка запроса
func rejectedError(err error) *BusinessError {
	busErr := NewValidationError("task", "данные не прошли проверку хранилища")
	busErr.Err = err
	return busErr
}

func (s *TaskService) load(ctx context.Context, operation, taskID string) (*task.Task, error) {
	var t *task.Task
	err := s.withRetry(ctx, operation, func(ctx context.Context) error {
		var err error
		t, err = s.repo.GetByID(ctx, taskID)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_id", taskID))
			return nil, NewNotFound(ResourceTask, taskID)
		}
		logger.Error("Service: Ошибка получения задачи", err, zap.String("target_id", taskID))
		return nil, NewStorageError(operation, err)
	}
	return t, nil
}

func (s *TaskService) find(ctx context.Context, operation string, filter repository.TaskFilter, opts repository.FindOptions) ([]*task.Task, error) {
	var tasks []*task.Task
	err := s.withRetry(ctx, operation, func(ctx context.Context) error {
		var err error
		tasks, err = s.repo.Find(ctx, filter, opts)
		return err
	})
	if err != nil {
		logger.Error("Service: Ошибка выборки задач", err, zap.String("operation", operation))
		return nil, NewStorageError(operation, err)
	}
	return tasks, nil
}

func (s *TaskService) publishUpdate(t *task.Task) {
	updatedAt := t.CreatedAt
	if t.UpdatedAt != nil {
		updatedAt = *t.UpdatedAt
	}
	payload := broadcast.TaskUpdated{
		TaskID:    t.ID,
		Status:    t.Status,
		Priority:  t.Priority,
		UpdatedAt: updatedAt,
	}

	s.events.Publish(broadcast.UserRoom(t.AssignedTo), broadcast.EventTaskUpdated, payload)
	if t.TeamID != "" {
		s.events.Publish(broadcast.TeamRoom(t.TeamID), broadcast.EventTaskUpdated, payload)
	}
}
