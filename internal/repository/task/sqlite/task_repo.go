package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"taskPlanner/internal/logger"
	"taskPlanner/internal/models/task"
	repo "taskPlanner/internal/repository"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const slowQuery = time.Millisecond * 100

const taskColumns = `id, title, description, status, priority, deadline, scheduled_start, scheduled_end,
	energy_level_required, assigned_to, team_id, project_id, is_private, subtasks, time_log,
	total_time_spent, tracked_seconds, ai_priority_reasoning, ai_estimated_duration,
	ai_confidence_score, ai_tags, created_at, updated_at, completed_at, version, is_deleted, deleted_at`

type Storage struct {
	db *sql.DB
}

// New открывает файл базы и создаёт схему. path ":memory:" годится для тестов.
func New(ctx context.Context, path string) (*Storage, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		logger.Error("Repository: Ошибка открытия SQLite", err)
		return nil, fmt.Errorf("открытие sqlite: %w", err)
	}
	// один писатель: sqlite не любит конкурентную запись
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			logger.Error("Repository: Не удалось создать схему SQLite", err)
			return nil, fmt.Errorf("создание схемы: %w", err)
		}
	}

	logger.Info("Repository: Успешное открытие SQLite", zap.String("path", path))
	return &Storage{db: db}, nil
}

// DB отдаёт соединение для хранилища пользователей
func (s *Storage) DB() *sql.DB {
	return s.db
}

func (s *Storage) Close() error {
	logger.Info("Repository: Закрытие SQLite")
	return s.db.Close()
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	logger.Debug("Repository: Соединение стабильно")
	return nil
}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()

	if taskToCreate.CreatedAt.IsZero() {
		taskToCreate.CreatedAt = time.Now()
	}

	docs, err := encodeDocuments(taskToCreate)
	if err != nil {
		return err
	}

	query := `INSERT INTO tasks (` + taskColumns + `, priority_rank)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		taskToCreate.ID,
		taskToCreate.Title,
		taskToCreate.Description,
		string(taskToCreate.Status),
		string(taskToCreate.Priority),
		nanos(taskToCreate.Deadline),
		nanos(taskToCreate.ScheduledStart),
		nanos(taskToCreate.ScheduledEnd),
		string(taskToCreate.EnergyLevelRequired),
		taskToCreate.AssignedTo,
		taskToCreate.TeamID,
		taskToCreate.ProjectID,
		taskToCreate.IsPrivate,
		docs.subtasks,
		docs.timeLog,
		taskToCreate.TotalTimeSpent,
		taskToCreate.TrackedSeconds,
		taskToCreate.AIPriorityReasoning,
		taskToCreate.AIEstimatedDurationMinutes,
		taskToCreate.AIConfidenceScore,
		docs.tags,
		taskToCreate.CreatedAt.UnixNano(),
		nanos(taskToCreate.UpdatedAt),
		nanos(taskToCreate.CompletedAt),
		taskToCreate.IsDeleted,
		nanos(taskToCreate.DeletedAt),
		taskToCreate.Priority.Rank(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return repo.ErrAlreadyExists
		}
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}
	taskToCreate.Version = 1

	if time.Since(start) > slowQuery {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()

	docs, err := encodeDocuments(taskToUpdate)
	if err != nil {
		return err
	}
	now := time.Now()

	query := `UPDATE tasks
		SET title = ?,
			description = ?,
			status = ?,
			priority = ?,
			priority_rank = ?,
			scheduled_start = ?,
			scheduled_end = ?,
			subtasks = ?,
			time_log = ?,
			total_time_spent = ?,
			tracked_seconds = ?,
			completed_at = ?,
			is_deleted = ?,
			deleted_at = ?,
			version = version + 1,
			updated_at = ?
		WHERE id = ? AND version = ?`

	res, err := s.db.ExecContext(ctx, query,
		taskToUpdate.Title,
		taskToUpdate.Description,
		string(taskToUpdate.Status),
		string(taskToUpdate.Priority),
		taskToUpdate.Priority.Rank(),
		nanos(taskToUpdate.ScheduledStart),
		nanos(taskToUpdate.ScheduledEnd),
		docs.subtasks,
		docs.timeLog,
		taskToUpdate.TotalTimeSpent,
		taskToUpdate.TrackedSeconds,
		nanos(taskToUpdate.CompletedAt),
		taskToUpdate.IsDeleted,
		nanos(taskToUpdate.DeletedAt),
		now.UnixNano(),
		taskToUpdate.ID,
		taskToUpdate.Version,
	)
	if err != nil {
		logger.Error("Repository: Не удалось обновить задачу", err)
		return fmt.Errorf("обновление задачи: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("обновление задачи: %w", err)
	}
	if affected == 0 {
		return s.missingOrConflict(ctx, taskToUpdate)
	}

	taskToUpdate.UpdatedAt = &now
	taskToUpdate.Version++

	if time.Since(start) > slowQuery {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) missingOrConflict(ctx context.Context, t *task.Task) error {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM tasks WHERE id = ?`, t.ID).Scan(&count)
	if err != nil {
		return fmt.Errorf("проверка существования задачи: %w", err)
	}
	if count == 0 {
		return repo.ErrNotFound
	}

	logger.Warn("Repository: Конфликт версий при обновлении задачи",
		zap.String("task_id", t.ID),
		zap.Int("expected_version", t.Version))
	return repo.ErrVersionConflict
}

func (s *Storage) GetByID(ctx context.Context, id string) (*task.Task, error) {
	start := time.Now()

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`
	t, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	if time.Since(start) > slowQuery {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return t, nil
}

func (s *Storage) Find(ctx context.Context, filter repo.TaskFilter, opts repo.FindOptions) ([]*task.Task, error) {
	start := time.Now()

	where, args := buildWhere(filter)
	query := `SELECT ` + taskColumns + ` FROM tasks` + where + orderBy(opts.Sort)
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			logger.Error("Repository: Ошибка сканирования задачи", err)
			return nil, fmt.Errorf("сканирование задачи: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	if time.Since(start) > time.Millisecond*50+time.Millisecond*10*time.Duration(len(tasks)) {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return tasks, nil
}

func buildWhere(f repo.TaskFilter) (string, []any) {
	conds := []string{}
	args := []any{}

	if !f.IncludeDeleted {
		conds = append(conds, "is_deleted = 0")
	}
	if f.AssignedTo != "" {
		conds = append(conds, "assigned_to = ?")
		args = append(args, f.AssignedTo)
	}
	if f.OwnerOrTeam != "" {
		conds = append(conds, "(assigned_to = ? OR team_id <> '')")
		args = append(args, f.OwnerOrTeam)
	}
	if len(f.Statuses) > 0 {
		conds = append(conds, "status IN ("+placeholders(len(f.Statuses))+")")
		for _, st := range f.Statuses {
			args = append(args, string(st))
		}
	}
	if len(f.ExcludeStatus) > 0 {
		conds = append(conds, "status NOT IN ("+placeholders(len(f.ExcludeStatus))+")")
		for _, st := range f.ExcludeStatus {
			args = append(args, string(st))
		}
	}
	if f.DeadlineBefore != nil {
		conds = append(conds, "deadline IS NOT NULL AND deadline < ?")
		args = append(args, f.DeadlineBefore.UnixNano())
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func orderBy(order repo.SortOrder) string {
	switch order {
	case repo.SortCreatedDesc:
		return " ORDER BY created_at DESC, seq"
	case repo.SortCompletedDesc:
		return " ORDER BY COALESCE(completed_at, updated_at, created_at) DESC, seq"
	case repo.SortPriorityDesc:
		return " ORDER BY priority_rank DESC, created_at, seq"
	case repo.SortDeadlineAsc:
		return " ORDER BY deadline IS NULL, deadline, seq"
	default:
		return " ORDER BY seq"
	}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*task.Task, error) {
	t := &task.Task{}
	var (
		status, priority, energy          string
		deadline, schedStart, schedEnd    sql.NullInt64
		updatedAt, completedAt, deletedAt sql.NullInt64
		createdAt                         int64
		subtasks, timeLog, tags           string
	)

	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&status,
		&priority,
		&deadline,
		&schedStart,
		&schedEnd,
		&energy,
		&t.AssignedTo,
		&t.TeamID,
		&t.ProjectID,
		&t.IsPrivate,
		&subtasks,
		&timeLog,
		&t.TotalTimeSpent,
		&t.TrackedSeconds,
		&t.AIPriorityReasoning,
		&t.AIEstimatedDurationMinutes,
		&t.AIConfidenceScore,
		&tags,
		&createdAt,
		&updatedAt,
		&completedAt,
		&t.Version,
		&t.IsDeleted,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Status = task.Status(status)
	t.Priority = task.Priority(priority)
	t.EnergyLevelRequired = task.EnergyLevel(energy)
	t.Deadline = fromNanos(deadline)
	t.ScheduledStart = fromNanos(schedStart)
	t.ScheduledEnd = fromNanos(schedEnd)
	t.CreatedAt = time.Unix(0, createdAt)
	t.UpdatedAt = fromNanos(updatedAt)
	t.CompletedAt = fromNanos(completedAt)
	t.DeletedAt = fromNanos(deletedAt)

	if err := json.Unmarshal([]byte(subtasks), &t.Subtasks); err != nil {
		return nil, fmt.Errorf("разбор подзадач: %w", err)
	}
	if err := json.Unmarshal([]byte(timeLog), &t.TimeLog); err != nil {
		return nil, fmt.Errorf("разбор журнала времени: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &t.AITags); err != nil {
		return nil, fmt.Errorf("разбор тегов: %w", err)
	}
	return t, nil
}

type documents struct {
	subtasks string
	timeLog  string
	tags     string
}

// вложенные коллекции задачи лежат в TEXT-колонках как JSON
func encodeDocuments(t *task.Task) (documents, error) {
	var docs documents

	subtasks := t.Subtasks
	if subtasks == nil {
		subtasks = []task.Subtask{}
	}
	timeLog := t.TimeLog
	if timeLog == nil {
		timeLog = []task.TimeLogEntry{}
	}
	tags := t.AITags
	if tags == nil {
		tags = []string{}
	}

	raw, err := json.Marshal(subtasks)
	if err != nil {
		return docs, fmt.Errorf("кодирование подзадач: %w", err)
	}
	docs.subtasks = string(raw)

	raw, err = json.Marshal(timeLog)
	if err != nil {
		return docs, fmt.Errorf("кодирование журнала времени: %w", err)
	}
	docs.timeLog = string(raw)

	raw, err = json.Marshal(tags)
	if err != nil {
		return docs, fmt.Errorf("кодирование тегов: %w", err)
	}
	docs.tags = string(raw)
	return docs, nil
}

func nanos(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixNano()
}

func fromNanos(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(0, v.Int64)
	return &t
}
