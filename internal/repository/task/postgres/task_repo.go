package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"taskPlanner/internal/logger"
	"taskPlanner/internal/models/task"
	repo "taskPlanner/internal/repository"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const slowQuery = time.Millisecond * 100

const taskColumns = `id,
				title,
				description,
				status,
				priority,
				deadline,
				scheduled_start,
				scheduled_end,
				energy_level_required,
				assigned_to,
				team_id,
				project_id,
				is_private,
				subtasks,
				time_log,
				total_time_spent,
				tracked_seconds,
				ai_priority_reasoning,
				ai_estimated_duration,
				ai_confidence_score,
				ai_tags,
				created_at,
				updated_at,
				completed_at,
				version,
				is_deleted,
				deleted_at`

type PoolConfig struct {
	MaxConns        int32
	MinConns        int32
	MaxConnIdleTime time.Duration
}

func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxConns:        10,
		MinConns:        2,
		MaxConnIdleTime: time.Minute * 5,
	}
}

type Storage struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, connString string, poolCfg PoolConfig) (*Storage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	config.MaxConns = poolCfg.MaxConns
	config.MinConns = poolCfg.MinConns
	config.MaxConnIdleTime = poolCfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return &Storage{pool: pool}, nil
}

// Pool отдаёт пул для хранилища пользователей, закрывает его только Storage
func (s *Storage) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	err := s.pool.Ping(ctx)
	if err != nil {
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

	query := `INSERT INTO tasks
				(` + taskColumns + `, priority_rank)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
					$16, $17, $18, $19, $20, $21, $22, $23, $24, 1, $25, $26, $27)
				RETURNING version`

	err := s.pool.QueryRow(ctx, query,
		taskToCreate.ID,
		taskToCreate.Title,
		taskToCreate.Description,
		taskToCreate.Status,
		string(taskToCreate.Priority),
		taskToCreate.Deadline,
		taskToCreate.ScheduledStart,
		taskToCreate.ScheduledEnd,
		taskToCreate.EnergyLevelRequired,
		taskToCreate.AssignedTo,
		taskToCreate.TeamID,
		taskToCreate.ProjectID,
		taskToCreate.IsPrivate,
		subtasksOrEmpty(taskToCreate.Subtasks),
		timeLogOrEmpty(taskToCreate.TimeLog),
		taskToCreate.TotalTimeSpent,
		taskToCreate.TrackedSeconds,
		taskToCreate.AIPriorityReasoning,
		taskToCreate.AIEstimatedDurationMinutes,
		taskToCreate.AIConfidenceScore,
		tagsOrEmpty(taskToCreate.AITags),
		taskToCreate.CreatedAt,
		taskToCreate.UpdatedAt,
		taskToCreate.CompletedAt,
		taskToCreate.IsDeleted,
		taskToCreate.DeletedAt,
		taskToCreate.Priority.Rank(),
	).Scan(&taskToCreate.Version)

	if err != nil {
		err = WrapError("добавление задачи", err)
		if errors.Is(err, repo.ErrAlreadyExists) {
			return err
		}
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return err
	}

	if time.Since(start) > slowQuery {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

// Update записывает все изменяемые поля при совпадении версии
func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()

	query := `UPDATE tasks
			SET title = $1,
				description = $2,
				status = $3,
				priority = $4,
				priority_rank = $5,
				scheduled_start = $6,
				scheduled_end = $7,
				subtasks = $8,
				time_log = $9,
				total_time_spent = $10,
				tracked_seconds = $11,
				completed_at = $12,
				is_deleted = $13,
				deleted_at = $14,
				version = version + 1,
				updated_at = NOW()
			WHERE id = $15 AND version = $16
			RETURNING updated_at, version`

	err := s.pool.QueryRow(ctx, query,
		taskToUpdate.Title,
		taskToUpdate.Description,
		taskToUpdate.Status,
		string(taskToUpdate.Priority),
		taskToUpdate.Priority.Rank(),
		taskToUpdate.ScheduledStart,
		taskToUpdate.ScheduledEnd,
		subtasksOrEmpty(taskToUpdate.Subtasks),
		timeLogOrEmpty(taskToUpdate.TimeLog),
		taskToUpdate.TotalTimeSpent,
		taskToUpdate.TrackedSeconds,
		taskToUpdate.CompletedAt,
		taskToUpdate.IsDeleted,
		taskToUpdate.DeletedAt,
		taskToUpdate.ID,
		taskToUpdate.Version,
	).Scan(&taskToUpdate.UpdatedAt, &taskToUpdate.Version)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.missingOrConflict(ctx, taskToUpdate)
		}
		logger.Error("Repository: Не удалось обновить задачу", err)
		return WrapError("обновление задачи", err)
	}

	if time.Since(start) > slowQuery {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) missingOrConflict(ctx context.Context, t *task.Task) error {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tasks WHERE id = $1)`, t.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("проверка существования задачи: %w", err)
	}
	if !exists {
		return repo.ErrNotFound
	}

	logger.Warn("Repository: Конфликт версий при обновлении задачи",
		zap.String("task_id", t.ID),
		zap.Int("expected_version", t.Version))
	return repo.ErrVersionConflict
}

func (s *Storage) GetByID(ctx context.Context, id string) (*task.Task, error) {
	start := time.Now()

	query := `SELECT ` + taskColumns + `
				FROM tasks
				WHERE id = $1`

	t, err := scanTask(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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
	query := `SELECT ` + taskColumns + `
				FROM tasks` + where + orderBy(opts.Sort)
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
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
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if !f.IncludeDeleted {
		conds = append(conds, "NOT is_deleted")
	}
	if f.AssignedTo != "" {
		add("assigned_to = $%d", f.AssignedTo)
	}
	if f.OwnerOrTeam != "" {
		add("(assigned_to = $%d OR team_id <> '')", f.OwnerOrTeam)
	}
	if len(f.Statuses) > 0 {
		add("status = ANY($%d)", statusStrings(f.Statuses))
	}
	if len(f.ExcludeStatus) > 0 {
		add("NOT (status = ANY($%d))", statusStrings(f.ExcludeStatus))
	}
	if f.DeadlineBefore != nil {
		add("deadline < $%d", *f.DeadlineBefore)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// seq - порядок вставки, делает сортировку стабильной
func orderBy(order repo.SortOrder) string {
	switch order {
	case repo.SortCreatedDesc:
		return " ORDER BY created_at DESC, seq"
	case repo.SortCompletedDesc:
		return " ORDER BY COALESCE(completed_at, updated_at, created_at) DESC, seq"
	case repo.SortPriorityDesc:
		return " ORDER BY priority_rank DESC, created_at, seq"
	case repo.SortDeadlineAsc:
		return " ORDER BY deadline NULLS LAST, seq"
	default:
		return " ORDER BY seq"
	}
}

func scanTask(row pgx.Row) (*task.Task, error) {
	t := &task.Task{}
	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.Priority,
		&t.Deadline,
		&t.ScheduledStart,
		&t.ScheduledEnd,
		&t.EnergyLevelRequired,
		&t.AssignedTo,
		&t.TeamID,
		&t.ProjectID,
		&t.IsPrivate,
		&t.Subtasks,
		&t.TimeLog,
		&t.TotalTimeSpent,
		&t.TrackedSeconds,
		&t.AIPriorityReasoning,
		&t.AIEstimatedDurationMinutes,
		&t.AIConfidenceScore,
		&t.AITags,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.CompletedAt,
		&t.Version,
		&t.IsDeleted,
		&t.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func statusStrings(statuses []task.Status) []string {
	res := make([]string, 0, len(statuses))
	for _, s := range statuses {
		res = append(res, string(s))
	}
	return res
}

func subtasksOrEmpty(v []task.Subtask) []task.Subtask {
	if v == nil {
		return []task.Subtask{}
	}
	return v
}

func timeLogOrEmpty(v []task.TimeLogEntry) []task.TimeLogEntry {
	if v == nil {
		return []task.TimeLogEntry{}
	}
	return v
}

func tagsOrEmpty(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
