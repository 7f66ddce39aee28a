package inmemory

import (
	"context"
	"sync"
	"taskPlanner/internal/logger"
	"taskPlanner/internal/models/task"
	repo "taskPlanner/internal/repository"
	"time"

	"go.uber.org/zap"
)

// TaskStorage хранит копии задач: наружу никогда не отдаются внутренние указатели
type TaskStorage struct {
	storage map[string]*task.Task
	mtx     *sync.RWMutex
	// порядок вставки, чтобы выборка была детерминированной
	ids []string
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage: make(map[string]*task.Task),
		mtx:     &sync.RWMutex{},
		ids:     []string{},
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	logger.Debug("Repository: Соединение стабильно")
	return nil
}

func (s *TaskStorage) Create(ctx context.Context, taskToCreate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[taskToCreate.ID]; ok {
		return repo.ErrAlreadyExists
	}

	if taskToCreate.CreatedAt.IsZero() {
		taskToCreate.CreatedAt = time.Now()
	}
	taskToCreate.Version = 1

	s.storage[taskToCreate.ID] = taskToCreate.Clone()
	s.ids = append(s.ids, taskToCreate.ID)
	return nil
}

// Update записывает задачу, только если версия не изменилась с момента чтения
func (s *TaskStorage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existed, ok := s.storage[taskToUpdate.ID]
	if !ok {
		return repo.ErrNotFound
	}
	if existed.Version != taskToUpdate.Version {
		logger.Warn("Repository: Конфликт версий при обновлении задачи",
			zap.String("task_id", taskToUpdate.ID),
			zap.Int("expected_version", taskToUpdate.Version),
			zap.Int("actual_version", existed.Version))
		return repo.ErrVersionConflict
	}

	now := time.Now()
	taskToUpdate.UpdatedAt = &now
	taskToUpdate.Version++
	s.storage[taskToUpdate.ID] = taskToUpdate.Clone()

	return nil
}

func (s *TaskStorage) GetByID(ctx context.Context, id string) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	taskToGet, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return taskToGet.Clone(), nil
}

func (s *TaskStorage) Find(ctx context.Context, filter repo.TaskFilter, opts repo.FindOptions) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	for _, id := range s.ids {
		t := s.storage[id]
		if !filter.Match(t) {
			continue
		}
		res = append(res, t.Clone())
	}

	repo.SortTasks(res, opts.Sort)
	if opts.Limit > 0 && len(res) > opts.Limit {
		res = res[:opts.Limit]
	}
	return res, nil
}
