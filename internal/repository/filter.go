package repository

import (
	"context"
	"sort"
	"taskPlanner/internal/models/task"
	"taskPlanner/internal/models/user"
	"time"
)

// TaskFilter - условия выборки задач, все непустые поля объединяются через AND.
// OwnerOrTeam заменяет AssignedTo: задачи пользователя ИЛИ любые командные задачи.
type TaskFilter struct {
	AssignedTo     string
	OwnerOrTeam    string
	Statuses       []task.Status
	ExcludeStatus  []task.Status
	DeadlineBefore *time.Time
	IncludeDeleted bool
}

type SortOrder string

const (
	SortNone          SortOrder = ""
	SortCreatedDesc   SortOrder = "created_desc"
	SortCompletedDesc SortOrder = "completed_desc"
	// приоритет по убыванию, при равенстве - по времени создания
	SortPriorityDesc SortOrder = "priority_desc"
	SortDeadlineAsc  SortOrder = "deadline_asc"
)

type FindOptions struct {
	Sort  SortOrder
	Limit int
}

type TaskStore interface {
	HealthCheck(ctx context.Context) error
	Create(ctx context.Context, t *task.Task) error
	Update(ctx context.Context, t *task.Task) error
	GetByID(ctx context.Context, id string) (*task.Task, error)
	Find(ctx context.Context, filter TaskFilter, opts FindOptions) ([]*task.Task, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, u *user.User) error
	UpdateUser(ctx context.Context, u *user.User) error
	GetUserByID(ctx context.Context, id string) (*user.User, error)
}

// Match проверяет задачу на соответствие фильтру в памяти.
// Используется in-memory хранилищем и как эталон для тестов остальных.
func (f TaskFilter) Match(t *task.Task) bool {
	if !f.IncludeDeleted && !t.IsActive() {
		return false
	}
	if f.AssignedTo != "" && t.AssignedTo != f.AssignedTo {
		return false
	}
	if f.OwnerOrTeam != "" && t.AssignedTo != f.OwnerOrTeam && t.TeamID == "" {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, t.Status) {
		return false
	}
	if len(f.ExcludeStatus) > 0 && containsStatus(f.ExcludeStatus, t.Status) {
		return false
	}
	if f.DeadlineBefore != nil {
		if t.Deadline == nil || !t.Deadline.Before(*f.DeadlineBefore) {
			return false
		}
	}
	return true
}

func containsStatus(list []task.Status, s task.Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// SortTasks сортирует стабильно, чтобы равные элементы сохраняли порядок выборки
func SortTasks(tasks []*task.Task, order SortOrder) {
	switch order {
	case SortCreatedDesc:
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		})
	case SortCompletedDesc:
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].CompletionTime().After(tasks[j].CompletionTime())
		})
	case SortPriorityDesc:
		sort.SliceStable(tasks, func(i, j int) bool {
			ri, rj := tasks[i].Priority.Rank(), tasks[j].Priority.Rank()
			if ri != rj {
				return ri > rj
			}
			return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
		})
	case SortDeadlineAsc:
		sort.SliceStable(tasks, func(i, j int) bool {
			di, dj := tasks[i].Deadline, tasks[j].Deadline
			if di == nil || dj == nil {
				return di != nil
			}
			return di.Before(*dj)
		})
	}
}
