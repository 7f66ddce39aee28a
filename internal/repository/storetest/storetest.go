// Package storetest - общий набор проверок для реализаций TaskStore и UserStore.
// Каждое хранилище подключает его в своём _test.go.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"taskPlanner/internal/models/task"
	"taskPlanner/internal/models/user"
	"taskPlanner/internal/repository"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// base - миллисекунды, чтобы точность mongo не мешала сравнению
var base = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

// TaskStoreSuite ожидает, что Store и Users выставлены в SetupSuite,
// а Reset очищает данные перед каждым тестом
type TaskStoreSuite struct {
	suite.Suite
	Store repository.TaskStore
	Users repository.UserStore
	Reset func()
}

func (s *TaskStoreSuite) SetupTest() {
	if s.Reset != nil {
		s.Reset()
	}
}

func NewTask(owner string, mutators ...func(*task.Task)) *task.Task {
	t := &task.Task{
		ID:                  uuid.NewString(),
		Title:               "задача",
		Description:         "описание",
		Status:              task.StatusTodo,
		Priority:            task.PriorityMedium,
		EnergyLevelRequired: task.EnergyMedium,
		AssignedTo:          owner,
		IsPrivate:           true,
		Subtasks:            []task.Subtask{},
		TimeLog:             []task.TimeLogEntry{},
		AITags:              []string{},
		AIConfidenceScore:   80,
		CreatedAt:           base,
	}
	for _, m := range mutators {
		m(t)
	}
	return t
}

func (s *TaskStoreSuite) create(t *task.Task) *task.Task {
	require.NoError(s.T(), s.Store.Create(context.Background(), t))
	return t
}

func (s *TaskStoreSuite) ids(tasks []*task.Task) []string {
	res := make([]string, 0, len(tasks))
	for _, t := range tasks {
		res = append(res, t.ID)
	}
	return res
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Sub(*b).Abs() < time.Millisecond
}

// TestHealthCheck тестирует проверку здоровья
func (s *TaskStoreSuite) TestHealthCheck() {
	assert.NoError(s.T(), s.Store.HealthCheck(context.Background()))
}

// TestCreateAndGet тестирует, что все поля задачи переживают запись и чтение
func (s *TaskStoreSuite) TestCreateAndGet() {
	ctx := context.Background()
	deadline := base.Add(48 * time.Hour)
	closedAt := base.Add(30 * time.Minute)

	original := s.create(NewTask("owner-1", func(t *task.Task) {
		t.Priority = task.PriorityHigh
		t.Deadline = &deadline
		t.TeamID = "team-1"
		t.ProjectID = "project-1"
		t.IsPrivate = false
		t.Subtasks = []task.Subtask{{Title: "шаг 1", IsCompleted: true}, {Title: "шаг 2"}}
		t.TimeLog = []task.TimeLogEntry{
			{UserID: "owner-1", StartTime: base, EndTime: &closedAt, DurationSeconds: 1800, DurationMinutes: 30},
			{UserID: "owner-1", StartTime: base.Add(time.Hour)},
		}
		t.TotalTimeSpent = 30
		t.TrackedSeconds = 1800
		t.AIPriorityReasoning = "Auto-analyzed: задача"
		t.AIEstimatedDurationMinutes = 60
		t.AITags = []string{"urgent"}
	}))
	assert.Equal(s.T(), 1, original.Version)

	got, err := s.Store.GetByID(ctx, original.ID)
	require.NoError(s.T(), err)

	assert.Equal(s.T(), original.ID, got.ID)
	assert.Equal(s.T(), original.Title, got.Title)
	assert.Equal(s.T(), original.Description, got.Description)
	assert.Equal(s.T(), task.StatusTodo, got.Status)
	assert.Equal(s.T(), task.PriorityHigh, got.Priority)
	assert.Equal(s.T(), task.EnergyMedium, got.EnergyLevelRequired)
	assert.True(s.T(), sameTime(&deadline, got.Deadline))
	assert.Equal(s.T(), "owner-1", got.AssignedTo)
	assert.Equal(s.T(), "team-1", got.TeamID)
	assert.Equal(s.T(), "project-1", got.ProjectID)
	assert.False(s.T(), got.IsPrivate)
	assert.Equal(s.T(), original.Subtasks, got.Subtasks)
	require.Len(s.T(), got.TimeLog, 2)
	assert.True(s.T(), sameTime(&closedAt, got.TimeLog[0].EndTime))
	assert.Equal(s.T(), int64(1800), got.TimeLog[0].DurationSeconds)
	assert.True(s.T(), got.TimeLog[1].IsOpen())
	assert.Equal(s.T(), 30, got.TotalTimeSpent)
	assert.Equal(s.T(), int64(1800), got.TrackedSeconds)
	assert.Equal(s.T(), "Auto-analyzed: задача", got.AIPriorityReasoning)
	assert.Equal(s.T(), 60, got.AIEstimatedDurationMinutes)
	assert.Equal(s.T(), 80, got.AIConfidenceScore)
	assert.Equal(s.T(), []string{"urgent"}, got.AITags)
	assert.True(s.T(), sameTime(&base, &got.CreatedAt))
	assert.Equal(s.T(), 1, got.Version)
	assert.False(s.T(), got.IsDeleted)
	assert.Nil(s.T(), got.CompletedAt)
}

func (s *TaskStoreSuite) TestCreate_EmptyCollections() {
	created := s.create(NewTask("owner-1", func(t *task.Task) {
		t.Priority = task.PriorityUnset
	}))

	got, err := s.Store.GetByID(context.Background(), created.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), task.PriorityUnset, got.Priority)
	assert.Empty(s.T(), got.Subtasks)
	assert.Empty(s.T(), got.TimeLog)
	assert.Empty(s.T(), got.AITags)
	assert.Empty(s.T(), got.TeamID)
	assert.Nil(s.T(), got.Deadline)
}

func (s *TaskStoreSuite) TestCreate_Duplicate() {
	created := s.create(NewTask("owner-1"))

	err := s.Store.Create(context.Background(), NewTask("owner-1", func(t *task.Task) { t.ID = created.ID }))
	assert.ErrorIs(s.T(), err, repository.ErrAlreadyExists)
}

func (s *TaskStoreSuite) TestGetByID_NotFound() {
	_, err := s.Store.GetByID(context.Background(), uuid.NewString())
	assert.ErrorIs(s.T(), err, repository.ErrNotFound)
}

// TestUpdate тестирует запись с проверкой версии
func (s *TaskStoreSuite) TestUpdate() {
	ctx := context.Background()
	created := s.create(NewTask("owner-1"))

	loaded, err := s.Store.GetByID(ctx, created.ID)
	require.NoError(s.T(), err)
	completed := base.Add(time.Hour)
	loaded.Status = task.StatusDone
	loaded.CompletedAt = &completed
	loaded.IsDeleted = true
	loaded.DeletedAt = &completed

	require.NoError(s.T(), s.Store.Update(ctx, loaded))
	assert.Equal(s.T(), 2, loaded.Version)
	require.NotNil(s.T(), loaded.UpdatedAt)

	got, err := s.Store.GetByID(ctx, created.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), task.StatusDone, got.Status)
	assert.Equal(s.T(), 2, got.Version)
	assert.True(s.T(), sameTime(&completed, got.CompletedAt))
	assert.True(s.T(), got.IsDeleted)
	assert.True(s.T(), sameTime(&completed, got.DeletedAt))
	assert.NotNil(s.T(), got.UpdatedAt)
}

func (s *TaskStoreSuite) TestUpdate_VersionConflict() {
	ctx := context.Background()
	created := s.create(NewTask("owner-1"))

	first, err := s.Store.GetByID(ctx, created.ID)
	require.NoError(s.T(), err)
	second, err := s.Store.GetByID(ctx, created.ID)
	require.NoError(s.T(), err)

	first.Title = "первый"
	require.NoError(s.T(), s.Store.Update(ctx, first))

	second.Title = "второй"
	err = s.Store.Update(ctx, second)
	assert.ErrorIs(s.T(), err, repository.ErrVersionConflict)

	got, err := s.Store.GetByID(ctx, created.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "первый", got.Title)
	assert.Equal(s.T(), 2, got.Version)
}

func (s *TaskStoreSuite) TestUpdate_NotFound() {
	missing := NewTask("owner-1")
	missing.Version = 1
	err := s.Store.Update(context.Background(), missing)
	assert.ErrorIs(s.T(), err, repository.ErrNotFound)
}

// TestUpdate_Concurrent тестирует, что из параллельных записей одной версии проходит одна
func (s *TaskStoreSuite) TestUpdate_Concurrent() {
	ctx := context.Background()
	created := s.create(NewTask("owner-1"))

	const writers = 5
	copies := make([]*task.Task, writers)
	for i := range copies {
		c, err := s.Store.GetByID(ctx, created.ID)
		require.NoError(s.T(), err)
		c.Title = fmt.Sprintf("writer %d", i)
		copies[i] = c
	}

	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := range copies {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Store.Update(ctx, copies[i])
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(s.T(), err, repository.ErrVersionConflict)
	}
	assert.Equal(s.T(), 1, succeeded)

	got, err := s.Store.GetByID(ctx, created.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 2, got.Version)
}

// TestFind_Filters тестирует условия выборки
func (s *TaskStoreSuite) TestFind_Filters() {
	ctx := context.Background()
	soon := base.Add(2 * time.Hour)
	later := base.Add(72 * time.Hour)

	own := s.create(NewTask("owner-1", func(t *task.Task) { t.Deadline = &soon }))
	done := s.create(NewTask("owner-1", func(t *task.Task) { t.Status = task.StatusDone }))
	team := s.create(NewTask("owner-2", func(t *task.Task) {
		t.TeamID = "team-1"
		t.IsPrivate = false
		t.Status = task.StatusInProgress
		t.Deadline = &later
	}))
	s.create(NewTask("owner-2"))
	deleted := s.create(NewTask("owner-1", func(t *task.Task) { t.IsDeleted = true }))

	tests := []struct {
		name     string
		filter   repository.TaskFilter
		expected []string
	}{
		{
			name:     "success - assigned to",
			filter:   repository.TaskFilter{AssignedTo: "owner-1"},
			expected: []string{own.ID, done.ID},
		},
		{
			name:     "success - owner or team",
			filter:   repository.TaskFilter{OwnerOrTeam: "owner-1"},
			expected: []string{own.ID, done.ID, team.ID},
		},
		{
			name:     "success - statuses",
			filter:   repository.TaskFilter{AssignedTo: "owner-1", Statuses: []task.Status{task.StatusDone}},
			expected: []string{done.ID},
		},
		{
			name:     "success - exclude statuses",
			filter:   repository.TaskFilter{ExcludeStatus: []task.Status{task.StatusTodo}},
			expected: []string{done.ID, team.ID},
		},
		{
			name:     "success - deadline before",
			filter:   repository.TaskFilter{DeadlineBefore: &later},
			expected: []string{own.ID},
		},
		{
			name:     "success - include deleted",
			filter:   repository.TaskFilter{AssignedTo: "owner-1", IncludeDeleted: true},
			expected: []string{own.ID, done.ID, deleted.ID},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			got, err := s.Store.Find(ctx, tt.filter, repository.FindOptions{})
			require.NoError(s.T(), err)
			assert.ElementsMatch(s.T(), tt.expected, s.ids(got))
		})
	}
}

// TestFind_Sort тестирует порядок и лимит выборки
func (s *TaskStoreSuite) TestFind_Sort() {
	ctx := context.Background()
	d1 := base.Add(time.Hour)
	d2 := base.Add(2 * time.Hour)

	low := s.create(NewTask("owner-1", func(t *task.Task) {
		t.Priority = task.PriorityLow
		t.CreatedAt = base
		t.Deadline = &d2
	}))
	highOld := s.create(NewTask("owner-1", func(t *task.Task) {
		t.Priority = task.PriorityHigh
		t.CreatedAt = base.Add(time.Minute)
	}))
	unset := s.create(NewTask("owner-1", func(t *task.Task) {
		t.Priority = task.PriorityUnset
		t.CreatedAt = base.Add(2 * time.Minute)
		t.Deadline = &d1
	}))
	highNew := s.create(NewTask("owner-1", func(t *task.Task) {
		t.Priority = task.PriorityHigh
		t.CreatedAt = base.Add(3 * time.Minute)
	}))

	filter := repository.TaskFilter{AssignedTo: "owner-1"}

	s.Run("success - priority desc then created asc", func() {
		got, err := s.Store.Find(ctx, filter, repository.FindOptions{Sort: repository.SortPriorityDesc})
		require.NoError(s.T(), err)
		assert.Equal(s.T(), []string{highOld.ID, highNew.ID, low.ID, unset.ID}, s.ids(got))
	})

	s.Run("success - created desc with limit", func() {
		got, err := s.Store.Find(ctx, filter, repository.FindOptions{Sort: repository.SortCreatedDesc, Limit: 2})
		require.NoError(s.T(), err)
		assert.Equal(s.T(), []string{highNew.ID, unset.ID}, s.ids(got))
	})

	s.Run("success - deadline asc without deadline last", func() {
		got, err := s.Store.Find(ctx, filter, repository.FindOptions{Sort: repository.SortDeadlineAsc})
		require.NoError(s.T(), err)
		require.Len(s.T(), got, 4)
		assert.Equal(s.T(), []string{unset.ID, low.ID}, s.ids(got[:2]))
	})
}

func (s *TaskStoreSuite) TestFind_CompletedDesc() {
	ctx := context.Background()
	first := base.Add(time.Hour)
	second := base.Add(2 * time.Hour)

	older := s.create(NewTask("owner-1", func(t *task.Task) {
		t.Status = task.StatusDone
		t.CompletedAt = &first
	}))
	newer := s.create(NewTask("owner-1", func(t *task.Task) {
		t.Status = task.StatusDone
		t.CompletedAt = &second
	}))

	got, err := s.Store.Find(ctx,
		repository.TaskFilter{AssignedTo: "owner-1", Statuses: []task.Status{task.StatusDone}},
		repository.FindOptions{Sort: repository.SortCompletedDesc, Limit: 30})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []string{newer.ID, older.ID}, s.ids(got))
}

func (s *TaskStoreSuite) TestFind_Empty() {
	got, err := s.Store.Find(context.Background(), repository.TaskFilter{AssignedTo: "nobody"}, repository.FindOptions{})
	require.NoError(s.T(), err)
	assert.Empty(s.T(), got)
}

// TestUsers тестирует хранилище пользователей того же бэкенда
func (s *TaskStoreSuite) TestUsers() {
	if s.Users == nil {
		s.T().Skip("хранилище пользователей не подключено")
	}
	ctx := context.Background()
	id := uuid.NewString()

	u := &user.User{
		ID:    id,
		Name:  "Алиса",
		Email: "alice@example.com",
		Teams: []user.Membership{{TeamID: "team-1", Role: user.RoleAdmin, JobTitle: "lead"}},
		Settings: user.Settings{
			WorkHoursStart: "10:00",
			WorkHoursEnd:   "18:00",
			EnergyProfile:  map[int]int{9: 3, 14: 1},
		},
		CreatedAt: base,
	}
	require.NoError(s.T(), s.Users.CreateUser(ctx, u))
	assert.ErrorIs(s.T(), s.Users.CreateUser(ctx, u), repository.ErrAlreadyExists)

	got, err := s.Users.GetUserByID(ctx, id)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Алиса", got.Name)
	assert.True(s.T(), got.IsMemberOf("team-1"))
	assert.Equal(s.T(), "10:00", got.Settings.WorkHoursStart)
	assert.Equal(s.T(), map[int]int{9: 3, 14: 1}, got.Settings.EnergyProfile)

	got.Teams = append(got.Teams, user.Membership{TeamID: "team-2", Role: user.RoleMember})
	require.NoError(s.T(), s.Users.UpdateUser(ctx, got))

	updated, err := s.Users.GetUserByID(ctx, id)
	require.NoError(s.T(), err)
	assert.True(s.T(), updated.IsMemberOf("team-2"))

	_, err = s.Users.GetUserByID(ctx, uuid.NewString())
	assert.ErrorIs(s.T(), err, repository.ErrNotFound)
	assert.ErrorIs(s.T(), s.Users.UpdateUser(ctx, &user.User{ID: uuid.NewString()}), repository.ErrNotFound)
}
