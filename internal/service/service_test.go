package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"taskPlanner/internal/broadcast"
	"taskPlanner/internal/models/task"
	"taskPlanner/internal/models/user"
	"taskPlanner/internal/repository"
	taskmemory "taskPlanner/internal/repository/task/inmemory"
	usermemory "taskPlanner/internal/repository/user/inmemory"
	"taskPlanner/internal/service"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTaskStore - мок хранилища задач
type MockTaskStore struct {
	mock.Mock
}

func (m *MockTaskStore) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTaskStore) Create(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskStore) Update(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskStore) GetByID(ctx context.Context, id string) (*task.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskStore) Find(ctx context.Context, filter repository.TaskFilter, opts repository.FindOptions) ([]*task.Task, error) {
	args := m.Called(ctx, filter, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

var _ repository.TaskStore = (*MockTaskStore)(nil)

// MockUserStore - мок хранилища пользователей
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) CreateUser(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserStore) UpdateUser(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserStore) GetUserByID(ctx context.Context, id string) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

var _ repository.UserStore = (*MockUserStore)(nil)

type published struct {
	room  string
	event string
	data  any
}

// recordingSink запоминает опубликованные события
type recordingSink struct {
	mtx    sync.Mutex
	events []published
}

func (r *recordingSink) Publish(room, event string, payload any) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.events = append(r.events, published{room: room, event: event, data: payload})
}

func (r *recordingSink) rooms() []string {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	res := make([]string, 0, len(r.events))
	for _, e := range r.events {
		res = append(res, e.room)
	}
	return res
}

// testClock - управляемое время
type testClock struct {
	mtx sync.Mutex
	now time.Time
}

func newClock() *testClock {
	return &testClock{now: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.now = c.now.Add(d)
}

func fastRetry() service.RetryConfig {
	return service.RetryConfig{
		MaxRetries:      1,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
		FetchTimeout:    time.Second,
	}
}

type env struct {
	svc   *service.TaskService
	tasks *taskmemory.TaskStorage
	users *usermemory.UserStorage
	sink  *recordingSink
	clock *testClock
}

func newEnv(t *testing.T, options ...service.Option) *env {
	t.Helper()
	e := &env{
		tasks: taskmemory.NewTaskStorage(),
		users: usermemory.NewUserStorage(),
		sink:  &recordingSink{},
		clock: newClock(),
	}
	all := []service.Option{
		service.WithEvents(e.sink),
		service.WithClock(e.clock.Now),
		service.WithRetry(fastRetry()),
	}
	all = append(all, options...)
	e.svc = service.NewTaskService(e.tasks, e.users, all...)
	return e
}

func (e *env) create(t *testing.T, owner string, in service.CreateTaskInput) *task.Task {
	t.Helper()
	created, err := e.svc.CreateTask(context.Background(), owner, in)
	require.NoError(t, err)
	e.clock.Advance(time.Minute)
	return created
}

func statusPtr(s task.Status) *task.Status { return &s }

func priorityPtr(p task.Priority) *task.Priority { return &p }

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var busErr *service.BusinessError
	require.True(t, errors.As(err, &busErr), "Expected BusinessError, got %v", err)
	assert.Equal(t, code, busErr.Code)
}

// TestTaskService_HealthCheck тестирует HealthCheck
func TestTaskService_HealthCheck(t *testing.T) {
	tests := []struct {
		name        string
		setupMock   func(*MockTaskStore)
		expectError bool
	}{
		{
			name: "success - health check passes",
			setupMock: func(m *MockTaskStore) {
				m.On("HealthCheck", mock.Anything).Return(nil)
			},
			expectError: false,
		},
		{
			name: "error - health check fails",
			setupMock: func(m *MockTaskStore) {
				m.On("HealthCheck", mock.Anything).Return(errors.New("db connection failed"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskStore)
			tt.setupMock(mockRepo)

			svc := service.NewTaskService(mockRepo, nil)
			err := svc.HealthCheck(context.Background())

			if tt.expectError {
				assertCode(t, err, service.CodeStorage)
				assert.Contains(t, err.Error(), "db connection failed")
			} else {
				assert.NoError(t, err)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

// TestTaskService_CreateTask тестирует создание задачи
func TestTaskService_CreateTask(t *testing.T) {
	deadline := time.Date(2025, 3, 12, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		input     service.CreateTaskInput
		errorCode string
		check     func(t *testing.T, got *task.Task)
	}{
		{
			name:  "success - defaults filled",
			input: service.CreateTaskInput{Title: "Написать отчёт"},
			check: func(t *testing.T, got *task.Task) {
				_, err := uuid.Parse(got.ID)
				assert.NoError(t, err)
				assert.Equal(t, task.StatusTodo, got.Status)
				assert.Equal(t, task.PriorityMedium, got.Priority)
				assert.Equal(t, task.EnergyMedium, got.EnergyLevelRequired)
				assert.Equal(t, "owner-1", got.AssignedTo)
				assert.True(t, got.IsPrivate)
				assert.Equal(t, 1, got.Version)
				assert.Equal(t, service.DefaultEstimatedMinutes, got.AIEstimatedDurationMinutes)
				assert.Equal(t, service.DefaultConfidenceScore, got.AIConfidenceScore)
				assert.Equal(t, "Auto-analyzed: Написать отчёт", got.AIPriorityReasoning)
				assert.NotNil(t, got.AITags)
				assert.Empty(t, got.TimeLog)
				assert.Zero(t, got.TotalTimeSpent)
			},
		},
		{
			name: "success - team task with subtasks",
			input: service.CreateTaskInput{
				Title:               "Релиз",
				Priority:            task.PriorityHigh,
				TeamID:              "team-1",
				Deadline:            &deadline,
				EnergyLevelRequired: task.EnergyHigh,
				Subtasks:            []string{"сборка", "деплой"},
			},
			check: func(t *testing.T, got *task.Task) {
				assert.False(t, got.IsPrivate)
				assert.Equal(t, "team-1", got.TeamID)
				assert.Equal(t, task.PriorityHigh, got.Priority)
				require.NotNil(t, got.Deadline)
				assert.Equal(t, deadline, *got.Deadline)
				require.Len(t, got.Subtasks, 2)
				assert.False(t, got.Subtasks[0].IsCompleted)
			},
		},
		{
			name:      "error - blank title",
			input:     service.CreateTaskInput{Title: "   "},
			errorCode: service.CodeValidation,
		},
		{
			name:      "error - unknown priority",
			input:     service.CreateTaskInput{Title: "x", Priority: "Urgent"},
			errorCode: service.CodeValidation,
		},
		{
			name:      "error - unknown energy level",
			input:     service.CreateTaskInput{Title: "x", EnergyLevelRequired: "Extreme"},
			errorCode: service.CodeValidation,
		},
		{
			name:      "error - blank subtask",
			input:     service.CreateTaskInput{Title: "x", Subtasks: []string{"ok", " "}},
			errorCode: service.CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			got, err := e.svc.CreateTask(context.Background(), "owner-1", tt.input)

			if tt.errorCode != "" {
				assertCode(t, err, tt.errorCode)
				assert.Nil(t, got)
				assert.Empty(t, e.sink.rooms())
				return
			}
			require.NoError(t, err)
			tt.check(t, got)

			stored, err := e.svc.GetTask(context.Background(), got.ID, "owner-1")
			require.NoError(t, err)
			assert.Equal(t, got, stored)
		})
	}
}

func TestTaskService_CreateTask_StorageError(t *testing.T) {
	mockRepo := new(MockTaskStore)
	mockRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	svc := service.NewTaskService(mockRepo, nil, service.WithRetry(fastRetry()))
	got, err := svc.CreateTask(context.Background(), "owner-1", service.CreateTaskInput{Title: "x"})

	assertCode(t, err, service.CodeStorage)
	assert.Nil(t, got)
	// первая попытка и один повтор
	mockRepo.AssertNumberOfCalls(t, "Create", 2)
}

// TestTaskService_CreateTask_TitleLength тестирует предел длины названия в символах
func TestTaskService_CreateTask_TitleLength(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		expectError bool
	}{
		{name: "success - title at limit", title: strings.Repeat("я", task.MaxTitleLength)},
		{name: "error - title over limit", title: strings.Repeat("я", task.MaxTitleLength+1), expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			got, err := e.svc.CreateTask(context.Background(), "owner-1", service.CreateTaskInput{Title: tt.title})

			if tt.expectError {
				assertCode(t, err, service.CodeValidation)
				assert.Nil(t, got)
				assert.Empty(t, e.sink.rooms())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.title, got.Title)
		})
	}
}

// TestTaskService_RejectedByStore тестирует, что отказ хранилища по данным не повторяется
func TestTaskService_RejectedByStore(t *testing.T) {
	ctx := context.Background()
	rejected := fmt.Errorf("добавление задачи: %w: %w", repository.ErrRejected, errors.New("value too long"))

	t.Run("error - create", func(t *testing.T) {
		mockRepo := new(MockTaskStore)
		mockRepo.On("Create", mock.Anything, mock.Anything).Return(rejected)

		svc := service.NewTaskService(mockRepo, nil, service.WithRetry(fastRetry()))
		got, err := svc.CreateTask(ctx, "owner-1", service.CreateTaskInput{Title: "x"})

		assertCode(t, err, service.CodeValidation)
		assert.ErrorIs(t, err, repository.ErrRejected)
		assert.Nil(t, got)
		mockRepo.AssertNumberOfCalls(t, "Create", 1)
	})

	t.Run("error - update", func(t *testing.T) {
		taskID := uuid.NewString()
		mockRepo := new(MockTaskStore)
		mockRepo.On("GetByID", mock.Anything, taskID).
			Return(&task.Task{ID: taskID, AssignedTo: "owner-1", Status: task.StatusTodo, Version: 1}, nil)
		mockRepo.On("Update", mock.Anything, mock.Anything).Return(rejected)

		svc := service.NewTaskService(mockRepo, nil, service.WithRetry(fastRetry()))
		_, err := svc.UpdateTask(ctx, taskID, "owner-1", service.UpdateTaskInput{Status: statusPtr(task.StatusDone)})

		assertCode(t, err, service.CodeValidation)
		mockRepo.AssertNumberOfCalls(t, "Update", 1)
		mockRepo.AssertNumberOfCalls(t, "GetByID", 1)
	})
}

func TestTaskService_CreateTask_PublishesEvent(t *testing.T) {
	e := newEnv(t)
	created := e.create(t, "owner-1", service.CreateTaskInput{Title: "x", TeamID: "team-1"})

	assert.Equal(t, []string{broadcast.UserRoom("owner-1"), broadcast.TeamRoom("team-1")}, e.sink.rooms())
	payload, ok := e.sink.events[0].data.(broadcast.TaskUpdated)
	require.True(t, ok)
	assert.Equal(t, created.ID, payload.TaskID)
	assert.Equal(t, broadcast.EventTaskUpdated, e.sink.events[0].event)
}

// TestTaskService_UpdateTask тестирует частичное обновление
func TestTaskService_UpdateTask(t *testing.T) {
	ctx := context.Background()

	t.Run("success - status done sets completed_at", func(t *testing.T) {
		e := newEnv(t)
		created := e.create(t, "owner-1", service.CreateTaskInput{Title: "x"})

		got, err := e.svc.UpdateTask(ctx, created.ID, "owner-1", service.UpdateTaskInput{
			Status:   statusPtr(task.StatusDone),
			Priority: priorityPtr(task.PriorityLow),
		})
		require.NoError(t, err)
		assert.Equal(t, task.StatusDone, got.Status)
		assert.Equal(t, task.PriorityLow, got.Priority)
		require.NotNil(t, got.CompletedAt)
		assert.Equal(t, e.clock.Now(), *got.CompletedAt)
		assert.Equal(t, 2, got.Version)
		assert.Equal(t, "x", got.Title)
	})

	t.Run("error - non owner leaves task unchanged", func(t *testing.T) {
		e := newEnv(t)
		created := e.create(t, "owner-1", service.CreateTaskInput{Title: "x", TeamID: "team-1"})

		_, err := e.svc.UpdateTask(ctx, created.ID, "intruder", service.UpdateTaskInput{
			Status: statusPtr(task.StatusDone),
		})
		assertCode(t, err, service.CodeAccessDenied)

		stored, err := e.tasks.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, task.StatusTodo, stored.Status)
		assert.Equal(t, 1, stored.Version)
	})

	t.Run("error - invalid status", func(t *testing.T) {
		e := newEnv(t)
		created := e.create(t, "owner-1", service.CreateTaskInput{Title: "x"})

		_, err := e.svc.UpdateTask(ctx, created.ID, "owner-1", service.UpdateTaskInput{
			Status: statusPtr("Archived"),
		})
		assertCode(t, err, service.CodeValidation)
	})

	t.Run("error - transition rejected by policy", func(t *testing.T) {
		noReopen := func(from, to task.Status) error {
			if from == task.StatusDone && to != task.StatusDone {
				return errors.New("reopen запрещён")
			}
			return nil
		}
		e := newEnv(t, service.WithTransitionPolicy(noReopen))
		created := e.create(t, "owner-1", service.CreateTaskInput{Title: "x"})
		_, err := e.svc.UpdateTask(ctx, created.ID, "owner-1", service.UpdateTaskInput{Status: statusPtr(task.StatusDone)})
		require.NoError(t, err)

		_, err = e.svc.UpdateTask(ctx, created.ID, "owner-1", service.UpdateTaskInput{Status: statusPtr(task.StatusTodo)})
		assertCode(t, err, service.CodeInvalidState)
	})

	t.Run("error - missing task", func(t *testing.T) {
		e := newEnv(t)
		_, err := e.svc.UpdateTask(ctx, uuid.NewString(), "owner-1", service.UpdateTaskInput{})
		assertCode(t, err, service.CodeNotFound)
	})

	t.Run("error - deleted task", func(t *testing.T) {
		e := newEnv(t)
		created := e.create(t, "owner-1", service.CreateTaskInput{Title: "x"})
		require.NoError(t, e.svc.DeleteTask(ctx, created.ID, "owner-1"))

		_, err := e.svc.UpdateTask(ctx, created.ID, "owner-1", service.UpdateTaskInput{Status: statusPtr(task.StatusDone)})
		assertCode(t, err, service.CodeNotFound)
	})
}

// TestTaskService_UpdateTask_VersionConflict тестирует повтор после конфликта версий
func TestTaskService_UpdateTask_VersionConflict(t *testing.T) {
	ctx := context.Background()
	taskID := uuid.NewString()

	fresh := func(version int) *task.Task {
		return &task.Task{ID: taskID, AssignedTo: "owner-1", Status: task.StatusTodo, Version: version}
	}

	t.Run("success - reread after conflict", func(t *testing.T) {
		mockRepo := new(MockTaskStore)
		mockRepo.On("GetByID", mock.Anything, taskID).Return(fresh(1), nil).Once()
		mockRepo.On("GetByID", mock.Anything, taskID).Return(fresh(2), nil).Once()
		mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(t *task.Task) bool {
			return t.Version == 1
		})).Return(repository.ErrVersionConflict).Once()
		mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(t *task.Task) bool {
			return t.Version == 2 && t.Status == task.StatusInProgress
		})).Return(nil).Once()

		svc := service.NewTaskService(mockRepo, nil, service.WithRetry(fastRetry()))
		got, err := svc.UpdateTask(ctx, taskID, "owner-1", service.UpdateTaskInput{Status: statusPtr(task.StatusInProgress)})

		require.NoError(t, err)
		assert.Equal(t, task.StatusInProgress, got.Status)
		mockRepo.AssertExpectations(t)
	})

	t.Run("error - conflict after all attempts", func(t *testing.T) {
		mockRepo := new(MockTaskStore)
		mockRepo.On("GetByID", mock.Anything, taskID).Return(fresh(1), nil)
		mockRepo.On("Update", mock.Anything, mock.Anything).Return(repository.ErrVersionConflict)

		svc := service.NewTaskService(mockRepo, nil, service.WithRetry(fastRetry()))
		_, err := svc.UpdateTask(ctx, taskID, "owner-1", service.UpdateTaskInput{Status: statusPtr(task.StatusDone)})

		assertCode(t, err, service.CodeConflict)
		assert.ErrorIs(t, err, repository.ErrVersionConflict)
		var busErr *service.BusinessError
		require.ErrorAs(t, err, &busErr)
		assert.Equal(t, taskID, busErr.Details["id"])
		assert.Equal(t, 3, busErr.Details["attempts"])
		mockRepo.AssertNumberOfCalls(t, "GetByID", 3)
		mockRepo.AssertNumberOfCalls(t, "Update", 3)
	})

	t.Run("error - task removed between read and write", func(t *testing.T) {
		mockRepo := new(MockTaskStore)
		mockRepo.On("GetByID", mock.Anything, taskID).Return(fresh(1), nil)
		mockRepo.On("Update", mock.Anything, mock.Anything).Return(repository.ErrNotFound)

		svc := service.NewTaskService(mockRepo, nil, service.WithRetry(fastRetry()))
		_, err := svc.UpdateTask(ctx, taskID, "owner-1", service.UpdateTaskInput{Status: statusPtr(task.StatusDone)})

		assertCode(t, err, service.CodeNotFound)
		mockRepo.AssertNumberOfCalls(t, "Update", 1)
	})
}

// TestTaskService_DeleteTask тестирует мягкое удаление
func TestTaskService_DeleteTask(t *testing.T) {
	ctx := context.Background()

	t.Run("success - delete twice overwrites deleted_at", func(t *testing.T) {
		e := newEnv(t)
		created := e.create(t, "owner-1", service.CreateTaskInput{Title: "x"})

		require.NoError(t, e.svc.DeleteTask(ctx, created.ID, "owner-1"))
		first, err := e.tasks.GetByID(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, first.DeletedAt)

		e.clock.Advance(time.Hour)
		require.NoError(t, e.svc.DeleteTask(ctx, created.ID, "owner-1"))
		second, err := e.tasks.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, second.IsDeleted)
		assert.Equal(t, first.DeletedAt.Add(time.Hour), *second.DeletedAt)

		_, err = e.svc.GetTask(ctx, created.ID, "owner-1")
		assertCode(t, err, service.CodeNotFound)

		list, err := e.svc.ListTasks(ctx, "owner-1")
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("error - non owner", func(t *testing.T) {
		e := newEnv(t)
		created := e.create(t, "owner-1", service.CreateTaskInput{Title: "x"})

		err := e.svc.DeleteTask(ctx, created.ID, "intruder")
		assertCode(t, err, service.CodeAccessDenied)

		stored, err := e.tasks.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, stored.IsDeleted)
	})
}

// TestTaskService_GetTask тестирует видимость задач
func TestTaskService_GetTask(t *testing.T) {
	ctx := context.Background()

	t.Run("error - private task of another user", func(t *testing.T) {
		e := newEnv(t)
		created := e.create(t, "owner-1", service.CreateTaskInput{Title: "x"})

		_, err := e.svc.GetTask(ctx, created.ID, "other")
		assertCode(t, err, service.CodeAccessDenied)
	})

	t.Run("success - team task visible to anyone by default", func(t *testing.T) {
		e := newEnv(t)
		created := e.create(t, "owner-1", service.CreateTaskInput{Title: "x", TeamID: "team-1"})

		got, err := e.svc.GetTask(ctx, created.ID, "other")
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
	})

	t.Run("success - membership check", func(t *testing.T) {
		e := newEnv(t)
		e.svc = service.NewTaskService(e.tasks, e.users,
			service.WithClock(e.clock.Now),
			service.WithVisibility(service.MembershipVisibility{Users: e.users}))
		require.NoError(t, e.users.CreateUser(ctx, &user.User{
			ID:    "member",
			Teams: []user.Membership{{TeamID: "team-1", Role: user.RoleMember}},
		}))
		created := e.create(t, "owner-1", service.CreateTaskInput{Title: "x", TeamID: "team-1"})

		_, err := e.svc.GetTask(ctx, created.ID, "member")
		assert.NoError(t, err)

		_, err = e.svc.GetTask(ctx, created.ID, "stranger")
		assertCode(t, err, service.CodeAccessDenied)

		ok, err := e.svc.CanJoinTeam(ctx, "member", "team-1")
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = e.svc.CanJoinTeam(ctx, "stranger", "team-1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("error - storage failure", func(t *testing.T) {
		mockRepo := new(MockTaskStore)
		mockRepo.On("GetByID", mock.Anything, "t-1").Return(nil, errors.New("timeout"))

		svc := service.NewTaskService(mockRepo, nil, service.WithRetry(fastRetry()))
		_, err := svc.GetTask(ctx, "t-1", "owner-1")

		assertCode(t, err, service.CodeStorage)
		mockRepo.AssertNumberOfCalls(t, "GetByID", 2)
	})
}

// TestTaskService_ListTasks тестирует выборку своих и командных задач
func TestTaskService_ListTasks(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	own := e.create(t, "owner-1", service.CreateTaskInput{Title: "своя"})
	team := e.create(t, "owner-2", service.CreateTaskInput{Title: "командная", TeamID: "team-1"})
	e.create(t, "owner-2", service.CreateTaskInput{Title: "чужая"})
	deleted := e.create(t, "owner-1", service.CreateTaskInput{Title: "удалённая"})
	require.NoError(t, e.svc.DeleteTask(ctx, deleted.ID, "owner-1"))

	list, err := e.svc.ListTasks(ctx, "owner-1")
	require.NoError(t, err)

	ids := make([]string, 0, len(list))
	for _, tk := range list {
		ids = append(ids, tk.ID)
	}
	// новые первыми
	assert.Equal(t, []string{team.ID, own.ID}, ids)
}
