package worker

import (
	"context"
	"taskPlanner/internal/broadcast"
	"taskPlanner/internal/models/task"
	"taskPlanner/internal/repository/storetest"
	"taskPlanner/internal/repository/task/inmemory"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(room, event string, payload any) {
	m.Called(room, event, payload)
}

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func deadlineIn(d time.Duration) func(*task.Task) {
	return func(t *task.Task) {
		deadline := now.Add(d)
		t.Deadline = &deadline
	}
}

func withStatus(status task.Status) func(*task.Task) {
	return func(t *task.Task) { t.Status = status }
}

func newWorker(t *testing.T, publisher Publisher, tasks ...*task.Task) *BottleneckWorker {
	t.Helper()
	store := inmemory.NewTaskStorage()
	for _, tsk := range tasks {
		require.NoError(t, store.Create(context.Background(), tsk))
	}
	w := NewBottleneckWorker(store, publisher, Config{WarnBefore: 24 * time.Hour, Cooldown: time.Hour})
	w.now = func() time.Time { return now }
	return w
}

// TestBottleneckWorker_Check тестирует выбор задач для уведомления
func TestBottleneckWorker_Check(t *testing.T) {
	overdue := storetest.NewTask("u1", deadlineIn(-time.Hour), withStatus(task.StatusInProgress))
	soon := storetest.NewTask("u1", deadlineIn(2*time.Hour))
	soonStarted := storetest.NewTask("u1", deadlineIn(2*time.Hour), withStatus(task.StatusInProgress))
	far := storetest.NewTask("u1", deadlineIn(72*time.Hour))
	done := storetest.NewTask("u1", deadlineIn(-time.Hour), withStatus(task.StatusDone))
	noDeadline := storetest.NewTask("u1")

	publisher := new(MockPublisher)
	publisher.On("Publish", broadcast.UserRoom("u1"), broadcast.EventBottleneckAlert,
		broadcast.BottleneckAlert{TaskID: overdue.ID, Reason: ReasonDeadlinePassed}).Once()
	publisher.On("Publish", broadcast.UserRoom("u1"), broadcast.EventBottleneckAlert,
		broadcast.BottleneckAlert{TaskID: soon.ID, Reason: ReasonDeadlineApproaching}).Once()

	w := newWorker(t, publisher, overdue, soon, soonStarted, far, done, noDeadline)

	sent, err := w.Check(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, sent)
	publisher.AssertExpectations(t)
	publisher.AssertNumberOfCalls(t, "Publish", 2)
}

func TestBottleneckWorker_TeamRoom(t *testing.T) {
	teamTask := storetest.NewTask("u1", deadlineIn(-time.Minute), func(t *task.Task) {
		t.TeamID = "team-1"
		t.IsPrivate = false
	})
	alert := broadcast.BottleneckAlert{TaskID: teamTask.ID, Reason: ReasonDeadlinePassed}

	publisher := new(MockPublisher)
	publisher.On("Publish", broadcast.UserRoom("u1"), broadcast.EventBottleneckAlert, alert).Once()
	publisher.On("Publish", broadcast.TeamRoom("team-1"), broadcast.EventBottleneckAlert, alert).Once()

	w := newWorker(t, publisher, teamTask)

	sent, err := w.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	publisher.AssertExpectations(t)
}

// TestBottleneckWorker_Cooldown тестирует, что повтор не шлётся раньше паузы
func TestBottleneckWorker_Cooldown(t *testing.T) {
	overdue := storetest.NewTask("u1", deadlineIn(-time.Hour))

	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything)

	w := newWorker(t, publisher, overdue)

	sent, err := w.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	w.now = func() time.Time { return now.Add(30 * time.Minute) }
	sent, err = w.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)

	w.now = func() time.Time { return now.Add(61 * time.Minute) }
	sent, err = w.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	publisher.AssertNumberOfCalls(t, "Publish", 2)
}

func TestBottleneckWorker_StartStops(t *testing.T) {
	publisher := new(MockPublisher)
	w := newWorker(t, publisher)
	w.cfg.Interval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker не остановился")
	}
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}
