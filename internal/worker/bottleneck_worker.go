package worker

import (
	"context"
	"fmt"
	"sync"
	"taskPlanner/internal/broadcast"
	"taskPlanner/internal/logger"
	"taskPlanner/internal/models/task"
	"taskPlanner/internal/repository"
	"time"

	"go.uber.org/zap"
)

const (
	ReasonDeadlinePassed      = "deadline passed"
	ReasonDeadlineApproaching = "deadline approaching"
)

type Publisher interface {
	Publish(room, event string, payload any)
}

type Config struct {
	Interval   time.Duration
	BatchSize  int
	WarnBefore time.Duration
	Cooldown   time.Duration
}

// BottleneckWorker периодически ищет незавершённые задачи с горящим
// или прошедшим дедлайном и рассылает BOTTLENECK_ALERT
type BottleneckWorker struct {
	repo   repository.TaskStore
	events Publisher
	cfg    Config
	now    func() time.Time

	mtx      sync.Mutex
	lastSent map[string]time.Time
}

func NewBottleneckWorker(repo repository.TaskStore, events Publisher, cfg Config) *BottleneckWorker {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.WarnBefore <= 0 {
		cfg.WarnBefore = 24 * time.Hour
	}
	return &BottleneckWorker{
		repo:     repo,
		events:   events,
		cfg:      cfg,
		now:      time.Now,
		lastSent: make(map[string]time.Time),
	}
}

func (w *BottleneckWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logger.Debug("Worker: проверка узких мест", zap.Time("started_at", w.now()))
			if _, err := w.Check(ctx); err != nil {
				logger.Warn("Worker: ошибка проверки", zap.Error(err))
			}
		case <-ctx.Done():
			logger.Info("Worker: фоновая проверка останавливается")
			return
		}
	}
}

// Check возвращает число отправленных уведомлений
func (w *BottleneckWorker) Check(ctx context.Context) (int, error) {
	start := w.now()
	horizon := start.Add(w.cfg.WarnBefore)

	tasks, err := w.repo.Find(ctx, repository.TaskFilter{
		ExcludeStatus:  []task.Status{task.StatusDone},
		DeadlineBefore: &horizon,
	}, repository.FindOptions{Sort: repository.SortDeadlineAsc, Limit: w.cfg.BatchSize})
	if err != nil {
		return 0, fmt.Errorf("получение задач с дедлайном: %w", err)
	}

	sent := 0
	for _, t := range tasks {
		reason, ok := bottleneckReason(t, start)
		if !ok || !w.shouldSend(t.ID, start) {
			continue
		}
		alert := broadcast.BottleneckAlert{TaskID: t.ID, Reason: reason}
		w.events.Publish(broadcast.UserRoom(t.AssignedTo), broadcast.EventBottleneckAlert, alert)
		if t.TeamID != "" {
			w.events.Publish(broadcast.TeamRoom(t.TeamID), broadcast.EventBottleneckAlert, alert)
		}
		sent++
	}

	w.forgetStale(start)

	logger.Info(
		"Worker: завершение проверки",
		zap.Duration("ms", w.now().Sub(start)),
		zap.Int("checked", len(tasks)),
		zap.Int("alerts", sent),
	)
	return sent, nil
}

func bottleneckReason(t *task.Task, now time.Time) (string, bool) {
	if t.Deadline == nil || t.Status == task.StatusDone {
		return "", false
	}
	if t.Deadline.Before(now) {
		return ReasonDeadlinePassed, true
	}
	// к задаче в работе уже приступили
	if t.Status == task.StatusTodo {
		return ReasonDeadlineApproaching, true
	}
	return "", false
}

func (w *BottleneckWorker) shouldSend(taskID string, now time.Time) bool {
	w.mtx.Lock()
	defer w.mtx.Unlock()

	if last, ok := w.lastSent[taskID]; ok && now.Sub(last) < w.cfg.Cooldown {
		return false
	}
	w.lastSent[taskID] = now
	return true
}

func (w *BottleneckWorker) forgetStale(now time.Time) {
	w.mtx.Lock()
	defer w.mtx.Unlock()

	for id, last := range w.lastSent {
		if now.Sub(last) >= w.cfg.Cooldown {
			delete(w.lastSent, id)
		}
	}
}
