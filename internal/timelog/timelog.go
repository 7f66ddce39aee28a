// Package timelog ведёт рабочие сессии задачи и считает затраченное время.
//
// Длительность сессии хранится в двух видах: точные целые секунды
// (TrackedSeconds накапливает именно их) и минуты, округлённые при закрытии.
// TotalTimeSpent - сумма минут закрытых сессий.
package timelog

import (
	"errors"
	"math"
	"taskPlanner/internal/models/task"
	"time"
)

var (
	ErrSessionOpen    = errors.New("у задачи уже есть открытая сессия")
	ErrNoOpenSession  = errors.New("у задачи нет открытой сессии")
	ErrEndBeforeStart = errors.New("время окончания раньше времени начала")
)

// OpenEntry возвращает индекс открытой сессии или -1
func OpenEntry(t *task.Task) int {
	for i := range t.TimeLog {
		if t.TimeLog[i].IsOpen() {
			return i
		}
	}
	return -1
}

func OpenSession(t *task.Task, userID string, start time.Time) (*task.TimeLogEntry, error) {
	if OpenEntry(t) >= 0 {
		return nil, ErrSessionOpen
	}

	t.TimeLog = append(t.TimeLog, task.TimeLogEntry{
		UserID:    userID,
		StartTime: start,
	})
	return &t.TimeLog[len(t.TimeLog)-1], nil
}

func CloseSession(t *task.Task, end time.Time) (*task.TimeLogEntry, error) {
	idx := OpenEntry(t)
	if idx < 0 {
		return nil, ErrNoOpenSession
	}

	entry := &t.TimeLog[idx]
	if end.Before(entry.StartTime) {
		return nil, ErrEndBeforeStart
	}

	seconds := wholeSeconds(end.Sub(entry.StartTime))
	closedAt := end
	entry.EndTime = &closedAt
	entry.DurationSeconds = seconds
	entry.DurationMinutes = Minutes(seconds)

	t.TrackedSeconds += seconds
	t.TotalTimeSpent += entry.DurationMinutes
	return entry, nil
}

// Minutes округляет секунды до минут, половина округляется вверх
func Minutes(seconds int64) int {
	if seconds <= 0 {
		return 0
	}
	return int(math.Round(float64(seconds) / 60))
}

// TotalMinutes - сумма минут по закрытым сессиям
func TotalMinutes(t *task.Task) int {
	minutes := 0
	for _, e := range t.TimeLog {
		if !e.IsOpen() {
			minutes += e.DurationMinutes
		}
	}
	return minutes
}

// Recompute пересчитывает итоги по закрытым сессиям
func Recompute(t *task.Task) {
	var seconds int64
	minutes := 0
	for _, e := range t.TimeLog {
		if e.IsOpen() {
			continue
		}
		seconds += e.DurationSeconds
		minutes += e.DurationMinutes
	}
	t.TrackedSeconds = seconds
	t.TotalTimeSpent = minutes
}

// дробные секунды отбрасываются
func wholeSeconds(d time.Duration) int64 {
	return int64(d / time.Second)
}
