package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"taskPlanner/internal/logger"
	"taskPlanner/internal/models/task"
	"taskPlanner/internal/repository"

	"go.uber.org/zap"
)

const CoachWindow = 30

// пороги совета, менять нельзя
const (
	LongTaskMinutes       = 120
	HighPriorityThreshold = 0.5
)

const EmptyHistoryAdvice = "Complete some tasks to get personalized coaching advice!"

// FallbackAdvice отдаётся клиенту, когда совет построить не удалось
const FallbackAdvice = "Focus on your most important tasks today!"

// Advise строит совет по последним завершённым задачам пользователя
func (s *TaskService) Advise(ctx context.Context, userID string) (string, error) {
	completed, err := s.find(ctx, "coach_advice",
		repository.TaskFilter{
			AssignedTo: userID,
			Statuses:   []task.Status{task.StatusDone},
		},
		repository.FindOptions{Sort: repository.SortCompletedDesc, Limit: s.coachLimit})
	if err != nil {
		return "", err
	}

	logger.Debug("Service: Совет по истории задач",
		zap.String("user_id", userID),
		zap.Int("completed", len(completed)))
	return BuildAdvice(completed), nil
}

// BuildAdvice - абзацы в фиксированном порядке: длительность, баланс приоритетов, итог
func BuildAdvice(completed []*task.Task) string {
	if len(completed) == 0 {
		return EmptyHistoryAdvice
	}

	total := 0
	high := 0
	for _, t := range completed {
		total += t.TotalTimeSpent
		if t.Priority == task.PriorityHigh {
			high++
		}
	}
	count := len(completed)
	average := float64(total) / float64(count)
	highFraction := float64(high) / float64(count)

	var paragraphs []string
	if average > LongTaskMinutes {
		paragraphs = append(paragraphs, fmt.Sprintf(
			"⏱️ Your tasks take an average of %d minutes. Consider breaking larger tasks into smaller subtasks for better focus.",
			int(math.Round(average))))
	}
	if highFraction > HighPriorityThreshold {
		paragraphs = append(paragraphs,
			"⚠️ You're completing a lot of high-priority tasks. Make sure to schedule some lower-priority items to maintain balance.")
	}
	paragraphs = append(paragraphs,
		fmt.Sprintf("✅ Great job completing %d tasks! Keep up the momentum!", count))

	return strings.Join(paragraphs, "\n\n")
}
