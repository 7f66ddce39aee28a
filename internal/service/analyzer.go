package service

import "taskPlanner/internal/models/task"

const DefaultEstimatedMinutes = 60
const DefaultConfidenceScore = 80

// Analyzer заполняет производные поля задачи при создании
type Analyzer interface {
	EstimateDuration(t *task.Task) int
	ExplainPriority(t *task.Task) string
}

// PlaceholderAnalyzer - заглушка вместо настоящего анализа
type PlaceholderAnalyzer struct{}

func (PlaceholderAnalyzer) EstimateDuration(t *task.Task) int {
	return DefaultEstimatedMinutes
}

func (PlaceholderAnalyzer) ExplainPriority(t *task.Task) string {
	return "Auto-analyzed: " + t.Title
}
