package dto

import (
	"taskPlanner/internal/models/task"
	"taskPlanner/internal/service"
	"taskPlanner/internal/timelog"
	"time"
)

type CreateTaskRequest struct {
	Title               string           `json:"title"`
	Description         string           `json:"description"`
	Priority            task.Priority    `json:"priority,omitempty"`
	TeamID              string           `json:"team_id,omitempty"`
	ProjectID           string           `json:"project_id,omitempty"`
	Deadline            *time.Time       `json:"deadline,omitempty"`
	EnergyLevelRequired task.EnergyLevel `json:"energy_level_required,omitempty"`
	Subtasks            []string         `json:"subtasks,omitempty"`
}

func (r CreateTaskRequest) ToInput() service.CreateTaskInput {
	return service.CreateTaskInput{
		Title:               r.Title,
		Description:         r.Description,
		Priority:            r.Priority,
		TeamID:              r.TeamID,
		ProjectID:           r.ProjectID,
		Deadline:            r.Deadline,
		EnergyLevelRequired: r.EnergyLevelRequired,
		Subtasks:            r.Subtasks,
	}
}

// UpdateTaskRequest: отсутствующее или пустое поле не меняется
type UpdateTaskRequest struct {
	Status      *task.Status   `json:"status,omitempty"`
	Priority    *task.Priority `json:"priority,omitempty"`
	Description *string        `json:"description,omitempty"`
}

func (r UpdateTaskRequest) ToInput() service.UpdateTaskInput {
	return service.UpdateTaskInput{
		Status:      r.Status,
		Priority:    r.Priority,
		Description: r.Description,
	}
}

func (r UpdateTaskRequest) IsEmpty() bool {
	return r.Status == nil && r.Priority == nil && r.Description == nil
}

type TaskResponse struct {
	ID                  string              `json:"id"`
	Title               string              `json:"title"`
	Description         string              `json:"description"`
	Status              string              `json:"status"`
	Priority            string              `json:"priority"`
	Deadline            *time.Time          `json:"deadline,omitempty"`
	ScheduledStart      *time.Time          `json:"scheduled_start,omitempty"`
	ScheduledEnd        *time.Time          `json:"scheduled_end,omitempty"`
	EnergyLevelRequired string              `json:"energy_level_required"`
	AssignedTo          string              `json:"assigned_to"`
	TeamID              string              `json:"team_id,omitempty"`
	ProjectID           string              `json:"project_id,omitempty"`
	IsPrivate           bool                `json:"is_private"`
	Subtasks            []task.Subtask      `json:"subtasks"`
	TimeLog             []task.TimeLogEntry `json:"time_log"`
	TotalTimeSpent      int                 `json:"total_time_spent"`
	IsTracking          bool                `json:"is_tracking"`
	AIPriorityReasoning string              `json:"ai_priority_reasoning"`
	AIEstimatedDuration int                 `json:"ai_estimated_duration"`
	AIConfidenceScore   int                 `json:"ai_confidence_score"`
	AITags              []string            `json:"ai_tags"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           *time.Time          `json:"updated_at,omitempty"`
	CompletedAt         *time.Time          `json:"completed_at,omitempty"`
	Version             int                 `json:"version"`
}

func FromTask(t *task.Task) TaskResponse {
	subtasks := t.Subtasks
	if subtasks == nil {
		subtasks = []task.Subtask{}
	}
	timeLog := t.TimeLog
	if timeLog == nil {
		timeLog = []task.TimeLogEntry{}
	}
	tags := t.AITags
	if tags == nil {
		tags = []string{}
	}

	return TaskResponse{
		ID:                  t.ID,
		Title:               t.Title,
		Description:         t.Description,
		Status:              string(t.Status),
		Priority:            string(t.Priority),
		Deadline:            t.Deadline,
		ScheduledStart:      t.ScheduledStart,
		ScheduledEnd:        t.ScheduledEnd,
		EnergyLevelRequired: string(t.EnergyLevelRequired),
		AssignedTo:          t.AssignedTo,
		TeamID:              t.TeamID,
		ProjectID:           t.ProjectID,
		IsPrivate:           t.IsPrivate,
		Subtasks:            subtasks,
		TimeLog:             timeLog,
		TotalTimeSpent:      t.TotalTimeSpent,
		IsTracking:          timelog.OpenEntry(t) >= 0,
		AIPriorityReasoning: t.AIPriorityReasoning,
		AIEstimatedDuration: t.AIEstimatedDurationMinutes,
		AIConfidenceScore:   t.AIConfidenceScore,
		AITags:              tags,
		CreatedAt:           t.CreatedAt,
		UpdatedAt:           t.UpdatedAt,
		CompletedAt:         t.CompletedAt,
		Version:             t.Version,
	}
}

func FromTaskList(tasks []*task.Task) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t)
	}
	return result
}

type CoachResponse struct {
	Advice string `json:"advice"`
}

type ScheduleResponse struct {
	Schedule []service.ScheduleEntry `json:"schedule"`
	Applied  []TaskResponse          `json:"applied,omitempty"`
}
