package task

import (
	"time"
)

type Task struct {
	ID          string   `json:"id" bson:"_id" db:"id"`
	Title       string   `json:"title" bson:"title" db:"title"`
	Description string   `json:"description" bson:"description" db:"description"`
	Status      Status   `json:"status" bson:"status" db:"status"`
	Priority    Priority `json:"priority,omitempty" bson:"priority" db:"priority"`

	Deadline       *time.Time `json:"deadline,omitempty" bson:"deadline,omitempty" db:"deadline"`
	ScheduledStart *time.Time `json:"scheduled_start,omitempty" bson:"scheduledStart,omitempty" db:"scheduled_start"`
	ScheduledEnd   *time.Time `json:"scheduled_end,omitempty" bson:"scheduledEnd,omitempty" db:"scheduled_end"`

	EnergyLevelRequired EnergyLevel `json:"energy_level_required" bson:"energyLevelRequired" db:"energy_level_required"`

	AssignedTo string `json:"assigned_to" bson:"assignedTo" db:"assigned_to"`
	TeamID     string `json:"team_id,omitempty" bson:"teamId,omitempty" db:"team_id"`
	ProjectID  string `json:"project_id,omitempty" bson:"projectId,omitempty" db:"project_id"`
	IsPrivate  bool   `json:"is_private" bson:"isPrivate" db:"is_private"`

	Subtasks []Subtask      `json:"subtasks" bson:"subtasks" db:"subtasks"`
	TimeLog  []TimeLogEntry `json:"time_log" bson:"timeLog" db:"time_log"`

	// в минутах, пересчитывается при закрытии сессии
	TotalTimeSpent int   `json:"total_time_spent" bson:"totalTimeSpent" db:"total_time_spent"`
	TrackedSeconds int64 `json:"-" bson:"trackedSeconds" db:"tracked_seconds"`

	AIPriorityReasoning        string   `json:"ai_priority_reasoning" bson:"aiPriorityReasoning" db:"ai_priority_reasoning"`
	AIEstimatedDurationMinutes int      `json:"ai_estimated_duration" bson:"aiEstimatedDuration" db:"ai_estimated_duration"`
	AIConfidenceScore          int      `json:"ai_confidence_score" bson:"aiConfidenceScore" db:"ai_confidence_score"`
	AITags                     []string `json:"ai_tags" bson:"aiTags" db:"ai_tags"`

	CreatedAt   time.Time  `json:"created_at" bson:"createdAt" db:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty" bson:"updatedAt,omitempty" db:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" bson:"completedAt,omitempty" db:"completed_at"`
	Version     int        `json:"version" bson:"version" db:"version"`

	IsDeleted bool       `json:"is_deleted" bson:"isDeleted" db:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" bson:"deletedAt,omitempty" db:"deleted_at"`
}

type Subtask struct {
	Title       string `json:"title" bson:"title"`
	IsCompleted bool   `json:"is_completed" bson:"isCompleted"`
}

// TimeLogEntry - одна рабочая сессия; EndTime == nil пока сессия открыта
type TimeLogEntry struct {
	UserID          string     `json:"user_id" bson:"userId"`
	StartTime       time.Time  `json:"start_time" bson:"startTime"`
	EndTime         *time.Time `json:"end_time,omitempty" bson:"endTime,omitempty"`
	DurationSeconds int64      `json:"duration_seconds" bson:"durationSeconds"`
	DurationMinutes int        `json:"duration_minutes" bson:"durationMinutes"`
}

func (e TimeLogEntry) IsOpen() bool {
	return e.EndTime == nil
}

type Status string
type Priority string
type EnergyLevel string

const StatusTodo Status = "Todo"
const StatusInProgress Status = "In Progress"
const StatusDone Status = "Done"

const PriorityUnset Priority = ""
const PriorityLow Priority = "Low"
const PriorityMedium Priority = "Medium"
const PriorityHigh Priority = "High"

const EnergyLow EnergyLevel = "Low"
const EnergyMedium EnergyLevel = "Medium"
const EnergyHigh EnergyLevel = "High"

func (s Status) IsValid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	default:
		return false
	}
}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityUnset, PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// Rank упорядочивает приоритеты: High > Medium > Low > не задан
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

func (p Priority) String() string {
	if p == PriorityUnset {
		return "unset"
	}
	return string(p)
}

func (e EnergyLevel) IsValid() bool {
	switch e {
	case EnergyLow, EnergyMedium, EnergyHigh:
		return true
	default:
		return false
	}
}

// MaxTitleLength - предел длины названия в символах, столько же держит колонка tasks.title
const MaxTitleLength = 255

// IsActive - задача участвует в выборках и планировании
func (t *Task) IsActive() bool {
	return !t.IsDeleted
}

// CompletionTime используется для сортировки завершённых задач
func (t *Task) CompletionTime() time.Time {
	if t.CompletedAt != nil {
		return *t.CompletedAt
	}
	if t.UpdatedAt != nil {
		return *t.UpdatedAt
	}
	return t.CreatedAt
}

// Clone возвращает глубокую копию, хранилища не должны отдавать общие указатели
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.Deadline = cloneTime(t.Deadline)
	c.ScheduledStart = cloneTime(t.ScheduledStart)
	c.ScheduledEnd = cloneTime(t.ScheduledEnd)
	c.UpdatedAt = cloneTime(t.UpdatedAt)
	c.CompletedAt = cloneTime(t.CompletedAt)
	c.DeletedAt = cloneTime(t.DeletedAt)

	if t.Subtasks != nil {
		c.Subtasks = make([]Subtask, len(t.Subtasks))
		copy(c.Subtasks, t.Subtasks)
	}
	if t.TimeLog != nil {
		c.TimeLog = make([]TimeLogEntry, len(t.TimeLog))
		for i, e := range t.TimeLog {
			e.EndTime = cloneTime(e.EndTime)
			c.TimeLog[i] = e
		}
	}
	if t.AITags != nil {
		c.AITags = make([]string, len(t.AITags))
		copy(c.AITags, t.AITags)
	}
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
