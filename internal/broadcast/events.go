package broadcast

import (
	"taskPlanner/internal/models/task"
	"time"
)

const EventTaskUpdated = "TASK_UPDATED"
const EventBottleneckAlert = "BOTTLENECK_ALERT"

// Event - то, что получает подписчик: {"type": ..., "data": ...}
type Event struct {
	Room string `json:"room"`
	Name string `json:"type"`
	Data any    `json:"data"`
}

type TaskUpdated struct {
	TaskID    string        `json:"taskId"`
	Status    task.Status   `json:"status"`
	Priority  task.Priority `json:"priority"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

type BottleneckAlert struct {
	TaskID string `json:"taskId"`
	Reason string `json:"reason"`
}

func UserRoom(userID string) string {
	return "user:" + userID
}

func TeamRoom(teamID string) string {
	return "team:" + teamID
}
