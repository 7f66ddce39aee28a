package service

import (
	"context"
	"errors"
	"fmt"
	"taskPlanner/internal/models/task"
	"taskPlanner/internal/repository"
)

// TransitionPolicy проверяет смену статуса. Ошибка превращается в INVALID_STATE.
type TransitionPolicy func(from, to task.Status) error

// AllowAllTransitions - любой переход разрешён, включая Done -> Todo
func AllowAllTransitions(from, to task.Status) error {
	return nil
}

// VisibilityPolicy решает, кто видит чужие задачи и комнаты команд
type VisibilityPolicy interface {
	CanView(ctx context.Context, callerID string, t *task.Task) (bool, error)
	CanJoinTeam(ctx context.Context, callerID, teamID string) (bool, error)
}

// TeamTaskVisibility: владелец видит свои задачи, командные задачи видны всем.
// Членство в команде не проверяется.
type TeamTaskVisibility struct{}

func (TeamTaskVisibility) CanView(ctx context.Context, callerID string, t *task.Task) (bool, error) {
	return t.AssignedTo == callerID || t.TeamID != "", nil
}

func (TeamTaskVisibility) CanJoinTeam(ctx context.Context, callerID, teamID string) (bool, error) {
	return teamID != "", nil
}

// MembershipVisibility дополнительно требует членства в команде задачи
type MembershipVisibility struct {
	Users repository.UserStore
}

func (m MembershipVisibility) CanView(ctx context.Context, callerID string, t *task.Task) (bool, error) {
	if t.AssignedTo == callerID {
		return true, nil
	}
	if t.TeamID == "" {
		return false, nil
	}
	return m.CanJoinTeam(ctx, callerID, t.TeamID)
}

func (m MembershipVisibility) CanJoinTeam(ctx context.Context, callerID, teamID string) (bool, error) {
	if teamID == "" {
		return false, nil
	}
	u, err := m.Users.GetUserByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("получение пользователя: %w", err)
	}
	return u.IsMemberOf(teamID), nil
}
