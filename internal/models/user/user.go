package user

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const DefaultWorkHoursStart = "09:00"
const DefaultWorkHoursEnd = "17:00"

type Role string

const RoleAdmin Role = "Admin"
const RoleMember Role = "Member"

type User struct {
	ID        string       `json:"id" bson:"_id"`
	Name      string       `json:"name" bson:"name"`
	Email     string       `json:"email" bson:"email"`
	Teams     []Membership `json:"teams" bson:"teams"`
	Settings  Settings     `json:"productivity_settings" bson:"productivitySettings"`
	CreatedAt time.Time    `json:"created_at" bson:"createdAt"`
}

type Membership struct {
	TeamID   string `json:"team_id" bson:"teamId"`
	Role     Role   `json:"role" bson:"role"`
	JobTitle string `json:"job_title,omitempty" bson:"jobTitle,omitempty"`
}

type Settings struct {
	WorkHoursStart string `json:"work_hours_start" bson:"workHoursStart"`
	WorkHoursEnd   string `json:"work_hours_end" bson:"workHoursEnd"`
	// час суток -> относительная энергия, пустой профиль = ровный
	EnergyProfile map[int]int `json:"energy_profile,omitempty" bson:"energyProfile,omitempty"`
}

func (u *User) IsMemberOf(teamID string) bool {
	if u == nil || teamID == "" {
		return false
	}
	for _, m := range u.Teams {
		if m.TeamID == teamID {
			return true
		}
	}
	return false
}

// WorkWindow возвращает рабочие часы пользователя в целых часах.
// Пустые или битые значения заменяются значениями по умолчанию.
func (s Settings) WorkWindow(defaultStart, defaultEnd int) (int, int) {
	start, err := ParseHour(s.WorkHoursStart)
	if err != nil {
		start = defaultStart
	}
	end, err := ParseHour(s.WorkHoursEnd)
	if err != nil {
		end = defaultEnd
	}
	if end <= start {
		return defaultStart, defaultEnd
	}
	return start, end
}

// ParseHour разбирает "HH:MM" (или "HH") в час; минуты отбрасываются
func ParseHour(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("пустое время")
	}
	hourPart, _, _ := strings.Cut(value, ":")
	hour, err := strconv.Atoi(hourPart)
	if err != nil {
		return 0, fmt.Errorf("разбор часа %q: %w", value, err)
	}
	if hour < 0 || hour > 24 {
		return 0, fmt.Errorf("час вне диапазона: %d", hour)
	}
	return hour, nil
}
