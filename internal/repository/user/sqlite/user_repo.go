package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"taskPlanner/internal/logger"
	"taskPlanner/internal/models/user"
	repo "taskPlanner/internal/repository"
	"time"

	"go.uber.org/zap"
)

// UserStorage использует соединение хранилища задач, схема создаётся там же
type UserStorage struct {
	db *sql.DB
}

func NewUserStorage(db *sql.DB) *UserStorage {
	return &UserStorage{db: db}
}

func (s *UserStorage) CreateUser(ctx context.Context, u *user.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	teams, profile, err := encodeUser(u)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO users
		(id, name, email, teams, work_hours_start, work_hours_end, energy_profile, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID,
		u.Name,
		u.Email,
		teams,
		orDefault(u.Settings.WorkHoursStart, user.DefaultWorkHoursStart),
		orDefault(u.Settings.WorkHoursEnd, user.DefaultWorkHoursEnd),
		profile,
		u.CreatedAt.UnixNano(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return repo.ErrAlreadyExists
		}
		logger.Error("Repository: Не удалось добавить пользователя", err, zap.String("user_id", u.ID))
		return fmt.Errorf("добавление пользователя: %w", err)
	}
	return nil
}

func (s *UserStorage) UpdateUser(ctx context.Context, u *user.User) error {
	teams, profile, err := encodeUser(u)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `UPDATE users
		SET name = ?, email = ?, teams = ?, work_hours_start = ?, work_hours_end = ?, energy_profile = ?
		WHERE id = ?`,
		u.Name,
		u.Email,
		teams,
		orDefault(u.Settings.WorkHoursStart, user.DefaultWorkHoursStart),
		orDefault(u.Settings.WorkHoursEnd, user.DefaultWorkHoursEnd),
		profile,
		u.ID,
	)
	if err != nil {
		logger.Error("Repository: Не удалось обновить пользователя", err, zap.String("user_id", u.ID))
		return fmt.Errorf("обновление пользователя: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("обновление пользователя: %w", err)
	}
	if affected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *UserStorage) GetUserByID(ctx context.Context, id string) (*user.User, error) {
	var (
		teams, profile string
		createdAt      int64
	)
	u := &user.User{}
	err := s.db.QueryRowContext(ctx, `SELECT id, name, email, teams, work_hours_start, work_hours_end, energy_profile, created_at
		FROM users WHERE id = ?`, id).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&teams,
		&u.Settings.WorkHoursStart,
		&u.Settings.WorkHoursEnd,
		&profile,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить пользователя", err, zap.String("user_id", id))
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}

	u.CreatedAt = time.Unix(0, createdAt)
	if err := json.Unmarshal([]byte(teams), &u.Teams); err != nil {
		return nil, fmt.Errorf("разбор команд: %w", err)
	}
	if err := json.Unmarshal([]byte(profile), &u.Settings.EnergyProfile); err != nil {
		return nil, fmt.Errorf("разбор профиля энергии: %w", err)
	}
	return u, nil
}

func encodeUser(u *user.User) (string, string, error) {
	teams := u.Teams
	if teams == nil {
		teams = []user.Membership{}
	}
	profile := u.Settings.EnergyProfile
	if profile == nil {
		profile = map[int]int{}
	}

	rawTeams, err := json.Marshal(teams)
	if err != nil {
		return "", "", fmt.Errorf("кодирование команд: %w", err)
	}
	rawProfile, err := json.Marshal(profile)
	if err != nil {
		return "", "", fmt.Errorf("кодирование профиля энергии: %w", err)
	}
	return string(rawTeams), string(rawProfile), nil
}

func orDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
