package postgres

import (
	"context"
	"errors"
	"fmt"
	"taskPlanner/internal/logger"
	"taskPlanner/internal/models/user"
	repo "taskPlanner/internal/repository"
	taskpostgres "taskPlanner/internal/repository/task/postgres"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// UserStorage работает на пуле хранилища задач и не закрывает его
type UserStorage struct {
	pool *pgxpool.Pool
}

func NewUserStorage(pool *pgxpool.Pool) *UserStorage {
	return &UserStorage{pool: pool}
}

func (s *UserStorage) CreateUser(ctx context.Context, u *user.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}

	query := `INSERT INTO users
				(id, name, email, teams, work_hours_start, work_hours_end, energy_profile, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.pool.Exec(ctx, query,
		u.ID,
		u.Name,
		u.Email,
		teamsOrEmpty(u.Teams),
		workHours(u.Settings.WorkHoursStart, user.DefaultWorkHoursStart),
		workHours(u.Settings.WorkHoursEnd, user.DefaultWorkHoursEnd),
		profileOrEmpty(u.Settings.EnergyProfile),
		u.CreatedAt,
	)
	if err != nil {
		err = taskpostgres.WrapError("добавление пользователя", err)
		if errors.Is(err, repo.ErrAlreadyExists) {
			return err
		}
		logger.Error("Repository: Не удалось добавить пользователя", err, zap.String("user_id", u.ID))
		return err
	}
	return nil
}

func (s *UserStorage) UpdateUser(ctx context.Context, u *user.User) error {
	query := `UPDATE users
			SET name = $1,
				email = $2,
				teams = $3,
				work_hours_start = $4,
				work_hours_end = $5,
				energy_profile = $6
			WHERE id = $7`

	tag, err := s.pool.Exec(ctx, query,
		u.Name,
		u.Email,
		teamsOrEmpty(u.Teams),
		workHours(u.Settings.WorkHoursStart, user.DefaultWorkHoursStart),
		workHours(u.Settings.WorkHoursEnd, user.DefaultWorkHoursEnd),
		profileOrEmpty(u.Settings.EnergyProfile),
		u.ID,
	)
	if err != nil {
		logger.Error("Repository: Не удалось обновить пользователя", err, zap.String("user_id", u.ID))
		return taskpostgres.WrapError("обновление пользователя", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *UserStorage) GetUserByID(ctx context.Context, id string) (*user.User, error) {
	query := `SELECT id, name, email, teams, work_hours_start, work_hours_end, energy_profile, created_at
				FROM users
				WHERE id = $1`

	u := &user.User{}
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Teams,
		&u.Settings.WorkHoursStart,
		&u.Settings.WorkHoursEnd,
		&u.Settings.EnergyProfile,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить пользователя", err, zap.String("user_id", id))
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	return u, nil
}

func teamsOrEmpty(v []user.Membership) []user.Membership {
	if v == nil {
		return []user.Membership{}
	}
	return v
}

func profileOrEmpty(v map[int]int) map[int]int {
	if v == nil {
		return map[int]int{}
	}
	return v
}

func workHours(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
