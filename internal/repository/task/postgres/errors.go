package postgres

import (
	"errors"
	"fmt"
	"strings"
	repo "taskPlanner/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// WrapError добавляет к ошибке запроса операцию. Повтор записи с тем же ключом
// даёт ErrAlreadyExists, ошибки данных (класс 22) и ограничений (класс 23) - ErrRejected.
func WrapError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == uniqueViolation:
			return repo.ErrAlreadyExists
		case strings.HasPrefix(pgErr.Code, "22"), strings.HasPrefix(pgErr.Code, "23"):
			return fmt.Errorf("%s: %w: %w", operation, repo.ErrRejected, err)
		}
	}
	return fmt.Errorf("%s: %w", operation, err)
}
