package mongo

import (
	"context"
	"errors"
	"fmt"
	"taskPlanner/internal/logger"
	"taskPlanner/internal/models/user"
	repo "taskPlanner/internal/repository"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const usersCollection = "users"

type UserStorage struct {
	users *mongo.Collection
}

func NewUserStorage(db *mongo.Database) *UserStorage {
	return &UserStorage{users: db.Collection(usersCollection)}
}

func (s *UserStorage) CreateUser(ctx context.Context, u *user.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	_, err := s.users.InsertOne(ctx, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repo.ErrAlreadyExists
		}
		logger.Error("Repository: Не удалось добавить пользователя", err, zap.String("user_id", u.ID))
		return fmt.Errorf("добавление пользователя: %w", err)
	}
	return nil
}

func (s *UserStorage) UpdateUser(ctx context.Context, u *user.User) error {
	res, err := s.users.ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	if err != nil {
		logger.Error("Repository: Не удалось обновить пользователя", err, zap.String("user_id", u.ID))
		return fmt.Errorf("обновление пользователя: %w", err)
	}
	if res.MatchedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *UserStorage) GetUserByID(ctx context.Context, id string) (*user.User, error) {
	u := &user.User{}
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить пользователя", err, zap.String("user_id", id))
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	return u, nil
}
