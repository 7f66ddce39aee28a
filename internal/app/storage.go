package app

import (
	"context"
	"fmt"
	"taskPlanner/internal/config"
	"taskPlanner/internal/logger"
	"taskPlanner/internal/migrations"
	"taskPlanner/internal/repository"
	taskmemory "taskPlanner/internal/repository/task/inmemory"
	taskmongo "taskPlanner/internal/repository/task/mongo"
	taskpostgres "taskPlanner/internal/repository/task/postgres"
	tasksqlite "taskPlanner/internal/repository/task/sqlite"
	usermemory "taskPlanner/internal/repository/user/inmemory"
	usermongo "taskPlanner/internal/repository/user/mongo"
	userpostgres "taskPlanner/internal/repository/user/postgres"
	usersqlite "taskPlanner/internal/repository/user/sqlite"
	"time"

	"go.uber.org/zap"
)

const storageCloseTimeout = 5 * time.Second

type storage struct {
	tasks repository.TaskStore
	users repository.UserStore
	close func()
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	switch cfg.Repository.Type {
	case config.RepositoryPostgres:
		if cfg.Database.Migrate {
			if err := migrations.Up(cfg.Database.URL); err != nil {
				return nil, fmt.Errorf("миграции: %w", err)
			}
		}
		st, err := taskpostgres.New(ctx, cfg.Database.URL, taskpostgres.PoolConfig{
			MaxConns:        int32(cfg.Database.MaxConnections),
			MinConns:        int32(cfg.Database.MinConnections),
			MaxConnIdleTime: cfg.Database.IdleTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("подключение к postgres: %w", err)
		}
		return &storage{
			tasks: st,
			users: userpostgres.NewUserStorage(st.Pool()),
			close: st.Close,
		}, nil

	case config.RepositoryMongo:
		st, err := taskmongo.New(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, fmt.Errorf("подключение к mongo: %w", err)
		}
		return &storage{
			tasks: st,
			users: usermongo.NewUserStorage(st.Database()),
			close: func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), storageCloseTimeout)
				defer cancel()
				if err := st.Close(closeCtx); err != nil {
					logger.Error("Ошибка закрытия mongo", err)
				}
			},
		}, nil

	case config.RepositorySQLite:
		st, err := tasksqlite.New(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("открытие sqlite: %w", err)
		}
		return &storage{
			tasks: st,
			users: usersqlite.NewUserStorage(st.DB()),
			close: func() {
				if err := st.Close(); err != nil {
					logger.Error("Ошибка закрытия sqlite", err)
				}
			},
		}, nil

	case config.RepositoryInMemory:
		logger.Warn("Используется in-memory хранилище, данные не сохраняются", zap.String("type", cfg.Repository.Type))
		return &storage{
			tasks: taskmemory.NewTaskStorage(),
			users: usermemory.NewUserStorage(),
			close: func() {},
		}, nil
	}
	return nil, fmt.Errorf("неизвестный тип репозитория: %q", cfg.Repository.Type)
}
