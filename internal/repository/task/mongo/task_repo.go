package mongo

import (
	"context"
	"errors"
	"fmt"
	"taskPlanner/internal/logger"
	"taskPlanner/internal/models/task"
	repo "taskPlanner/internal/repository"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	tasksCollection = "tasks"
	slowQuery       = time.Millisecond * 100
)

// taskDocument хранит рядом с задачей поля, нужные только для сортировки
type taskDocument struct {
	task.Task      `bson:",inline"`
	PriorityRank   int       `bson:"priorityRank"`
	CompletionTime time.Time `bson:"completionTime"`
	NoDeadline     bool      `bson:"noDeadline"`
}

func toDocument(t *task.Task) taskDocument {
	return taskDocument{
		Task:           *t,
		PriorityRank:   t.Priority.Rank(),
		CompletionTime: t.CompletionTime(),
		NoDeadline:     t.Deadline == nil,
	}
}

type Storage struct {
	client *mongo.Client
	db     *mongo.Database
	tasks  *mongo.Collection
}

func New(ctx context.Context, uri, database string) (*Storage, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		logger.Error("Repository: Ошибка подключения к MongoDB", err)
		return nil, fmt.Errorf("подключение к mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	db := client.Database(database)
	s := &Storage{
		client: client,
		db:     db,
		tasks:  db.Collection(tasksCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	logger.Info("Repository: Успешное создание подключения к MongoDB", zap.String("database", database))
	return s, nil
}

func (s *Storage) ensureIndexes(ctx context.Context) error {
	_, err := s.tasks.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "assignedTo", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "teamId", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		logger.Error("Repository: Не удалось создать индексы", err)
		return fmt.Errorf("создание индексов: %w", err)
	}
	return nil
}

// Database отдаёт базу для хранилища пользователей
func (s *Storage) Database() *mongo.Database {
	return s.db
}

func (s *Storage) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		logger.Error("Repository: Ошибка отключения от MongoDB", err)
		return fmt.Errorf("отключение от mongo: %w", err)
	}
	logger.Info("Repository: Закрытие соединения MongoDB")
	return nil
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	logger.Debug("Repository: Соединение стабильно")
	return nil
}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()

	if taskToCreate.CreatedAt.IsZero() {
		taskToCreate.CreatedAt = time.Now()
	}
	taskToCreate.Version = 1

	_, err := s.tasks.InsertOne(ctx, toDocument(taskToCreate))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repo.ErrAlreadyExists
		}
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}

	if time.Since(start) > slowQuery {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

// Update заменяет документ целиком, фильтр по версии даёт атомарность одного документа
func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()

	next := taskToUpdate.Clone()
	now := time.Now()
	next.UpdatedAt = &now
	next.Version = taskToUpdate.Version + 1

	res, err := s.tasks.ReplaceOne(ctx,
		bson.M{"_id": taskToUpdate.ID, "version": taskToUpdate.Version},
		toDocument(next))
	if err != nil {
		logger.Error("Repository: Не удалось обновить задачу", err)
		return fmt.Errorf("обновление задачи: %w", err)
	}

	if res.MatchedCount == 0 {
		count, err := s.tasks.CountDocuments(ctx, bson.M{"_id": taskToUpdate.ID})
		if err != nil {
			return fmt.Errorf("проверка существования задачи: %w", err)
		}
		if count == 0 {
			return repo.ErrNotFound
		}
		logger.Warn("Repository: Конфликт версий при обновлении задачи",
			zap.String("task_id", taskToUpdate.ID),
			zap.Int("expected_version", taskToUpdate.Version))
		return repo.ErrVersionConflict
	}

	taskToUpdate.UpdatedAt = next.UpdatedAt
	taskToUpdate.Version = next.Version

	if time.Since(start) > slowQuery {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) GetByID(ctx context.Context, id string) (*task.Task, error) {
	start := time.Now()

	var doc taskDocument
	err := s.tasks.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	if time.Since(start) > slowQuery {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	t := doc.Task
	return &t, nil
}

func (s *Storage) Find(ctx context.Context, filter repo.TaskFilter, opts repo.FindOptions) ([]*task.Task, error) {
	start := time.Now()

	findOpts := options.Find().SetSort(sortBy(opts.Sort))
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}

	cursor, err := s.tasks.Find(ctx, buildFilter(filter), findOpts)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer cursor.Close(ctx)

	tasks := []*task.Task{}
	for cursor.Next(ctx) {
		var doc taskDocument
		if err := cursor.Decode(&doc); err != nil {
			logger.Error("Repository: Ошибка декодирования задачи", err)
			return nil, fmt.Errorf("декодирование задачи: %w", err)
		}
		t := doc.Task
		tasks = append(tasks, &t)
	}
	if err := cursor.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по курсору", err)
		return nil, fmt.Errorf("итерация по курсору: %w", err)
	}

	if time.Since(start) > time.Millisecond*50+time.Millisecond*10*time.Duration(len(tasks)) {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return tasks, nil
}

func buildFilter(f repo.TaskFilter) bson.M {
	filter := bson.M{}
	if !f.IncludeDeleted {
		filter["isDeleted"] = false
	}
	if f.AssignedTo != "" {
		filter["assignedTo"] = f.AssignedTo
	}
	if f.OwnerOrTeam != "" {
		// teamId пишется с omitempty: у личных задач поля нет
		filter["$or"] = bson.A{
			bson.M{"assignedTo": f.OwnerOrTeam},
			bson.M{"teamId": bson.M{"$nin": bson.A{nil, ""}}},
		}
	}

	status := bson.M{}
	if len(f.Statuses) > 0 {
		status["$in"] = f.Statuses
	}
	if len(f.ExcludeStatus) > 0 {
		status["$nin"] = f.ExcludeStatus
	}
	if len(status) > 0 {
		filter["status"] = status
	}

	if f.DeadlineBefore != nil {
		filter["deadline"] = bson.M{"$lt": *f.DeadlineBefore}
	}
	return filter
}

func sortBy(order repo.SortOrder) bson.D {
	switch order {
	case repo.SortCreatedDesc:
		return bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}
	case repo.SortCompletedDesc:
		return bson.D{{Key: "completionTime", Value: -1}, {Key: "_id", Value: 1}}
	case repo.SortPriorityDesc:
		return bson.D{{Key: "priorityRank", Value: -1}, {Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}
	case repo.SortDeadlineAsc:
		return bson.D{{Key: "noDeadline", Value: 1}, {Key: "deadline", Value: 1}, {Key: "_id", Value: 1}}
	default:
		return bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}
	}
}
