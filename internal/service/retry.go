package service

import (
	"context"
	"errors"
	"taskPlanner/internal/logger"
	"taskPlanner/internal/repository"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// бюджет одного обращения к хранилищу
	FetchTimeout time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		FetchTimeout:    5 * time.Second,
	}
}

// withRetry повторяет обращение к хранилищу с экспоненциальной задержкой.
// NotFound, конфликт версий и отклонённые данные не повторяются - это ответ, а не сбой.
func (s *TaskService) withRetry(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.retry.InitialInterval
	policy.MaxInterval = s.retry.MaxInterval

	var b backoff.BackOff = policy
	b = backoff.WithMaxRetries(b, uint64(max(s.retry.MaxRetries, 0)))
	b = backoff.WithContext(b, ctx)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		callCtx := ctx
		if s.retry.FetchTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, s.retry.FetchTimeout)
			defer cancel()
		}

		err := fn(callCtx)
		if err == nil {
			return nil
		}
		if isPermanent(err) {
			return backoff.Permanent(err)
		}

		logger.Warn("Service: Сбой хранилища",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err))
		return err
	}, b)
}

func isPermanent(err error) bool {
	return errors.Is(err, repository.ErrNotFound) ||
		errors.Is(err, repository.ErrVersionConflict) ||
		errors.Is(err, repository.ErrAlreadyExists) ||
		errors.Is(err, repository.ErrRejected)
}
