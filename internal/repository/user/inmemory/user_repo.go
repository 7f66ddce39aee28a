package inmemory

import (
	"context"
	"sync"
	"taskPlanner/internal/models/user"
	repo "taskPlanner/internal/repository"
	"time"
)

type UserStorage struct {
	storage map[string]user.User
	mtx     *sync.RWMutex
}

func NewUserStorage() *UserStorage {
	return &UserStorage{
		storage: make(map[string]user.User),
		mtx:     &sync.RWMutex{},
	}
}

func (s *UserStorage) CreateUser(ctx context.Context, u *user.User) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[u.ID]; ok {
		return repo.ErrAlreadyExists
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	s.storage[u.ID] = copyUser(u)
	return nil
}

func (s *UserStorage) UpdateUser(ctx context.Context, u *user.User) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[u.ID]; !ok {
		return repo.ErrNotFound
	}
	s.storage[u.ID] = copyUser(u)
	return nil
}

func (s *UserStorage) GetUserByID(ctx context.Context, id string) (*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	u, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	res := copyUser(&u)
	return &res, nil
}

func copyUser(u *user.User) user.User {
	c := *u
	c.Teams = append([]user.Membership(nil), u.Teams...)
	if u.Settings.EnergyProfile != nil {
		c.Settings.EnergyProfile = make(map[int]int, len(u.Settings.EnergyProfile))
		for h, v := range u.Settings.EnergyProfile {
			c.Settings.EnergyProfile[h] = v
		}
	}
	return c
}
