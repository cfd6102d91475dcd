package store

import (
	"context"
	"fmt"
	"sync"

	"vcdemo/internal/sentinel"
	"vcdemo/internal/user/models"
)

// InMemoryStore keeps users in process memory.
type InMemoryStore struct {
	mu     sync.RWMutex
	users  []models.User
	nextID int64
}

// NewInMemoryStore constructs an empty in-memory user store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{nextID: 1}
}

func (s *InMemoryStore) Create(_ context.Context, u models.NewUser) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created, err := appendUser(s.users, s.nextID, u)
	if err != nil {
		return nil, err
	}
	s.users = append(s.users, created)
	s.nextID++
	return &created, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findUser(s.users, func(u models.User) bool { return u.ID == id })
}

func (s *InMemoryStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findUser(s.users, func(u models.User) bool { return u.Username == username })
}

// appendUser builds the user for id, refusing a taken username.
func appendUser(users []models.User, id int64, u models.NewUser) (models.User, error) {
	if _, err := findUser(users, func(existing models.User) bool { return existing.Username == u.Username }); err == nil {
		return models.User{}, fmt.Errorf("username %q: %w", u.Username, sentinel.ErrAlreadyExists)
	}
	return models.User{ID: id, Username: u.Username, Password: u.PasswordHash}, nil
}

func findUser(users []models.User, match func(models.User) bool) (*models.User, error) {
	for _, u := range users {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
}
