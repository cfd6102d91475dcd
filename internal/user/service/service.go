// Package service registers and authenticates demo users.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"vcdemo/internal/platform/metrics"
	"vcdemo/internal/sentinel"
	"vcdemo/internal/user/models"
	"vcdemo/internal/user/store"
	dErrors "vcdemo/pkg/domain-errors"
	"vcdemo/pkg/secrets"
	"vcdemo/pkg/validation"
)

const (
	minPasswordLength = 8
	maxUsernameLength = 64
)

// Service implements user registration and lookup.
type Service struct {
	store   store.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
	cost    int
}

// Option configures the Service.
type Option func(*Service)

// WithMetrics configures Prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger configures a logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithHashCost overrides the bcrypt cost.
func WithHashCost(cost int) Option {
	return func(s *Service) {
		s.cost = cost
	}
}

// New creates a user Service.
func New(st store.Store, opts ...Option) *Service {
	svc := &Service{
		store:  st,
		logger: slog.New(slog.DiscardHandler),
		cost:   secrets.DefaultCost,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Register creates a user with a hashed password.
func (s *Service) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "username is required")
	}
	if err := validation.CheckStringLength("username", username, maxUsernameLength); err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}

	hash, err := secrets.Hash(password, s.cost)
	if err != nil {
		return nil, err
	}

	u, err := s.store.Create(ctx, models.NewUser{Username: username, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, sentinel.ErrAlreadyExists) {
			return nil, dErrors.New(dErrors.CodeConflict, "username already taken")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	if s.metrics != nil {
		s.metrics.IncrementUsersCreated()
	}
	s.logger.InfoContext(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

// Authenticate returns the user when password matches. Unknown users and
// wrong passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.GetByUsername(ctx, username)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, err
	}
	if err := secrets.Verify(password, u.Password); err != nil {
		return nil, err
	}
	return u, nil
}

// Get returns the user with id.
func (s *Service) Get(ctx context.Context, id int64) (*models.User, error) {
	return wrapLookup(s.store.FindByID(ctx, id))
}

// GetByUsername returns the user named username.
func (s *Service) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return wrapLookup(s.store.FindByUsername(ctx, strings.TrimSpace(username)))
}

func wrapLookup(u *models.User, err error) (*models.User, error) {
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return u, nil
}
