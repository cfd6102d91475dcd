// Package store persists demo users.
//
// Error contract: ErrNotFound when the user does not exist and
// ErrAlreadyExists when the username is taken, both from internal/sentinel.
package store

import (
	"context"

	"vcdemo/internal/user/models"
)

// Store is the user persistence contract.
type Store interface {
	Create(ctx context.Context, u models.NewUser) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}
