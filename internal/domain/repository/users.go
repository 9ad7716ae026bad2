package repository

import (
	"context"

	"github.com/zots0127/filebin/internal/domain/entities"
)

// UserRepository defines lookups against the user table.
type UserRepository interface {
	// Create inserts a new user. Usernames are unique case-insensitively.
	Create(ctx context.Context, user *entities.User) error

	// GetByUsername resolves a user by name, ignoring case. Returns
	// entities.ErrNotFound when no such user exists.
	GetByUsername(ctx context.Context, username string) (*entities.User, error)

	// GetByID resolves a user by its identifier.
	GetByID(ctx context.Context, id string) (*entities.User, error)
}
