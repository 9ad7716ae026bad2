package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/zots0127/filebin/internal/domain/entities"
	"github.com/zots0127/filebin/internal/domain/repository"
)

// UserRepository is the SQLite implementation of repository.UserRepository.
type UserRepository struct {
	db *sql.DB
}

var _ repository.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO users (id, username) VALUES (?, ?)",
		user.ID, user.Username,
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint") {
		return fmt.Errorf("username %q already taken", user.Username)
	}
	return err
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	// The username column is COLLATE NOCASE, so this lookup is already
	// case-insensitive.
	return r.scanUser(r.db.QueryRowContext(ctx,
		"SELECT id, username, created_at FROM users WHERE username = ?",
		username,
	))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		"SELECT id, username, created_at FROM users WHERE id = ?",
		id,
	))
}

func (r *UserRepository) scanUser(row *sql.Row) (*entities.User, error) {
	var u entities.User
	err := row.Scan(&u.ID, &u.Username, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entities.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
