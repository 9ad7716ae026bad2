package repository

import (
	"context"
	"time"

	"github.com/zots0127/filebin/internal/domain/entities"
)

// FileRepository defines the persistence operations for file records.
// Only the upload coordinator is allowed to flip IsActive.
type FileRepository interface {
	// Create inserts a new record. StorageKey is unique.
	Create(ctx context.Context, record *entities.FileRecord) error

	// GetByID fetches a record by its identifier. Returns
	// entities.ErrNotFound when missing.
	GetByID(ctx context.Context, id string) (*entities.FileRecord, error)

	// GetByStorageKey fetches a record by its storage key.
	GetByStorageKey(ctx context.Context, storageKey string) (*entities.FileRecord, error)

	// Activate sets IsActive on the record with the given storage key.
	// Setting it on an already-active record is a no-op, not an error.
	Activate(ctx context.Context, storageKey string) error

	// ListActiveByUser returns the user's active records, newest first.
	ListActiveByUser(ctx context.Context, userID string) ([]*entities.FileRecord, error)

	// ListPendingBefore returns inactive records created before the cutoff.
	ListPendingBefore(ctx context.Context, cutoff time.Time) ([]*entities.FileRecord, error)

	// Delete removes a record by its identifier.
	Delete(ctx context.Context, id string) error
}
