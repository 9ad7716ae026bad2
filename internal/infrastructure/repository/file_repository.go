package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/zots0127/filebin/internal/domain/entities"
	"github.com/zots0127/filebin/internal/domain/repository"
)

// FileRepository is the SQLite implementation of repository.FileRepository.
type FileRepository struct {
	db *sql.DB
}

var _ repository.FileRepository = (*FileRepository)(nil)

func NewFileRepository(db *sql.DB) *FileRepository {
	return &FileRepository{db: db}
}

const fileColumns = "id, user_id, name, storage_key, provider, is_active, created_at"

func (r *FileRepository) Create(ctx context.Context, record *entities.FileRecord) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO files (id, user_id, name, storage_key, provider, is_active) VALUES (?, ?, ?, ?, ?, ?)",
		record.ID, record.UserID, record.Name, record.StorageKey, string(record.Provider), record.IsActive,
	)
	return err
}

func (r *FileRepository) GetByID(ctx context.Context, id string) (*entities.FileRecord, error) {
	return r.scanRecord(r.db.QueryRowContext(ctx,
		"SELECT "+fileColumns+" FROM files WHERE id = ?", id,
	))
}

func (r *FileRepository) GetByStorageKey(ctx context.Context, storageKey string) (*entities.FileRecord, error) {
	return r.scanRecord(r.db.QueryRowContext(ctx,
		"SELECT "+fileColumns+" FROM files WHERE storage_key = ?", storageKey,
	))
}

// Activate flips is_active on the record with the given storage key.
// Re-activating an active record affects a row and succeeds, which keeps
// confirmation idempotent.
func (r *FileRepository) Activate(ctx context.Context, storageKey string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE files SET is_active = 1 WHERE storage_key = ?", storageKey,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return entities.ErrNotFound
	}
	return nil
}

func (r *FileRepository) ListActiveByUser(ctx context.Context, userID string) ([]*entities.FileRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+fileColumns+" FROM files WHERE user_id = ? AND is_active = 1 ORDER BY created_at DESC, id",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.collect(rows)
}

func (r *FileRepository) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]*entities.FileRecord, error) {
	// created_at is written by SQLite's CURRENT_TIMESTAMP, so the cutoff
	// is bound in the same UTC text format to keep the comparison exact.
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+fileColumns+" FROM files WHERE is_active = 0 AND created_at < ?",
		cutoff.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.collect(rows)
}

func (r *FileRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM files WHERE id = ?", id)
	return err
}

func (r *FileRepository) scanRecord(row *sql.Row) (*entities.FileRecord, error) {
	var rec entities.FileRecord
	var provider string
	err := row.Scan(&rec.ID, &rec.UserID, &rec.Name, &rec.StorageKey, &provider, &rec.IsActive, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entities.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rec.Provider = entities.StorageProvider(provider)
	return &rec, nil
}

func (r *FileRepository) collect(rows *sql.Rows) ([]*entities.FileRecord, error) {
	var records []*entities.FileRecord
	for rows.Next() {
		var rec entities.FileRecord
		var provider string
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Name, &rec.StorageKey, &provider, &rec.IsActive, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Provider = entities.StorageProvider(provider)
		records = append(records, &rec)
	}
	return records, rows.Err()
}
