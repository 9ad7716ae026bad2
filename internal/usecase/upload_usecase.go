package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/zots0127/filebin/internal/domain/entities"
	"github.com/zots0127/filebin/internal/domain/repository"
)

// PresignTTL is how long an issued upload URL stays valid.
const PresignTTL = 60 * time.Second

// PresignedUpload is what a client needs to upload one object directly to
// the blob store.
type PresignedUpload struct {
	StorageKey string `json:"storageKey"`
	URL        string `json:"url"`
}

// UploadCoordinator owns the lifecycle of file records. It is the only
// component that creates records or flips their active flag.
type UploadCoordinator struct {
	files  repository.FileRepository
	blobs  repository.BlobStore
	logger *log.Logger
}

func NewUploadCoordinator(files repository.FileRepository, blobs repository.BlobStore, logger *log.Logger) *UploadCoordinator {
	return &UploadCoordinator{
		files:  files,
		blobs:  blobs,
		logger: logger,
	}
}

// newStorageKey generates a key unique per call. The name part is random
// rather than derived from any client-supplied filename, so keys cannot
// collide or traverse outside the owner's prefix.
func newStorageKey(userID, extension string) (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	name := hex.EncodeToString(raw) + "." + extension
	return entities.FormStorageKey(userID, name), nil
}

func cleanExtension(extension string) (string, error) {
	ext := strings.ToLower(strings.TrimLeft(strings.TrimSpace(extension), "."))
	if ext == "" || strings.ContainsAny(ext, "/\\") {
		return "", fmt.Errorf("%w: bad extension %q", entities.ErrValidation, extension)
	}
	return ext, nil
}

// BeginPresignedUpload generates a fresh storage key, asks the blob store
// for a PUT URL scoped to exactly that key, and creates the pending record
// the confirm step will later activate.
func (u *UploadCoordinator) BeginPresignedUpload(ctx context.Context, userID, extension string) (*PresignedUpload, error) {
	ext, err := cleanExtension(extension)
	if err != nil {
		return nil, err
	}

	key, err := newStorageKey(userID, ext)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrUploadInit, err)
	}

	url, err := u.blobs.PresignPut(ctx, key, PresignTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrUploadInit, err)
	}

	record := &entities.FileRecord{
		ID:         uuid.NewString(),
		UserID:     userID,
		Name:       strings.TrimPrefix(key, userID+"/"),
		StorageKey: key,
		Provider:   entities.ProviderS3,
		IsActive:   false,
	}
	if err := u.files.Create(ctx, record); err != nil {
		// The issued URL stays technically valid with no record tracking
		// it; acceptable because it expires within PresignTTL.
		return nil, fmt.Errorf("%w: %w", entities.ErrUploadInit, err)
	}

	u.logger.Debug("presigned upload started", "user", userID, "key", key)
	return &PresignedUpload{StorageKey: key, URL: url}, nil
}

// ConfirmUpload activates the record for a storage key. The blob itself is
// not checked: a client that confirms without uploading ends up with a
// record whose download fails later, not a confirmation error now.
// Confirming an already-active record is a no-op.
func (u *UploadCoordinator) ConfirmUpload(ctx context.Context, userID, storageKey string) error {
	record, err := u.files.GetByStorageKey(ctx, storageKey)
	if err != nil {
		return err
	}
	if record.UserID != userID || entities.StorageKeyOwner(storageKey) != userID {
		return entities.ErrNotFound
	}

	if err := u.files.Activate(ctx, storageKey); err != nil {
		return err
	}

	u.logger.Debug("upload confirmed", "user", userID, "key", storageKey)
	return nil
}

// ProxyUpload spools the request body to a temporary file, sniffs the
// extension from the content, writes the blob, and only then creates an
// already-active record. The temp file is removed on every exit path.
func (u *UploadCoordinator) ProxyUpload(ctx context.Context, userID string, body io.Reader) (*entities.FileRecord, error) {
	tmp, err := os.CreateTemp("", "filebin-upload-*")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrUploadFailed, err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	size, err := io.Copy(tmp, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrUploadFailed, err)
	}

	mtype, err := mimetype.DetectFile(tmp.Name())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrUploadFailed, err)
	}
	ext := strings.TrimPrefix(mtype.Extension(), ".")
	if ext == "" {
		ext = "bin"
	}

	key, err := newStorageKey(userID, ext)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrUploadFailed, err)
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrUploadFailed, err)
	}
	if err := u.blobs.Put(ctx, key, tmp, size); err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrUploadFailed, err)
	}

	record := &entities.FileRecord{
		ID:         uuid.NewString(),
		UserID:     userID,
		Name:       strings.TrimPrefix(key, userID+"/"),
		StorageKey: key,
		Provider:   entities.ProviderS3,
		IsActive:   true,
	}
	if err := u.files.Create(ctx, record); err != nil {
		// Keep blob and record in step: a record write failure removes the
		// blob so neither outlives the other.
		if delErr := u.blobs.Delete(ctx, key); delErr != nil {
			u.logger.Error("orphaned blob after failed record write", "key", key, "err", delErr)
		}
		return nil, fmt.Errorf("%w: %w", entities.ErrUploadFailed, err)
	}

	u.logger.Info("proxy upload stored", "user", userID, "key", key, "size", size)
	return record, nil
}

// DeleteFile removes an owned file, blob first. A record owned by someone
// else looks exactly like a missing one. When the blob cannot be deleted
// the record is kept so a later delete can still reach the blob.
func (u *UploadCoordinator) DeleteFile(ctx context.Context, userID, fileID string) error {
	record, err := u.files.GetByID(ctx, fileID)
	if err != nil {
		return err
	}
	if record.UserID != userID || entities.StorageKeyOwner(record.StorageKey) != userID {
		return entities.ErrNotFound
	}

	if err := u.blobs.Delete(ctx, record.StorageKey); err != nil {
		return fmt.Errorf("%w: %w", entities.ErrDeletionFailed, err)
	}

	if err := u.files.Delete(ctx, record.ID); err != nil {
		return err
	}

	u.logger.Info("file deleted", "user", userID, "key", record.StorageKey)
	return nil
}

// StreamFile opens the blob for an owned storage key. Ownership comes from
// the key prefix alone, so the check works even for keys with no record.
func (u *UploadCoordinator) StreamFile(ctx context.Context, userID, storageKey string) (io.ReadCloser, error) {
	if entities.StorageKeyOwner(storageKey) != userID {
		return nil, entities.ErrForbidden
	}
	return u.blobs.Stream(ctx, storageKey)
}

// ListFiles returns the user's active records, newest first. Pending
// records never show up here.
func (u *UploadCoordinator) ListFiles(ctx context.Context, userID string) ([]*entities.FileRecord, error) {
	return u.files.ListActiveByUser(ctx, userID)
}
