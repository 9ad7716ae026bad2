package entities

import (
	"strings"
	"time"
)

// StorageProvider identifies the blob backend a record's bytes live in.
type StorageProvider string

const (
	ProviderS3 StorageProvider = "s3"
)

// FileRecord tracks one uploaded object. A record created through the
// presigned flow starts inactive and is activated by an explicit confirm;
// a record created through the proxy flow is active from the start because
// the server observed the write itself.
type FileRecord struct {
	ID         string
	UserID     string
	Name       string
	StorageKey string
	Provider   StorageProvider
	IsActive   bool
	CreatedAt  time.Time
}

// FormStorageKey builds the canonical object key for a user-owned file.
// The owner is always the first path segment so ownership can be checked
// from the key alone.
func FormStorageKey(userID, name string) string {
	return userID + "/" + name
}

// StorageKeyOwner returns the owner segment of a storage key, or "" when
// the key has no owner prefix.
func StorageKeyOwner(key string) string {
	owner, _, ok := strings.Cut(key, "/")
	if !ok {
		return ""
	}
	return owner
}
