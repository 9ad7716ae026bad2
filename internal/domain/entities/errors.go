package entities

import "errors"

// Sentinel errors shared across layers. Callers match them with errors.Is.
var (
	// ErrNotFound covers both genuinely missing records and records owned
	// by another user, so existence is never leaked across accounts.
	ErrNotFound = errors.New("not found")

	// ErrInvalidSession means the session token is missing a valid
	// signature, is malformed, or has expired.
	ErrInvalidSession = errors.New("invalid session")

	// ErrForbidden means the caller is authenticated but does not own the
	// requested object.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation means the request carried a malformed or unusable value.
	ErrValidation = errors.New("validation failed")

	// ErrUploadInit means the blob store could not issue a presigned URL.
	ErrUploadInit = errors.New("upload initialization failed")

	// ErrUploadFailed means the blob write during a proxy upload failed.
	ErrUploadFailed = errors.New("upload failed")

	// ErrDeletionFailed means the blob could not be deleted; the record is
	// kept so the blob stays reachable for a later retry.
	ErrDeletionFailed = errors.New("deletion failed")
)
