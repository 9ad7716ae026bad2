package entities

import (
	"time"
)

// User represents an account that can own files. Users are created by the
// seeding step and are immutable at runtime.
type User struct {
	ID        string
	Username  string
	CreatedAt time.Time
}
