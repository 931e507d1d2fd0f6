// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/warikan/internal/models"
)

// CodeLength is the number of characters in a share code.
const CodeLength = 8

// MaxCodeAttempts bounds how many fresh codes a store tries before giving up.
const MaxCodeAttempts = 5

var (
	// ErrNotFound is returned when no share exists for a code.
	ErrNotFound = errors.New("share not found")
	// ErrCodeExhausted is returned when no unused code was found.
	ErrCodeExhausted = errors.New("could not allocate a unique share code")
)

// Store defines the interface for share storage operations.
// This abstraction allows swapping storage backends (SQLite, Redis)
// without changing the service layer.
type Store interface {
	// CreateShare persists a new share.
	// The share.Code and share.CreatedAt fields are populated by the store when empty.
	CreateShare(ctx context.Context, share *models.Share) error

	// GetShare retrieves a share by its code.
	// Returns an error wrapping ErrNotFound if there is none.
	GetShare(ctx context.Context, code string) (*models.Share, error)

	// DeleteExpired removes shares whose expiry is at or before now and
	// reports how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	// Close releases any resources held by the store.
	Close() error
}

// NewCode returns a fresh random share code.
func NewCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:CodeLength]
}
