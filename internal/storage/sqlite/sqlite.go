// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/warikan/internal/models"
	"github.com/mmynk/warikan/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	newCode func() string
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db, newCode: storage.NewCode}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateShare persists a new share, picking an unused code when none is set.
func (s *SQLiteStore) CreateShare(ctx context.Context, share *models.Share) error {
	if share.CreatedAt == 0 {
		share.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if share.Code == "" {
		code, err := s.unusedCode(ctx, tx)
		if err != nil {
			return err
		}
		share.Code = code
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO shares (code, title, payload, created_at, expires_at) VALUES (?, ?, ?, ?, ?)",
		share.Code, share.Title, share.Payload, share.CreatedAt, share.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert share: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) unusedCode(ctx context.Context, tx *sql.Tx) (string, error) {
	for i := 0; i < storage.MaxCodeAttempts; i++ {
		code := s.newCode()
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM shares WHERE code = ?", code).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return code, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check share code: %w", err)
		}
	}
	return "", storage.ErrCodeExhausted
}

// GetShare retrieves a share by code. Expired rows that have not been purged
// yet are still returned; callers check Share.Expired.
func (s *SQLiteStore) GetShare(ctx context.Context, code string) (*models.Share, error) {
	share := &models.Share{}
	err := s.db.QueryRowContext(ctx,
		"SELECT code, title, payload, created_at, expires_at FROM shares WHERE code = ?",
		code,
	).Scan(&share.Code, &share.Title, &share.Payload, &share.CreatedAt, &share.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get share: %w", err)
	}
	return share, nil
}

// DeleteExpired removes every share that expired at or before now.
func (s *SQLiteStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM shares WHERE expires_at != 0 AND expires_at <= ?",
		now.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired shares: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted shares: %w", err)
	}
	return n, nil
}
