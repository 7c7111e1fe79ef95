package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/sefavnl/giris-ve-kayit/internal/domain"
	"github.com/sefavnl/giris-ve-kayit/internal/repository"
	apperrors "github.com/sefavnl/giris-ve-kayit/pkg/errors"
)

// PasswordResetStore is the PostgreSQL implementation of
// repository.PasswordResetStore.
type PasswordResetStore struct {
	db DB
}

// NewPasswordResetStore creates a PostgreSQL password reset store.
func NewPasswordResetStore(db DB) *PasswordResetStore {
	return &PasswordResetStore{db: db}
}

var _ repository.PasswordResetStore = (*PasswordResetStore)(nil)

// Reset consumes the token and replaces the password hash in one transaction.
// The DELETE..RETURNING row-locks the token, so a concurrent Reset of the
// same token blocks until commit and then finds no row. Any failure before
// commit rolls back, restoring the token.
func (s *PasswordResetStore) Reset(ctx context.Context, token, passwordHash string, now time.Time) (string, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin password reset: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	claim := `
		DELETE FROM password_reset_tokens
		WHERE token = $1
		RETURNING token, email, expires_at, created_at`

	var t domain.PasswordResetToken
	err = tx.QueryRow(ctx, claim, token).Scan(&t.Token, &t.Email, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		return "", mapNoRows(err)
	}

	if t.Expired(now) {
		return "", apperrors.ErrInvalidResetToken
	}

	update := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE email = $1`

	tag, err := tx.Exec(ctx, update, t.Email, passwordHash)
	if err != nil {
		return "", fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return "", apperrors.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit password reset: %w", err)
	}

	return t.Email, nil
}
