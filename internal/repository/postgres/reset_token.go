package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/sefavnl/giris-ve-kayit/internal/domain"
	"github.com/sefavnl/giris-ve-kayit/internal/repository"
)

// ResetTokenRepository is the PostgreSQL implementation of
// repository.ResetTokenRepository.
type ResetTokenRepository struct {
	db DB
}

// NewResetTokenRepository creates a PostgreSQL reset token repository.
func NewResetTokenRepository(db DB) *ResetTokenRepository {
	return &ResetTokenRepository{db: db}
}

var _ repository.ResetTokenRepository = (*ResetTokenRepository)(nil)

// Upsert deletes any existing tokens for the email and inserts the new one in
// a single statement, so the store never holds two live tokens for one email.
func (r *ResetTokenRepository) Upsert(ctx context.Context, email, token string, expiresAt time.Time) error {
	query := `
		WITH superseded AS (
			DELETE FROM password_reset_tokens WHERE email = $1
		)
		INSERT INTO password_reset_tokens (token, email, expires_at, created_at)
		VALUES ($2, $1, $3, NOW())`

	_, err := r.db.Exec(ctx, query, email, token, expiresAt)
	if err != nil {
		return fmt.Errorf("upsert reset token: %w", err)
	}

	return nil
}

// Claim removes the token and returns its record in one statement. Concurrent
// claims of the same token race on the row delete; exactly one wins.
func (r *ResetTokenRepository) Claim(ctx context.Context, token string) (*domain.PasswordResetToken, error) {
	query := `
		DELETE FROM password_reset_tokens
		WHERE token = $1
		RETURNING token, email, expires_at, created_at`

	var t domain.PasswordResetToken
	err := r.db.QueryRow(ctx, query, token).Scan(&t.Token, &t.Email, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}

	return &t, nil
}

func (r *ResetTokenRepository) DeleteByEmail(ctx context.Context, email string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM password_reset_tokens WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("delete reset tokens: %w", err)
	}

	return nil
}
