package repository

import (
	"context"
	"time"

	"github.com/sefavnl/giris-ve-kayit/internal/domain"
)

// UserRepository defines the credential store contract for user records.
type UserRepository interface {
	// Create inserts a new user. Returns an already-exists error when the
	// email is taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// UpdatePassword atomically replaces the password hash for the given
	// email. No reader ever observes a partially written hash.
	UpdatePassword(ctx context.Context, email, passwordHash string) error

	// Delete removes a user by their identifier.
	Delete(ctx context.Context, id string) error
}

// ResetTokenRepository defines the store contract for password reset tokens.
type ResetTokenRepository interface {
	// Upsert stores a new reset token for the email, deleting any prior
	// tokens for that email in the same operation (supersede).
	Upsert(ctx context.Context, email, token string, expiresAt time.Time) error

	// Claim atomically deletes the token and returns its record, so two
	// concurrent consumers cannot both succeed with the same token.
	// Returns a not-found error when the token does not exist.
	Claim(ctx context.Context, token string) (*domain.PasswordResetToken, error)

	// DeleteByEmail removes all reset tokens for the given email.
	DeleteByEmail(ctx context.Context, email string) error
}

// PasswordResetStore consumes a reset token and replaces the password hash
// for its email in a single transaction. The token delete and the password
// update commit together; any failure rolls back both, leaving the token
// usable. Two concurrent consumers of the same token cannot both succeed.
type PasswordResetStore interface {
	// Reset returns the email whose password was changed. A missing or
	// already consumed token yields a not-found error; a token expired at
	// the given instant yields an invalid-reset-token error and is left in
	// the store.
	Reset(ctx context.Context, token, passwordHash string, now time.Time) (string, error)
}
