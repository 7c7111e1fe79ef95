package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sefavnl/giris-ve-kayit/internal/auth"
	"github.com/sefavnl/giris-ve-kayit/internal/domain"
	"github.com/sefavnl/giris-ve-kayit/internal/event"
	"github.com/sefavnl/giris-ve-kayit/internal/repository"
	apperrors "github.com/sefavnl/giris-ve-kayit/pkg/errors"
)

// loginFailedMessage is returned for every login failure, regardless of cause.
const loginFailedMessage = "incorrect email or password"

// EventPublisher publishes user lifecycle events.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, payload event.UserRegistered) error
	PublishPasswordResetRequested(ctx context.Context, payload event.PasswordResetRequested) error
	PublishPasswordChanged(ctx context.Context, payload event.PasswordChanged) error
}

// AuthService implements registration, login, token verification, and the
// password reset flow.
type AuthService struct {
	users       repository.UserRepository
	resetTokens repository.ResetTokenRepository
	resetStore  repository.PasswordResetStore
	tokens      *auth.TokenManager
	publisher   EventPublisher
	logger      *slog.Logger
	resetTTL    time.Duration
}

// NewAuthService creates the authentication service.
func NewAuthService(
	users repository.UserRepository,
	resetTokens repository.ResetTokenRepository,
	resetStore repository.PasswordResetStore,
	tokens *auth.TokenManager,
	publisher EventPublisher,
	logger *slog.Logger,
	resetTTL time.Duration,
) *AuthService {
	return &AuthService{
		users:       users,
		resetTokens: resetTokens,
		resetStore:  resetStore,
		tokens:      tokens,
		publisher:   publisher,
		logger:      logger,
		resetTTL:    resetTTL,
	}
}

// RegisterInput holds the fields required to create an account.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register creates a new user with a hashed password. The email must not be
// taken.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, apperrors.InvalidInput("password must be at most 72 bytes")
		}
		return nil, apperrors.Internal(err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        input.Email,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, err
		}
		return nil, apperrors.Unavailable("user store", err)
	}

	if err := s.publisher.PublishUserRegistered(ctx, event.UserRegistered{
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		CreatedAt: user.CreatedAt,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to publish user registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered", slog.String("user_id", user.ID))

	return user, nil
}

// Login verifies the email/password pair and issues a bearer token. Every
// failure path returns the same error and burns a hash comparison, so neither
// the response nor its timing reveals whether the email is registered.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *domain.AccessToken, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			auth.DummyCompare(password)
			return nil, nil, apperrors.Unauthorized(loginFailedMessage)
		}
		return nil, nil, apperrors.Unavailable("user store", err)
	}

	if !auth.PasswordMatches(password, user.PasswordHash) {
		return nil, nil, apperrors.Unauthorized(loginFailedMessage)
	}

	signed, err := s.tokens.Issue(user.Email)
	if err != nil {
		return nil, nil, apperrors.Internal(err)
	}

	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))

	return user, &domain.AccessToken{AccessToken: signed, TokenType: "bearer"}, nil
}

// CurrentUser verifies the bearer token and resolves its subject to a live
// account. A valid token for a deleted account is rejected.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	email, err := s.tokens.Verify(token)
	if err != nil {
		return nil, apperrors.Unauthorized("could not validate credentials")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("could not validate credentials")
		}
		return nil, apperrors.Unavailable("user store", err)
	}

	return user, nil
}

// UserByID fetches a user by identifier.
func (s *AuthService) UserByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("user", id)
		}
		return nil, apperrors.Unavailable("user store", err)
	}
	return user, nil
}

// ForgotPassword issues a reset token for the email. For an unregistered
// email it returns a freshly generated token that is never stored, so the
// response shape does not reveal whether the account exists. Issuing a new
// token invalidates any earlier one for the same email.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	token, err := auth.GenerateResetToken()
	if err != nil {
		return "", apperrors.Internal(err)
	}

	_, err = s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return token, nil
		}
		return "", apperrors.Unavailable("user store", err)
	}

	expiresAt := time.Now().UTC().Add(s.resetTTL)
	if err := s.resetTokens.Upsert(ctx, email, token, expiresAt); err != nil {
		return "", apperrors.Unavailable("reset token store", err)
	}

	if err := s.publisher.PublishPasswordResetRequested(ctx, event.PasswordResetRequested{
		Email:       email,
		ExpiresAt:   expiresAt,
		RequestedAt: time.Now().UTC(),
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to publish password reset requested event",
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "password reset token issued")

	return token, nil
}

// ResetPassword consumes a reset token and replaces the account password.
// The new password is hashed first; the token consume and the password update
// then commit in one transaction, so a failure at any point leaves the token
// usable and the password unchanged, while two concurrent consumers of the
// same token can never both succeed. Missing, expired, and already consumed
// tokens are all reported identically.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return apperrors.InvalidInput("password must be at most 72 bytes")
		}
		return apperrors.Internal(err)
	}

	email, err := s.resetStore.Reset(ctx, token, hash, time.Now().UTC())
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrInvalidResetToken) {
			return apperrors.InvalidResetToken()
		}
		return apperrors.Unavailable("reset token store", err)
	}

	if err := s.publisher.PublishPasswordChanged(ctx, event.PasswordChanged{
		Email:     email,
		ChangedAt: time.Now().UTC(),
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to publish password changed event",
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "password reset completed")

	return nil
}
