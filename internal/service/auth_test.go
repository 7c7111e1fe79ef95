package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sefavnl/giris-ve-kayit/internal/auth"
	"github.com/sefavnl/giris-ve-kayit/internal/domain"
	"github.com/sefavnl/giris-ve-kayit/internal/event"
	apperrors "github.com/sefavnl/giris-ve-kayit/pkg/errors"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	return m.Called(ctx, email, passwordHash).Error(0)
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockResetTokenRepo struct {
	mock.Mock
}

func (m *mockResetTokenRepo) Upsert(ctx context.Context, email, token string, expiresAt time.Time) error {
	return m.Called(ctx, email, token, expiresAt).Error(0)
}

func (m *mockResetTokenRepo) Claim(ctx context.Context, token string) (*domain.PasswordResetToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PasswordResetToken), args.Error(1)
}

func (m *mockResetTokenRepo) DeleteByEmail(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

type mockResetStore struct {
	mock.Mock
}

func (m *mockResetStore) Reset(ctx context.Context, token, passwordHash string, now time.Time) (string, error) {
	args := m.Called(ctx, token, passwordHash, now)
	return args.String(0), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishUserRegistered(ctx context.Context, payload event.UserRegistered) error {
	return m.Called(ctx, payload).Error(0)
}

func (m *mockPublisher) PublishPasswordResetRequested(ctx context.Context, payload event.PasswordResetRequested) error {
	return m.Called(ctx, payload).Error(0)
}

func (m *mockPublisher) PublishPasswordChanged(ctx context.Context, payload event.PasswordChanged) error {
	return m.Called(ctx, payload).Error(0)
}

type serviceMocks struct {
	users       *mockUserRepo
	resetTokens *mockResetTokenRepo
	resetStore  *mockResetStore
	publisher   *mockPublisher
}

func newTestService() (*AuthService, *serviceMocks) {
	m := &serviceMocks{
		users:       new(mockUserRepo),
		resetTokens: new(mockResetTokenRepo),
		resetStore:  new(mockResetStore),
		publisher:   new(mockPublisher),
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	tm := auth.NewTokenManager("test-secret-that-is-long-enough!", 30*time.Minute)
	svc := NewAuthService(m.users, m.resetTokens, m.resetStore, tm, m.publisher, log, 24*time.Hour)
	return svc, m
}

func TestRegister(t *testing.T) {
	svc, m := newTestService()

	m.users.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "alice@example.com" &&
			u.ID != "" &&
			u.PasswordHash != "" &&
			u.PasswordHash != "pw1"
	})).Return(nil)
	m.publisher.On("PublishUserRegistered", mock.Anything, mock.Anything).Return(nil)

	user, err := svc.Register(context.Background(), RegisterInput{
		Email:     "alice@example.com",
		Password:  "pw1",
		FirstName: "Alice",
	})
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", user.Email)
	assert.True(t, auth.PasswordMatches("pw1", user.PasswordHash))
	m.users.AssertExpectations(t)
	m.publisher.AssertExpectations(t)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, m := newTestService()

	m.users.On("Create", mock.Anything, mock.Anything).
		Return(apperrors.AlreadyExists("user", "email", "alice@example.com"))

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "alice@example.com",
		Password: "pw1",
	})

	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestRegister_EventFailureDoesNotFailRegistration(t *testing.T) {
	svc, m := newTestService()

	m.users.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.publisher.On("PublishUserRegistered", mock.Anything, mock.Anything).
		Return(assert.AnError)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "alice@example.com",
		Password: "pw1",
	})

	assert.NoError(t, err)
}

func TestLogin(t *testing.T) {
	svc, m := newTestService()

	hash, err := auth.HashPassword("pw1")
	require.NoError(t, err)
	m.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{
		ID:           "user-1",
		Email:        "alice@example.com",
		PasswordHash: hash,
	}, nil)

	user, token, err := svc.Login(context.Background(), "alice@example.com", "pw1")
	require.NoError(t, err)

	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, "bearer", token.TokenType)
	assert.NotEmpty(t, token.AccessToken)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	svc, m := newTestService()

	hash, err := auth.HashPassword("correct-password")
	require.NoError(t, err)
	m.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{
		ID:           "user-1",
		Email:        "alice@example.com",
		PasswordHash: hash,
	}, nil)
	m.users.On("GetByEmail", mock.Anything, "nobody@example.com").
		Return(nil, apperrors.ErrNotFound)

	_, _, wrongPassword := svc.Login(context.Background(), "alice@example.com", "wrong")
	_, _, unknownEmail := svc.Login(context.Background(), "nobody@example.com", "wrong")

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
	assert.ErrorIs(t, wrongPassword, apperrors.ErrUnauthorized)
	assert.ErrorIs(t, unknownEmail, apperrors.ErrUnauthorized)
}

func TestLogin_StoreUnavailable(t *testing.T) {
	svc, m := newTestService()

	m.users.On("GetByEmail", mock.Anything, "alice@example.com").
		Return(nil, assert.AnError)

	_, _, err := svc.Login(context.Background(), "alice@example.com", "pw1")
	assert.ErrorIs(t, err, apperrors.ErrUnavailable)
}

func TestCurrentUser(t *testing.T) {
	svc, m := newTestService()

	hash, err := auth.HashPassword("pw1")
	require.NoError(t, err)
	m.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{
		ID:           "user-1",
		Email:        "alice@example.com",
		PasswordHash: hash,
	}, nil)

	_, token, err := svc.Login(context.Background(), "alice@example.com", "pw1")
	require.NoError(t, err)

	user, err := svc.CurrentUser(context.Background(), token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
}

func TestCurrentUser_InvalidToken(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.CurrentUser(context.Background(), "garbage")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestCurrentUser_DeletedAccount(t *testing.T) {
	svc, m := newTestService()

	tm := auth.NewTokenManager("test-secret-that-is-long-enough!", 30*time.Minute)
	token, err := tm.Issue("ghost@example.com")
	require.NoError(t, err)

	m.users.On("GetByEmail", mock.Anything, "ghost@example.com").
		Return(nil, apperrors.ErrNotFound)

	_, err = svc.CurrentUser(context.Background(), token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestForgotPassword(t *testing.T) {
	svc, m := newTestService()

	m.users.On("GetByEmail", mock.Anything, "alice@example.com").
		Return(&domain.User{ID: "user-1", Email: "alice@example.com"}, nil)
	m.resetTokens.On("Upsert", mock.Anything, "alice@example.com", mock.Anything, mock.Anything).
		Return(nil)
	m.publisher.On("PublishPasswordResetRequested", mock.Anything, mock.Anything).Return(nil)

	token, err := svc.ForgotPassword(context.Background(), "alice@example.com")
	require.NoError(t, err)

	assert.Len(t, token, auth.ResetTokenLength)
	m.resetTokens.AssertExpectations(t)
}

func TestForgotPassword_UnknownEmailGetsDecoyToken(t *testing.T) {
	svc, m := newTestService()

	m.users.On("GetByEmail", mock.Anything, "nobody@example.com").
		Return(nil, apperrors.ErrNotFound)

	token, err := svc.ForgotPassword(context.Background(), "nobody@example.com")
	require.NoError(t, err)

	assert.Len(t, token, auth.ResetTokenLength)
	m.resetTokens.AssertNotCalled(t, "Upsert",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestResetPassword(t *testing.T) {
	svc, m := newTestService()

	m.resetStore.On("Reset", mock.Anything, "valid-token", mock.MatchedBy(func(hash string) bool {
		return auth.PasswordMatches("new-password", hash)
	}), mock.Anything).Return("alice@example.com", nil)
	m.publisher.On("PublishPasswordChanged", mock.Anything, mock.MatchedBy(func(p event.PasswordChanged) bool {
		return p.Email == "alice@example.com"
	})).Return(nil)

	err := svc.ResetPassword(context.Background(), "valid-token", "new-password")
	require.NoError(t, err)

	m.resetStore.AssertExpectations(t)
	m.publisher.AssertExpectations(t)
}

func TestResetPassword_UnknownToken(t *testing.T) {
	svc, m := newTestService()

	m.resetStore.On("Reset", mock.Anything, "missing", mock.Anything, mock.Anything).
		Return("", apperrors.ErrNotFound)

	err := svc.ResetPassword(context.Background(), "missing", "new-password")
	assert.ErrorIs(t, err, apperrors.ErrInvalidResetToken)
}

func TestResetPassword_ExpiredToken(t *testing.T) {
	svc, m := newTestService()

	m.resetStore.On("Reset", mock.Anything, "stale", mock.Anything, mock.Anything).
		Return("", apperrors.ErrInvalidResetToken)

	err := svc.ResetPassword(context.Background(), "stale", "new-password")

	assert.ErrorIs(t, err, apperrors.ErrInvalidResetToken)
	m.publisher.AssertNotCalled(t, "PublishPasswordChanged", mock.Anything, mock.Anything)
}

func TestResetPassword_SingleUse(t *testing.T) {
	svc, m := newTestService()

	m.resetStore.On("Reset", mock.Anything, "one-shot", mock.Anything, mock.Anything).
		Return("alice@example.com", nil).Once()
	m.resetStore.On("Reset", mock.Anything, "one-shot", mock.Anything, mock.Anything).
		Return("", apperrors.ErrNotFound)
	m.publisher.On("PublishPasswordChanged", mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, svc.ResetPassword(context.Background(), "one-shot", "first"))

	err := svc.ResetPassword(context.Background(), "one-shot", "second")
	assert.ErrorIs(t, err, apperrors.ErrInvalidResetToken)
}

func TestResetPassword_StoreFailureIsUnavailable(t *testing.T) {
	svc, m := newTestService()

	m.resetStore.On("Reset", mock.Anything, "tok", mock.Anything, mock.Anything).
		Return("", assert.AnError)

	err := svc.ResetPassword(context.Background(), "tok", "new-password")

	assert.ErrorIs(t, err, apperrors.ErrUnavailable)
	m.publisher.AssertNotCalled(t, "PublishPasswordChanged", mock.Anything, mock.Anything)
}
