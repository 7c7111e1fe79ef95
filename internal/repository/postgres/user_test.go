package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sefavnl/giris-ve-kayit/internal/domain"
	"github.com/sefavnl/giris-ve-kayit/pkg/database"
	apperrors "github.com/sefavnl/giris-ve-kayit/pkg/errors"
)

func testUser() *domain.User {
	now := time.Now().UTC()
	return &domain.User{
		ID:           "2b9f2c1e-9a31-4a94-9adf-7cbe72f3d6b1",
		Email:        "alice@example.com",
		PasswordHash: "$2a$12$abcdefghijklmnopqrstuv",
		FirstName:    "Alice",
		LastName:     "Smith",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func userRows(u *domain.User) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "email", "password_hash", "first_name", "last_name", "created_at", "updated_at",
	}).AddRow(u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.CreatedAt, u.UpdatedAt)
}

func TestUserRepository_Create(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	user := testUser()
	mock.ExpectExec("INSERT INTO users").
		WithArgs(user.ID, user.Email, user.PasswordHash,
			user.FirstName, user.LastName, user.CreatedAt, user.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewUserRepository(mock)
	require.NoError(t, repo.Create(context.Background(), user))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	user := testUser()
	mock.ExpectExec("INSERT INTO users").
		WithArgs(user.ID, user.Email, user.PasswordHash,
			user.FirstName, user.LastName, user.CreatedAt, user.UpdatedAt).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	repo := NewUserRepository(mock)
	err = repo.Create(context.Background(), user)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestUserRepository_GetByEmail(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	user := testUser()
	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs(user.Email).
		WillReturnRows(userRows(user))

	repo := NewUserRepository(mock)
	got, err := repo.GetByEmail(context.Background(), user.Email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, user.PasswordHash, got.PasswordHash)
}

func TestUserRepository_GetByEmail_NotFound(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("nobody@example.com").
		WillReturnError(pgx.ErrNoRows)

	repo := NewUserRepository(mock)
	_, err = repo.GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUserRepository_GetByID(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	user := testUser()
	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs(user.ID).
		WillReturnRows(userRows(user))

	repo := NewUserRepository(mock)
	got, err := repo.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("UPDATE users").
		WithArgs("alice@example.com", "new-hash").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	repo := NewUserRepository(mock)
	require.NoError(t, repo.UpdatePassword(context.Background(), "alice@example.com", "new-hash"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdatePassword_UnknownEmail(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("UPDATE users").
		WithArgs("nobody@example.com", "new-hash").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewUserRepository(mock)
	err = repo.UpdatePassword(context.Background(), "nobody@example.com", "new-hash")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUserRepository_Delete(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM users").
		WithArgs("user-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	repo := NewUserRepository(mock)
	assert.NoError(t, repo.Delete(context.Background(), "user-1"))
}
