package auth

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userColumnNames = []string{
	"id", "username", "email", "password_hash",
	"first_name", "last_name", "bio", "avatar_url",
	"is_premium", "role", "refresh_token",
	"created_at", "updated_at",
}

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	issuer, err := NewTokenIssuer("test-secret", time.Minute)
	require.NoError(t, err)

	service := NewService(NewRepository(db), issuer)
	return service, mock, func() { db.Close() }
}

func userRow(passwordHash string, refreshToken any) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(userColumnNames).AddRow(
		"user-1", "testuser", "a@b.com", passwordHash,
		"", "", "", "",
		false, "user", refreshToken,
		now, now,
	)
}

func TestService_Register_Success(t *testing.T) {
	service, mock, done := newTestService(t)
	defer done()

	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users").WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := service.Register(context.Background(), "testuser", "a@b.com", "123456789012")
	require.NoError(t, err)

	assert.Equal(t, "testuser", result.User.Username)
	assert.Equal(t, "a@b.com", result.User.Email)
	assert.NotEmpty(t, result.User.ID)
	assert.NotEmpty(t, result.AccessToken)
	assert.Len(t, result.RefreshToken, refreshTokenBytes*2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Register_DuplicateEmail(t *testing.T) {
	service, mock, done := newTestService(t)
	defer done()

	mock.ExpectExec("INSERT INTO users").WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := service.Register(context.Background(), "testuser", "a@b.com", "123456789012")
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Login_Success(t *testing.T) {
	service, mock, done := newTestService(t)
	defer done()

	hash, err := HashPassword("123456789012")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM users").WillReturnRows(userRow(hash, nil))
	mock.ExpectExec("UPDATE users").WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := service.Login(context.Background(), "a@b.com", "123456789012")
	require.NoError(t, err)

	assert.NotEmpty(t, result.AccessToken)
	assert.Len(t, result.RefreshToken, refreshTokenBytes*2)
	assert.Equal(t, "testuser", result.Info.Username)
	assert.Equal(t, RoleUser, result.Info.Role)
	assert.False(t, result.Info.IsPremium)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Login_UnknownEmailAndWrongPasswordAreIndistinguishable(t *testing.T) {
	service, mock, done := newTestService(t)
	defer done()

	mock.ExpectQuery("SELECT (.+) FROM users").WillReturnError(sql.ErrNoRows)
	_, unknownErr := service.Login(context.Background(), "nobody@b.com", "123456789012")

	hash, err := HashPassword("123456789012")
	require.NoError(t, err)
	mock.ExpectQuery("SELECT (.+) FROM users").WillReturnRows(userRow(hash, nil))
	_, wrongErr := service.Login(context.Background(), "a@b.com", "wrongpassword!")

	assert.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	assert.ErrorIs(t, wrongErr, ErrInvalidCredentials)
	assert.Equal(t, unknownErr, wrongErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Refresh_RotatesToken(t *testing.T) {
	service, mock, done := newTestService(t)
	defer done()

	mock.ExpectQuery("SELECT (.+) FROM users").WillReturnRows(userRow("irrelevant", "old-refresh-token"))
	mock.ExpectExec("UPDATE users").WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := service.Refresh(context.Background(), "a@b.com", "old-refresh-token")
	require.NoError(t, err)

	assert.NotEmpty(t, result.AccessToken)
	assert.NotEqual(t, "old-refresh-token", result.RefreshToken)
	assert.Len(t, result.RefreshToken, refreshTokenBytes*2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Refresh_Mismatch(t *testing.T) {
	service, mock, done := newTestService(t)
	defer done()

	mock.ExpectQuery("SELECT (.+) FROM users").WillReturnRows(userRow("irrelevant", "stored-token"))

	_, err := service.Refresh(context.Background(), "a@b.com", "some-other-token")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Refresh_NoStoredToken(t *testing.T) {
	service, mock, done := newTestService(t)
	defer done()

	mock.ExpectQuery("SELECT (.+) FROM users").WillReturnRows(userRow("irrelevant", nil))

	_, err := service.Refresh(context.Background(), "a@b.com", "anything")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Refresh_UnknownUser(t *testing.T) {
	service, mock, done := newTestService(t)
	defer done()

	mock.ExpectQuery("SELECT (.+) FROM users").WillReturnError(sql.ErrNoRows)

	_, err := service.Refresh(context.Background(), "nobody@b.com", "anything")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_SeedAdmin_PartialConfigFails(t *testing.T) {
	service, _, done := newTestService(t)
	defer done()

	assert.NoError(t, service.SeedAdmin(context.Background(), "", "", ""))
	assert.Error(t, service.SeedAdmin(context.Background(), "root", "", "password123456"))
}
