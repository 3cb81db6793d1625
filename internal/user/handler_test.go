package user

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sportmeet-api/internal/auth"
)

var profileColumnNames = []string{"id", "username", "email", "first_name", "last_name", "bio", "avatar_url"}

func profileRow() *sqlmock.Rows {
	return sqlmock.NewRows(profileColumnNames).
		AddRow("user-1", "testuser", "a@b.com", "Jean", "Dupont", "hello", "")
}

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewHandler(NewRepository(db)), mock, func() { db.Close() }
}

func authedDo(t *testing.T, handlerFunc http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	issuer, err := auth.NewTokenIssuer("test-secret", time.Minute)
	require.NoError(t, err)
	token, err := issuer.Issue("user-1", auth.RoleUser)
	require.NoError(t, err)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	auth.Middleware(issuer, handlerFunc).ServeHTTP(rec, req)
	return rec
}

func TestMe(t *testing.T) {
	handler, mock, done := newTestHandler(t)
	defer done()

	mock.ExpectQuery("SELECT (.+) FROM users").WillReturnRows(profileRow())

	rec := authedDo(t, handler.Me, http.MethodGet, "/user/me", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "testuser", body["user"].Username)
	assert.Equal(t, "a@b.com", body["user"].Email)
}

func TestMe_RequiresAuthentication(t *testing.T) {
	handler, _, done := newTestHandler(t)
	defer done()

	req := httptest.NewRequest(http.MethodGet, "/user/me", nil)
	rec := httptest.NewRecorder()
	handler.Me(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestByID_HidesEmail(t *testing.T) {
	handler, mock, done := newTestHandler(t)
	defer done()

	mock.ExpectQuery("SELECT (.+) FROM users").WillReturnRows(profileRow())

	req := httptest.NewRequest(http.MethodGet, "/user/0190fdb2-0000-7000-8000-000000000000", nil)
	req.SetPathValue("id", "0190fdb2-0000-7000-8000-000000000000")
	rec := httptest.NewRecorder()
	handler.ByID(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "testuser", body["user"].Username)
	assert.Empty(t, body["user"].Email)
}

func TestByID_InvalidID(t *testing.T) {
	handler, _, done := newTestHandler(t)
	defer done()

	req := httptest.NewRequest(http.MethodGet, "/user/not-a-uuid", nil)
	req.SetPathValue("id", "not-a-uuid")
	rec := httptest.NewRecorder()
	handler.ByID(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdate(t *testing.T) {
	handler, mock, done := newTestHandler(t)
	defer done()

	mock.ExpectExec("UPDATE users").WillReturnResult(sqlmock.NewResult(0, 1))

	rec := authedDo(t, handler.Update, http.MethodPut, "/user/update",
		`{"username":"testuser","email":"new@b.com","bio":"salut"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_MissingFields(t *testing.T) {
	handler, _, done := newTestHandler(t)
	defer done()

	rec := authedDo(t, handler.Update, http.MethodPut, "/user/update", `{"username":"testuser"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDelete_WrongPassword(t *testing.T) {
	handler, mock, done := newTestHandler(t)
	defer done()

	hash, err := auth.HashPassword("correct-password!")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"username", "password_hash"}).AddRow("testuser", hash))

	rec := authedDo(t, handler.Delete, http.MethodDelete, "/user/delete", `{"password":"wrong-password!!"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDelete(t *testing.T) {
	handler, mock, done := newTestHandler(t)
	defer done()

	hash, err := auth.HashPassword("correct-password!")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"username", "password_hash"}).AddRow("testuser", hash))
	mock.ExpectExec("DELETE FROM users").WillReturnResult(sqlmock.NewResult(0, 1))

	rec := authedDo(t, handler.Delete, http.MethodDelete, "/user/delete", `{"password":"correct-password!"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "User testuser deleted", body["message"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
