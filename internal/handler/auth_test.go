package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/skybook/flight-reservation/internal/config"
	"github.com/skybook/flight-reservation/internal/repository"
)

func newAuthHandler(t *testing.T) (*AuthHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	cfg := config.Config{
		JWTSecret:      "test-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		BcryptCost:     bcrypt.MinCost,
	}
	return NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewTokenRepo(db)), mock
}

func postJSON(h echo.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	_ = h(e.NewContext(req, rec))
	return rec
}

func TestRegisterSuccess(t *testing.T) {
	h, mock := newAuthHandler(t)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("alice@example.com", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(int64(1), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := postJSON(h.Register, "/v1/auth/register", `{"email":"Alice@Example.com","password":"hunter2"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		User struct {
			ID    uint64 `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
		Access struct {
			Token   string    `json:"token"`
			Expires time.Time `json:"expires"`
		} `json:"access"`
		Refresh struct {
			Token string `json:"token"`
		} `json:"refresh"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint64(1), resp.User.ID)
	assert.Equal(t, "alice@example.com", resp.User.Email)
	assert.NotEmpty(t, resp.Access.Token)
	assert.NotEmpty(t, resp.Refresh.Token)
	assert.True(t, resp.Access.Expires.After(time.Now()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h, mock := newAuthHandler(t)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("alice@example.com", sqlmock.AnyArg()).
		WillReturnError(errors.New("Error 1062: Duplicate entry"))

	rec := postJSON(h.Register, "/v1/auth/register", `{"email":"alice@example.com","password":"hunter2"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	h, _ := newAuthHandler(t)

	for _, body := range []string{`{}`, `{"email":"a@b.c"}`, `{"password":"x"}`} {
		rec := postJSON(h.Register, "/v1/auth/register", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	h, mock := newAuthHandler(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now()
	mock.ExpectQuery(`SELECT id,email,password_hash,is_active,created_at,updated_at FROM users WHERE email=`).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "is_active", "created_at", "updated_at"}).
			AddRow(1, "alice@example.com", string(hash), true, now, now))

	rec := postJSON(h.Login, "/v1/auth/login", `{"email":"alice@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	h, mock := newAuthHandler(t)

	mock.ExpectQuery(`SELECT id,email,password_hash,is_active,created_at,updated_at FROM users WHERE email=`).
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "is_active", "created_at", "updated_at"}))

	rec := postJSON(h.Login, "/v1/auth/login", `{"email":"nobody@example.com","password":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
