package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/wealthfolio/backend/src/config"
	"github.com/username/wealthfolio/backend/src/database"
	"github.com/username/wealthfolio/backend/src/models"
	"github.com/username/wealthfolio/backend/src/security"
)

func newUserTestHandler(t *testing.T) *UserHandler {
	t.Helper()
	if config.Cfg == nil {
		config.Cfg = &config.AppConfig{AccessTokenExpiry: time.Hour}
	}
	database.InitDB(filepath.Join(t.TempDir(), "test.db"))
	t.Cleanup(func() { database.DB.Close() })
	return NewUserHandler(security.NewAuthService("test-secret"))
}

func registerUser(t *testing.T, h *UserHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.RegisterUserHandler(rr, req)
	return rr
}

func TestRegisterThenLogin(t *testing.T) {
	h := newUserTestHandler(t)

	rr := registerUser(t, h, `{"username":"maria","email":"maria@example.com","password":"s3cret-enough"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	// The stored hash comes from the auth service, so it must verify through it.
	user, err := models.GetUserByUsername(database.DB, "maria")
	require.NoError(t, err)
	require.NoError(t, h.authService.CompareHashAndPassword(user.Password, "s3cret-enough"))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"maria","password":"s3cret-enough"}`))
	loginRR := httptest.NewRecorder()
	h.LoginUserHandler(loginRR, req)
	require.Equal(t, http.StatusOK, loginRR.Code, loginRR.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(loginRR.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["access_token"])
}

func TestLoginWrongPassword(t *testing.T) {
	h := newUserTestHandler(t)

	rr := registerUser(t, h, `{"username":"joao","email":"joao@example.com","password":"s3cret-enough"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"joao","password":"not-the-password"}`))
	loginRR := httptest.NewRecorder()
	h.LoginUserHandler(loginRR, req)
	assert.Equal(t, http.StatusUnauthorized, loginRR.Code)
}

func TestRegisterValidation(t *testing.T) {
	h := newUserTestHandler(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing email", `{"username":"ana","password":"s3cret-enough"}`, http.StatusBadRequest},
		{"short password", `{"username":"ana","email":"ana@example.com","password":"short"}`, http.StatusBadRequest},
		{"missing username", `{"email":"ana@example.com","password":"s3cret-enough"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := registerUser(t, h, tt.body)
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
		})
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	h := newUserTestHandler(t)

	rr := registerUser(t, h, `{"username":"rita","email":"rita@example.com","password":"s3cret-enough"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = registerUser(t, h, `{"username":"rita","email":"rita2@example.com","password":"s3cret-enough"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
}
