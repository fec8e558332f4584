package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/AmanCrafts/CraftBook/internal/auth"
	"github.com/AmanCrafts/CraftBook/internal/repository/sqlite"
	"github.com/AmanCrafts/CraftBook/internal/service"
)

func newTestAuthHandler(t *testing.T, google *auth.GoogleProvider) *AuthHandler {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("handler-test-secret", time.Hour)
	require.NoError(t, err)

	opts := quietOptions()
	svc := service.NewAuthService(db, auth.NewJWTProvider(tokens, google),
		auth.NewPasswordService(auth.WithCost(bcrypt.MinCost)), opts.Logger)
	return NewAuthHandler(svc, google, time.Hour, true, opts)
}

func findCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAuthHandler_RegisterAndLoginSetCookie(t *testing.T) {
	h := newTestAuthHandler(t, nil)

	rr := httptest.NewRecorder()
	h.HandleRegister(rr, httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"email":"Ada@Example.com","password":"secret123","name":"Ada"}`)))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.NotContains(t, rr.Body.String(), "password")

	rr = httptest.NewRecorder()
	h.HandleLogin(rr, httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"ada@example.com","password":"secret123"}`)))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	cookie := findCookie(rr, auth.CookieName)
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, 3600, cookie.MaxAge)
	assert.Contains(t, rr.Body.String(), cookie.Value)
}

func TestAuthHandler_RegisterValidation(t *testing.T) {
	h := newTestAuthHandler(t, nil)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing email", `{"password":"secret123","name":"Ada"}`, "email"},
		{"bad email", `{"email":"ada","password":"secret123","name":"Ada"}`, "email"},
		{"short password", `{"email":"ada@example.com","password":"123","name":"Ada"}`, "password"},
		{"missing name", `{"email":"ada@example.com","password":"secret123"}`, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.HandleRegister(rr, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(tt.body)))

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, rr.Body.String(), `"field":"`+tt.field+`"`)
		})
	}
}

func TestAuthHandler_LogoutClearsCookie(t *testing.T) {
	h := newTestAuthHandler(t, nil)

	rr := httptest.NewRecorder()
	h.HandleLogout(rr, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	cookie := findCookie(rr, auth.CookieName)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
}

func TestAuthHandler_GoogleLoginRedirectsWithState(t *testing.T) {
	google := auth.NewGoogleProvider("client-id", "client-secret", "http://localhost:3000/api/auth/google/callback")
	h := newTestAuthHandler(t, google)

	rr := httptest.NewRecorder()
	h.HandleGoogleLogin(rr, httptest.NewRequest(http.MethodGet, "/api/auth/google/login", nil))

	assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	state := findCookie(rr, stateCookieName)
	require.NotNil(t, state)
	assert.Contains(t, rr.Header().Get("Location"), "state="+state.Value)
	assert.Contains(t, rr.Header().Get("Location"), "client_id=client-id")
}

func TestAuthHandler_GoogleCallbackRejectsBadState(t *testing.T) {
	h := newTestAuthHandler(t, nil)

	tests := []struct {
		name   string
		cookie string
		query  string
	}{
		{"no cookie", "", "?state=abc&code=xyz"},
		{"mismatch", "abc", "?state=def&code=xyz"},
		{"missing query state", "abc", "?code=xyz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback"+tt.query, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: stateCookieName, Value: tt.cookie})
			}
			rr := httptest.NewRecorder()
			h.HandleGoogleCallback(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, rr.Body.String(), "invalid OAuth state")
		})
	}

	t.Run("provider error", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?state=abc&error=access_denied", nil)
		req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "abc"})
		rr := httptest.NewRecorder()
		h.HandleGoogleCallback(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), "access_denied")
	})

	t.Run("valid state without google configured", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?state=abc&code=xyz", nil)
		req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "abc"})
		rr := httptest.NewRecorder()
		h.HandleGoogleCallback(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "invalid_operation")
	})
}
