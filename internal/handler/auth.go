package handler

import (
	"net/http"
	"time"

	"github.com/rs/xid"

	"github.com/AmanCrafts/CraftBook/internal/auth"
	"github.com/AmanCrafts/CraftBook/internal/model"
	"github.com/AmanCrafts/CraftBook/internal/service"
)

const stateCookieName = "oauth_state"

// AuthHandler serves registration, login, account settings and the Google
// sign-in redirect flow.
//
// Successful sign-ins return the token in the body and also set it as an
// HttpOnly cookie, so both API clients and browsers can use it.
type AuthHandler struct {
	base
	auth   *service.AuthService
	google *auth.GoogleProvider // nil when Google sign-in is not configured
	ttl    time.Duration
	secure bool
}

func NewAuthHandler(svc *service.AuthService, google *auth.GoogleProvider, ttl time.Duration, secureCookies bool, opts Options) *AuthHandler {
	return &AuthHandler{
		base:   newBase(opts),
		auth:   svc,
		google: google,
		ttl:    ttl,
		secure: secureCookies,
	}
}

// AuthResponse is returned by every endpoint that signs someone in.
type AuthResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type changeEmailRequest struct {
	NewEmail        string `json:"newEmail" validate:"required,email"`
	CurrentPassword string `json:"currentPassword" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

// HandleRegister creates a password account.
//
// HTTP: POST /api/auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.auth.Register(r.Context(), service.Registration{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.setSessionCookie(w, res.Token)
	writeJSON(w, http.StatusCreated, AuthResponse{User: res.User, Token: res.Token})
}

// HandleLogin checks email and password.
//
// HTTP: POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.setSessionCookie(w, res.Token)
	writeJSON(w, http.StatusOK, AuthResponse{User: res.User, Token: res.Token})
}

// HandleLogout clears the session cookie. Bearer tokens stay valid until
// they expire; there is no server-side session to revoke.
//
// HTTP: POST /api/auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the signed-in user.
//
// HTTP: GET /api/auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	user, err := h.auth.Me(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleChangeEmail re-checks the password and moves the account to a new email.
//
// HTTP: PUT /api/auth/email
func (h *AuthHandler) HandleChangeEmail(w http.ResponseWriter, r *http.Request) {
	userID, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req changeEmailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.auth.ChangeEmail(r.Context(), userID, req.NewEmail, req.CurrentPassword)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleChangePassword re-checks the current password and sets a new one.
//
// HTTP: PUT /api/auth/password
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.auth.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
}

// HandleGoogleLogin redirects the browser to Google's consent page.
//
// HTTP: GET /api/auth/google/login
//
// CSRF PROTECTION VIA STATE:
// A random state value goes into a short-lived HttpOnly cookie and into the
// redirect. The callback only proceeds when Google hands the same value back.
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Details: "google sign-in is not configured",
		})
		return
	}

	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.google.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGoogleCallback finishes the Google flow and signs the person in.
//
// HTTP: GET /api/auth/google/callback?code=...&state=...
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("google callback: state mismatch")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation",
			Details: "invalid OAuth state",
			Field:   "state",
		})
		return
	}

	// state is single-use
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Value: "", Path: "/", MaxAge: -1})

	if denied := r.URL.Query().Get("error"); denied != "" {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Details: "google sign-in was cancelled: " + denied,
		})
		return
	}

	res, err := h.auth.LoginWithGoogle(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.setSessionCookie(w, res.Token)
	writeJSON(w, http.StatusOK, AuthResponse{User: res.User, Token: res.Token})
}

// setSessionCookie stores the token in an HttpOnly cookie with the token's lifetime.
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
