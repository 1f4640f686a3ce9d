package handlers

import (
	"context"
	"net/http"
	"time"

	"nfl-survivor-go/logging"
	"nfl-survivor-go/middleware"
	"nfl-survivor-go/models"
)

// Authenticator issues session tokens
type Authenticator interface {
	Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	TokenExpiry() time.Duration
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService  Authenticator
	secureCookie bool
	logger       *logging.Logger
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService Authenticator, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		secureCookie: secureCookie,
		logger:       logging.WithPrefix("AuthHandler"),
	}
}

// Signup handles POST /api/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := decodeAndValidate(r.Context(), r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp, err := h.authService.Signup(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.Infof("New signup: %s", resp.User.Email)
	h.setAuthCookie(w, resp.Token)
	writeJSON(w, http.StatusCreated, resp)
}

// Login handles POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeAndValidate(r.Context(), r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		h.logger.Debugf("Login failed for %s: %v", req.Email, err)
		writeError(w, h.logger, err)
		return
	}

	h.setAuthCookie(w, resp.Token)
	writeJSON(w, http.StatusOK, resp)
}

// Logout clears the session cookie
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AuthCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	if user == nil {
		writeErrorMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, user.ToSafeUser())
}

func (h *AuthHandler) setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AuthCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.authService.TokenExpiry().Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
