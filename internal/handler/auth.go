package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/recipe-backend/internal/middleware"
	"github.com/iliyamo/recipe-backend/internal/service"
	"github.com/iliyamo/recipe-backend/internal/utils"
)

// AuthService is what the auth endpoints need from service.Auth.
type AuthService interface {
	Register(ctx context.Context, email, password string) error
	Login(ctx context.Context, email, password string) (utils.AccessToken, error)
	Profile(ctx context.Context, userID uint64) (service.Profile, error)
	Logout(ctx context.Context, claims *utils.SessionClaims) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Auth AuthService
	Log  *slog.Logger
}

func NewAuthHandler(a AuthService, log *slog.Logger) *AuthHandler {
	return &AuthHandler{Auth: a, Log: log}
}

// ----- DTOs -----

type credentialsReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResp struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Register: POST /register.  201 on success; 400 for invalid input or an
// email that is already taken.
func (h *AuthHandler) Register(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	err := h.Auth.Register(ctx, req.Email, req.Password)
	if handled, werr := validationFailed(c, err); handled {
		return werr
	}
	switch {
	case err == nil:
		return c.JSON(http.StatusCreated, echo.Map{"message": "User registered successfully"})
	case errors.Is(err, service.ErrEmailExists):
		return message(c, http.StatusBadRequest, "User already exists")
	default:
		return serverError(c, h.Log, "register failed", err)
	}
}

// Login: POST /login.  Unknown email and wrong password share one response.
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	tok, err := h.Auth.Login(ctx, req.Email, req.Password)
	if handled, werr := validationFailed(c, err); handled {
		return werr
	}
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, loginResp{Token: tok.Token, ExpiresAt: tok.Exp})
	case errors.Is(err, service.ErrInvalidCredentials):
		return message(c, http.StatusBadRequest, "Invalid credentials")
	default:
		return serverError(c, h.Log, "login failed", err)
	}
}

// Profile: GET /profile (bearer).  Never includes the password hash.
func (h *AuthHandler) Profile(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return message(c, http.StatusUnauthorized, "Access Denied: No token provided")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	p, err := h.Auth.Profile(ctx, uid)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"user": p})
	case errors.Is(err, service.ErrUserNotFound):
		return message(c, http.StatusNotFound, "User not found")
	default:
		return serverError(c, h.Log, "profile lookup failed", err)
	}
}

// Logout: POST /logout (bearer).  Revokes the presented token.
func (h *AuthHandler) Logout(c echo.Context) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return message(c, http.StatusUnauthorized, "Access Denied: No token provided")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	err := h.Auth.Logout(ctx, claims)
	switch {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, service.ErrRevocationUnavailable):
		return message(c, http.StatusServiceUnavailable, "Logout is not available")
	case errors.Is(err, utils.ErrTokenInvalid):
		return message(c, http.StatusForbidden, "Invalid or expired token")
	default:
		return serverError(c, h.Log, "logout failed", err)
	}
}
