package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/recipe-backend/internal/utils"
)

// Authenticator verifies a raw bearer token.  service.Auth implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (*utils.SessionClaims, error)
}

// RequireBearer returns an Echo middleware that admits only requests with
// a valid "Authorization: Bearer <token>" header.  A missing or malformed
// header yields 401; a token that fails verification or was revoked yields
// 403.  In both cases the wrapped handler is not called.
//
// On success the user's ID, email and claims are available through UserID
// and Claims.
func RequireBearer(auth Authenticator, log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Access Denied: No token provided"})
			}

			claims, err := auth.Authenticate(c.Request().Context(), raw)
			if err != nil {
				log.DebugContext(c.Request().Context(), "bearer rejected",
					slog.String("path", c.Path()), slog.Any("error", err))
				return c.JSON(http.StatusForbidden, echo.Map{"message": "Invalid or expired token"})
			}

			attach(c, claims)
			return next(c)
		}
	}
}

// bearerToken extracts the token from an Authorization header value.  The
// scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, tok, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}
