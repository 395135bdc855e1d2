package middleware

// identity.go holds the context keys the bearer gate fills in and the
// accessors handlers use to read them back.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/recipe-backend/internal/utils"
)

// Context keys set by RequireBearer.
const (
	CtxUserID = "user_id"
	CtxEmail  = "email"
	CtxClaims = "claims"
)

// UserID returns the authenticated user's ID.  ok is false on routes that
// are not behind the gate.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(CtxUserID).(uint64)
	return id, ok && id != 0
}

// Claims returns the verified token claims attached by the gate.
func Claims(c echo.Context) (*utils.SessionClaims, bool) {
	cl, ok := c.Get(CtxClaims).(*utils.SessionClaims)
	return cl, ok && cl != nil
}

// attach stores the identity carried by claims on the context.
func attach(c echo.Context, claims *utils.SessionClaims) {
	c.Set(CtxUserID, claims.User.ID)
	c.Set(CtxEmail, claims.User.Email)
	c.Set(CtxClaims, claims)
}
