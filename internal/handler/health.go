package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// DBProbe runs the trivial query used by /test-db.
type DBProbe interface {
	SelectOne(ctx context.Context) (int, error)
}

// HealthHandler serves the unauthenticated liveness endpoints.
type HealthHandler struct {
	DB  DBProbe
	Log *slog.Logger
}

func NewHealthHandler(db DBProbe, log *slog.Logger) *HealthHandler {
	return &HealthHandler{DB: db, Log: log}
}

// Root answers GET / with a plain-text greeting.
func (h *HealthHandler) Root(c echo.Context) error {
	return c.String(http.StatusOK, "Hello from Recipe Backend!")
}

// Health is a simple liveness check for load balancers.
func (h *HealthHandler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// TestDB runs SELECT 1 against the store.  The driver error is logged, not
// returned.
func (h *HealthHandler) TestDB(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	v, err := h.DB.SelectOne(ctx)
	if err != nil {
		h.Log.ErrorContext(ctx, "database connection failed", slog.Any("error", err))
		return message(c, http.StatusInternalServerError, "Database connection failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Database connection successful!",
		"result":  []echo.Map{{"1": v}},
	})
}
