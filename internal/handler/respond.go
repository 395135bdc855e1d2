package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/recipe-backend/internal/service"
)

// dbTimeout bounds every request's store work.
const dbTimeout = 5 * time.Second

// message writes the standard failure body {"message": msg}.
func message(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"message": msg})
}

// badBody is returned when the JSON body cannot be decoded.
func badBody(c echo.Context) error {
	return message(c, http.StatusBadRequest, "Invalid request body")
}

// validationFailed writes a 400 with the first message and every field.
func validationFailed(c echo.Context, err error) (bool, error) {
	var ve *service.ValidationError
	if !errors.As(err, &ve) {
		return false, nil
	}
	return true, c.JSON(http.StatusBadRequest, echo.Map{
		"message": ve.Message(),
		"errors":  ve.Fields,
	})
}

// serverError logs err with request context and writes a generic 500.
func serverError(c echo.Context, log *slog.Logger, what string, err error) error {
	log.ErrorContext(c.Request().Context(), what,
		slog.String("method", c.Request().Method),
		slog.String("path", c.Path()),
		slog.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		slog.Any("error", err))
	return message(c, http.StatusInternalServerError, "Server error")
}
