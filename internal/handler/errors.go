package handler

import (
	"errors"
	"net/http"

	"user-service/internal/apperror"
	"user-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every non-2xx API response
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Error      string `json:"error"`
}

func errorJSON(c echo.Context, status int, message string) error {
	return c.JSON(status, ErrorResponse{
		StatusCode: status,
		Message:    message,
		Error:      http.StatusText(status),
	})
}

// respondError maps the error taxonomy onto HTTP statuses. Store failures are
// logged and answered without their cause.
func respondError(c echo.Context, err error) error {
	var (
		validation *apperror.ValidationError
		notFound   *apperror.NotFoundError
		conflict   *apperror.ConflictError
	)

	switch {
	case errors.As(err, &validation):
		return errorJSON(c, http.StatusBadRequest, validation.Error())
	case errors.As(err, &notFound):
		return errorJSON(c, http.StatusNotFound, notFound.Error())
	case errors.As(err, &conflict):
		return errorJSON(c, http.StatusUnprocessableEntity, conflict.Error())
	}

	logger.FromEcho(c).Error("Request failed", zap.Error(err))
	return errorJSON(c, http.StatusInternalServerError, "Internal server error")
}
