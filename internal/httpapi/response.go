package httpapi

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/joseph-ayodele/or-schedule/internal/common"
)

type successResponse struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func ApplySuccessToResponse(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusOK).JSON(successResponse{Status: "success", Data: data})
}

// ApplyErrorToResponse answers with the error envelope. The HTTP status is
// derived from err; a nil err means a bad request.
func ApplyErrorToResponse(c *fiber.Ctx, logger *slog.Logger, message string, err error) error {
	code := statusFor(err)
	if err != nil && logger != nil {
		logger.Warn("http.request.error",
			"method", c.Method(),
			"path", c.Path(),
			"status", code,
			"error", err,
		)
	}
	return c.Status(code).JSON(errorResponse{Status: "error", Message: message})
}

func statusFor(err error) int {
	switch {
	case err == nil:
		return fiber.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrUnsupportedFormat):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}
