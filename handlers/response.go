package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"math-log-server/models"
)

// respond wraps payload in the success envelope
func respond(c *fiber.Ctx, payload interface{}) error {
	return c.JSON(models.Envelope{Data: payload})
}

// errorResponse writes the error envelope with the given status
func errorResponse(c *fiber.Ctx, status int, detail string) error {
	return c.Status(status).JSON(models.ErrorResponse{Detail: detail})
}

// ErrorHandler keeps errors that escape handlers (unknown routes, body
// limits, recovered panics) inside the error envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	detail := err.Error()

	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		detail = fe.Message
	}

	if status >= fiber.StatusInternalServerError {
		slog.Error("request failed",
			"method", c.Method(),
			"path", c.Path(),
			"error", err,
		)
	}

	return errorResponse(c, status, detail)
}
