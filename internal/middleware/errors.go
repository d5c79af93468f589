package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler converts unhandled errors into a uniform JSON envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
