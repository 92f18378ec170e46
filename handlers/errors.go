package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"referral-points-system/services"
)

// serviceError maps the service error taxonomy onto HTTP statuses so
// the gateway can relay a meaningful message to the end user.
func serviceError(c *fiber.Ctx, err error) error {
	var insufficient *services.InsufficientPointsError
	var invalid *services.InvalidOperationError

	switch {
	case services.IsNotFound(err):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.As(err, &insufficient):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": insufficient.Error(),
			"have":  insufficient.Have,
			"need":  insufficient.Need,
		})
	case errors.As(err, &invalid):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": invalid.Error(),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal error",
			"cause": err.Error(),
		})
	}
}
