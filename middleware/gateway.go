package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"referral-points-system/config"
	"referral-points-system/utils"
)

// GatewayAuthMiddleware validates the Bearer token from the bot gateway.
func GatewayAuthMiddleware() fiber.Handler {
	expectedToken := config.Get().ServiceToken

	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			utils.Sugar.Warnw("[GATEWAY_AUTH] missing Authorization header", "path", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "gateway authentication token missing",
			})
		}

		// Parse "Bearer <token>"
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			// no "Bearer " prefix — try raw value
			token = authHeader
		}

		if token != expectedToken {
			utils.Sugar.Warnw("[GATEWAY_AUTH] invalid token", "path", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid gateway authentication token",
			})
		}

		return c.Next()
	}
}
