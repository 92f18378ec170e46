package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"referral-points-system/config"
	"referral-points-system/utils"
)

const (
	UserIDLocal  = "user_id"
	IsAdminLocal = "is_admin"
)

// UserContextMiddleware extracts the acting user's identity set by the
// gateway. Secured paths (anything under /s/) require X-User-ID; the
// admin flag is derived from configuration, never from the request.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rawID := c.Get("X-User-ID")

		path := c.Path()
		isSecured := strings.HasPrefix(path, "/s/")
		if isSecured && rawID == "" {
			utils.Sugar.Warnw("[USER_CTX] X-User-ID required but missing on secured route", "path", path)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID — request must come through gateway with auth context",
			})
		}

		if rawID != "" {
			userID, err := strconv.ParseInt(rawID, 10, 64)
			if err != nil {
				utils.Sugar.Warnw("[USER_CTX] malformed X-User-ID", "value", rawID, "path", path)
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "malformed X-User-ID header",
				})
			}
			c.Locals(UserIDLocal, userID)
			c.Locals(IsAdminLocal, config.Get().IsAdmin(userID))
		}

		return c.Next()
	}
}

// CallerID returns the user id attached by UserContextMiddleware.
func CallerID(c *fiber.Ctx) (int64, bool) {
	id, ok := c.Locals(UserIDLocal).(int64)
	return id, ok
}

// CallerIsAdmin reports whether the acting user is a configured admin.
func CallerIsAdmin(c *fiber.Ctx) bool {
	isAdmin, _ := c.Locals(IsAdminLocal).(bool)
	return isAdmin
}
