package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"referral-points-system/middleware"
	"referral-points-system/services"
)

func SetupUserRoutes(app *fiber.App, referrals *services.ReferralService, ledger *services.LedgerService, leveling *services.Leveling, stats *services.StatsService) {
	// Secured routes — identity comes from the gateway headers.
	securedGroup := app.Group("/s", middleware.UserContextMiddleware())

	// Register handles /start. Idempotent: a returning user gets a
	// refreshed profile, a new user gets a ledger record plus referral
	// attribution if the invite code resolves.
	securedGroup.Post("/user/register", func(c *fiber.Ctx) error {
		userID, ok := middleware.CallerID(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing user context"})
		}

		type Req struct {
			Username     *string `json:"username"`
			DisplayName  string  `json:"display_name"`
			ReferralCode string  `json:"referral_code"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		stats.RecordCommand("register")
		user, created, err := referrals.Register(services.RegisterInput{
			UserID:       userID,
			Username:     req.Username,
			DisplayName:  req.DisplayName,
			ReferralCode: req.ReferralCode,
		})
		if err != nil {
			stats.RecordError("register")
			return serviceError(c, err)
		}

		status := fiber.StatusOK
		if created {
			status = fiber.StatusCreated
		}
		return c.Status(status).JSON(fiber.Map{
			"user":    user,
			"created": created,
		})
	})

	securedGroup.Get("/user/profile", func(c *fiber.Ctx) error {
		userID, _ := middleware.CallerID(c)

		stats.RecordCommand("profile")
		user, err := ledger.Get(userID)
		if err != nil {
			return serviceError(c, err)
		}

		level, intoLevel, remaining := leveling.XPProgress(user.Experience)
		referralCount, err := ledger.ReferralCount(userID)
		if err != nil {
			return serviceError(c, err)
		}

		return c.JSON(fiber.Map{
			"user":              user,
			"level":             level,
			"xp_into_level":     intoLevel,
			"xp_to_next_level":  remaining,
			"referral_count":    referralCount,
			"xp_for_next_level": leveling.XPRequiredForLevel(level + 1),
		})
	})

	securedGroup.Get("/user/referral", func(c *fiber.Ctx) error {
		userID, _ := middleware.CallerID(c)

		stats.RecordCommand("referral")
		user, err := ledger.Get(userID)
		if err != nil {
			return serviceError(c, err)
		}
		referralCount, err := ledger.ReferralCount(userID)
		if err != nil {
			return serviceError(c, err)
		}

		return c.JSON(fiber.Map{
			"referral_code":       user.ReferralCode,
			"referral_count":      referralCount,
			"points_per_referral": referrals.PointsPerReferral,
			"xp_per_referral":     referrals.XPPerReferral,
		})
	})

	// Invite-link click, recorded before the recruit ever registers.
	securedGroup.Post("/user/referral/click", func(c *fiber.Ctx) error {
		stats.RecordReferralClick()
		return c.SendStatus(fiber.StatusNoContent)
	})

	// Leaderboards are public within the service mesh.
	app.Get("/leaderboard/points", func(c *fiber.Ctx) error {
		limit := leaderboardLimit(c)
		stats.RecordCommand("leaderboard_points")
		users, err := ledger.TopByPoints(limit)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"leaders": users})
	})

	app.Get("/leaderboard/level", func(c *fiber.Ctx) error {
		limit := leaderboardLimit(c)
		stats.RecordCommand("leaderboard_level")
		users, err := ledger.TopByLevel(limit)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"leaders": users})
	})

	app.Get("/leaderboard/referrals", func(c *fiber.Ctx) error {
		limit := leaderboardLimit(c)
		stats.RecordCommand("leaderboard_referrals")
		leaders, err := ledger.TopByReferralCount(limit)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"leaders": leaders})
	})
}

// leaderboardLimit clamps the requested page size: malformed or
// non-positive values fall back to the default, oversized ones are capped.
func leaderboardLimit(c *fiber.Ctx) int {
	return clampLimit(c.Query("limit"))
}

func clampLimit(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 10
	}
	if n > 100 {
		return 100
	}
	return n
}
