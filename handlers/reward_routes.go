package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"referral-points-system/middleware"
	"referral-points-system/services"
)

func SetupRewardRoutes(app *fiber.App, rewards *services.RewardService, ledger *services.LedgerService, stats *services.StatsService) {
	securedGroup := app.Group("/s", middleware.UserContextMiddleware())

	// Catalog filtered to what the caller can actually afford right now.
	securedGroup.Get("/user/rewards", func(c *fiber.Ctx) error {
		userID, _ := middleware.CallerID(c)

		stats.RecordCommand("rewards")
		user, err := ledger.Get(userID)
		if err != nil {
			return serviceError(c, err)
		}

		available, err := rewards.ListAvailable(user.Points)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{
			"points":  user.Points,
			"rewards": available,
		})
	})

	securedGroup.Post("/user/rewards/:id/claim", func(c *fiber.Ctx) error {
		userID, _ := middleware.CallerID(c)
		rewardID, err := strconv.ParseUint(c.Params("id"), 10, 32)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid reward id"})
		}

		stats.RecordCommand("claim_reward")
		result, err := rewards.Claim(userID, uint(rewardID))
		if err != nil {
			stats.RecordError("claim_reward")
			return serviceError(c, err)
		}
		return c.JSON(result)
	})

	securedGroup.Get("/user/rewards/history", func(c *fiber.Ctx) error {
		userID, _ := middleware.CallerID(c)
		limit, _ := strconv.Atoi(c.Query("limit", "20"))

		history, err := rewards.ClaimHistory(userID, limit)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"claims": history})
	})

	// Full catalog, unfiltered. Used by the bot to render the shop page.
	app.Get("/rewards", func(c *fiber.Ctx) error {
		all, err := rewards.ListAll()
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"rewards": all})
	})
}
