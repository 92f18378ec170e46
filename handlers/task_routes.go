package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"referral-points-system/middleware"
	"referral-points-system/services"
)

func SetupTaskRoutes(app *fiber.App, tasks *services.TaskService, stats *services.StatsService) {
	securedGroup := app.Group("/s", middleware.UserContextMiddleware())

	securedGroup.Get("/user/tasks", func(c *fiber.Ctx) error {
		userID, _ := middleware.CallerID(c)

		stats.RecordCommand("tasks")
		available, err := tasks.AvailableForUser(userID)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"tasks": available})
	})

	securedGroup.Post("/user/tasks/:id/start", func(c *fiber.Ctx) error {
		userID, _ := middleware.CallerID(c)
		taskID, ok := parseTaskID(c)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid task id"})
		}

		stats.RecordCommand("start_task")
		progress, err := tasks.Start(userID, taskID)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"progress": progress})
	})

	securedGroup.Post("/user/tasks/:id/complete", func(c *fiber.Ctx) error {
		userID, _ := middleware.CallerID(c)
		taskID, ok := parseTaskID(c)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid task id"})
		}

		stats.RecordCommand("complete_task")
		points, xp, err := tasks.Complete(userID, taskID)
		if err != nil {
			stats.RecordError("complete_task")
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{
			"message":       "task completed",
			"reward_points": points,
			"reward_xp":     xp,
		})
	})

	securedGroup.Post("/user/tasks/:id/claim", func(c *fiber.Ctx) error {
		userID, _ := middleware.CallerID(c)
		taskID, ok := parseTaskID(c)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid task id"})
		}

		stats.RecordCommand("claim_task")
		points, xp, err := tasks.ClaimReward(userID, taskID)
		if err != nil {
			stats.RecordError("claim_task")
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{
			"message":       "reward claimed",
			"points_earned": points,
			"xp_earned":     xp,
		})
	})
}

func parseTaskID(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	return uint(id), err == nil
}
