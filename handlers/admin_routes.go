package handlers

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"referral-points-system/middleware"
	"referral-points-system/models"
	"referral-points-system/services"
	"referral-points-system/utils"
)

// requireAdmin gates the admin surface. The admin flag is resolved by
// UserContextMiddleware from configuration, never from request input.
func requireAdmin(c *fiber.Ctx) error {
	if !middleware.CallerIsAdmin(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "admin access required",
		})
	}
	return c.Next()
}

func SetupAdminRoutes(
	app *fiber.App,
	admin *services.AdminService,
	rewards *services.RewardService,
	tasks *services.TaskService,
	ledger *services.LedgerService,
	stats *services.StatsService,
	notifier *services.AdminNotifier,
) {
	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware(), requireAdmin)

	// --- user moderation ---

	adminGroup.Post("/users/:id/ban", func(c *fiber.Ctx) error {
		return setBanned(c, admin, true)
	})

	adminGroup.Post("/users/:id/unban", func(c *fiber.Ctx) error {
		return setBanned(c, admin, false)
	})

	adminGroup.Get("/users", func(c *fiber.Ctx) error {
		users, err := ledger.ListAll()
		if err != nil {
			return serviceError(c, err)
		}
		total, banned, err := ledger.CountUsers()
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{
			"total":  total,
			"banned": banned,
			"users":  users,
		})
	})

	// --- points and XP ---

	adminGroup.Post("/points/grant", func(c *fiber.Ctx) error {
		type Req struct {
			UserID int64  `json:"user_id"`
			Amount int64  `json:"amount"`
			Reason string `json:"reason"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		user, err := admin.GrantPoints(req.UserID, req.Amount, req.Reason)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{
			"message": "points granted",
			"user":    user,
		})
	})

	adminGroup.Post("/xp/grant", func(c *fiber.Ctx) error {
		type Req struct {
			UserID int64  `json:"user_id"`
			Amount int64  `json:"amount"`
			Reason string `json:"reason"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		user, err := admin.GrantXP(req.UserID, req.Amount, req.Reason)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{
			"message": "XP granted",
			"user":    user,
		})
	})

	adminGroup.Post("/xp/reset", func(c *fiber.Ctx) error {
		type Req struct {
			UserID int64  `json:"user_id"`
			Reason string `json:"reason"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		user, err := admin.ResetXP(req.UserID, req.Reason)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{
			"message": "XP reset",
			"user":    user,
		})
	})

	adminGroup.Post("/referral/points", func(c *fiber.Ctx) error {
		type Req struct {
			Points int64 `json:"points"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		if err := admin.SetReferralPoints(req.Points); err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{
			"message": "referral reward updated",
			"points":  req.Points,
		})
	})

	// --- reward catalog ---

	adminGroup.Post("/rewards", func(c *fiber.Ctx) error {
		type Req struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			Cost        int64  `json:"cost"`
			Type        string `json:"type"`
			MaxClaims   *int64 `json:"max_claims"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		reward, err := rewards.CreateReward(services.CreateRewardInput{
			Name:        req.Name,
			Description: req.Description,
			Cost:        req.Cost,
			Type:        models.RewardType(req.Type),
			MaxClaims:   req.MaxClaims,
		})
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(reward)
	})

	adminGroup.Post("/rewards/:id/deactivate", func(c *fiber.Ctx) error {
		rewardID, err := strconv.ParseUint(c.Params("id"), 10, 32)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid reward id"})
		}
		if err := rewards.Deactivate(uint(rewardID)); err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"message": "reward deactivated"})
	})

	adminGroup.Post("/rewards/:id/icon", func(c *fiber.Ctx) error {
		rewardID, err := strconv.ParseUint(c.Params("id"), 10, 32)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid reward id"})
		}

		fileHeader, err := c.FormFile("icon")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "icon file is required",
				"cause": err.Error(),
			})
		}

		key := fmt.Sprintf("reward-icons/%d-%s", rewardID, uuid.New().String())
		iconURL, err := utils.UploadFileToR2(fileHeader, key)
		if err != nil {
			utils.Sugar.Errorw("icon upload failed", "reward_id", rewardID, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "icon upload failed",
				"cause": err.Error(),
			})
		}

		if err := rewards.SetIconURL(uint(rewardID), iconURL); err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"icon_url": iconURL})
	})

	// --- task catalog ---

	adminGroup.Post("/tasks", func(c *fiber.Ctx) error {
		type Req struct {
			Name         string `json:"name"`
			Description  string `json:"description"`
			RewardPoints int64  `json:"reward_points"`
			RewardXP     int64  `json:"reward_xp"`
			Frequency    string `json:"frequency"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		task, err := tasks.CreateTask(services.CreateTaskInput{
			Name:         req.Name,
			Description:  req.Description,
			RewardPoints: req.RewardPoints,
			RewardXP:     req.RewardXP,
			Frequency:    models.TaskFrequency(req.Frequency),
		})
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(task)
	})

	adminGroup.Post("/tasks/:id/deactivate", func(c *fiber.Ctx) error {
		taskID, ok := parseTaskID(c)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid task id"})
		}
		if err := tasks.Deactivate(taskID); err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"message": "task deactivated"})
	})

	// --- reporting ---

	adminGroup.Get("/stats/daily", func(c *fiber.Ctx) error {
		summary, err := stats.DailySummary()
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(summary)
	})

	adminGroup.Get("/stats/weekly", func(c *fiber.Ctx) error {
		summary, err := stats.WeeklySummary()
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(summary)
	})

	adminGroup.Get("/stats/monthly", func(c *fiber.Ctx) error {
		summary, err := stats.MonthlySummary()
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(summary)
	})

	adminGroup.Get("/stats/catalog", func(c *fiber.Ctx) error {
		total, active, totalClaims, err := rewards.CatalogStats()
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{
			"total_rewards":  total,
			"active_rewards": active,
			"total_claims":   totalClaims,
		})
	})

	// --- notification preferences ---

	adminGroup.Get("/notifications/preferences", func(c *fiber.Ctx) error {
		adminID, _ := middleware.CallerID(c)
		return c.JSON(fiber.Map{
			"event_types": notifier.Preferences(adminID),
		})
	})

	adminGroup.Post("/notifications/preferences", func(c *fiber.Ctx) error {
		adminID, _ := middleware.CallerID(c)

		type Req struct {
			EventTypes []string `json:"event_types"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		types := make([]services.EventType, 0, len(req.EventTypes))
		for _, t := range req.EventTypes {
			types = append(types, services.EventType(t))
		}
		notifier.SetPreferences(adminID, types)
		return c.JSON(fiber.Map{
			"message":     "preferences updated",
			"event_types": req.EventTypes,
		})
	})
}

func setBanned(c *fiber.Ctx, admin *services.AdminService, banned bool) error {
	userID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid user id"})
	}
	user, err := admin.SetBanned(userID, banned)
	if err != nil {
		return serviceError(c, err)
	}
	verb := "unbanned"
	if banned {
		verb = "banned"
	}
	return c.JSON(fiber.Map{
		"message": "user " + verb,
		"user":    user,
	})
}
