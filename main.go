package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"referral-points-system/config"
	"referral-points-system/handlers"
	"referral-points-system/middleware"
	"referral-points-system/models"
	"referral-points-system/services"
	"referral-points-system/utils"
	"referral-points-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading environment variables directly")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration: ", err)
	}

	if err := utils.InitLogger(cfg); err != nil {
		log.Fatal("failed to initialize logger: ", err)
	}
	defer utils.Logger.Sync() //nolint:errcheck

	if err := utils.InitR2(cfg); err != nil {
		utils.Sugar.Warnw("R2 client not initialized, icon uploads disabled", "error", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		utils.Sugar.Fatalw("failed to connect to database", "error", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Referral{},
		&models.Reward{},
		&models.RewardClaim{},
		&models.Task{},
		&models.UserTaskProgress{},
	); err != nil {
		utils.Sugar.Fatalw("failed to migrate database", "error", err)
	}

	// Redis is optional: with no client the stats layer degrades to no-ops.
	rdb := utils.GetRedis()
	statsService := services.NewStatsService(rdb)

	notifier := services.NewAdminNotifier(cfg.AdminIDs)
	leveling := services.NewLeveling(cfg.XPPerLevel, cfg.MaxLevel, nil)
	ledgerService := services.NewLedgerService(db)
	referralService := services.NewReferralService(
		db, ledgerService, leveling, notifier, statsService,
		cfg.PointsPerReferral, cfg.XPPerReferral, cfg.StartPoints,
	)
	rewardService := services.NewRewardService(db, statsService, notifier)
	taskService := services.NewTaskService(db, leveling, statsService, notifier)
	adminService := services.NewAdminService(ledgerService, leveling, referralService, notifier, statsService)

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // icon uploads only
	})

	// Only gateway requests allowed — no exceptions.
	app.Use(middleware.GatewayAuthMiddleware())
	app.Use(cors.New(cors.Config{
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-User-ID, X-Request-ID",
	}))

	handlers.SetupUserRoutes(app, referralService, ledgerService, leveling, statsService)
	handlers.SetupRewardRoutes(app, rewardService, ledgerService, statsService)
	handlers.SetupTaskRoutes(app, taskService, statsService)
	handlers.SetupAdminRoutes(app, adminService, rewardService, taskService, ledgerService, statsService, notifier)

	scheduler, err := services.StartSummaryScheduler(statsService, notifier)
	if err != nil {
		utils.Sugar.Fatalw("failed to start summary scheduler", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gaugeWorker := workers.NewGaugeWorker(db, 5*time.Minute)
	go gaugeWorker.Run(ctx)

	go func() {
		if err := app.Listen(":" + cfg.AppPort); err != nil {
			utils.Sugar.Errorw("server error", "error", err)
		}
	}()

	utils.Sugar.Infow("server running",
		"port", cfg.AppPort,
		"admins", len(cfg.AdminIDs),
		"points_per_referral", cfg.PointsPerReferral,
		"xp_per_level", cfg.XPPerLevel,
		"max_level", cfg.MaxLevel,
	)

	<-ctx.Done()
	utils.Sugar.Info("shutting down server...")

	if err := scheduler.Shutdown(); err != nil {
		utils.Sugar.Warnw("scheduler shutdown", "error", err)
	}
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		utils.Sugar.Warnw("server shutdown", "error", err)
	}
}
