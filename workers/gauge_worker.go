package workers

import (
	"context"
	"time"

	"gorm.io/gorm"

	"referral-points-system/models"
	"referral-points-system/utils"
)

// GaugeWorker periodically samples ledger-level gauges (total users,
// banned users, catalog size) and logs them for operational visibility.
// The gauges are derived data; a failed sample is skipped, not retried.
type GaugeWorker struct {
	DB       *gorm.DB
	Interval time.Duration
}

func NewGaugeWorker(db *gorm.DB, interval time.Duration) *GaugeWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &GaugeWorker{DB: db, Interval: interval}
}

// Run blocks until the context is cancelled, sampling once per interval.
func (w *GaugeWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	w.sample()
	for {
		select {
		case <-ctx.Done():
			utils.Sugar.Info("gauge worker stopped")
			return
		case <-ticker.C:
			w.sample()
		}
	}
}

func (w *GaugeWorker) sample() {
	var totalUsers, bannedUsers, activeRewards, activeTasks int64

	if err := w.DB.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		utils.Sugar.Warnw("gauge sample failed", "gauge", "total_users", "error", err)
		return
	}
	if err := w.DB.Model(&models.User{}).Where("is_banned = ?", true).Count(&bannedUsers).Error; err != nil {
		utils.Sugar.Warnw("gauge sample failed", "gauge", "banned_users", "error", err)
		return
	}
	if err := w.DB.Model(&models.Reward{}).Where("is_active = ?", true).Count(&activeRewards).Error; err != nil {
		utils.Sugar.Warnw("gauge sample failed", "gauge", "active_rewards", "error", err)
		return
	}
	if err := w.DB.Model(&models.Task{}).Where("is_active = ?", true).Count(&activeTasks).Error; err != nil {
		utils.Sugar.Warnw("gauge sample failed", "gauge", "active_tasks", "error", err)
		return
	}

	utils.Sugar.Infow("ledger gauges",
		"total_users", totalUsers,
		"banned_users", bannedUsers,
		"active_rewards", activeRewards,
		"active_tasks", activeTasks,
	)
}
