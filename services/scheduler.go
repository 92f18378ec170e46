// services/scheduler.go
package services

import (
	"time"

	"github.com/go-co-op/gocron/v2"

	"referral-points-system/utils"
)

// StartSummaryScheduler emits periodic stats summaries to the admin
// notification sink. Summaries are derived from accumulated counters;
// a failed emit is logged and skipped, never retried.
func StartSummaryScheduler(stats *StatsService, notifier Notifier) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	sched.Start()

	// Daily summary shortly after midnight.
	_, err = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 5, 0))),
		gocron.NewTask(func() {
			summary, err := stats.DailySummary()
			if err != nil {
				utils.Sugar.Warnw("daily summary failed", "error", err)
				return
			}
			notifier.Notify(Event{
				Type:    EventAdminAlert,
				Message: "daily activity summary",
				Data:    map[string]any{"summary": summary},
			})
		}),
	)
	if err != nil {
		return nil, err
	}

	// Weekly summary on Monday mornings.
	_, err = sched.NewJob(
		gocron.WeeklyJob(1,
			gocron.NewWeekdays(time.Monday),
			gocron.NewAtTimes(gocron.NewAtTime(0, 10, 0)),
		),
		gocron.NewTask(func() {
			summary, err := stats.WeeklySummary()
			if err != nil {
				utils.Sugar.Warnw("weekly summary failed", "error", err)
				return
			}
			notifier.Notify(Event{
				Type:    EventAdminAlert,
				Message: "weekly activity summary",
				Data:    map[string]any{"summary": summary},
			})
		}),
	)
	if err != nil {
		return nil, err
	}

	utils.Sugar.Info("summary scheduler started")
	return sched, nil
}
