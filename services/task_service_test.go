package services

import (
	"errors"
	"testing"
	"time"

	"referral-points-system/models"
)

func (ts *testStack) mustCreateTask(t *testing.T, name string, freq models.TaskFrequency) *models.Task {
	t.Helper()
	task, err := ts.tasks.CreateTask(CreateTaskInput{
		Name:         name,
		Description:  "test task",
		RewardPoints: 10,
		RewardXP:     20,
		Frequency:    freq,
	})
	if err != nil {
		t.Fatalf("create task %q: %v", name, err)
	}
	return task
}

func TestCreateTaskValidation(t *testing.T) {
	ts := newTestStack(t)

	if _, err := ts.tasks.CreateTask(CreateTaskInput{Name: "n", Description: "d", Frequency: "hourly"}); err == nil {
		t.Error("expected error for invalid frequency")
	}
	if _, err := ts.tasks.CreateTask(CreateTaskInput{Name: "", Description: "d", Frequency: models.TaskFrequencyDaily}); err == nil {
		t.Error("expected error for empty name")
	}
	if _, err := ts.tasks.CreateTask(CreateTaskInput{Name: "n", Description: "d", RewardPoints: -1, Frequency: models.TaskFrequencyDaily}); err == nil {
		t.Error("expected error for negative reward")
	}
}

func TestOneTimeTaskCompletesOnce(t *testing.T) {
	ts := newTestStack(t)
	ts.mustRegister(t, 1, "alice", "")
	task := ts.mustCreateTask(t, "Join the channel", models.TaskFrequencyOneTime)

	points, xp, err := ts.tasks.Complete(1, task.TaskID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if points != 10 || xp != 20 {
		t.Errorf("rewards = %d/%d, want 10/20", points, xp)
	}
	if len(ts.notifier.byType(EventTaskCompleted)) != 1 {
		t.Errorf("expected one task-completed event, got %d", len(ts.notifier.byType(EventTaskCompleted)))
	}

	var invalid *InvalidOperationError
	if _, _, err := ts.tasks.Complete(1, task.TaskID); !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidOperationError on second completion, got %v", err)
	}
}

func TestClaimRequiresCompletion(t *testing.T) {
	ts := newTestStack(t)
	ts.mustRegister(t, 1, "alice", "")
	task := ts.mustCreateTask(t, "Daily check-in", models.TaskFrequencyDaily)

	var invalid *InvalidOperationError
	if _, _, err := ts.tasks.ClaimReward(1, task.TaskID); !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidOperationError before completion, got %v", err)
	}

	if _, err := ts.tasks.Start(1, task.TaskID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, _, err := ts.tasks.ClaimReward(1, task.TaskID); !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidOperationError after start without completion, got %v", err)
	}
}

func TestClaimPaysOutPointsAndXP(t *testing.T) {
	ts := newTestStack(t)
	ts.mustRegister(t, 1, "alice", "")
	task := ts.mustCreateTask(t, "Daily check-in", models.TaskFrequencyDaily)

	if _, _, err := ts.tasks.Complete(1, task.TaskID); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	points, xp, err := ts.tasks.ClaimReward(1, task.TaskID)
	if err != nil {
		t.Fatalf("ClaimReward: %v", err)
	}
	if points != 10 || xp != 20 {
		t.Errorf("payout = %d/%d, want 10/20", points, xp)
	}

	user, _ := ts.ledger.Get(1)
	if user.Points != 10 || user.Experience != 20 {
		t.Errorf("user state = %d points / %d xp, want 10/20", user.Points, user.Experience)
	}
}

func TestClaimCannotBeRepeatedSamePeriod(t *testing.T) {
	ts := newTestStack(t)
	ts.mustRegister(t, 1, "alice", "")
	task := ts.mustCreateTask(t, "Daily check-in", models.TaskFrequencyDaily)

	if _, _, err := ts.tasks.Complete(1, task.TaskID); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if _, _, err := ts.tasks.ClaimReward(1, task.TaskID); err != nil {
		t.Fatalf("ClaimReward: %v", err)
	}

	// After claiming, the task is neither claimable nor completable
	// until the next period.
	var invalid *InvalidOperationError
	if _, _, err := ts.tasks.ClaimReward(1, task.TaskID); !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidOperationError on double claim, got %v", err)
	}
	if _, _, err := ts.tasks.Complete(1, task.TaskID); !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidOperationError on same-period re-completion, got %v", err)
	}

	user, _ := ts.ledger.Get(1)
	if user.Points != 10 {
		t.Errorf("points = %d after double claim attempt, want 10", user.Points)
	}
}

func TestDailyTaskResetsNextDay(t *testing.T) {
	ts := newTestStack(t)
	ts.mustRegister(t, 1, "alice", "")
	task := ts.mustCreateTask(t, "Daily check-in", models.TaskFrequencyDaily)

	day1 := time.Date(2025, 3, 10, 23, 50, 0, 0, time.UTC)
	ts.tasks.now = func() time.Time { return day1 }

	if _, _, err := ts.tasks.Complete(1, task.TaskID); err != nil {
		t.Fatalf("day 1 complete: %v", err)
	}
	if _, _, err := ts.tasks.ClaimReward(1, task.TaskID); err != nil {
		t.Fatalf("day 1 claim: %v", err)
	}

	// Ten minutes later, but a new calendar date.
	ts.tasks.now = func() time.Time { return day1.Add(10 * time.Minute) }

	if _, _, err := ts.tasks.Complete(1, task.TaskID); err != nil {
		t.Fatalf("day 2 complete: %v", err)
	}
	if _, _, err := ts.tasks.ClaimReward(1, task.TaskID); err != nil {
		t.Fatalf("day 2 claim: %v", err)
	}

	user, _ := ts.ledger.Get(1)
	if user.Points != 20 {
		t.Errorf("points = %d after two daily cycles, want 20", user.Points)
	}
}

func TestCompleteGatesOnCompletionPeriodNotStartPeriod(t *testing.T) {
	ts := newTestStack(t)
	ts.mustRegister(t, 1, "alice", "")
	task := ts.mustCreateTask(t, "Daily check-in", models.TaskFrequencyDaily)

	// The progress record is created by Start in an earlier period.
	day1 := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	ts.tasks.now = func() time.Time { return day1 }
	if _, err := ts.tasks.Start(1, task.TaskID); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Two days later the first completion succeeds; a second one the
	// same day must be rejected even though Start's period is stale.
	day3 := day1.AddDate(0, 0, 2)
	ts.tasks.now = func() time.Time { return day3 }
	if _, _, err := ts.tasks.Complete(1, task.TaskID); err != nil {
		t.Fatalf("first complete: %v", err)
	}

	var invalid *InvalidOperationError
	if _, _, err := ts.tasks.Complete(1, task.TaskID); !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidOperationError on same-period re-completion, got %v", err)
	}

	progress, err := ts.tasks.Progress(1, task.TaskID)
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if !progress.LastReset.Equal(day3) {
		t.Errorf("last reset = %v, want completion time %v", progress.LastReset, day3)
	}
}

func TestWeeklyTaskNeedsSevenFullDays(t *testing.T) {
	ts := newTestStack(t)
	ts.mustRegister(t, 1, "alice", "")
	task := ts.mustCreateTask(t, "Weekly digest", models.TaskFrequencyWeekly)

	start := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	ts.tasks.now = func() time.Time { return start }

	if _, _, err := ts.tasks.Complete(1, task.TaskID); err != nil {
		t.Fatalf("week 1 complete: %v", err)
	}
	if _, _, err := ts.tasks.ClaimReward(1, task.TaskID); err != nil {
		t.Fatalf("week 1 claim: %v", err)
	}

	// Six days later: still locked.
	ts.tasks.now = func() time.Time { return start.Add(6 * 24 * time.Hour) }
	var invalid *InvalidOperationError
	if _, _, err := ts.tasks.Complete(1, task.TaskID); !errors.As(err, &invalid) {
		t.Fatalf("expected lock at six days, got %v", err)
	}

	// Seven days later: open again.
	ts.tasks.now = func() time.Time { return start.Add(7 * 24 * time.Hour) }
	if _, _, err := ts.tasks.Complete(1, task.TaskID); err != nil {
		t.Fatalf("week 2 complete: %v", err)
	}
}

func TestMonthlyTaskResetsOnNewMonth(t *testing.T) {
	ts := newTestStack(t)
	ts.mustRegister(t, 1, "alice", "")
	task := ts.mustCreateTask(t, "Monthly survey", models.TaskFrequencyMonthly)

	jan31 := time.Date(2025, 1, 31, 12, 0, 0, 0, time.UTC)
	ts.tasks.now = func() time.Time { return jan31 }

	if _, _, err := ts.tasks.Complete(1, task.TaskID); err != nil {
		t.Fatalf("january complete: %v", err)
	}
	if _, _, err := ts.tasks.ClaimReward(1, task.TaskID); err != nil {
		t.Fatalf("january claim: %v", err)
	}

	// One day later, but a new calendar month.
	ts.tasks.now = func() time.Time { return jan31.AddDate(0, 0, 1) }
	if _, _, err := ts.tasks.Complete(1, task.TaskID); err != nil {
		t.Fatalf("february complete: %v", err)
	}
}

func TestAvailableForUserFiltering(t *testing.T) {
	ts := newTestStack(t)
	ts.mustRegister(t, 1, "alice", "")
	daily := ts.mustCreateTask(t, "Daily check-in", models.TaskFrequencyDaily)
	once := ts.mustCreateTask(t, "Join the channel", models.TaskFrequencyOneTime)

	available, err := ts.tasks.AvailableForUser(1)
	if err != nil {
		t.Fatalf("AvailableForUser: %v", err)
	}
	if len(available) != 2 {
		t.Fatalf("got %d tasks, want 2", len(available))
	}

	if _, _, err := ts.tasks.Complete(1, once.TaskID); err != nil {
		t.Fatalf("complete one-time: %v", err)
	}
	if _, _, err := ts.tasks.Complete(1, daily.TaskID); err != nil {
		t.Fatalf("complete daily: %v", err)
	}

	available, err = ts.tasks.AvailableForUser(1)
	if err != nil {
		t.Fatalf("AvailableForUser: %v", err)
	}
	if len(available) != 0 {
		t.Fatalf("got %d tasks after completing both, want 0", len(available))
	}
}

func TestStartCountsAttempts(t *testing.T) {
	ts := newTestStack(t)
	ts.mustRegister(t, 1, "alice", "")
	task := ts.mustCreateTask(t, "Daily check-in", models.TaskFrequencyDaily)

	for i := 0; i < 3; i++ {
		if _, err := ts.tasks.Start(1, task.TaskID); err != nil {
			t.Fatalf("start %d: %v", i, err)
		}
	}
	progress, err := ts.tasks.Progress(1, task.TaskID)
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if progress.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", progress.Attempts)
	}
}

func TestDeactivatedTaskCannotBeWorked(t *testing.T) {
	ts := newTestStack(t)
	ts.mustRegister(t, 1, "alice", "")
	task := ts.mustCreateTask(t, "Retired task", models.TaskFrequencyDaily)

	if err := ts.tasks.Deactivate(task.TaskID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	var invalid *InvalidOperationError
	if _, err := ts.tasks.Start(1, task.TaskID); !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidOperationError on start, got %v", err)
	}
	if _, _, err := ts.tasks.Complete(1, task.TaskID); !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidOperationError on complete, got %v", err)
	}
}
