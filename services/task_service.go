package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"referral-points-system/models"
	"referral-points-system/utils"
)

// TaskService owns recurring and one-time objectives and per-user progress.
// Completion is gated by the task's period: a recurring task completed in
// the current period stays locked until the period rolls over.
type TaskService struct {
	DB       *gorm.DB
	Leveling *Leveling
	Stats    *StatsService
	Notifier Notifier

	// now is swappable so period-boundary tests can control the clock.
	now func() time.Time
}

func NewTaskService(db *gorm.DB, leveling *Leveling, stats *StatsService, notifier Notifier) *TaskService {
	return &TaskService{
		DB:       db,
		Leveling: leveling,
		Stats:    stats,
		Notifier: notifier,
		now:      time.Now,
	}
}

// CreateTaskInput is the admin-facing shape for new objectives.
type CreateTaskInput struct {
	Name         string
	Description  string
	RewardPoints int64
	RewardXP     int64
	Frequency    models.TaskFrequency
}

// CreateTask adds an objective to the catalog.
func (s *TaskService) CreateTask(in CreateTaskInput) (*models.Task, error) {
	if in.Name == "" || in.Description == "" {
		return nil, invalidOp("task name and description are required")
	}
	if in.RewardPoints < 0 || in.RewardXP < 0 {
		return nil, invalidOp("task rewards must not be negative")
	}
	if !in.Frequency.IsValid() {
		return nil, invalidOp("invalid task frequency %q", in.Frequency)
	}

	task := &models.Task{
		Name:         in.Name,
		Description:  in.Description,
		RewardPoints: in.RewardPoints,
		RewardXP:     in.RewardXP,
		Frequency:    in.Frequency,
		IsActive:     true,
	}
	if err := s.DB.Create(task).Error; err != nil {
		return nil, storageErr("create task", err)
	}

	utils.Sugar.Infow("task created", "task_id", task.TaskID, "name", task.Name, "frequency", task.Frequency)
	return task, nil
}

// GetTask returns the task or ErrTaskNotFound.
func (s *TaskService) GetTask(taskID uint) (*models.Task, error) {
	var task models.Task
	err := s.DB.Where("task_id = ?", taskID).First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, storageErr("get task", err)
	}
	return &task, nil
}

// ListActive returns all active objectives.
func (s *TaskService) ListActive() ([]models.Task, error) {
	var tasks []models.Task
	if err := s.DB.Where("is_active = ?", true).Find(&tasks).Error; err != nil {
		return nil, storageErr("list tasks", err)
	}
	return tasks, nil
}

// AvailableForUser returns active tasks the user can currently work on:
// never completed, or past the period rollover.
func (s *TaskService) AvailableForUser(userID int64) ([]models.Task, error) {
	tasks, err := s.ListActive()
	if err != nil {
		return nil, err
	}

	available := make([]models.Task, 0, len(tasks))
	for _, task := range tasks {
		progress, err := s.getProgress(s.DB, userID, task.TaskID)
		if err != nil {
			return nil, err
		}
		if progress == nil {
			available = append(available, task)
			continue
		}
		if task.Frequency == models.TaskFrequencyOneTime {
			if !progress.IsCompleted {
				available = append(available, task)
			}
			continue
		}
		// Recurring: open if this period has seen no completion yet, or
		// if the period has rolled over since the last one.
		if (!progress.IsCompleted && progress.CompletionDate == nil) || s.shouldReset(progress, task.Frequency) {
			available = append(available, task)
		}
	}
	return available, nil
}

// Deactivate soft-disables a task, keeping attempt history attributable.
func (s *TaskService) Deactivate(taskID uint) error {
	res := s.DB.Model(&models.Task{}).Where("task_id = ?", taskID).Update("is_active", false)
	if res.Error != nil {
		return storageErr("deactivate task", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	utils.Sugar.Infow("task deactivated", "task_id", taskID)
	return nil
}

// Start registers an attempt. Idempotent: the progress record is created
// lazily on the first call and the attempt counter grows on every call.
func (s *TaskService) Start(userID int64, taskID uint) (*models.UserTaskProgress, error) {
	task, err := s.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	if !task.IsActive {
		return nil, invalidOp("task %q is currently disabled", task.Name)
	}

	progress, err := s.getOrCreateProgress(s.DB, userID, taskID)
	if err != nil {
		return nil, err
	}

	progress.Attempts++
	if err := s.DB.Save(progress).Error; err != nil {
		return nil, storageErr("save task progress", err)
	}
	return progress, nil
}

// Complete marks the task done for the current period and returns the
// points and XP it will pay out via ClaimReward. A one-time task completed
// once can never be completed again; a recurring task completed in the
// current period is rejected until rollover.
func (s *TaskService) Complete(userID int64, taskID uint) (points int64, xp int64, err error) {
	task, err := s.GetTask(taskID)
	if err != nil {
		return 0, 0, err
	}
	if !task.IsActive {
		return 0, 0, invalidOp("task %q is currently disabled", task.Name)
	}

	progress, err := s.getOrCreateProgress(s.DB, userID, taskID)
	if err != nil {
		return 0, 0, err
	}

	if progress.IsCompleted {
		if task.Frequency == models.TaskFrequencyOneTime {
			return 0, 0, invalidOp("task %q was already completed", task.Name)
		}
		if !s.shouldReset(progress, task.Frequency) {
			return 0, 0, invalidOp("task %q was already completed this period", task.Name)
		}
		// Period rolled over: the previous completion no longer counts.
		progress.IsCompleted = false
	} else if task.Frequency != models.TaskFrequencyOneTime &&
		progress.CompletionDate != nil && !s.shouldReset(progress, task.Frequency) {
		// Completed and already claimed within the current period; the
		// claim reset cleared IsCompleted but the period has not rolled.
		return 0, 0, invalidOp("task %q was already completed this period", task.Name)
	}

	// LastReset anchors the period gate at the completion itself. A
	// progress record created by Start in an earlier period must not
	// leave the gate pointing at that stale period.
	now := s.now()
	progress.IsCompleted = true
	progress.CompletionDate = &now
	progress.LastReset = now
	if err := s.DB.Save(progress).Error; err != nil {
		return 0, 0, storageErr("save task progress", err)
	}

	utils.Sugar.Infow("task completed", "user_id", userID, "task_id", taskID)
	s.Stats.RecordTaskCompleted()
	s.Notifier.Notify(Event{
		Type:    EventTaskCompleted,
		UserID:  userID,
		Message: "task completed: " + task.Name,
		Data:    map[string]any{"task_id": taskID},
	})

	return task.RewardPoints, task.RewardXP, nil
}

// ClaimReward pays out a completed task: points and XP to the user (XP
// routed through the leveling engine for level-up detection), then a
// progress reset for recurring tasks so the next period can start fresh.
// One-time tasks stay completed forever.
func (s *TaskService) ClaimReward(userID int64, taskID uint) (points int64, xp int64, err error) {
	task, err := s.GetTask(taskID)
	if err != nil {
		return 0, 0, err
	}

	var leveledUp bool
	txErr := s.DB.Transaction(func(tx *gorm.DB) error {
		progress, err := s.getProgress(tx, userID, taskID)
		if err != nil {
			return err
		}
		if progress == nil || !progress.CanClaimReward() {
			return invalidOp("task %q must be completed before claiming its reward", task.Name)
		}

		var user models.User
		err = tx.Where("user_id = ?", userID).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return storageErr("get user", err)
		}

		user.Points += task.RewardPoints
		leveledUp, err = s.Leveling.Apply(&user, task.RewardXP)
		if err != nil {
			return err
		}
		if err := tx.Save(&user).Error; err != nil {
			return storageErr("save user", err)
		}

		// Recurring tasks reopen for the next period; the completion date
		// is kept as the record of the last payout. One-time tasks stay
		// completed forever.
		if task.Frequency != models.TaskFrequencyOneTime {
			progress.IsCompleted = false
			progress.LastReset = s.now()
		}
		if err := tx.Save(progress).Error; err != nil {
			return storageErr("save task progress", err)
		}
		return nil
	})
	if txErr != nil {
		return 0, 0, txErr
	}

	utils.Sugar.Infow("task reward claimed",
		"user_id", userID,
		"task_id", taskID,
		"points", task.RewardPoints,
		"xp", task.RewardXP,
		"leveled_up", leveledUp,
	)

	if leveledUp {
		s.Stats.RecordLevelUp()
		s.Notifier.Notify(Event{
			Type:    EventLevelUp,
			UserID:  userID,
			Message: "level up from task: " + task.Name,
		})
	}

	return task.RewardPoints, task.RewardXP, nil
}

// Progress returns the user's progress record for a task, if any.
func (s *TaskService) Progress(userID int64, taskID uint) (*models.UserTaskProgress, error) {
	return s.getProgress(s.DB, userID, taskID)
}

func (s *TaskService) getProgress(tx *gorm.DB, userID int64, taskID uint) (*models.UserTaskProgress, error) {
	var progress models.UserTaskProgress
	err := tx.Where("user_id = ? AND task_id = ?", userID, taskID).First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get task progress", err)
	}
	return &progress, nil
}

func (s *TaskService) getOrCreateProgress(tx *gorm.DB, userID int64, taskID uint) (*models.UserTaskProgress, error) {
	progress, err := s.getProgress(tx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if progress != nil {
		return progress, nil
	}

	progress = &models.UserTaskProgress{
		UserID:    userID,
		TaskID:    taskID,
		LastReset: s.now(),
	}
	if err := tx.Create(progress).Error; err != nil {
		return nil, storageErr("create task progress", err)
	}
	return progress, nil
}

// shouldReset applies the period-boundary rules: daily resets on a new
// calendar date, weekly after seven full days, monthly on a new calendar
// month.
func (s *TaskService) shouldReset(progress *models.UserTaskProgress, frequency models.TaskFrequency) bool {
	now := s.now()
	last := progress.LastReset

	switch frequency {
	case models.TaskFrequencyDaily:
		ny, nm, nd := now.Date()
		ly, lm, ld := last.Date()
		return ny != ly || nm != lm || nd != ld
	case models.TaskFrequencyWeekly:
		return now.Sub(last) >= 7*24*time.Hour
	case models.TaskFrequencyMonthly:
		return now.Year() != last.Year() || now.Month() != last.Month()
	default:
		return false
	}
}
