package models

import "time"

// TaskFrequency controls when a completed task becomes completable again.
type TaskFrequency string

const (
	TaskFrequencyDaily   TaskFrequency = "daily"
	TaskFrequencyWeekly  TaskFrequency = "weekly"
	TaskFrequencyMonthly TaskFrequency = "monthly"
	TaskFrequencyOneTime TaskFrequency = "one_time"
)

// IsValid reports whether the frequency is one of the supported values.
func (f TaskFrequency) IsValid() bool {
	switch f {
	case TaskFrequencyDaily, TaskFrequencyWeekly, TaskFrequencyMonthly, TaskFrequencyOneTime:
		return true
	default:
		return false
	}
}

// Task is a recurring or one-time objective that grants points and XP.
// Soft-deactivated via IsActive, never hard-deleted.
type Task struct {
	TaskID      uint   `gorm:"primaryKey" json:"task_id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`

	RewardPoints int64 `gorm:"default:10" json:"reward_points"`
	RewardXP     int64 `gorm:"default:20" json:"reward_xp"`

	Frequency TaskFrequency `gorm:"not null;default:'daily'" json:"frequency"`
	IsActive  bool          `gorm:"default:true" json:"is_active"`

	Timestamps
}

// UserTaskProgress tracks one user's completion state for one task.
// Created lazily on the first start or completion attempt.
type UserTaskProgress struct {
	ProgressID uint  `gorm:"primaryKey" json:"progress_id"`
	UserID     int64 `gorm:"index:idx_user_task,unique;not null" json:"user_id"`
	TaskID     uint  `gorm:"index:idx_user_task,unique;not null" json:"task_id"`

	IsCompleted    bool       `gorm:"default:false" json:"is_completed"`
	CompletionDate *time.Time `json:"completion_date,omitempty"`
	LastReset      time.Time  `gorm:"autoCreateTime" json:"last_reset"`
	Attempts       int        `gorm:"default:0" json:"attempts"`
}

// CanClaimReward reports whether the task reward is claimable right now.
func (p *UserTaskProgress) CanClaimReward() bool {
	return p.IsCompleted && p.CompletionDate != nil
}
