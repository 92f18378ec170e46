package models

import "time"

// RewardType indicates what a claimed reward grants
type RewardType string

const (
	RewardTypeCommand RewardType = "command"
	RewardTypeRole    RewardType = "role"
	RewardTypeBadge   RewardType = "badge"
	RewardTypeFeature RewardType = "feature"
	RewardTypeCustom  RewardType = "custom"
)

// Reward is a catalog entry users can exchange points for.
// Catalog entries are soft-deactivated (IsActive=false), never hard-deleted,
// so past claims stay attributable.
type Reward struct {
	RewardID    uint   `gorm:"primaryKey" json:"reward_id"`
	Name        string `gorm:"not null" json:"name"`
	Slug        string `gorm:"uniqueIndex;not null" json:"slug"`
	Description string `gorm:"type:text" json:"description"`
	IconURL     string `gorm:"type:text" json:"icon_url,omitempty"`

	Cost int64      `gorm:"not null" json:"cost"`
	Type RewardType `gorm:"not null;default:'custom'" json:"reward_type"`

	IsActive bool `gorm:"default:true" json:"is_active"`

	// MaxClaims nil means unlimited. ClaimCount never exceeds MaxClaims
	// when it is set; the guard lives in the claim transaction.
	MaxClaims  *int64 `json:"max_claims,omitempty"`
	ClaimCount int64  `gorm:"default:0" json:"claim_count"`

	Timestamps
}

// Available reports whether the reward can currently be claimed at all,
// independent of any particular user's balance.
func (r *Reward) Available() bool {
	if !r.IsActive {
		return false
	}
	if r.MaxClaims == nil {
		return true
	}
	return r.ClaimCount < *r.MaxClaims
}

// RemainingClaims returns how many claims are left, or nil for unlimited.
func (r *Reward) RemainingClaims() *int64 {
	if r.MaxClaims == nil {
		return nil
	}
	left := *r.MaxClaims - r.ClaimCount
	if left < 0 {
		left = 0
	}
	return &left
}

// RewardClaim records one successful exchange of points for a reward.
// Appended inside the claim transaction, so a claim row exists iff the
// points were actually deducted.
type RewardClaim struct {
	ClaimID     string    `gorm:"primaryKey;type:uuid" json:"claim_id"`
	UserID      int64     `gorm:"index;not null" json:"user_id"`
	RewardID    uint      `gorm:"index;not null" json:"reward_id"`
	PointsSpent int64     `gorm:"not null" json:"points_spent"`
	ClaimedAt   time.Time `gorm:"autoCreateTime" json:"claimed_at"`
}
