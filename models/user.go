package models

import (
	"time"

	"gorm.io/gorm"
)

// User is the authoritative ledger record for one bot user: identity,
// spendable points, XP/level/rank and referral linkage.
// Keyed by the external chat identity, which is immutable.
type User struct {
	UserID      int64   `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Username    *string `gorm:"index" json:"username,omitempty"`
	DisplayName string  `json:"display_name"`

	// Spendable balance. Never negative; every decrement is guarded.
	Points int64 `gorm:"default:0" json:"points"`

	// Experience is monotonically non-decreasing outside of an explicit
	// administrative reset.
	Experience int64 `gorm:"default:0" json:"experience"`

	// Level is cached on the record but must always equal the level
	// derived from Experience after any XP mutation.
	Level int    `gorm:"default:1" json:"level"`
	Rank  string `gorm:"default:'Hatchling'" json:"rank"`

	// ReferralCode is generated at creation, globally unique, immutable.
	ReferralCode string `gorm:"uniqueIndex;not null" json:"referral_code"`

	// ReferredBy is set at most once, during creation. Indexed so referral
	// counts can be computed instead of stored.
	ReferredBy *int64 `gorm:"index" json:"referred_by,omitempty"`

	IsBanned bool       `gorm:"default:false" json:"is_banned"`
	JoinDate *time.Time `json:"join_date,omitempty"`

	Timestamps
}

// DisplayLabel returns the best human label available for the user.
func (u *User) DisplayLabel() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.Username != nil && *u.Username != "" {
		return "@" + *u.Username
	}
	return ""
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
