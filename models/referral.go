package models

// Referral records one successful referral attribution: who recruited whom,
// the code used and what the referrer earned for it. The authoritative
// linkage is User.ReferredBy; these rows exist for history and admin views.
type Referral struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	ReferrerID   int64  `gorm:"index;not null" json:"referrer_id"`
	ReferredID   int64  `gorm:"uniqueIndex;not null" json:"referred_id"`
	CodeUsed     string `gorm:"not null" json:"code_used"`
	PointsEarned int64  `gorm:"default:0" json:"points_earned"`
	XPEarned     int64  `gorm:"default:0" json:"xp_earned"`

	Timestamps
}
