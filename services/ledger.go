package services

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"referral-points-system/models"
)

// LedgerService owns the authoritative per-user point/XP/ban/referral state.
// Callers follow a read-mutate-save discipline with at most one in-flight
// mutation per user; the gateway serializes updates per chat.
type LedgerService struct {
	DB *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{DB: db}
}

// Get returns the user or ErrUserNotFound.
func (s *LedgerService) Get(userID int64) (*models.User, error) {
	var user models.User
	err := s.DB.Where("user_id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, storageErr("get user", err)
	}
	return &user, nil
}

// GetByReferralCode resolves a referral code to its owner.
func (s *LedgerService) GetByReferralCode(code string) (*models.User, error) {
	var user models.User
	err := s.DB.Where("referral_code = ?", code).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, storageErr("get user by referral code", err)
	}
	return &user, nil
}

// FindByUsername looks a user up by handle, case-insensitively.
func (s *LedgerService) FindByUsername(username string) (*models.User, error) {
	var user models.User
	err := s.DB.Where("LOWER(username) = LOWER(?)", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, storageErr("find user by username", err)
	}
	return &user, nil
}

// Save upserts the full user record in one statement, so a concurrent
// reader never observes a partially written row.
func (s *LedgerService) Save(user *models.User) error {
	err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(user).Error
	if err != nil {
		return storageErr("save user", err)
	}
	return nil
}

// ListAll returns every user record.
func (s *LedgerService) ListAll() ([]models.User, error) {
	var users []models.User
	if err := s.DB.Find(&users).Error; err != nil {
		return nil, storageErr("list users", err)
	}
	return users, nil
}

// TopByPoints returns the n highest point balances.
func (s *LedgerService) TopByPoints(n int) ([]models.User, error) {
	var users []models.User
	err := s.DB.Order("points DESC").Limit(n).Find(&users).Error
	if err != nil {
		return nil, storageErr("top users by points", err)
	}
	return users, nil
}

// TopByLevel returns the n highest levels, experience as tiebreaker.
func (s *LedgerService) TopByLevel(n int) ([]models.User, error) {
	var users []models.User
	err := s.DB.Order("level DESC, experience DESC").Limit(n).Find(&users).Error
	if err != nil {
		return nil, storageErr("top users by level", err)
	}
	return users, nil
}

// ReferralLeader pairs a user with their computed referral count.
type ReferralLeader struct {
	User          models.User `json:"user"`
	ReferralCount int64       `json:"referral_count"`
}

// ReferralCount counts users recruited by the given user. Computed from
// referred_by, never stored.
func (s *LedgerService) ReferralCount(userID int64) (int64, error) {
	var count int64
	err := s.DB.Model(&models.User{}).Where("referred_by = ?", userID).Count(&count).Error
	if err != nil {
		return 0, storageErr("count referrals", err)
	}
	return count, nil
}

// TopByReferralCount returns the n users with the most referrals.
func (s *LedgerService) TopByReferralCount(n int) ([]ReferralLeader, error) {
	type row struct {
		ReferredBy    int64
		ReferralCount int64
	}
	var rows []row
	err := s.DB.Model(&models.User{}).
		Select("referred_by, COUNT(*) AS referral_count").
		Where("referred_by IS NOT NULL").
		Group("referred_by").
		Order("referral_count DESC").
		Limit(n).
		Scan(&rows).Error
	if err != nil {
		return nil, storageErr("top users by referrals", err)
	}

	leaders := make([]ReferralLeader, 0, len(rows))
	for _, r := range rows {
		user, err := s.Get(r.ReferredBy)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				continue
			}
			return nil, err
		}
		leaders = append(leaders, ReferralLeader{User: *user, ReferralCount: r.ReferralCount})
	}
	return leaders, nil
}

// CountUsers returns total and banned user counts for admin summaries.
func (s *LedgerService) CountUsers() (total int64, banned int64, err error) {
	if err := s.DB.Model(&models.User{}).Count(&total).Error; err != nil {
		return 0, 0, storageErr("count users", err)
	}
	if err := s.DB.Model(&models.User{}).Where("is_banned = ?", true).Count(&banned).Error; err != nil {
		return 0, 0, storageErr("count banned users", err)
	}
	return total, banned, nil
}
