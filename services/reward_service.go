package services

import (
	"errors"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"referral-points-system/models"
	"referral-points-system/utils"
)

// RewardService owns the redeemable catalog and the points-for-reward
// exchange. Claiming is a single database transaction: the balance check,
// the decrement and the claim-count increment apply together or not at all.
type RewardService struct {
	DB       *gorm.DB
	Stats    *StatsService
	Notifier Notifier
}

func NewRewardService(db *gorm.DB, stats *StatsService, notifier Notifier) *RewardService {
	return &RewardService{DB: db, Stats: stats, Notifier: notifier}
}

// CreateRewardInput is the admin-facing shape for new catalog entries.
type CreateRewardInput struct {
	Name        string
	Description string
	Cost        int64
	Type        models.RewardType
	MaxClaims   *int64
}

// CreateReward adds a catalog entry. The slug is derived from the name and
// must be unique; cost must not be negative.
func (s *RewardService) CreateReward(in CreateRewardInput) (*models.Reward, error) {
	if in.Name == "" || in.Description == "" {
		return nil, invalidOp("reward name and description are required")
	}
	if in.Cost < 0 {
		return nil, invalidOp("reward cost must not be negative, got %d", in.Cost)
	}
	if in.MaxClaims != nil && *in.MaxClaims <= 0 {
		return nil, invalidOp("max_claims must be positive when set")
	}
	if in.Type == "" {
		in.Type = models.RewardTypeCustom
	}

	reward := &models.Reward{
		Name:        in.Name,
		Slug:        slug.Make(in.Name),
		Description: in.Description,
		Cost:        in.Cost,
		Type:        in.Type,
		IsActive:    true,
		MaxClaims:   in.MaxClaims,
	}
	if err := s.DB.Create(reward).Error; err != nil {
		return nil, storageErr("create reward", err)
	}

	utils.Sugar.Infow("reward created", "reward_id", reward.RewardID, "name", reward.Name, "cost", reward.Cost)
	return reward, nil
}

// GetReward returns the catalog entry or ErrRewardNotFound.
func (s *RewardService) GetReward(rewardID uint) (*models.Reward, error) {
	var reward models.Reward
	err := s.DB.Where("reward_id = ?", rewardID).First(&reward).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRewardNotFound
	}
	if err != nil {
		return nil, storageErr("get reward", err)
	}
	return &reward, nil
}

// ListAll returns the full catalog, newest first.
func (s *RewardService) ListAll() ([]models.Reward, error) {
	var rewards []models.Reward
	if err := s.DB.Order("created_at DESC").Find(&rewards).Error; err != nil {
		return nil, storageErr("list rewards", err)
	}
	return rewards, nil
}

// ListAvailable returns rewards the given balance can afford: active,
// below their claim limit and costing at most userPoints.
func (s *RewardService) ListAvailable(userPoints int64) ([]models.Reward, error) {
	var rewards []models.Reward
	err := s.DB.
		Where("is_active = ?", true).
		Where("(max_claims IS NULL OR claim_count < max_claims)").
		Where("cost <= ?", userPoints).
		Order("cost ASC").
		Find(&rewards).Error
	if err != nil {
		return nil, storageErr("list available rewards", err)
	}
	return rewards, nil
}

// Deactivate soft-disables a reward. History stays attributable; catalog
// entries are never hard-deleted.
func (s *RewardService) Deactivate(rewardID uint) error {
	res := s.DB.Model(&models.Reward{}).Where("reward_id = ?", rewardID).Update("is_active", false)
	if res.Error != nil {
		return storageErr("deactivate reward", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRewardNotFound
	}
	utils.Sugar.Infow("reward deactivated", "reward_id", rewardID)
	return nil
}

// SetIconURL records the CDN URL of an uploaded reward icon.
func (s *RewardService) SetIconURL(rewardID uint, iconURL string) error {
	res := s.DB.Model(&models.Reward{}).Where("reward_id = ?", rewardID).Update("icon_url", iconURL)
	if res.Error != nil {
		return storageErr("set reward icon", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRewardNotFound
	}
	return nil
}

// ClaimResult confirms a successful exchange.
type ClaimResult struct {
	ClaimID         string        `json:"claim_id"`
	Reward          models.Reward `json:"reward"`
	PointsSpent     int64         `json:"points_spent"`
	RemainingPoints int64         `json:"remaining_points"`
	RemainingClaims *int64        `json:"remaining_claims,omitempty"`
}

// Claim exchanges points for a reward. The conditional updates keep two
// concurrent claims from overdrawing a balance or a claim limit: each
// guard re-checks inside the transaction, so exactly one of two racing
// claims against the last unit wins.
func (s *RewardService) Claim(userID int64, rewardID uint) (*ClaimResult, error) {
	var result *ClaimResult

	txErr := s.DB.Transaction(func(tx *gorm.DB) error {
		var reward models.Reward
		err := tx.Where("reward_id = ?", rewardID).First(&reward).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRewardNotFound
		}
		if err != nil {
			return storageErr("get reward", err)
		}

		if !reward.IsActive {
			return invalidOp("reward %q is currently disabled", reward.Name)
		}
		if !reward.Available() {
			return invalidOp("reward %q has no claims left", reward.Name)
		}

		var user models.User
		err = tx.Where("user_id = ?", userID).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return storageErr("get user", err)
		}
		if user.IsBanned {
			return invalidOp("user %d is banned", userID)
		}
		if user.Points < reward.Cost {
			return &InsufficientPointsError{Have: user.Points, Need: reward.Cost}
		}

		// Guarded increment: loses the race when another claim took the
		// last unit between the read above and here.
		res := tx.Model(&models.Reward{}).
			Where("reward_id = ? AND is_active = ?", rewardID, true).
			Where("(max_claims IS NULL OR claim_count < max_claims)").
			Update("claim_count", gorm.Expr("claim_count + ?", 1))
		if res.Error != nil {
			return storageErr("increment claim count", res.Error)
		}
		if res.RowsAffected == 0 {
			return invalidOp("reward %q has no claims left", reward.Name)
		}

		// Guarded decrement: the balance is re-checked atomically so the
		// final balance can never go negative.
		res = tx.Model(&models.User{}).
			Where("user_id = ? AND points >= ?", userID, reward.Cost).
			Update("points", gorm.Expr("points - ?", reward.Cost))
		if res.Error != nil {
			return storageErr("deduct points", res.Error)
		}
		if res.RowsAffected == 0 {
			return &InsufficientPointsError{Have: user.Points, Need: reward.Cost}
		}

		claim := &models.RewardClaim{
			ClaimID:     uuid.NewString(),
			UserID:      userID,
			RewardID:    rewardID,
			PointsSpent: reward.Cost,
		}
		if err := tx.Create(claim).Error; err != nil {
			return storageErr("record claim", err)
		}

		var updatedReward models.Reward
		if err := tx.Where("reward_id = ?", rewardID).First(&updatedReward).Error; err != nil {
			return storageErr("reload reward", err)
		}
		var updatedUser models.User
		if err := tx.Where("user_id = ?", userID).First(&updatedUser).Error; err != nil {
			return storageErr("reload user", err)
		}

		result = &ClaimResult{
			ClaimID:         claim.ClaimID,
			Reward:          updatedReward,
			PointsSpent:     reward.Cost,
			RemainingPoints: updatedUser.Points,
			RemainingClaims: updatedReward.RemainingClaims(),
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	utils.Sugar.Infow("reward claimed",
		"user_id", userID,
		"reward_id", rewardID,
		"points_spent", result.PointsSpent,
		"remaining_points", result.RemainingPoints,
	)

	s.Stats.RecordRewardClaimed(result.PointsSpent)
	s.Notifier.Notify(Event{
		Type:    EventRewardClaimed,
		UserID:  userID,
		Message: "reward claimed: " + result.Reward.Name,
		Data:    map[string]any{"reward_id": rewardID, "points_spent": result.PointsSpent},
	})

	return result, nil
}

// ClaimHistory returns a user's claims, newest first.
func (s *RewardService) ClaimHistory(userID int64, limit int) ([]models.RewardClaim, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var claims []models.RewardClaim
	err := s.DB.Where("user_id = ?", userID).
		Order("claimed_at DESC").
		Limit(limit).
		Find(&claims).Error
	if err != nil {
		return nil, storageErr("claim history", err)
	}
	return claims, nil
}

// CatalogStats returns catalog-level aggregates for admin summaries.
func (s *RewardService) CatalogStats() (total, active, totalClaims int64, err error) {
	if err := s.DB.Model(&models.Reward{}).Count(&total).Error; err != nil {
		return 0, 0, 0, storageErr("count rewards", err)
	}
	if err := s.DB.Model(&models.Reward{}).Where("is_active = ?", true).Count(&active).Error; err != nil {
		return 0, 0, 0, storageErr("count active rewards", err)
	}
	if err := s.DB.Model(&models.RewardClaim{}).Count(&totalClaims).Error; err != nil {
		return 0, 0, 0, storageErr("count claims", err)
	}
	return total, active, totalClaims, nil
}
