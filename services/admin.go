package services

import (
	"fmt"

	"referral-points-system/models"
	"referral-points-system/utils"
)

// AdminService carries the operations reserved for administrators: bans,
// manual grants and the explicitly logged XP reset that sits outside the
// monotonic XP flow.
type AdminService struct {
	Ledger    *LedgerService
	Leveling  *Leveling
	Referrals *ReferralService
	Notifier  Notifier
	Stats     *StatsService
}

func NewAdminService(ledger *LedgerService, leveling *Leveling, referrals *ReferralService, notifier Notifier, stats *StatsService) *AdminService {
	return &AdminService{
		Ledger:    ledger,
		Leveling:  leveling,
		Referrals: referrals,
		Notifier:  notifier,
		Stats:     stats,
	}
}

// SetBanned flips the ban flag. Banned users are rejected before any
// mutation in every flow.
func (s *AdminService) SetBanned(userID int64, banned bool) (*models.User, error) {
	user, err := s.Ledger.Get(userID)
	if err != nil {
		return nil, err
	}
	user.IsBanned = banned
	if err := s.Ledger.Save(user); err != nil {
		return nil, err
	}

	utils.Sugar.Infow("ban flag changed", "user_id", userID, "banned", banned)
	s.Notifier.Notify(Event{
		Type:    EventAdminAlert,
		UserID:  userID,
		Message: fmt.Sprintf("user %d banned=%t", userID, banned),
	})
	return user, nil
}

// GrantPoints adds points to a user's balance. Negative amounts are
// rejected; taking points away is not an admin grant.
func (s *AdminService) GrantPoints(userID int64, amount int64, reason string) (*models.User, error) {
	if amount < 0 {
		return nil, invalidOp("point grant must not be negative, got %d", amount)
	}
	user, err := s.Ledger.Get(userID)
	if err != nil {
		return nil, err
	}
	if user.IsBanned {
		return nil, invalidOp("user %d is banned", userID)
	}
	user.Points += amount
	if err := s.Ledger.Save(user); err != nil {
		return nil, err
	}

	utils.Sugar.Infow("points granted", "user_id", userID, "amount", amount, "reason", reason)
	return user, nil
}

// GrantXP routes an administrative XP grant through the leveling engine,
// so cached level and rank stay consistent and level-ups are detected.
func (s *AdminService) GrantXP(userID int64, amount int64, reason string) (*models.User, error) {
	user, err := s.Ledger.Get(userID)
	if err != nil {
		return nil, err
	}
	if user.IsBanned {
		return nil, invalidOp("user %d is banned", userID)
	}

	leveledUp, err := s.Leveling.Apply(user, amount)
	if err != nil {
		return nil, err
	}
	if err := s.Ledger.Save(user); err != nil {
		return nil, err
	}

	utils.Sugar.Infow("xp granted", "user_id", userID, "amount", amount, "reason", reason, "leveled_up", leveledUp)
	if leveledUp {
		s.Stats.RecordLevelUp()
		s.Notifier.Notify(Event{
			Type:    EventLevelUp,
			UserID:  userID,
			Message: fmt.Sprintf("reached level %d", user.Level),
		})
	}
	return user, nil
}

// ResetXP is the one sanctioned way experience decreases. It is an
// explicit administrative operation and is always logged with its reason.
func (s *AdminService) ResetXP(userID int64, reason string) (*models.User, error) {
	if reason == "" {
		return nil, invalidOp("an XP reset requires a reason")
	}
	user, err := s.Ledger.Get(userID)
	if err != nil {
		return nil, err
	}

	previous := user.Experience
	user.Experience = 0
	user.Level = 1
	user.Rank = s.Leveling.RankForLevel(1)
	if err := s.Ledger.Save(user); err != nil {
		return nil, err
	}

	utils.Sugar.Warnw("administrative XP reset",
		"user_id", userID,
		"previous_experience", previous,
		"reason", reason,
	)
	s.Notifier.Notify(Event{
		Type:    EventAdminAlert,
		UserID:  userID,
		Message: fmt.Sprintf("XP reset for user %d (was %d): %s", userID, previous, reason),
	})
	return user, nil
}

// SetReferralPoints overrides the per-referral point award for the rest of
// the process lifetime. Deliberately not persisted.
func (s *AdminService) SetReferralPoints(points int64) error {
	if points < 0 {
		return invalidOp("points per referral must not be negative, got %d", points)
	}
	s.Referrals.PointsPerReferral = points
	utils.Sugar.Infow("referral points override", "points_per_referral", points)
	return nil
}
