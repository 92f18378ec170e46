package services

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"referral-points-system/models"
	"referral-points-system/utils"
)

const (
	referralCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	referralCodeLength   = 8

	// Collisions at length 8 are vanishingly rare but still handled;
	// this bound only guards against a broken ledger.
	maxCodeAttempts = 10
)

// ReferralService creates users on first contact and attributes referrals.
// Attribution happens exactly once, at creation time; an existing user can
// never acquire or change a referrer.
type ReferralService struct {
	DB       *gorm.DB
	Ledger   *LedgerService
	Leveling *Leveling
	Notifier Notifier
	Stats    *StatsService

	// Process-lifetime tuning; admin overrides are never persisted.
	PointsPerReferral int64
	XPPerReferral     int64
	StartPoints       int64
}

func NewReferralService(db *gorm.DB, ledger *LedgerService, leveling *Leveling, notifier Notifier, stats *StatsService, pointsPerReferral, xpPerReferral, startPoints int64) *ReferralService {
	return &ReferralService{
		DB:                db,
		Ledger:            ledger,
		Leveling:          leveling,
		Notifier:          notifier,
		Stats:             stats,
		PointsPerReferral: pointsPerReferral,
		XPPerReferral:     xpPerReferral,
		StartPoints:       startPoints,
	}
}

// GenerateReferralCode draws an alphanumeric code and retries on the rare
// collision with an existing user's code.
func (s *ReferralService) GenerateReferralCode() (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := randomCode(referralCodeLength)
		_, err := s.Ledger.GetByReferralCode(code)
		if errors.Is(err, ErrUserNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
		utils.Sugar.Warnw("referral code collision, retrying", "attempt", attempt+1)
	}
	return "", storageErr("generate referral code", fmt.Errorf("no unique code after %d attempts", maxCodeAttempts))
}

func randomCode(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = referralCodeAlphabet[rand.IntN(len(referralCodeAlphabet))]
	}
	return string(b)
}

// RegisterInput carries the identity the gateway saw on first contact.
type RegisterInput struct {
	UserID       int64
	Username     *string
	DisplayName  string
	ReferralCode string // referrer's code from the invite link, optional
}

// Register handles first contact. For a known user it refreshes the
// mutable identity fields and returns created=false; referred_by is never
// touched again. For a new user it creates the ledger record, attributes
// the referral if the code resolves, and notifies the sink.
// The ban check runs before any mutation.
func (s *ReferralService) Register(in RegisterInput) (*models.User, bool, error) {
	existing, err := s.Ledger.Get(in.UserID)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, false, err
	}

	if existing != nil {
		if existing.IsBanned {
			return nil, false, invalidOp("user %d is banned", in.UserID)
		}
		existing.Username = in.Username
		if in.DisplayName != "" {
			existing.DisplayName = in.DisplayName
		}
		if err := s.Ledger.Save(existing); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	code, err := s.GenerateReferralCode()
	if err != nil {
		return nil, false, err
	}

	now := time.Now()
	newUser := &models.User{
		UserID:       in.UserID,
		Username:     in.Username,
		DisplayName:  in.DisplayName,
		Points:       s.StartPoints,
		Experience:   0,
		Level:        1,
		Rank:         s.Leveling.RankForLevel(1),
		ReferralCode: code,
		JoinDate:     &now,
	}

	// Unknown and self codes resolve to nil without error; only storage
	// failures propagate.
	referrer, err := s.resolveReferrer(in.ReferralCode, in.UserID)
	if err != nil {
		return nil, false, err
	}

	var referrerLeveledUp bool
	txErr := s.DB.Transaction(func(tx *gorm.DB) error {
		if referrer != nil {
			// Credit the referrer and link the new user in the same
			// transaction as the creation: attribution is write-once.
			newUser.ReferredBy = &referrer.UserID

			referrer.Points += s.PointsPerReferral
			leveledUp, err := s.Leveling.Apply(referrer, s.XPPerReferral)
			if err != nil {
				return err
			}
			referrerLeveledUp = leveledUp
			if err := tx.Save(referrer).Error; err != nil {
				return storageErr("credit referrer", err)
			}

			record := &models.Referral{
				ID:           uuid.NewString(),
				ReferrerID:   referrer.UserID,
				ReferredID:   in.UserID,
				CodeUsed:     in.ReferralCode,
				PointsEarned: s.PointsPerReferral,
				XPEarned:     s.XPPerReferral,
			}
			if err := tx.Create(record).Error; err != nil {
				return storageErr("create referral record", err)
			}
		}

		if err := tx.Create(newUser).Error; err != nil {
			return storageErr("create user", err)
		}
		return nil
	})
	if txErr != nil {
		return nil, false, txErr
	}

	utils.Sugar.Infow("new user registered",
		"user_id", newUser.UserID,
		"referred_by", newUser.ReferredBy,
		"referral_code", newUser.ReferralCode,
	)

	s.Stats.RecordNewUser()
	s.Notifier.Notify(Event{
		Type:    EventNewUser,
		UserID:  newUser.UserID,
		Message: fmt.Sprintf("new user %s joined", newUser.DisplayLabel()),
	})

	if referrer != nil {
		s.Stats.RecordReferral()
		if referrerLeveledUp {
			s.Stats.RecordLevelUp()
		}
		s.Notifier.Notify(Event{
			Type:    EventReferralSuccess,
			UserID:  referrer.UserID,
			Message: fmt.Sprintf("referral bonus: +%d points", s.PointsPerReferral),
			Data: map[string]any{
				"referred_id": in.UserID,
				"points":      s.PointsPerReferral,
				"xp":          s.XPPerReferral,
			},
		})
	}

	return newUser, true, nil
}

// resolveReferrer maps a code to a creditable referrer. Unknown codes,
// self-referrals and banned referrers all resolve to nil.
func (s *ReferralService) resolveReferrer(code string, newUserID int64) (*models.User, error) {
	if code == "" {
		return nil, nil
	}
	referrer, err := s.Ledger.GetByReferralCode(code)
	if errors.Is(err, ErrUserNotFound) {
		utils.Sugar.Debugw("referral code did not resolve", "code", code)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if referrer.UserID == newUserID {
		utils.Sugar.Warnw("self-referral attempt ignored", "user_id", newUserID)
		return nil, nil
	}
	if referrer.IsBanned {
		return nil, nil
	}
	return referrer, nil
}
