package services

import (
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"referral-points-system/config"
	"referral-points-system/models"
	"referral-points-system/utils"
)

func initTestLogger() error {
	if utils.Sugar != nil {
		return nil
	}
	return utils.InitLogger(&config.AppConfig{LogLevel: "error"})
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if err := initTestLogger(); err != nil {
		t.Fatalf("init logger: %v", err)
	}

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Referral{},
		&models.Reward{},
		&models.RewardClaim{},
		&models.Task{},
		&models.UserTaskProgress{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// sinkNotifier collects events so tests can assert on what was emitted.
type sinkNotifier struct {
	events []Event
}

func (n *sinkNotifier) Notify(e Event) {
	n.events = append(n.events, e)
}

func (n *sinkNotifier) byType(t EventType) []Event {
	var out []Event
	for _, e := range n.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type testStack struct {
	db        *gorm.DB
	ledger    *LedgerService
	leveling  *Leveling
	notifier  *sinkNotifier
	stats     *StatsService
	referrals *ReferralService
	rewards   *RewardService
	tasks     *TaskService
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	db := newTestDB(t)

	ledger := NewLedgerService(db)
	leveling := NewLeveling(100, 100, nil)
	notifier := &sinkNotifier{}
	stats := NewStatsService(nil) // no redis in tests, counters no-op

	return &testStack{
		db:        db,
		ledger:    ledger,
		leveling:  leveling,
		notifier:  notifier,
		stats:     stats,
		referrals: NewReferralService(db, ledger, leveling, notifier, stats, 10, 50, 0),
		rewards:   NewRewardService(db, stats, notifier),
		tasks:     NewTaskService(db, leveling, stats, notifier),
	}
}

func (ts *testStack) mustRegister(t *testing.T, userID int64, name, code string) *models.User {
	t.Helper()
	user, _, err := ts.referrals.Register(RegisterInput{
		UserID:       userID,
		DisplayName:  name,
		ReferralCode: code,
	})
	if err != nil {
		t.Fatalf("register user %d: %v", userID, err)
	}
	return user
}
