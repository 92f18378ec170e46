package config

import "testing"

func TestLoadFromEnvDefaults(t *testing.T) {
	t.Setenv("BOT_SERVICE_TOKEN", "test-token")

	c, err := loadFromEnv()
	if err != nil {
		t.Fatalf("loadFromEnv: %v", err)
	}
	if c.AppPort != "5300" {
		t.Errorf("port = %q, want 5300", c.AppPort)
	}
	if c.PointsPerReferral != 10 || c.XPPerReferral != 50 {
		t.Errorf("referral tuning = %d/%d, want 10/50", c.PointsPerReferral, c.XPPerReferral)
	}
	if c.XPPerLevel != 100 || c.MaxLevel != 100 {
		t.Errorf("leveling tuning = %d/%d, want 100/100", c.XPPerLevel, c.MaxLevel)
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("BOT_SERVICE_TOKEN", "test-token")
	t.Setenv("POINTS_PER_REFERRAL", "25")
	t.Setenv("ADMIN_IDS", "100, 200,300")

	c, err := loadFromEnv()
	if err != nil {
		t.Fatalf("loadFromEnv: %v", err)
	}
	if c.PointsPerReferral != 25 {
		t.Errorf("points per referral = %d, want 25", c.PointsPerReferral)
	}
	if len(c.AdminIDs) != 3 {
		t.Fatalf("got %d admin ids, want 3", len(c.AdminIDs))
	}
	if !c.IsAdmin(200) {
		t.Error("200 should be an admin")
	}
	if c.IsAdmin(999) {
		t.Error("999 should not be an admin")
	}
}

func TestLoadFromEnvRequiresServiceToken(t *testing.T) {
	t.Setenv("BOT_SERVICE_TOKEN", "")
	if _, err := loadFromEnv(); err == nil {
		t.Error("expected error when BOT_SERVICE_TOKEN is unset")
	}
}

func TestLoadFromEnvRejectsInvalidTuning(t *testing.T) {
	t.Setenv("BOT_SERVICE_TOKEN", "test-token")
	t.Setenv("XP_PER_LEVEL", "0")
	if _, err := loadFromEnv(); err == nil {
		t.Error("expected error for XP_PER_LEVEL=0")
	}
}

func TestLoadFromEnvRejectsMalformedAdminIDs(t *testing.T) {
	t.Setenv("BOT_SERVICE_TOKEN", "test-token")
	t.Setenv("ADMIN_IDS", "100,abc")
	if _, err := loadFromEnv(); err == nil {
		t.Error("expected error for malformed ADMIN_IDS")
	}
}
