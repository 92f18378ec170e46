package services

import "testing"

func TestLevelFromXP(t *testing.T) {
	l := NewLeveling(100, 100, nil)

	cases := []struct {
		xp   int64
		want int
	}{
		{-50, 1},
		{0, 1},
		{99, 1},
		{100, 2},
		{500, 6},
		{9_900, 100},
		{1_000_000, 100}, // capped at max level
	}
	for _, c := range cases {
		if got := l.LevelFromXP(c.xp); got != c.want {
			t.Errorf("LevelFromXP(%d) = %d, want %d", c.xp, got, c.want)
		}
	}
}

func TestXPRequiredRoundTrip(t *testing.T) {
	l := NewLeveling(100, 100, nil)

	for level := 1; level <= l.MaxLevel; level++ {
		xp := l.XPRequiredForLevel(level)
		if got := l.LevelFromXP(xp); got != level {
			t.Fatalf("LevelFromXP(XPRequiredForLevel(%d)) = %d", level, got)
		}
		// One XP short of the threshold must still be the previous level.
		if level > 1 {
			if got := l.LevelFromXP(xp - 1); got != level-1 {
				t.Fatalf("LevelFromXP(%d) = %d, want %d", xp-1, got, level-1)
			}
		}
	}
}

func TestAddXPRejectsNegativeDelta(t *testing.T) {
	l := NewLeveling(100, 100, nil)

	if _, _, _, err := l.AddXP(500, -1); err == nil {
		t.Fatal("expected error for negative XP delta")
	}
}

func TestAddXPCeiling(t *testing.T) {
	l := NewLeveling(100, 100, nil)

	ceiling := l.XPRequiredForLevel(l.MaxLevel + 1)
	newXP, _, newLevel, err := l.AddXP(ceiling-10, 1_000_000)
	if err != nil {
		t.Fatalf("AddXP: %v", err)
	}
	if newXP != ceiling {
		t.Errorf("XP = %d, want ceiling %d", newXP, ceiling)
	}
	if newLevel != l.MaxLevel {
		t.Errorf("level = %d, want %d", newLevel, l.MaxLevel)
	}
}

func TestAddXPLevelUpDetection(t *testing.T) {
	l := NewLeveling(100, 100, nil)

	_, leveledUp, newLevel, err := l.AddXP(90, 20)
	if err != nil {
		t.Fatalf("AddXP: %v", err)
	}
	if !leveledUp || newLevel != 2 {
		t.Errorf("leveledUp=%v level=%d, want true/2", leveledUp, newLevel)
	}

	_, leveledUp, _, err = l.AddXP(10, 20)
	if err != nil {
		t.Fatalf("AddXP: %v", err)
	}
	if leveledUp {
		t.Error("no boundary crossed, leveledUp should be false")
	}
}

func TestAddXPWithinLevel(t *testing.T) {
	l := NewLeveling(100, 100, nil)

	// 500 XP is level 6; 50 more stays within it.
	if got := l.LevelFromXP(500); got != 6 {
		t.Fatalf("LevelFromXP(500) = %d, want 6", got)
	}
	newXP, leveledUp, newLevel, err := l.AddXP(500, 50)
	if err != nil {
		t.Fatalf("AddXP: %v", err)
	}
	if newXP != 550 || newLevel != 6 || leveledUp {
		t.Errorf("AddXP(500, 50) = (%d, %v, %d), want (550, false, 6)", newXP, leveledUp, newLevel)
	}
}

func TestRankForLevel(t *testing.T) {
	l := NewLeveling(100, 100, nil)

	cases := []struct {
		level int
		want  string
	}{
		{1, "Hatchling"},
		{4, "Hatchling"},
		{5, "Fledgling"},
		{9, "Fledgling"},
		{10, "Knight"},
		{20, "Dragon Knight"},
		{49, "Pro"},
		{50, "Champion"},
		{100, "Emperor"},
	}
	for _, c := range cases {
		if got := l.RankForLevel(c.level); got != c.want {
			t.Errorf("RankForLevel(%d) = %q, want %q", c.level, got, c.want)
		}
	}
}

func TestXPProgress(t *testing.T) {
	l := NewLeveling(100, 100, nil)

	level, into, remaining := l.XPProgress(250)
	if level != 3 || into != 50 || remaining != 50 {
		t.Errorf("XPProgress(250) = (%d, %d, %d), want (3, 50, 50)", level, into, remaining)
	}
}

func TestApplyKeepsCachedFieldsConsistent(t *testing.T) {
	ts := newTestStack(t)
	user := ts.mustRegister(t, 1, "alice", "")

	// 500 XP in chunks: level 6, still Fledgling.
	for i := 0; i < 10; i++ {
		if _, err := ts.leveling.Apply(user, 50); err != nil {
			t.Fatalf("Apply: %v", err)
		}
	}
	if user.Experience != 500 {
		t.Errorf("experience = %d, want 500", user.Experience)
	}
	if user.Level != 6 {
		t.Errorf("level = %d, want 6", user.Level)
	}
	if user.Rank != "Fledgling" {
		t.Errorf("rank = %q, want Fledgling", user.Rank)
	}
}
