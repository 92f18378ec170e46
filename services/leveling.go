package services

import (
	"sort"

	"referral-points-system/models"
)

// Leveling is the pure XP/level/rank engine. Deterministic, no I/O:
// everything is derived from total experience and the injected tuning.
type Leveling struct {
	XPPerLevel int64
	MaxLevel   int
	RankTable  map[int]string // minimum level -> rank name

	sortedThresholds []int
}

// DefaultRankTable maps minimum levels to display ranks. The level-1 entry
// must always exist so every user has a rank.
var DefaultRankTable = map[int]string{
	1:   "Hatchling",
	5:   "Fledgling",
	10:  "Knight",
	15:  "Warrior",
	20:  "Dragon Knight",
	25:  "Star",
	30:  "Pro",
	50:  "Champion",
	100: "Emperor",
}

// NewLeveling builds a leveling engine for the given tuning. A nil rank
// table falls back to DefaultRankTable.
func NewLeveling(xpPerLevel int64, maxLevel int, rankTable map[int]string) *Leveling {
	if rankTable == nil {
		rankTable = DefaultRankTable
	}
	thresholds := make([]int, 0, len(rankTable))
	for t := range rankTable {
		thresholds = append(thresholds, t)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(thresholds)))
	return &Leveling{
		XPPerLevel:       xpPerLevel,
		MaxLevel:         maxLevel,
		RankTable:        rankTable,
		sortedThresholds: thresholds,
	}
}

// LevelFromXP derives the level for a total XP amount: one level per
// XPPerLevel, starting at 1, capped at MaxLevel. Negative XP maps to 1.
func (l *Leveling) LevelFromXP(xp int64) int {
	if xp < 0 {
		return 1
	}
	level := int(xp/l.XPPerLevel) + 1
	if level > l.MaxLevel {
		return l.MaxLevel
	}
	return level
}

// XPRequiredForLevel returns the total XP needed to reach the given level.
func (l *Leveling) XPRequiredForLevel(level int) int64 {
	if level <= 1 {
		return 0
	}
	return int64(level-1) * l.XPPerLevel
}

// XPProgress reports the level for currentXP plus how far into that level
// the user is and how much XP remains before the next one.
func (l *Leveling) XPProgress(currentXP int64) (level int, intoLevel int64, remaining int64) {
	level = l.LevelFromXP(currentXP)
	intoLevel = currentXP - l.XPRequiredForLevel(level)
	remaining = l.XPPerLevel - intoLevel
	if remaining < 0 {
		remaining = 0
	}
	return level, intoLevel, remaining
}

// RankForLevel selects the rank whose threshold is the largest value not
// exceeding the level. Levels below every threshold get the lowest rank.
func (l *Leveling) RankForLevel(level int) string {
	if len(l.sortedThresholds) == 0 {
		return ""
	}
	for _, threshold := range l.sortedThresholds {
		if level >= threshold {
			return l.RankTable[threshold]
		}
	}
	// The table always carries a level-1 entry; this only triggers for
	// levels below 1.
	lowest := l.sortedThresholds[len(l.sortedThresholds)-1]
	return l.RankTable[lowest]
}

// AddXP applies a non-negative XP delta, clamping at the ceiling for
// MaxLevel+1, and reports whether a level boundary was crossed.
// XP never decreases through this engine; administrative resets are a
// separate, explicitly logged operation.
func (l *Leveling) AddXP(currentXP, delta int64) (newXP int64, leveledUp bool, newLevel int, err error) {
	if delta < 0 {
		return 0, false, 0, invalidOp("XP delta must not be negative, got %d", delta)
	}

	oldLevel := l.LevelFromXP(currentXP)
	newXP = currentXP + delta

	ceiling := l.XPRequiredForLevel(l.MaxLevel + 1)
	if newXP > ceiling {
		newXP = ceiling
	}

	newLevel = l.LevelFromXP(newXP)
	return newXP, newLevel > oldLevel, newLevel, nil
}

// Apply routes an XP grant through AddXP and keeps the cached level and
// rank on the user record consistent with the new experience total.
func (l *Leveling) Apply(u *models.User, delta int64) (leveledUp bool, err error) {
	newXP, leveledUp, newLevel, err := l.AddXP(u.Experience, delta)
	if err != nil {
		return false, err
	}
	u.Experience = newXP
	u.Level = newLevel
	u.Rank = l.RankForLevel(newLevel)
	return leveledUp, nil
}
