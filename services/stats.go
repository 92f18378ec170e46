package services

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"referral-points-system/utils"
)

const (
	statsKeyPrefix = "stats:daily:"
	statsKeyTTL    = 92 * 24 * time.Hour
	statsOpTimeout = 2 * time.Second
)

// Counter field names inside each per-day hash.
const (
	counterNewUsers         = "new_users"
	counterReferrals        = "referrals"
	counterReferralClicks   = "referral_clicks"
	counterRewardsClaimed   = "rewards_claimed"
	counterRewardPointsCost = "reward_points_spent"
	counterTasksCompleted   = "tasks_completed"
	counterLevelUps         = "level_ups"
)

// StatsService accumulates derived, non-authoritative counters in Redis,
// one hash per calendar day. Strictly best-effort: a Redis failure is
// logged and dropped, never surfaced into a ledger mutation.
type StatsService struct {
	rdb *redis.Client
	now func() time.Time
}

func NewStatsService(rdb *redis.Client) *StatsService {
	return &StatsService{rdb: rdb, now: time.Now}
}

func (s *StatsService) incr(field string, by int64) {
	if s.rdb == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), statsOpTimeout)
	defer cancel()

	key := statsKeyPrefix + s.now().Format("2006-01-02")
	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, key, field, by)
	pipe.Expire(ctx, key, statsKeyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		utils.Sugar.Debugw("stats counter dropped", "field", field, "error", err)
	}
}

// RecordCommand counts one use of a gateway command.
func (s *StatsService) RecordCommand(command string) {
	s.incr("cmd:"+command, 1)
}

// RecordError counts one error by kind.
func (s *StatsService) RecordError(kind string) {
	s.incr("err:"+kind, 1)
}

func (s *StatsService) RecordNewUser()       { s.incr(counterNewUsers, 1) }
func (s *StatsService) RecordReferral()      { s.incr(counterReferrals, 1) }
func (s *StatsService) RecordReferralClick() { s.incr(counterReferralClicks, 1) }
func (s *StatsService) RecordTaskCompleted() { s.incr(counterTasksCompleted, 1) }
func (s *StatsService) RecordLevelUp()       { s.incr(counterLevelUps, 1) }

// RecordRewardClaimed counts one claim and the points it consumed.
func (s *StatsService) RecordRewardClaimed(pointsSpent int64) {
	s.incr(counterRewardsClaimed, 1)
	s.incr(counterRewardPointsCost, pointsSpent)
}

// Summary is an aggregation of counters over one reporting window,
// computed from the accumulated per-day hashes, not from ledger history.
type Summary struct {
	Window         string           `json:"window"`
	From           string           `json:"from"`
	To             string           `json:"to"`
	Counters       map[string]int64 `json:"counters"`
	CommandUsage   map[string]int64 `json:"command_usage"`
	ErrorsByKind   map[string]int64 `json:"errors_by_kind"`
	FormattedTotal string           `json:"formatted_event_total"`
}

// DailySummary reports today's counters.
func (s *StatsService) DailySummary() (*Summary, error) {
	today := s.now()
	return s.summarize("daily", []time.Time{today})
}

// WeeklySummary reports the last seven days including today.
func (s *StatsService) WeeklySummary() (*Summary, error) {
	days := make([]time.Time, 0, 7)
	for i := 6; i >= 0; i-- {
		days = append(days, s.now().AddDate(0, 0, -i))
	}
	return s.summarize("weekly", days)
}

// MonthlySummary reports the current calendar month to date.
func (s *StatsService) MonthlySummary() (*Summary, error) {
	now := s.now()
	days := make([]time.Time, 0, now.Day())
	for d := 1; d <= now.Day(); d++ {
		days = append(days, time.Date(now.Year(), now.Month(), d, 0, 0, 0, 0, now.Location()))
	}
	return s.summarize("monthly", days)
}

func (s *StatsService) summarize(window string, days []time.Time) (*Summary, error) {
	summary := &Summary{
		Window:       window,
		From:         days[0].Format("2006-01-02"),
		To:           days[len(days)-1].Format("2006-01-02"),
		Counters:     make(map[string]int64),
		CommandUsage: make(map[string]int64),
		ErrorsByKind: make(map[string]int64),
	}
	if s.rdb == nil {
		return summary, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), statsOpTimeout)
	defer cancel()

	var total int64
	for _, day := range days {
		fields, err := s.rdb.HGetAll(ctx, statsKeyPrefix+day.Format("2006-01-02")).Result()
		if err != nil {
			return nil, storageErr("read stats", err)
		}
		for field, raw := range fields {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				continue
			}
			total += n
			switch {
			case len(field) > 4 && field[:4] == "cmd:":
				summary.CommandUsage[field[4:]] += n
			case len(field) > 4 && field[:4] == "err:":
				summary.ErrorsByKind[field[4:]] += n
			default:
				summary.Counters[field] += n
			}
		}
	}

	summary.FormattedTotal = utils.FormatNumber(total)
	return summary, nil
}
