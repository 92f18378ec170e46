package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// AppConfig holds environment driven configuration values.
// Point/XP tuning is process-lifetime only: admin overrides at runtime are
// never persisted back to the store.
type AppConfig struct {
	AppPort     string
	DatabaseURL string

	// Gateway auth: the chat gateway authenticates with this token and
	// forwards the acting user's identity in headers.
	ServiceToken string
	AdminIDs     []int64

	// Points / referral tuning
	PointsPerReferral int64
	StartPoints       int64

	// XP / leveling tuning
	XPPerReferral int64
	XPPerLevel    int64
	MaxLevel      int

	// Redis for the stats aggregator (best-effort counters)
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string

	// Logging
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool

	// R2/S3 object storage for reward icons
	R2AccountID       string
	R2AccessKeyID     string
	R2AccessKeySecret string
	R2Bucket          string
	CDNBaseURL        string
}

var (
	cfg  *AppConfig
	once sync.Once
)

// Load reads configuration from the environment exactly once.
func Load() (*AppConfig, error) {
	var err error
	once.Do(func() {
		cfg, err = loadFromEnv()
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Get returns the loaded configuration. Panics if Load was never called;
// configuration is a boot-time concern.
func Get() *AppConfig {
	if cfg == nil {
		panic("config: Get called before Load")
	}
	return cfg
}

func loadFromEnv() (*AppConfig, error) {
	c := &AppConfig{
		AppPort:     getEnv("APP_PORT", "5300"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		ServiceToken: os.Getenv("BOT_SERVICE_TOKEN"),

		PointsPerReferral: getEnvInt64("POINTS_PER_REFERRAL", 10),
		StartPoints:       getEnvInt64("START_POINTS", 0),

		XPPerReferral: getEnvInt64("XP_PER_REFERRAL", 50),
		XPPerLevel:    getEnvInt64("XP_PER_LEVEL", 100),
		MaxLevel:      getEnvInt("MAX_LEVEL", 100),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnvInt("REDIS_PORT", 6379),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogPath:       getEnv("LOG_PATH", "logs/service.log"),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 100),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 7),
		LogCompress:   getEnvBool("LOG_COMPRESS", false),

		R2AccountID:       os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2AccessKeySecret: os.Getenv("R2_ACCESS_KEY_SECRET"),
		R2Bucket:          os.Getenv("R2_BUCKET_NAME"),
		CDNBaseURL:        os.Getenv("CDN_BASE_URL"),
	}

	adminIDs, err := parseAdminIDs(getEnv("ADMIN_IDS", ""))
	if err != nil {
		return nil, err
	}
	c.AdminIDs = adminIDs

	// Without a token the gateway middleware would accept an empty
	// Authorization value; the service must not boot unauthenticated.
	if c.ServiceToken == "" {
		return nil, fmt.Errorf("config: BOT_SERVICE_TOKEN must be set")
	}
	if c.XPPerLevel <= 0 {
		return nil, fmt.Errorf("config: XP_PER_LEVEL must be positive, got %d", c.XPPerLevel)
	}
	if c.MaxLevel <= 0 {
		return nil, fmt.Errorf("config: MAX_LEVEL must be positive, got %d", c.MaxLevel)
	}
	if c.PointsPerReferral < 0 {
		return nil, fmt.Errorf("config: POINTS_PER_REFERRAL must not be negative, got %d", c.PointsPerReferral)
	}

	return c, nil
}

// IsAdmin reports whether the given user id is a configured administrator.
func (c *AppConfig) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func parseAdminIDs(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("config: ADMIN_IDS must be comma-separated integers, got %q", raw)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return def
}
