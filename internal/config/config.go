// Package config reads the service configuration from the environment.
// main loads .env first, so values there behave like real env vars.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	Port           string
	LogLevel       string
	LogFormat      string // "console" or "json"
	AllowedOrigins []string

	PuzzleDataFile string
	RequiredGroups int
	WordsPerGroup  int
	MaxAttempts    int
	MaxSeedValue   int64
	MaxThemeLength int
	MaxWordLength  int

	SessionExpire time.Duration
	SessionSweep  time.Duration

	DBPath    string
	DailySalt string

	RateLimitRPS   float64
	RateLimitBurst int

	AdminUser         string
	AdminPasswordHash string
	JWTSecret         string
	JWTExpires        time.Duration
}

func FromEnv() Config {
	c := Config{}
	c.Port = getenv("PORT", "5175")
	c.LogLevel = getenv("LOG_LEVEL", "info")
	c.LogFormat = strings.ToLower(getenv("LOG_FORMAT", "json"))
	c.AllowedOrigins = splitList(getenv("ALLOWED_ORIGINS", "*"))

	c.PuzzleDataFile = os.Getenv("PUZZLE_DATA_FILE")
	c.RequiredGroups = getInt("REQUIRED_GROUPS", 4)
	c.WordsPerGroup = getInt("WORDS_PER_GROUP", 4)
	c.MaxAttempts = getInt("MAX_ATTEMPTS", 4)
	c.MaxSeedValue = int64(getInt("MAX_SEED_VALUE", 2147483647))
	c.MaxThemeLength = getInt("MAX_THEME_LENGTH", 50)
	c.MaxWordLength = getInt("MAX_WORD_LENGTH", 50)

	c.SessionExpire = time.Duration(getInt("SESSION_EXPIRE_MINUTES", 30)) * time.Minute
	c.SessionSweep = time.Duration(getInt("SESSION_SWEEP_MINUTES", 30)) * time.Minute

	c.DBPath = getenv("DB_PATH", "./data/wordconnections.db")
	c.DailySalt = getenv("DAILY_SALT", "local_dev_salt")

	c.RateLimitRPS = getFloat("RATE_LIMIT_RPS", 10)
	c.RateLimitBurst = getInt("RATE_LIMIT_BURST", 30)

	c.AdminUser = getenv("ADMIN_USER", "admin")
	c.AdminPasswordHash = os.Getenv("ADMIN_PASSWORD_HASH")
	c.JWTSecret = os.Getenv("JWT_SECRET")
	c.JWTExpires = time.Duration(getInt("JWT_EXPIRES_HOURS", 12)) * time.Hour
	return c
}

// AdminEnabled reports whether the admin API should be mounted.
func (c Config) AdminEnabled() bool { return c.AdminPasswordHash != "" }

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// getInt falls back to def (with a warning) on unparsable or non-positive values.
func getInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		log.Warn().Str("key", k).Str("value", v).Int("default", def).Msg("invalid integer in env, using default")
		return def
	}
	return n
}

func getFloat(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || f <= 0 {
		log.Warn().Str("key", k).Str("value", v).Float64("default", def).Msg("invalid number in env, using default")
		return def
	}
	return f
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
