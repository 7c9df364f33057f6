package config

import (
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port        int
	SnapshotURL string
	JWTSecret   string
	AdminEmail  string

	AdReward             int64
	MinWithdrawal        int64
	SignupBonus          int64
	ReferralBonus        int64
	ReferralCommissionBP int64
	SignupSpins          int64
	PlanValidityDays     int64

	RateLimitPerSec float64
	RateLimitBurst  int
}

func mustEnv(key string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		log.Printf("missing env: %s, using default", key)
		return ""
	}
	return val
}

func envInt64(key string, def int64) int64 {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envInt(key string, def int) int {
	return int(envInt64(key, int64(def)))
}

func envFloat64(key string, def float64) float64 {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	n, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return def
	}
	return n
}

// normalizeSnapshotURL strips the `psql '...'` / `redis-cli -u ...` wrappers
// some hosting consoles show around connection strings.
func normalizeSnapshotURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return s
	}

	for _, scheme := range []string{"postgresql://", "postgres://", "rediss://", "redis://", "file://"} {
		if i := strings.Index(s, scheme); i >= 0 {
			s = s[i:]
			break
		}
	}

	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	if i := strings.IndexAny(s, " \t\r\n"); i >= 0 {
		s = strings.Trim(s[:i], `"'`)
	}

	u, err := url.Parse(s)
	if err != nil {
		return s
	}
	q := u.Query()
	// pgx does not need channel_binding and may treat it as a runtime param.
	q.Del("channel_binding")
	u.RawQuery = q.Encode()
	return u.String()
}

func Load() Config {
	cfg := Config{
		Port:        envInt("PORT", 8080),
		SnapshotURL: normalizeSnapshotURL(os.Getenv("SNAPSHOT_URL")),
		JWTSecret:   mustEnv("JWT_SECRET"),
		AdminEmail:  strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))),

		AdReward:             envInt64("AD_REWARD", 10),
		MinWithdrawal:        envInt64("MIN_WITHDRAWAL", 1500),
		SignupBonus:          envInt64("SIGNUP_BONUS", 50),
		ReferralBonus:        envInt64("REFERRAL_BONUS", 50),
		ReferralCommissionBP: envInt64("REFERRAL_COMMISSION_BP", 500), // 5%
		SignupSpins:          envInt64("SIGNUP_SPINS", 3),
		PlanValidityDays:     envInt64("PLAN_VALIDITY_DAYS", 30),

		RateLimitPerSec: envFloat64("RATE_LIMIT_PER_SEC", 10),
		RateLimitBurst:  envInt("RATE_LIMIT_BURST", 20),
	}

	if cfg.SnapshotURL == "" {
		cfg.SnapshotURL = "file://adquest_state.json"
	}
	if cfg.AdminEmail == "" {
		cfg.AdminEmail = "admin@adquest.com"
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret-change-me"
	}

	if cfg.AdReward <= 0 {
		panic("AD_REWARD must be > 0")
	}
	if cfg.MinWithdrawal <= 0 {
		panic("MIN_WITHDRAWAL must be > 0")
	}
	if cfg.SignupBonus < 0 || cfg.ReferralBonus < 0 {
		panic("bonuses must be >= 0")
	}
	if cfg.ReferralCommissionBP < 0 || cfg.ReferralCommissionBP > 10_000 {
		panic("REFERRAL_COMMISSION_BP must be 0..10000")
	}
	if cfg.SignupSpins < 0 {
		panic("SIGNUP_SPINS must be >= 0")
	}
	if cfg.PlanValidityDays <= 0 {
		panic("PLAN_VALIDITY_DAYS must be > 0")
	}

	return cfg
}
