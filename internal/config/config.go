package config

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

const devSecret = "dev-secret-change-in-production"

type Config struct {
	Port        string
	Env         string
	DatabaseDSN string

	SessionSecret        string
	SessionDuration      time.Duration
	SessionRefreshWindow time.Duration

	VerificationCodeTTL time.Duration
	ResendCooldown      time.Duration

	PublicPrefixes   []string
	PrivatePrefixes  []string
	LoginRedirectURL string

	SMTPAddr     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string
}

func Load() Config {
	cfg := Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		DatabaseDSN: getEnv("DATABASE_DSN", "root:password@tcp(127.0.0.1:3306)/authgate?parseTime=true"),

		SessionSecret:        getEnv("SESSION_SECRET", devSecret),
		SessionDuration:      getDuration("SESSION_DURATION", 24*time.Hour),
		SessionRefreshWindow: getDuration("SESSION_REFRESH_WINDOW", 48*time.Hour),

		VerificationCodeTTL: getDuration("VERIFICATION_CODE_TTL", time.Hour),
		ResendCooldown:      getDuration("RESEND_COOLDOWN", 5*time.Minute),

		PublicPrefixes:   getList("PUBLIC_PREFIXES", "/,/login,/register,/api/v1/auth"),
		PrivatePrefixes:  getList("PRIVATE_PREFIXES", "/dashboard,/settings,/api/v1/auth/me"),
		LoginRedirectURL: getEnv("LOGIN_REDIRECT_URL", "/login"),

		SMTPAddr:     getEnv("SMTP_ADDR", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "no-reply@localhost"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
	}

	if cfg.Env == "production" && cfg.SessionSecret == devSecret {
		slog.Error("SESSION_SECRET must be set in production environment")
		os.Exit(1)
	}

	return cfg
}

// Production reports whether the server runs with production hardening
// (secure cookies, mandatory secret).
func (c Config) Production() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration, using fallback", "key", key, "value", v, "fallback", fallback)
		return fallback
	}
	return d
}

func getList(key, fallback string) []string {
	v := os.Getenv(key)
	if v == "" {
		v = fallback
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
