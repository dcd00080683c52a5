package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            int
	DatabaseURL     string
	RedisAddr       string
	JWTSecret       string
	EncryptionKey   string
	MediaRoot       string
	FFprobePath     string
	MKVPropeditPath string
	PlexServerURL   string
	ScanWorkers     int
	ScanSchedule    string // cron spec, empty disables scheduled scans
	WatchFilesystem bool
}

func Load() *Config {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	return &Config{
		Port:            envInt("PORT", 8080),
		DatabaseURL:     env("DATABASE_URL", "postgres://trackhound:trackhound@db:5432/trackhound?sslmode=disable"),
		RedisAddr:       env("REDIS_ADDR", "redis:6379"),
		JWTSecret:       env("JWT_SECRET", "change-me-in-production"),
		EncryptionKey:   env("ENCRYPTION_KEY", "change-me-in-production"),
		MediaRoot:       env("MEDIA_ROOT", "/media"),
		FFprobePath:     env("FFPROBE_PATH", "ffprobe"),
		MKVPropeditPath: env("MKVPROPEDIT_PATH", "mkvpropedit"),
		PlexServerURL:   env("PLEX_SERVER_URL", ""),
		ScanWorkers:     envInt("SCAN_WORKERS", 4),
		ScanSchedule:    env("SCAN_SCHEDULE", ""),
		WatchFilesystem: envBool("WATCH_FILESYSTEM", true),
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
