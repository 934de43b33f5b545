package config

import (
	"os"
	"strconv"
	"time"
)

// Config canvass-data service configuration.
type Config struct {
	HTTP struct {
		Addr string
	}
	Database DatabaseConfig
	Redis    struct {
		Addr     string
		Password string
		DB       int
	}
	Log struct {
		Level  string
		Format string
	}
	Admin struct {
		Login    string
		Password string
	}
	Lottery LotteryConfig
	Session struct {
		TTL time.Duration
	}
}

// DatabaseConfig postgres connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// LotteryConfig external lottery webhook settings.
type LotteryConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "canvass")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Admin.Login = getEnv("ADMIN_LOGIN", "")
	cfg.Admin.Password = getEnv("ADMIN_PASSWORD", "")

	cfg.Lottery.URL = getEnv("LOTTERY_API_URL", "https://stimul.app/pub-api/v1/arch/set-lottery-code")
	cfg.Lottery.Token = getEnv("LOTTERY_API_TOKEN", "")
	cfg.Lottery.Timeout = time.Duration(parseInt(getEnv("LOTTERY_TIMEOUT_SEC", "10"), 10)) * time.Second

	// The TTL is refreshed on every inbound event, so it only cuts off
	// abandoned walks. Losing an in-flight interview on expiry is accepted.
	cfg.Session.TTL = time.Duration(parseInt(getEnv("SESSION_TTL_HOURS", "24"), 24)) * time.Hour

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
