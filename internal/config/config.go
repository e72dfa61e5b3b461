package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Redis    RedisConfig
	Telegram TelegramConfig
	LogLevel string
}

type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver string
	URL    string
}

type ServerConfig struct {
	Port           string
	RateLimitRPS   float64
	RateLimitBurst int
}

type RedisConfig struct {
	Addr string
}

type TelegramConfig struct {
	BotToken string
	AdminIDs []int64
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			Driver: getEnv("DATABASE_DRIVER", "postgres"),
			URL:    os.Getenv("DATABASE_URL"),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		},
		Telegram: TelegramConfig{
			BotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if cfg.Database.URL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	if cfg.Database.Driver != "postgres" && cfg.Database.Driver != "sqlite" {
		return nil, errors.Errorf("unsupported DATABASE_DRIVER %q", cfg.Database.Driver)
	}

	var err error
	cfg.Server.RateLimitRPS, err = strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "5"), 64)
	if err != nil {
		return nil, errors.Wrap(err, "parsing RATE_LIMIT_RPS")
	}
	cfg.Server.RateLimitBurst, err = strconv.Atoi(getEnv("RATE_LIMIT_BURST", "10"))
	if err != nil {
		return nil, errors.Wrap(err, "parsing RATE_LIMIT_BURST")
	}

	for _, part := range strings.Split(os.Getenv("ADMIN_TELEGRAM_IDS"), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing ADMIN_TELEGRAM_IDS entry %q", part)
		}
		cfg.Telegram.AdminIDs = append(cfg.Telegram.AdminIDs, id)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
