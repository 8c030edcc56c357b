package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config - структура для хранения конфигурации приложения.
// Серверная и клиентская части читают один и тот же набор переменных,
// но валидируют разные поля (см. LoadConfig и LoadClientConfig).
type Config struct {
	// Server
	DatabaseURL string `env:"DATABASE_URL"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	JWTSecret   string `env:"JWT_SECRET"`

	// Redis Config
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Webhook Config (необязательная доставка событий наружу)
	WebhookURL        string        `env:"WEBHOOK_URL"`
	WebhookSecret     string        `env:"WEBHOOK_SECRET"`
	WebhookTimeout    time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"5s"`
	WebhookMaxRetries int           `env:"WEBHOOK_MAX_RETRIES" envDefault:"3"`
	WebhookBaseDelay  time.Duration `env:"WEBHOOK_BASE_DELAY" envDefault:"1s"`

	// Client Config
	APIBaseURL        string        `env:"API_BASE_URL" envDefault:"http://localhost:8080/api/v1"`
	APIToken          string        `env:"API_TOKEN"`
	CachePath         string        `env:"CACHE_PATH"`
	RefreshInterval   time.Duration `env:"REFRESH_INTERVAL" envDefault:"30s"`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	RequestsPerSecond int           `env:"REQUESTS_PER_SECOND" envDefault:"10"`

	// Центр карты для офлайн-синтеза координат
	FallbackLat float64 `env:"FALLBACK_LAT" envDefault:"6.5244"`
	FallbackLng float64 `env:"FALLBACK_LNG" envDefault:"3.3792"`
}

// LoadConfig загружает серверную конфигурацию из переменных окружения и .env файла
func LoadConfig() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	return cfg, nil
}

// LoadClientConfig загружает клиентскую конфигурацию; БД и JWT не требуются
func LoadClientConfig() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}

	if cfg.CachePath == "" {
		homeDir, herr := os.UserHomeDir()
		if herr != nil {
			return nil, fmt.Errorf("failed to resolve home directory for cache path: %w", herr)
		}
		cfg.CachePath = filepath.Join(homeDir, ".securewatch", "incidents.db")
	}

	return cfg, nil
}

func load() (*Config, error) {
	// Загрузка переменных окружения из .env файла (если есть)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:           getEnvAsInt("REDIS_DB", 0),
		WebhookURL:        os.Getenv("WEBHOOK_URL"),
		WebhookSecret:     os.Getenv("WEBHOOK_SECRET"),
		WebhookTimeout:    getEnvAsDuration("WEBHOOK_TIMEOUT", 5*time.Second),
		WebhookMaxRetries: getEnvAsInt("WEBHOOK_MAX_RETRIES", 3),
		WebhookBaseDelay:  getEnvAsDuration("WEBHOOK_BASE_DELAY", time.Second),
		APIBaseURL:        getEnv("API_BASE_URL", "http://localhost:8080/api/v1"),
		APIToken:          os.Getenv("API_TOKEN"),
		CachePath:         os.Getenv("CACHE_PATH"),
		RefreshInterval:   getEnvAsDuration("REFRESH_INTERVAL", 30*time.Second),
		RequestTimeout:    getEnvAsDuration("REQUEST_TIMEOUT", 10*time.Second),
		RequestsPerSecond: getEnvAsInt("REQUESTS_PER_SECOND", 10),
		FallbackLat:       getEnvAsFloat("FALLBACK_LAT", 6.5244),
		FallbackLng:       getEnvAsFloat("FALLBACK_LNG", 3.3792),
	}

	return cfg, nil
}

// getEnv возвращает значение переменной окружения или значение по умолчанию
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt возвращает значение переменной окружения как int или значение по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsFloat возвращает значение переменной окружения как float64 или значение по умолчанию
func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsDuration возвращает значение переменной окружения как time.Duration или значение по умолчанию
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}
