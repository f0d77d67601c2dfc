package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort           string
	APIBaseURL         string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	SessionTTL         time.Duration
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64
	RateLimitRPS       int
	RateLimitBurst     int
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
	LogLevel           string
	LogFormat          string
	SecureCookies      bool
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real env vars win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		APIBaseURL:         getEnv("API_BASE_URL", "https://restaurant-be-400174736012.asia-southeast2.run.app"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		SessionTTL:         getEnvDuration("SESSION_TTL", 7*24*time.Hour),
		RequestTimeout:     getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout:    getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxRequestBodySize: 1 << 20, // 1MB
		RateLimitRPS:       getEnvInt("RATE_LIMIT_RPS", 20),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 40),
		BreakerMaxFailures: uint32(getEnvInt("BREAKER_MAX_FAILURES", 5)),
		BreakerOpenTimeout: getEnvDuration("BREAKER_OPEN_TIMEOUT", 30*time.Second),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		SecureCookies:      getEnv("SECURE_COOKIES", "false") == "true",
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultValue
	}
	return d
}
