package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseURL        string
	RedisURL           string
	NatsURL            string
	KafkaBrokers       string
	JaegerEndpoint     string
	Port               string
	CheckTimeout       time.Duration
	RateLimitPerMinute int
	CacheTTL           time.Duration
}

func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8084"
	}

	return &Config{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		NatsURL:            os.Getenv("NATS_URL"),
		KafkaBrokers:       os.Getenv("KAFKA_BROKERS"),
		JaegerEndpoint:     os.Getenv("JAEGER_ENDPOINT"),
		Port:               port,
		CheckTimeout:       time.Duration(getInt("CHECK_TIMEOUT_MS", 5000)) * time.Millisecond,
		RateLimitPerMinute: getInt("RATE_LIMIT_PER_MINUTE", 10),
		CacheTTL:           time.Duration(getInt("CACHE_TTL_SECONDS", 300)) * time.Second,
	}
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
