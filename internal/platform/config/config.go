package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	LogFormat     string
	LogLevel      string
	TxTimeout     time.Duration

	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	LRS       LRSConfig
	Companion CompanionConfig
}

type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
}

// RedisConfig configures the course cache. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CourseTTL    time.Duration
}

// KafkaConfig configures the audit sink. No brokers means audit events stay in process.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

type LRSConfig struct {
	Endpoint  string
	Username  string
	Password  string
	RateLimit float64
	Timeout   time.Duration
}

// CompanionConfig addresses the player service that owns remote registrations.
type CompanionConfig struct {
	BaseURL string
	Key     string
	Secret  string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var errs []string
	dur := func(key string, def time.Duration) time.Duration {
		raw := os.Getenv(key)
		if raw == "" {
			return def
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
			return def
		}
		return d
	}
	num := func(key string, def int) int {
		raw := os.Getenv(key)
		if raw == "" {
			return def
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
			return def
		}
		return n
	}

	cfg := Server{
		Addr:          getEnv("CATAPULT_ADDR", ":8080"),
		JWTSigningKey: getEnv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		TxTimeout:     dur("TX_TIMEOUT", 5*time.Second),
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: num("DB_MAX_OPEN_CONNS", 20),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			CourseTTL:    dur("COURSE_CACHE_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:    splitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: getEnv("AUDIT_TOPIC", "catapult.audit"),
		},
		LRS: LRSConfig{
			Endpoint: os.Getenv("LRS_ENDPOINT"),
			Username: os.Getenv("LRS_USERNAME"),
			Password: os.Getenv("LRS_PASSWORD"),
			Timeout:  dur("LRS_TIMEOUT", 10*time.Second),
		},
		Companion: CompanionConfig{
			BaseURL: os.Getenv("PLAYER_BASE_URL"),
			Key:     os.Getenv("PLAYER_KEY"),
			Secret:  os.Getenv("PLAYER_SECRET"),
		},
	}

	if raw := os.Getenv("LRS_RATE_LIMIT"); raw != "" {
		rps, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("LRS_RATE_LIMIT: %v", err))
		}
		cfg.LRS.RateLimit = rps
	}

	if cfg.LRS.Endpoint == "" {
		errs = append(errs, "LRS_ENDPOINT is required")
	}
	if cfg.Companion.BaseURL == "" {
		errs = append(errs, "PLAYER_BASE_URL is required")
	}
	if len(errs) > 0 {
		return Server{}, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
