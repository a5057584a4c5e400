package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	strs "ballotbox/pkg/platform/strings"
)

// Environment names recognised by FromEnv.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Server captures HTTP server level configuration plus the collaborators the
// server wires at startup.
type Server struct {
	Addr        string
	Environment string
	LogLevel    string

	JWTSigningKey string
	AdminAPIToken string
	// NvoteSecret seeds the HKDF-derived key used to sign web voting tokens.
	NvoteSecret string
	// Location fixes the calendar used for officer shifts and daily recounts.
	Location *time.Location

	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Census   CensusConfig
	Throttle ThrottleConfig
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnTimeout     time.Duration
	// AutoMigrate applies embedded migrations on boot (development only).
	AutoMigrate bool
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type KafkaConfig struct {
	Brokers     []string
	AuditTopic  string
	ClientID    string
	DialTimeout time.Duration
}

// CensusConfig points at the external census authority. An empty URL selects
// the in-process stub.
type CensusConfig struct {
	URL              string
	Timeout          time.Duration
	CacheTTL         time.Duration
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// ThrottleConfig bounds census attempts per client inside a sliding window.
type ThrottleConfig struct {
	Limit  int
	Window time.Duration
}

// CensusCacheTTL enforces retention for cached census matches.
var CensusCacheTTL = 5 * time.Minute

const devSecret = "dev-secret-key-change-in-production"

// FromEnv builds a Server config from environment variables so main stays lean.
// A .env file in the working directory is loaded first when present; real
// environment variables win over it.
func FromEnv() (Server, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Server{}, fmt.Errorf("load .env: %w", err)
	}

	env := getString("BALLOTBOX_ENV", EnvDevelopment)
	tz := getString("BALLOTBOX_TIMEZONE", "Europe/Madrid")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Server{}, fmt.Errorf("load timezone %q: %w", tz, err)
	}

	cfg := Server{
		Addr:          getString("BALLOTBOX_ADDR", ":8080"),
		Environment:   env,
		LogLevel:      getString("LOG_LEVEL", "info"),
		JWTSigningKey: getString("JWT_SIGNING_KEY", devSecret),
		AdminAPIToken: getString("ADMIN_API_TOKEN", ""),
		NvoteSecret:   getString("NVOTE_SECRET", devSecret),
		Location:      loc,
		Database: DatabaseConfig{
			URL:             getString("DATABASE_URL", ""),
			MaxOpenConns:    getInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnTimeout:     getDuration("DATABASE_CONN_TIMEOUT", 5*time.Second),
			AutoMigrate:     getBool("DATABASE_AUTO_MIGRATE", env == EnvDevelopment),
		},
		Redis: RedisConfig{
			URL:          getString("REDIS_URL", ""),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:     getList("KAFKA_BROKERS"),
			AuditTopic:  getString("KAFKA_AUDIT_TOPIC", "ballotbox.audit"),
			ClientID:    getString("KAFKA_CLIENT_ID", "ballotbox"),
			DialTimeout: getDuration("KAFKA_DIAL_TIMEOUT", 5*time.Second),
		},
		Census: CensusConfig{
			URL:              getString("CENSUS_URL", ""),
			Timeout:          getDuration("CENSUS_TIMEOUT", 3*time.Second),
			CacheTTL:         getDuration("CENSUS_CACHE_TTL", CensusCacheTTL),
			BreakerThreshold: getInt("CENSUS_BREAKER_THRESHOLD", 5),
			BreakerCooldown:  getDuration("CENSUS_BREAKER_COOLDOWN", 30*time.Second),
		},
		Throttle: ThrottleConfig{
			Limit:  getInt("CENSUS_ATTEMPT_LIMIT", 30),
			Window: getDuration("CENSUS_ATTEMPT_WINDOW", time.Minute),
		},
	}

	if err := cfg.validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

func (s Server) validate() error {
	if s.Environment != EnvProduction {
		return nil
	}
	if s.JWTSigningKey == devSecret {
		return errors.New("JWT_SIGNING_KEY must be set in production")
	}
	if s.NvoteSecret == devSecret {
		return errors.New("NVOTE_SECRET must be set in production")
	}
	if s.AdminAPIToken == "" {
		return errors.New("ADMIN_API_TOKEN must be set in production")
	}
	if s.Database.URL == "" {
		return errors.New("DATABASE_URL must be set in production")
	}
	if s.Census.URL == "" {
		return errors.New("CENSUS_URL must be set in production")
	}
	return nil
}

// IsDevelopment reports whether the server runs with development defaults.
func (s Server) IsDevelopment() bool {
	return s.Environment != EnvProduction
}

func getString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getList(key string) []string {
	return strs.SplitList(os.Getenv(key))
}
