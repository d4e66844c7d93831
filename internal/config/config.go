package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/skillcoder/workload-reconciler/internal/infra/retry"
	"github.com/skillcoder/workload-reconciler/internal/logic/restart"
)

const (
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	KubeConfig        string
	KubeMaster        string
	Namespace         string
	LogLevel          string
	LogFormat         string
	HTTPPort          string
	MetricsPort       string
	Interval          time.Duration
	PingerInterval    time.Duration
	Store             string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	APITimeout        time.Duration
	APIMaxRetries     int
	BackoffInitial    time.Duration
	BackoffMax        time.Duration
	BackoffResetAfter time.Duration
	TerminationFile   string
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		KubeConfig:      getEnvWithFallback(envKeyKubeConfig, envKeyKubeConfigFallback),
		KubeMaster:      getEnvWithFallback(envKeyKubeMaster, envKeyKubeMasterFallback),
		Namespace:       getEnvOrDefault(envKeyNamespace, "default"),
		LogLevel:        getEnvOrDefault(envKeyLogLevel, "info"),
		LogFormat:       getEnvOrDefault(envKeyLogFormat, "json"),
		HTTPPort:        getEnvOrDefault(envKeyHTTPPort, "8080"),
		MetricsPort:     getEnvOrDefault(envKeyMetricsPort, "9090"),
		Store:           getEnvOrDefault(envKeyStore, StoreRedis),
		RedisAddr:       getEnvOrDefault(envKeyRedisAddr, "localhost:6379"),
		RedisPassword:   os.Getenv(envKeyRedisPassword),
		TerminationFile: os.Getenv(envKeyTerminationFile),
	}

	if cfg.Store != StoreRedis && cfg.Store != StoreMemory {
		return nil, fmt.Errorf("%w: %s must be %q or %q, got %q", ErrInvalid, envKeyStore, StoreRedis, StoreMemory, cfg.Store)
	}

	var err error

	durations := []struct {
		dst *time.Duration
		key string
		def time.Duration
		min time.Duration
	}{
		{&cfg.Interval, envKeyInterval, 10 * time.Second, envMinInterval},
		{&cfg.PingerInterval, envKeyPingerInterval, 10 * time.Second, envMinPingerInterval},
		{&cfg.APITimeout, envKeyAPITimeout, retry.DefaultTimeout, envMinAPITimeout},
		{&cfg.BackoffInitial, envKeyBackoffInitial, restart.DefaultInitial, envMinBackoffInitial},
		{&cfg.BackoffMax, envKeyBackoffMax, restart.DefaultMax, envMinBackoffInitial},
		{&cfg.BackoffResetAfter, envKeyBackoffResetAfter, restart.DefaultResetAfter, envMinBackoffResetAfter},
	}

	for _, d := range durations {
		if *d.dst, err = parseDuration(d.key, d.def, d.min); err != nil {
			return nil, err
		}
	}

	if cfg.BackoffMax < cfg.BackoffInitial {
		return nil, fmt.Errorf("%w: %s (%s) is below %s (%s)",
			ErrInvalid, envKeyBackoffMax, cfg.BackoffMax, envKeyBackoffInitial, cfg.BackoffInitial)
	}

	if cfg.RedisDB, err = parseInt(envKeyRedisDB, 0); err != nil {
		return nil, err
	}

	if cfg.APIMaxRetries, err = parseInt(envKeyAPIMaxRetries, retry.DefaultMaxRetries); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	return value
}

func getEnvWithFallback(key, fallbackKey string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return os.Getenv(fallbackKey)
}

// parseDuration reads a duration with an explicit unit and enforces a minimum.
func parseDuration(key string, defaultValue, minValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}

	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: parse %s: %w", ErrInvalid, key, err)
	}

	if value < minValue {
		return 0, fmt.Errorf("%w: %s must be at least %s, got %s", ErrInvalid, key, minValue, value)
	}

	return value, nil
}

func parseInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: parse %s: %w", ErrInvalid, key, err)
	}

	if value < 0 {
		return 0, fmt.Errorf("%w: %s must not be negative, got %d", ErrInvalid, key, value)
	}

	return value, nil
}
