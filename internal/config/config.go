// Package config loads client configuration from an optional .env file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/and161185/nullscape-admin/internal/api"
	"github.com/and161185/nullscape-admin/internal/toast"
)

// Cookie store kinds.
const (
	StoreFile   = "file"
	StoreBolt   = "bolt"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Config holds all client configuration.
type Config struct {
	APIURL       string
	Host         string
	Store        string
	StoreDir     string
	RedisAddr    string
	CookieSecret string
	JournalDSN   string
	AutoRefresh  bool
	Timeout      time.Duration
	ToastTimeout time.Duration
}

// Load reads the given .env files (missing files are skipped; none means
// ".env") and then the environment. Variables already set in the
// environment win over file values.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{
		APIURL:       getEnv("NULLSCAPE_API_URL", ""),
		Host:         getEnv("NULLSCAPE_HOST", "localhost"),
		Store:        strings.ToLower(getEnv("NULLSCAPE_STORE", StoreFile)),
		StoreDir:     getEnv("NULLSCAPE_STORE_DIR", ""),
		RedisAddr:    getEnv("NULLSCAPE_REDIS_ADDR", "localhost:6379"),
		CookieSecret: getEnv("NULLSCAPE_COOKIE_SECRET", ""),
		JournalDSN:   getEnv("NULLSCAPE_JOURNAL_DSN", ""),
	}

	var err error
	if cfg.AutoRefresh, err = getBool("NULLSCAPE_AUTO_REFRESH", false); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = getDuration("NULLSCAPE_TIMEOUT", api.DefaultTimeout); err != nil {
		return nil, err
	}
	if cfg.ToastTimeout, err = getDuration("NULLSCAPE_TOAST_TIMEOUT", toast.DefaultTimeout); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field combinations.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreFile, StoreBolt, StoreMemory:
	case StoreRedis:
		if c.RedisAddr == "" {
			return errors.New("NULLSCAPE_REDIS_ADDR is required for the redis store")
		}
	default:
		return fmt.Errorf("unknown cookie store %q", c.Store)
	}
	if c.Timeout <= 0 {
		return errors.New("NULLSCAPE_TIMEOUT must be positive")
	}
	if c.ToastTimeout < 0 {
		return errors.New("NULLSCAPE_TOAST_TIMEOUT must not be negative")
	}
	return nil
}

// BaseURL resolves the API root from the override and host.
func (c *Config) BaseURL() string {
	return api.ResolveBaseURL(c.APIURL, c.Host)
}

// getEnv gets environment variable with fallback
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

// getDuration accepts Go durations ("5s") or plain milliseconds ("3000").
func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
