// Package config defines service configuration and its defaults.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config contains process configuration. Field tags match the environment
// variable names once lower-cased (HTTP_PORT -> http_port).
type Config struct {
	HTTPPort int    `koanf:"http_port"`
	LogLevel string `koanf:"log_level"`

	// ProxyHeader is only honoured for peers listed in TrustedProxies
	// (addresses or CIDR ranges). Everyone else is keyed by the peer address.
	ProxyHeader    string   `koanf:"proxy_header"`
	TrustedProxies []string `koanf:"trusted_proxies"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// DBDriver selects the job registry backend: postgres or sqlite.
	DBDriver     string        `koanf:"db_driver"`
	DatabaseURL  string        `koanf:"database_url"`
	DBDatabase   string        `koanf:"db_database"`
	JobRetention time.Duration `koanf:"job_retention"`

	// GuestDailyLimit and UserDailyLimit are the per-window ceilings of the
	// two limiter classes.
	GuestDailyLimit int64         `koanf:"guest_daily_limit"`
	UserDailyLimit  int64         `koanf:"user_daily_limit"`
	QuotaWindow     time.Duration `koanf:"quota_window"`
	MaxQueryLength  int           `koanf:"max_query_length"`
	MaxRosterSize   int           `koanf:"max_roster_size"`

	UpstreamBaseURL string        `koanf:"upstream_base_url"`
	UpstreamTimeout time.Duration `koanf:"upstream_timeout"`
	ClassifierURL   string        `koanf:"classifier_url"`

	PollInterval    time.Duration `koanf:"poll_interval"`
	MaxPolls        int           `koanf:"max_polls"`
	MaxPollDuration time.Duration `koanf:"max_poll_duration"`

	SeedProgress      int      `koanf:"seed_progress"`
	DefaultEcosystems []string `koanf:"default_ecosystems"`

	IdentityCacheTTL time.Duration `koanf:"identity_cache_ttl"`
	JWTSecret        string        `koanf:"jwt_secret"`

	MinioEndpoint   string `koanf:"minio_endpoint"`
	MinioAccessKey  string `koanf:"minio_access_key"`
	MinioSecretKey  string `koanf:"minio_secret_key"`
	MinioUseSSL     bool   `koanf:"minio_use_ssl"`
	MinioBucketName string `koanf:"minio_bucket_name"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		HTTPPort: 8000,
		LogLevel: "INFO",

		ProxyHeader: "X-Forwarded-For",

		RedisAddr: "localhost:6379",

		DBDriver:     "postgres",
		DBDatabase:   "devscope.db",
		JobRetention: 30 * 24 * time.Hour,

		GuestDailyLimit: 20,
		UserDailyLimit:  100,
		QuotaWindow:     24 * time.Hour,
		MaxQueryLength:  500,
		MaxRosterSize:   100,

		UpstreamBaseURL: "http://localhost:8080",
		UpstreamTimeout: 30 * time.Second,

		PollInterval:    5 * time.Second,
		MaxPolls:        180,
		MaxPollDuration: 20 * time.Minute,

		SeedProgress:      10,
		DefaultEcosystems: []string{"Ethereum", "Base", "Solana"},

		IdentityCacheTTL: 5 * time.Minute,

		MinioBucketName: "devscope-reports",
	}
}

// Validate checks the invariants the gateway and poller depend on.
func (c *Config) Validate() error {
	if c.HTTPPort <= 0 {
		return fmt.Errorf("http_port must be positive, got %d", c.HTTPPort)
	}
	if c.GuestDailyLimit <= 0 || c.UserDailyLimit <= 0 {
		return errors.New("daily limits must be positive")
	}
	if c.GuestDailyLimit >= c.UserDailyLimit {
		return fmt.Errorf("guest_daily_limit (%d) must be lower than user_daily_limit (%d)", c.GuestDailyLimit, c.UserDailyLimit)
	}
	if c.QuotaWindow <= 0 {
		return errors.New("quota_window must be positive")
	}
	if c.MaxQueryLength <= 0 || c.MaxRosterSize <= 0 {
		return errors.New("max_query_length and max_roster_size must be positive")
	}
	if c.PollInterval <= 0 || c.MaxPolls <= 0 || c.MaxPollDuration <= 0 {
		return errors.New("poll_interval, max_polls and max_poll_duration must be positive")
	}
	if c.SeedProgress < 0 || c.SeedProgress > 100 {
		return fmt.Errorf("seed_progress must be within 0..100, got %d", c.SeedProgress)
	}
	if len(c.DefaultEcosystems) == 0 {
		return errors.New("default_ecosystems must not be empty")
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported db_driver %q", c.DBDriver)
	}
	return nil
}
