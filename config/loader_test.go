package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(ConfigFileEnv, "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(20), cfg.GuestDailyLimit)
	assert.Equal(t, int64(100), cfg.UserDailyLimit)
	assert.Equal(t, 24*time.Hour, cfg.QuotaWindow)
	assert.Equal(t, []string{"Ethereum", "Base", "Solana"}, cfg.DefaultEcosystems)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "devscope.yaml")
	yaml := "guest_daily_limit: 5\nuser_daily_limit: 50\npoll_interval: 2s\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv(ConfigFileEnv, path)
	t.Setenv("USER_DAILY_LIMIT", "75")
	t.Setenv("DEFAULT_ECOSYSTEMS", "Base,Polygon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(5), cfg.GuestDailyLimit)
	assert.Equal(t, int64(75), cfg.UserDailyLimit)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, []string{"Base", "Polygon"}, cfg.DefaultEcosystems)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv(ConfigFileEnv, filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "guest ceiling not below user ceiling", mutate: func(c *Config) { c.GuestDailyLimit = c.UserDailyLimit }, wantErr: true},
		{name: "zero window", mutate: func(c *Config) { c.QuotaWindow = 0 }, wantErr: true},
		{name: "zero poll ceiling", mutate: func(c *Config) { c.MaxPolls = 0 }, wantErr: true},
		{name: "seed progress out of range", mutate: func(c *Config) { c.SeedProgress = 101 }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.DBDriver = "mysql" }, wantErr: true},
		{name: "sqlite driver", mutate: func(c *Config) { c.DBDriver = "sqlite" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_EnvLists(t *testing.T) {
	t.Setenv(ConfigFileEnv, "")
	t.Setenv("DEFAULT_ECOSYSTEMS", " Base , Polygon,,Solana ")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,127.0.0.1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"Base", "Polygon", "Solana"}, cfg.DefaultEcosystems)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.TrustedProxies)
	assert.Equal(t, "X-Forwarded-For", cfg.ProxyHeader)
}

func TestLoad_EnvListWithoutEntries(t *testing.T) {
	t.Setenv(ConfigFileEnv, "")
	t.Setenv("DEFAULT_ECOSYSTEMS", " , ")

	_, err := Load()
	assert.Error(t, err)
}
