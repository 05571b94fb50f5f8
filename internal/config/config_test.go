package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	for _, name := range []string{"API_KEY", "PORT", "HONEYPOT_AUTH_API_KEY", "HONEYPOT_SERVER_HTTP_PORT"} {
		t.Setenv(name, "")
	}

	cfg, err := LoadDefault()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.HTTPPort)
	assert.Equal(t, "x-api-key", cfg.Auth.Header)
	assert.Empty(t, cfg.Auth.APIKey)
	assert.Equal(t, StoreDriverMemory, cfg.Store.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Store.TTL)
	assert.Equal(t, DefaultKeywords(), cfg.Honeypot.Keywords)
	assert.Equal(t, 2, cfg.Honeypot.ScamThreshold)
	assert.True(t, cfg.Honeypot.ExtractRequiresScam)
	assert.Equal(t, 3, cfg.Honeypot.ReportMinMessages)
	assert.Len(t, cfg.Honeypot.NeutralReplies, 3)
	assert.False(t, cfg.LLM.Enabled)
	assert.Equal(t, 8*time.Second, cfg.LLM.Timeout)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  http_port: 8080
honeypot:
  keywords: [lottery, gift]
  scam_threshold: 1
store:
  ttl: 30m
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, []string{"lottery", "gift"}, cfg.Honeypot.Keywords)
	assert.Equal(t, 1, cfg.Honeypot.ScamThreshold)
	assert.Equal(t, 30*time.Minute, cfg.Store.TTL)
	assert.Equal(t, "Hello, how can I help you?", cfg.Honeypot.PingReply, "unset keys keep defaults")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("API_KEY", "secret")
	t.Setenv("PORT", "4000")
	t.Setenv("HONEYPOT_LOGGER_LEVEL", "debug")
	t.Setenv("HONEYPOT_HONEYPOT_SCAM_THRESHOLD", "3")

	cfg, err := LoadDefault()
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.Auth.APIKey)
	assert.Equal(t, 4000, cfg.Server.HTTPPort)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, 3, cfg.Honeypot.ScamThreshold)
}

func TestLoad_PrefixedEnvironmentWins(t *testing.T) {
	t.Setenv("API_KEY", "bare")
	t.Setenv("HONEYPOT_AUTH_API_KEY", "prefixed")

	cfg, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.Auth.APIKey)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := LoadDefault()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"unknown driver", func(c *Config) { c.Store.Driver = "sqlite" }, "invalid store driver"},
		{"redis without redis", func(c *Config) { c.Store.Driver = StoreDriverRedis }, "requires redis.enabled"},
		{"redis enabled", func(c *Config) { c.Store.Driver = StoreDriverRedis; c.Redis.Enabled = true }, ""},
		{"postgres without database", func(c *Config) { c.Store.Driver = StoreDriverPostgres }, "requires database.enabled"},
		{"zero threshold", func(c *Config) { c.Honeypot.ScamThreshold = 0 }, "scam_threshold"},
		{"no neutral replies", func(c *Config) { c.Honeypot.NeutralReplies = nil }, "neutral_replies"},
		{"bad llm provider", func(c *Config) { c.LLM.Enabled = true; c.LLM.Provider = "bard" }, "unsupported llm provider"},
		{"claude provider", func(c *Config) { c.LLM.Enabled = true; c.LLM.Provider = "claude" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{User: "u", Password: "p", Host: "h", Port: 5432, DBName: "d", SSLMode: "disable", Schema: "public"}
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable&search_path=public", c.DSN())
	assert.Equal(t, "localhost:6379", RedisConfig{Host: "localhost", Port: 6379}.Addr())
}
