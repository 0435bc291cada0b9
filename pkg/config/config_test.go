package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "followgraph/pkg/errors"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Refresh.WindowHours != 24 {
		t.Errorf("Expected default refresh window to be 24h, got %v", config.Refresh.WindowHours)
	}

	if config.Paging.RateLimitBackoff != 15*time.Minute {
		t.Errorf("Expected default rate limit backoff to be 15m, got %v", config.Paging.RateLimitBackoff)
	}

	if config.Output.NodesFile != "nodes.csv" {
		t.Errorf("Expected default nodes file to be nodes.csv, got %s", config.Output.NodesFile)
	}

	if err := config.Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}

func TestRefreshWindow(t *testing.T) {
	config := DefaultConfig()

	config.Refresh.WindowHours = 1.5
	assert.Equal(t, 90*time.Minute, config.RefreshWindow())

	config.Refresh.WindowHours = 0
	assert.Equal(t, time.Duration(0), config.RefreshWindow())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FOLLOWGRAPH_CONSUMER_KEY", "ck")
	t.Setenv("FOLLOWGRAPH_CONSUMER_SECRET", "cs")
	t.Setenv("FOLLOWGRAPH_ACCESS_TOKEN", "at")
	t.Setenv("FOLLOWGRAPH_ACCESS_TOKEN_SECRET", "ats")
	t.Setenv("FOLLOWGRAPH_REFRESH_HOURS", "6")
	t.Setenv("FOLLOWGRAPH_PAGE_DELAY_MS", "250")
	t.Setenv("FOLLOWGRAPH_CACHE_DIR", "/tmp/fg-cache")
	t.Setenv("FOLLOWGRAPH_ON_TARGET_ERROR", "SKIP")
	t.Setenv("FOLLOWGRAPH_LOG_LEVEL", "debug")

	config := DefaultConfig()
	require.NoError(t, config.LoadFromEnv())

	assert.Equal(t, "ck", config.Twitter.ConsumerKey)
	assert.Equal(t, "cs", config.Twitter.ConsumerSecret)
	assert.Equal(t, "at", config.Twitter.AccessToken)
	assert.Equal(t, "ats", config.Twitter.AccessTokenSecret)
	assert.Equal(t, 6.0, config.Refresh.WindowHours)
	assert.Equal(t, 250*time.Millisecond, config.Paging.PageDelay)
	assert.Equal(t, "/tmp/fg-cache", config.Cache.Directory)
	assert.Equal(t, OnErrorSkip, config.Errors.OnTargetError)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestLoadFromEnvRejectsBadNumbers(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"FOLLOWGRAPH_REFRESH_HOURS", "soon"},
		{"FOLLOWGRAPH_PAGE_DELAY_MS", "fast"},
		{"FOLLOWGRAPH_REQUESTS_PER_MINUTE", "fifteen"},
		{"FOLLOWGRAPH_REQUESTS_PER_MINUTE", "15abc"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			config := DefaultConfig()
			err := config.LoadFromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
			assert.Equal(t, 0, config.RateLimit.RequestsPerMinute)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantError bool
	}{
		{
			name:      "valid config",
			mutate:    func(c *Config) {},
			wantError: false,
		},
		{
			name:      "zero refresh window forces refresh",
			mutate:    func(c *Config) { c.Refresh.WindowHours = 0 },
			wantError: false,
		},
		{
			name:      "negative refresh window",
			mutate:    func(c *Config) { c.Refresh.WindowHours = -1 },
			wantError: true,
		},
		{
			name:      "negative page delay",
			mutate:    func(c *Config) { c.Paging.PageDelay = -time.Second },
			wantError: true,
		},
		{
			name:      "zero rate limit backoff",
			mutate:    func(c *Config) { c.Paging.RateLimitBackoff = 0 },
			wantError: true,
		},
		{
			name:      "unknown error policy",
			mutate:    func(c *Config) { c.Errors.OnTargetError = "ignore" },
			wantError: true,
		},
		{
			name:      "invalid log level",
			mutate:    func(c *Config) { c.Logging.Level = "invalid" },
			wantError: true,
		},
		{
			name: "pacing enabled without burst",
			mutate: func(c *Config) {
				c.RateLimit.RequestsPerMinute = 15
				c.RateLimit.BurstSize = 0
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestValidateCredentials(t *testing.T) {
	config := DefaultConfig()
	config.Twitter.ConsumerKey = "ck"
	config.Twitter.ConsumerSecret = "cs"
	config.Twitter.AccessToken = "at"

	err := config.ValidateCredentials()
	require.Error(t, err)
	assert.True(t, apperrors.IsConfig(err))
	assert.Contains(t, err.Error(), "access_token_secret")

	config.Twitter.AccessTokenSecret = "ats"
	assert.NoError(t, config.ValidateCredentials())
}

func TestApplyCredentialsKeepsExplicitValues(t *testing.T) {
	config := DefaultConfig()
	config.Twitter.ConsumerKey = "from-env"

	config.ApplyCredentials("stored-ck", "stored-cs", "stored-at", "stored-ats")

	assert.Equal(t, "from-env", config.Twitter.ConsumerKey)
	assert.Equal(t, "stored-cs", config.Twitter.ConsumerSecret)
	assert.Equal(t, "stored-at", config.Twitter.AccessToken)
	assert.Equal(t, "stored-ats", config.Twitter.AccessTokenSecret)
}

func TestLoadFromFile(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	content := `
twitter:
  consumer_key: file-ck
targets:
  handles: ["alice", "@carol"]
refresh:
  window_hours: 12
paging:
  page_delay: 500ms
  rate_limit_backoff: 1m
errors:
  on_target_error: skip
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	config := DefaultConfig()
	require.NoError(t, config.LoadFromFile(configPath))

	assert.Equal(t, "file-ck", config.Twitter.ConsumerKey)
	assert.Equal(t, []string{"alice", "@carol"}, config.Targets.Handles)
	assert.Equal(t, 12.0, config.Refresh.WindowHours)
	assert.Equal(t, 500*time.Millisecond, config.Paging.PageDelay)
	assert.Equal(t, time.Minute, config.Paging.RateLimitBackoff)
	assert.Equal(t, OnErrorSkip, config.Errors.OnTargetError)
	// Untouched sections keep their defaults
	assert.Equal(t, "nodes.csv", config.Output.NodesFile)
}

func TestLoadPrecedence(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("refresh:\n  window_hours: 12\ncache:\n  directory: /from/file\n"), 0644))

	t.Setenv("FOLLOWGRAPH_CACHE_DIR", "/from/env")

	config, err := Load(configPath, map[string]interface{}{
		"refresh-hours": 2.0,
	})
	require.NoError(t, err)

	assert.Equal(t, 2.0, config.Refresh.WindowHours)
	assert.Equal(t, "/from/env", config.Cache.Directory)
}

func TestTargetsFileFlagReplacesInlineHandles(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("targets:\n  handles: [alice, bob]\n"), 0644))

	fromFile, err := Load(configPath, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, fromFile.Targets.Handles)

	withFlag, err := Load(configPath, map[string]interface{}{
		"targets-file": "targets.txt",
	})
	require.NoError(t, err)
	assert.Equal(t, "targets.txt", withFlag.Targets.File)
	assert.Empty(t, withFlag.Targets.Handles)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	config := DefaultConfig()
	config.Targets.Handles = []string{"alice"}
	require.NoError(t, config.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, config.Targets.Handles, loaded.Targets.Handles)
	assert.Equal(t, config.Paging, loaded.Paging)
}
