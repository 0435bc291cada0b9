package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	apperrors "followgraph/pkg/errors"
)

// Target error policies
const (
	OnErrorAbort = "abort"
	OnErrorSkip  = "skip"
)

// Config holds all configuration options for followgraph
type Config struct {
	// API credentials and endpoint
	Twitter TwitterConfig `yaml:"twitter" json:"twitter"`

	// Accounts to collect
	Targets TargetsConfig `yaml:"targets" json:"targets"`

	// Staleness of cached graphs
	Refresh RefreshConfig `yaml:"refresh" json:"refresh"`

	// Cursor pagination pacing
	Paging PagingConfig `yaml:"paging" json:"paging"`

	// Proactive request budget shared by all calls
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Transient transport retry
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Per-target cache location
	Cache CacheConfig `yaml:"cache" json:"cache"`

	// Exported tables
	Output OutputConfig `yaml:"output" json:"output"`

	// Per-target failure policy
	Errors ErrorsConfig `yaml:"errors" json:"errors"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// TwitterConfig holds the four OAuth 1.0a secrets and endpoint settings
type TwitterConfig struct {
	ConsumerKey       string        `yaml:"consumer_key" json:"consumer_key"`
	ConsumerSecret    string        `yaml:"consumer_secret" json:"consumer_secret"`
	AccessToken       string        `yaml:"access_token" json:"access_token"`
	AccessTokenSecret string        `yaml:"access_token_secret" json:"access_token_secret"`
	BaseURL           string        `yaml:"base_url" json:"base_url"`
	RequestTimeout    time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// TargetsConfig lists the accounts whose graphs are collected
type TargetsConfig struct {
	File    string   `yaml:"file" json:"file"`
	Handles []string `yaml:"handles" json:"handles"`
}

// RefreshConfig controls when cached graphs are refetched
type RefreshConfig struct {
	WindowHours float64 `yaml:"window_hours" json:"window_hours"`
	Force       bool    `yaml:"force" json:"force"`
}

// PagingConfig controls the cursor loop
type PagingConfig struct {
	PageDelay        time.Duration `yaml:"page_delay" json:"page_delay"`
	RateLimitBackoff time.Duration `yaml:"rate_limit_backoff" json:"rate_limit_backoff"`
	MaxPages         int           `yaml:"max_pages" json:"max_pages"`
}

// RateLimitConfig holds proactive pacing configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int `yaml:"burst_size" json:"burst_size"`
}

// RetryConfig holds retry configuration for network and server errors
type RetryConfig struct {
	Enabled      bool          `yaml:"enabled" json:"enabled"`
	MaxAttempts  int           `yaml:"max_attempts" json:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay" json:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier   float64       `yaml:"multiplier" json:"multiplier"`
}

// CacheConfig holds the refresh cache location
type CacheConfig struct {
	Directory string `yaml:"directory" json:"directory"`
}

// OutputConfig holds output table configuration
type OutputConfig struct {
	Directory     string `yaml:"directory" json:"directory"`
	NodesFile     string `yaml:"nodes_file" json:"nodes_file"`
	FollowingFile string `yaml:"following_file" json:"following_file"`
	FollowersFile string `yaml:"followers_file" json:"followers_file"`
}

// ErrorsConfig selects what happens when one target fails
type ErrorsConfig struct {
	OnTargetError string `yaml:"on_target_error" json:"on_target_error"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Twitter: TwitterConfig{
			BaseURL:        "https://api.twitter.com",
			RequestTimeout: 30 * time.Second,
		},
		Refresh: RefreshConfig{
			WindowHours: 24,
		},
		Paging: PagingConfig{
			PageDelay:        0,
			RateLimitBackoff: 15 * time.Minute,
			MaxPages:         0,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 0,
			BurstSize:         1,
		},
		Retry: RetryConfig{
			Enabled:      true,
			MaxAttempts:  3,
			InitialDelay: time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
		Cache: CacheConfig{
			Directory: "./cache",
		},
		Output: OutputConfig{
			Directory:     ".",
			NodesFile:     "nodes.csv",
			FollowingFile: "following.csv",
			FollowersFile: "followers.csv",
		},
		Errors: ErrorsConfig{
			OnTargetError: OnErrorAbort,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// RefreshWindow converts the hours-based window into a duration
func (c *Config) RefreshWindow() time.Duration {
	return time.Duration(c.Refresh.WindowHours * float64(time.Hour))
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("FOLLOWGRAPH_CONSUMER_KEY"); v != "" {
		c.Twitter.ConsumerKey = v
	}
	if v := os.Getenv("FOLLOWGRAPH_CONSUMER_SECRET"); v != "" {
		c.Twitter.ConsumerSecret = v
	}
	if v := os.Getenv("FOLLOWGRAPH_ACCESS_TOKEN"); v != "" {
		c.Twitter.AccessToken = v
	}
	if v := os.Getenv("FOLLOWGRAPH_ACCESS_TOKEN_SECRET"); v != "" {
		c.Twitter.AccessTokenSecret = v
	}
	if v := os.Getenv("FOLLOWGRAPH_BASE_URL"); v != "" {
		c.Twitter.BaseURL = v
	}

	if v := os.Getenv("FOLLOWGRAPH_TARGETS_FILE"); v != "" {
		c.Targets.File = v
	}

	if v := os.Getenv("FOLLOWGRAPH_REFRESH_HOURS"); v != "" {
		hours, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid FOLLOWGRAPH_REFRESH_HOURS %q: %w", v, err)
		}
		c.Refresh.WindowHours = hours
	}

	if v := os.Getenv("FOLLOWGRAPH_PAGE_DELAY_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid FOLLOWGRAPH_PAGE_DELAY_MS %q: %w", v, err)
		}
		c.Paging.PageDelay = time.Duration(ms) * time.Millisecond
	}

	if v := os.Getenv("FOLLOWGRAPH_REQUESTS_PER_MINUTE"); v != "" {
		val, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid FOLLOWGRAPH_REQUESTS_PER_MINUTE %q: %w", v, err)
		}
		c.RateLimit.RequestsPerMinute = val
	}

	if v := os.Getenv("FOLLOWGRAPH_CACHE_DIR"); v != "" {
		c.Cache.Directory = v
	}
	if v := os.Getenv("FOLLOWGRAPH_OUTPUT_DIR"); v != "" {
		c.Output.Directory = v
	}
	if v := os.Getenv("FOLLOWGRAPH_ON_TARGET_ERROR"); v != "" {
		c.Errors.OnTargetError = strings.ToLower(v)
	}
	if v := os.Getenv("FOLLOWGRAPH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".followgraph.yaml",
		".followgraph.yml",
		filepath.Join(home, ".config", "followgraph", "config.yaml"),
		filepath.Join(home, ".config", "followgraph", "config.yml"),
		filepath.Join(home, ".followgraph.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. Credentials are checked
// separately by ValidateCredentials so that commands which never call the
// API can still load a config.
func (c *Config) Validate() error {
	var errs []error

	if c.Twitter.BaseURL == "" {
		errs = append(errs, errors.New("API base URL is required"))
	}
	if c.Twitter.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.Refresh.WindowHours < 0 {
		errs = append(errs, errors.New("refresh window hours cannot be negative"))
	}

	if c.Paging.PageDelay < 0 {
		errs = append(errs, errors.New("page delay cannot be negative"))
	}
	if c.Paging.RateLimitBackoff <= 0 {
		errs = append(errs, errors.New("rate limit backoff must be positive"))
	}
	if c.Paging.MaxPages < 0 {
		errs = append(errs, errors.New("max pages cannot be negative"))
	}

	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}
	if c.RateLimit.RequestsPerMinute > 0 && c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive"))
	}

	if c.Retry.MaxAttempts < 0 {
		errs = append(errs, errors.New("max retry attempts cannot be negative"))
	}

	if c.Cache.Directory == "" {
		errs = append(errs, errors.New("cache directory is required"))
	}
	if c.Output.Directory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Output.NodesFile == "" || c.Output.FollowingFile == "" || c.Output.FollowersFile == "" {
		errs = append(errs, errors.New("output file names are required"))
	}

	switch strings.ToLower(c.Errors.OnTargetError) {
	case OnErrorAbort, OnErrorSkip:
	default:
		errs = append(errs, fmt.Errorf("invalid target error policy %q (want abort or skip)", c.Errors.OnTargetError))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// ValidateCredentials fails fast when any of the four secrets is unset
func (c *Config) ValidateCredentials() error {
	missing := []string{}
	if c.Twitter.ConsumerKey == "" {
		missing = append(missing, "consumer_key")
	}
	if c.Twitter.ConsumerSecret == "" {
		missing = append(missing, "consumer_secret")
	}
	if c.Twitter.AccessToken == "" {
		missing = append(missing, "access_token")
	}
	if c.Twitter.AccessTokenSecret == "" {
		missing = append(missing, "access_token_secret")
	}

	if len(missing) > 0 {
		return apperrors.New(apperrors.ErrorTypeConfig, 0, "twitter credentials not configured: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["targets-file"].(string); ok && v != "" {
		c.Targets.File = v
		c.Targets.Handles = nil
	}
	if v, ok := flags["refresh-hours"].(float64); ok && v >= 0 {
		c.Refresh.WindowHours = v
	}
	if v, ok := flags["force-refresh"].(bool); ok {
		c.Refresh.Force = v
	}
	if v, ok := flags["page-delay"].(time.Duration); ok && v >= 0 {
		c.Paging.PageDelay = v
	}
	if v, ok := flags["rate-limit-backoff"].(time.Duration); ok && v > 0 {
		c.Paging.RateLimitBackoff = v
	}
	if v, ok := flags["max-pages"].(int); ok && v >= 0 {
		c.Paging.MaxPages = v
	}
	if v, ok := flags["requests-per-minute"].(int); ok && v >= 0 {
		c.RateLimit.RequestsPerMinute = v
	}
	if v, ok := flags["cache-dir"].(string); ok && v != "" {
		c.Cache.Directory = v
	}
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Output.Directory = v
	}
	if v, ok := flags["on-error"].(string); ok && v != "" {
		c.Errors.OnTargetError = strings.ToLower(v)
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// ApplyCredentials copies stored secrets into the config where it has none
func (c *Config) ApplyCredentials(consumerKey, consumerSecret, accessToken, accessTokenSecret string) {
	if c.Twitter.ConsumerKey == "" {
		c.Twitter.ConsumerKey = consumerKey
	}
	if c.Twitter.ConsumerSecret == "" {
		c.Twitter.ConsumerSecret = consumerSecret
	}
	if c.Twitter.AccessToken == "" {
		c.Twitter.AccessToken = accessToken
	}
	if c.Twitter.AccessTokenSecret == "" {
		c.Twitter.AccessTokenSecret = accessTokenSecret
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".followgraph.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
