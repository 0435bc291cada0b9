package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"followgraph/pkg/config"
	"followgraph/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage followgraph configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (FOLLOWGRAPH_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is created as '.followgraph.yaml' in the current directory unless a
different path is given with --config.

With --resolved the file holds the effective settings from the discovered
configuration file, .env files and FOLLOWGRAPH_* variables instead of the
commented template. Credentials are never written.`,
	Example: `  # Commented template
  followgraph config init

  # Snapshot the current environment into a file
  followgraph config init --resolved --config ./run.yaml`,
	RunE: runConfigInit,
}

var initResolved bool

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after merging every source.

Credentials are masked.`,
	RunE: runConfigShow,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Validate the configuration for invalid values and report missing credentials.

This command checks:
  - YAML syntax
  - Value ranges
  - Cache and output directory accessibility`,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)

	initCmd.Flags().BoolVar(&initResolved, "resolved", false, "write the effective settings instead of the template")
}

const exampleConfig = `# followgraph configuration
#
# Every value can also be set with a FOLLOWGRAPH_* environment variable,
# e.g. FOLLOWGRAPH_CONSUMER_KEY or FOLLOWGRAPH_REFRESH_HOURS.

twitter:
  # OAuth 1.0a secrets. Prefer 'followgraph auth login' over storing them here.
  consumer_key: ""
  consumer_secret: ""
  access_token: ""
  access_token_secret: ""
  base_url: "https://api.twitter.com"
  request_timeout: 30s

targets:
  # Inline handles are used when no handles are given on the command line
  handles: []
  # Or one handle per line, '#' starts a comment
  file: ""

refresh:
  # A target fetched less than this many hours ago is served from the cache
  window_hours: 24
  force: false

paging:
  # Pause between pages of one listing
  page_delay: 0s
  # Wait after a rate-limited request before retrying it
  rate_limit_backoff: 15m
  # Stop a listing after this many pages, 0 disables the bound
  max_pages: 0

rate_limit:
  # Proactive pacing across every call, 0 disables it
  requests_per_minute: 0
  burst_size: 1

retry:
  # Transport and server errors only; rate limits always wait
  enabled: true
  max_attempts: 3
  initial_delay: 1s
  max_delay: 30s
  multiplier: 2.0

cache:
  directory: "./cache"

output:
  directory: "."
  nodes_file: "nodes.csv"
  following_file: "following.csv"
  followers_file: "followers.csv"

errors:
  # abort stops the run at the first failing target, skip logs it and continues
  on_target_error: abort

logging:
  level: info
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".followgraph.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		return fmt.Errorf("refusing to overwrite %s", configPath)
	}

	if initResolved {
		if err := writeResolvedConfig(configPath); err != nil {
			return err
		}
	} else {
		if dir := filepath.Dir(configPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create config directory: %w", err)
			}
		}
		if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
			return fmt.Errorf("failed to create configuration file: %w", err)
		}
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	out := ui.Out()
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "1. Run 'followgraph auth login' to store your API credentials")
	fmt.Fprintln(out, "2. Run 'followgraph config validate' to check the configuration")
	fmt.Fprintln(out, "3. Start collecting with 'followgraph collect <handle>'")
	return nil
}

// writeResolvedConfig saves the configuration merged from the default
// sources to path, with every credential blanked
func writeResolvedConfig(path string) error {
	cfg, err := config.Load("", nil)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.Twitter.ConsumerKey = ""
	cfg.Twitter.ConsumerSecret = ""
	cfg.Twitter.AccessToken = ""
	cfg.Twitter.AccessTokenSecret = ""

	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	if err := ui.PrintTable([]string{"Setting", "Value"}, configRows(cfg)); err != nil {
		return err
	}

	source := configFile
	if source == "" {
		source = config.FindConfigFile()
	}
	if source == "" {
		source = "(none found, using defaults)"
	}
	ui.PrintInfo("Configuration file", source)
	return nil
}

func configRows(cfg *config.Config) [][]string {
	return [][]string{
		{"Consumer key", maskSecret(cfg.Twitter.ConsumerKey)},
		{"Consumer secret", maskSecret(cfg.Twitter.ConsumerSecret)},
		{"Access token", maskSecret(cfg.Twitter.AccessToken)},
		{"Access token secret", maskSecret(cfg.Twitter.AccessTokenSecret)},
		{"API base URL", cfg.Twitter.BaseURL},
		{"Request timeout", cfg.Twitter.RequestTimeout.String()},
		{"Targets file", cfg.Targets.File},
		{"Inline targets", strconv.Itoa(len(cfg.Targets.Handles))},
		{"Refresh window", cfg.RefreshWindow().String()},
		{"Force refresh", strconv.FormatBool(cfg.Refresh.Force)},
		{"Page delay", cfg.Paging.PageDelay.String()},
		{"Rate limit backoff", cfg.Paging.RateLimitBackoff.String()},
		{"Max pages", strconv.Itoa(cfg.Paging.MaxPages)},
		{"Requests per minute", strconv.Itoa(cfg.RateLimit.RequestsPerMinute)},
		{"Transport retries", fmt.Sprintf("%v (max %d)", cfg.Retry.Enabled, cfg.Retry.MaxAttempts)},
		{"Cache directory", cfg.Cache.Directory},
		{"Output directory", cfg.Output.Directory},
		{"On target error", cfg.Errors.OnTargetError},
		{"Log level", cfg.Logging.Level},
	}
}

func maskSecret(s string) string {
	switch {
	case s == "":
		return "(not set)"
	case len(s) > 8:
		return s[:4] + "..." + s[len(s)-4:]
	default:
		return "***"
	}
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = config.FindConfigFile()
	}
	if path != "" {
		ui.PrintInfo("Validating configuration", path)
	} else {
		ui.PrintInfo("Validating configuration", "(defaults and environment)")
	}

	cfg, err := loadConfig(nil)
	if err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	var problems []string
	for _, dir := range []string{cfg.Cache.Directory, cfg.Output.Directory} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create directory %s: %v", dir, err))
		}
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create log directory: %v", err))
		}
	}

	if len(problems) > 0 {
		ui.PrintError("Configuration has errors")
		for _, p := range problems {
			ui.PrintError("  - " + p)
		}
		return fmt.Errorf("%d configuration problems", len(problems))
	}

	if err := cfg.ValidateCredentials(); err != nil {
		ui.PrintWarning("Credentials", err)
		ui.PrintWarning("Stored credentials from 'followgraph auth login' are applied at collect time")
	}

	ui.PrintSuccess("Configuration is valid")
	return nil
}
