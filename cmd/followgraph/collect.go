package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"followgraph/pkg/auth"
	"followgraph/pkg/cache"
	"followgraph/pkg/collector"
	"followgraph/pkg/config"
	"followgraph/pkg/export"
	"followgraph/pkg/logger"
	"followgraph/pkg/ratelimit"
	"followgraph/pkg/targets"
	"followgraph/pkg/twitter"
	"followgraph/pkg/ui"
)

var (
	// Collect command flags
	targetsFile      string
	refreshHours     float64
	pageDelay        time.Duration
	rateLimitBackoff time.Duration
	maxPages         int
	requestsPerMin   int
	outputDir        string
	cacheDir         string
	onError          string
	forceRefresh     bool
	profileName      string
)

// collectCmd represents the collect command
var collectCmd = &cobra.Command{
	Use:   "collect [handle...]",
	Short: "Collect the follow graph of the target accounts",
	Long: `Collect the followers and following lists of every target account and write
nodes.csv, following.csv and followers.csv.

Targets come from the command line, or when none are given from the
targets list in the configuration or the targets file (one handle per line,
'#' comments allowed).

Targets fetched within the refresh window are served from the cache.`,
	Example: `  # Collect two accounts
  followgraph collect alice bob

  # Use a targets file and refresh everything
  followgraph collect --targets-file targets.txt --force-refresh

  # Keep going when a target fails and pace pages at one per second
  followgraph collect alice bob --on-error skip --page-delay 1s`,
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)

	collectCmd.Flags().StringVarP(&targetsFile, "targets-file", "f", "", "file with one target handle per line")
	collectCmd.Flags().Float64Var(&refreshHours, "refresh-hours", -1, "refresh window in hours (default from config: 24)")
	collectCmd.Flags().DurationVar(&pageDelay, "page-delay", -1, "pause between pages of one listing")
	collectCmd.Flags().DurationVar(&rateLimitBackoff, "rate-limit-backoff", 0, "wait after a rate-limited request (default 15m)")
	collectCmd.Flags().IntVar(&maxPages, "max-pages", -1, "stop a listing after this many pages (0 disables)")
	collectCmd.Flags().IntVar(&requestsPerMin, "rate-limit", -1, "requests per minute across all calls (0 disables)")
	collectCmd.Flags().StringVarP(&outputDir, "output", "o", "", "directory for the CSV tables")
	collectCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "directory for the refresh cache")
	collectCmd.Flags().StringVar(&onError, "on-error", "", "what to do when a target fails: abort or skip")
	collectCmd.Flags().BoolVar(&forceRefresh, "force-refresh", false, "ignore the refresh window and fetch every target")
	collectCmd.Flags().StringVarP(&profileName, "profile", "p", "", "stored credential profile to use")
}

func collectFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	if targetsFile != "" {
		flags["targets-file"] = targetsFile
	}
	if cmd.Flags().Changed("refresh-hours") {
		flags["refresh-hours"] = refreshHours
	}
	if cmd.Flags().Changed("page-delay") {
		flags["page-delay"] = pageDelay
	}
	if cmd.Flags().Changed("rate-limit-backoff") {
		flags["rate-limit-backoff"] = rateLimitBackoff
	}
	if cmd.Flags().Changed("max-pages") {
		flags["max-pages"] = maxPages
	}
	if cmd.Flags().Changed("rate-limit") {
		flags["requests-per-minute"] = requestsPerMin
	}
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if cacheDir != "" {
		flags["cache-dir"] = cacheDir
	}
	if onError != "" {
		flags["on-error"] = onError
	}
	if forceRefresh {
		flags["force-refresh"] = true
	}
	return flags
}

func runCollect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(collectFlags(cmd))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log := logger.GetLogger()

	if err := applyStoredCredentials(cfg); err != nil {
		return err
	}
	if err := cfg.ValidateCredentials(); err != nil {
		ui.PrintWarning("Run 'followgraph auth login' to store credentials")
		return err
	}

	handles, err := targets.Resolve(args, cfg.Targets.Handles, cfg.Targets.File)
	if err != nil {
		return err
	}
	if len(handles) == 0 {
		return collector.ErrNoTargets
	}

	ui.PrintInfo("Targets", strconv.Itoa(len(handles)))
	ui.PrintInfo("Refresh window", cfg.RefreshWindow().String())

	store, err := cache.NewFileStore(cfg.Cache.Directory)
	if err != nil {
		return err
	}
	refreshCache, err := cache.Open(store, log)
	if err != nil {
		return err
	}
	writer, err := export.NewWriter(cfg.Output, log)
	if err != nil {
		return err
	}

	limiter := ratelimit.New(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.BurstSize)
	client := twitter.NewClient(cfg, limiter, log)
	logger.LogComponentStart("twitter_client", map[string]interface{}{
		"base_url":            cfg.Twitter.BaseURL,
		"requests_per_minute": cfg.RateLimit.RequestsPerMinute,
		"retry_enabled":       cfg.Retry.Enabled,
	})
	col := collector.New(cfg, client, refreshCache, writer, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := col.Run(ctx, handles)
	if result != nil {
		printResult(result)
	}
	if err != nil {
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("Graph written: %d nodes, %d following edges, %d follower edges",
		result.Nodes, result.Following, result.Followers))
	for _, path := range result.Files {
		ui.PrintInfo("Wrote", path)
	}
	return nil
}

// applyStoredCredentials fills missing secrets from the credential store.
// A named profile must exist; the default profile is optional.
func applyStoredCredentials(cfg *config.Config) error {
	if profileName == "" && cfg.ValidateCredentials() == nil {
		return nil
	}

	manager, err := auth.NewManager()
	if err != nil {
		if profileName != "" {
			return fmt.Errorf("failed to initialize credential manager: %w", err)
		}
		logger.WithError(err).Debug("Credential manager unavailable")
		return nil
	}

	creds, err := manager.Retrieve(profileName)
	if err != nil {
		if profileName != "" {
			return fmt.Errorf("profile %s: %w", profileName, err)
		}
		return nil
	}

	creds.ApplyTo(cfg)
	logger.WithField("profile", creds.Profile).Info("Using stored credentials")
	return nil
}

func printResult(result *collector.Result) {
	rows := make([][]string, 0, len(result.Targets))
	for _, t := range result.Targets {
		note := ""
		if t.Err != nil {
			note = t.Err.Error()
		}
		rows = append(rows, []string{
			"@" + t.Handle,
			t.ID,
			string(t.Outcome),
			strconv.Itoa(t.Followers),
			strconv.Itoa(t.Following),
			note,
		})
	}
	if err := ui.PrintTable([]string{"Target", "ID", "Outcome", "Followers", "Following", "Error"}, rows); err != nil {
		logger.WithError(err).Warn("Failed to render summary")
	}
}
