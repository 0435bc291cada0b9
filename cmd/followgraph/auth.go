package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"followgraph/pkg/auth"
	"followgraph/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage API credentials",
	Long: `Manage stored OAuth 1.0a credentials.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read only)

Never share your credentials or config files!`,
}

var loginCmd = &cobra.Command{
	Use:   "login [profile]",
	Short: "Store API credentials securely",
	Long: `Store the four OAuth 1.0a secrets in the system keychain or encrypted file.

You will be prompted for the consumer key, consumer secret, access token and
access token secret. Secrets are hidden as you type.`,
	Example: `  # Store the default profile
  followgraph auth login

  # Store a named profile
  followgraph auth login research`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout [profile]",
	Short: "Remove stored credentials",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored credential profiles",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	profile := auth.DefaultProfile
	if len(args) > 0 {
		profile = strings.TrimSpace(args[0])
	}

	reader := bufio.NewReader(os.Stdin)
	out := ui.Out()

	auth.WriteCredentialGuide(out)
	fmt.Fprintln(out)

	if existing, _ := manager.Retrieve(profile); existing != nil {
		fmt.Fprintf(out, "Profile '%s' already exists. Replace it? (y/N): ", profile)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	creds := &auth.Credentials{Profile: profile, LastModified: time.Now()}
	prompts := []struct {
		label string
		dest  *string
	}{
		{"Consumer key", &creds.ConsumerKey},
		{"Consumer secret", &creds.ConsumerSecret},
		{"Access token", &creds.AccessToken},
		{"Access token secret", &creds.AccessTokenSecret},
	}
	for _, p := range prompts {
		fmt.Fprintf(out, "%s: ", p.label)
		value, err := readSecret(reader)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", strings.ToLower(p.label), err)
		}
		*p.dest = value
	}

	if err := manager.Store(creds); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	sanitized := auth.Sanitize(creds)
	ui.PrintSuccess("Credentials stored for profile " + profile)
	ui.PrintInfo("Consumer key", sanitized.ConsumerKey)
	ui.PrintInfo("Access token", sanitized.AccessToken)
	fmt.Fprintln(out, "\nStart collecting with:")
	if profile == auth.DefaultProfile {
		fmt.Fprintln(out, "  followgraph collect <handle>")
	} else {
		fmt.Fprintf(out, "  followgraph collect <handle> --profile %s\n", profile)
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	profile := auth.DefaultProfile
	if len(args) > 0 {
		profile = args[0]
	}

	if err := manager.Delete(profile); err != nil {
		if errors.Is(err, auth.ErrCredentialsNotFound) {
			ui.PrintWarning("No stored credentials for profile", profile)
			return nil
		}
		return fmt.Errorf("failed to remove profile %s: %w", profile, err)
	}
	ui.PrintSuccess("Profile removed: " + profile)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	profiles, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list profiles: %w", err)
	}
	if len(profiles) == 0 {
		ui.PrintInfo("No stored profiles", "Use 'followgraph auth login' to add one")
		return nil
	}

	rows := make([][]string, 0, len(profiles))
	for _, creds := range profiles {
		s := auth.Sanitize(creds)
		modified := ""
		if !s.LastModified.IsZero() {
			modified = s.LastModified.Format("2006-01-02 15:04:05")
		}
		rows = append(rows, []string{s.Profile, s.ConsumerKey, s.AccessToken, modified})
	}
	return ui.PrintTable([]string{"Profile", "Consumer key", "Access token", "Last modified"}, rows)
}

// readSecret reads a line without echo when stdin is a terminal
func readSecret(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(ui.Out())
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
