package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"dojofetch/pkg/auth"
	"dojofetch/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage ClassDojo session credentials",
	Long: `Store, list, and remove the ClassDojo session cookies used to read
the story feed. Cookies are kept in the system keychain when available,
otherwise in an encrypted file under the config directory.`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store session cookies for an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuthLogin()
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout <account>",
	Short: "Remove a stored account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuthLogout(args[0])
	},
}

var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuthList()
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authListCmd)
}

func runAuthLogin() error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	auth.ShowCookieExtractionGuide()

	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Account name [default]: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)
	if name == "" {
		name = "default"
	}

	logSessionID, err := promptSecret("dojo_log_session_id: ")
	if err != nil {
		return err
	}
	loginSID, err := promptSecret("dojo_login.sid: ")
	if err != nil {
		return err
	}
	homeLoginSID, err := promptSecret("dojo_home_login.sid: ")
	if err != nil {
		return err
	}

	fmt.Print("User-Agent (optional, press enter to skip): ")
	userAgent, _ := reader.ReadString('\n')
	userAgent = strings.TrimSpace(userAgent)

	account := &auth.Account{
		Name:         name,
		LogSessionID: logSessionID,
		LoginSID:     loginSID,
		HomeLoginSID: homeLoginSID,
		UserAgent:    userAgent,
	}

	if err := manager.Store(account); err != nil {
		ui.PrintError("Failed to store credentials", err.Error())
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("Credentials stored for account %q", name))
	return nil
}

func runAuthLogout(name string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if err := manager.Delete(name); err != nil {
		ui.PrintError("Failed to remove account", err.Error())
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("Removed account %q", name))
	return nil
}

func runAuthList() error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		ui.PrintInfo("Accounts", "none stored, run 'dojofetch auth login'")
		return nil
	}

	fmt.Println("Stored accounts:")
	for _, account := range accounts {
		masked := auth.SanitizeAccount(account)
		fmt.Printf("  %s\n", masked.Name)
		fmt.Printf("    dojo_log_session_id: %s\n", masked.LogSessionID)
		fmt.Printf("    dojo_login.sid:      %s\n", masked.LoginSID)
		fmt.Printf("    dojo_home_login.sid: %s\n", masked.HomeLoginSID)
		if !masked.LastModified.IsZero() {
			fmt.Printf("    last modified:       %s\n", masked.LastModified.Format("2006-01-02 15:04"))
		}
	}
	return nil
}

// promptSecret reads a value without echoing it. Falls back to plain
// line input when stdin is not a terminal (piped input in tests or CI).
func promptSecret(prompt string) (string, error) {
	fmt.Print(prompt)
	if term.IsTerminal(int(syscall.Stdin)) {
		value, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return strings.TrimSpace(string(value)), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
