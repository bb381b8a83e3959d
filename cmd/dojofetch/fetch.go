package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"dojofetch/pkg/auth"
	"dojofetch/pkg/config"
	"dojofetch/pkg/logger"
	"dojofetch/pkg/scraper"
	"dojofetch/pkg/ui"
)

var (
	// Fetch command flags
	outputDir   string
	concurrent  int
	rateLimit   int
	afterDate   string
	feedURL     string
	maxPages    int
	onCollision string
	accountName string
	reuseFlag   bool
	refreshFlag bool
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Walk the story feed and download all attachments",
	Long: `Walk the complete story feed, save it as data.json under the output
directory, and download every attachment concurrently.

When a snapshot from a previous run exists, pass --reuse-snapshot to skip
the feed traversal and work from disk, or --refresh to force a re-scrape.
With neither flag, you are asked interactively.`,
	Example: `  # Full run with defaults
  dojofetch fetch

  # Only content after a date, into a specific directory
  dojofetch fetch --after 1-Jul-2018 --output ./dojo_photos

  # Re-resolve and download from the saved snapshot without hitting the feed
  dojofetch fetch --reuse-snapshot

  # Use a specific stored account and more parallel downloads
  dojofetch fetch --account family --concurrent 16`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runFetch(cmd)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for downloads and the snapshot")
	fetchCmd.Flags().IntVar(&concurrent, "concurrent", 10, "number of concurrent downloads")
	fetchCmd.Flags().IntVar(&rateLimit, "rate-limit", 120, "requests per minute")
	fetchCmd.Flags().StringVar(&afterDate, "after", "", "only download content after this date (e.g. 1-Jul-2018)")
	fetchCmd.Flags().StringVar(&feedURL, "feed-url", "", "story feed entry point URL")
	fetchCmd.Flags().IntVar(&maxPages, "max-pages", -1, "safety bound on feed pages (0 = unbounded)")
	fetchCmd.Flags().StringVar(&onCollision, "on-collision", "", "behavior for duplicate destination paths (overwrite, skip, fail)")
	fetchCmd.Flags().StringVarP(&accountName, "account", "a", "", "use specific stored account")
	fetchCmd.Flags().BoolVar(&reuseFlag, "reuse-snapshot", false, "reuse the existing data.json instead of re-scraping")
	fetchCmd.Flags().BoolVar(&refreshFlag, "refresh", false, "force a fresh feed traversal, ignoring any snapshot")
	fetchCmd.MarkFlagsMutuallyExclusive("reuse-snapshot", "refresh")
}

// fetchFlagOverrides collects the flags the operator actually passed on
// the command line. Only set flags make it into the map, so an explicit
// --concurrent 10 still overrides a different value from the config file.
func fetchFlagOverrides(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	if cmd.Flags().Changed("output") {
		flags["output"] = outputDir
	}
	if cmd.Flags().Changed("concurrent") {
		flags["concurrent"] = concurrent
	}
	if cmd.Flags().Changed("rate-limit") {
		flags["rate-limit"] = rateLimit
	}
	if cmd.Flags().Changed("after") {
		flags["after"] = afterDate
	}
	if cmd.Flags().Changed("feed-url") {
		flags["feed-url"] = feedURL
	}
	if cmd.Flags().Changed("max-pages") {
		flags["max-pages"] = maxPages
	}
	if cmd.Flags().Changed("on-collision") {
		flags["on-collision"] = onCollision
	}
	if rootCmd.PersistentFlags().Changed("log-level") {
		flags["log-level"] = logLevel
	}
	return flags
}

func runFetch(cmd *cobra.Command) {
	flags := fetchFlagOverrides(cmd)

	// Load configuration
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}
	logger.WithField("version", version).Info("dojofetch starting")

	if err := applyCredentials(cfg); err != nil {
		logger.WithError(err).Error("No credentials found")
		ui.PrintError("No ClassDojo credentials found")
		fmt.Println("\nTo store credentials securely, run:")
		fmt.Println("  dojofetch auth login")
		fmt.Println("\nOr export them as environment variables:")
		fmt.Println("  export DOJOFETCH_LOG_SESSION_ID=...")
		fmt.Println("  export DOJOFETCH_LOGIN_SID=...")
		fmt.Println("  export DOJOFETCH_HOME_LOGIN_SID=...")
		os.Exit(1)
	}

	s, err := scraper.New(cfg)
	if err != nil {
		ui.PrintError("Failed to initialize", err.Error())
		os.Exit(1)
	}

	reuse := decideReuse(s)

	summary, err := s.Run(reuse)
	if err != nil {
		logger.WithError(err).Error("Run failed")
		ui.PrintError("FETCH FAILED", err.Error())
		os.Exit(1)
	}

	source := "feed"
	if summary.FromCache {
		source = "snapshot"
	}
	ui.PrintInfo("Items", fmt.Sprintf("%d (from %s)", summary.Items, source))
	ui.PrintInfo("Attachments", fmt.Sprintf("%d downloaded, %d skipped, %d failed of %d",
		summary.Succeeded, summary.Skipped, summary.Failed, summary.Tasks))
	if summary.Failed > 0 {
		ui.PrintWarning(fmt.Sprintf("%d downloads failed, see the log for details", summary.Failed))
	}
	ui.PrintSuccess("Done!")
}

// applyCredentials fills the config's cookie values from, in order:
// a named stored account, values already present in config/env, or the
// default stored account.
func applyCredentials(cfg *config.Config) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	var account *auth.Account

	switch {
	case accountName != "":
		account, err = manager.Retrieve(accountName)
		if err != nil {
			return fmt.Errorf("account %q not found, use 'dojofetch auth list'", accountName)
		}
	case cfg.Dojo.LogSessionID != "" && cfg.Dojo.LoginSID != "" && cfg.Dojo.HomeLoginSID != "":
		logger.Info("Using credentials from configuration")
		return nil
	default:
		account, err = manager.RetrieveDefault()
		if err != nil {
			return err
		}
	}

	cfg.Dojo.LogSessionID = account.LogSessionID
	cfg.Dojo.LoginSID = account.LoginSID
	cfg.Dojo.HomeLoginSID = account.HomeLoginSID
	if account.UserAgent != "" {
		cfg.Dojo.UserAgent = account.UserAgent
	}
	logger.WithField("account", account.Name).Info("Using stored credentials")
	ui.PrintInfo("Using account", account.Name)

	return nil
}

// decideReuse resolves the snapshot mode. The core pipeline takes an
// explicit flag; the interactive prompt lives only here, for operators
// who passed neither --reuse-snapshot nor --refresh.
func decideReuse(s *scraper.Scraper) bool {
	if reuseFlag {
		return true
	}
	if refreshFlag || !s.SnapshotExists() {
		return false
	}

	fmt.Print("Snapshot exists! Rescrape? [Y/n] ")
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.EqualFold(strings.TrimSpace(answer), "n")
}
