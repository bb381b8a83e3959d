package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Collision policies for attachments whose computed destination path
// already exists on disk.
const (
	CollisionOverwrite = "overwrite"
	CollisionSkip      = "skip"
	CollisionFail      = "fail"
)

// afterDateLayouts are the accepted forms of the cutoff date, most
// specific first. "2-Jan-2006" matches the day-month-year form the
// original operators used.
var afterDateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2-Jan-2006",
}

// Config holds all configuration options for the feed downloader
type Config struct {
	// ClassDojo session credentials
	Dojo DojoConfig `yaml:"dojo" json:"dojo"`

	// Feed traversal settings
	Feed FeedConfig `yaml:"feed" json:"feed"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// DojoConfig holds the session cookies copied from an authenticated
// browser session, plus the user agent sent alongside them.
type DojoConfig struct {
	LogSessionID string `yaml:"log_session_id" json:"log_session_id"`
	LoginSID     string `yaml:"login_sid" json:"login_sid"`
	HomeLoginSID string `yaml:"home_login_sid" json:"home_login_sid"`
	UserAgent    string `yaml:"user_agent" json:"user_agent"`
}

// FeedConfig holds feed traversal configuration
type FeedConfig struct {
	// URL is the head of the story feed.
	URL string `yaml:"url" json:"url"`

	// AfterDate excludes items at or before this date. Empty keeps
	// everything.
	AfterDate string `yaml:"after_date" json:"after_date"`

	// MaxPages bounds the cursor chain as a safety net against
	// rewritten cursor URLs. 0 disables the bound.
	MaxPages int `yaml:"max_pages" json:"max_pages"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	ConcurrentDownloads int           `yaml:"concurrent_downloads" json:"concurrent_downloads"`
	DownloadTimeout     time.Duration `yaml:"download_timeout" json:"download_timeout"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	OnCollision   string `yaml:"on_collision" json:"on_collision"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Dojo: DojoConfig{
			UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		},
		Feed: FeedConfig{
			URL:      "https://home.classdojo.com/api/storyFeed?includePrivate=true",
			MaxPages: 1000,
		},
		Download: DownloadConfig{
			ConcurrentDownloads: 10,
			DownloadTimeout:     30 * time.Second,
		},
		Output: OutputConfig{
			BaseDirectory: "./classdojo_output",
			OnCollision:   CollisionOverwrite,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 120,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// ParseAfterDate parses the cutoff date in any accepted layout. An empty
// string yields the zero time, meaning no cutoff.
func ParseAfterDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range afterDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized after date %q (want e.g. 1-Jul-2018 or 2018-07-01)", s)
}

// AfterDate returns the parsed cutoff, or the zero time when unset.
func (c *Config) AfterDate() (time.Time, error) {
	return ParseAfterDate(c.Feed.AfterDate)
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("DOJOFETCH_LOG_SESSION_ID"); v != "" {
		c.Dojo.LogSessionID = v
	}
	if v := os.Getenv("DOJOFETCH_LOGIN_SID"); v != "" {
		c.Dojo.LoginSID = v
	}
	if v := os.Getenv("DOJOFETCH_HOME_LOGIN_SID"); v != "" {
		c.Dojo.HomeLoginSID = v
	}
	if v := os.Getenv("DOJOFETCH_USER_AGENT"); v != "" {
		c.Dojo.UserAgent = v
	}
	if v := os.Getenv("DOJOFETCH_FEED_URL"); v != "" {
		c.Feed.URL = v
	}
	if v := os.Getenv("DOJOFETCH_AFTER_DATE"); v != "" {
		c.Feed.AfterDate = v
	}
	if v := os.Getenv("DOJOFETCH_OUTPUT_DIR"); v != "" {
		c.Output.BaseDirectory = v
	}
	if v := os.Getenv("DOJOFETCH_CONCURRENT_DOWNLOADS"); v != "" {
		var val int
		fmt.Sscanf(v, "%d", &val)
		if val > 0 {
			c.Download.ConcurrentDownloads = val
		}
	}
	if v := os.Getenv("DOJOFETCH_REQUESTS_PER_MINUTE"); v != "" {
		var val int
		fmt.Sscanf(v, "%d", &val)
		if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}
	if v := os.Getenv("DOJOFETCH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
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

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".dojofetch.yaml",
		".dojofetch.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "dojofetch", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "dojofetch", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".dojofetch.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. Credentials are not
// validated here; they may still arrive from the credential store.
func (c *Config) Validate() error {
	var errs []error

	if c.Feed.URL == "" {
		errs = append(errs, errors.New("feed URL is required"))
	}
	if c.Feed.MaxPages < 0 {
		errs = append(errs, errors.New("max pages cannot be negative"))
	}
	if _, err := ParseAfterDate(c.Feed.AfterDate); err != nil {
		errs = append(errs, err)
	}

	if c.Download.ConcurrentDownloads <= 0 {
		errs = append(errs, errors.New("concurrent downloads must be positive"))
	}
	if c.Download.DownloadTimeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	switch c.Output.OnCollision {
	case CollisionOverwrite, CollisionSkip, CollisionFail:
	default:
		errs = append(errs, fmt.Errorf("invalid collision policy %q", c.Output.OnCollision))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
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
	if v, ok := flags["feed-url"].(string); ok && v != "" {
		c.Feed.URL = v
	}
	if v, ok := flags["after"].(string); ok && v != "" {
		c.Feed.AfterDate = v
	}
	if v, ok := flags["max-pages"].(int); ok && v >= 0 {
		c.Feed.MaxPages = v
	}
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Output.BaseDirectory = v
	}
	if v, ok := flags["on-collision"].(string); ok && v != "" {
		c.Output.OnCollision = v
	}
	if v, ok := flags["concurrent"].(int); ok && v > 0 {
		c.Download.ConcurrentDownloads = v
	}
	if v, ok := flags["rate-limit"].(int); ok && v > 0 {
		c.RateLimit.RequestsPerMinute = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".dojofetch.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
