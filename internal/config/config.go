package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	envTargetsFile     = "MS_TARGETS_FILE"
	envLogFile         = "MS_LOG_FILE"
	envLogLevel        = "MS_LOG_LEVEL"
	envListTimeout     = "MS_LIST_TIMEOUT"
	envSettleDelay     = "MS_SETTLE_DELAY"
	envPollInterval    = "MS_POLL_INTERVAL"
	envStateFile       = "MS_STATE_FILE"
	envSlackWebhookURL = "MS_SLACK_WEBHOOK_URL"
	envWebhookURL      = "MS_WEBHOOK_URL"
	envWebhookTemplate = "MS_WEBHOOK_TEMPLATE"
	envDryRun          = "MS_DRY_RUN"
	envHealthPort      = "MS_HEALTH_PORT"
	envMetricsPort     = "MS_METRICS_PORT"
	envMetricsTextfile = "MS_METRICS_TEXTFILE"
)

const (
	defaultLogFile     = "/var/log/mount-sentinel.log"
	defaultListTimeout = 5 * time.Second
	defaultSettleDelay = 2 * time.Second
)

// Config describes runtime configuration loaded from the environment.
type Config struct {
	TargetsFile     string
	LogFile         string
	LogLevel        string
	ListTimeout     time.Duration
	SettleDelay     time.Duration
	PollInterval    time.Duration
	StateFile       string
	SlackWebhookURL string
	WebhookURL      string
	WebhookTemplate string
	DryRun          bool
	HealthPort      int
	MetricsPort     int
	MetricsTextfile string
}

// WatchMode reports whether the process should loop internally instead of
// exiting after one run.
func (c Config) WatchMode() bool {
	return c.PollInterval > 0
}

// Load reads configuration from environment variables and a local .env file if present.
// Existing environment variables take precedence over values in .env.
func Load() (Config, error) {
	if err := loadDotEnvIfPresent(".env"); err != nil {
		return Config{}, err
	}

	cfg := Config{
		LogFile:     defaultLogFile,
		LogLevel:    "info",
		ListTimeout: defaultListTimeout,
		SettleDelay: defaultSettleDelay,
	}

	if value, ok := lookupTrimmed(envTargetsFile); ok {
		cfg.TargetsFile = value
	}

	if value, ok := lookupTrimmed(envLogFile); ok {
		cfg.LogFile = value
	}

	if value, ok := lookupTrimmed(envLogLevel); ok {
		cfg.LogLevel = value
	}

	if value, ok := lookupTrimmed(envListTimeout); ok {
		timeout, err := parseDuration(envListTimeout, value)
		if err != nil {
			return Config{}, err
		}
		if timeout <= 0 {
			return Config{}, fmt.Errorf("%s must be greater than zero", envListTimeout)
		}
		cfg.ListTimeout = timeout
	}

	if value, ok := lookupTrimmed(envSettleDelay); ok {
		delay, err := parseDuration(envSettleDelay, value)
		if err != nil {
			return Config{}, err
		}
		if delay < 0 {
			return Config{}, fmt.Errorf("%s cannot be negative", envSettleDelay)
		}
		cfg.SettleDelay = delay
	}

	if value, ok := lookupTrimmed(envPollInterval); ok {
		interval, err := parseDuration(envPollInterval, value)
		if err != nil {
			return Config{}, err
		}
		if interval < 0 {
			return Config{}, fmt.Errorf("%s cannot be negative", envPollInterval)
		}
		cfg.PollInterval = interval
	}

	if value, ok := lookupTrimmed(envStateFile); ok {
		cfg.StateFile = value
	}

	if value, ok := lookupTrimmed(envSlackWebhookURL); ok {
		cfg.SlackWebhookURL = value
	}

	if value, ok := lookupTrimmed(envWebhookURL); ok {
		cfg.WebhookURL = value
	}

	if value, ok := lookupTrimmed(envWebhookTemplate); ok {
		cfg.WebhookTemplate = value
	}

	if value, ok := lookupTrimmed(envDryRun); ok {
		dryRun, err := strconv.ParseBool(value)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envDryRun, err)
		}
		cfg.DryRun = dryRun
	}

	if value, ok := lookupTrimmed(envHealthPort); ok {
		port, err := parsePort(envHealthPort, value)
		if err != nil {
			return Config{}, err
		}
		cfg.HealthPort = port
	}

	if value, ok := lookupTrimmed(envMetricsPort); ok {
		port, err := parsePort(envMetricsPort, value)
		if err != nil {
			return Config{}, err
		}
		cfg.MetricsPort = port
	}

	if value, ok := lookupTrimmed(envMetricsTextfile); ok {
		cfg.MetricsTextfile = value
	}

	if cfg.LogFile == "" {
		return Config{}, errors.New("MS_LOG_FILE cannot be empty")
	}

	if cfg.SlackWebhookURL != "" {
		if err := validateURL(cfg.SlackWebhookURL, envSlackWebhookURL); err != nil {
			return Config{}, err
		}
	}

	if cfg.WebhookURL != "" {
		if err := validateURL(cfg.WebhookURL, envWebhookURL); err != nil {
			return Config{}, err
		}
	}

	return cfg, nil
}

func lookupTrimmed(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(value), true
}

func loadDotEnvIfPresent(path string) error {
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) && errors.Is(pathErr.Err, os.ErrNotExist) {
		return nil
	}

	return err
}

func parseDuration(name, value string) (time.Duration, error) {
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return duration, nil
}

func parsePort(name, value string) (int, error) {
	port, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if port < 0 || port > 65535 {
		return 0, fmt.Errorf("%s must be between 0 and 65535", name)
	}
	return port, nil
}

func validateURL(value, name string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid %s: must include scheme and host", name)
	}
	return nil
}
