package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Config is the root configuration for RelayBot.
type Config struct {
	General GeneralConfig `json:"general"`
	Slack   SlackConfig   `json:"slack"`
	Relay   RelayConfig   `json:"relay"`
	Store   StoreConfig   `json:"store"`
	Metrics MetricsConfig `json:"metrics"`
}

type GeneralConfig struct {
	LogLevel string `json:"logLevel"`          // debug | info | warn | error
	LogFile  string `json:"logFile,omitempty"` // optional log file path, stderr when empty
}

type SlackConfig struct {
	BotToken        string `json:"botToken"` // xoxb-…
	AppToken        string `json:"appToken"` // xapp-…, required for Socket Mode
	TimelineChannel string `json:"timelineChannel"`
	AutoJoin        bool   `json:"autoJoin"`                 // join all public channels on startup
	RejoinSchedule  string `json:"rejoinSchedule,omitempty"` // cron expr (with seconds) for periodic re-join
}

type RelayConfig struct {
	InlineImages        bool   `json:"inlineImages"`               // rehost private images into the timeline
	AttachmentColor     string `json:"attachmentColor"`            // sidebar color of the styled attachment
	FileSharePattern    string `json:"fileSharePattern,omitempty"` // substring marking Slackbot private-file-share notices
	RulesFile           string `json:"rulesFile,omitempty"`        // optional YAML file with extra classifier rules
	FetchTimeoutSeconds int    `json:"fetchTimeoutSeconds"`        // timeout for file download/upload HTTP calls
}

type StoreConfig struct {
	DBPath        string `json:"dbPath,omitempty"` // empty = in-memory mapping only
	RetentionDays int    `json:"retentionDays"`
	PruneSchedule string `json:"pruneSchedule,omitempty"` // cron expr (with seconds)
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Listen  string `json:"listen"` // host:port for the /metrics endpoint
}

// DefaultConfigDir returns the default config directory (~/.relaybot).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".relaybot"
	}
	return filepath.Join(home, ".relaybot")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func Load(path string) (*Config, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	// Fields missing from the file fall back to Defaults(), whose token
	// placeholders have not been through the expansion above.
	cfg.Slack.BotToken = ExpandEnvVars(cfg.Slack.BotToken)
	cfg.Slack.AppToken = ExpandEnvVars(cfg.Slack.AppToken)
	cfg.Slack.TimelineChannel = ExpandEnvVars(cfg.Slack.TimelineChannel)

	cfg.General.LogFile = ExpandPath(cfg.General.LogFile)
	cfg.Store.DBPath = ExpandPath(cfg.Store.DBPath)
	cfg.Relay.RulesFile = ExpandPath(cfg.Relay.RulesFile)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match // Keep original if no env var and no default
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	switch cfg.General.LogLevel {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, "general.logLevel must be one of: debug, info, warn, error")
	}

	if cfg.Slack.TimelineChannel == "" {
		errs = append(errs, "slack.timelineChannel is required")
	} else if strings.Contains(cfg.Slack.TimelineChannel, "${") {
		errs = append(errs, "slack.timelineChannel references an unset environment variable")
	}

	if cfg.Relay.AttachmentColor != "" && !colorPattern.MatchString(cfg.Relay.AttachmentColor) {
		errs = append(errs, "relay.attachmentColor must be a #rrggbb color")
	}
	if cfg.Relay.FetchTimeoutSeconds < 1 {
		errs = append(errs, "relay.fetchTimeoutSeconds must be >= 1")
	}

	if cfg.Store.RetentionDays < 1 {
		errs = append(errs, "store.retentionDays must be >= 1")
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Listen == "" {
		errs = append(errs, "metrics.listen is required when metrics are enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
