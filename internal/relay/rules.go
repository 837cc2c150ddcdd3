package relay

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Rules are optional operator-maintained classifier rules, kept out of the
// main config so they can be edited without touching credentials.
type Rules struct {
	// IgnoreChannels lists origin channel ids that are never relayed.
	IgnoreChannels []string `yaml:"ignoreChannels"`
	// IgnoreUsers lists user ids whose posts are never relayed (opt-out).
	IgnoreUsers []string `yaml:"ignoreUsers"`
	// FileSharePattern overrides the configured file-share notice pattern,
	// e.g. for workspaces running Slack in another display language.
	FileSharePattern string `yaml:"fileSharePattern"`
}

// LoadRules reads a rules YAML file. An empty path or a missing file is
// not an error; the classifier just runs without extra rules.
func LoadRules(path string, logger *slog.Logger) (*Rules, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		logger.Debug("rules file does not exist, skipping", "path", path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read rules file %s: %w", path, err)
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}

	logger.Info("loaded classifier rules",
		"path", path,
		"ignored_channels", len(rules.IgnoreChannels),
		"ignored_users", len(rules.IgnoreUsers),
	)
	return &rules, nil
}
