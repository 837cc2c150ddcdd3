package config

import "path/filepath"

// Defaults returns a config populated with sensible defaults. Tokens are
// left as env placeholders so a saved default config never embeds secrets.
func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
		},
		Slack: SlackConfig{
			BotToken:        "${SLACK_BOT_TOKEN}",
			AppToken:        "${SLACK_APP_TOKEN}",
			TimelineChannel: "${ALL_TIMELINE_ID}",
			AutoJoin:        true,
			RejoinSchedule:  "0 0 */6 * * *", // every 6 hours
		},
		Relay: RelayConfig{
			InlineImages:        true,
			AttachmentColor:     "#f2c744",
			FileSharePattern:    "shared your private file",
			FetchTimeoutSeconds: 30,
		},
		Store: StoreConfig{
			DBPath:        filepath.Join(DefaultConfigDir(), "relay.db"),
			RetentionDays: 30,
			PruneSchedule: "0 30 4 * * *", // daily at 04:30
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  "127.0.0.1:9091",
		},
	}
}
