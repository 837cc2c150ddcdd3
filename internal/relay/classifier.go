package relay

import (
	"log/slog"
	"strings"

	"relaybot/internal/domain"
)

// systemBotName is the platform's own housekeeping bot. Its messages pass
// the foreign-bot filter so the file-share rule below can see them.
const systemBotName = "Slackbot"

// SkipReason explains why an event was not relayed. Empty means proceed.
type SkipReason string

const (
	SkipNone            SkipReason = ""
	SkipForeignBot      SkipReason = "foreign_bot_echo"
	SkipTimelineLoop    SkipReason = "timeline_origin"
	SkipFileShareNotice SkipReason = "file_share_notice"
	SkipIgnoredChannel  SkipReason = "ignored_channel"
	SkipIgnoredUser     SkipReason = "ignored_user"
)

// Classifier filters events before they reach the router. It is the single
// place that knows the file-share announcement heuristic, so the fragile
// substring match can be swapped without touching routing.
type Classifier struct {
	timelineChannel  string
	fileSharePattern string
	ignoreChannels   map[string]struct{}
	ignoreUsers      map[string]struct{}
	logger           *slog.Logger
}

func NewClassifier(timelineChannel, fileSharePattern string, rules *Rules, logger *slog.Logger) *Classifier {
	c := &Classifier{
		timelineChannel:  timelineChannel,
		fileSharePattern: fileSharePattern,
		ignoreChannels:   make(map[string]struct{}),
		ignoreUsers:      make(map[string]struct{}),
		logger:           logger,
	}
	if rules != nil {
		for _, ch := range rules.IgnoreChannels {
			c.ignoreChannels[ch] = struct{}{}
		}
		for _, u := range rules.IgnoreUsers {
			c.ignoreUsers[u] = struct{}{}
		}
		if rules.FileSharePattern != "" {
			c.fileSharePattern = rules.FileSharePattern
		}
	}
	return c
}

// Classify decides whether an event is relayed. Rules are evaluated in
// order; the first match wins.
func (c *Classifier) Classify(ev domain.MessageEvent) SkipReason {
	// Bot echoes, except the platform's own file-share announcements
	// which fall through to the pattern rule.
	if ev.SubType == domain.SubtypeBotMessage && ev.BotName != systemBotName {
		return SkipForeignBot
	}

	// The timeline channel itself would otherwise relay its own posts forever.
	if ev.Channel == c.timelineChannel {
		return SkipTimelineLoop
	}

	// The Slackbot private-file-share notice carries no useful payload;
	// the real content arrives via a file_shared notification that the
	// gateway only logs.
	if ev.SubType == domain.SubtypeBotMessage && ev.BotName == systemBotName &&
		c.fileSharePattern != "" && strings.Contains(ev.Text, c.fileSharePattern) {
		return SkipFileShareNotice
	}

	if _, ok := c.ignoreChannels[ev.Channel]; ok {
		return SkipIgnoredChannel
	}
	if _, ok := c.ignoreUsers[ev.User]; ok {
		return SkipIgnoredUser
	}

	c.logger.Debug("event accepted for relay",
		"channel", ev.Channel,
		"channel_type", ev.ChannelType,
		"subtype", ev.SubType,
		"files", len(ev.Files),
	)
	return SkipNone
}
