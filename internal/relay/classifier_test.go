package relay

import (
	"testing"

	"relaybot/internal/domain"
)

const testTimeline = "C0TIMELINE"

func TestClassifier_Rules(t *testing.T) {
	c := NewClassifier(testTimeline, "shared your private file", nil, testLogger())

	tests := []struct {
		name string
		ev   domain.MessageEvent
		want SkipReason
	}{
		{
			"normal public message",
			domain.MessageEvent{Channel: "C0GENERAL", ChannelType: "channel", User: "U1", Text: "hi"},
			SkipNone,
		},
		{
			"foreign bot echo",
			domain.MessageEvent{Channel: "C0GENERAL", SubType: "bot_message", BotName: "OtherBot"},
			SkipForeignBot,
		},
		{
			"timeline origin loop",
			domain.MessageEvent{Channel: testTimeline, User: "U1", Text: "mirrored"},
			SkipTimelineLoop,
		},
		{
			"slackbot file share notice",
			domain.MessageEvent{
				Channel: "C0GENERAL",
				SubType: "bot_message",
				BotName: "Slackbot",
				Text:    "Alice shared your private file with you",
			},
			SkipFileShareNotice,
		},
		{
			"slackbot non-file-share message passes",
			domain.MessageEvent{Channel: "C0GENERAL", SubType: "bot_message", BotName: "Slackbot", Text: "reminder: standup"},
			SkipNone,
		},
		{
			"bot echo in timeline channel hits bot rule first",
			domain.MessageEvent{Channel: testTimeline, SubType: "bot_message", BotName: "OtherBot"},
			SkipForeignBot,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.ev); got != tt.want {
				t.Errorf("Classify = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassifier_ExtraRules(t *testing.T) {
	rules := &Rules{
		IgnoreChannels:   []string{"C0SECRETS"},
		IgnoreUsers:      []string{"U0OPTOUT"},
		FileSharePattern: "さんがあなたのプライベートファイル",
	}
	c := NewClassifier(testTimeline, "shared your private file", rules, testLogger())

	if got := c.Classify(domain.MessageEvent{Channel: "C0SECRETS", User: "U1"}); got != SkipIgnoredChannel {
		t.Errorf("ignored channel: got %q", got)
	}
	if got := c.Classify(domain.MessageEvent{Channel: "C0GENERAL", User: "U0OPTOUT"}); got != SkipIgnoredUser {
		t.Errorf("ignored user: got %q", got)
	}

	// The rules file pattern replaces the configured one.
	ev := domain.MessageEvent{
		Channel: "C0GENERAL",
		SubType: "bot_message",
		BotName: "Slackbot",
		Text:    "Alice さんがあなたのプライベートファイルを共有しました",
	}
	if got := c.Classify(ev); got != SkipFileShareNotice {
		t.Errorf("localized file share notice: got %q", got)
	}
}
