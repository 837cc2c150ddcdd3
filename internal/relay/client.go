// Package relay implements the engine that mirrors channel messages into
// the aggregated timeline channel: event classification, thread mapping,
// presentation building, and private-attachment rehosting.
package relay

import (
	"context"
	"io"

	"github.com/slack-go/slack"

	"relaybot/internal/domain"
)

// Client is the chat-platform surface the relay engine consumes. The
// Slack gateway implements it; tests substitute fakes.
type Client interface {
	// GetPermalink resolves a durable link to an origin message.
	GetPermalink(ctx context.Context, channelID, messageTS string) (string, error)
	// GetChannelInfo returns channel metadata. A definitive missing
	// channel is reported as domain.ErrChannelNotFound.
	GetChannelInfo(ctx context.Context, channelID string) (domain.ChannelInfo, error)
	GetUserInfo(ctx context.Context, userID string) (domain.UserProfile, error)
	// PostMessage posts to a channel and returns the new message's ts.
	// A non-empty threadTS makes the post a threaded reply.
	PostMessage(ctx context.Context, channelID, text, threadTS string, attachments []slack.Attachment) (string, error)
	// Unfurl attaches a rich preview to an already-posted message, keyed
	// by the unfurled URL.
	Unfurl(ctx context.Context, channelID, messageTS, url string, blocks []slack.Block) error
	// UploadFile uploads size bytes from r into a channel and returns
	// the descriptor of the new file.
	UploadFile(ctx context.Context, channelID, filename string, r io.Reader, size int64) (domain.AttachedFile, error)
}

// FileFetcher downloads a platform-private file using the bot's credentials.
type FileFetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}
