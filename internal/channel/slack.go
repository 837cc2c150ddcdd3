package channel

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"

	"relaybot/internal/domain"
	"relaybot/internal/relay"
)

// Slack is the workspace gateway: it receives workspace events over
// Socket Mode and performs every Web API call the relay needs.
type Slack struct {
	botToken        string
	appToken        string
	timelineChannel string
	autoJoin        bool
	client          *slack.Client
	socket          *socketmode.Client
	logger          *slog.Logger
	botUID          string // the bot's own user ID, to avoid relaying itself
}

var _ relay.Client = (*Slack)(nil)

// SlackConfig configures the Slack gateway.
type SlackConfig struct {
	BotToken        string
	AppToken        string
	TimelineChannel string
	AutoJoin        bool
	Logger          *slog.Logger
}

// NewSlack creates a new Slack gateway.
func NewSlack(cfg SlackConfig) *Slack {
	return &Slack{
		botToken:        cfg.BotToken,
		appToken:        cfg.AppToken,
		timelineChannel: cfg.TimelineChannel,
		autoJoin:        cfg.AutoJoin,
		client: slack.New(
			cfg.BotToken,
			slack.OptionAppLevelToken(cfg.AppToken),
		),
		logger: cfg.Logger,
	}
}

// Handler consumes one decoded message event.
type Handler func(ctx context.Context, ev domain.MessageEvent)

// Start connects via Socket Mode and dispatches message events to the
// handler until the context is cancelled.
func (s *Slack) Start(ctx context.Context, handler Handler) error {
	authResp, err := s.client.AuthTestContext(ctx)
	if err != nil {
		return fmt.Errorf("slack auth: %w", err)
	}
	s.botUID = authResp.UserID
	s.logger.Info("slack bot connected", "user", authResp.User, "user_id", authResp.UserID)

	// Fail fast on a mistyped or invisible timeline channel; every relayed
	// message would otherwise fail at post time.
	if _, err := s.GetChannelInfo(ctx, s.timelineChannel); err != nil {
		return fmt.Errorf("timeline channel %s: %w", s.timelineChannel, err)
	}

	if s.autoJoin {
		if err := s.JoinPublicChannels(ctx); err != nil {
			s.logger.Warn("initial channel join incomplete", "err", err)
		}
	}

	socketClient := socketmode.New(s.client)
	s.socket = socketClient

	go func() {
		for evt := range socketClient.Events {
			switch evt.Type {
			case socketmode.EventTypeEventsAPI:
				socketClient.Ack(*evt.Request)
				s.handleEventsAPI(ctx, evt, handler)

			case socketmode.EventTypeConnected:
				s.logger.Info("socket mode connected")

			case socketmode.EventTypeConnectionError:
				s.logger.Warn("socket mode connection error")

			default:
				// Acknowledge unknown events to prevent Socket Mode disconnection.
				if evt.Request != nil {
					socketClient.Ack(*evt.Request)
				}
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- socketClient.RunContext(ctx)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("slack bot disconnecting")
		return nil
	case err := <-errCh:
		return fmt.Errorf("slack socket mode: %w", err)
	}
}

func (s *Slack) handleEventsAPI(ctx context.Context, evt socketmode.Event, handler Handler) {
	wire, err := decodeEvent(evt.Request.Payload)
	if err != nil {
		s.logger.Warn("undecodable event payload", "err", err)
		return
	}

	switch wire.Type {
	case "message":
		if wire.User == s.botUID {
			return
		}
		ev := wire.toDomain()
		s.logger.Debug("message event received",
			"channel", ev.Channel,
			"channel_type", ev.ChannelType,
			"subtype", ev.SubType,
			"files", len(ev.Files),
		)
		handler(ctx, ev)

	case "file_shared":
		s.logFileShared(ctx, wire.FileID)

	default:
		s.logger.Debug("ignoring event", "type", wire.Type)
	}
}

// logFileShared records the file metadata for diagnostics. The relay of
// the file itself rides on the accompanying message event.
func (s *Slack) logFileShared(ctx context.Context, fileID string) {
	if fileID == "" {
		return
	}
	file, _, _, err := s.client.GetFileInfoContext(ctx, fileID, 0, 0)
	if err != nil {
		s.logger.Debug("file_shared lookup failed", "file_id", fileID, "err", err)
		return
	}
	s.logger.Debug("file shared", "file_id", file.ID, "name", file.Name, "mimetype", file.Mimetype)
}

// JoinPublicChannels joins every unarchived public channel so the bot
// keeps receiving message events from channels created after startup.
func (s *Slack) JoinPublicChannels(ctx context.Context) error {
	var joined, cursor string
	total := 0
	for {
		channels, next, err := s.client.GetConversationsContext(ctx, &slack.GetConversationsParameters{
			Types:           []string{"public_channel"},
			ExcludeArchived: true,
			Limit:           1000,
			Cursor:          cursor,
		})
		if err != nil {
			return fmt.Errorf("list channels: %w", err)
		}

		for _, ch := range channels {
			if ch.IsMember {
				continue
			}
			if _, _, _, err := s.client.JoinConversationContext(ctx, ch.ID); err != nil {
				// Races with archiving or a parallel join are harmless.
				msg := err.Error()
				if strings.Contains(msg, "already_in_channel") || strings.Contains(msg, "is_archived") {
					continue
				}
				s.logger.Warn("cannot join channel", "channel", ch.ID, "name", ch.Name, "err", err)
				continue
			}
			joined = ch.Name
			total++
		}

		if next == "" {
			break
		}
		cursor = next
	}

	if total > 0 {
		s.logger.Info("joined public channels", "count", total, "last", joined)
	}
	return nil
}

func (s *Slack) GetPermalink(ctx context.Context, channelID, messageTS string) (string, error) {
	link, err := s.client.GetPermalinkContext(ctx, &slack.PermalinkParameters{
		Channel: channelID,
		Ts:      messageTS,
	})
	if err != nil {
		return "", fmt.Errorf("get permalink: %w", err)
	}
	return link, nil
}

func (s *Slack) GetChannelInfo(ctx context.Context, channelID string) (domain.ChannelInfo, error) {
	ch, err := s.client.GetConversationInfoContext(ctx, &slack.GetConversationInfoInput{
		ChannelID: channelID,
	})
	if err != nil {
		if err.Error() == "channel_not_found" {
			return domain.ChannelInfo{}, domain.ErrChannelNotFound
		}
		return domain.ChannelInfo{}, fmt.Errorf("get channel info: %w", err)
	}
	return domain.ChannelInfo{Name: ch.Name}, nil
}

func (s *Slack) GetUserInfo(ctx context.Context, userID string) (domain.UserProfile, error) {
	u, err := s.client.GetUserInfoContext(ctx, userID)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("get user info: %w", err)
	}
	name := u.Profile.DisplayName
	if name == "" {
		name = u.RealName
	}
	return domain.UserProfile{
		DisplayName: name,
		AvatarURL:   u.Profile.Image48,
	}, nil
}

func (s *Slack) PostMessage(ctx context.Context, channelID, text, threadTS string, attachments []slack.Attachment) (string, error) {
	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}
	if len(attachments) > 0 {
		opts = append(opts, slack.MsgOptionAttachments(attachments...))
	}

	_, ts, err := s.client.PostMessageContext(ctx, channelID, opts...)
	if err != nil {
		return "", fmt.Errorf("post message: %w", err)
	}
	return ts, nil
}

func (s *Slack) Unfurl(ctx context.Context, channelID, messageTS, url string, blocks []slack.Block) error {
	unfurls := map[string]slack.Attachment{
		url: {Blocks: slack.Blocks{BlockSet: blocks}},
	}
	if _, _, _, err := s.client.UnfurlMessageContext(ctx, channelID, messageTS, unfurls); err != nil {
		return fmt.Errorf("unfurl message: %w", err)
	}
	return nil
}

func (s *Slack) UploadFile(ctx context.Context, channelID, filename string, r io.Reader, size int64) (domain.AttachedFile, error) {
	summary, err := s.client.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
		Channel:  channelID,
		Reader:   r,
		Filename: filename,
		FileSize: int(size),
	})
	if err != nil {
		return domain.AttachedFile{}, fmt.Errorf("upload file: %w", err)
	}

	file, _, _, err := s.client.GetFileInfoContext(ctx, summary.ID, 0, 0)
	if err != nil {
		return domain.AttachedFile{}, fmt.Errorf("uploaded file info: %w", err)
	}
	return domain.AttachedFile{
		ID:        file.ID,
		Name:      file.Name,
		Mimetype:  file.Mimetype,
		Permalink: file.Permalink,
	}, nil
}
