package relay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/slack-go/slack"

	"relaybot/internal/domain"
	"relaybot/internal/metrics"
)

const (
	noTextPlaceholder = "(no text)"
	anonymousAuthor   = "someone's post"
)

// Presenter assembles the Block Kit representation of an origin message:
// an author line, the body with mentions resolved, the origin channel
// label, then one block per attachment. Block construction never fails;
// anything that can go wrong degrades to a placeholder block instead.
type Presenter struct {
	dir      *Directory
	rehoster *Rehoster
	logger   *slog.Logger
}

func NewPresenter(dir *Directory, rehoster *Rehoster, logger *slog.Logger) *Presenter {
	return &Presenter{dir: dir, rehoster: rehoster, logger: logger}
}

// Blocks builds the ordered block sequence for an event. inlineImages
// controls whether private images are rehosted into the timeline channel;
// it is disabled for public unfurls, whose URLs already resolve.
func (p *Presenter) Blocks(ctx context.Context, ev domain.MessageEvent, inlineImages bool) []slack.Block {
	blocks := []slack.Block{
		p.authorBlock(ctx, ev),
		p.bodyBlock(ctx, ev),
		p.channelBlock(ctx, ev),
	}
	for _, f := range ev.Files {
		blocks = append(blocks, p.fileBlock(ctx, ev, f, inlineImages))
	}
	return blocks
}

func (p *Presenter) authorBlock(ctx context.Context, ev domain.MessageEvent) slack.Block {
	if ev.User == "" {
		return slack.NewContextBlock("", plainText(anonymousAuthor))
	}
	profile := p.dir.User(ctx, ev.User)
	label := plainText(profile.DisplayName + "'s post")
	if profile.AvatarURL != "" {
		return slack.NewContextBlock("",
			slack.NewImageBlockElement(profile.AvatarURL, profile.DisplayName),
			label,
		)
	}
	return slack.NewContextBlock("", label)
}

func (p *Presenter) bodyBlock(ctx context.Context, ev domain.MessageEvent) slack.Block {
	text := ev.Text
	if text == "" {
		text = noTextPlaceholder
	}
	text = p.dir.RewriteMentions(ctx, text)
	return mrkdwnSection(text)
}

func (p *Presenter) channelBlock(ctx context.Context, ev domain.MessageEvent) slack.Block {
	name := p.dir.ChannelName(ctx, ev.Channel)
	label := "Channel: #" + name
	if ev.IsPrivate() {
		label = "Private channel: " + name
	}
	return slack.NewContextBlock("", plainText(label))
}

func (p *Presenter) fileBlock(ctx context.Context, ev domain.MessageEvent, f domain.AttachedFile, inlineImages bool) slack.Block {
	if !f.IsImage() {
		url := f.URLPrivate
		if url == "" {
			url = f.Permalink
		}
		if url == "" {
			return mrkdwnSection("📎 *Attached file:* " + f.Name)
		}
		return mrkdwnSection(fmt.Sprintf("📎 *Attached file:* <%s|%s>", url, f.Name))
	}

	if inlineImages && ev.IsPrivate() {
		uploaded, err := p.rehoster.Rehost(ctx, f)
		if err == nil {
			return mrkdwnSection(fmt.Sprintf("📷 *Image attached*: <%s|%s>", uploaded.Permalink, f.Name))
		}
		metrics.RehostFailures.Inc()
		p.logger.Warn("rehost failed, falling back to original link", "file", f.ID, "err", err)
		if f.URLPrivate != "" {
			return mrkdwnSection(fmt.Sprintf("📷 *Image attached* (private channel): <%s|%s>", f.URLPrivate, f.Name))
		}
		return mrkdwnSection("📷 *Image attached* (not viewable)")
	}

	url := f.Permalink
	if url == "" {
		url = f.URLPrivate
	}
	return mrkdwnSection(fmt.Sprintf("📷 *Image attached*: <%s|%s>", url, f.Name))
}

func plainText(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.PlainTextType, text, true, false)
}

func mrkdwnSection(text string) slack.Block {
	return slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil)
}
