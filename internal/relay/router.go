package relay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/slack-go/slack"

	"relaybot/internal/domain"
	"relaybot/internal/metrics"
)

// Router decides, per inbound event, whether to skip, mirror as a new
// timeline root, or mirror as a threaded reply under a previously
// mirrored root. It owns the root→relay mapping through the store; a
// mapping is recorded only after the timeline post succeeded, so a
// concurrent reply either sees the mapping or is dropped, never posted
// against a root that does not exist.
type Router struct {
	client          Client
	store           domain.RelayStore
	dir             *Directory
	classifier      *Classifier
	presenter       *Presenter
	timelineChannel string
	attachmentColor string
	inlineImages    bool
	logger          *slog.Logger
}

type RouterConfig struct {
	Client          Client
	Store           domain.RelayStore
	Directory       *Directory
	Classifier      *Classifier
	Presenter       *Presenter
	TimelineChannel string
	AttachmentColor string
	InlineImages    bool
	Logger          *slog.Logger
}

func NewRouter(cfg RouterConfig) *Router {
	return &Router{
		client:          cfg.Client,
		store:           cfg.Store,
		dir:             cfg.Directory,
		classifier:      cfg.Classifier,
		presenter:       cfg.Presenter,
		timelineChannel: cfg.TimelineChannel,
		attachmentColor: cfg.AttachmentColor,
		inlineImages:    cfg.InlineImages,
		logger:          cfg.Logger,
	}
}

// Handle processes one classified event to completion. No failure here is
// fatal: per-attachment failures degrade inside the presenter, per-event
// failures abort just this event, and the next event starts clean.
func (r *Router) Handle(ctx context.Context, ev domain.MessageEvent) {
	metrics.EventsReceived.Inc()
	log := r.logger.With("event_id", uuid.NewString(), "channel", ev.Channel, "ts", ev.Timestamp)

	if reason := r.classifier.Classify(ev); reason != SkipNone {
		metrics.EventsSkipped.Inc()
		log.Debug("event skipped", "reason", string(reason))
		return
	}

	start := time.Now()

	link, err := r.client.GetPermalink(ctx, ev.Channel, ev.Timestamp)
	if err != nil {
		metrics.EventsFailed.Inc()
		log.Error("permalink lookup failed, dropping event", "err", err)
		return
	}

	text := r.linkText(ctx, ev.Channel, link)

	if ev.IsRoot() {
		r.relayRoot(ctx, log, ev, link, text)
	} else {
		r.relayReply(ctx, log, ev, link, text)
	}

	metrics.RelayLatency.Observe(time.Since(start).Seconds())
}

// linkText is the plain timeline message body: the origin channel plus a
// link back to the original post.
func (r *Router) linkText(ctx context.Context, channelID, permalink string) string {
	name := r.dir.ChannelName(ctx, channelID)
	return fmt.Sprintf("#%s: <%s|view original post>", name, permalink)
}

func (r *Router) relayRoot(ctx context.Context, log *slog.Logger, ev domain.MessageEvent, link, text string) {
	var relayTS string
	var err error

	if ev.IsPrivate() {
		// Private content has no native preview that reaches timeline
		// readers, so the full presentation (rehosting included) is
		// built before the post.
		blocks := r.presenter.Blocks(ctx, ev, r.inlineImages)
		relayTS, err = r.client.PostMessage(ctx, r.timelineChannel, text, "", r.styled(blocks))
		if err != nil {
			metrics.EventsFailed.Inc()
			log.Error("timeline post failed", "err", err)
			return
		}
		r.recordMapping(ctx, log, ev.Timestamp, relayTS)
	} else {
		// Text-only post first so the platform's own link preview has a
		// message to attach to, then the rich preview as an unfurl.
		relayTS, err = r.client.PostMessage(ctx, r.timelineChannel, text, "", nil)
		if err != nil {
			metrics.EventsFailed.Inc()
			log.Error("timeline post failed", "err", err)
			return
		}
		r.recordMapping(ctx, log, ev.Timestamp, relayTS)
		r.unfurl(ctx, log, ev, link, relayTS)
	}

	metrics.RootsRelayed.Inc()
	log.Info("relayed root message", "relay_ts", relayTS)
}

func (r *Router) relayReply(ctx context.Context, log *slog.Logger, ev domain.MessageEvent, link, text string) {
	rootRelayTS, err := r.store.Get(ctx, ev.ThreadTS)
	if err != nil {
		metrics.EventsFailed.Inc()
		log.Error("mapping lookup failed", "thread_ts", ev.ThreadTS, "err", err)
		return
	}
	if rootRelayTS == "" {
		// The root was never mirrored (its relay failed, or the mapping
		// was lost). Accepted data loss, not retried.
		metrics.RepliesDropped.Inc()
		log.Info("reply dropped: thread root was never relayed", "thread_ts", ev.ThreadTS)
		return
	}

	if ev.IsPrivate() {
		blocks := r.presenter.Blocks(ctx, ev, r.inlineImages)
		if _, err := r.client.PostMessage(ctx, r.timelineChannel, text, rootRelayTS, r.styled(blocks)); err != nil {
			metrics.EventsFailed.Inc()
			log.Error("timeline reply post failed", "err", err)
			return
		}
	} else {
		relayTS, err := r.client.PostMessage(ctx, r.timelineChannel, text, rootRelayTS, nil)
		if err != nil {
			metrics.EventsFailed.Inc()
			log.Error("timeline reply post failed", "err", err)
			return
		}
		r.unfurl(ctx, log, ev, link, relayTS)
	}

	metrics.RepliesRelayed.Inc()
	log.Info("relayed thread reply", "thread_ts", ev.ThreadTS, "relay_root", rootRelayTS)
}

// unfurl attaches the rich preview to an already-posted timeline message.
// Image inlining stays off: public URLs already resolve for timeline
// readers, so rehosting would only duplicate files.
func (r *Router) unfurl(ctx context.Context, log *slog.Logger, ev domain.MessageEvent, link, relayTS string) {
	blocks := r.presenter.Blocks(ctx, ev, false)
	if err := r.client.Unfurl(ctx, r.timelineChannel, relayTS, link, blocks); err != nil {
		log.Warn("unfurl failed", "err", err)
	}
}

func (r *Router) recordMapping(ctx context.Context, log *slog.Logger, rootTS, relayTS string) {
	if err := r.store.Put(ctx, rootTS, relayTS); err != nil {
		log.Error("cannot record relay mapping, replies to this thread will be dropped", "err", err)
		return
	}
	if n, err := r.store.Len(ctx); err == nil {
		metrics.MappingSize.Set(n)
	}
}

func (r *Router) styled(blocks []slack.Block) []slack.Attachment {
	return []slack.Attachment{{
		Color:  r.attachmentColor,
		Blocks: slack.Blocks{BlockSet: blocks},
	}}
}
