package relay

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"relaybot/internal/domain"
)

const (
	unknownChannelName = "unknown"
	fallbackUserName   = "Unknown User"
)

// Directory memoizes channel-name and user-profile lookups so repeated
// events do not hammer the platform's directory API. Entries are
// write-once for the process lifetime; only definitive results are
// cached, so transient failures get retried by the next message.
type Directory struct {
	client Client
	logger *slog.Logger

	mu       sync.Mutex
	channels map[string]string
	users    map[string]domain.UserProfile
}

func NewDirectory(client Client, logger *slog.Logger) *Directory {
	return &Directory{
		client:   client,
		logger:   logger,
		channels: make(map[string]string),
		users:    make(map[string]domain.UserProfile),
	}
}

// ChannelName resolves a channel id to its display name. A channel the
// platform reports as missing (deleted, or shared from another workspace)
// gets a stable synthesized label derived from the id, and that label is
// cached. Any other failure returns "unknown" without caching.
func (d *Directory) ChannelName(ctx context.Context, channelID string) string {
	d.mu.Lock()
	name, ok := d.channels[channelID]
	d.mu.Unlock()
	if ok {
		return name
	}

	info, err := d.client.GetChannelInfo(ctx, channelID)
	if err != nil {
		if errors.Is(err, domain.ErrChannelNotFound) {
			name := "external-" + idSuffix(channelID)
			d.mu.Lock()
			d.channels[channelID] = name
			d.mu.Unlock()
			return name
		}
		d.logger.Warn("channel lookup failed", "channel", channelID, "err", err)
		return unknownChannelName
	}

	d.mu.Lock()
	d.channels[channelID] = info.Name
	d.mu.Unlock()
	return info.Name
}

// LookupUser resolves a user profile, reporting whether the resolution
// succeeded. Failed lookups are not cached.
func (d *Directory) LookupUser(ctx context.Context, userID string) (domain.UserProfile, bool) {
	d.mu.Lock()
	profile, ok := d.users[userID]
	d.mu.Unlock()
	if ok {
		return profile, true
	}

	profile, err := d.client.GetUserInfo(ctx, userID)
	if err != nil {
		d.logger.Warn("user lookup failed", "user", userID, "err", err)
		return domain.UserProfile{}, false
	}

	d.mu.Lock()
	d.users[userID] = profile
	d.mu.Unlock()
	return profile, true
}

// User resolves a user profile, degrading to a generic fallback profile
// when the lookup fails.
func (d *Directory) User(ctx context.Context, userID string) domain.UserProfile {
	if profile, ok := d.LookupUser(ctx, userID); ok {
		return profile
	}
	return domain.UserProfile{DisplayName: fallbackUserName}
}

// idSuffix returns the trailing characters of an id, enough to tell
// synthesized external-channel labels apart.
func idSuffix(id string) string {
	if len(id) <= 6 {
		return id
	}
	return id[len(id)-6:]
}
