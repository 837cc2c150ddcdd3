package domain

import "strings"

// Message subtypes delivered by the Slack events API that the relay cares about.
const (
	SubtypeBotMessage = "bot_message"
)

// Channel types as reported in the event's channel_type field.
const (
	ChannelTypePublic  = "channel"
	ChannelTypePrivate = "group"
)

// MessageEvent is one verified, parsed inbound message from the platform.
// It is never mutated after the gateway hands it to the relay engine.
type MessageEvent struct {
	Channel     string // origin channel id
	ChannelType string // "channel" (public) or "group" (private)
	Timestamp   string // message ts, unique within the channel
	ThreadTS    string // thread root ts, empty for messages outside a thread
	User        string // author user id, empty for bot messages
	Text        string
	SubType     string // "" for normal user messages
	BotName     string // username field, set for bot_message subtype
	Files       []AttachedFile
}

// IsRoot reports whether the event starts a thread (or is a plain
// channel message, which Slack treats as its own root).
func (e MessageEvent) IsRoot() bool {
	return e.ThreadTS == "" || e.ThreadTS == e.Timestamp
}

// IsPrivate reports whether the event originated in a private channel.
func (e MessageEvent) IsPrivate() bool {
	return e.ChannelType == ChannelTypePrivate
}

// AttachedFile describes a file carried by a message event, or the
// descriptor of a freshly uploaded copy of one.
type AttachedFile struct {
	ID         string
	Name       string
	Mimetype   string
	URLPrivate string // origin-scoped download URL, requires auth
	Permalink  string // pre-existing public permalink, may be empty
}

// IsImage reports whether the file renders as an inline image.
func (f AttachedFile) IsImage() bool {
	return strings.HasPrefix(f.Mimetype, "image/")
}
