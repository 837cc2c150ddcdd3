package domain

import "errors"

// ErrChannelNotFound is returned by directory lookups when the platform
// definitively reports the channel as missing (deleted or cross-workspace),
// as opposed to a transient lookup failure.
var ErrChannelNotFound = errors.New("channel not found")

// UserProfile is the subset of a user's directory entry the relay renders.
type UserProfile struct {
	DisplayName string
	AvatarURL   string
}

// ChannelInfo is the subset of channel metadata the relay renders.
type ChannelInfo struct {
	Name string
}
