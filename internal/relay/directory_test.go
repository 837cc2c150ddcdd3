package relay

import (
	"context"
	"testing"

	"relaybot/internal/domain"
)

func TestDirectory_ChannelNameCached(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	client.channels["C1"] = domain.ChannelInfo{Name: "general"}
	d := NewDirectory(client, testLogger())

	if got := d.ChannelName(ctx, "C1"); got != "general" {
		t.Fatalf("first lookup = %q", got)
	}
	if got := d.ChannelName(ctx, "C1"); got != "general" {
		t.Fatalf("second lookup = %q", got)
	}
	if client.channelCalls != 1 {
		t.Errorf("remote calls = %d, want 1 (second lookup must hit the cache)", client.channelCalls)
	}
}

func TestDirectory_ChannelNotFoundSynthesized(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	client.channelErr = domain.ErrChannelNotFound
	d := NewDirectory(client, testLogger())

	got := d.ChannelName(ctx, "C0EXTERNAL123")
	if got != "external-NAL123" {
		t.Fatalf("synthesized name = %q, want external-NAL123", got)
	}
	// The synthesized label is cached: no second remote call.
	d.ChannelName(ctx, "C0EXTERNAL123")
	if client.channelCalls != 1 {
		t.Errorf("remote calls = %d, want 1", client.channelCalls)
	}
}

func TestDirectory_ChannelTransientFailureNotCached(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient() // default channelErr is a generic failure
	d := NewDirectory(client, testLogger())

	if got := d.ChannelName(ctx, "C1"); got != "unknown" {
		t.Fatalf("transient failure = %q, want unknown", got)
	}

	// The channel appears later; the next lookup must retry and succeed.
	client.mu.Lock()
	client.channels["C1"] = domain.ChannelInfo{Name: "recovered"}
	client.mu.Unlock()

	if got := d.ChannelName(ctx, "C1"); got != "recovered" {
		t.Errorf("retry after transient failure = %q, want recovered", got)
	}
	if client.channelCalls != 2 {
		t.Errorf("remote calls = %d, want 2", client.channelCalls)
	}
}

func TestDirectory_UserCached(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	client.users["U1"] = domain.UserProfile{DisplayName: "Alice", AvatarURL: "https://a.example/48.png"}
	d := NewDirectory(client, testLogger())

	first := d.User(ctx, "U1")
	second := d.User(ctx, "U1")
	if first != second {
		t.Errorf("cached value differs: %+v vs %+v", first, second)
	}
	if client.userCalls != 1 {
		t.Errorf("remote calls = %d, want 1", client.userCalls)
	}
}

func TestDirectory_UserFallbackNotCached(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	d := NewDirectory(client, testLogger())

	got := d.User(ctx, "U404")
	if got.DisplayName != "Unknown User" || got.AvatarURL != "" {
		t.Fatalf("fallback profile = %+v", got)
	}

	// Lookup later succeeds: failures must not stick.
	client.mu.Lock()
	client.users["U404"] = domain.UserProfile{DisplayName: "Bob"}
	client.mu.Unlock()

	if got := d.User(ctx, "U404"); got.DisplayName != "Bob" {
		t.Errorf("retry = %+v, want Bob", got)
	}
}
