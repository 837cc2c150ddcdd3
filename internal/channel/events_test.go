package channel

import (
	"encoding/json"
	"testing"
)

func TestDecodeEvent_MessageWithFiles(t *testing.T) {
	payload := json.RawMessage(`{
		"type": "event_callback",
		"event": {
			"type": "message",
			"channel": "G0SECRET",
			"channel_type": "group",
			"user": "U0ALICE",
			"text": "look at this",
			"ts": "1700000000.000100",
			"thread_ts": "1700000000.000100",
			"files": [
				{
					"id": "F0IMG",
					"name": "cat.png",
					"mimetype": "image/png",
					"url_private": "https://files.example/private/cat.png",
					"permalink": "https://files.example/perma/cat.png"
				}
			]
		}
	}`)

	wire, err := decodeEvent(payload)
	if err != nil {
		t.Fatalf("decodeEvent: %v", err)
	}
	if wire.Type != "message" {
		t.Errorf("Type = %q", wire.Type)
	}

	ev := wire.toDomain()
	if ev.Channel != "G0SECRET" || ev.ChannelType != "group" || ev.User != "U0ALICE" {
		t.Errorf("event = %+v", ev)
	}
	if !ev.IsPrivate() {
		t.Error("group channel_type must be private")
	}
	if !ev.IsRoot() {
		t.Error("thread_ts == ts must be a root")
	}
	if len(ev.Files) != 1 {
		t.Fatalf("files = %d, want 1", len(ev.Files))
	}
	f := ev.Files[0]
	if f.URLPrivate != "https://files.example/private/cat.png" || !f.IsImage() {
		t.Errorf("file = %+v", f)
	}
}

func TestDecodeEvent_BotMessage(t *testing.T) {
	payload := json.RawMessage(`{
		"type": "event_callback",
		"event": {
			"type": "message",
			"subtype": "bot_message",
			"channel": "C0GENERAL",
			"channel_type": "channel",
			"username": "Deploy Bot",
			"text": "deployed",
			"ts": "1700000000.000200"
		}
	}`)

	wire, err := decodeEvent(payload)
	if err != nil {
		t.Fatalf("decodeEvent: %v", err)
	}
	ev := wire.toDomain()
	if ev.SubType != "bot_message" || ev.BotName != "Deploy Bot" {
		t.Errorf("event = %+v", ev)
	}
	if ev.User != "" {
		t.Errorf("bot message must have no user, got %q", ev.User)
	}
}

func TestDecodeEvent_Malformed(t *testing.T) {
	if _, err := decodeEvent(json.RawMessage(`{"event": "not an object"}`)); err == nil {
		t.Error("malformed inner event must error")
	}
	if _, err := decodeEvent(json.RawMessage(`not json`)); err == nil {
		t.Error("malformed envelope must error")
	}
}
