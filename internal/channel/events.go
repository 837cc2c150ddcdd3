package channel

import (
	"encoding/json"
	"fmt"

	"relaybot/internal/domain"
)

// eventEnvelope is the outer Events API callback payload. The inner event
// is kept raw so message fields the typed helpers do not surface (the
// files array in particular) survive decoding.
type eventEnvelope struct {
	Type  string          `json:"type"`
	Event json.RawMessage `json:"event"`
}

type messageEventWire struct {
	Type        string     `json:"type"`
	SubType     string     `json:"subtype"`
	Channel     string     `json:"channel"`
	ChannelType string     `json:"channel_type"`
	User        string     `json:"user"`
	Username    string     `json:"username"`
	Text        string     `json:"text"`
	TS          string     `json:"ts"`
	ThreadTS    string     `json:"thread_ts"`
	FileID      string     `json:"file_id"`
	Files       []fileWire `json:"files"`
}

type fileWire struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Mimetype   string `json:"mimetype"`
	URLPrivate string `json:"url_private"`
	Permalink  string `json:"permalink"`
}

// decodeEvent extracts the inner event from a raw Events API payload.
func decodeEvent(payload json.RawMessage) (messageEventWire, error) {
	var envelope eventEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return messageEventWire{}, fmt.Errorf("decode event envelope: %w", err)
	}

	var ev messageEventWire
	if err := json.Unmarshal(envelope.Event, &ev); err != nil {
		return messageEventWire{}, fmt.Errorf("decode inner event: %w", err)
	}
	return ev, nil
}

func (w messageEventWire) toDomain() domain.MessageEvent {
	ev := domain.MessageEvent{
		Channel:     w.Channel,
		ChannelType: w.ChannelType,
		Timestamp:   w.TS,
		ThreadTS:    w.ThreadTS,
		User:        w.User,
		Text:        w.Text,
		SubType:     w.SubType,
		BotName:     w.Username,
	}
	for _, f := range w.Files {
		ev.Files = append(ev.Files, domain.AttachedFile{
			ID:         f.ID,
			Name:       f.Name,
			Mimetype:   f.Mimetype,
			URLPrivate: f.URLPrivate,
			Permalink:  f.Permalink,
		})
	}
	return ev
}
