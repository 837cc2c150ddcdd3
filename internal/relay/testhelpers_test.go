package relay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/slack-go/slack"

	"relaybot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

var errRemote = errors.New("remote call failed")

type postCall struct {
	Channel     string
	Text        string
	ThreadTS    string
	Attachments []slack.Attachment
	TS          string // ts assigned to this post
}

type unfurlCall struct {
	Channel string
	TS      string
	URL     string
	Blocks  []slack.Block
}

type uploadCall struct {
	Channel  string
	Filename string
	Data     []byte
}

// fakeClient implements Client in memory and records every call.
type fakeClient struct {
	mu sync.Mutex

	permalinkErr error

	channels     map[string]domain.ChannelInfo
	channelErr   error // returned for channels not in the map
	channelCalls int

	users     map[string]domain.UserProfile
	userCalls int

	posts   []postCall
	postErr error

	unfurls   []unfurlCall
	unfurlErr error

	uploaded  domain.AttachedFile
	uploadErr error
	uploads   []uploadCall

	nextTS int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		channels:   make(map[string]domain.ChannelInfo),
		channelErr: errRemote,
		users:      make(map[string]domain.UserProfile),
	}
}

func (f *fakeClient) GetPermalink(ctx context.Context, channelID, messageTS string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.permalinkErr != nil {
		return "", f.permalinkErr
	}
	return fmt.Sprintf("https://origin.example/%s/%s", channelID, messageTS), nil
}

func (f *fakeClient) GetChannelInfo(ctx context.Context, channelID string) (domain.ChannelInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channelCalls++
	info, ok := f.channels[channelID]
	if !ok {
		return domain.ChannelInfo{}, f.channelErr
	}
	return info, nil
}

func (f *fakeClient) GetUserInfo(ctx context.Context, userID string) (domain.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userCalls++
	profile, ok := f.users[userID]
	if !ok {
		return domain.UserProfile{}, errRemote
	}
	return profile, nil
}

func (f *fakeClient) PostMessage(ctx context.Context, channelID, text, threadTS string, attachments []slack.Attachment) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.postErr != nil {
		return "", f.postErr
	}
	f.nextTS++
	ts := fmt.Sprintf("9999.%04d", f.nextTS)
	f.posts = append(f.posts, postCall{
		Channel:     channelID,
		Text:        text,
		ThreadTS:    threadTS,
		Attachments: attachments,
		TS:          ts,
	})
	return ts, nil
}

func (f *fakeClient) Unfurl(ctx context.Context, channelID, messageTS, url string, blocks []slack.Block) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unfurlErr != nil {
		return f.unfurlErr
	}
	f.unfurls = append(f.unfurls, unfurlCall{Channel: channelID, TS: messageTS, URL: url, Blocks: blocks})
	return nil
}

func (f *fakeClient) UploadFile(ctx context.Context, channelID, filename string, r io.Reader, size int64) (domain.AttachedFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.AttachedFile{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return domain.AttachedFile{}, f.uploadErr
	}
	f.uploads = append(f.uploads, uploadCall{Channel: channelID, Filename: filename, Data: data})
	return f.uploaded, nil
}

// fakeFetcher serves fixed bytes and tracks whether the body was closed.
type fakeFetcher struct {
	data []byte
	err  error

	mu     sync.Mutex
	closed bool
}

type trackingReader struct {
	io.Reader
	onClose func()
}

func (t *trackingReader) Close() error {
	t.onClose()
	return nil
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &trackingReader{
		Reader: bytes.NewReader(f.data),
		onClose: func() {
			f.mu.Lock()
			f.closed = true
			f.mu.Unlock()
		},
	}, nil
}

func (f *fakeFetcher) wasClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// sectionText extracts the mrkdwn text from a section block.
func sectionText(t *testing.T, b slack.Block) string {
	t.Helper()
	sb, ok := b.(*slack.SectionBlock)
	if !ok {
		t.Fatalf("block is %T, want *slack.SectionBlock", b)
	}
	if sb.Text == nil {
		t.Fatal("section block has no text")
	}
	return sb.Text.Text
}

// contextText extracts the first plain-text element from a context block.
func contextText(t *testing.T, b slack.Block) string {
	t.Helper()
	cb, ok := b.(*slack.ContextBlock)
	if !ok {
		t.Fatalf("block is %T, want *slack.ContextBlock", b)
	}
	for _, el := range cb.ContextElements.Elements {
		if txt, ok := el.(*slack.TextBlockObject); ok {
			return txt.Text
		}
	}
	t.Fatal("context block has no text element")
	return ""
}
