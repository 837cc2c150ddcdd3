package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"relaybot/internal/domain"
)

// ErrNoPrivateURL means the attachment record carries no downloadable
// location, so there is nothing to rehost.
var ErrNoPrivateURL = errors.New("attachment has no private download url")

// Rehoster copies a private-channel file into the timeline channel so it
// stays viewable for readers who cannot see the origin channel.
type Rehoster struct {
	client          Client
	fetcher         FileFetcher
	timelineChannel string
	logger          *slog.Logger
}

func NewRehoster(client Client, fetcher FileFetcher, timelineChannel string, logger *slog.Logger) *Rehoster {
	return &Rehoster{
		client:          client,
		fetcher:         fetcher,
		timelineChannel: timelineChannel,
		logger:          logger,
	}
}

// Rehost downloads the file and re-uploads it into the timeline channel,
// returning the descriptor of the new copy. The download is buffered in a
// temp file that is removed on every exit path; the upload API needs the
// exact byte count up front, which a streamed body cannot provide.
// Failures here are fail-soft: the caller falls back to the original link.
func (r *Rehoster) Rehost(ctx context.Context, f domain.AttachedFile) (domain.AttachedFile, error) {
	if f.URLPrivate == "" {
		return domain.AttachedFile{}, ErrNoPrivateURL
	}

	body, err := r.fetcher.Fetch(ctx, f.URLPrivate)
	if err != nil {
		return domain.AttachedFile{}, fmt.Errorf("download %s: %w", f.ID, err)
	}
	defer body.Close()

	tmp, err := os.CreateTemp("", "relaybot-rehost-*")
	if err != nil {
		return domain.AttachedFile{}, fmt.Errorf("temp file: %w", err)
	}
	defer func() {
		tmp.Close()
		if err := os.Remove(tmp.Name()); err != nil {
			r.logger.Warn("cannot remove temp file", "path", tmp.Name(), "err", err)
		}
	}()

	size, err := io.Copy(tmp, body)
	if err != nil {
		return domain.AttachedFile{}, fmt.Errorf("buffer %s: %w", f.ID, err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return domain.AttachedFile{}, fmt.Errorf("rewind temp file: %w", err)
	}

	uploaded, err := r.client.UploadFile(ctx, r.timelineChannel, f.Name, tmp, size)
	if err != nil {
		return domain.AttachedFile{}, fmt.Errorf("upload %s: %w", f.ID, err)
	}

	r.logger.Info("rehosted attachment", "file", f.ID, "new_file", uploaded.ID, "bytes", size)
	return uploaded, nil
}
