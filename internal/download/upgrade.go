package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/stupside/storyfetch/internal/media"
)

// ErrNotVideo is returned by a probe when the URL does not serve video.
var ErrNotVideo = errors.New("not a video")

// Upgrade returns a video version of item when the mirror serves one. Some
// mirrors only expose the poster image of a video story; its video lives at
// the sibling /video{s}.php URL. Items already marked as video, and items
// whose variants all fail the probe, are returned unchanged.
func (c *Client) Upgrade(ctx context.Context, item media.Item) media.Item {
	if item.IsVideo {
		return item
	}

	for _, variant := range media.VideoVariants(item.URL) {
		err := c.probeVideo(ctx, variant)
		if err == nil {
			slog.DebugContext(ctx, "upgrade: video found", "from", item.URL, "to", variant)
			return media.Item{URL: variant, IsVideo: true}
		}
		slog.DebugContext(ctx, "upgrade: variant rejected", "url", variant, "error", err)
	}

	return item
}

// probeVideo checks that rawURL answers with a video content type. It tries
// HEAD first and falls back to a one-byte ranged GET for servers that do not
// implement HEAD.
func (c *Client) probeVideo(ctx context.Context, rawURL string) error {
	ct, err := c.headContentType(ctx, rawURL)
	if err != nil {
		ct, err = c.rangeContentType(ctx, rawURL)
		if err != nil {
			return err
		}
	}

	if !media.IsVideoContentType(ct) {
		return fmt.Errorf("%w: %s serves %q", ErrNotVideo, rawURL, ct)
	}
	return nil
}

func (c *Client) headContentType(ctx context.Context, rawURL string) (string, error) {
	resp, err := c.once(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return "", err
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HEAD %s: status %d", rawURL, resp.StatusCode)
	}
	return resp.Header.Get("Content-Type"), nil
}

func (c *Client) rangeContentType(ctx context.Context, rawURL string) (string, error) {
	header := http.Header{
		"Range":           {"bytes=0-0"},
		"Accept-Encoding": {"identity"},
	}

	resp, err := c.once(ctx, http.MethodGet, rawURL, header)
	if err != nil {
		return "", err
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return "", fmt.Errorf("GET %s: status %d", rawURL, resp.StatusCode)
	}
	return resp.Header.Get("Content-Type"), nil
}
