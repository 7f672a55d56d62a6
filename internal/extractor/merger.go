package extractor

import (
	"log/slog"

	"github.com/stupside/storyfetch/internal/media"
)

// collector accumulates the story candidates of one walk. Every extraction
// step funnels its results through Merge, which keeps at most one entry per
// exact URL and per canonical story key. A collector has a single writer
// (the walk) and is read once the walk returns.
type collector struct {
	items []media.Item
}

func newCollector() *collector {
	return &collector{}
}

// Merge records one observation of a media URL.
func (c *collector) Merge(url string, isVideo bool) {
	if url == "" {
		return
	}

	for i := range c.items {
		if c.items[i].URL != url {
			continue
		}
		if isVideo && !c.items[i].IsVideo {
			c.items[i].IsVideo = true
			slog.Debug("collector: upgraded to video", "url", url)
		}
		return
	}

	key := media.CanonicalKey(url)
	for i := range c.items {
		existing := c.items[i]
		if media.CanonicalKey(existing.URL) != key {
			continue
		}
		if shouldReplace(existing, url, isVideo) {
			// A story judged video stays video.
			c.items[i] = media.Item{URL: url, IsVideo: isVideo || existing.IsVideo}
			slog.Debug("collector: replaced variant", "old", existing.URL, "new", url, "video", c.items[i].IsVideo)
		}
		return
	}

	c.items = append(c.items, media.Item{URL: url, IsVideo: isVideo})
	slog.Debug("collector: added", "url", url, "video", isVideo)
}

// MergeAll merges raw script results in order.
func (c *collector) MergeAll(found []rawItem) {
	for _, f := range found {
		c.Merge(f.URL, f.Video)
	}
}

// shouldReplace decides whether a same-story variant supersedes the entry
// already held: a video beats an image, and a URL carrying both an image and
// a video token beats a plain image-token URL.
func shouldReplace(existing media.Item, url string, isVideo bool) bool {
	if isVideo && !existing.IsVideo {
		return true
	}
	return media.HasImageToken(url) && media.HasImageToken(existing.URL) && media.HasVideoToken(url)
}

// Len returns the number of distinct candidates.
func (c *collector) Len() int {
	return len(c.items)
}

// Items returns a copy of the candidates in insertion order.
func (c *collector) Items() []media.Item {
	out := make([]media.Item, len(c.items))
	copy(out, c.items)
	return out
}
