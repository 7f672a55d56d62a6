// Package viewer recovers story tiles from a captured HTML snapshot of a
// mirror's profile page.
package viewer

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/stupside/storyfetch/internal/media"
)

// tileSelector matches story tile links. Mirrors mark them with data-type
// and carry the media URL in data-content.
const tileSelector = `[data-type="story"][data-content]`

// Parse returns the story items found in html, in document order, without
// duplicate URLs. An empty result is not an error.
func Parse(html string) ([]media.Item, error) {
	return ParseReader(strings.NewReader(html))
}

// ParseReader is Parse over an io.Reader.
func ParseReader(r io.Reader) ([]media.Item, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	var items []media.Item
	seen := make(map[string]struct{})

	doc.Find(tileSelector).Each(func(_ int, sel *goquery.Selection) {
		content := strings.TrimSpace(sel.AttrOr("data-content", ""))
		if content == "" {
			return
		}
		if _, ok := seen[content]; ok {
			return
		}
		seen[content] = struct{}{}

		items = append(items, media.Item{URL: content, IsVideo: isVideoTile(sel)})
	})

	return items, nil
}

// ParseFile parses a snapshot saved on disk.
func ParseFile(path string) ([]media.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	return ParseReader(f)
}

func isVideoTile(sel *goquery.Selection) bool {
	if strings.EqualFold(strings.TrimSpace(sel.AttrOr("data-media-type", "")), "video") {
		return true
	}
	return media.IsVideoFilename(sel.AttrOr("data-filename", ""))
}
