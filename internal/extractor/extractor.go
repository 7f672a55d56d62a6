package extractor

import (
	"context"
	"errors"
	"log/slog"

	"github.com/stupside/storyfetch/internal/app"
)

// Extractor walks mirror profile pages in a hidden browser and collects
// story candidates. Each call to Extract owns a fresh browser.
type Extractor struct {
	browser app.BrowserConfig
	walk    app.WalkConfig
}

// NewExtractor creates an Extractor from the browser and walk settings.
func NewExtractor(browserCfg app.BrowserConfig, walkCfg app.WalkConfig) *Extractor {
	return &Extractor{
		browser: browserCfg,
		walk:    walkCfg,
	}
}

// Extract walks profileURL. The whole walk, browser start included, is
// bounded by the walk timeout. The Result is never nil: on timeout or
// cancellation it carries what was collected before the interruption.
func (e *Extractor) Extract(ctx context.Context, profileURL string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.walk.Timeout)
	defer cancel()

	s := newSession(ctx, e.browser, profileURL)
	defer s.Close()

	res, err := walk(ctx, e.walk, s, profileURL)
	if err != nil && !errors.Is(err, ErrLoadFailed) {
		slog.DebugContext(ctx, "extract: walk ended early", "url", profileURL, "items", len(res.Items), "error", err)
	}
	return res, err
}
