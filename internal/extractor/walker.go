package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stupside/storyfetch/internal/app"
	"github.com/stupside/storyfetch/internal/media"
)

// ErrLoadFailed is returned when the profile page cannot be navigated to.
var ErrLoadFailed = errors.New("page load failed")

// Result is the outcome of one walk: the merged candidates and the document
// markup captured at the last successful extraction step.
type Result struct {
	Items []media.Item
	HTML  string
}

// browserPage is the set of operations the walker needs from a browser tab.
// All of them run against the page owned by one session, in call order.
type browserPage interface {
	Navigate(url string) error
	Evaluate(script string, res any) error
	OuterHTML() (string, error)
	ClickAt(x, y float64) error
	PressArrowRight() error
	Snapshot(label string)
}

// walker drives one profile page through the story UI:
// load, avatar, stories tab, tile extraction, then the viewer popup if the
// tab had nothing.
type walker struct {
	cfg   app.WalkConfig
	page  browserPage
	items *collector
	html  string
}

// walk runs the story walk for profileURL. The returned Result is never nil.
// Only a load failure or cancellation produce an error; in the latter case
// the Result holds whatever was collected so far.
func walk(ctx context.Context, cfg app.WalkConfig, page browserPage, profileURL string) (*Result, error) {
	w := &walker{
		cfg:   cfg,
		page:  page,
		items: newCollector(),
	}

	err := w.run(ctx, profileURL)

	return &Result{Items: w.items.Items(), HTML: w.html}, err
}

func (w *walker) run(ctx context.Context, profileURL string) error {
	slog.DebugContext(ctx, "walk: loading profile", "url", profileURL)
	if err := w.page.Navigate(profileURL); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrLoadFailed, profileURL, err)
	}
	w.page.Snapshot("loaded")

	if err := w.settle(ctx, w.cfg.LoadSettle); err != nil {
		return err
	}
	clickProbe(ctx, w.page, "avatar", clickAvatarJS)

	if err := w.settle(ctx, w.cfg.ClickSettle); err != nil {
		return err
	}
	clickProbe(ctx, w.page, "stories-tab", clickStoriesTabJS)

	if err := w.settle(ctx, w.cfg.ClickSettle); err != nil {
		return err
	}

	w.extract(ctx, "tab", extractTabJS)
	w.page.Snapshot("tab")

	if w.items.Len() > 0 {
		slog.DebugContext(ctx, "walk: stories found in tab", "count", w.items.Len())
		return nil
	}

	slog.DebugContext(ctx, "walk: tab empty, opening viewer")
	clickProbe(ctx, w.page, "open-first-story", openFirstStoryJS)

	if err := w.settle(ctx, w.cfg.PopupSettle); err != nil {
		return err
	}

	return w.stepPopup(ctx)
}

// stepPopup extracts the current slide, then advances, for cfg.Slides slides.
// No advance follows the last extraction.
func (w *walker) stepPopup(ctx context.Context) error {
	stale := 0

	for i := range w.cfg.Slides {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("walk interrupted at slide %d: %w", i, err)
		}

		prev := w.html
		captured := w.extract(ctx, "popup", extractPopupJS)
		w.page.Snapshot(fmt.Sprintf("popup_%02d", i))

		if w.cfg.StopOnStale && i > 0 && captured && w.html == prev {
			stale++
			if stale >= w.cfg.StaleLimit {
				slog.DebugContext(ctx, "walk: viewer stopped advancing", "slide", i)
				return nil
			}
		} else {
			stale = 0
		}

		if i == w.cfg.Slides-1 {
			break
		}

		advanceStory(ctx, w.page)

		if err := w.settle(ctx, w.cfg.StepInterval); err != nil {
			return err
		}
	}

	slog.DebugContext(ctx, "walk: viewer done", "count", w.items.Len())
	return nil
}

// extract runs one extraction script, merges its items and refreshes the
// snapshot. A failed snapshot keeps the previous one and reports false.
func (w *walker) extract(ctx context.Context, name, script string) bool {
	w.items.MergeAll(extractItems(ctx, w.page, name, script))

	html, err := w.page.OuterHTML()
	if err != nil {
		slog.DebugContext(ctx, "walk: snapshot failed", "step", name, "error", err)
		return false
	}
	w.html = html
	return true
}
