package extractor

import (
	"context"
	_ "embed"
	"log/slog"
)

// clickAvatarJS clicks the profile avatar control. Returns whether one was found.
//
//go:embed js/click_avatar.js
var clickAvatarJS string

// clickStoriesTabJS clicks the "stories" tab of the profile.
//
//go:embed js/click_stories_tab.js
var clickStoriesTabJS string

// openFirstStoryJS opens the story viewer popup on the first story.
//
//go:embed js/open_first_story.js
var openFirstStoryJS string

// extractTabJS returns [{url, video}] for the tiles of the stories tab.
//
//go:embed js/extract_tab.js
var extractTabJS string

// extractPopupJS returns [{url, video}] for the slide shown by the viewer popup.
//
//go:embed js/extract_popup.js
var extractPopupJS string

// nextStoryJS advances the viewer. When no control can be clicked it returns
// a point to click or asks for a key press.
//
//go:embed js/next_story.js
var nextStoryJS string

//go:embed js/readiness.js
var readinessJS string

//go:embed js/mute_media.js
var muteMediaJS string

// rawItem is one (url, media kind) pair as returned by an extraction script.
type rawItem struct {
	URL   string `json:"url"`
	Video bool   `json:"video"`
}

// advanceResult is what nextStoryJS reports.
type advanceResult struct {
	Method string  `json:"method"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

const (
	advanceByPoint = "point"
	advanceByKey   = "key"
)

// clickProbe runs a script that clicks a control and reports whether it found one.
// Evaluation errors count as "not found".
func clickProbe(ctx context.Context, p browserPage, name, script string) bool {
	var found bool
	if err := p.Evaluate(script, &found); err != nil {
		slog.DebugContext(ctx, "probe: evaluation failed", "probe", name, "error", err)
		return false
	}
	slog.DebugContext(ctx, "probe: done", "probe", name, "found", found)
	return found
}

// extractItems runs an extraction script. Anything that is not an array of
// items, including an evaluation error, yields no items.
func extractItems(ctx context.Context, p browserPage, name, script string) []rawItem {
	var items []rawItem
	if err := p.Evaluate(script, &items); err != nil {
		slog.DebugContext(ctx, "extract: evaluation failed", "script", name, "error", err)
		return nil
	}
	slog.DebugContext(ctx, "extract: done", "script", name, "count", len(items))
	return items
}

// advanceStory moves the viewer to the next story. It never reports failure:
// the outcome of a click or key press cannot be observed here.
func advanceStory(ctx context.Context, p browserPage) {
	var res advanceResult
	if err := p.Evaluate(nextStoryJS, &res); err != nil {
		slog.DebugContext(ctx, "advance: evaluation failed", "error", err)
		res.Method = advanceByKey
	}

	switch res.Method {
	case advanceByPoint:
		if err := p.ClickAt(res.X, res.Y); err != nil {
			slog.DebugContext(ctx, "advance: click failed", "x", res.X, "y", res.Y, "error", err)
		}
	case advanceByKey:
		if err := p.PressArrowRight(); err != nil {
			slog.DebugContext(ctx, "advance: key press failed", "error", err)
		}
	}
	slog.DebugContext(ctx, "advance: done", "method", res.Method)
}
