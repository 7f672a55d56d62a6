package action

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
)

// turnstilePresentJS reports whether the page shows a Cloudflare challenge,
// either the Turnstile widget or the interstitial "Just a moment" page.
//
//go:embed js/turnstile_present.js
var turnstilePresentJS string

// turnstileCheckboxJS returns {x, y} of the challenge checkbox, or null while
// the challenge iframe is not laid out yet.
//
//go:embed js/turnstile_checkbox.js
var turnstileCheckboxJS string

//go:embed js/turnstile_cleared.js
var turnstileClearedJS string

// ErrTurnstileUnsolved is returned when the challenge is still shown after a reload.
var ErrTurnstileUnsolved = errors.New("turnstile challenge not solved")

// checkpoint is the position of the challenge checkbox.
type checkpoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func challenged(ctx context.Context) bool {
	var present bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(turnstilePresentJS, &present)); err != nil {
		return false
	}
	return present
}

// solve waits for the challenge to clear within timeout. It clicks the
// checkbox as soon as it appears, while also accepting a challenge that
// clears on its own.
func solve(ctx context.Context, timeout time.Duration) bool {
	sCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cleared := make(chan struct{}, 2)

	go func() {
		var pos checkpoint
		if err := chromedp.Run(sCtx,
			chromedp.Poll(turnstileCheckboxJS, &pos, chromedp.WithPollingTimeout(0)),
		); err != nil {
			slog.DebugContext(ctx, "turnstile: checkbox never appeared", "error", err)
			return
		}
		// Built after the poll: the click coordinates are only known now.
		if err := chromedp.Run(sCtx, chromedp.MouseClickXY(pos.X, pos.Y, chromedp.ButtonLeft)); err != nil {
			slog.DebugContext(ctx, "turnstile: click failed", "error", err)
			return
		}
		slog.DebugContext(ctx, "turnstile: checkbox clicked", "x", pos.X, "y", pos.Y)
	}()

	go func() {
		var ok bool
		if err := chromedp.Run(sCtx,
			chromedp.Poll(turnstileClearedJS, &ok, chromedp.WithPollingTimeout(0)),
			chromedp.WaitReady("body"),
		); err != nil {
			return
		}
		cleared <- struct{}{}
	}()

	select {
	case <-cleared:
		return true
	case <-sCtx.Done():
		return false
	}
}

// BypassTurnstile clears a Cloudflare challenge on the current page, if any.
// After a failed attempt the page is reloaded once and solved again.
func BypassTurnstile(ctx context.Context, solveTimeout, retryTimeout time.Duration) error {
	if !challenged(ctx) {
		return nil
	}
	slog.DebugContext(ctx, "turnstile: challenge detected")

	if solve(ctx, solveTimeout) {
		return nil
	}

	reloadCtx, cancel := context.WithTimeout(ctx, retryTimeout)
	defer cancel()
	if err := chromedp.Run(reloadCtx, chromedp.Reload(), chromedp.WaitReady("body")); err != nil {
		return fmt.Errorf("turnstile reload: %w", err)
	}

	if challenged(ctx) && !solve(ctx, solveTimeout) {
		return ErrTurnstileUnsolved
	}
	slog.DebugContext(ctx, "turnstile: solved after reload")
	return nil
}
