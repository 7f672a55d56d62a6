package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/stupside/storyfetch/internal/action"
	"github.com/stupside/storyfetch/internal/app"
)

// session owns one hidden browser and its single tab for the duration of a
// walk. chromedp serializes every call on the tab, so the walker can treat
// each method as a blocking request to the browser.
type session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	browser     app.BrowserConfig
	fp          *fingerprint
	tracer      *debugTracer
}

// newSession starts the browser. The page stays blank until Navigate.
func newSession(ctx context.Context, cfg app.BrowserConfig, profileURL string) *session {
	fp := newFingerprint()
	slog.DebugContext(ctx, "session: fingerprint",
		"ua", fp.UserAgent,
		"platform", fp.Platform,
		"timezone", fp.TimezoneID,
		"viewport", fmt.Sprintf("%dx%d", fp.Width, fp.Height),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocatorOpts(cfg, fp)...)
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)

	return &session{
		ctx:         taskCtx,
		cancel:      taskCancel,
		allocCancel: allocCancel,
		browser:     cfg,
		fp:          fp,
		tracer:      newDebugTracer(profileURL),
	}
}

// Navigate installs the init scripts and loads url. It returns once the
// browser reports the load finished or failed, or the navigate timeout hits.
func (s *session) Navigate(url string) error {
	// Navigate with a timeout, but don't use a child context: canceling a
	// child of the chromedp task context breaks the target in chromedp v0.14.
	navDone := make(chan error, 1)
	go func() {
		navDone <- chromedp.Run(s.ctx,
			runtime.Enable(),
			network.Enable(),
			browser.SetDownloadBehavior(browser.SetDownloadBehaviorBehaviorDeny),
			injectScripts(s.fp),
			injectCDPStealth(s.fp),
			chromedp.Navigate(url),
		)
	}()

	timer := time.NewTimer(s.browser.NavigateTimeout)
	defer timer.Stop()

	select {
	case err := <-navDone:
		if err != nil {
			return err
		}
	case <-timer.C:
		return fmt.Errorf("navigation timed out after %s", s.browser.NavigateTimeout)
	case <-s.ctx.Done():
		return s.ctx.Err()
	}

	if s.browser.BypassTurnstile {
		if err := action.BypassTurnstile(s.ctx, s.browser.TurnstileSolve, s.browser.TurnstileRetry); err != nil {
			slog.DebugContext(s.ctx, "session: turnstile bypass failed", "error", err)
		}
	}
	return nil
}

// Evaluate runs script in the page and decodes its JSON result into res.
func (s *session) Evaluate(script string, res any) error {
	return chromedp.Run(s.ctx, chromedp.Evaluate(script, res))
}

// OuterHTML returns the current markup of the whole document.
func (s *session) OuterHTML() (string, error) {
	var html string
	if err := chromedp.Run(s.ctx, chromedp.Evaluate(`document.documentElement.outerHTML`, &html)); err != nil {
		return "", err
	}
	return html, nil
}

// ClickAt dispatches a real mouse click at viewport coordinates.
func (s *session) ClickAt(x, y float64) error {
	return action.Click(s.ctx, x, y)
}

// PressArrowRight sends a right-arrow key press to the focused document.
func (s *session) PressArrowRight() error {
	return action.PressKey(s.ctx, kb.ArrowRight)
}

// Snapshot saves a debug snapshot of the current step.
func (s *session) Snapshot(label string) {
	s.tracer.capture(s.ctx, label)
}

// Close tears down the tab and the browser process.
func (s *session) Close() {
	s.cancel()
	s.allocCancel()
}
