package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/chromedp/chromedp"
)

// debugTracer writes a screenshot and the page markup for each walk step
// into dir. It does nothing unless the default logger has debug enabled.
type debugTracer struct {
	dir string
	seq atomic.Int64
}

func newDebugTracer(profileURL string) *debugTracer {
	return &debugTracer{dir: filepath.Join(".debug", sanitize(profileURL))}
}

func (t *debugTracer) capture(ctx context.Context, label string) {
	if !slog.Default().Enabled(ctx, slog.LevelDebug) {
		return
	}

	if err := os.MkdirAll(t.dir, 0o755); err != nil {
		slog.DebugContext(ctx, "snapshot: mkdir failed", "error", err)
		return
	}

	prefix := filepath.Join(t.dir, fmt.Sprintf("%02d_%s", t.seq.Add(1), label))

	var buf []byte
	if err := chromedp.Run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		slog.DebugContext(ctx, "snapshot: screenshot failed", "label", label, "error", err)
	} else if err := os.WriteFile(prefix+".png", buf, 0o644); err != nil {
		slog.DebugContext(ctx, "snapshot: write png failed", "error", err)
	}

	var html string
	if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		slog.DebugContext(ctx, "snapshot: html failed", "label", label, "error", err)
	} else if err := os.WriteFile(prefix+".html", []byte(html), 0o644); err != nil {
		slog.DebugContext(ctx, "snapshot: write html failed", "error", err)
	}

	slog.DebugContext(ctx, "snapshot: saved", "label", label, "path", prefix)
}

// sanitize turns a URL into a safe directory name.
func sanitize(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "unknown"
	}
	s := u.Host + u.Path
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, ":", "_")
	if len(s) > 80 {
		s = s[:80]
	}
	return s
}
