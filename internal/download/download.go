package download

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/stupside/storyfetch/internal/media"
)

// Report summarizes one Download call.
type Report struct {
	Saved   []string
	Skipped int
	Failed  int
}

// FileBase returns the extension-less file name for item. Image and video
// renditions of one story share a canonical key, so they share a name too
// and a story is never stored twice.
func FileBase(item media.Item) string {
	sum := sha1.Sum([]byte(media.CanonicalKey(item.URL)))
	return hex.EncodeToString(sum[:])[:16]
}

// Download saves items into dir, at most download.max_concurrency at once.
// Items whose file already exists are skipped. Failures do not stop the
// other downloads; they are joined into the returned error.
func (c *Client) Download(ctx context.Context, dir string, items []media.Item) (Report, error) {
	var report Report

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return report, fmt.Errorf("creating %s: %w", dir, err)
	}

	var (
		mu   sync.Mutex
		errs []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.MaxConcurrency)

	for _, item := range items {
		g.Go(func() error {
			if c.cfg.UpgradeVideos {
				item = c.Upgrade(gctx, item)
			}

			path, saved, err := c.save(gctx, dir, item)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err != nil:
				report.Failed++
				errs = append(errs, err)
				slog.WarnContext(gctx, "download failed", "url", item.URL, "error", err)
			case !saved:
				report.Skipped++
				slog.DebugContext(gctx, "download: already present", "path", path)
			default:
				report.Saved = append(report.Saved, path)
				slog.InfoContext(gctx, "saved", "path", path, "video", item.IsVideo)
			}
			return nil
		})
	}
	_ = g.Wait()

	return report, errors.Join(errs...)
}

// save downloads one item. It reports false without error when a file for
// the item already exists.
func (c *Client) save(ctx context.Context, dir string, item media.Item) (string, bool, error) {
	base := FileBase(item)

	existing, err := filepath.Glob(filepath.Join(dir, base+".*"))
	if err != nil {
		return "", false, err
	}
	for _, p := range existing {
		if filepath.Ext(p) != ".part" {
			return p, false, nil
		}
	}

	resp, err := c.do(ctx, http.MethodGet, item.URL, nil)
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()

	path := filepath.Join(dir, base+media.ExtensionFor(resp.Header.Get("Content-Type"), item.URL))

	if err := writeAtomic(path, resp.Body); err != nil {
		return "", false, fmt.Errorf("writing %s: %w", path, err)
	}
	return path, true, nil
}

// writeAtomic writes r to a temporary file next to path and renames it into
// place, so an interrupted download never leaves a truncated file at path.
func writeAtomic(path string, r io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.part")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
