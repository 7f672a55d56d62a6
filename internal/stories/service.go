// Package stories resolves and downloads the current stories of Instagram
// users through a mirror backend.
package stories

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/stupside/storyfetch/internal/app"
	"github.com/stupside/storyfetch/internal/backend"
	"github.com/stupside/storyfetch/internal/download"
	"github.com/stupside/storyfetch/internal/extractor"
	"github.com/stupside/storyfetch/internal/media"
	"github.com/stupside/storyfetch/internal/viewer"
)

// ErrFetchFailed is reported for a user when no mirror could be loaded.
var ErrFetchFailed = errors.New("fetch failed")

// Extractor walks a profile page in a browser.
type Extractor interface {
	Extract(ctx context.Context, profileURL string) (*extractor.Result, error)
}

// Client fetches static pages and downloads media.
type Client interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
	Download(ctx context.Context, dir string, items []media.Item) (download.Report, error)
}

// Options are the per-run settings taken from the command line.
type Options struct {
	OutputDir string
	DryRun    bool
}

// Outcome is what happened for one user.
type Outcome struct {
	Username string
	Items    []media.Item
	Report   download.Report
	Err      error
}

// Service runs the per-user pipeline: load a mirror, collect candidates,
// then download or print them.
type Service struct {
	extractor      Extractor
	client         Client
	out            io.Writer
	maxConcurrency int
}

// NewService wires a Service from configuration. Dry-run listings go to out.
func NewService(cfg *app.Config, out io.Writer) *Service {
	return &Service{
		extractor:      extractor.NewExtractor(cfg.Browser, cfg.Walk),
		client:         download.NewClient(cfg.Download),
		out:            out,
		maxConcurrency: cfg.Walk.MaxConcurrency,
	}
}

// Run processes usernames concurrently, bounded by walk.max_concurrency.
// A failure for one user never stops the others; it is recorded in that
// user's Outcome. The returned error is non-nil only when ctx ends first.
func (s *Service) Run(ctx context.Context, b *backend.Backend, usernames []string, opts Options) ([]Outcome, error) {
	outcomes := make([]Outcome, len(usernames))

	var g errgroup.Group
	g.SetLimit(max(s.maxConcurrency, 1))

	for i, username := range usernames {
		g.Go(func() error {
			outcomes[i] = s.runUser(ctx, b, username, opts)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes, ctx.Err()
}

func (s *Service) runUser(ctx context.Context, b *backend.Backend, username string, opts Options) Outcome {
	username = backend.NormalizeUsername(username)
	out := Outcome{Username: username}

	items, err := s.collect(ctx, b, username)
	if err != nil {
		out.Err = err
		slog.WarnContext(ctx, "fetch failed", "user", username, "backend", b.Name(), "error", err)
		return out
	}
	out.Items = items

	if len(items) == 0 {
		slog.InfoContext(ctx, "no stories found", "user", username)
		return out
	}
	slog.InfoContext(ctx, "stories found", "user", username, "count", len(items))

	if opts.DryRun {
		for _, item := range items {
			kind := "image"
			if item.IsVideo {
				kind = "video"
			}
			fmt.Fprintf(s.out, "%s\t%s\t%s\n", username, kind, item.URL)
		}
		return out
	}

	dir := filepath.Join(opts.OutputDir, username, "stories")
	out.Report, out.Err = s.client.Download(ctx, dir, items)
	slog.InfoContext(ctx, "user done",
		"user", username,
		"saved", len(out.Report.Saved),
		"skipped", out.Report.Skipped,
		"failed", out.Report.Failed,
	)
	return out
}

// collect tries the backend's mirrors in order and returns the candidates
// from the first one that loads. It fails with ErrFetchFailed only when
// every mirror failed to load.
func (s *Service) collect(ctx context.Context, b *backend.Backend, username string) ([]media.Item, error) {
	var errs []error

	for _, profileURL := range b.ProfileURLs(username) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var (
			items []media.Item
			err   error
		)
		switch b.Kind() {
		case app.KindStatic:
			items, err = s.collectStatic(ctx, profileURL)
		default:
			items, err = s.collectBrowser(ctx, profileURL)
		}
		if err != nil {
			slog.DebugContext(ctx, "mirror failed", "url", profileURL, "error", err)
			errs = append(errs, err)
			continue
		}
		return items, nil
	}

	return nil, fmt.Errorf("%w: %w", ErrFetchFailed, errors.Join(errs...))
}

func (s *Service) collectStatic(ctx context.Context, profileURL string) ([]media.Item, error) {
	html, err := s.client.Fetch(ctx, profileURL)
	if err != nil {
		return nil, err
	}
	return viewer.Parse(html)
}

// collectBrowser walks profileURL. A walk cut short by its timeout still
// yields what it collected; only a load failure moves on to the next mirror.
func (s *Service) collectBrowser(ctx context.Context, profileURL string) ([]media.Item, error) {
	res, err := s.extractor.Extract(ctx, profileURL)
	if errors.Is(err, extractor.ErrLoadFailed) {
		return nil, err
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		slog.WarnContext(ctx, "walk incomplete, using partial result", "url", profileURL, "error", err)
	}
	return chooseItems(ctx, res), nil
}

// chooseItems prefers a static re-parse of the final snapshot when it finds
// anything, and falls back to the candidates merged during the walk.
func chooseItems(ctx context.Context, res *extractor.Result) []media.Item {
	if res == nil {
		return nil
	}
	if res.HTML != "" {
		parsed, err := viewer.Parse(res.HTML)
		if err != nil {
			slog.DebugContext(ctx, "snapshot re-parse failed", "error", err)
		} else if len(parsed) > 0 {
			slog.DebugContext(ctx, "using snapshot re-parse", "parsed", len(parsed), "live", len(res.Items))
			return parsed
		}
	}
	return res.Items
}
