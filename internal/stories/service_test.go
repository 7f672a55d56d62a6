package stories

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stupside/storyfetch/internal/app"
	"github.com/stupside/storyfetch/internal/backend"
	"github.com/stupside/storyfetch/internal/download"
	"github.com/stupside/storyfetch/internal/extractor"
	"github.com/stupside/storyfetch/internal/media"
)

const snapshotThreeTiles = `<html><body>
<a class="tile-link" data-type="story" data-content="https://cdn.x/img.php?id=1" data-media-type="image"></a>
<a class="tile-link" data-type="story" data-content="https://cdn.x/video.php?id=2" data-media-type="video"></a>
<a class="tile-link" data-type="story" data-content="https://cdn.x/img.php?id=3" data-filename="clip.mp4"></a>
</body></html>`

type fakeExtractor struct {
	mu      sync.Mutex
	results map[string]*extractor.Result
	errs    map[string]error
	calls   []string
}

func (f *fakeExtractor) Extract(_ context.Context, profileURL string) (*extractor.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, profileURL)

	res := f.results[profileURL]
	if res == nil {
		res = &extractor.Result{}
	}
	return res, f.errs[profileURL]
}

type fakeClient struct {
	mu        sync.Mutex
	pages     map[string]string
	downloads map[string][]media.Item
}

func (f *fakeClient) Fetch(_ context.Context, rawURL string) (string, error) {
	page, ok := f.pages[rawURL]
	if !ok {
		return "", errors.New("status 404")
	}
	return page, nil
}

func (f *fakeClient) Download(_ context.Context, dir string, items []media.Item) (download.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.downloads == nil {
		f.downloads = make(map[string][]media.Item)
	}
	f.downloads[dir] = items

	saved := make([]string, len(items))
	for i, item := range items {
		saved[i] = dir + "/" + download.FileBase(item)
	}
	return download.Report{Saved: saved}, nil
}

func newBackend(kind app.BackendKind, mirrors ...string) *backend.Backend {
	return backend.New(app.BackendConfig{
		Name:        "test",
		Kind:        kind,
		Mirrors:     mirrors,
		ProfilePath: "/profile/{username}",
	})
}

func TestChooseItemsPrefersReparse(t *testing.T) {
	res := &extractor.Result{
		Items: []media.Item{
			{URL: "https://cdn.x/img.php?id=1"},
			{URL: "https://cdn.x/video.php?id=2", IsVideo: true},
		},
		HTML: snapshotThreeTiles,
	}

	got := chooseItems(context.Background(), res)
	require.Len(t, got, 3)
	assert.Equal(t, media.Item{URL: "https://cdn.x/img.php?id=3", IsVideo: true}, got[2])
}

func TestChooseItemsFallsBackToLive(t *testing.T) {
	live := []media.Item{{URL: "https://cdn.x/img.php?id=1"}}

	t.Run("snapshot without tiles", func(t *testing.T) {
		got := chooseItems(context.Background(), &extractor.Result{Items: live, HTML: "<html><body></body></html>"})
		assert.Equal(t, live, got)
	})

	t.Run("no snapshot", func(t *testing.T) {
		got := chooseItems(context.Background(), &extractor.Result{Items: live})
		assert.Equal(t, live, got)
	})

	t.Run("nil result", func(t *testing.T) {
		assert.Empty(t, chooseItems(context.Background(), nil))
	})
}

func TestRunTriesNextMirrorOnLoadFailure(t *testing.T) {
	b := newBackend(app.KindBrowser, "https://one.example", "https://two.example")

	ext := &fakeExtractor{
		results: map[string]*extractor.Result{
			"https://two.example/profile/alice": {
				Items: []media.Item{{URL: "https://cdn.x/img.php?id=7"}},
			},
		},
		errs: map[string]error{
			"https://one.example/profile/alice": extractor.ErrLoadFailed,
		},
	}
	client := &fakeClient{}
	s := &Service{extractor: ext, client: client, maxConcurrency: 1}

	outcomes, err := s.Run(context.Background(), b, []string{"alice"}, Options{OutputDir: "out"})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)

	assert.NoError(t, outcomes[0].Err)
	assert.Equal(t, []string{"https://one.example/profile/alice", "https://two.example/profile/alice"}, ext.calls)
	assert.Equal(t, []media.Item{{URL: "https://cdn.x/img.php?id=7"}}, client.downloads["out/alice/stories"])
}

func TestRunReportsFetchFailureAndContinues(t *testing.T) {
	b := newBackend(app.KindBrowser, "https://one.example")

	ext := &fakeExtractor{
		results: map[string]*extractor.Result{
			"https://one.example/profile/bob": {HTML: snapshotThreeTiles},
		},
		errs: map[string]error{
			"https://one.example/profile/alice": extractor.ErrLoadFailed,
		},
	}
	client := &fakeClient{}
	s := &Service{extractor: ext, client: client, maxConcurrency: 2}

	outcomes, err := s.Run(context.Background(), b, []string{"alice", "bob", "carol"}, Options{OutputDir: "out"})
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	assert.ErrorIs(t, outcomes[0].Err, ErrFetchFailed)
	assert.ErrorIs(t, outcomes[0].Err, extractor.ErrLoadFailed)

	assert.NoError(t, outcomes[1].Err)
	assert.Len(t, outcomes[1].Items, 3)
	assert.Len(t, outcomes[1].Report.Saved, 3)

	assert.NoError(t, outcomes[2].Err)
	assert.Empty(t, outcomes[2].Items)
	assert.NotContains(t, client.downloads, "out/carol/stories")
}

func TestRunKeepsPartialWalk(t *testing.T) {
	b := newBackend(app.KindBrowser, "https://one.example")

	ext := &fakeExtractor{
		results: map[string]*extractor.Result{
			"https://one.example/profile/alice": {Items: []media.Item{{URL: "https://cdn.x/video.php?id=1", IsVideo: true}}},
		},
		errs: map[string]error{
			"https://one.example/profile/alice": context.DeadlineExceeded,
		},
	}
	s := &Service{extractor: ext, client: &fakeClient{}, maxConcurrency: 1}

	outcomes, err := s.Run(context.Background(), b, []string{"alice"}, Options{OutputDir: "out"})
	require.NoError(t, err)
	assert.NoError(t, outcomes[0].Err)
	assert.Len(t, outcomes[0].Items, 1)
}

func TestRunStaticBackend(t *testing.T) {
	b := newBackend(app.KindStatic, "https://down.example", "https://up.example")

	client := &fakeClient{
		pages: map[string]string{"https://up.example/profile/alice": snapshotThreeTiles},
	}
	var buf bytes.Buffer
	s := &Service{extractor: &fakeExtractor{}, client: client, out: &buf, maxConcurrency: 1}

	outcomes, err := s.Run(context.Background(), b, []string{"@Alice"}, Options{DryRun: true})
	require.NoError(t, err)
	require.NoError(t, outcomes[0].Err)
	assert.Equal(t, "alice", outcomes[0].Username)
	assert.Len(t, outcomes[0].Items, 3)
	assert.Empty(t, client.downloads)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "alice\timage\thttps://cdn.x/img.php?id=1", lines[0])
	assert.Equal(t, "alice\tvideo\thttps://cdn.x/video.php?id=2", lines[1])
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &Service{extractor: &fakeExtractor{}, client: &fakeClient{}, maxConcurrency: 1}
	outcomes, err := s.Run(ctx, newBackend(app.KindBrowser, "https://one.example"), []string{"alice"}, Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Error(t, outcomes[0].Err)
}
