package backend

import (
	"net/url"
	"slices"
	"strings"

	"github.com/stupside/storyfetch/internal/app"
)

// Backend is a family of mirror sites sharing one page layout.
type Backend struct {
	name        string
	kind        app.BackendKind
	mirrors     []string
	profilePath string
}

// New creates a Backend from a BackendConfig.
func New(cfg app.BackendConfig) *Backend {
	return &Backend{
		name:        cfg.Name,
		kind:        cfg.Kind,
		mirrors:     cfg.Mirrors,
		profilePath: cfg.ProfilePath,
	}
}

// Name returns the backend's name.
func (b *Backend) Name() string {
	return b.name
}

// Kind reports whether the backend needs a browser walk or serves plain HTML.
func (b *Backend) Kind() app.BackendKind {
	return b.kind
}

// Mirrors returns the configured mirror base URLs.
func (b *Backend) Mirrors() []string {
	return slices.Clone(b.mirrors)
}

// ProfileURLs returns one absolute profile URL per mirror, in configured order.
func (b *Backend) ProfileURLs(username string) []string {
	path := strings.ReplaceAll(b.profilePath, "{username}", url.PathEscape(NormalizeUsername(username)))

	urls := make([]string, 0, len(b.mirrors))
	for _, mirror := range b.mirrors {
		urls = append(urls, strings.TrimRight(mirror, "/")+path)
	}
	return urls
}

// NormalizeUsername accepts "name", "@name" or a full instagram.com profile URL
// and returns the lowercase bare name.
func NormalizeUsername(username string) string {
	u := strings.TrimSpace(username)
	if parsed, err := url.Parse(u); err == nil && parsed.Host != "" {
		u = strings.Trim(parsed.Path, "/")
		if i := strings.IndexByte(u, '/'); i >= 0 {
			u = u[:i]
		}
	}
	return strings.ToLower(strings.TrimPrefix(u, "@"))
}
