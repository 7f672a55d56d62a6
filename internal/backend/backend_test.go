package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stupside/storyfetch/internal/app"
)

func TestProfileURLs(t *testing.T) {
	b := New(app.BackendConfig{
		Name:        "viewer",
		Kind:        app.KindBrowser,
		Mirrors:     []string{"https://a.example/", "https://b.example"},
		ProfilePath: "/profile/{username}",
	})

	tests := []struct {
		in   string
		want []string
	}{
		{"natgeo", []string{"https://a.example/profile/natgeo", "https://b.example/profile/natgeo"}},
		{"@NatGeo", []string{"https://a.example/profile/natgeo", "https://b.example/profile/natgeo"}},
		{"https://www.instagram.com/natgeo/", []string{"https://a.example/profile/natgeo", "https://b.example/profile/natgeo"}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, b.ProfileURLs(tt.in), tt.in)
	}

	mirrors := b.Mirrors()
	mirrors[0] = "https://changed.example"
	assert.Equal(t, "https://a.example/", b.Mirrors()[0])
}

func TestRegistry(t *testing.T) {
	r := NewRegistryFromConfig([]app.BackendConfig{
		{Name: "zeta", Kind: app.KindStatic, Mirrors: []string{"https://z.example"}, ProfilePath: "/{username}"},
		{Name: "alpha", Kind: app.KindBrowser, Mirrors: []string{"https://a.example"}, ProfilePath: "/{username}"},
	})

	assert.Equal(t, []string{"alpha", "zeta"}, r.List())

	def, err := r.Get("")
	require.NoError(t, err)
	assert.Equal(t, "zeta", def.Name())
	assert.Equal(t, app.KindStatic, def.Kind())

	_, err = r.Get("missing")
	assert.ErrorContains(t, err, `"missing"`)
}
