package service

import (
	"testing"

	"imgforge/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNoImageConfig() domain.NoImageConfig {
	return domain.NoImageConfig{
		Default: "system/placeholder.png",
		Paths: map[string]string{
			"avatar": "system/avatar.png",
		},
		Patterns: []domain.NoImagePattern{
			{Name: "avatar", Pattern: "^avatars/"},
		},
	}
}

func TestGetNoImageDefault(t *testing.T) {
	resolver, err := NewNoImageResolver(testNoImageConfig())
	require.NoError(t, err)

	pi, err := resolver.GetNoImage("")
	require.NoError(t, err)

	assert.Equal(t, "system", pi.Namespace)
	assert.Equal(t, "placeholder", pi.Name)
	assert.Equal(t, "png", pi.Extension)
	assert.False(t, pi.HasModifiers())
}

func TestGetNoImageNamed(t *testing.T) {
	resolver, err := NewNoImageResolver(testNoImageConfig())
	require.NoError(t, err)

	pi, err := resolver.GetNoImage("avatar")
	require.NoError(t, err)
	assert.Equal(t, "avatar", pi.Name)

	_, err = resolver.GetNoImage("banner")
	require.Error(t, err)
}

func TestGetNoImageWithoutDefault(t *testing.T) {
	resolver, err := NewNoImageResolver(domain.NoImageConfig{})
	require.NoError(t, err)

	_, err = resolver.GetNoImage("")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSourceNotFound)
}

func TestIsNoImage(t *testing.T) {
	resolver, err := NewNoImageResolver(testNoImageConfig())
	require.NoError(t, err)

	assert.True(t, resolver.IsNoImage("system/placeholder.png"))
	assert.True(t, resolver.IsNoImage("system/avatar.png"))
	assert.False(t, resolver.IsNoImage("photos/cat.jpg"))
}

func TestResolveNoImagePatternOrder(t *testing.T) {
	cfg := domain.NoImageConfig{
		Default: "system/placeholder.png",
		Paths: map[string]string{
			"first":  "system/first.png",
			"second": "system/second.png",
		},
		Patterns: []domain.NoImagePattern{
			{Name: "first", Pattern: "^shared/"},
			{Name: "second", Pattern: "^shared/team/"},
		},
	}

	resolver, err := NewNoImageResolver(cfg)
	require.NoError(t, err)

	// both patterns match; configuration order decides
	pi, err := resolver.ResolveNoImage("shared/team/logo")
	require.NoError(t, err)
	assert.Equal(t, "first", pi.Name)

	pi, err = resolver.ResolveNoImage("photos/cat")
	require.NoError(t, err)
	assert.Equal(t, "placeholder", pi.Name)
}

func TestNewNoImageResolverBadPattern(t *testing.T) {
	_, err := NewNoImageResolver(domain.NoImageConfig{
		Patterns: []domain.NoImagePattern{{Name: "broken", Pattern: "("}},
	})
	require.Error(t, err)
}
