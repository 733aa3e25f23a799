package observer

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/trackscope/internal/adapter/filesystem"
	"github.com/user/trackscope/internal/browsertest"
	"github.com/user/trackscope/internal/entity"
)

func TestBannerObserverCapturesOncePerVisit(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	b := browsertest.NewBackend()
	b.Pages["https://example.com/news"] = browsertest.Page{
		HTML: `<html lang="fr"><head><title> Actualités </title></head><body><div id="consent">OK</div></body></html>`,
	}
	bc, err := b.Open(ctx, entity.Profile{Name: "ublock"})
	require.NoError(t, err)
	_, err = bc.Navigate(ctx, "https://example.com/news")
	require.NoError(t, err)

	obs := NewBannerObserver("example.com", "ublock", filesystem.NewArtifactWriter(dir))
	ok, err := obs.Capture(ctx, bc, 0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = obs.Capture(ctx, bc, 0)
	require.NoError(t, err)
	assert.False(t, ok, "same (domain, visit, profile) is captured once")

	doc := entity.NewResultDocument("example.com", "ublock", time.Now())
	obs.Contribute(doc)
	c := doc.Banner["0"]
	assert.Equal(t, "Actualités", c.Title)
	assert.Equal(t, "fr", c.Lang)
	assert.Equal(t, "https://example.com/news", c.URL)
	assert.Equal(t, filepath.Join(dir, "screenshots", "example.com", "visit0_ublock.png"), c.ScreenshotPath)

	html, err := os.ReadFile(c.HTMLPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), `id="consent"`)

	raw, err := os.ReadFile(c.MetadataPath)
	require.NoError(t, err)
	var meta entity.BannerCapture
	require.NoError(t, json.Unmarshal(raw, &meta))
	assert.Equal(t, "ublock", meta.Profile)
	assert.Equal(t, c.HTMLPath, meta.HTMLPath)
}

func TestBannerObserverNothingCaptured(t *testing.T) {
	obs := NewBannerObserver("example.com", "baseline", filesystem.NewArtifactWriter(t.TempDir()))
	doc := entity.NewResultDocument("example.com", "baseline", time.Now())
	obs.Contribute(doc)
	assert.Nil(t, doc.Banner)
}
