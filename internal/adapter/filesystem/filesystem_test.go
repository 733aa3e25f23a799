package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/trackscope/internal/entity"
	"github.com/user/trackscope/internal/repository"
)

func sampleDocument() *entity.ResultDocument {
	ts := time.Date(2025, 5, 4, 10, 0, 0, 0, time.UTC)
	exp := ts.Add(365 * 24 * time.Hour)
	doc := entity.NewResultDocument("example.com", "adblock", ts)
	doc.NetworkData["0"] = entity.VisitNetworkData{
		Requests: []entity.NetworkRequest{{
			URL: "https://example.com/", Domain: "example.com", Method: "GET",
			ResourceType: "document", IsNavigation: true, Timestamp: ts, Visit: 0,
			Response: &entity.ResponseInfo{Status: 200},
		}},
		DomainsContacted: []string{"cdn.tracker.net"},
		VisitedURLs:      []entity.PageLoad{{Original: "https://example.com/a", Final: "https://example.com/a"}},
	}
	doc.Statistics.TotalRequests = 1
	doc.Statistics.RequestTypes["document"] = 1
	doc.Statistics.CookieOperations["0"] = entity.CookieOperations{Created: 1, TotalUnique: 1}
	doc.Cookies["0"] = []entity.CookieRecord{{Name: "uid", Domain: "example.com", Path: "/", Value: "AbCdEf1234567890", Expires: &exp, Created: ts}}
	return doc
}

func TestResultStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewResultStore(t.TempDir())
	doc := sampleDocument()

	require.NoError(t, store.Save(ctx, doc))

	ok, err := store.Exists(ctx, "adblock", "example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	loaded, err := store.Load(ctx, "adblock", "example.com")
	require.NoError(t, err)
	assert.Equal(t, doc, loaded)

	refs, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "adblock", refs[0].Profile)
	assert.Equal(t, "example.com", refs[0].Domain)
}

func TestResultStoreMissingAndCorrupt(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewResultStore(dir)

	_, err := store.Load(ctx, "adblock", "missing.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "adblock", "missing.com"), repository.ErrNotFound)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "adblock"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "adblock", "short.com.json"), []byte("{\n\"domain\": \"short.com\"\n}\n"), 0o644))

	_, err = store.Load(ctx, "adblock", "short.com")
	assert.ErrorIs(t, err, repository.ErrCorruptArtifact)

	raw, err := store.Raw(ctx, "adblock", "short.com")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "short.com")
}

func TestResultStoreMove(t *testing.T) {
	ctx := context.Background()
	store := NewResultStore(t.TempDir())
	require.NoError(t, store.Save(ctx, sampleDocument()))

	quarantine := t.TempDir()
	require.NoError(t, store.Move(ctx, repository.ArtifactRef{Profile: "adblock", Domain: "example.com"}, quarantine))

	ok, err := store.Exists(ctx, "adblock", "example.com")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.FileExists(t, filepath.Join(quarantine, "adblock", "example.com.json"))
}

func TestSubpageRepo(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	repo := NewSubpageRepo(dir)

	_, err := repo.Load(ctx, "example.com")
	assert.ErrorIs(t, err, repository.ErrMissingPrerequisite)

	list := &entity.SubpageList{Domain: "example.com", Pages: []string{"https://example.com/a", "https://example.com/b"}}
	require.NoError(t, repo.Save(ctx, list))
	assert.FileExists(t, filepath.Join(dir, "example_com.json"))

	loaded, err := repo.Load(ctx, "example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Count)
	assert.Equal(t, list.Pages, loaded.Pages)

	require.NoError(t, repo.Save(ctx, &entity.SubpageList{Domain: "empty.org"}))
	_, err = repo.Load(ctx, "empty.org")
	assert.ErrorIs(t, err, repository.ErrMissingPrerequisite)
}

func TestArtifactWriterStaysInsideBase(t *testing.T) {
	dir := t.TempDir()
	w := NewArtifactWriter(dir)

	path, err := w.Write(context.Background(), "../../escape/visit0.png", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "escape", "visit0.png"), path)
	assert.FileExists(t, path)
}
