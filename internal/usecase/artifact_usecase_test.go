package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/trackscope/internal/adapter/filesystem"
	"github.com/user/trackscope/internal/entity"
	"github.com/user/trackscope/pkg/metrics"
)

func seedArtifacts(t *testing.T, dir string) *filesystem.ResultStore {
	t.Helper()
	store := filesystem.NewResultStore(dir)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, docFor("good.com", "baseline")))

	offline := docFor("offline.com", "baseline")
	offline.NetworkData["0"] = entity.VisitNetworkData{
		Requests:         []entity.NetworkRequest{},
		DomainsContacted: []string{},
		VisitedURLs: []entity.PageLoad{
			{Original: "https://offline.com/a", Error: "net::ERR_INTERNET_DISCONNECTED at https://offline.com/a"},
			{Original: "https://offline.com/b", Error: "net::ERR_INTERNET_DISCONNECTED at https://offline.com/b"},
		},
	}
	offline.Timestamp = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, offline))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ublock", "short.com.json"), []byte("{\n}\n"), 0o644))
	return store
}

func TestArtifactMaintenanceScan(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "ublock"), 0o755))
	store := seedArtifacts(t, dir)
	a := NewArtifactMaintenance(store, store, zap.NewNop(), metrics.NewNop())

	report, err := a.Scan(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 3, report.Checked)
	assert.Equal(t, 1, report.Valid)
	require.Len(t, report.Issues, 2)
	assert.Equal(t, "offline.com", report.Issues[0].Ref.Domain)
	assert.Equal(t, IssueFailedCrawl, report.Issues[0].Kind)
	assert.Equal(t, "short.com", report.Issues[1].Ref.Domain)
	assert.Equal(t, IssueCorrupt, report.Issues[1].Kind)

	report, err = a.Clean(context.Background(), "", ActionReport, "")
	require.NoError(t, err)
	assert.Zero(t, report.Moved+report.Deleted)
	exists, err := store.Exists(context.Background(), "ublock", "short.com")
	require.NoError(t, err)
	assert.True(t, exists, "report leaves artifacts in place")
}

func TestArtifactMaintenanceDelete(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "ublock"), 0o755))
	store := seedArtifacts(t, dir)
	a := NewArtifactMaintenance(store, store, zap.NewNop(), metrics.NewNop())

	report, err := a.Clean(context.Background(), "", ActionDelete, "")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Deleted)

	refs, err := store.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "good.com", refs[0].Domain)
}

func TestArtifactMaintenanceMove(t *testing.T) {
	dir := t.TempDir()
	quarantine := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "ublock"), 0o755))
	store := seedArtifacts(t, dir)
	a := NewArtifactMaintenance(store, store, zap.NewNop(), nil)

	_, err := a.Clean(context.Background(), "baseline", ActionMove, "")
	assert.Error(t, err, "move needs a destination")

	report, err := a.Clean(context.Background(), "baseline", ActionMove, quarantine)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Checked)
	assert.Equal(t, 1, report.Moved)
	assert.FileExists(t, filepath.Join(quarantine, "baseline", "offline.com.json"))

	exists, err := store.Exists(context.Background(), "ublock", "short.com")
	require.NoError(t, err)
	assert.True(t, exists, "other profiles are untouched")
}

func TestParseCleanupAction(t *testing.T) {
	for _, s := range []string{"report", "move", "delete"} {
		a, err := ParseCleanupAction(s)
		require.NoError(t, err)
		assert.Equal(t, CleanupAction(s), a)
	}
	_, err := ParseCleanupAction("purge")
	assert.Error(t, err)
}
