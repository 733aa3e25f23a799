package filterlist

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/trackscope/internal/classifier"
)

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Easyprivacy", DisplayName("easyprivacy_filter.txt"))
	assert.Equal(t, "Easy Privacy", DisplayName("/lists/easy_privacy_filter.txt"))
	assert.Equal(t, "Adguard Tracking", DisplayName("adguard_tracking_filter.txt"))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "easy_privacy_filter.txt"), []byte("! comment\n||eulerian.net^\n||marketing.example.com^\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("||ignored.com^\n"), 0o644))

	rules := classifier.NewFilterRuleSet()
	counts, err := LoadDir(dir, rules)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Easy Privacy": 2}, counts)

	r, ok := rules.Match("fr.eulerian.net")
	require.True(t, ok)
	assert.Equal(t, "Easy Privacy", r.List)
	_, ok = rules.Match("ignored.com")
	assert.False(t, ok)
}

func TestFetcherFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lists/easyprivacy.txt" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("||tracker.net^\n"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := NewFetcher(zap.NewNop())
	f.client.RetryMax = 0

	p, err := f.Fetch(context.Background(), srv.URL+"/lists/easyprivacy.txt", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "easyprivacy_filter.txt"), p)
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "||tracker.net^\n", string(data))

	_, err = f.Fetch(context.Background(), srv.URL+"/missing.txt", dir)
	assert.Error(t, err)
}

func TestParseOrganizations(t *testing.T) {
	orgs, err := ParseOrganizations([]byte(`{
		"Eulerian.net": "Eulerian Technologies",
		"google": {"name": "Google LLC", "domains": ["doubleclick.net", "google-analytics.com"]},
		"bad": 42
	}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"eulerian.net":         "Eulerian Technologies",
		"doubleclick.net":      "Google LLC",
		"google-analytics.com": "Google LLC",
	}, orgs)

	_, err = ParseOrganizations([]byte(`[1,2]`))
	assert.Error(t, err)
}
