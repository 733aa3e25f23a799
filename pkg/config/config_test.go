package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFileAndDefaults(t *testing.T) {
	dataDir := t.TempDir()
	path := writeFile(t, "trackscope.yaml", `
storage:
  data_dir: `+dataDir+`
crawl:
  visits: 3
browser:
  max_contexts: 4
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Crawl.Visits)
	assert.Equal(t, 4, cfg.Browser.MaxContexts)
	assert.Equal(t, 2, cfg.Crawl.MaxSessions)
	assert.Equal(t, 30*time.Second, cfg.Crawl.NavigationTimeout)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, filepath.Join(dataDir, "crawler_data"), cfg.Storage.ResultsDir)
	assert.Equal(t, filepath.Join(dataDir, "cookies.db"), cfg.Classifier.CookieDBPath)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeFile(t, "trackscope.yaml", "crawl:\n  max_sessions: 1\n")
	t.Setenv("TRACKSCOPE_CRAWL_MAX_SESSIONS", "6")
	t.Setenv("TRACKSCOPE_CRAWL_NAVIGATION_TIMEOUT", "45s")
	t.Setenv("TRACKSCOPE_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Crawl.MaxSessions)
	assert.Equal(t, 45*time.Second, cfg.Crawl.NavigationTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := map[string]string{
		"postgres without url":  "storage:\n  backend: postgres\n",
		"unknown backend":       "storage:\n  backend: s3\n",
		"redis cache no addr":   "classifier:\n  dns_cache: redis\n",
		"zero visits":           "crawl:\n  visits: 0\n",
		"inverted delay window": "crawl:\n  interaction_delay_min: 3s\n  interaction_delay_max: 1s\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, "trackscope.yaml", content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadProfiles(t *testing.T) {
	path := writeFile(t, "profiles.yaml", `
profiles:
  - name: baseline
    user_data_dir: /profiles/baseline
  - name: ublock
    extension: uBlock Origin
    extension_path: /ext/ublock
`)

	profiles, err := LoadProfiles(path)
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "/profiles/baseline", profiles[0].UserDataDir)
	assert.True(t, profiles[1].RequiresTabMonitoring())

	selected, err := SelectProfiles(profiles, []string{"ublock", "baseline"})
	require.NoError(t, err)
	assert.Equal(t, "ublock", selected[0].Name)
	assert.Equal(t, "baseline", selected[1].Name)

	_, err = SelectProfiles(profiles, []string{"ghostery"})
	assert.Error(t, err)
}

func TestLoadProfilesErrors(t *testing.T) {
	_, err := LoadProfiles(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrProfilesNotFound)

	dup := writeFile(t, "profiles.yaml", "profiles:\n  - name: a\n  - name: a\n")
	_, err = LoadProfiles(dup)
	assert.ErrorContains(t, err, "duplicate profile")

	unnamed := writeFile(t, "profiles.yaml", "profiles:\n  - extension: ghostery\n")
	_, err = LoadProfiles(unnamed)
	assert.ErrorContains(t, err, "has no name")
}
