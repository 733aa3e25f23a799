package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDomains(t *testing.T) {
	in := `
# top sites
1,Example.com
2,news.example.org
https://shop.example.net/path
example.com
`
	got, err := parseDomains(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"example.com", "news.example.org", "shop.example.net"}, got)
}

func TestLoadDomainsMergesArgsAndFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "domains.txt")
	require.NoError(t, os.WriteFile(file, []byte("b.com\na.com\n"), 0o644))

	got, err := loadDomains([]string{"a.com"}, file)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.com", "b.com"}, got)

	_, err = loadDomains(nil, "")
	assert.Error(t, err)
}
