package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSiteOrigins(t *testing.T) {
	want := []string{
		"https://example.com",
		"https://www.example.com",
		"http://example.com",
		"http://www.example.com",
	}
	assert.Equal(t, want, SiteOrigins("example.com"))
	assert.Equal(t, want, SiteOrigins("WWW.Example.com"))
	assert.Equal(t, want, SiteOrigins("https://www.example.com/path"))
	assert.Nil(t, SiteOrigins(""))
}

func TestIsThirdParty(t *testing.T) {
	assert.False(t, IsThirdParty("cdn.example.com", "example.com"))
	assert.True(t, IsThirdParty("www.google-analytics.com", "example.com"))
}
