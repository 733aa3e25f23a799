package classifier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRule(t *testing.T) {
	tests := []struct {
		line      string
		ok        bool
		host      string
		qualified bool
		modifiers []string
	}{
		{line: "||marketing.example.com^", ok: true, host: "marketing.example.com"},
		{line: "||tracker.example.net^$3p", ok: true, host: "tracker.example.net", modifiers: []string{"3p"}},
		{line: "||Ads.Example.ORG^$third-party,script", ok: true, host: "ads.example.org", modifiers: []string{"third-party", "script"}},
		{line: "||cdn.example.com/pixel.gif", ok: true, host: "cdn.example.com", qualified: true},
		{line: "|https://metrics.example.com^", ok: true, host: "metrics.example.com", qualified: true},
		{line: "||stats.example.com:8080^", ok: true, host: "stats.example.com"},
		{line: "! comment line"},
		{line: "[Adblock Plus 2.0]"},
		{line: "@@||allowed.example.com^"},
		{line: "example.com##.banner"},
		{line: "/banner/*/ad_"},
		{line: ""},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			r, ok := ParseRule(tt.line)
			require.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			assert.Equal(t, tt.host, r.Host)
			assert.Equal(t, tt.qualified, r.Qualified)
			assert.Equal(t, tt.modifiers, r.Modifiers)
			assert.Equal(t, tt.line, r.Raw)
		})
	}
}

func TestFilterRuleSetMatch(t *testing.T) {
	set := NewFilterRuleSet()
	n, err := set.Load(strings.NewReader(strings.Join([]string{
		"! EasyPrivacy excerpt",
		"||marketing.example.com^",
		"||metrics.advancedpractice.com^$3p",
		"||ads.*.example.org^",
	}, "\n")), "Easy Privacy")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	tests := []struct {
		host  string
		match bool
	}{
		{"marketing.example.com", true},
		{"sub.marketing.example.com", true},
		{"deep.sub.marketing.example.com", true},
		{"notmarketing.example.com", false},
		{"example.com", false},
		{"https://marketing.example.com/path?q=1", true},
		{"MARKETING.EXAMPLE.COM:443", true},
		{"metrics.advancedpractice.com", true},
		{"ads.eu.example.org", true},
		{"cdn.example.org", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			r, ok := set.Match(tt.host)
			assert.Equal(t, tt.match, ok)
			if ok {
				assert.Equal(t, "Easy Privacy", r.List)
			}
		})
	}
}

func TestFilterRuleSetPrefersUnqualifiedRule(t *testing.T) {
	set := NewFilterRuleSet()
	for _, line := range []string{"||tracker.example.com/collect", "||tracker.example.com^$3p", "||tracker.example.com/other"} {
		r, ok := ParseRule(line)
		require.True(t, ok)
		r.List = "test"
		set.Add(r)
	}

	r, ok := set.Match("tracker.example.com")
	require.True(t, ok)
	assert.Equal(t, "||tracker.example.com^$3p", r.Raw)
	assert.False(t, r.Qualified)
	assert.Equal(t, 1, set.Len())
	assert.Equal(t, []string{"test"}, set.Lists())
}
