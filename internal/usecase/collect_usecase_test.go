package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/trackscope/internal/browsertest"
	"github.com/user/trackscope/internal/entity"
	"github.com/user/trackscope/internal/repository"
	"github.com/user/trackscope/pkg/config"
)

const homepageHTML = `<html><body>
<a href="/about">About</a>
<a href="/news#top">News</a>
<a href="/about">About again</a>
<a href="https://www.example.com/contact">Contact</a>
<a href="https://other.org/x">Elsewhere</a>
<a href="/report.PDF">Report</a>
<a href="mailto:info@example.com">Mail</a>
<a href="#main">Skip</a>
</body></html>`

func TestPageCollectorCollect(t *testing.T) {
	b := browsertest.NewBackend()
	b.Pages["https://example.com/"] = browsertest.Page{HTML: homepageHTML}
	b.Pages["https://example.com/about"] = browsertest.Page{HTML: `<a href="team">Team</a>`}
	pages := subpageStub{}

	cfg := config.CrawlConfig{CollectMaxPages: 4, CollectHomepageLinks: 2}
	c := NewPageCollector(b, pages, cfg, zap.NewNop())
	rec := &sleepRecorder{}
	c.sleep = rec.sleep
	c.now = func() time.Time { return time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC) }

	list, err := c.Collect(context.Background(), "Example.com", entity.Profile{Name: "baseline"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://example.com/",
		"https://example.com/about",
		"https://example.com/news",
		"https://www.example.com/contact",
	}, list.Pages)
	assert.Equal(t, 4, list.Count)
	assert.Equal(t, "example.com", list.Domain)
	assert.Equal(t, list.Pages, pages["example.com"], "saved through the subpage repository")

	ctxs := b.Contexts()
	require.Len(t, ctxs, 1)
	assert.True(t, ctxs[0].Closed())
	assert.Equal(t, []string{
		"https://example.com/",
		"https://example.com/about",
		"https://example.com/news",
		"https://www.example.com/contact",
	}, ctxs[0].Navigations())
}

func TestPageCollectorHomepageFailure(t *testing.T) {
	b := browsertest.NewBackend()
	b.Pages["https://down.com/"] = browsertest.Page{Err: repository.ErrNavigationFailed}
	pages := subpageStub{}
	c := NewPageCollector(b, pages, config.CrawlConfig{}, zap.NewNop())

	_, err := c.Collect(context.Background(), "down.com", entity.Profile{Name: "baseline"})
	assert.ErrorIs(t, err, repository.ErrNavigationFailed)
	assert.NotContains(t, pages, "down.com")
}

func TestExtractLinks(t *testing.T) {
	links, err := extractLinks("https://example.com/blog/", `
<a href="post-1">1</a>
<a href="../shop?x=1#frag">shop</a>
<a href="//cdn.example.com/img.png">img</a>
<a href="javascript:void(0)">js</a>
<a href="https://sub.example.com/">sub</a>`, "example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://example.com/blog/post-1",
		"https://example.com/shop?x=1",
		"https://sub.example.com/",
	}, links)
}
