package usecase

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/user/trackscope/internal/entity"
	"github.com/user/trackscope/internal/repository"
	"github.com/user/trackscope/pkg/config"
	"github.com/user/trackscope/pkg/utils"
)

var skippedExtensions = []string{".pdf", ".jpg", ".jpeg", ".png", ".gif", ".svg", ".zip", ".mp4"}

// PageCollector builds the subpage list of a domain by following same-site
// links breadth-first from the homepage.
type PageCollector struct {
	backend  repository.BrowserBackend
	subpages repository.SubpageRepository
	cfg      config.CrawlConfig
	logger   *zap.Logger

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

func NewPageCollector(backend repository.BrowserBackend, subpages repository.SubpageRepository, cfg config.CrawlConfig, logger *zap.Logger) *PageCollector {
	if cfg.CollectMaxPages <= 0 {
		cfg.CollectMaxPages = 40
	}
	return &PageCollector{
		backend:  backend,
		subpages: subpages,
		cfg:      cfg,
		logger:   logger.Named("collector"),
		sleep:    sleepCtx,
		now:      time.Now,
	}
}

// Collect visits the homepage of domain and up to CollectMaxPages same-site
// pages, then saves the list. The homepage is always the first entry.
// The first CollectHomepageLinks links of the homepage come right after it.
func (c *PageCollector) Collect(ctx context.Context, domain string, profile entity.Profile) (*entity.SubpageList, error) {
	domain = utils.NormalizeHost(domain)
	log := c.logger.With(zap.String("domain", domain), zap.String("profile", profile.Name))

	bc, err := c.backend.Open(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("open browsing context: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
		defer cancel()
		if err := bc.Close(closeCtx); err != nil && !isTeardownRace(err) {
			log.Warn("Failed to close browsing context", zap.Error(err))
		}
	}()

	start := "https://" + domain + "/"
	links, err := c.visit(ctx, bc, start, domain, c.cfg.HomepageTimeout)
	if err != nil {
		return nil, fmt.Errorf("homepage %s: %w", start, err)
	}

	found := []string{start}
	seen := map[string]bool{start: true}
	visited := map[string]bool{start: true}
	var queue []string
	for _, l := range links {
		if seen[l] {
			continue
		}
		queue = append(queue, l)
		if len(found) <= c.cfg.CollectHomepageLinks && len(found) < c.cfg.CollectMaxPages {
			found = append(found, l)
			seen[l] = true
		}
	}

	for len(found) < c.cfg.CollectMaxPages && len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next := queue[0]
		queue = queue[1:]
		if visited[next] {
			continue
		}
		visited[next] = true

		links, err := c.visit(ctx, bc, next, domain, c.cfg.NavigationTimeout)
		if err != nil {
			log.Debug("Skipping page", zap.String("url", next), zap.Error(err))
			continue
		}
		if !seen[next] {
			seen[next] = true
			found = append(found, next)
		}
		for _, l := range links {
			if !visited[l] && !seen[l] {
				queue = append(queue, l)
			}
		}
	}

	list := &entity.SubpageList{
		Domain:      domain,
		Pages:       found,
		Count:       len(found),
		CollectedAt: c.now().UTC(),
	}
	if err := c.subpages.Save(ctx, list); err != nil {
		return nil, fmt.Errorf("save subpages for %s: %w", domain, err)
	}
	log.Info("Collected subpages", zap.Int("count", list.Count))
	return list, nil
}

func (c *PageCollector) visit(ctx context.Context, bc repository.BrowsingContext, pageURL, domain string, timeout time.Duration) ([]string, error) {
	navCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		navCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	final, err := bc.Navigate(navCtx, pageURL)
	if err != nil {
		return nil, err
	}
	if err := c.sleep(ctx, c.cfg.CollectSettle); err != nil {
		return nil, err
	}
	html, err := bc.Content(ctx)
	if err != nil {
		return nil, err
	}
	if final == "" {
		final = pageURL
	}
	return extractLinks(final, html, domain)
}

// extractLinks returns the same-site anchors of html in document order,
// resolved against pageURL, without fragments, duplicates or binary files.
func extractLinks(pageURL, html, domain string) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var links []string
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		abs, err := utils.ToAbsoluteURL(base, href)
		if err != nil {
			return
		}
		u, err := url.Parse(abs)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return
		}
		u.Fragment = ""
		abs = u.String()
		if !utils.SameSite(abs, domain) || hasSkippedExtension(u.Path) || seen[abs] {
			return
		}
		seen[abs] = true
		links = append(links, abs)
	})
	return links, nil
}

func hasSkippedExtension(path string) bool {
	path = strings.ToLower(path)
	for _, ext := range skippedExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
