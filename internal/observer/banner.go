package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/user/trackscope/internal/entity"
	"github.com/user/trackscope/internal/repository"
)

// BannerObserver captures one screenshot, HTML and metadata record per
// (domain, visit, profile).
type BannerObserver struct {
	opts    options
	domain  string
	profile string
	writer  repository.ArtifactWriter

	mu       sync.Mutex
	captured map[string]entity.BannerCapture
	now      func() time.Time
}

func NewBannerObserver(domain, profile string, writer repository.ArtifactWriter, opts ...Option) *BannerObserver {
	return &BannerObserver{
		opts:     buildOptions(opts),
		domain:   domain,
		profile:  profile,
		writer:   writer,
		captured: make(map[string]entity.BannerCapture),
		now:      time.Now,
	}
}

func (o *BannerObserver) Attach(ctx context.Context, bc repository.BrowsingContext, visit int) (repository.Unsubscribe, error) {
	return func() {}, nil
}

// Capture stores the current page unless the visit was already captured.
// It reports whether a new capture was written.
func (o *BannerObserver) Capture(ctx context.Context, bc repository.BrowsingContext, visit int) (bool, error) {
	key := entity.BannerKey(o.domain, visit, o.profile)
	o.mu.Lock()
	_, done := o.captured[key]
	o.mu.Unlock()
	if done {
		o.opts.logger.Debug("banner already captured", zap.String("key", key))
		return false, nil
	}

	shot, err := bc.Screenshot(ctx)
	if err != nil {
		return false, fmt.Errorf("screenshot: %w", err)
	}
	html, err := bc.Content(ctx)
	if err != nil {
		return false, fmt.Errorf("page content: %w", err)
	}
	pageURL, _ := bc.CurrentURL(ctx)
	title, _ := bc.Title(ctx)
	docTitle, lang := parseBannerHTML(html)
	if title == "" {
		title = docTitle
	}

	base := fmt.Sprintf("visit%d_%s", visit, o.profile)
	capture := entity.BannerCapture{
		Domain:     o.domain,
		Visit:      visit,
		Profile:    o.profile,
		URL:        pageURL,
		Title:      title,
		Lang:       lang,
		CapturedAt: o.now().UTC(),
	}
	if capture.ScreenshotPath, err = o.writer.Write(ctx, path.Join("screenshots", o.domain, base+".png"), shot); err != nil {
		return false, err
	}
	if capture.HTMLPath, err = o.writer.Write(ctx, path.Join("html", o.domain, base+".html"), []byte(html)); err != nil {
		return false, err
	}

	metaPath := path.Join("metadata", o.domain, base+".json")
	capture.MetadataPath = metaPath
	meta, err := json.MarshalIndent(capture, "", "  ")
	if err != nil {
		return false, err
	}
	if capture.MetadataPath, err = o.writer.Write(ctx, metaPath, meta); err != nil {
		return false, err
	}

	o.mu.Lock()
	o.captured[key] = capture
	o.mu.Unlock()
	return true, nil
}

func (o *BannerObserver) Flush(ctx context.Context, bc repository.BrowsingContext, visit int) error {
	return nil
}

func (o *BannerObserver) Contribute(doc *entity.ResultDocument) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.captured) == 0 {
		return
	}
	if doc.Banner == nil {
		doc.Banner = make(map[string]entity.BannerCapture)
	}
	for _, c := range o.captured {
		doc.Banner[entity.VisitKey(c.Visit)] = c
	}
}

func parseBannerHTML(html string) (title, lang string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", ""
	}
	title = strings.TrimSpace(doc.Find("title").First().Text())
	lang, _ = doc.Find("html").First().Attr("lang")
	return title, strings.TrimSpace(lang)
}
