package observer

import (
	"context"
	_ "embed"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/user/trackscope/internal/entity"
	"github.com/user/trackscope/internal/repository"
	"github.com/user/trackscope/pkg/utils"
)

// FingerprintBinding is the page function instrumented APIs report through.
const FingerprintBinding = "__trackscopeReportFP"

//go:embed scripts/fingerprint.js
var fingerprintScript string

// Category sets that indicate fingerprinting when used together.
var fingerprintCombinations = [][]string{
	{entity.CategoryCanvas, entity.CategoryFonts},
	{entity.CategoryWebGL, entity.CategoryHardware},
	{entity.CategoryCanvas, entity.CategoryWebGL, entity.CategoryHardware},
	{entity.CategoryAudio, entity.CategoryHardware},
}

// apiHints maps API name fragments to categories for events that arrive
// without one.
var apiHints = []struct {
	fragment string
	category string
}{
	{"getcontext", entity.CategoryCanvas},
	{"todataurl", entity.CategoryCanvas},
	{"getimagedata", entity.CategoryCanvas},
	{"measuretext", entity.CategoryCanvas},
	{"webgl", entity.CategoryWebGL},
	{"getparameter", entity.CategoryWebGL},
	{"getextension", entity.CategoryWebGL},
	{"hardwareconcurrency", entity.CategoryHardware},
	{"devicememory", entity.CategoryHardware},
	{"platform", entity.CategoryHardware},
	{"oscillator", entity.CategoryAudio},
	{"audiocontext", entity.CategoryAudio},
	{"dynamicscompressor", entity.CategoryAudio},
	{"fonts.check", entity.CategoryFonts},
	{"fontface", entity.CategoryFonts},
	{"check", entity.CategoryFonts},
	{"rtcpeerconnection", entity.CategoryWebRTC},
	{"createdatachannel", entity.CategoryWebRTC},
	{"createoffer", entity.CategoryWebRTC},
}

type fingerprintPayload struct {
	Category  string `json:"category"`
	API       string `json:"api"`
	Source    string `json:"source"`
	URL       string `json:"url"`
	Timestamp int64  `json:"timestamp"`
}

// FingerprintObserver collects calls to fingerprinting-relevant browser APIs
// and aggregates them per page and per visit.
type FingerprintObserver struct {
	opts options

	mu        sync.Mutex
	visit     int
	page      int
	events    map[int][]entity.FingerprintEvent
	summaries map[int]entity.FingerprintVisitSummary
	now       func() time.Time
}

func NewFingerprintObserver(opts ...Option) *FingerprintObserver {
	return &FingerprintObserver{
		opts:      buildOptions(opts),
		events:    make(map[int][]entity.FingerprintEvent),
		summaries: make(map[int]entity.FingerprintVisitSummary),
		now:       time.Now,
	}
}

func (o *FingerprintObserver) Attach(ctx context.Context, bc repository.BrowsingContext, visit int) (repository.Unsubscribe, error) {
	o.mu.Lock()
	o.visit = visit
	o.page = 0
	o.mu.Unlock()

	// The binding must exist before the init script can report through it.
	unbind, err := bc.Bind(ctx, FingerprintBinding, o.report)
	if err != nil {
		return nil, err
	}
	unscript, err := bc.AddInitScript(ctx, fingerprintScript)
	if err != nil {
		unbind()
		return nil, err
	}
	return unsubscribeAll([]repository.Unsubscribe{unbind, unscript}), nil
}

// SetPage sets the navigation index attributed to subsequent reports.
func (o *FingerprintObserver) SetPage(page int) {
	o.mu.Lock()
	o.page = page
	o.mu.Unlock()
}

func (o *FingerprintObserver) report(raw string) {
	var p fingerprintPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		o.opts.logger.Debug("malformed fingerprint report", zap.Error(err))
		return
	}
	o.Record(p.Category, p.API, p.Source, p.URL, p.Timestamp)
}

// Record adds one API call. ts is in Unix milliseconds; zero means now.
// Calls arriving after the visit was flushed are dropped.
func (o *FingerprintObserver) Record(category, api, source, pageURL string, ts int64) {
	category = strings.ToLower(strings.TrimSpace(category))
	if !isCategory(category) {
		category = ""
	}
	when := o.now().UTC()
	if ts > 0 {
		when = time.UnixMilli(ts).UTC()
	}

	o.mu.Lock()
	if _, sealed := o.summaries[o.visit]; sealed {
		o.mu.Unlock()
		return
	}
	o.events[o.visit] = append(o.events[o.visit], entity.FingerprintEvent{
		Category:  category,
		API:       api,
		Source:    source,
		URL:       pageURL,
		Timestamp: when,
		Page:      o.page,
		Visit:     o.visit,
	})
	o.mu.Unlock()

	if o.opts.metrics != nil {
		label := category
		if label == "" {
			label = "unknown"
		}
		o.opts.metrics.FingerprintCalls.WithLabelValues(label).Inc()
	}
}

func (o *FingerprintObserver) Flush(ctx context.Context, bc repository.BrowsingContext, visit int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.summaries[visit] = summarizeFingerprintVisit(visit, o.events[visit])
	return nil
}

func (o *FingerprintObserver) Contribute(doc *entity.ResultDocument) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for visit, s := range o.summaries {
		doc.Fingerprinting.Visits[entity.VisitKey(visit)] = s
	}
	doc.Fingerprinting.Summary = combineFingerprintSummaries(o.summaries)
}

// Summary returns the sealed summary of visit.
func (o *FingerprintObserver) Summary(visit int) (entity.FingerprintVisitSummary, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.summaries[visit]
	return s, ok
}

func summarizeFingerprintVisit(visit int, events []entity.FingerprintEvent) entity.FingerprintVisitSummary {
	s := entity.FingerprintVisitSummary{
		Visit:               visit,
		TotalCalls:          len(events),
		CategoryTotals:      make(map[string]int),
		TechniquesDetected:  []string{},
		FingerprintingPages: []string{},
		SuspiciousScripts:   []string{},
		Pages:               make(map[string]entity.PageFingerprint),
	}
	scripts := make(map[string]map[string]struct{})
	apis := make(map[string]struct{})

	for _, ev := range events {
		apis[ev.API] = struct{}{}
		if ev.Category != "" {
			s.CategoryTotals[ev.Category]++
			if ev.Source != "" && ev.Source != "unknown" {
				if scripts[ev.Source] == nil {
					scripts[ev.Source] = make(map[string]struct{})
				}
				scripts[ev.Source][ev.Category] = struct{}{}
			}
		}
		// Calls without a page URL count toward the visit only.
		if ev.URL == "" {
			continue
		}
		page := utils.NormalizePageURL(ev.URL)
		p, ok := s.Pages[page]
		if !ok {
			p = entity.PageFingerprint{APICounts: make(map[string]int), CategoryCounts: make(map[string]int)}
		}
		p.APICounts[ev.API]++
		if ev.Category != "" {
			p.CategoryCounts[ev.Category]++
		}
		s.Pages[page] = p
	}
	s.PagesAnalyzed = len(s.Pages)

	techniques := make(map[string]struct{})
	for url, p := range s.Pages {
		cats := nonZero(p.CategoryCounts)
		p.LikelyFingerprinting = matchesCombination(cats)
		s.Pages[url] = p
		if p.LikelyFingerprinting {
			s.FingerprintingPages = append(s.FingerprintingPages, url)
		}
		for c := range cats {
			techniques[c] = struct{}{}
		}
	}
	if len(techniques) == 0 {
		techniques = nonZero(s.CategoryTotals)
	}
	if len(techniques) == 0 {
		for api := range apis {
			if c := inferCategory(api); c != "" {
				techniques[c] = struct{}{}
			}
		}
	}
	for c := range techniques {
		s.TechniquesDetected = append(s.TechniquesDetected, c)
	}
	for src, cats := range scripts {
		if matchesCombination(cats) {
			s.SuspiciousScripts = append(s.SuspiciousScripts, src)
		}
	}
	sort.Strings(s.TechniquesDetected)
	sort.Strings(s.FingerprintingPages)
	sort.Strings(s.SuspiciousScripts)
	s.LikelyFingerprinting = len(s.FingerprintingPages) > 0 || len(s.SuspiciousScripts) > 0
	return s
}

func combineFingerprintSummaries(visits map[int]entity.FingerprintVisitSummary) entity.FingerprintSummary {
	out := entity.FingerprintSummary{
		CategoryTotals:      make(map[string]int),
		TechniquesDetected:  []string{},
		FingerprintingPages: []string{},
		SuspiciousScripts:   []string{},
		VisitSummaries:      []entity.FingerprintVisitSummary{},
	}
	pages := make(map[string]struct{})
	techniques := make(map[string]struct{})
	fpPages := make(map[string]struct{})
	scripts := make(map[string]struct{})

	for _, visit := range sortedVisits(visits) {
		s := visits[visit]
		out.VisitSummaries = append(out.VisitSummaries, s)
		out.TotalCalls += s.TotalCalls
		for c, n := range s.CategoryTotals {
			out.CategoryTotals[c] += n
		}
		for p := range s.Pages {
			pages[p] = struct{}{}
		}
		addAll(techniques, s.TechniquesDetected)
		addAll(fpPages, s.FingerprintingPages)
		addAll(scripts, s.SuspiciousScripts)
		out.LikelyFingerprinting = out.LikelyFingerprinting || s.LikelyFingerprinting
	}
	out.PagesAnalyzed = len(pages)
	out.TechniquesDetected = sortedSet(techniques)
	out.FingerprintingPages = sortedSet(fpPages)
	out.SuspiciousScripts = sortedSet(scripts)
	return out
}

func matchesCombination(cats map[string]struct{}) bool {
	for _, combo := range fingerprintCombinations {
		all := true
		for _, c := range combo {
			if _, ok := cats[c]; !ok {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

func inferCategory(api string) string {
	a := strings.ToLower(api)
	for _, h := range apiHints {
		if strings.Contains(a, h.fragment) {
			return h.category
		}
	}
	return ""
}

func isCategory(c string) bool {
	for _, known := range entity.FingerprintCategories {
		if c == known {
			return true
		}
	}
	return false
}

func nonZero(counts map[string]int) map[string]struct{} {
	out := make(map[string]struct{})
	for c, n := range counts {
		if n > 0 {
			out[c] = struct{}{}
		}
	}
	return out
}

func addAll(set map[string]struct{}, items []string) {
	for _, it := range items {
		set[it] = struct{}{}
	}
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
