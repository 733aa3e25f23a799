package observer

import (
	"bytes"
	"context"
	"encoding/json"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/user/trackscope/internal/entity"
	"github.com/user/trackscope/internal/repository"
	"github.com/user/trackscope/pkg/utils"
)

// maxBodyBytes caps stored JSON response bodies.
const maxBodyBytes = 1 << 20

type trackedRequest struct {
	seq uint64
	rec entity.NetworkRequest
}

type networkVisit struct {
	requests     []*trackedRequest
	byID         map[string]*trackedRequest
	domains      map[string]struct{}
	lastSnapshot map[string]string
	hasSnapshot  bool
	names        map[string]struct{}
	ops          entity.CookieOperations
	cookies      []entity.CookieRecord
	headerCookie int
	sealed       bool
}

// NetworkObserver records every request of a visit and the cookie
// mutations between page loads.
type NetworkObserver struct {
	opts options
	site string

	mu        sync.Mutex
	visit     int
	pageURL   string
	ctx       context.Context
	bc        repository.BrowsingContext
	visits    map[int]*networkVisit
	firstSeen map[string]time.Time
	now       func() time.Time
}

// NewNetworkObserver returns an observer for requests made while crawling
// domain. Hosts whose registrable domain differs from domain's are third
// party.
func NewNetworkObserver(domain string, opts ...Option) *NetworkObserver {
	o := buildOptions(opts)
	return &NetworkObserver{
		opts:      o,
		site:      utils.RegistrableDomain(utils.NormalizeHost(domain)),
		visits:    make(map[int]*networkVisit),
		firstSeen: make(map[string]time.Time),
		now:       time.Now,
	}
}

func (o *NetworkObserver) Attach(ctx context.Context, bc repository.BrowsingContext, visit int) (repository.Unsubscribe, error) {
	o.mu.Lock()
	o.visit = visit
	o.ctx = ctx
	o.bc = bc
	o.pageURL = ""
	if _, ok := o.visits[visit]; !ok {
		o.visits[visit] = &networkVisit{
			byID:         make(map[string]*trackedRequest),
			domains:      make(map[string]struct{}),
			lastSnapshot: make(map[string]string),
			names:        make(map[string]struct{}),
		}
	}
	o.mu.Unlock()

	// Cookies present when the visit starts are the baseline of the first
	// load diff.
	baseline, err := bc.Cookies(ctx)
	if err != nil {
		return nil, err
	}
	o.diffCookies(visit, baseline)

	unroute, err := bc.Route(ctx, o.handleRoute)
	if err != nil {
		return nil, err
	}
	unsub := bc.Subscribe(o.handleEvent)
	return unsubscribeAll([]repository.Unsubscribe{unroute, unsub}), nil
}

func (o *NetworkObserver) handleRoute(ctx context.Context, route repository.Route) {
	req := route.Request()
	tr := o.record(req)

	if req.ResourceType != entity.ResourceXHR && req.ResourceType != entity.ResourceFetch {
		o.continueRoute(ctx, route, tr)
		return
	}

	resp, err := route.Fetch(ctx)
	if err != nil {
		o.fail(tr, err)
		o.continueRoute(ctx, route, tr)
		return
	}
	o.attachFetched(tr, resp)
	if err := route.Fulfill(ctx, resp); err != nil {
		o.fail(tr, err)
		o.continueRoute(ctx, route, tr)
	}
}

func (o *NetworkObserver) continueRoute(ctx context.Context, route repository.Route, tr *trackedRequest) {
	if err := route.Continue(ctx); err != nil {
		o.fail(tr, err)
	}
}

func (o *NetworkObserver) record(req entity.InterceptedRequest) *trackedRequest {
	host := utils.NormalizeHost(req.URL)
	headers := make(map[string]string, len(req.Headers))
	for k, v := range req.Headers {
		headers[k] = v
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	pageURL := o.pageURL
	if req.IsNavigation && req.ResourceType == entity.ResourceDocument {
		o.pageURL = req.URL
		pageURL = req.URL
	}
	if pageURL == "" {
		pageURL = req.URL
	}
	tr := &trackedRequest{
		seq: req.Seq,
		rec: entity.NetworkRequest{
			ID:           req.ID,
			URL:          req.URL,
			Domain:       host,
			Method:       req.Method,
			ResourceType: req.ResourceType,
			Headers:      headers,
			HasPostData:  req.HasPostData || req.PostData != "",
			PageURL:      pageURL,
			IsNavigation: req.IsNavigation,
			ThirdParty:   host != "" && utils.IsThirdParty(host, o.site),
			Timestamp:    o.now().UTC(),
			Visit:        o.visit,
		},
	}
	v := o.visits[o.visit]
	if v == nil || v.sealed {
		return tr
	}
	v.requests = append(v.requests, tr)
	if req.ID != "" {
		v.byID[req.ID] = tr
	}
	if tr.rec.ThirdParty {
		v.domains[host] = struct{}{}
	}
	v.headerCookie += countCookieHeader(headers)
	if o.opts.metrics != nil {
		o.opts.metrics.InterceptedTotal.WithLabelValues(req.ResourceType).Inc()
	}
	return tr
}

func (o *NetworkObserver) attachFetched(tr *trackedRequest, resp *entity.FetchedResponse) {
	info := &entity.ResponseInfo{
		Status:   resp.Status,
		Headers:  resp.Headers,
		MimeType: resp.MimeType,
	}
	if isJSONBody(resp.MimeType, resp.Body) {
		info.Body = string(resp.Body)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if tr.rec.Response != nil {
		info.Security = tr.rec.Response.Security
	}
	tr.rec.Response = info
}

func (o *NetworkObserver) fail(tr *trackedRequest, err error) {
	if isTeardownRace(err) {
		if o.opts.verbose {
			o.opts.logger.Debug("interception race", zap.String("url", tr.rec.URL), zap.Error(err))
		}
	} else {
		o.opts.logger.Warn("request interception failed", zap.String("url", tr.rec.URL), zap.Error(err))
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if tr.rec.Error == "" {
		tr.rec.Error = err.Error()
	}
}

func (o *NetworkObserver) handleEvent(ev any) {
	switch e := ev.(type) {
	case *entity.ResponseEvent:
		o.onResponse(e)
	case *entity.LoadEvent:
		o.onLoad()
	}
}

func (o *NetworkObserver) onResponse(e *entity.ResponseEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	v := o.visits[o.visit]
	if v == nil {
		return
	}
	tr, ok := v.byID[e.RequestID]
	if !ok {
		return
	}
	if tr.rec.Response == nil {
		tr.rec.Response = &entity.ResponseInfo{
			Status:   e.Status,
			Headers:  e.Headers,
			MimeType: e.MimeType,
		}
	}
	if tr.rec.Response.Security == nil {
		tr.rec.Response.Security = e.Security
	}
}

func (o *NetworkObserver) onLoad() {
	o.mu.Lock()
	ctx, bc, visit := o.ctx, o.bc, o.visit
	o.mu.Unlock()
	if bc == nil {
		return
	}

	cookies, err := bc.Cookies(ctx)
	if err != nil {
		if !isTeardownRace(err) {
			o.opts.logger.Warn("cookie snapshot failed", zap.Int("visit", visit), zap.Error(err))
		}
		return
	}
	o.diffCookies(visit, cookies)
}

// diffCookies compares cookies by name with the previous snapshot of the
// same visit.
func (o *NetworkObserver) diffCookies(visit int, cookies []entity.BrowserCookie) {
	o.mu.Lock()
	defer o.mu.Unlock()
	v := o.visits[visit]
	if v == nil || v.sealed {
		return
	}

	now := o.now().UTC()
	current := make(map[string]string, len(cookies))
	for _, c := range cookies {
		current[c.Name] = c.Value
		v.names[c.Name] = struct{}{}
		o.markSeen(c, now)
	}
	if v.hasSnapshot {
		for name, value := range current {
			prev, existed := v.lastSnapshot[name]
			switch {
			case !existed:
				v.ops.Created++
			case prev != value:
				v.ops.Modified++
			}
		}
		for name := range v.lastSnapshot {
			if _, still := current[name]; !still {
				v.ops.Deleted++
			}
		}
	}
	v.lastSnapshot = current
	v.hasSnapshot = true
	v.ops.TotalUnique = len(v.names)
}

func (o *NetworkObserver) markSeen(c entity.BrowserCookie, now time.Time) {
	k := cookieIdentity(c)
	if _, ok := o.firstSeen[k]; !ok {
		o.firstSeen[k] = now
	}
}

func cookieIdentity(c entity.BrowserCookie) string {
	return c.Name + "|" + entity.NormalizeCookieDomain(c.Domain) + "|" + c.Value
}

// Flush takes the end-of-visit cookie snapshot and seals the visit.
func (o *NetworkObserver) Flush(ctx context.Context, bc repository.BrowsingContext, visit int) error {
	cookies, err := bc.Cookies(ctx)
	if err != nil && !isTeardownRace(err) {
		o.opts.logger.Warn("final cookie snapshot failed", zap.Int("visit", visit), zap.Error(err))
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	v := o.visits[visit]
	if v == nil {
		return nil
	}
	now := o.now().UTC()
	records := make([]entity.CookieRecord, 0, len(cookies))
	for _, c := range cookies {
		o.markSeen(c, now)
		rec := entity.CookieRecord{
			Name:     c.Name,
			Domain:   entity.NormalizeCookieDomain(c.Domain),
			Path:     c.Path,
			Value:    c.Value,
			Created:  o.firstSeen[cookieIdentity(c)],
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: c.SameSite,
			Visit:    visit,
		}
		if !c.Expires.IsZero() {
			exp := c.Expires.UTC()
			rec.Expires = &exp
		}
		records = append(records, rec)
		v.names[c.Name] = struct{}{}
	}
	v.cookies = records
	v.ops.TotalUnique = len(v.names)
	v.sealed = true
	return err
}

func (o *NetworkObserver) Contribute(doc *entity.ResultDocument) {
	o.mu.Lock()
	defer o.mu.Unlock()
	total := 0
	for _, visit := range sortedVisits(o.visits) {
		v := o.visits[visit]
		key := entity.VisitKey(visit)

		ordered := slices.Clone(v.requests)
		sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].seq < ordered[j].seq })
		requests := make([]entity.NetworkRequest, 0, len(ordered))
		for _, tr := range ordered {
			requests = append(requests, tr.rec)
			doc.Statistics.RequestTypes[tr.rec.ResourceType]++
		}
		total += len(requests)

		domains := make([]string, 0, len(v.domains))
		for d := range v.domains {
			domains = append(domains, d)
		}
		sort.Strings(domains)

		entry := doc.NetworkData[key]
		entry.Requests = requests
		entry.DomainsContacted = domains
		if entry.VisitedURLs == nil {
			entry.VisitedURLs = []entity.PageLoad{}
		}
		doc.NetworkData[key] = entry

		doc.Statistics.CookieOperations[key] = v.ops
		doc.Statistics.TotalCookies += v.headerCookie
		cookies := v.cookies
		if cookies == nil {
			cookies = []entity.CookieRecord{}
		}
		doc.Cookies[key] = cookies
	}
	doc.Statistics.TotalRequests += total
}

func countCookieHeader(headers map[string]string) int {
	for k, v := range headers {
		if !strings.EqualFold(k, "cookie") {
			continue
		}
		n := 0
		for _, part := range strings.Split(v, ";") {
			if strings.TrimSpace(part) != "" {
				n++
			}
		}
		return n
	}
	return 0
}

func isJSONBody(mimeType string, body []byte) bool {
	if len(body) == 0 || len(body) > maxBodyBytes {
		return false
	}
	if !strings.Contains(strings.ToLower(mimeType), "json") {
		trimmed := bytes.TrimSpace(body)
		if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
			return false
		}
	}
	return json.Valid(body)
}

func sortedVisits[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
