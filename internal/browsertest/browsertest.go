// Package browsertest provides an in-memory BrowserBackend for tests.
package browsertest

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/user/trackscope/internal/entity"
	"github.com/user/trackscope/internal/repository"
	"github.com/user/trackscope/pkg/utils"
)

// Request is a subresource issued by a fake page.
type Request struct {
	entity.InterceptedRequest
	Response *entity.FetchedResponse
	// FetchErr makes Route.Fetch fail for this request.
	FetchErr error
	// FulfillErr makes Route.Fulfill fail and leaves the route open.
	FulfillErr error
	Security   *entity.SecurityInfo
}

// Page scripts what a navigation to a URL does.
type Page struct {
	FinalURL string
	Err      error
	Delay    time.Duration
	Title    string
	HTML     string
	Requests []Request
	// SetCookies are applied after the requests, before the load event.
	SetCookies    []entity.BrowserCookie
	DeleteCookies []string
	// Calls delivers payloads to page bindings by name.
	Calls map[string][]string
	// OpenTabs is the number of extra tabs the page spawns.
	OpenTabs int
}

// Event is an entry of the backend's global log.
type Event struct {
	Kind    string // open, navigate, close
	Profile string
	URL     string
	Seq     int
}

// Resolution records how a route handler resolved a request.
type Resolution struct {
	URL    string
	Action string // continue, fulfill
	// Response is what a fulfill replayed to the page.
	Response *entity.FetchedResponse
}

// Backend is a fake BrowserBackend. Cookie state is shared between every
// context of the same profile, like a persistent browser profile.
type Backend struct {
	mu       sync.Mutex
	Pages    map[string]Page
	OpenErrs []error
	// Eval answers Evaluate calls; nil results decode as JSON null.
	Eval func(expression string) (any, error)

	events  []Event
	cookies map[string]map[string]entity.BrowserCookie
	// storage maps profile, then origin, to key/value pairs.
	storage  map[string]map[string]map[string]string
	visited  map[string]map[string]struct{}
	contexts []*Context
	opens    int
	seq      uint64
}

func NewBackend() *Backend {
	return &Backend{
		Pages:   make(map[string]Page),
		cookies: make(map[string]map[string]entity.BrowserCookie),
		storage: make(map[string]map[string]map[string]string),
		visited: make(map[string]map[string]struct{}),
	}
}

func (b *Backend) Open(ctx context.Context, profile entity.Profile) (repository.BrowsingContext, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := b.opens
	b.opens++
	if n < len(b.OpenErrs) && b.OpenErrs[n] != nil {
		return nil, b.OpenErrs[n]
	}
	c := &Context{
		backend:  b,
		profile:  profile.Name,
		bindings: make(map[string]func(string)),
		scripts:  make(map[int]string),
		subs:     make(map[int]func(any)),
		routes:   make(map[int]repository.RouteHandler),
	}
	b.contexts = append(b.contexts, c)
	b.logLocked("open", profile.Name, "")
	return c, nil
}

// SetCookie seeds the cookie jar of a profile.
func (b *Backend) SetCookie(profile string, c entity.BrowserCookie) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jarLocked(profile)[c.Name+"|"+c.Domain] = c
}

// SetStorage seeds a storage entry of origin in a profile.
func (b *Backend) SetStorage(profile, origin, key, value string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	byOrigin, ok := b.storage[profile]
	if !ok {
		byOrigin = make(map[string]map[string]string)
		b.storage[profile] = byOrigin
	}
	if byOrigin[origin] == nil {
		byOrigin[origin] = make(map[string]string)
	}
	byOrigin[origin][key] = value
}

// Storage returns a copy of the storage entries of origin in a profile.
func (b *Backend) Storage(profile, origin string) map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]string)
	for k, v := range b.storage[profile][origin] {
		out[k] = v
	}
	return out
}

func (b *Backend) Events() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Event(nil), b.events...)
}

func (b *Backend) Contexts() []*Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Context(nil), b.contexts...)
}

func (b *Backend) Opens() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opens
}

func (b *Backend) logLocked(kind, profile, url string) {
	b.events = append(b.events, Event{Kind: kind, Profile: profile, URL: url, Seq: len(b.events)})
}

func (b *Backend) jarLocked(profile string) map[string]entity.BrowserCookie {
	jar, ok := b.cookies[profile]
	if !ok {
		jar = make(map[string]entity.BrowserCookie)
		b.cookies[profile] = jar
	}
	return jar
}

// Context is a fake BrowsingContext.
type Context struct {
	backend *Backend
	profile string

	mu          sync.Mutex
	current     string
	title       string
	html        string
	closed      bool
	cleared     int
	settled     int
	extraTabs   int
	closedTabs  int
	navigations []string
	nextID      int
	bindings    map[string]func(string)
	scripts     map[int]string
	subs        map[int]func(any)
	routes      map[int]repository.RouteHandler
	resolutions []Resolution
}

func (c *Context) Navigate(ctx context.Context, url string) (string, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return "", repository.ErrContextClosed
	}
	c.navigations = append(c.navigations, url)
	c.mu.Unlock()

	c.backend.mu.Lock()
	c.backend.logLocked("navigate", c.profile, url)
	page, ok := c.backend.Pages[url]
	c.backend.mu.Unlock()
	if !ok {
		page = Page{HTML: "<html><head><title></title></head><body></body></html>"}
	}

	if page.Delay > 0 {
		select {
		case <-time.After(page.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if page.Err != nil {
		return "", page.Err
	}

	final := page.FinalURL
	if final == "" {
		final = url
	}

	for _, r := range page.Requests {
		c.route(ctx, r)
	}

	c.backend.mu.Lock()
	if u, err := url.Parse(final); err == nil && u.Host != "" {
		if c.backend.visited[c.profile] == nil {
			c.backend.visited[c.profile] = make(map[string]struct{})
		}
		c.backend.visited[c.profile][u.Scheme+"://"+u.Host] = struct{}{}
	}
	jar := c.backend.jarLocked(c.profile)
	for _, ck := range page.SetCookies {
		jar[ck.Name+"|"+ck.Domain] = ck
	}
	for _, name := range page.DeleteCookies {
		for k, ck := range jar {
			if ck.Name == name {
				delete(jar, k)
			}
		}
	}
	c.backend.mu.Unlock()

	c.mu.Lock()
	c.current = final
	c.title = page.Title
	c.html = page.HTML
	c.extraTabs += page.OpenTabs
	bindings := make(map[string]func(string), len(c.bindings))
	for k, v := range c.bindings {
		bindings[k] = v
	}
	c.mu.Unlock()

	for name, payloads := range page.Calls {
		fn, ok := bindings[name]
		if !ok {
			continue
		}
		for _, p := range payloads {
			fn(p)
		}
	}

	c.emit(&entity.LoadEvent{URL: final})
	return final, nil
}

func (c *Context) route(ctx context.Context, r Request) {
	c.backend.mu.Lock()
	c.backend.seq++
	r.Seq = c.backend.seq
	c.backend.mu.Unlock()

	c.mu.Lock()
	if r.ID == "" {
		c.nextID++
		r.ID = "req-" + itoa(c.nextID)
	}
	handlers := make([]repository.RouteHandler, 0, len(c.routes))
	for _, id := range sortedKeys(c.routes) {
		handlers = append(handlers, c.routes[id])
	}
	c.mu.Unlock()

	rt := &route{ctx: c, req: r}
	for _, h := range handlers {
		h(ctx, rt)
	}
	if len(handlers) == 0 {
		rt.resolve("continue", nil)
	}
	if r.Response != nil {
		c.emit(&entity.ResponseEvent{
			RequestID:    r.ID,
			URL:          r.URL,
			Status:       r.Response.Status,
			Headers:      r.Response.Headers,
			MimeType:     r.Response.MimeType,
			ResourceType: r.ResourceType,
			Security:     r.Security,
		})
	}
}

func (c *Context) emit(ev any) {
	c.mu.Lock()
	subs := make([]func(any), 0, len(c.subs))
	for _, id := range sortedKeys(c.subs) {
		subs = append(subs, c.subs[id])
	}
	c.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

func (c *Context) CurrentURL(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, nil
}

func (c *Context) Title(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.title, nil
}

func (c *Context) Content(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.html, nil
}

// Screenshot returns the PNG signature followed by the current URL.
func (c *Context) Screenshot(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, repository.ErrContextClosed
	}
	return append([]byte("\x89PNG\r\n\x1a\n"), c.current...), nil
}

func (c *Context) Evaluate(ctx context.Context, expression string, out any) error {
	var result any
	if c.backend.Eval != nil {
		var err error
		if result, err = c.backend.Eval(expression); err != nil {
			return err
		}
	}
	if out == nil {
		return nil
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (c *Context) AddInitScript(ctx context.Context, source string) (repository.Unsubscribe, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.scripts[id] = source
	return c.remover(func() { delete(c.scripts, id) }), nil
}

func (c *Context) Bind(ctx context.Context, name string, fn func(payload string)) (repository.Unsubscribe, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings[name] = fn
	return c.remover(func() { delete(c.bindings, name) }), nil
}

func (c *Context) Route(ctx context.Context, handler repository.RouteHandler) (repository.Unsubscribe, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.routes[id] = handler
	return c.remover(func() { delete(c.routes, id) }), nil
}

func (c *Context) Subscribe(handler func(ev any)) repository.Unsubscribe {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.subs[id] = handler
	return c.remover(func() { delete(c.subs, id) })
}

// Settle is a no-op: the fake delivers events synchronously.
func (c *Context) Settle(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settled++
	return nil
}

func (c *Context) remover(fn func()) repository.Unsubscribe {
	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			fn()
		})
	}
}

func (c *Context) Cookies(ctx context.Context) ([]entity.BrowserCookie, error) {
	c.backend.mu.Lock()
	defer c.backend.mu.Unlock()
	jar := c.backend.jarLocked(c.profile)
	out := make([]entity.BrowserCookie, 0, len(jar))
	for _, k := range sortedKeys(jar) {
		out = append(out, jar[k])
	}
	return out, nil
}

// ClearState drops the profile's cookies and the storage of every visited
// origin plus the origins of domain. Storage of other origins survives.
func (c *Context) ClearState(ctx context.Context, domain string) error {
	c.backend.mu.Lock()
	delete(c.backend.cookies, c.profile)
	byOrigin := c.backend.storage[c.profile]
	for origin := range c.backend.visited[c.profile] {
		delete(byOrigin, origin)
	}
	for _, origin := range utils.SiteOrigins(domain) {
		delete(byOrigin, origin)
	}
	delete(c.backend.visited, c.profile)
	c.backend.mu.Unlock()
	c.mu.Lock()
	c.cleared++
	c.mu.Unlock()
	return nil
}

func (c *Context) CloseExtraTabs(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, repository.ErrContextClosed
	}
	n := c.extraTabs
	c.closedTabs += n
	c.extraTabs = 0
	return n, nil
}

func (c *Context) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.backend.mu.Lock()
	c.backend.logLocked("close", c.profile, "")
	c.backend.mu.Unlock()
	return nil
}

// Inspection helpers.

func (c *Context) Navigations() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.navigations...)
}

func (c *Context) Cleared() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cleared
}

func (c *Context) Settled() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settled
}

func (c *Context) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Context) ClosedTabs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closedTabs
}

// Registrations reports the number of live init scripts, bindings, routes
// and subscribers.
func (c *Context) Registrations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.scripts) + len(c.bindings) + len(c.routes) + len(c.subs)
}

func (c *Context) InitScripts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.scripts))
	for _, id := range sortedKeys(c.scripts) {
		out = append(out, c.scripts[id])
	}
	return out
}

func (c *Context) Resolutions() []Resolution {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Resolution(nil), c.resolutions...)
}

type route struct {
	ctx      *Context
	req      Request
	resolved bool
}

func (r *route) Request() entity.InterceptedRequest { return r.req.InterceptedRequest }

func (r *route) Fetch(ctx context.Context) (*entity.FetchedResponse, error) {
	if r.req.FetchErr != nil {
		return nil, r.req.FetchErr
	}
	if r.req.Response == nil {
		return &entity.FetchedResponse{Status: 200}, nil
	}
	resp := *r.req.Response
	return &resp, nil
}

func (r *route) Fulfill(ctx context.Context, resp *entity.FetchedResponse) error {
	if r.req.FulfillErr != nil {
		return r.req.FulfillErr
	}
	return r.resolve("fulfill", resp)
}

func (r *route) Continue(ctx context.Context) error {
	return r.resolve("continue", nil)
}

func (r *route) resolve(action string, resp *entity.FetchedResponse) error {
	if r.resolved {
		return errors.New("browsertest: route already resolved")
	}
	r.resolved = true
	r.ctx.mu.Lock()
	defer r.ctx.mu.Unlock()
	if r.ctx.closed {
		return repository.ErrContextClosed
	}
	r.ctx.resolutions = append(r.ctx.resolutions, Resolution{URL: r.req.URL, Action: action, Response: resp})
	return nil
}
