package chromedp_browser

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/user/trackscope/internal/entity"
	"github.com/user/trackscope/internal/repository"
	"github.com/user/trackscope/pkg/utils"
)

const releaseTimeout = 5 * time.Second

// Context is one tab of a profile's browser.
type Context struct {
	tabCtx  context.Context
	cancel  context.CancelFunc
	pb      *profileBrowser
	backend *Backend
	logger  *zap.Logger
	events  *eventQueue
	seq     atomic.Uint64

	mu           sync.Mutex
	closed       bool
	nextID       int
	subs         map[int]func(ev any)
	routes       map[int]repository.RouteHandler
	bindings     map[string]func(payload string)
	frames       map[cdp.FrameID]string
	waiters      map[fetch.RequestID]chan *fetch.EventRequestPaused
	intercepting bool
}

type bindingCall struct {
	name    string
	payload string
}

func newContext(tabCtx context.Context, cancel context.CancelFunc, pb *profileBrowser, b *Backend, logger *zap.Logger) *Context {
	c := &Context{
		tabCtx:   tabCtx,
		cancel:   cancel,
		pb:       pb,
		backend:  b,
		logger:   logger,
		subs:     make(map[int]func(ev any)),
		routes:   make(map[int]repository.RouteHandler),
		bindings: make(map[string]func(payload string)),
		frames:   make(map[cdp.FrameID]string),
		waiters:  make(map[fetch.RequestID]chan *fetch.EventRequestPaused),
	}
	c.events = newEventQueue(c.dispatch)
	chromedp.ListenTarget(tabCtx, c.listen)
	return c
}

// listen runs on the chromedp event loop and must not issue commands.
func (c *Context) listen(ev any) {
	switch e := ev.(type) {
	case *fetch.EventRequestPaused:
		if e.ResponseStatusCode != 0 || e.ResponseErrorReason != "" {
			c.deliverResponseStage(e)
			return
		}
		if e.RedirectedRequestID != "" {
			c.abortWaiter(e.RedirectedRequestID)
		}
		c.events.push(c.newRoute(e))
	case *network.EventResponseReceived:
		if e.Response != nil {
			c.events.push(responseEvent(e))
		}
	case *page.EventFrameNavigated:
		if e.Frame != nil {
			c.mu.Lock()
			c.frames[e.Frame.ID] = e.Frame.URL + e.Frame.URLFragment
			c.mu.Unlock()
			c.pb.rememberOrigin(e.Frame.SecurityOrigin)
		}
	case *page.EventLoadEventFired:
		c.events.push(&entity.LoadEvent{URL: c.frameURL(cdp.FrameID(c.targetID()))})
	case *runtime.EventBindingCalled:
		c.events.push(bindingCall{name: e.Name, payload: e.Payload})
	}
}

func (c *Context) dispatch(item any) {
	switch v := item.(type) {
	case *route:
		c.events.hold()
		go func() {
			defer c.events.release()
			c.serveRoute(v)
		}()
	case bindingCall:
		c.mu.Lock()
		fn := c.bindings[v.name]
		c.mu.Unlock()
		if fn != nil {
			fn(v.payload)
		}
	default:
		c.mu.Lock()
		handlers := make([]func(ev any), 0, len(c.subs))
		for _, id := range slices.Sorted(maps.Keys(c.subs)) {
			handlers = append(handlers, c.subs[id])
		}
		c.mu.Unlock()
		for _, h := range handlers {
			h(v)
		}
	}
}

func (c *Context) serveRoute(r *route) {
	c.mu.Lock()
	handlers := make([]repository.RouteHandler, 0, len(c.routes))
	for _, id := range slices.Sorted(maps.Keys(c.routes)) {
		handlers = append(handlers, c.routes[id])
	}
	c.mu.Unlock()

	for _, h := range handlers {
		h(c.tabCtx, r)
		if r.resolved.Load() {
			return
		}
	}
	if err := r.Continue(c.tabCtx); err != nil {
		c.logger.Debug("continuing unhandled request", zap.String("url", r.req.URL), zap.Error(err))
	}
}

// run executes actions on this tab, bounded by both ctx and the tab.
func (c *Context) run(ctx context.Context, actions ...chromedp.Action) error {
	if c.isClosed() {
		return repository.ErrContextClosed
	}
	runCtx, cancel := context.WithCancel(c.tabCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if c.tabCtx.Err() != nil {
		return fmt.Errorf("%w: %v", repository.ErrContextClosed, err)
	}
	return translate(err)
}

// onBrowser runs fn with the browser-level session as executor. Storage
// and permission commands act on the whole profile.
func (c *Context) onBrowser(ctx context.Context, fn func(ctx context.Context) error) error {
	return c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return fn(cdp.WithExecutor(ctx, chromedp.FromContext(c.tabCtx).Browser))
	}))
}

func (c *Context) Navigate(ctx context.Context, url string) (string, error) {
	var final string
	err := c.run(ctx, chromedp.Navigate(url), chromedp.Location(&final))
	switch {
	case err == nil:
		return final, nil
	case ctx.Err() != nil, isClosedErr(err):
		return "", err
	}
	return "", fmt.Errorf("%w: %s: %v", repository.ErrNavigationFailed, url, err)
}

func (c *Context) CurrentURL(ctx context.Context) (string, error) {
	var u string
	if err := c.run(ctx, chromedp.Location(&u)); err != nil {
		return "", err
	}
	return u, nil
}

func (c *Context) Title(ctx context.Context) (string, error) {
	var t string
	if err := c.run(ctx, chromedp.Title(&t)); err != nil {
		return "", err
	}
	return t, nil
}

func (c *Context) Content(ctx context.Context) (string, error) {
	var html string
	err := c.Evaluate(ctx, `document.documentElement ? document.documentElement.outerHTML : ""`, &html)
	return html, err
}

func (c *Context) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := c.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, err
	}
	return buf, nil
}

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}

func (c *Context) Evaluate(ctx context.Context, expression string, out any) error {
	var obj *runtime.RemoteObject
	if err := c.run(ctx, chromedp.Evaluate(expression, &obj, chromedp.EvalAsValue, awaitPromise)); err != nil {
		return err
	}
	if out == nil || obj == nil || len(obj.Value) == 0 {
		return nil
	}
	return json.Unmarshal(obj.Value, out)
}

func (c *Context) AddInitScript(ctx context.Context, source string) (repository.Unsubscribe, error) {
	var id page.ScriptIdentifier
	err := c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		id, err = page.AddScriptToEvaluateOnNewDocument(source).Do(ctx)
		return err
	}))
	if err != nil {
		return nil, err
	}
	return c.release(func() {}, page.RemoveScriptToEvaluateOnNewDocument(id)), nil
}

func (c *Context) Bind(ctx context.Context, name string, fn func(payload string)) (repository.Unsubscribe, error) {
	c.mu.Lock()
	c.bindings[name] = fn
	c.mu.Unlock()
	drop := func() { delete(c.bindings, name) }

	if err := c.run(ctx, runtime.AddBinding(name)); err != nil {
		c.mu.Lock()
		drop()
		c.mu.Unlock()
		return nil, err
	}
	return c.release(drop, runtime.RemoveBinding(name)), nil
}

func (c *Context) Route(ctx context.Context, handler repository.RouteHandler) (repository.Unsubscribe, error) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.routes[id] = handler
	enable := !c.intercepting
	c.intercepting = true
	c.mu.Unlock()

	if enable {
		patterns := []*fetch.RequestPattern{{URLPattern: "*", RequestStage: fetch.RequestStageRequest}}
		if err := c.run(ctx, fetch.Enable().WithPatterns(patterns)); err != nil {
			c.mu.Lock()
			delete(c.routes, id)
			c.intercepting = false
			c.mu.Unlock()
			return nil, err
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.routes, id)
			disable := len(c.routes) == 0 && c.intercepting && !c.closed
			if disable {
				c.intercepting = false
			}
			c.mu.Unlock()
			if disable {
				c.bestEffort(fetch.Disable())
			}
		})
	}, nil
}

func (c *Context) Subscribe(handler func(ev any)) repository.Unsubscribe {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.subs[id] = handler
	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

// release builds an Unsubscribe that drops local state under c.mu and
// then undoes the browser-side registration.
func (c *Context) release(drop func(), undo chromedp.Action) repository.Unsubscribe {
	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			drop()
			closed := c.closed
			c.mu.Unlock()
			if !closed {
				c.bestEffort(undo)
			}
		})
	}
}

func (c *Context) bestEffort(action chromedp.Action) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	if err := c.run(ctx, action); err != nil && !isClosedErr(err) {
		c.logger.Debug("releasing registration", zap.Error(err))
	}
}

func (c *Context) Cookies(ctx context.Context) ([]entity.BrowserCookie, error) {
	var cookies []*network.Cookie
	err := c.onBrowser(ctx, func(ctx context.Context) error {
		var err error
		cookies, err = storage.GetCookies().Do(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]entity.BrowserCookie, 0, len(cookies))
	for _, ck := range cookies {
		out = append(out, browserCookie(ck))
	}
	return out, nil
}

func (c *Context) ClearState(ctx context.Context, domain string) error {
	origins := clearOrigins(c.pb.takeOrigins(), domain)
	err := c.onBrowser(ctx, func(ctx context.Context) error {
		if err := storage.ClearCookies().Do(ctx); err != nil {
			return fmt.Errorf("clear cookies: %w", err)
		}
		if err := browser.ResetPermissions().Do(ctx); err != nil {
			return fmt.Errorf("reset permissions: %w", err)
		}
		for _, origin := range origins {
			if err := storage.ClearDataForOrigin(origin, "all").Do(ctx); err != nil {
				return fmt.Errorf("clear storage for %s: %w", origin, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return c.run(ctx, network.ClearBrowserCache())
}

// clearOrigins merges the origins a profile visited with the origins of
// the crawled site, so storage planted before this process started is
// dropped too.
func clearOrigins(visited []string, domain string) []string {
	seen := make(map[string]struct{}, len(visited)+4)
	out := make([]string, 0, len(visited)+4)
	for _, o := range append(utils.SiteOrigins(domain), visited...) {
		if _, ok := seen[o]; ok {
			continue
		}
		seen[o] = struct{}{}
		out = append(out, o)
	}
	return out
}

// Settle blocks until every event received so far has reached its
// subscribers, bindings and route handlers.
func (c *Context) Settle(ctx context.Context) error {
	if c.isClosed() {
		return repository.ErrContextClosed
	}
	return c.events.drain(ctx)
}

func (c *Context) CloseExtraTabs(ctx context.Context) (int, error) {
	own := c.targetID()
	var closed int
	err := c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		infos, err := chromedp.Targets(ctx)
		if err != nil {
			return err
		}
		exec := cdp.WithExecutor(ctx, chromedp.FromContext(c.tabCtx).Browser)
		for _, info := range infos {
			if info.Type != "page" || info.TargetID == own {
				continue
			}
			if err := target.CloseTarget(info.TargetID).Do(exec); err != nil {
				if isTargetGone(err) {
					continue
				}
				return err
			}
			closed++
		}
		return nil
	}))
	return closed, err
}

func (c *Context) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	waiters := c.waiters
	c.waiters = make(map[fetch.RequestID]chan *fetch.EventRequestPaused)
	c.mu.Unlock()

	for _, ch := range waiters {
		close(ch)
	}
	c.events.close()
	c.cancel()
	c.backend.release()
	return nil
}

func (c *Context) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Context) targetID() target.ID {
	if t := chromedp.FromContext(c.tabCtx).Target; t != nil {
		return t.TargetID
	}
	return ""
}

func (c *Context) frameURL(id cdp.FrameID) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames[id]
}

func browserCookie(ck *network.Cookie) entity.BrowserCookie {
	out := entity.BrowserCookie{
		Name:     ck.Name,
		Value:    ck.Value,
		Domain:   ck.Domain,
		Path:     ck.Path,
		Secure:   ck.Secure,
		HTTPOnly: ck.HTTPOnly,
		SameSite: string(ck.SameSite),
	}
	if !ck.Session && ck.Expires > 0 {
		sec := int64(ck.Expires)
		nsec := int64((ck.Expires - float64(sec)) * float64(time.Second))
		out.Expires = time.Unix(sec, nsec).UTC()
	}
	return out
}
