package chromedp_browser

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"maps"
	"mime"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/user/trackscope/internal/entity"
	"github.com/user/trackscope/internal/repository"
)

// route is a request paused at the request stage. Fetch lets it continue
// with response interception, so the same request id pauses a second time
// once the response headers arrive.
type route struct {
	c        *Context
	id       fetch.RequestID
	req      entity.InterceptedRequest
	resolved atomic.Bool
}

func (c *Context) newRoute(e *fetch.EventRequestPaused) *route {
	id := string(e.NetworkID)
	if id == "" {
		id = string(e.RequestID)
	}
	req := entity.InterceptedRequest{
		Seq:          c.seq.Add(1),
		ID:           id,
		ResourceType: strings.ToLower(string(e.ResourceType)),
		IsNavigation: e.ResourceType == network.ResourceTypeDocument && string(e.FrameID) == string(c.targetID()),
		FrameURL:     c.frameURL(e.FrameID),
	}
	if r := e.Request; r != nil {
		req.URL = r.URL + r.URLFragment
		req.Method = r.Method
		req.Headers = flattenHeaders(r.Headers)
		req.HasPostData = r.HasPostData
	}
	return &route{c: c, id: e.RequestID, req: req}
}

func (r *route) Request() entity.InterceptedRequest { return r.req }

func (r *route) Fetch(ctx context.Context) (*entity.FetchedResponse, error) {
	ch := make(chan *fetch.EventRequestPaused, 1)
	if !r.c.addWaiter(r.id, ch) {
		return nil, repository.ErrContextClosed
	}
	if err := r.c.run(ctx, fetch.ContinueRequest(r.id).WithInterceptResponse(true)); err != nil {
		r.c.removeWaiter(r.id)
		return nil, fmt.Errorf("%w: continue %s: %v", repository.ErrInterceptionRace, r.req.URL, err)
	}

	var ev *fetch.EventRequestPaused
	select {
	case e, ok := <-ch:
		if !ok {
			// Redirected or torn down: the request id is gone either way.
			r.resolved.Store(true)
			if r.c.isClosed() {
				return nil, repository.ErrContextClosed
			}
			return nil, fmt.Errorf("%w: %s redirected", repository.ErrInterceptionRace, r.req.URL)
		}
		ev = e
	case <-ctx.Done():
		r.c.removeWaiter(r.id)
		return nil, ctx.Err()
	}

	if ev.ResponseErrorReason != "" {
		return nil, fmt.Errorf("%w: %s: %s", repository.ErrInterceptionRace, r.req.URL, ev.ResponseErrorReason)
	}

	resp := fetchedResponse(ev)
	err := r.c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		resp.Body, err = fetch.GetResponseBody(r.id).Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("%w: body of %s: %v", repository.ErrInterceptionRace, r.req.URL, err)
	}
	return resp, nil
}

// Fulfill replays resp to the page. The route stays unresolved when the
// call fails, so Continue can still release the request.
func (r *route) Fulfill(ctx context.Context, resp *entity.FetchedResponse) error {
	if !r.resolved.CompareAndSwap(false, true) {
		return nil
	}
	status := resp.Status
	if status == 0 {
		status = 200
	}
	action := fetch.FulfillRequest(r.id, int64(status)).
		WithResponseHeaders(fulfillHeaders(resp)).
		WithBody(base64.StdEncoding.EncodeToString(resp.Body))
	if err := r.c.run(ctx, action); err != nil {
		r.resolved.Store(false)
		if isClosedErr(err) {
			return err
		}
		return fmt.Errorf("%w: fulfill %s: %v", repository.ErrInterceptionRace, r.req.URL, err)
	}
	return nil
}

func (r *route) Continue(ctx context.Context) error {
	if r.resolved.Swap(true) {
		return nil
	}
	if err := r.c.run(ctx, fetch.ContinueRequest(r.id)); err != nil {
		if isClosedErr(err) || isTargetGone(err) {
			return fmt.Errorf("%w: %v", repository.ErrContextClosed, err)
		}
		return fmt.Errorf("%w: continue %s: %v", repository.ErrInterceptionRace, r.req.URL, err)
	}
	return nil
}

func (c *Context) addWaiter(id fetch.RequestID, ch chan *fetch.EventRequestPaused) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.waiters[id] = ch
	return true
}

func (c *Context) removeWaiter(id fetch.RequestID) {
	c.mu.Lock()
	delete(c.waiters, id)
	c.mu.Unlock()
}

// deliverResponseStage hands a response-stage pause to the Fetch waiting
// for it. Pauses nobody waits for are let through.
func (c *Context) deliverResponseStage(e *fetch.EventRequestPaused) {
	c.mu.Lock()
	ch, ok := c.waiters[e.RequestID]
	delete(c.waiters, e.RequestID)
	c.mu.Unlock()
	if ok {
		ch <- e
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(c.tabCtx, releaseTimeout)
		defer cancel()
		if err := c.run(ctx, fetch.ContinueRequest(e.RequestID)); err != nil && !isClosedErr(err) {
			c.logger.Debug("continuing orphaned response", zap.Error(err))
		}
	}()
}

// abortWaiter wakes a Fetch whose request was answered with a redirect;
// Chrome does not pause redirect responses.
func (c *Context) abortWaiter(id fetch.RequestID) {
	c.mu.Lock()
	ch, ok := c.waiters[id]
	delete(c.waiters, id)
	c.mu.Unlock()
	if ok {
		close(ch)
	}
}

// fetchedResponse converts a response-stage pause. Header lines are kept
// one per entry so repeated Set-Cookie headers survive the replay.
func fetchedResponse(ev *fetch.EventRequestPaused) *entity.FetchedResponse {
	resp := &entity.FetchedResponse{
		Status:     int(ev.ResponseStatusCode),
		HeaderList: make([]entity.HeaderEntry, 0, len(ev.ResponseHeaders)),
	}
	for _, h := range ev.ResponseHeaders {
		resp.HeaderList = append(resp.HeaderList, entity.HeaderEntry{Name: h.Name, Value: h.Value})
		if resp.MimeType == "" && strings.EqualFold(h.Name, "content-type") {
			if mt, _, err := mime.ParseMediaType(h.Value); err == nil {
				resp.MimeType = mt
			}
		}
	}
	resp.Headers = entity.FlattenHeaders(resp.HeaderList)
	return resp
}

// fulfillHeaders prefers the received header lines and falls back to the
// flattened map for responses built by hand.
func fulfillHeaders(resp *entity.FetchedResponse) []*fetch.HeaderEntry {
	if len(resp.HeaderList) > 0 {
		out := make([]*fetch.HeaderEntry, 0, len(resp.HeaderList))
		for _, h := range resp.HeaderList {
			out = append(out, &fetch.HeaderEntry{Name: h.Name, Value: h.Value})
		}
		return out
	}
	out := make([]*fetch.HeaderEntry, 0, len(resp.Headers))
	for _, name := range slices.Sorted(maps.Keys(resp.Headers)) {
		out = append(out, &fetch.HeaderEntry{Name: name, Value: resp.Headers[name]})
	}
	return out
}

func responseEvent(e *network.EventResponseReceived) *entity.ResponseEvent {
	r := e.Response
	ev := &entity.ResponseEvent{
		RequestID:    string(e.RequestID),
		URL:          r.URL,
		Status:       int(r.Status),
		Headers:      flattenHeaders(r.Headers),
		MimeType:     r.MimeType,
		ResourceType: strings.ToLower(string(e.Type)),
	}
	if sd := r.SecurityDetails; sd != nil {
		ev.Security = &entity.SecurityInfo{
			Protocol:    sd.Protocol,
			SubjectName: sd.SubjectName,
			Issuer:      sd.Issuer,
			ValidFrom:   epochTime(sd.ValidFrom),
			ValidTo:     epochTime(sd.ValidTo),
		}
	}
	return ev
}

func epochTime(t *cdp.TimeSinceEpoch) *time.Time {
	if t == nil {
		return nil
	}
	v := t.Time().UTC()
	return &v
}

func flattenHeaders(h network.Headers) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		switch s := v.(type) {
		case string:
			out[k] = s
		default:
			out[k] = fmt.Sprint(s)
		}
	}
	return out
}

func isClosedErr(err error) bool {
	return errors.Is(err, repository.ErrContextClosed)
}
