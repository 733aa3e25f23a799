package chromedp_browser

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/trackscope/internal/entity"
	"github.com/user/trackscope/internal/repository"
	"github.com/user/trackscope/pkg/config"
)

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(chromedp.ErrChannelClosed), repository.ErrContextClosed)
	assert.ErrorIs(t, translate(errors.New("No target with given id found (-32602)")), repository.ErrContextClosed)

	plain := errors.New("page load error net::ERR_NAME_NOT_RESOLVED")
	assert.Equal(t, plain, translate(plain))
}

func TestClassifyOpenError(t *testing.T) {
	err := classifyOpenError(errors.New("websocket: bad handshake (429 Too Many Requests)"))
	assert.ErrorIs(t, err, repository.ErrConcurrencyLimitExceeded)

	err = classifyOpenError(errors.New("exec: \"google-chrome\": executable file not found"))
	assert.NotErrorIs(t, err, repository.ErrConcurrencyLimitExceeded)
}

func TestBackendLimitsOpenContexts(t *testing.T) {
	b := NewBackend(config.BrowserConfig{MaxContexts: 1}, zap.NewNop())
	t.Cleanup(b.Close)

	profile := entity.Profile{Name: "baseline"}
	_, err := b.reserve(profile)
	require.NoError(t, err)

	_, err = b.reserve(profile)
	assert.ErrorIs(t, err, repository.ErrConcurrencyLimitExceeded)

	b.release()
	_, err = b.reserve(profile)
	assert.NoError(t, err)
}

func TestBackendReusesProfileBrowser(t *testing.T) {
	b := NewBackend(config.BrowserConfig{}, zap.NewNop())
	t.Cleanup(b.Close)

	first, err := b.reserve(entity.Profile{Name: "baseline"})
	require.NoError(t, err)
	again, err := b.reserve(entity.Profile{Name: "baseline"})
	require.NoError(t, err)
	other, err := b.reserve(entity.Profile{Name: "ublock"})
	require.NoError(t, err)

	assert.Same(t, first, again)
	assert.NotSame(t, first, other)
}

func TestAllocatorOptionsLoadExtension(t *testing.T) {
	b := NewBackend(config.BrowserConfig{Headless: true}, zap.NewNop())
	base := len(b.allocatorOptions(entity.Profile{Name: "baseline"}))
	withExt := len(b.allocatorOptions(entity.Profile{Name: "ublock", ExtensionPath: "/ext/ublock"}))
	assert.Equal(t, base+3, withExt)
}

func TestProfileBrowserOrigins(t *testing.T) {
	pb := &profileBrowser{origins: make(map[string]struct{})}
	pb.rememberOrigin("https://example.com")
	pb.rememberOrigin("https://example.com")
	pb.rememberOrigin("null")
	pb.rememberOrigin("")

	assert.Equal(t, []string{"https://example.com"}, pb.takeOrigins())
	assert.Empty(t, pb.takeOrigins())
}

func TestBrowserCookie(t *testing.T) {
	persistent := browserCookie(&network.Cookie{
		Name:     "_ga",
		Value:    "GA1.2.3",
		Domain:   ".example.com",
		Path:     "/",
		Expires:  1767225600.5,
		Secure:   true,
		SameSite: network.CookieSameSiteLax,
	})
	assert.Equal(t, time.Unix(1767225600, 5e8).UTC(), persistent.Expires)
	assert.Equal(t, "Lax", persistent.SameSite)
	assert.True(t, persistent.Secure)

	session := browserCookie(&network.Cookie{Name: "sid", Expires: -1, Session: true})
	assert.True(t, session.Expires.IsZero())
}

func TestResponseEvent(t *testing.T) {
	from := cdp.TimeSinceEpoch(time.Unix(1700000000, 0))
	ev := responseEvent(&network.EventResponseReceived{
		RequestID: "42.7",
		Type:      network.ResourceTypeXHR,
		Response: &network.Response{
			URL:      "https://api.example.com/v1",
			Status:   200,
			MimeType: "application/json",
			Headers:  network.Headers{"content-type": "application/json", "content-length": 12},
			SecurityDetails: &network.SecurityDetails{
				Protocol:    "TLS 1.3",
				SubjectName: "*.example.com",
				Issuer:      "R3",
				ValidFrom:   &from,
			},
		},
	})

	assert.Equal(t, "42.7", ev.RequestID)
	assert.Equal(t, entity.ResourceXHR, ev.ResourceType)
	assert.Equal(t, "12", ev.Headers["content-length"])
	require.NotNil(t, ev.Security)
	assert.Equal(t, "TLS 1.3", ev.Security.Protocol)
	require.NotNil(t, ev.Security.ValidFrom)
	assert.Equal(t, int64(1700000000), ev.Security.ValidFrom.Unix())
	assert.Nil(t, ev.Security.ValidTo)
}

func TestEventQueuePreservesOrder(t *testing.T) {
	var (
		mu   sync.Mutex
		got  []int
		done = make(chan struct{})
	)
	q := newEventQueue(func(item any) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, item.(int))
		if len(got) == 100 {
			close(done)
		}
	})
	for i := 0; i < 100; i++ {
		require.True(t, q.push(i))
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("queue did not drain")
	}
	q.close()
	assert.False(t, q.push(100))

	mu.Lock()
	defer mu.Unlock()
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestFetchedResponseKeepsRepeatedHeaders(t *testing.T) {
	resp := fetchedResponse(&fetch.EventRequestPaused{
		RequestID:          "interception-1",
		ResponseStatusCode: 200,
		ResponseHeaders: []*fetch.HeaderEntry{
			{Name: "Content-Type", Value: "application/json; charset=utf-8"},
			{Name: "Set-Cookie", Value: "a=1; Path=/"},
			{Name: "Set-Cookie", Value: "b=2; Path=/"},
		},
	})

	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, "application/json", resp.MimeType)
	assert.Equal(t, "a=1; Path=/\nb=2; Path=/", resp.Headers["Set-Cookie"])

	replayed := fulfillHeaders(resp)
	require.Len(t, replayed, 3)
	assert.Equal(t, "Set-Cookie", replayed[1].Name)
	assert.Equal(t, "a=1; Path=/", replayed[1].Value)
	assert.Equal(t, "b=2; Path=/", replayed[2].Value)
}

func TestFulfillHeadersFromFlattenedMap(t *testing.T) {
	replayed := fulfillHeaders(&entity.FetchedResponse{
		Headers: map[string]string{"X-B": "2", "Content-Type": "text/plain"},
	})
	require.Len(t, replayed, 2)
	assert.Equal(t, "Content-Type", replayed[0].Name)
	assert.Equal(t, "X-B", replayed[1].Name)
}

func TestFailedFulfillLeavesRouteForContinue(t *testing.T) {
	// A tab without a chromedp target makes every command fail.
	c := &Context{tabCtx: context.Background(), logger: zap.NewNop()}
	r := &route{c: c, id: "interception-1", req: entity.InterceptedRequest{URL: "https://api.example.com/v1"}}

	err := r.Fulfill(context.Background(), &entity.FetchedResponse{Status: 200})
	require.Error(t, err)
	assert.False(t, r.resolved.Load())

	// Continue must still try to release the request instead of
	// reporting success for a route nobody answered.
	assert.Error(t, r.Continue(context.Background()))
	assert.True(t, r.resolved.Load())
	assert.NoError(t, r.Continue(context.Background()))
}

func TestClearOriginsIncludesSiteOrigins(t *testing.T) {
	got := clearOrigins([]string{"https://example.com", "https://cdn.tracker.net"}, "www.example.com")
	assert.Equal(t, []string{
		"https://example.com",
		"https://www.example.com",
		"http://example.com",
		"http://www.example.com",
		"https://cdn.tracker.net",
	}, got)
	assert.Equal(t, []string{"https://a.test"}, clearOrigins([]string{"https://a.test"}, ""))
}

func TestEventQueueDrainWaitsForHeldWork(t *testing.T) {
	var (
		mu      sync.Mutex
		handled []int
	)
	gate := make(chan struct{})
	var q *eventQueue
	q = newEventQueue(func(item any) {
		n := item.(int)
		if n == 0 {
			q.hold()
			go func() {
				defer q.release()
				<-gate
				mu.Lock()
				handled = append(handled, -1)
				mu.Unlock()
			}()
		}
		mu.Lock()
		handled = append(handled, n)
		mu.Unlock()
	})
	defer q.close()
	for i := 0; i < 3; i++ {
		require.True(t, q.push(i))
	}

	short, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.drain(short), context.DeadlineExceeded)

	close(gate)
	require.NoError(t, q.drain(context.Background()))
	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []int{0, 1, 2, -1}, handled)
}

func TestEventQueueDrainReturnsOnClose(t *testing.T) {
	stuck := make(chan struct{})
	defer close(stuck)
	q := newEventQueue(func(any) { <-stuck })
	require.True(t, q.push(1))
	require.True(t, q.push(2))
	go func() {
		time.Sleep(10 * time.Millisecond)
		q.close()
	}()
	require.NoError(t, q.drain(context.Background()))
}
