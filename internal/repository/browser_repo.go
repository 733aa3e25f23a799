package repository

import (
	"context"

	"github.com/user/trackscope/internal/entity"
)

// Unsubscribe releases a registration made on a BrowsingContext. It is safe
// to call more than once.
type Unsubscribe func()

// BrowserBackend attaches to the browser behind a profile.
type BrowserBackend interface {
	// Open returns a new browsing context for the profile. Implementations
	// return ErrConcurrencyLimitExceeded when the backend refuses a session.
	Open(ctx context.Context, profile entity.Profile) (BrowsingContext, error)
}

// BrowsingContext is a single page of a profile's browser together with the
// cookie and storage state it shares with that browser.
type BrowsingContext interface {
	// Navigate loads url and returns the final URL after redirects.
	Navigate(ctx context.Context, url string) (string, error)
	CurrentURL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	Content(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)

	// Evaluate runs expression in the page and decodes its JSON result into out.
	Evaluate(ctx context.Context, expression string, out any) error
	// AddInitScript installs source so that it runs before any page script.
	AddInitScript(ctx context.Context, source string) (Unsubscribe, error)
	// Bind exposes a page-callable function; every call delivers its payload to fn.
	Bind(ctx context.Context, name string, fn func(payload string)) (Unsubscribe, error)
	// Route pauses every outgoing request and hands it to handler.
	Route(ctx context.Context, handler RouteHandler) (Unsubscribe, error)
	// Subscribe delivers *entity.LoadEvent and *entity.ResponseEvent values in
	// the order the backend emitted them.
	Subscribe(handler func(ev any)) Unsubscribe
	// Settle waits until events already emitted have been delivered to
	// subscribers, bindings and route handlers.
	Settle(ctx context.Context) error

	Cookies(ctx context.Context) ([]entity.BrowserCookie, error)
	// ClearState drops cookies, permissions and cache of the whole profile,
	// plus storage of every visited origin and of the origins of domain.
	ClearState(ctx context.Context, domain string) error
	// CloseExtraTabs closes every page except the one owned by this context.
	CloseExtraTabs(ctx context.Context) (int, error)
	// Close releases the pages of this context. The underlying profile
	// keeps its state.
	Close(ctx context.Context) error
}

// RouteHandler must resolve the route exactly once.
type RouteHandler func(ctx context.Context, route Route)

// Route is a paused request.
type Route interface {
	Request() entity.InterceptedRequest
	// Fetch performs the request and returns the response without
	// delivering it to the page.
	Fetch(ctx context.Context) (*entity.FetchedResponse, error)
	// Fulfill delivers resp to the page.
	Fulfill(ctx context.Context, resp *entity.FetchedResponse) error
	// Continue lets the request proceed unmodified.
	Continue(ctx context.Context) error
}
