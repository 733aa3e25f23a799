package entity

import (
	"strings"
	"time"
)

// Backend-neutral browser events and payloads. Adapters translate their
// protocol types into these before handing them to observers.

// InterceptedRequest describes a request paused by the interception layer.
type InterceptedRequest struct {
	// Seq orders requests by the time the backend paused them.
	Seq          uint64
	ID           string
	URL          string
	Method       string
	ResourceType string
	Headers      map[string]string
	PostData     string
	HasPostData  bool
	IsNavigation bool
	FrameURL     string
}

// HeaderEntry is one header line. Repeated names, Set-Cookie above all,
// arrive as separate entries.
type HeaderEntry struct {
	Name  string
	Value string
}

// FetchedResponse is a response obtained while a request is paused.
// HeaderList holds the header lines as received and is what gets replayed
// to the page; Headers is the flattened form kept in the record.
type FetchedResponse struct {
	Status     int
	Headers    map[string]string
	HeaderList []HeaderEntry
	MimeType   string
	Body       []byte
}

// FlattenHeaders joins repeated header names. Set-Cookie values are joined
// with newlines, as the DevTools protocol reports them, others with ", ".
func FlattenHeaders(entries []HeaderEntry) map[string]string {
	out := make(map[string]string, len(entries))
	for _, h := range entries {
		prev, ok := out[h.Name]
		switch {
		case !ok:
			out[h.Name] = h.Value
		case strings.EqualFold(h.Name, "set-cookie"):
			out[h.Name] = prev + "\n" + h.Value
		default:
			out[h.Name] = prev + ", " + h.Value
		}
	}
	return out
}

// LoadEvent fires when the main frame finished loading.
type LoadEvent struct {
	URL string
}

// ResponseEvent fires for every response received by the page.
type ResponseEvent struct {
	RequestID    string
	URL          string
	Status       int
	Headers      map[string]string
	MimeType     string
	ResourceType string
	Security     *SecurityInfo
}

// BrowserCookie is a cookie as reported by the backend.
type BrowserCookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	Expires  time.Time // zero for session cookies
	Secure   bool
	HTTPOnly bool
	SameSite string
}
