package entity

import "time"

// Resource types as reported for intercepted requests.
const (
	ResourceDocument = "document"
	ResourceScript   = "script"
	ResourceXHR      = "xhr"
	ResourceFetch    = "fetch"
	ResourceOther    = "other"
)

// PageLoad is one navigation attempt within a visit. Exactly one of Final
// and Error is set.
type PageLoad struct {
	Original string `json:"original"`
	Final    string `json:"final,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (p PageLoad) Failed() bool { return p.Error != "" }

type SecurityInfo struct {
	Protocol    string     `json:"protocol,omitempty"`
	SubjectName string     `json:"subject_name,omitempty"`
	Issuer      string     `json:"issuer,omitempty"`
	ValidFrom   *time.Time `json:"valid_from,omitempty"`
	ValidTo     *time.Time `json:"valid_to,omitempty"`
}

type ResponseInfo struct {
	Status   int               `json:"status"`
	Headers  map[string]string `json:"headers,omitempty"`
	MimeType string            `json:"mime_type,omitempty"`
	Security *SecurityInfo     `json:"security,omitempty"`
	Body     string            `json:"body,omitempty"`
}

// NetworkRequest is a single intercepted request of a visit.
type NetworkRequest struct {
	ID           string            `json:"id,omitempty"`
	URL          string            `json:"url"`
	Domain       string            `json:"domain"`
	Method       string            `json:"method"`
	ResourceType string            `json:"resource_type"`
	Headers      map[string]string `json:"headers,omitempty"`
	HasPostData  bool              `json:"post_data,omitempty"`
	PageURL      string            `json:"page_url,omitempty"`
	IsNavigation bool              `json:"is_navigation"`
	ThirdParty   bool              `json:"third_party"`
	Timestamp    time.Time         `json:"timestamp"`
	Visit        int               `json:"visit"`
	Response     *ResponseInfo     `json:"response,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// VisitNetworkData is the network_data entry of one visit.
type VisitNetworkData struct {
	Requests         []NetworkRequest `json:"requests"`
	DomainsContacted []string         `json:"domains_contacted"`
	VisitedURLs      []PageLoad       `json:"visited_urls"`
}

// CookieOperations counts cookie mutations observed between load events.
type CookieOperations struct {
	Created     int `json:"created"`
	Deleted     int `json:"deleted"`
	Modified    int `json:"modified"`
	TotalUnique int `json:"total_unique"`
}

type NetworkStatistics struct {
	TotalRequests    int                         `json:"total_requests"`
	TotalCookies     int                         `json:"total_cookies"`
	RequestTypes     map[string]int              `json:"request_types"`
	CookieOperations map[string]CookieOperations `json:"cookie_operations"`
}
