package entity

import (
	"strconv"
	"time"
)

// ResultDocument is the persisted outcome of one (domain, profile) session.
// Visit-indexed maps are keyed by the decimal visit index.
type ResultDocument struct {
	Domain          string                      `json:"domain"`
	Profile         string                      `json:"profile"`
	Rank            int                         `json:"rank,omitempty"`
	Timestamp       time.Time                   `json:"timestamp"`
	NetworkData     map[string]VisitNetworkData `json:"network_data"`
	Statistics      NetworkStatistics           `json:"statistics"`
	Storage         StorageReport               `json:"storage"`
	Fingerprinting  FingerprintReport           `json:"fingerprinting"`
	Cookies         map[string][]CookieRecord   `json:"cookies"`
	Banner          map[string]BannerCapture    `json:"banner,omitempty"`
	CookieAnalysis  *CookieAnalysis             `json:"cookie_analysis,omitempty"`
	TrackerAnalysis *TrackerAnalysis            `json:"tracker_analysis,omitempty"`
}

// VisitKey renders a visit index as a document key.
func VisitKey(visit int) string { return strconv.Itoa(visit) }

// NewResultDocument returns a document with every visit map allocated.
func NewResultDocument(domain, profile string, ts time.Time) *ResultDocument {
	return &ResultDocument{
		Domain:      domain,
		Profile:     profile,
		Timestamp:   ts,
		NetworkData: make(map[string]VisitNetworkData),
		Statistics: NetworkStatistics{
			RequestTypes:     make(map[string]int),
			CookieOperations: make(map[string]CookieOperations),
		},
		Storage:        StorageReport{Visits: make(map[string]StorageSnapshot)},
		Fingerprinting: FingerprintReport{Visits: make(map[string]FingerprintVisitSummary)},
		Cookies:        make(map[string][]CookieRecord),
	}
}

// Empty reports whether the document holds no visit data.
func (d *ResultDocument) Empty() bool {
	return len(d.NetworkData) == 0 && len(d.Cookies) == 0
}
