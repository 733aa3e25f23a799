package entity

import "time"

// Fingerprinting technique categories.
const (
	CategoryCanvas   = "canvas"
	CategoryWebGL    = "webgl"
	CategoryHardware = "hardware"
	CategoryAudio    = "audio"
	CategoryFonts    = "fonts"
	CategoryWebRTC   = "webrtc"
)

var FingerprintCategories = []string{
	CategoryCanvas, CategoryWebGL, CategoryHardware, CategoryAudio, CategoryFonts, CategoryWebRTC,
}

// FingerprintEvent is one instrumented API call reported by a page.
type FingerprintEvent struct {
	Category  string    `json:"category"`
	API       string    `json:"api"`
	Source    string    `json:"source,omitempty"`
	URL       string    `json:"url"`
	Timestamp time.Time `json:"timestamp"`
	Page      int       `json:"page"`
	Visit     int       `json:"visit"`
}

// PageFingerprint aggregates calls for one normalized page URL.
type PageFingerprint struct {
	APICounts            map[string]int `json:"api_counts"`
	CategoryCounts       map[string]int `json:"category_counts"`
	LikelyFingerprinting bool           `json:"likely_fingerprinting"`
}

type FingerprintVisitSummary struct {
	Visit                int                        `json:"visit"`
	TotalCalls           int                        `json:"total_calls"`
	PagesAnalyzed        int                        `json:"pages_analyzed"`
	CategoryTotals       map[string]int             `json:"category_totals"`
	TechniquesDetected   []string                   `json:"techniques_detected"`
	FingerprintingPages  []string                   `json:"fingerprinting_pages"`
	SuspiciousScripts    []string                   `json:"suspicious_scripts"`
	LikelyFingerprinting bool                       `json:"likely_fingerprinting"`
	Pages                map[string]PageFingerprint `json:"pages"`
}

// FingerprintSummary is the combined view across all visits.
type FingerprintSummary struct {
	TotalCalls           int                       `json:"total_calls"`
	PagesAnalyzed        int                       `json:"pages_analyzed"`
	CategoryTotals       map[string]int            `json:"category_totals"`
	TechniquesDetected   []string                  `json:"techniques_detected"`
	FingerprintingPages  []string                  `json:"fingerprinting_pages"`
	SuspiciousScripts    []string                  `json:"suspicious_scripts"`
	LikelyFingerprinting bool                      `json:"likely_fingerprinting"`
	VisitSummaries       []FingerprintVisitSummary `json:"visit_summaries"`
}

type FingerprintReport struct {
	Summary FingerprintSummary                 `json:"summary"`
	Visits  map[string]FingerprintVisitSummary `json:"visits"`
}
