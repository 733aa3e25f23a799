package entity

import (
	"strings"
	"time"
)

// CookieRecord is a cookie captured at the end of a visit.
type CookieRecord struct {
	Name     string     `json:"name"`
	Domain   string     `json:"domain"`
	Path     string     `json:"path"`
	Value    string     `json:"value"`
	Expires  *time.Time `json:"expires"`
	Created  time.Time  `json:"created"`
	Secure   bool       `json:"secure"`
	HTTPOnly bool       `json:"http_only"`
	SameSite string     `json:"same_site,omitempty"`
	Visit    int        `json:"visit"`
}

// Key identifies the cookie across visits.
func (c CookieRecord) Key() CookieKey {
	return CookieKey{Name: c.Name, Domain: NormalizeCookieDomain(c.Domain)}
}

func (c CookieRecord) IsSession() bool { return c.Expires == nil }

type CookieKey struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

func (k CookieKey) String() string { return k.Name + ":" + k.Domain }

// NormalizeCookieDomain lower-cases a cookie domain and strips the leading
// dot and a "www." prefix.
func NormalizeCookieDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	d = strings.TrimLeft(d, ".")
	return strings.TrimPrefix(d, "www.")
}

type CookieOutcome string

const (
	OutcomeTracking             CookieOutcome = "tracking"
	OutcomeNotTracking          CookieOutcome = "not_tracking"
	OutcomeInsufficientEvidence CookieOutcome = "insufficient_evidence"
)

type CriterionResult struct {
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// TrackingCookieVerdict is the classifier output for one cookie key.
type TrackingCookieVerdict struct {
	Name         string          `json:"name"`
	Domain       string          `json:"domain"`
	Observations int             `json:"observations"`
	Persistence  CriterionResult `json:"persistence"`
	Entropy      CriterionResult `json:"entropy"`
	Uniqueness   CriterionResult `json:"uniqueness"`
	Similarity   CriterionResult `json:"similarity"`
	Outcome      CookieOutcome   `json:"outcome"`
}

func (v TrackingCookieVerdict) IsTracking() bool { return v.Outcome == OutcomeTracking }

// CookieDefinition is an entry of the cookie definition database.
type CookieDefinition struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Script      string `json:"script,omitempty"`
	ScriptURL   string `json:"script_url,omitempty"`
	Description string `json:"description,omitempty"`
}

// CookieAnalysis is appended to a result document by the annotator.
type CookieAnalysis struct {
	TotalCookies      int                     `json:"total_cookies"`
	IdentifiedCookies int                     `json:"identified_cookies"`
	Categories        map[string]int          `json:"categories"`
	Scripts           map[string]int          `json:"scripts"`
	Verdicts          []TrackingCookieVerdict `json:"verdicts"`
	TrackingCookies   []string                `json:"tracking_cookies"`
	TrackingCount     int                     `json:"tracking_count"`
	AnalyzedAt        time.Time               `json:"analyzed_at"`
}
