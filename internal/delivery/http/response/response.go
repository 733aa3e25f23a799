package response

import (
	"time"

	"github.com/user/trackscope/internal/entity"
)

type SubmitCrawlResponse struct {
	Status         string `json:"status"`
	Message        string `json:"message"`
	CrawlRequestID string `json:"crawl_request_id"`
}

// CrawlStatusResponse is a DTO for crawl status, mirroring entity.JobStatus
type CrawlStatusResponse struct {
	Domain             string     `json:"domain"`
	Profile            string     `json:"profile"`
	CurrentStatus      string     `json:"current_status"` // "pending", "completed", "failed"
	LastCrawlTimestamp *time.Time `json:"last_crawl_timestamp,omitempty"`
	FailureReason      string     `json:"failure_reason,omitempty"`
	RetryCount         int        `json:"retry_count,omitempty"`
}

type AnnotationResponse struct {
	Domain          string                  `json:"domain"`
	Profile         string                  `json:"profile"`
	CookieAnalysis  *entity.CookieAnalysis  `json:"cookie_analysis,omitempty"`
	TrackerAnalysis *entity.TrackerAnalysis `json:"tracker_analysis,omitempty"`
}
