package entity

import "time"

// CrawlJob is one (domain, profile) unit of work.
type CrawlJob struct {
	ID          string    `json:"id"`
	Domain      string    `json:"domain"`
	Rank        int       `json:"rank,omitempty"`
	Profile     string    `json:"profile"`
	Force       bool      `json:"force,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// JobStatus describes where a (domain, profile) pair is in its lifecycle.
type JobStatus struct {
	Domain             string
	Profile            string
	CurrentStatus      string // "pending", "completed", "failed", "not_found"
	LastCrawlTimestamp *time.Time
	FailureReason      string
	RetryCount         int
}
