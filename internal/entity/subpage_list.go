package entity

import "time"

// SubpageList is the pre-collected list of subpages crawled for a domain.
type SubpageList struct {
	Domain      string    `json:"domain"`
	Pages       []string  `json:"pages"`
	Count       int       `json:"count"`
	CollectedAt time.Time `json:"collected_at"`
}
