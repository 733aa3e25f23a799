package entity

import (
	"fmt"
	"time"
)

// BannerCapture is the canonical capture of the first subpage of a visit.
type BannerCapture struct {
	Domain         string    `json:"domain"`
	Visit          int       `json:"visit"`
	Profile        string    `json:"profile"`
	URL            string    `json:"url"`
	Title          string    `json:"title"`
	Lang           string    `json:"lang,omitempty"`
	ScreenshotPath string    `json:"screenshot_path"`
	HTMLPath       string    `json:"html_path"`
	MetadataPath   string    `json:"metadata_path"`
	CapturedAt     time.Time `json:"captured_at"`
}

// BannerKey is the dedup key of a (domain, visit, profile) triple.
func BannerKey(domain string, visit int, profile string) string {
	return fmt.Sprintf("%s_%d_%s", domain, visit, profile)
}
