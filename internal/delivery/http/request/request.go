package request

type SubmitCrawlRequest struct {
	Domain     string `json:"domain"`
	Profile    string `json:"profile"`
	ForceCrawl bool   `json:"force_crawl"`
}
