package entity

import "time"

// TrackerVerdict classifies a single hostname.
type TrackerVerdict struct {
	Hostname        string   `json:"hostname"`
	IsDirectTracker bool     `json:"is_direct_tracker"`
	IsCloaked       bool     `json:"is_cloaked"`
	CNAMEChain      []string `json:"cname_chain,omitempty"`
	MatchedRule     string   `json:"matched_rule,omitempty"`
	FilterList      string   `json:"filter_list,omitempty"`
	Organization    string   `json:"organization,omitempty"`
}

func (v TrackerVerdict) IsTracker() bool { return v.IsDirectTracker || v.IsCloaked }

// TrackerAnalysis is appended to a result document by the annotator.
type TrackerAnalysis struct {
	TotalHosts    int              `json:"total_hosts"`
	TotalTracked  int              `json:"total_tracked"`
	Direct        int              `json:"direct"`
	Cloaked       int              `json:"cloaked"`
	Organizations map[string]int   `json:"organizations"`
	FilterLists   map[string]int   `json:"filter_lists"`
	CNAMECloaking []TrackerVerdict `json:"cname_cloaking"`
	Verdicts      []TrackerVerdict `json:"verdicts"`
	AnalyzedAt    time.Time        `json:"analyzed_at"`
}
