package entity

import "time"

type SessionStatus string

const (
	SessionSucceeded SessionStatus = "succeeded"
	SessionFailed    SessionStatus = "failed"
	SessionSkipped   SessionStatus = "skipped"
)

// SessionResult is the scheduler's record of a single session run.
type SessionResult struct {
	Domain   string        `json:"domain"`
	Profile  string        `json:"profile"`
	Status   SessionStatus `json:"status"`
	Reason   string        `json:"reason,omitempty"`
	Duration time.Duration `json:"duration"`
}

// ProfileCounts aggregates session outcomes for one profile.
type ProfileCounts struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// BatchReport is returned by the scheduler after a batch run.
type BatchReport struct {
	RunID      string                    `json:"run_id"`
	StartedAt  time.Time                 `json:"started_at"`
	FinishedAt time.Time                 `json:"finished_at"`
	Results    []SessionResult           `json:"results"`
	Profiles   map[string]*ProfileCounts `json:"profiles"`
}

// Add records a session result and updates the per-profile counters.
func (r *BatchReport) Add(res SessionResult) {
	if r.Profiles == nil {
		r.Profiles = make(map[string]*ProfileCounts)
	}
	counts, ok := r.Profiles[res.Profile]
	if !ok {
		counts = &ProfileCounts{}
		r.Profiles[res.Profile] = counts
	}
	switch res.Status {
	case SessionSucceeded:
		counts.Succeeded++
	case SessionFailed:
		counts.Failed++
	case SessionSkipped:
		counts.Skipped++
	}
	r.Results = append(r.Results, res)
}

// Totals sums the per-profile counters.
func (r *BatchReport) Totals() ProfileCounts {
	var total ProfileCounts
	for _, c := range r.Profiles {
		total.Succeeded += c.Succeeded
		total.Failed += c.Failed
		total.Skipped += c.Skipped
	}
	return total
}
