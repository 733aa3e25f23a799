package entity

import "time"

type StorageItem struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Size  int    `json:"size"`
}

// StorageCounters counts Storage API calls since instrumentation began.
type StorageCounters struct {
	Get    int `json:"get"`
	Set    int `json:"set"`
	Remove int `json:"remove"`
	Clear  int `json:"clear"`
}

func (c StorageCounters) Add(o StorageCounters) StorageCounters {
	return StorageCounters{
		Get:    c.Get + o.Get,
		Set:    c.Set + o.Set,
		Remove: c.Remove + o.Remove,
		Clear:  c.Clear + o.Clear,
	}
}

func (c StorageCounters) Total() int { return c.Get + c.Set + c.Remove + c.Clear }

type StorageMeta struct {
	URL       string    `json:"url"`
	Domain    string    `json:"domain"`
	Timestamp time.Time `json:"timestamp"`
}

// StorageSnapshot is the storage state of one visit.
type StorageSnapshot struct {
	LocalStorage   []StorageItem   `json:"local_storage"`
	SessionStorage []StorageItem   `json:"session_storage"`
	LocalCalls     StorageCounters `json:"local_calls"`
	SessionCalls   StorageCounters `json:"session_calls"`
	Meta           StorageMeta     `json:"meta"`
}

type StorageStats struct {
	LocalStorageCount   int             `json:"local_storage_count"`
	SessionStorageCount int             `json:"session_storage_count"`
	UniqueItems         int             `json:"unique_items"`
	VisitsWithStorage   int             `json:"visits_with_storage"`
	TotalBytes          int             `json:"total_bytes"`
	Calls               StorageCounters `json:"calls"`
}

type StorageReport struct {
	Visits map[string]StorageSnapshot `json:"visits"`
	Stats  StorageStats               `json:"stats"`
}
