package observer

import (
	"context"
	_ "embed"
	"fmt"
	"sync"
	"time"
	"unicode/utf16"

	"go.uber.org/zap"

	"github.com/user/trackscope/internal/entity"
	"github.com/user/trackscope/internal/repository"
	"github.com/user/trackscope/pkg/utils"
)

//go:embed scripts/storage.js
var storageScript string

//go:embed scripts/storage_snapshot.js
var storageSnapshotScript string

type rawStorageItem struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type rawStorageSnapshot struct {
	URL          string                 `json:"url"`
	Local        []rawStorageItem       `json:"local"`
	Session      []rawStorageItem       `json:"session"`
	LocalCalls   entity.StorageCounters `json:"local_calls"`
	SessionCalls entity.StorageCounters `json:"session_calls"`
}

// StorageObserver snapshots local and session storage together with the
// Storage API call counters of the instrumentation script.
type StorageObserver struct {
	opts options

	mu        sync.Mutex
	snapshots map[int]entity.StorageSnapshot
	now       func() time.Time
}

func NewStorageObserver(opts ...Option) *StorageObserver {
	return &StorageObserver{
		opts:      buildOptions(opts),
		snapshots: make(map[int]entity.StorageSnapshot),
		now:       time.Now,
	}
}

func (o *StorageObserver) Attach(ctx context.Context, bc repository.BrowsingContext, visit int) (repository.Unsubscribe, error) {
	return bc.AddInitScript(ctx, storageScript)
}

// Snapshot re-installs the instrumentation, which is a no-op when it is
// already present, and replaces the visit's snapshot with the current
// storage contents.
func (o *StorageObserver) Snapshot(ctx context.Context, bc repository.BrowsingContext, visit int) (entity.StorageSnapshot, error) {
	if err := bc.Evaluate(ctx, storageScript, nil); err != nil {
		return entity.StorageSnapshot{}, fmt.Errorf("install storage instrumentation: %w", err)
	}
	var raw rawStorageSnapshot
	if err := bc.Evaluate(ctx, storageSnapshotScript, &raw); err != nil {
		return entity.StorageSnapshot{}, fmt.Errorf("read storage: %w", err)
	}
	if raw.URL == "" {
		if u, err := bc.CurrentURL(ctx); err == nil {
			raw.URL = u
		}
	}

	snap := entity.StorageSnapshot{
		LocalStorage:   toStorageItems(raw.Local),
		SessionStorage: toStorageItems(raw.Session),
		LocalCalls:     raw.LocalCalls,
		SessionCalls:   raw.SessionCalls,
		Meta: entity.StorageMeta{
			URL:       raw.URL,
			Domain:    utils.NormalizeHost(raw.URL),
			Timestamp: o.now().UTC(),
		},
	}

	o.mu.Lock()
	o.snapshots[visit] = snap
	o.mu.Unlock()
	o.opts.logger.Debug("storage snapshot",
		zap.Int("visit", visit),
		zap.Int("local", len(snap.LocalStorage)),
		zap.Int("session", len(snap.SessionStorage)))
	return snap, nil
}

func (o *StorageObserver) Flush(ctx context.Context, bc repository.BrowsingContext, visit int) error {
	return nil
}

func (o *StorageObserver) Contribute(doc *entity.ResultDocument) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for visit, snap := range o.snapshots {
		doc.Storage.Visits[entity.VisitKey(visit)] = snap
	}
	doc.Storage.Stats = storageStats(o.snapshots)
}

func storageStats(snapshots map[int]entity.StorageSnapshot) entity.StorageStats {
	var st entity.StorageStats
	unique := make(map[string]struct{})
	for _, snap := range snapshots {
		st.LocalStorageCount += len(snap.LocalStorage)
		st.SessionStorageCount += len(snap.SessionStorage)
		if len(snap.LocalStorage)+len(snap.SessionStorage) > 0 {
			st.VisitsWithStorage++
		}
		for _, it := range snap.LocalStorage {
			unique["local:"+it.Key] = struct{}{}
			st.TotalBytes += it.Size
		}
		for _, it := range snap.SessionStorage {
			unique["session:"+it.Key] = struct{}{}
			st.TotalBytes += it.Size
		}
		st.Calls = st.Calls.Add(snap.LocalCalls).Add(snap.SessionCalls)
	}
	st.UniqueItems = len(unique)
	return st
}

func toStorageItems(raw []rawStorageItem) []entity.StorageItem {
	items := make([]entity.StorageItem, 0, len(raw))
	for _, r := range raw {
		items = append(items, entity.StorageItem{
			Key:   r.Key,
			Value: r.Value,
			Size:  storageSize(r.Key, r.Value),
		})
	}
	return items
}

// storageSize approximates the bytes a browser uses for an entry: UTF-16
// code units of key and value, two bytes each.
func storageSize(key, value string) int {
	return 2 * (len(utf16.Encode([]rune(key))) + len(utf16.Encode([]rune(value))))
}
