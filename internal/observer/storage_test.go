package observer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/trackscope/internal/browsertest"
	"github.com/user/trackscope/internal/entity"
)

func TestStorageObserverSnapshots(t *testing.T) {
	ctx := context.Background()
	b := browsertest.NewBackend()
	reads := 0
	b.Eval = func(expr string) (any, error) {
		if expr == storageScript {
			return nil, nil
		}
		reads++
		local := []map[string]string{{"key": "_ga", "value": "GA1.2.3"}}
		if reads > 1 {
			local = append(local, map[string]string{"key": "cart", "value": "é"})
		}
		return map[string]any{
			"url":           "https://www.example.com/shop",
			"local":         local,
			"session":       []map[string]string{{"key": "tab", "value": "1"}},
			"local_calls":   map[string]int{"get": 2, "set": reads},
			"session_calls": map[string]int{"clear": 1},
		}, nil
	}
	bc, err := b.Open(ctx, entity.Profile{Name: "baseline"})
	require.NoError(t, err)

	obs := NewStorageObserver()
	unsub, err := obs.Attach(ctx, bc, 0)
	require.NoError(t, err)
	defer unsub()
	assert.Contains(t, bc.(*browsertest.Context).InitScripts()[0], "__trackscopeStorage")

	_, err = obs.Snapshot(ctx, bc, 0)
	require.NoError(t, err)
	snap, err := obs.Snapshot(ctx, bc, 0)
	require.NoError(t, err)
	assert.Len(t, snap.LocalStorage, 2)
	assert.Equal(t, "www.example.com", snap.Meta.Domain)
	assert.Equal(t, 2*(4+1), snap.LocalStorage[1].Size)

	_, err = obs.Snapshot(ctx, bc, 1)
	require.NoError(t, err)

	doc := entity.NewResultDocument("example.com", "baseline", time.Now())
	obs.Contribute(doc)
	require.Len(t, doc.Storage.Visits, 2)
	assert.Len(t, doc.Storage.Visits["0"].LocalStorage, 2, "second snapshot of a visit replaces the first")

	st := doc.Storage.Stats
	assert.Equal(t, 4, st.LocalStorageCount)
	assert.Equal(t, 2, st.SessionStorageCount)
	assert.Equal(t, 3, st.UniqueItems)
	assert.Equal(t, 2, st.VisitsWithStorage)
	assert.Equal(t, entity.StorageCounters{Get: 4, Set: 5, Clear: 2}, st.Calls)
	assert.Equal(t, 2*(2*(3+7)+2*(4+1)+2*(3+1)), st.TotalBytes)
}

func TestStorageSizeCountsUTF16Units(t *testing.T) {
	assert.Equal(t, 4, storageSize("a", "b"))
	assert.Equal(t, 2*(1+2), storageSize("k", "😀"))
}
