package environment

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitat/internal/api"
)

func storeRecord(id string) *Record {
	return New(id, "tmpl-1", "env-"+id, api.KindContainer, "u1", nil, api.ResourceShape{}, nil, false)
}

func TestMemoryStorePutGet(t *testing.T) {
	store := NewMemoryStore()

	record := storeRecord("a")
	require.NoError(t, store.Put(record))

	got, exists := store.Get("a")
	require.True(t, exists)
	assert.Same(t, record, got)

	_, exists = store.Get("missing")
	assert.False(t, exists)
}

func TestMemoryStoreRejectsInvalidPut(t *testing.T) {
	store := NewMemoryStore()

	assert.Error(t, store.Put(nil))
	assert.Error(t, store.Put(storeRecord("")))
}

func TestMemoryStoreIdNeverReused(t *testing.T) {
	store := NewMemoryStore()

	require.NoError(t, store.Put(storeRecord("a")))
	assert.Error(t, store.Put(storeRecord("a")), "duplicate id must be rejected")

	require.NoError(t, store.Delete("a"))
	assert.Error(t, store.Put(storeRecord("a")), "id must stay burned after deletion")
}

func TestMemoryStoreDeleteUnknown(t *testing.T) {
	store := NewMemoryStore()

	err := store.Delete("ghost")
	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))
}

func TestMemoryStoreList(t *testing.T) {
	store := NewMemoryStore()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Put(storeRecord(fmt.Sprintf("env-%d", i))))
	}

	records := store.List()
	assert.Len(t, records, 3)

	ids := make(map[string]bool)
	for _, record := range records {
		ids[record.ID()] = true
	}
	for i := 0; i < 3; i++ {
		assert.True(t, ids[fmt.Sprintf("env-%d", i)])
	}
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()

	done := make(chan bool, 2)
	go func() {
		for i := 0; i < 50; i++ {
			store.Put(storeRecord(fmt.Sprintf("c-%d", i)))
		}
		done <- true
	}()
	go func() {
		for i := 0; i < 50; i++ {
			store.List()
			store.Get("c-0")
		}
		done <- true
	}()
	<-done
	<-done

	assert.Len(t, store.List(), 50)
}
