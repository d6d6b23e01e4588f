// Package store provides duplicate filtering and sqlite persistence for
// imported playlist songs.
package store

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DedupStore is a thread-safe seen-set for song seokeys, used to drop
// duplicate songs during playlist import. A Bloom filter front keeps
// the common not-seen case cheap; an LRU bounds memory by evicting the
// oldest seokeys once capacity is reached.
type DedupStore struct {
	seokeys           map[string]struct{}
	bloom             *bloom.BloomFilter
	lru               *lru.Cache[string, struct{}]
	mutex             sync.RWMutex
	maxEntries        int
	falsePositiveRate float64
}

// NewDedupStore creates a dedup store holding at most maxEntries
// seokeys, with the given Bloom filter false positive rate.
func NewDedupStore(maxEntries int, falsePositiveRate float64) *DedupStore {
	lruCache, _ := lru.New[string, struct{}](maxEntries)

	return &DedupStore{
		seokeys:           make(map[string]struct{}),
		bloom:             bloom.NewWithEstimates(uint(maxEntries), falsePositiveRate),
		lru:               lruCache,
		maxEntries:        maxEntries,
		falsePositiveRate: falsePositiveRate,
	}
}

// Seen reports whether the seokey was already added.
func (ds *DedupStore) Seen(seokey string) bool {
	ds.mutex.RLock()
	defer ds.mutex.RUnlock()

	if !ds.bloom.TestString(seokey) {
		return false
	}

	_, exists := ds.seokeys[seokey]
	return exists
}

// Add records a seokey, evicting the oldest entry when full.
func (ds *DedupStore) Add(seokey string) {
	ds.mutex.Lock()
	defer ds.mutex.Unlock()

	if _, exists := ds.seokeys[seokey]; exists {
		return
	}

	ds.seokeys[seokey] = struct{}{}
	ds.bloom.AddString(seokey)
	ds.lru.Add(seokey, struct{}{})

	if len(ds.seokeys) > ds.maxEntries {
		ds.evictOldest()
	}
}

// Size returns the number of seokeys currently stored.
func (ds *DedupStore) Size() int {
	ds.mutex.RLock()
	defer ds.mutex.RUnlock()
	return len(ds.seokeys)
}

// Clear empties the store. The Bloom filter is rebuilt since it does
// not support removal.
func (ds *DedupStore) Clear() {
	ds.mutex.Lock()
	defer ds.mutex.Unlock()

	ds.seokeys = make(map[string]struct{})
	ds.bloom = bloom.NewWithEstimates(uint(ds.maxEntries), ds.falsePositiveRate)
	ds.lru.Purge()
}

func (ds *DedupStore) evictOldest() {
	oldestKey, _, ok := ds.lru.GetOldest()
	if !ok {
		return
	}

	delete(ds.seokeys, oldestKey)
	ds.lru.Remove(oldestKey)
}
