package datatable

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/atomic"
)

// keySep joins the fragments of partition keys and memo keys. Column
// names and category values never contain it.
const keySep = "\x00"

// cacheCounters instruments the lazily built artifacts of one table so
// callers can observe when work is reused rather than recomputed.
type cacheCounters struct {
	groupHits   atomic.Int64
	groupBuilds atomic.Int64
	sortHits    atomic.Int64
	sortBuilds  atomic.Int64
	indexBuilds atomic.Int64
}

// CacheStats is a point-in-time snapshot of a table's cache activity.
type CacheStats struct {
	GroupByHits   int64
	GroupByBuilds int64
	SortByHits    int64
	SortByBuilds  int64
	IndexBuilds   int64
}

// CacheStats reports how often memoized group-by and sort-by results
// were served from cache, and how many results and indexes have been
// built for this table so far.
func (t *Table) CacheStats() CacheStats {
	return CacheStats{
		GroupByHits:   t.counters.groupHits.Load(),
		GroupByBuilds: t.counters.groupBuilds.Load(),
		SortByHits:    t.counters.sortHits.Load(),
		SortByBuilds:  t.counters.sortBuilds.Load(),
		IndexBuilds:   t.counters.indexBuilds.Load(),
	}
}

// memoKey builds a memo key from the exact operator arguments.
func memoKey(columns []string, suffix string) string {
	return strings.Join(columns, keySep) + keySep + suffix
}

// memoized returns the cached table for key or computes, publishes and
// returns it. Concurrent callers with the same key are collapsed into a
// single computation; the memo itself is safe for concurrent use, so the
// worst case is one build per distinct key.
func (t *Table) memoized(cache *lru.Cache[string, *Table], hits, builds *atomic.Int64, flightKey, key string, compute func() (*Table, error)) (*Table, error) {
	if cached, ok := cache.Get(key); ok {
		hits.Inc()
		return cached, nil
	}

	v, err, _ := t.flight.Do(flightKey, func() (interface{}, error) {
		// A racing caller may have published while we queued.
		if cached, ok := cache.Get(key); ok {
			hits.Inc()
			return cached, nil
		}
		nt, err := compute()
		if err != nil {
			return nil, err
		}
		cache.Add(key, nt)
		builds.Inc()
		return nt, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Table), nil
}
