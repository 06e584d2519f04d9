package engine

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/username/moneydesk/backend/src/logger"
	"github.com/username/moneydesk/backend/src/models"
	"golang.org/x/crypto/blake2b"
)

var cacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "moneydesk_filter_cache_lookups_total",
	Help: "Filter result cache lookups",
}, []string{"outcome"})

// EvalFunc is the computation the cache wraps.
type EvalFunc func(ctx context.Context, records []*models.TransactionRecord, spec models.FilterSpec, onProgress Progress) ([]*models.TransactionRecord, error)

type cacheEntry struct {
	result     []*models.TransactionRecord
	computedAt time.Time
}

// ResultCache memoizes filter results by structural spec key. A stored entry
// is only reused when its key matches the most-recently-computed one; the
// cache answers "same query as last time", not "any query ever seen". Entries
// expire after a TTL and eviction follows insertion order, not access order.
// The cache cannot see collection mutations; callers must Invalidate on every
// add/update/delete.
type ResultCache struct {
	mu       sync.Mutex
	eval     EvalFunc
	ttl      time.Duration
	capacity int
	entries  map[string]cacheEntry
	order    []string
	lastKey  string
	now      func() time.Time
}

func NewResultCache(eval EvalFunc, ttl time.Duration, capacity int) *ResultCache {
	if capacity < 1 {
		capacity = 10
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &ResultCache{
		eval:     eval,
		ttl:      ttl,
		capacity: capacity,
		entries:  make(map[string]cacheEntry),
		now:      time.Now,
	}
}

// SpecKey derives the structural cache key: a hash over the four spec fields,
// so two specs with equal fields always collide on purpose.
func SpecKey(spec models.FilterSpec) string {
	payload := fmt.Sprintf("%s|%s|%s|%s", spec.StartDate, spec.EndDate, spec.Status, spec.SearchText)
	sum := blake2b.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:16])
}

// Get returns the cached result for spec when it is fresh and was the last
// query computed; otherwise it runs the wrapped evaluation and stores the
// result.
func (c *ResultCache) Get(ctx context.Context, records []*models.TransactionRecord, spec models.FilterSpec, onProgress Progress) ([]*models.TransactionRecord, error) {
	key := SpecKey(spec)

	c.mu.Lock()
	if key == c.lastKey {
		if entry, ok := c.entries[key]; ok && c.now().Sub(entry.computedAt) < c.ttl {
			c.mu.Unlock()
			cacheLookupsTotal.WithLabelValues("hit").Inc()
			logger.L.Debug("Filter cache hit", "key", key)
			return entry.result, nil
		}
	}
	c.mu.Unlock()
	cacheLookupsTotal.WithLabelValues("miss").Inc()

	result, err := c.eval(ctx, records, spec, onProgress)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = cacheEntry{result: result, computedAt: c.now()}
	c.lastKey = key
	for len(c.order) > c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.mu.Unlock()

	return result, nil
}

// Invalidate drops every entry. Must be called after any mutation of the
// record collection.
func (c *ResultCache) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.order = nil
	c.lastKey = ""
	c.mu.Unlock()
}
