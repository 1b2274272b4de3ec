package cache

import (
	"fmt"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/statebot/go-statebot/internal/metrics"
)

// #region constants

// DefaultCapacity bounds the number of retained fact-set entries. Keys
// evicted by the LRU are simply recomputed on their next miss.
const DefaultCapacity = 1024

// keySeparator joins sorted facts into a cache key. Facts containing the
// separator can collide; this is accepted rather than escaped.
const keySeparator = "|"

// #endregion constants

// #region entry

// Entry is an immutable memoized determination for one fact-set.
type Entry struct {
	State      string
	Confidence float64
	At         time.Time
}

// #endregion entry

// #region cache

// Cache memoizes determinations per fact-set. Entries expire lazily by age:
// an expired entry reads as a miss but stays in place until overwritten or
// evicted.
type Cache struct {
	entries *lru.Cache[string, Entry]
	expiry  time.Duration
	now     func() time.Time
}

// New creates a cache with the given entry lifetime and capacity.
func New(expiry time.Duration, capacity int) (*Cache, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	entries, err := lru.New[string, Entry](capacity)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &Cache{
		entries: entries,
		expiry:  expiry,
		now:     time.Now,
	}, nil
}

// SetClock overrides the time source. Tests only.
func (c *Cache) SetClock(now func() time.Time) {
	c.now = now
}

// #endregion cache

// #region key

// Key derives the canonical cache key for a fact list: lexicographic sort of
// a copy (fact order is deliberately irrelevant, duplicates preserved) joined
// by the separator.
func Key(facts []string) string {
	sorted := make([]string, len(facts))
	copy(sorted, facts)
	sort.Strings(sorted)
	return strings.Join(sorted, keySeparator)
}

// #endregion key

// #region get

// Get returns the live entry for the fact-set, if any. Expired entries are
// reported as misses and left in place.
func (c *Cache) Get(facts []string) (Entry, bool) {
	entry, ok := c.entries.Get(Key(facts))
	if !ok {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return Entry{}, false
	}
	if c.now().Sub(entry.At) >= c.expiry {
		metrics.CacheLookups.WithLabelValues("expired").Inc()
		return Entry{}, false
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return entry, true
}

// #endregion get

// #region put

// Put overwrites the entry for the fact-set with a fresh timestamp.
func (c *Cache) Put(facts []string, state string, confidence float64) {
	c.entries.Add(Key(facts), Entry{
		State:      state,
		Confidence: confidence,
		At:         c.now(),
	})
}

// #endregion put

// #region purge

// Purge drops every entry. Called on bot reset.
func (c *Cache) Purge() {
	c.entries.Purge()
}

// Len reports the number of retained entries, expired ones included.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// #endregion purge
