package querycache

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/patrickmn/go-cache"
	"go.mongodb.org/mongo-driver/bson"
)

// Cache stores read results keyed by a canonical serialization of the query
// filter. Entries never expire on their own: the repository clears the whole
// cache on every successful write, so lifecycle is explicit rather than
// time-based.
type Cache struct {
	store *cache.Cache
}

// New creates an empty query cache. Each repository instance owns its own
// cache so independent instances (e.g. in tests) never share state.
func New() *Cache {
	return &Cache{store: cache.New(cache.NoExpiration, 0)}
}

// Get returns the cached result sequence for a filter, if present.
func (c *Cache) Get(filter bson.M) ([]bson.M, bool) {
	v, found := c.store.Get(Key(filter))
	if !found {
		return nil, false
	}
	results, ok := v.([]bson.M)
	if !ok {
		return nil, false
	}
	return results, true
}

// Put stores (or overwrites) the result sequence for a filter.
func (c *Cache) Put(filter bson.M, results []bson.M) {
	c.store.Set(Key(filter), results, cache.NoExpiration)
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.store.Flush()
}

// ItemCount reports the number of cached entries.
func (c *Cache) ItemCount() int {
	return c.store.ItemCount()
}

// Key derives a canonical cache key for a filter: map keys are sorted at
// every nesting level, so key-reordered but equal filters share one entry,
// and a nil filter keys identically to an empty one.
func Key(filter bson.M) string {
	if len(filter) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%q:", k)
		b.WriteString(encodeValue(filter[k]))
	}
	b.WriteByte('}')
	return b.String()
}

// encodeValue serializes one filter value deterministically. Nested maps
// recurse through Key for sorted-key output; anything JSON cannot represent
// degrades to its %v text so caching never fails a read.
func encodeValue(v interface{}) string {
	switch t := v.(type) {
	case bson.M:
		return Key(t)
	case map[string]interface{}:
		return Key(bson.M(t))
	case bson.A:
		return encodeSlice(t)
	case []interface{}:
		return encodeSlice(t)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%q", fmt.Sprintf("%v", v))
	}
	return string(data)
}

func encodeSlice(items []interface{}) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = encodeValue(item)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
