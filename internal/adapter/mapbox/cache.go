package mapbox

import (
	"container/list"
	"context"
	"fmt"
	"sync"

	"github.com/couchcryptid/aqi-monitor/internal/domain"
	"github.com/couchcryptid/aqi-monitor/internal/observability"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache. Sensors do
// not move, so after the first poll every lookup is a hit.
type CachedGeocoder struct {
	inner   domain.Geocoder
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

// ReverseGeocode serves coordinates from the cache, rounded to about 10 m.
func (c *CachedGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	key := fmt.Sprintf("%.4f,%.4f", lat, lon)
	if result, ok := c.cache.get(key); ok {
		c.metrics.GeocodeRequests.WithLabelValues("hit").Inc()
		return result, nil
	}
	c.metrics.GeocodeRequests.WithLabelValues("miss").Inc()
	result, err := c.inner.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		return result, err
	}
	// Only cache non-empty results so transient "not found" responses can be retried.
	if result.FormattedAddress != "" {
		c.cache.put(key, result)
	}
	return result, nil
}

// lruCache is a thread-safe LRU of geocoding results. Front is most recent.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	order      *list.List
	entries    map[string]*list.Element
}

type entry struct {
	key   string
	value domain.GeocodingResult
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		order:      list.New(),
		entries:    make(map[string]*list.Element),
	}
}

func (c *lruCache) get(key string) (domain.GeocodingResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return domain.GeocodingResult{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*entry).value, true
}

func (c *lruCache) put(key string, value domain.GeocodingResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*entry).value = value
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&entry{key: key, value: value})
	if c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*entry).key)
	}
}
