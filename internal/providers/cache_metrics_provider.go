package providers

import "approachlog/internal/structures"

// InstrumentedCache reports every lookup of the record cache as a hit or a
// miss.
type InstrumentedCache struct {
	next    CacheProviderInterface
	metrics MetricsProviderInterface
}

func (c *InstrumentedCache) Get(id string) ([]byte, bool) {
	body, ok := c.next.Get(id)
	c.observe(ok)
	return body, ok
}

func (c *InstrumentedCache) observe(hit bool) {
	if hit {
		c.metrics.IncCacheHits()
		return
	}
	c.metrics.IncCacheMisses()
}

func (c *InstrumentedCache) Set(id string, body []byte) { c.next.Set(id, body) }
func (c *InstrumentedCache) Del(id string)              { c.next.Del(id) }
func (c *InstrumentedCache) Clear()                     { c.next.Clear() }

// NewInstrumentedCacheProvider builds the record cache used by the store.
// A disabled cache stays bare so it never reports misses.
func NewInstrumentedCacheProvider(conf *structures.Config, logger Logger, metrics MetricsProviderInterface) CacheProviderInterface {
	cache := NewCacheProvider(conf, logger)
	if _, disabled := cache.(*noopCache); disabled {
		return cache
	}
	return &InstrumentedCache{next: cache, metrics: metrics}
}
