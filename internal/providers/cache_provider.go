package providers

import (
	"approachlog/internal/structures"
	"math"

	"github.com/coocood/freecache"
)

// CacheProviderInterface caches encoded approach records by record id.
type CacheProviderInterface interface {
	Get(id string) ([]byte, bool)
	Set(id string, body []byte)
	Del(id string)
	Clear()
}

const recordKeyPrefix = "approach/"

// RecordCache keeps record bodies in a fixed-size freecache arena. Bodies
// larger than 1/1024 of the arena (records carrying inline photos) are not
// cached and are always read from the store.
type RecordCache struct {
	cache  *freecache.Cache
	ttl    int
	logger Logger
}

func NewCacheProvider(conf *structures.Config, logger Logger) CacheProviderInterface {
	c := conf.Cache
	if !c.Enabled || c.Size <= 0 {
		logger.Infof(TypeStore, "Record cache disabled")
		return &noopCache{}
	}

	ttl := 0
	if c.TTL > 0 {
		ttl = int(math.Ceil(c.TTL.Seconds()))
	}
	sizeBytes := c.Size * 1024 * 1024

	logger.Infof(TypeStore, "Record cache: %dMB, ttl=%ds, entries up to %d bytes", c.Size, ttl, sizeBytes/1024)

	return &RecordCache{
		cache:  freecache.NewCache(sizeBytes),
		ttl:    ttl,
		logger: logger,
	}
}

func recordKey(id string) []byte {
	return []byte(recordKeyPrefix + id)
}

func (c *RecordCache) Get(id string) ([]byte, bool) {
	body, err := c.cache.Get(recordKey(id))
	if err != nil {
		return nil, false
	}
	return body, true
}

func (c *RecordCache) Set(id string, body []byte) {
	if err := c.cache.Set(recordKey(id), body, c.ttl); err != nil {
		c.logger.Debugf(TypeStore, "Approach %s not cached (%d bytes): %s", id, len(body), err)
	}
}

func (c *RecordCache) Del(id string) {
	c.cache.Del(recordKey(id))
}

func (c *RecordCache) Clear() {
	c.cache.Clear()
}

type noopCache struct{}

func (n *noopCache) Get(_ string) ([]byte, bool) { return nil, false }
func (n *noopCache) Set(_ string, _ []byte)      {}
func (n *noopCache) Del(_ string)                {}
func (n *noopCache) Clear()                      {}
