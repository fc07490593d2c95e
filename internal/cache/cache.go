package cache

import (
	"context"
	"sync"
	"time"

	"companion-gateway/internal/core"
)

// LRUCache is a thread-safe LRU cache with per-item expiration.
type LRUCache struct {
	capacity int
	items    map[string]*cacheItem
	mu       sync.RWMutex
	head     *cacheItem
	tail     *cacheItem
	ctx      context.Context
	cancel   context.CancelFunc
}

type cacheItem struct {
	value      any
	expiration int64
	key        string
	prev       *cacheItem
	next       *cacheItem
}

// NewCache creates a new LRU cache with a background expiry sweeper.
func NewCache() *LRUCache {
	ctx, cancel := context.WithCancel(context.Background())
	c := &LRUCache{
		capacity: core.CacheDefaultCapacity,
		items:    make(map[string]*cacheItem),
		ctx:      ctx,
		cancel:   cancel,
	}

	// sentinel nodes
	c.head = &cacheItem{}
	c.tail = &cacheItem{}
	c.head.next = c.tail
	c.tail.prev = c.head

	go c.sweepLoop()
	return c
}

func (c *LRUCache) sweepLoop() {
	ticker := time.NewTicker(core.CacheCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweepExpired()
		case <-c.ctx.Done():
			return
		}
	}
}

// Stop terminates the background sweeper goroutine.
func (c *LRUCache) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
}

// Set adds an item to the cache, replacing any existing item.
func (c *LRUCache) Set(key string, value any, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if item, exists := c.items[key]; exists {
		item.value = value
		item.expiration = time.Now().Add(duration).UnixNano()
		c.moveToFront(item)
		return
	}

	item := &cacheItem{
		value:      value,
		expiration: time.Now().Add(duration).UnixNano(),
		key:        key,
	}

	c.addToFront(item)
	c.items[key] = item

	if len(c.items) > c.capacity {
		c.evict()
	}
}

// Get returns the cached value and whether the key was found. Expired items
// are removed eagerly so stale catalogs never leave the cache.
func (c *LRUCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, found := c.items[key]
	if !found {
		return nil, false
	}

	if time.Now().UnixNano() > item.expiration {
		c.unlink(item)
		delete(c.items, key)
		return nil, false
	}

	c.moveToFront(item)
	return item.value, true
}

// Delete removes a key from the cache if present.
func (c *LRUCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if item, found := c.items[key]; found {
		c.unlink(item)
		delete(c.items, key)
	}
}

func (c *LRUCache) addToFront(item *cacheItem) {
	item.next = c.head.next
	item.prev = c.head
	c.head.next.prev = item
	c.head.next = item
}

func (c *LRUCache) moveToFront(item *cacheItem) {
	c.unlink(item)
	c.addToFront(item)
}

func (c *LRUCache) unlink(item *cacheItem) {
	item.prev.next = item.next
	item.next.prev = item.prev
}

func (c *LRUCache) evict() {
	if c.tail.prev == c.head {
		return
	}

	item := c.tail.prev
	c.unlink(item)
	delete(c.items, item.key)
}

func (c *LRUCache) sweepExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UnixNano()
	for key, item := range c.items {
		if now > item.expiration {
			c.unlink(item)
			delete(c.items, key)
		}
	}
}

// CatalogEntry is a cached provider catalog response: the raw JSON bytes as
// the upstream sent them, so a cache hit is byte-identical to a relay.
type CatalogEntry struct {
	Body        []byte
	ContentType string
}

// CacheService caches the stable provider catalogs (VOICEVOX speakers,
// Nijivoice voice actors). Synthesis and text generation are never cached.
type CacheService struct {
	catalogs *LRUCache
}

// NewCacheService creates a new cache service.
func NewCacheService() *CacheService {
	return &CacheService{
		catalogs: NewCache(),
	}
}

// CatalogKey builds the cache key for a provider catalog.
func CatalogKey(provider, catalog string) string {
	return provider + ":" + catalog
}

// GetCatalog returns a cached catalog response.
func (cs *CacheService) GetCatalog(key string) (CatalogEntry, bool) {
	cached, found := cs.catalogs.Get(key)
	if !found {
		return CatalogEntry{}, false
	}
	entry, ok := cached.(CatalogEntry)
	if !ok {
		return CatalogEntry{}, false
	}
	// copy so callers cannot mutate the cached bytes
	body := make([]byte, len(entry.Body))
	copy(body, entry.Body)
	return CatalogEntry{Body: body, ContentType: entry.ContentType}, true
}

// SetCatalog caches a catalog response for the standard catalog TTL.
func (cs *CacheService) SetCatalog(key string, entry CatalogEntry) {
	body := make([]byte, len(entry.Body))
	copy(body, entry.Body)
	cs.catalogs.Set(key, CatalogEntry{Body: body, ContentType: entry.ContentType}, core.CatalogCacheTTL)
}

// InvalidateCatalog drops a cached catalog.
func (cs *CacheService) InvalidateCatalog(key string) {
	cs.catalogs.Delete(key)
}

// Get implements the core.Cache interface.
func (cs *CacheService) Get(key string) (any, bool) {
	return cs.catalogs.Get(key)
}

// Set implements the core.Cache interface.
func (cs *CacheService) Set(key string, value any, duration time.Duration) {
	cs.catalogs.Set(key, value, duration)
}

// Stop implements the core.Cache interface.
func (cs *CacheService) Stop() {
	_ = cs.Close()
}

// Close shuts down all caches.
func (cs *CacheService) Close() error {
	cs.catalogs.Stop()
	return nil
}

// compile-time interface checks
var _ core.Cache = (*LRUCache)(nil)
var _ core.Cache = (*CacheService)(nil)
