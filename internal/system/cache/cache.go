/*
 * Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

// Package cache provides an in-memory LRU cache with entry expiry.
package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/asgardeo/dagserde/internal/system/log"
)

const loggerComponentName = "InMemoryCache"

// CacheKey identifies a cache entry.
type CacheKey struct {
	Key string
}

// ToString returns the string form of the key.
func (k CacheKey) ToString() string {
	return k.Key
}

// CacheStat holds the statistics of a cache.
type CacheStat struct {
	Enabled    bool
	Size       int
	MaxSize    int
	HitCount   int64
	MissCount  int64
	HitRate    float64
	EvictCount int64
}

// CacheInterface defines the common interface for cache implementations.
type CacheInterface[T any] interface {
	Set(key CacheKey, value T) error
	Get(key CacheKey) (T, bool)
	Delete(key CacheKey) error
	Clear() error
	IsEnabled() bool
	GetStats() CacheStat
	CleanupExpired()
}

type cacheEntry[T any] struct {
	value       T
	expiryTime  time.Time
	listElement *list.Element
}

// InMemoryCache implements CacheInterface with least recently used eviction.
type InMemoryCache[T any] struct {
	enabled     bool
	cache       map[CacheKey]*cacheEntry[T]
	accessOrder *list.List
	mu          sync.Mutex
	size        int
	ttl         time.Duration
	now         func() time.Time
	hitCount    int64
	missCount   int64
	evictCount  int64
}

// NewInMemoryCache creates an LRU cache holding at most size entries, each living for ttl.
// A disabled cache accepts every call and stores nothing.
func NewInMemoryCache[T any](enabled bool, size int, ttl time.Duration) *InMemoryCache[T] {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName))
	if !enabled {
		logger.Debug("In-memory cache is disabled")
		return &InMemoryCache[T]{enabled: false}
	}

	logger.Debug("Initializing in-memory cache", log.Int("size", size), log.Any("ttl", ttl))
	return &InMemoryCache[T]{
		enabled:     true,
		cache:       make(map[CacheKey]*cacheEntry[T]),
		accessOrder: list.New(),
		size:        size,
		ttl:         ttl,
		now:         time.Now,
	}
}

// Set adds or updates an entry in the cache.
func (c *InMemoryCache[T]) Set(key CacheKey, value T) error {
	if !c.enabled {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	expiryTime := c.now().Add(c.ttl)
	if existing, exists := c.cache[key]; exists {
		existing.value = value
		existing.expiryTime = expiryTime
		c.accessOrder.MoveToFront(existing.listElement)
		return nil
	}

	c.cache[key] = &cacheEntry[T]{
		value:       value,
		expiryTime:  expiryTime,
		listElement: c.accessOrder.PushFront(key),
	}
	if len(c.cache) > c.size {
		c.evictOldest()
	}
	return nil
}

// Get retrieves a value from the cache.
func (c *InMemoryCache[T]) Get(key CacheKey) (T, bool) {
	var zero T
	if !c.enabled {
		return zero, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.cache[key]
	if !exists {
		c.missCount++
		return zero, false
	}
	if c.now().After(entry.expiryTime) {
		c.deleteEntry(key, entry)
		c.missCount++
		return zero, false
	}

	c.accessOrder.MoveToFront(entry.listElement)
	c.hitCount++
	return entry.value, true
}

// Delete removes an entry from the cache.
func (c *InMemoryCache[T]) Delete(key CacheKey) error {
	if !c.enabled {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, exists := c.cache[key]; exists {
		c.deleteEntry(key, entry)
	}
	return nil
}

// Clear removes all entries from the cache and resets its statistics.
func (c *InMemoryCache[T]) Clear() error {
	if !c.enabled {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[CacheKey]*cacheEntry[T])
	c.accessOrder.Init()
	c.hitCount = 0
	c.missCount = 0
	c.evictCount = 0
	return nil
}

// IsEnabled returns whether the cache is enabled.
func (c *InMemoryCache[T]) IsEnabled() bool {
	return c.enabled
}

// GetStats returns cache statistics.
func (c *InMemoryCache[T]) GetStats() CacheStat {
	if !c.enabled {
		return CacheStat{Enabled: false}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var hitRate float64
	if total := c.hitCount + c.missCount; total > 0 {
		hitRate = float64(c.hitCount) / float64(total)
	}
	return CacheStat{
		Enabled:    true,
		Size:       len(c.cache),
		MaxSize:    c.size,
		HitCount:   c.hitCount,
		MissCount:  c.missCount,
		HitRate:    hitRate,
		EvictCount: c.evictCount,
	}
}

// CleanupExpired removes all expired entries from the cache.
func (c *InMemoryCache[T]) CleanupExpired() {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.cache {
		if now.After(entry.expiryTime) {
			c.deleteEntry(key, entry)
		}
	}
}

// evictOldest removes the least recently used entry.
func (c *InMemoryCache[T]) evictOldest() {
	oldest := c.accessOrder.Back()
	if oldest == nil {
		return
	}
	key := oldest.Value.(CacheKey)
	if entry, exists := c.cache[key]; exists {
		c.deleteEntry(key, entry)
		c.evictCount++
		log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName)).
			Debug("Cache entry evicted", log.String("key", key.ToString()))
	}
}

func (c *InMemoryCache[T]) deleteEntry(key CacheKey, entry *cacheEntry[T]) {
	delete(c.cache, key)
	c.accessOrder.Remove(entry.listElement)
}
