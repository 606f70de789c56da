package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// localCache is a size-bounded LRU. Entries share one TTL (DefaultExpiration);
// per-call expirations shorter than that are tracked alongside the value.
type localCache struct {
	mu  sync.Mutex
	lru *expirable.LRU[string, lruEntry]
}

type lruEntry struct {
	value    interface{}
	deadline time.Time
}

// NewLocalCache 创建本地缓存
func NewLocalCache(config LocalConfig) Cache {
	size := config.MaxSize
	if size <= 0 {
		size = 1000
	}
	return &localCache{
		lru: expirable.NewLRU[string, lruEntry](size, nil, config.DefaultExpiration),
	}
}

func (lc *localCache) Get(ctx context.Context, key string) (interface{}, bool) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	e, ok := lc.live(key)
	if !ok {
		return nil, false
	}
	return e.value, true
}

func (lc *localCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.lru.Add(key, newEntry(value, expiration))
	return nil
}

func (lc *localCache) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	if _, ok := lc.live(key); ok {
		return false, nil
	}
	lc.lru.Add(key, newEntry(value, expiration))
	return true, nil
}

func (lc *localCache) Delete(ctx context.Context, key string) error {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.lru.Remove(key)
	return nil
}

func (lc *localCache) Exists(ctx context.Context, key string) bool {
	_, ok := lc.Get(ctx, key)
	return ok
}

func (lc *localCache) Close() error {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.lru.Purge()
	return nil
}

// live must be called with mu held.
func (lc *localCache) live(key string) (lruEntry, bool) {
	e, ok := lc.lru.Get(key)
	if !ok {
		return lruEntry{}, false
	}
	if !e.deadline.IsZero() && time.Now().After(e.deadline) {
		lc.lru.Remove(key)
		return lruEntry{}, false
	}
	return e, true
}

func newEntry(value interface{}, expiration time.Duration) lruEntry {
	e := lruEntry{value: value}
	if expiration > 0 {
		e.deadline = time.Now().Add(expiration)
	}
	return e
}
