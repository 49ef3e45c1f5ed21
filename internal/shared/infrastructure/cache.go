package infrastructure

import (
	"sync"
	"time"
)

// CacheEntry représente une entrée de cache avec expiration
type CacheEntry[V any] struct {
	Value      V
	Expiration time.Time
}

// IsExpired vérifie si l'entrée est expirée à l'instant now
func (e CacheEntry[V]) IsExpired(now time.Time) bool {
	return now.After(e.Expiration)
}

// Cache interface pour l'abstraction du cache (utilisé pour les jetons vérifiés)
type Cache[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V, ttl time.Duration)
	Delete(key string)
	Len() int
}

// InMemoryCache implémentation en mémoire du cache avec TTL
type InMemoryCache[V any] struct {
	mu      sync.RWMutex
	entries map[string]CacheEntry[V]
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

// NewInMemoryCache crée un cache et lance le nettoyage périodique (arrêté par Close)
func NewInMemoryCache[V any](cleanupInterval time.Duration) *InMemoryCache[V] {
	cache := &InMemoryCache[V]{
		entries: make(map[string]CacheEntry[V]),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go cache.cleanupExpired(cleanupInterval)
	}
	return cache
}

// Get récupère une valeur non expirée
func (c *InMemoryCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero V
	entry, exists := c.entries[key]
	if !exists || entry.IsExpired(c.now()) {
		return zero, false
	}
	return entry.Value, true
}

// Set ajoute ou met à jour une valeur. Un ttl <= 0 n'enregistre rien.
func (c *InMemoryCache[V]) Set(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = CacheEntry[V]{
		Value:      value,
		Expiration: c.now().Add(ttl),
	}
}

// Delete supprime une entrée du cache
func (c *InMemoryCache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Len retourne le nombre d'entrées, expirées comprises tant que le nettoyage n'est pas passé
func (c *InMemoryCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close arrête la goroutine de nettoyage
func (c *InMemoryCache[V]) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *InMemoryCache[V]) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.purge()
		}
	}
}

func (c *InMemoryCache[V]) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, entry := range c.entries {
		if entry.IsExpired(now) {
			delete(c.entries, key)
		}
	}
}

// ShardedCache cache avec sharding pour réduire la contention
// (chaque requête authentifiée fait un Get sur le cache des jetons)
type ShardedCache[V any] struct {
	shards    []*InMemoryCache[V]
	shardMask uint32
}

// NewShardedCache crée un cache avec shardCount shards (puissance de 2)
func NewShardedCache[V any](shardCount int, cleanupInterval time.Duration) *ShardedCache[V] {
	if shardCount <= 0 || (shardCount&(shardCount-1)) != 0 {
		panic("shardCount must be a power of 2")
	}

	shards := make([]*InMemoryCache[V], shardCount)
	for i := range shards {
		shards[i] = NewInMemoryCache[V](cleanupInterval)
	}
	return &ShardedCache[V]{
		shards:    shards,
		shardMask: uint32(shardCount - 1),
	}
}

func (sc *ShardedCache[V]) getShard(key string) *InMemoryCache[V] {
	return sc.shards[fnv32(key)&sc.shardMask]
}

func (sc *ShardedCache[V]) Get(key string) (V, bool) {
	return sc.getShard(key).Get(key)
}

func (sc *ShardedCache[V]) Set(key string, value V, ttl time.Duration) {
	sc.getShard(key).Set(key, value, ttl)
}

func (sc *ShardedCache[V]) Delete(key string) {
	sc.getShard(key).Delete(key)
}

func (sc *ShardedCache[V]) Len() int {
	n := 0
	for _, shard := range sc.shards {
		n += shard.Len()
	}
	return n
}

// Close arrête le nettoyage de tous les shards
func (sc *ShardedCache[V]) Close() {
	for _, shard := range sc.shards {
		shard.Close()
	}
}

// fnv32 calcule un hash FNV-1a 32-bit pour le sharding
func fnv32(key string) uint32 {
	hash := uint32(2166136261)
	const prime32 = uint32(16777619)
	for i := 0; i < len(key); i++ {
		hash ^= uint32(key[i])
		hash *= prime32
	}
	return hash
}
