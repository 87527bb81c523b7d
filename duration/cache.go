package duration

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Key identifies one version of a file: a rewritten file gets a new key.
type Key struct {
	Path    string
	ModTime int64 // UnixNano
}

// KeyFor stats path and returns its cache key.
func KeyFor(path string) (Key, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Key{}, err
	}
	if info.IsDir() {
		return Key{}, fmt.Errorf("%s is a directory", path)
	}
	return Key{Path: path, ModTime: info.ModTime().UnixNano()}, nil
}

func (k Key) String() string {
	return k.Path + "\x00" + strconv.FormatInt(k.ModTime, 10)
}

// Cache memoises durations per Key. Entries are written once and never
// replaced. Concurrent lookups of a missing key share a single computation.
type Cache struct {
	mu      sync.RWMutex
	entries map[Key]float64
	group   singleflight.Group
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[Key]float64)}
}

// Get returns the cached duration for k.
func (c *Cache) Get(k Key) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[k]
	return v, ok
}

// Put stores v under k unless k is already present. It reports whether v was stored.
func (c *Cache) Put(k Key, v float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[k]; ok {
		return false
	}
	c.entries[k] = v
	return true
}

// GetOrCompute returns the cached value for k, calling compute on a miss.
// The computed value is stored only when compute reports it as cacheable.
func (c *Cache) GetOrCompute(k Key, compute func() (float64, bool)) float64 {
	if v, ok := c.Get(k); ok {
		return v
	}
	v, _, _ := c.group.Do(k.String(), func() (interface{}, error) {
		if v, ok := c.Get(k); ok {
			return v, nil
		}
		v, cacheable := compute()
		if cacheable {
			c.Put(k, v)
		}
		return v, nil
	})
	return v.(float64)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
