package symbols

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
)

// Well-known mints and their symbols. Every cache starts with these.
var knownSymbols = map[string]string{
	"So11111111111111111111111111111111111111112":  "SOL",
	"Es9vMFrzaCERWk5aZ8c9avH75CA1aE34zRHJfF5uX3bD": "USDT",
	"7XSgghYt92nA8AXtLxLqTTCFFuR1EK4gEG7mpyx3zWZp": "JUP",
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": "USDC",
	"WEmjxPMGXEW1Nvc4rCgRKiWHj1H1tvhPsKMw2yvpump":  "Digimon",
	// Legacy rows store a missing counter mint as the literal "None".
	"None": "",
}

// Cache maps mints to resolved display symbols. Implementations are safe for concurrent use.
type Cache interface {
	Get(mint string) (string, bool)
	Set(mint, symbol string)
}

// MapCache is an unbounded cache for short-lived processes such as the CLI.
type MapCache struct {
	mu      sync.RWMutex
	symbols map[string]string
}

// NewMapCache creates a MapCache seeded with the well-known mints.
func NewMapCache() *MapCache {
	c := &MapCache{symbols: make(map[string]string, len(knownSymbols))}
	for mint, symbol := range knownSymbols {
		c.symbols[mint] = symbol
	}
	return c
}

func (c *MapCache) Get(mint string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.symbols[mint]
	return s, ok
}

func (c *MapCache) Set(mint, symbol string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.symbols[mint] = symbol
}

// Len returns the number of cached entries.
func (c *MapCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.symbols)
}

// LRUCache bounds memory for the long-running server. Seeded entries are
// ordinary entries and can be evicted; they are re-derived on the next lookup.
type LRUCache struct {
	cache *lru.Cache
}

// NewLRUCache creates an LRU cache holding at most size entries.
func NewLRUCache(size int) (*LRUCache, error) {
	if size < len(knownSymbols) {
		size = len(knownSymbols)
	}
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	for mint, symbol := range knownSymbols {
		c.Add(mint, symbol)
	}
	return &LRUCache{cache: c}, nil
}

func (c *LRUCache) Get(mint string) (string, bool) {
	v, ok := c.cache.Get(mint)
	if !ok {
		return "", false
	}
	return v.(string), true
}

func (c *LRUCache) Set(mint, symbol string) {
	c.cache.Add(mint, symbol)
}

// Len returns the number of cached entries.
func (c *LRUCache) Len() int {
	return c.cache.Len()
}
