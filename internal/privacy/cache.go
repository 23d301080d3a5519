package privacy

import "math"

// Key identifies one memoized obfuscation result. Sensitivity is rounded to an
// integer class on purpose: nearly-equal sensitivities should reuse cache
// entries rather than produce independent noise draws. The bin distinguishes
// the structural role of a count (for example a top-level population count
// versus a stratified sub-count) so that equal raw counts in different roles
// never share a draw.
type Key struct {
	Sensitivity int
	Value       uint64
	Bin         int
}

// NewKey builds the composite cache key for a (sensitivity, value, bin)
// triple. Every caller must derive keys through this function so that
// identical triples always collide.
func NewKey(sensitivity float64, value uint64, bin int) Key {
	return Key{
		Sensitivity: int(math.Round(sensitivity)),
		Value:       value,
		Bin:         bin,
	}
}

// Cache memoizes obfuscated values per composite key so that repeated
// obfuscation of the same count within one run returns the same result.
//
// Values are signed because the document rewriter caches raw rounded
// perturbations, which may be negative, while the single-value path caches
// final non-negative counts.
//
// A Cache is not safe for concurrent use. The intended lifetime is one
// document or one process run; it is never persisted.
type Cache struct {
	entries map[Key]int64
}

// NewCache creates an empty obfuscation cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[Key]int64)}
}

// Lookup returns the memoized value for key, if present.
func (c *Cache) Lookup(key Key) (int64, bool) {
	v, ok := c.entries[key]
	return v, ok
}

// Store memoizes value under key. The first stored value wins: once a key is
// present it is never overwritten, so lookups stay stable for the life of the
// cache.
func (c *Cache) Store(key Key, value int64) {
	if _, ok := c.entries[key]; ok {
		return
	}
	c.entries[key] = value
}

// Len returns the number of memoized entries.
func (c *Cache) Len() int {
	return len(c.entries)
}
