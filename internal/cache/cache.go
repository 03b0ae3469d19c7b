// Package cache implements the coordinate-to-area-code cache: an
// in-memory TTL view (github.com/patrickmn/go-cache) backed by a JSON
// file so repeated lookups of the same coordinate survive process
// restarts without re-querying the server.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/wip-client/wip/internal/logging"

	"github.com/cespare/xxhash/v2"
	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	cacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "wip",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Coordinate cache lookups that found a live entry.",
	})

	cacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "wip",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Coordinate cache lookups that found no live entry.",
	})
)

func init() {
	prometheus.MustRegister(cacheHitsTotal, cacheMissesTotal)
}

// Entry is one cached resolution, matching the JSON record kept on disk:
// a coordinate resolves to an area code at a point in time, and that
// mapping is considered stale after ttl elapses.
type Entry struct {
	AreaCode  uint32    `json:"area_code"`
	Timestamp time.Time `json:"timestamp"`
}

// Cache is safe for concurrent use. Entries live in the in-memory view;
// Set and Flush write that view out to the backing file.
type Cache struct {
	mu   sync.Mutex
	path string
	ttl  time.Duration
	live *gocache.Cache
	log  *logging.Logger
}

// Open loads path if it exists (a missing or corrupt file starts empty
// rather than failing, since the cache is a pure optimization) and
// returns a Cache with the given entry TTL.
func Open(path string, ttl time.Duration) (*Cache, error) {
	c := &Cache{
		path: path,
		ttl:  ttl,
		live: gocache.New(ttl, ttl/2),
		log:  logging.Default(),
	}
	if err := c.load(); err != nil {
		c.log.WithError(err).Warn("cache: starting empty after failed load")
	}
	return c, nil
}

func (c *Cache) load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("cache: reading %s: %w", c.path, err)
	}
	var raw map[string]Entry
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("cache: parsing %s: %w", c.path, err)
	}
	now := time.Now()
	for key, entry := range raw {
		remaining := c.ttl - now.Sub(entry.Timestamp)
		if remaining <= 0 {
			continue
		}
		c.live.Set(key, entry, remaining)
	}
	return nil
}

// fingerprint reduces a (latitude, longitude) pair to a stable cache key:
// the pair is formatted at six decimal places, hashed with xxhash, and the
// 64-bit digest rendered in hex is the key.
func fingerprint(latitude, longitude float64) string {
	h := xxhash.New()
	fmt.Fprintf(h, "%.6f,%.6f", latitude, longitude)
	return strconv.FormatUint(h.Sum64(), 16)
}

// Get returns the cached area code for (latitude, longitude), if present
// and not yet expired.
func (c *Cache) Get(latitude, longitude float64) (uint32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.live.Get(fingerprint(latitude, longitude))
	if !ok {
		cacheMissesTotal.Inc()
		return 0, false
	}
	cacheHitsTotal.Inc()
	return v.(Entry).AreaCode, true
}

// Set records that (latitude, longitude) resolves to areaCode as of now,
// then immediately persists the whole map: the protocol spec requires a
// write by one instance to be visible to a fresh instance pointed at the
// same file without an explicit flush step in between.
func (c *Cache) Set(latitude, longitude float64, areaCode uint32) {
	c.mu.Lock()
	c.live.Set(fingerprint(latitude, longitude), Entry{AreaCode: areaCode, Timestamp: time.Now()}, c.ttl)
	c.mu.Unlock()

	if err := c.flush(); err != nil {
		c.log.WithError(err).Warn("cache: failed to persist after set")
	}
}

// Len reports the number of live (non-expired) entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.live.Items())
}

// Clear empties the in-memory view and deletes the backing file.
func (c *Cache) Clear() error {
	c.mu.Lock()
	c.live.Flush()
	c.mu.Unlock()

	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cache: removing %s: %w", c.path, err)
	}
	return nil
}

// Flush writes the current in-memory view to disk. Set already persists
// on every mutation; Flush remains for callers (Client.Close, principally)
// that want an explicit, synchronous guarantee the file is up to date
// before they return.
func (c *Cache) Flush() error {
	return c.flush()
}

// flush writes the current in-memory view to disk, via a temp file plus
// rename so a crash mid-write never leaves a half-written cache file
// behind for the next load to choke on.
func (c *Cache) flush() error {
	c.mu.Lock()
	items := c.live.Items()
	raw := make(map[string]Entry, len(items))
	for key, item := range items {
		raw[key] = item.Object.(Entry)
	}
	c.mu.Unlock()

	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("cache: marshaling: %w", err)
	}

	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, ".cache-*.tmp")
	if err != nil {
		return fmt.Errorf("cache: creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("cache: writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cache: closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		return fmt.Errorf("cache: renaming temp file into place: %w", err)
	}
	return nil
}
