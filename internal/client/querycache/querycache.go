// Package querycache holds the client's cached reads. Entries are addressed
// by typed keys so every mutation names exactly which reads it invalidates.
package querycache

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

type Kind string

const (
	KindOrgMemberSpaces Kind = "org_member_spaces"
	KindSpaceSettings   Kind = "space_settings"
	KindSpaceStatuses   Kind = "space_statuses"
	KindProfile         Kind = "profile"
	KindEntitlements    Kind = "entitlements"
)

// Key identifies one cached read.
type Key struct {
	Kind  Kind
	Org   string
	Space string
}

func (k Key) String() string {
	parts := []string{string(k.Kind)}
	if k.Org != "" {
		parts = append(parts, k.Org)
	}
	if k.Space != "" {
		parts = append(parts, k.Space)
	}
	return strings.Join(parts, ":")
}

func OrgMemberSpaces(org string) Key {
	return Key{Kind: KindOrgMemberSpaces, Org: org}
}

func SpaceSettings(org, space string) Key {
	return Key{Kind: KindSpaceSettings, Org: org, Space: space}
}

func SpaceStatuses(org, space string) Key {
	return Key{Kind: KindSpaceStatuses, Org: org, Space: space}
}

func Entitlements(org string) Key {
	return Key{Kind: KindEntitlements, Org: org}
}

func Profile() Key {
	return Key{Kind: KindProfile}
}

type Config struct {
	MaxBytes int
	TTL      time.Duration
	Clock    clockwork.Clock
}

type Stats struct {
	Hits          uint64
	Misses        uint64
	Invalidations uint64
}

type Cache struct {
	store *fastcache.Cache
	ttl   time.Duration
	clock clockwork.Clock
	group singleflight.Group

	mu    sync.Mutex
	gen   map[string]uint64
	stats Stats
}

func New(cfg Config) *Cache {
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 8 * 1024 * 1024
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Cache{
		store: fastcache.New(maxBytes),
		ttl:   cfg.TTL,
		clock: clock,
		gen:   make(map[string]uint64),
	}
}

// Get decodes the cached value for key into dst. It reports false on a miss
// or an expired entry.
func (c *Cache) Get(key Key, dst interface{}) bool {
	raw := c.store.GetBig(nil, []byte(key.String()))
	if len(raw) < 8 {
		c.count(func(s *Stats) { s.Misses++ })
		return false
	}

	expires := int64(binary.BigEndian.Uint64(raw[:8]))
	if expires != 0 && c.clock.Now().UnixNano() > expires {
		c.store.Del([]byte(key.String()))
		c.count(func(s *Stats) { s.Misses++ })
		return false
	}

	if err := json.Unmarshal(raw[8:], dst); err != nil {
		c.store.Del([]byte(key.String()))
		c.count(func(s *Stats) { s.Misses++ })
		return false
	}

	c.count(func(s *Stats) { s.Hits++ })
	return true
}

func (c *Cache) Set(key Key, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	var expires int64
	if c.ttl > 0 {
		expires = c.clock.Now().Add(c.ttl).UnixNano()
	}

	buf := make([]byte, 8+len(data))
	binary.BigEndian.PutUint64(buf[:8], uint64(expires))
	copy(buf[8:], data)
	c.store.SetBig([]byte(key.String()), buf)
	return nil
}

// Invalidate drops the given keys. A load for one of them that is in flight
// when Invalidate runs does not write its result back.
func (c *Cache) Invalidate(keys ...Key) {
	c.mu.Lock()
	for _, key := range keys {
		s := key.String()
		c.gen[s]++
		c.store.Del([]byte(s))
		c.stats.Invalidations++
	}
	c.mu.Unlock()
}

func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.gen {
		c.gen[k]++
	}
	c.store.Reset()
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Cache) count(fn func(*Stats)) {
	c.mu.Lock()
	fn(&c.stats)
	c.mu.Unlock()
}

func (c *Cache) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen[key]
}

// setIfCurrent stores value only while key is still at generation gen. The
// check and the write happen under mu, so a concurrent Invalidate either
// runs first and wins or runs after and deletes the entry.
func (c *Cache) setIfCurrent(key Key, gen uint64, value interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen[key.String()] != gen {
		return false, nil
	}
	return true, c.Set(key, value)
}

// Load returns the cached value for key, or calls fetch and caches its
// result. Concurrent loads of the same key share one fetch.
func Load[T any](ctx context.Context, c *Cache, key Key, fetch func(ctx context.Context) (T, error)) (T, error) {
	var cached T
	if c.Get(key, &cached) {
		return cached, nil
	}

	s := key.String()
	v, err, _ := c.group.Do(s, func() (interface{}, error) {
		gen := c.generation(s)

		value, err := fetch(ctx)
		if err != nil {
			return value, err
		}

		if _, err := c.setIfCurrent(key, gen, value); err != nil {
			return value, err
		}
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
