// Package querycache keeps server reads keyed by name, decides when they are
// stale and fans out invalidations after successful mutations.
package querycache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/campusmarket-client/pkg/logger"
	"golang.org/x/sync/singleflight"
)

// Forever disables time based staleness; the entry lives until invalidated.
const Forever time.Duration = -1

type entry struct {
	value     any
	fetchedAt time.Time
	stale     bool
	version   uint64
}

type subscriber struct {
	id  uint64
	key Key
	fn  func(Key)
}

// Client is the process-wide query cache.
type Client struct {
	table InvalidationTable
	logg  *logger.Logger
	now   func() time.Time
	group singleflight.Group

	mu          sync.Mutex
	entries     map[Key]*entry
	invalidated map[Key]uint64
	inflight    map[Key]int
	subs        []subscriber
	nextSub     uint64
	version     uint64
}

// New builds a cache driven by table. A nil table uses DefaultInvalidations.
func New(table InvalidationTable, logg *logger.Logger) *Client {
	if table == nil {
		table = DefaultInvalidations()
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Client{
		table:       table,
		logg:        logg,
		now:         time.Now,
		entries:     make(map[Key]*entry),
		invalidated: make(map[Key]uint64),
		inflight:    make(map[Key]int),
	}
}

// Fetch returns the cached value for key while it is fresh, otherwise runs fn.
// Concurrent fetches of the same key share one call to fn.
func Fetch[T any](ctx context.Context, c *Client, key Key, staleTime time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if value, ok := c.fresh(key, staleTime); ok {
		typed, ok := value.(T)
		if ok {
			return typed, nil
		}
	}

	result, err, _ := c.group.Do(string(key), func() (any, error) {
		version := c.begin(key)
		defer c.end(key)
		value, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		c.store(key, value, version)
		return value, nil
	})
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("querycache: %s holds %T", key, result)
	}
	return typed, nil
}

func (c *Client) fresh(key Key, staleTime time.Duration) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.stale {
		return nil, false
	}
	if staleTime >= 0 && c.now().Sub(e.fetchedAt) >= staleTime {
		return nil, false
	}
	return e.value, true
}

func (c *Client) begin(key Key) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight[key]++
	return c.version
}

func (c *Client) end(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight[key] <= 1 {
		delete(c.inflight, key)
		return
	}
	c.inflight[key]--
}

// store saves a fetched value. If an invalidation touched the key while the
// fetch was running the value is kept but left stale, unless a newer fetch
// already stored its result.
func (c *Client) store(key Key, value any, startedAt uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.entries[key]; ok && cur.version > startedAt {
		return
	}
	stale := false
	for k, at := range c.invalidated {
		if at > startedAt && k.Covers(key) {
			stale = true
			break
		}
	}
	c.entries[key] = &entry{value: value, fetchedAt: c.now(), stale: stale, version: startedAt}
}

// Set seeds key with a value, as if it had just been fetched.
func (c *Client) Set(key Key, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry{value: value, fetchedAt: c.now(), version: c.version}
}

// Peek returns whatever is cached for key, fresh or not.
func (c *Client) Peek(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// IsStale reports whether key must be re-fetched on next read.
func (c *Client) IsStale(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return !ok || e.stale
}

// Invalidate marks keys (and their children) stale and notifies subscribers.
// Reads already in flight for those keys are not shared with later fetches.
func (c *Client) Invalidate(ctx context.Context, keys ...Key) {
	c.mu.Lock()
	c.version++
	for _, k := range keys {
		c.invalidated[k] = c.version
	}
	for running := range c.inflight {
		for _, k := range keys {
			if k.Covers(running) {
				c.group.Forget(string(running))
				break
			}
		}
	}
	for cached, e := range c.entries {
		for _, k := range keys {
			if k.Covers(cached) {
				e.stale = true
			}
		}
	}
	var notify []subscriber
	for _, s := range c.subs {
		for _, k := range keys {
			if k.Covers(s.key) {
				notify = append(notify, s)
				break
			}
		}
	}
	c.mu.Unlock()

	c.logg.Debug(c.logg.WithField(ctx, "keys", keys), "querycache.invalidate")
	for _, s := range notify {
		s.fn(s.key)
	}
}

// InvalidateFor applies the invalidation table entry for kind.
func (c *Client) InvalidateFor(ctx context.Context, kind MutationKind) {
	keys := c.table.KeysFor(kind)
	if len(keys) == 0 {
		return
	}
	c.Invalidate(ctx, keys...)
}

// Subscribe registers fn for invalidations covering key. The returned func
// removes the subscription.
func (c *Client) Subscribe(key Key, fn func(Key)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSub++
	id := c.nextSub
	c.subs = append(c.subs, subscriber{id: id, key: key, fn: fn})
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, s := range c.subs {
			if s.id == id {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

// Reset drops every entry and notifies every subscriber. It runs when the
// identity changes so one user's reads never leak into another's.
func (c *Client) Reset(ctx context.Context) {
	c.mu.Lock()
	keys := make([]Key, 0, len(c.entries)+len(c.subs))
	for k := range c.entries {
		keys = append(keys, k)
	}
	for _, s := range c.subs {
		keys = append(keys, s.key)
	}
	c.entries = make(map[Key]*entry)
	c.mu.Unlock()
	if len(keys) > 0 {
		c.Invalidate(ctx, keys...)
	}
}
