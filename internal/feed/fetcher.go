// Package feed implements the infinite-scroll fetching pattern shared by the
// product and publication listings.
package feed

import (
	"context"
	"sync"

	"github.com/angelmondragon/campusmarket-client/internal/querycache"
	pkgerrors "github.com/angelmondragon/campusmarket-client/pkg/errors"
	"github.com/angelmondragon/campusmarket-client/pkg/logger"
	"github.com/angelmondragon/campusmarket-client/pkg/metrics"
	"github.com/angelmondragon/campusmarket-client/pkg/pagination"
)

// Options configures a Fetcher.
type Options struct {
	Name     string
	PageSize int
	// Key is the cache key whose invalidation marks the feed stale.
	Key     querycache.Key
	Cache   *querycache.Client
	Metrics *metrics.FeedMetrics
	Logger  *logger.Logger
}

// Fetcher accumulates pages of a feed for one criteria at a time. Page
// fetches are strictly sequential; redundant calls while one is in flight
// are no-ops.
type Fetcher[T any] struct {
	name    string
	source  Source[T]
	limit   int
	metrics *metrics.FeedMetrics
	logg    *logger.Logger
	unsub   func()

	mu         sync.Mutex
	criteria   Criteria
	state      State
	items      []T
	hasMore    bool
	next       pagination.Continuation
	err        error
	stale      bool
	inFlight   bool
	generation uint64
}

// New builds an idle fetcher over source.
func New[T any](source Source[T], opts Options) *Fetcher[T] {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	f := &Fetcher[T]{
		name:    opts.Name,
		source:  source,
		limit:   pagination.NormalizeLimit(opts.PageSize),
		metrics: opts.Metrics,
		logg:    opts.Logger,
		state:   StateIdle,
		next:    pagination.First(),
	}
	if opts.Cache != nil && opts.Key != "" {
		f.unsub = opts.Cache.Subscribe(opts.Key, func(querycache.Key) { f.MarkStale() })
	}
	return f
}

// Name is the feed label used in logs and metrics.
func (f *Fetcher[T]) Name() string { return f.name }

// Limit is the page size requested from the source.
func (f *Fetcher[T]) Limit() int { return f.limit }

// SetCriteria switches the feed to c. The same criteria is a no-op once the
// feed has loaded; different criteria discard every accumulated page and
// fetch page one.
func (f *Fetcher[T]) SetCriteria(ctx context.Context, c Criteria) Snapshot[T] {
	f.mu.Lock()
	if c == f.criteria && f.state != StateIdle && !f.stale {
		snap := f.snapshotLocked()
		f.mu.Unlock()
		return snap
	}
	f.criteria = c
	gen, cont := f.resetLocked()
	f.mu.Unlock()

	f.metrics.IncReset(f.name)
	return f.fetch(ctx, gen, c, cont)
}

// Load fetches page one when the feed has not loaded yet, was invalidated,
// or its first page failed. Otherwise it returns the current state.
func (f *Fetcher[T]) Load(ctx context.Context) Snapshot[T] {
	f.mu.Lock()
	firstPageFailed := f.state == StateError && len(f.items) == 0
	if f.inFlight || (f.state != StateIdle && !f.stale && !firstPageFailed) {
		snap := f.snapshotLocked()
		f.mu.Unlock()
		return snap
	}
	criteria := f.criteria
	gen, cont := f.resetLocked()
	f.mu.Unlock()

	return f.fetch(ctx, gen, criteria, cont)
}

// FetchNextPage appends the next page. It is a no-op while a fetch is in
// flight or when the feed reported no further pages. After a failed page it
// retries the same continuation.
func (f *Fetcher[T]) FetchNextPage(ctx context.Context) Snapshot[T] {
	f.mu.Lock()
	if f.stale && !f.inFlight {
		f.mu.Unlock()
		return f.Load(ctx)
	}
	if f.inFlight || !f.hasMore || f.state == StateIdle {
		snap := f.snapshotLocked()
		f.mu.Unlock()
		return snap
	}
	f.inFlight = true
	f.state = StateLoadingMore
	f.err = nil
	gen, criteria, cont := f.generation, f.criteria, f.next
	f.mu.Unlock()

	return f.fetch(ctx, gen, criteria, cont)
}

// MarkStale flags the feed for a hard reload on the next Load and discards
// any response still in flight.
func (f *Fetcher[T]) MarkStale() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateIdle {
		return
	}
	f.stale = true
	f.generation++
	f.inFlight = false
	if f.state == StateLoading || f.state == StateLoadingMore {
		f.state = StateReady
	}
}

// Snapshot returns the current state.
func (f *Fetcher[T]) Snapshot() Snapshot[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

// Close detaches the fetcher; responses arriving afterwards are dropped.
func (f *Fetcher[T]) Close() {
	f.mu.Lock()
	f.generation++
	f.inFlight = false
	f.mu.Unlock()
	if f.unsub != nil {
		f.unsub()
	}
}

func (f *Fetcher[T]) resetLocked() (uint64, pagination.Continuation) {
	f.generation++
	f.items = nil
	f.hasMore = false
	f.err = nil
	f.stale = false
	f.next = pagination.First()
	f.state = StateLoading
	f.inFlight = true
	return f.generation, f.next
}

func (f *Fetcher[T]) fetch(ctx context.Context, gen uint64, criteria Criteria, cont pagination.Continuation) Snapshot[T] {
	ctx = f.logg.WithFields(ctx, map[string]any{"feed": f.name, "page": cont.Page, "cursor": cont.Cursor})
	page, err := f.source(ctx, criteria, cont, f.limit)

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.generation {
		f.logg.Debug(ctx, "feed.page.discarded")
		return f.snapshotLocked()
	}
	f.inFlight = false

	if err != nil {
		f.state = StateError
		f.err = err
		f.metrics.IncFailure(f.name)
		f.logg.Warn(f.logg.WithField(ctx, "error", err.Error()), "feed.page.failed")
		return f.snapshotLocked()
	}

	f.items = append(f.items, page.Items...)
	f.hasMore = pagination.HasMore(page.Meta, len(page.Items), f.limit)
	f.next = page.Meta.Next(cont)
	f.state = StateReady
	f.metrics.IncPage(f.name)
	return f.snapshotLocked()
}

func (f *Fetcher[T]) snapshotLocked() Snapshot[T] {
	items := make([]T, len(f.items))
	copy(items, f.items)
	snap := Snapshot[T]{
		Name:     f.name,
		State:    f.state,
		Criteria: f.criteria,
		Items:    items,
		HasMore:  f.hasMore,
		Stale:    f.stale,
		Err:      f.err,
	}
	if f.err != nil {
		snap.Message = pkgerrors.UserMessage(f.err)
	}
	return snap
}
