package querycache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestFetchCachesUntilStale(t *testing.T) {
	c := New(nil, nil)
	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }

	calls := 0
	load := func(context.Context) (int, error) {
		calls++
		return calls, nil
	}
	ctx := context.Background()

	if v, err := Fetch(ctx, c, KeyFavorites, time.Minute, load); err != nil || v != 1 {
		t.Fatalf("first fetch = %d, %v", v, err)
	}
	if v, _ := Fetch(ctx, c, KeyFavorites, time.Minute, load); v != 1 {
		t.Fatalf("expected cached value 1, got %d", v)
	}

	now = now.Add(2 * time.Minute)
	if v, _ := Fetch(ctx, c, KeyFavorites, time.Minute, load); v != 2 {
		t.Fatalf("expected refetch after stale time, got %d", v)
	}

	now = now.Add(24 * time.Hour)
	if v, _ := Fetch(ctx, c, KeyFavorites, Forever, load); v != 2 {
		t.Fatalf("expected Forever to ignore age, got %d", v)
	}
}

func TestFetchErrorIsNotCached(t *testing.T) {
	c := New(nil, nil)
	boom := errors.New("boom")
	_, err := Fetch(context.Background(), c, KeyProducts, Forever, func(context.Context) (string, error) {
		return "", boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if !c.IsStale(KeyProducts) {
		t.Fatalf("failed fetch must leave key stale")
	}
}

func TestFetchDedupesConcurrentCalls(t *testing.T) {
	c := New(nil, nil)
	var calls atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once

	load := func(context.Context) (int, error) {
		calls.Add(1)
		once.Do(func() { close(started) })
		<-release
		return 7, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 4)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = Fetch(context.Background(), c, KeyFavorites, Forever, load)
	}()
	<-started
	for i := 1; i < len(results); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = Fetch(context.Background(), c, KeyFavorites, Forever, load)
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("expected a single underlying fetch, got %d", calls.Load())
	}
	for i, r := range results {
		if r != 7 {
			t.Fatalf("result %d = %d", i, r)
		}
	}
}

func TestInvalidateForUsesTable(t *testing.T) {
	c := New(nil, nil)
	ctx := context.Background()
	for _, k := range []Key{KeyFavorites, KeyProducts, KeyMyPublications, KeyPublicationDetail.Child("9"), KeySellerRatings} {
		c.Set(k, "v")
	}

	c.InvalidateFor(ctx, MutationPublicationUpdate)

	for _, k := range []Key{KeyProducts, KeyMyPublications, KeyPublicationDetail.Child("9")} {
		if !c.IsStale(k) {
			t.Fatalf("expected %s stale after publication update", k)
		}
	}
	for _, k := range []Key{KeyFavorites, KeySellerRatings} {
		if c.IsStale(k) {
			t.Fatalf("expected %s untouched by publication update", k)
		}
	}
}

func TestDefaultInvalidationsCoverEveryMutation(t *testing.T) {
	table := DefaultInvalidations()
	kinds := []MutationKind{
		MutationPublicationCreate,
		MutationPublicationUpdate,
		MutationPublicationDelete,
		MutationFavoriteToggle,
		MutationRatingCreate,
	}
	for _, kind := range kinds {
		if len(table.KeysFor(kind)) == 0 {
			t.Fatalf("mutation %s invalidates nothing", kind)
		}
	}
	for _, kind := range []MutationKind{MutationPublicationCreate, MutationPublicationDelete} {
		keys := table.KeysFor(kind)
		if !containsKey(keys, KeyMyPublications) || !containsKey(keys, KeyPublications) {
			t.Fatalf("%s must invalidate own and general publication feeds, got %v", kind, keys)
		}
	}
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	c := New(nil, nil)
	var got []Key
	unsubscribe := c.Subscribe(KeyMyPublications, func(k Key) { got = append(got, k) })

	c.InvalidateFor(context.Background(), MutationPublicationDelete)
	c.InvalidateFor(context.Background(), MutationFavoriteToggle)
	if len(got) != 1 || got[0] != KeyMyPublications {
		t.Fatalf("unexpected notifications %v", got)
	}

	unsubscribe()
	c.Invalidate(context.Background(), KeyMyPublications)
	if len(got) != 1 {
		t.Fatalf("expected no notification after unsubscribe, got %v", got)
	}
}

func TestInvalidationDuringFetchLeavesResultStale(t *testing.T) {
	c := New(nil, nil)
	ctx := context.Background()

	_, err := Fetch(ctx, c, KeyFavorites, Forever, func(context.Context) (int, error) {
		c.Invalidate(ctx, KeyFavorites)
		return 1, nil
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !c.IsStale(KeyFavorites) {
		t.Fatalf("value fetched before invalidation must stay stale")
	}

	v, _ := Fetch(ctx, c, KeyFavorites, Forever, func(context.Context) (int, error) { return 2, nil })
	if v != 2 || c.IsStale(KeyFavorites) {
		t.Fatalf("expected fresh refetch, got %d stale=%v", v, c.IsStale(KeyFavorites))
	}
}

func TestFetchAfterInvalidationDoesNotJoinEarlierRead(t *testing.T) {
	c := New(nil, nil)
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan int)

	go func() {
		v, _ := Fetch(ctx, c, KeyFavorites, Forever, func(context.Context) (int, error) {
			close(started)
			<-release
			return 1, nil
		})
		done <- v
	}()
	<-started

	c.Invalidate(ctx, KeyFavorites)
	v, err := Fetch(ctx, c, KeyFavorites, Forever, func(context.Context) (int, error) { return 2, nil })
	if err != nil || v != 2 {
		t.Fatalf("expected a new read after invalidation, got %d, %v", v, err)
	}

	close(release)
	if old := <-done; old != 1 {
		t.Fatalf("expected earlier read to finish with 1, got %d", old)
	}
	if got, _ := Fetch(ctx, c, KeyFavorites, Forever, func(context.Context) (int, error) { return 3, nil }); got != 2 {
		t.Fatalf("earlier read must not overwrite the newer value, got %d", got)
	}
}

func TestResetNotifiesSubscribers(t *testing.T) {
	c := New(nil, nil)
	c.Set(KeyFavorites, []string{"a"})
	notified := 0
	c.Subscribe(KeyProducts, func(Key) { notified++ })

	c.Reset(context.Background())

	if _, ok := c.Peek(KeyFavorites); ok {
		t.Fatalf("expected entries dropped")
	}
	if notified != 1 {
		t.Fatalf("expected subscriber notified once, got %d", notified)
	}
}

func containsKey(keys []Key, want Key) bool {
	for _, k := range keys {
		if k == want {
			return true
		}
	}
	return false
}
