package pagination

import (
	"encoding/json"
	"testing"
)

func boolPtr(v bool) *bool { return &v }

func TestNormalizeLimit(t *testing.T) {
	cases := map[int]int{0: DefaultLimit, -3: DefaultLimit, 12: 12, 500: MaxLimit}
	for in, want := range cases {
		if got := NormalizeLimit(in); got != want {
			t.Fatalf("NormalizeLimit(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestMoreAvailableDerivationOrder(t *testing.T) {
	cases := []struct {
		name string
		meta Meta
		want bool
	}{
		{"explicit false beats cursor", Meta{HasMore: boolPtr(false), NextCursor: "abc"}, false},
		{"explicit true", Meta{HasMore: boolPtr(true)}, true},
		{"cursor present", Meta{NextCursor: "abc"}, true},
		{"page below total pages", Meta{Page: 1, TotalPages: 3}, true},
		{"last page", Meta{Page: 3, TotalPages: 3}, false},
		{"item total", Meta{Page: 1, Total: 30}, true},
		{"item total reached", Meta{Page: 3, Total: 30}, false},
		{"nothing", Meta{}, false},
	}
	for _, tc := range cases {
		if got := tc.meta.MoreAvailable(12); got != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestHasMoreShortPageEndsFeed(t *testing.T) {
	if HasMore(Meta{HasMore: boolPtr(true)}, 5, 12) {
		t.Fatal("short page must end the feed even when the server says more")
	}
	if !HasMore(Meta{HasMore: boolPtr(true)}, 12, 12) {
		t.Fatal("full page with hasMore should continue")
	}
}

func TestNextContinuation(t *testing.T) {
	if got := (Meta{NextCursor: "c2"}).Next(First()); got.Cursor != "c2" {
		t.Fatalf("expected cursor continuation, got %+v", got)
	}
	if got := (Meta{Page: 2, TotalPages: 5}).Next(Continuation{Page: 2}); got.Page != 3 {
		t.Fatalf("expected page 3, got %+v", got)
	}
	if got := (Meta{HasMore: boolPtr(true)}).Next(Continuation{Page: 4}); got.Page != 5 {
		t.Fatalf("expected page 5 from current, got %+v", got)
	}
}

func TestContinuationQuery(t *testing.T) {
	q := First().Query(0)
	if q.Get("page") != "1" || q.Get("limit") != "12" || q.Has("cursor") {
		t.Fatalf("unexpected first query %v", q)
	}
	q = Continuation{Cursor: "xyz"}.Query(20)
	if q.Get("cursor") != "xyz" || q.Has("page") || q.Get("limit") != "20" {
		t.Fatalf("unexpected cursor query %v", q)
	}
}

func TestMetaAcceptsSnakeCase(t *testing.T) {
	var m Meta
	if err := json.Unmarshal([]byte(`{"has_more":true,"next_cursor":"n1","page":2,"total_pages":4}`), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m.HasMore == nil || !*m.HasMore || m.NextCursor != "n1" || m.TotalPages != 4 || m.Page != 2 {
		t.Fatalf("unexpected meta %+v", m)
	}
}
