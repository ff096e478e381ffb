package pagination

import (
	"encoding/json"
	"testing"
)

type row struct {
	ID string `json:"id"`
}

func TestListDecodesShapes(t *testing.T) {
	cases := []struct {
		name      string
		body      string
		items     int
		hasMore   *bool
		cursor    string
		page      int
		totalPage int
	}{
		{name: "bare array", body: `[{"id":"a"},{"id":"b"}]`, items: 2},
		{name: "top-level flag", body: `{"data":[{"id":"a"}],"hasMore":true}`, items: 1, hasMore: boolPtr(true)},
		{name: "snake flag", body: `{"items":[{"id":"a"}],"has_more":false}`, items: 1, hasMore: boolPtr(false)},
		{name: "nested block", body: `{"data":[{"id":"a"}],"pagination":{"page":2,"totalPages":5}}`, items: 1, page: 2, totalPage: 5},
		{name: "nested page with cursor", body: `{"items":[{"id":"a"},{"id":"b"}],"cursor":"c2"}`, items: 2, cursor: "c2"},
		{name: "data object page", body: `{"data":{"items":[{"id":"a"}],"cursor":"c3"}}`, items: 1, cursor: "c3"},
		{name: "top-level totals", body: `{"data":[{"id":"a"}],"page":1,"total_pages":3,"next_cursor":"n1"}`, items: 1, page: 1, totalPage: 3, cursor: "n1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var l List[row]
			if err := json.Unmarshal([]byte(tc.body), &l); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if len(l.Items) != tc.items {
				t.Fatalf("expected %d items, got %d", tc.items, len(l.Items))
			}
			if (tc.hasMore == nil) != (l.Meta.HasMore == nil) || (tc.hasMore != nil && *tc.hasMore != *l.Meta.HasMore) {
				t.Fatalf("unexpected hasMore %v", l.Meta.HasMore)
			}
			if l.Meta.NextCursor != tc.cursor || l.Meta.Page != tc.page || l.Meta.TotalPages != tc.totalPage {
				t.Fatalf("unexpected meta %+v", l.Meta)
			}
		})
	}
}

func TestListPaginationBlockWins(t *testing.T) {
	var l List[row]
	body := `{"data":[{"id":"a"}],"hasMore":true,"pagination":{"hasMore":false}}`
	if err := json.Unmarshal([]byte(body), &l); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if l.Meta.HasMore == nil || *l.Meta.HasMore {
		t.Fatalf("expected pagination block to win, got %+v", l.Meta)
	}
}

func TestListRejectsScalar(t *testing.T) {
	var l List[row]
	if err := json.Unmarshal([]byte(`"nope"`), &l); err == nil {
		t.Fatal("expected a scalar body to fail")
	}
}
