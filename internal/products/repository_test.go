package products

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/campusmarket-client/internal/feed"
	pkgerrors "github.com/angelmondragon/campusmarket-client/pkg/errors"
	"github.com/angelmondragon/campusmarket-client/pkg/httpclient"
	"github.com/angelmondragon/campusmarket-client/pkg/pagination"
	"github.com/shopspring/decimal"
)

func newRepo(t *testing.T, handler http.HandlerFunc) *Repository {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := httpclient.New(httpclient.Params{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("httpclient.New: %v", err)
	}
	repo, err := NewRepository(client)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	return repo
}

func TestListSendsCriteriaAndDecodes(t *testing.T) {
	repo := newRepo(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/products" || q.Get("page") != "2" || q.Get("limit") != "12" ||
			q.Get("search") != "lamp" || q.Get("category") != "home" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"id": "p1", "name": "Lamp", "price": 12.5, "stock": 3, "images": []string{"a.png"}},
			},
			"pagination": map[string]any{"page": 2, "totalPages": 5},
		})
	})

	page, err := repo.List(context.Background(), feed.Criteria{Search: " lamp ", Category: "home"}, pagination.Continuation{Page: 2}, 12)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != "p1" || !page.Items[0].Price.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("unexpected items %+v", page.Items)
	}
	if !page.Meta.MoreAvailable(12) {
		t.Fatalf("expected more pages from meta %+v", page.Meta)
	}
}

func TestListRejectsItemsWithoutID(t *testing.T) {
	repo := newRepo(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{{"name": "Nameless id"}},
		})
	})

	_, err := repo.List(context.Background(), feed.Criteria{}, pagination.First(), 12)
	if !pkgerrors.IsCode(err, pkgerrors.CodeDecode) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestGetUnwrapsEnvelope(t *testing.T) {
	repo := newRepo(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/products/p%201" {
			t.Errorf("unexpected path %q", r.URL.EscapedPath())
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"id": "p 1", "name": "Desk", "price": "40.00", "stock": 1}})
	})

	p, err := repo.Get(context.Background(), "p 1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Name != "Desk" {
		t.Fatalf("unexpected product %+v", p)
	}
	if _, err := repo.Get(context.Background(), " "); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for blank id, got %v", err)
	}
}

func TestToCartProduct(t *testing.T) {
	got := ToCartProduct(Product{ID: "p1", Name: "Lamp", Price: decimal.NewFromInt(3), Stock: 4, Images: []string{"a", "b"}})
	if got.ID != "p1" || got.Image != "a" || got.AvailableQuantity != 4 || !got.Price.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("unexpected cart product %+v", got)
	}
}

func productRows(prefix string, n int) []map[string]any {
	rows := make([]map[string]any, n)
	for i := range rows {
		rows[i] = map[string]any{"id": fmt.Sprintf("%s-%d", prefix, i), "name": "Item", "price": 1}
	}
	return rows
}

func TestListFeedContinuesAcrossResponseShapes(t *testing.T) {
	cases := []struct {
		name  string
		first any
		more  bool
	}{
		{name: "top-level hasMore", more: true, first: map[string]any{"data": productRows("a", 12), "hasMore": true}},
		{name: "items with cursor", more: true, first: map[string]any{"data": map[string]any{"items": productRows("a", 12), "cursor": "c2"}}},
		{name: "success envelope", more: false, first: map[string]any{"success": true, "data": productRows("a", 12)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			repo := newRepo(t, func(w http.ResponseWriter, r *http.Request) {
				calls++
				if calls == 1 {
					_ = json.NewEncoder(w).Encode(tc.first)
					return
				}
				_ = json.NewEncoder(w).Encode(map[string]any{"data": productRows("b", 3)})
			})
			fetcher := feed.New[Product](repo.List, feed.Options{Name: "products", PageSize: 12})

			snap := fetcher.Load(context.Background())
			if snap.Err != nil || len(snap.Items) != 12 {
				t.Fatalf("unexpected first page state=%s items=%d err=%v", snap.State, len(snap.Items), snap.Err)
			}
			if snap.HasMore != tc.more {
				t.Fatalf("expected hasMore=%v, got %v", tc.more, snap.HasMore)
			}
			if !tc.more {
				return
			}

			snap = fetcher.FetchNextPage(context.Background())
			if snap.Err != nil || len(snap.Items) != 15 || snap.HasMore {
				t.Fatalf("unexpected second page items=%d hasMore=%v err=%v", len(snap.Items), snap.HasMore, snap.Err)
			}
		})
	}
}
