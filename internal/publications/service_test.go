package publications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/campusmarket-client/internal/feed"
	"github.com/angelmondragon/campusmarket-client/internal/querycache"
	pkgerrors "github.com/angelmondragon/campusmarket-client/pkg/errors"
	"github.com/angelmondragon/campusmarket-client/pkg/httpclient"
	"github.com/angelmondragon/campusmarket-client/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedNav struct {
	mu    sync.Mutex
	paths []string
	delay time.Duration
}

func (n *recordedNav) NavigateAfter(delay time.Duration, path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.delay = delay
	n.paths = append(n.paths, path)
}

type backend struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   []map[string]any
	handler  func(w http.ResponseWriter, r *http.Request)
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	b.mu.Lock()
	b.requests = append(b.requests, r)
	b.bodies = append(b.bodies, body)
	b.mu.Unlock()
	b.handler(w, r)
}

func (b *backend) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

type fixture struct {
	svc   Service
	repo  *Repository
	cache *querycache.Client
	nav   *recordedNav
	be    *backend
}

func newFixture(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) fixture {
	t.Helper()
	be := &backend{handler: handler}
	srv := httptest.NewServer(be)
	t.Cleanup(srv.Close)

	client, err := httpclient.New(httpclient.Params{BaseURL: srv.URL})
	require.NoError(t, err)
	cache := querycache.New(nil, nil)
	nav := &recordedNav{}
	svc, err := NewService(ServiceParams{
		Client:        client,
		Cache:         cache,
		Navigator:     nav,
		RedirectDelay: 1500 * time.Millisecond,
	})
	require.NoError(t, err)
	repo, err := NewRepository(client, cache)
	require.NoError(t, err)
	return fixture{svc: svc, repo: repo, cache: cache, nav: nav, be: be}
}

func TestCreateWithoutImagesMakesNoNetworkCall(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	})

	_, err := f.svc.Create(context.Background(), validDraft())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, "Add at least one image", typed.Message())
	assert.Zero(t, f.be.count())
	assert.Empty(t, f.nav.paths)
}

func TestCreateRejectsNonImageUploads(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	})

	d := validDraft()
	d.Images = []Image{{Name: "notes.txt", Data: []byte("plain text notes")}}
	_, err := f.svc.Create(context.Background(), d)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, "Only image files can be attached", typed.Message())
	assert.Zero(t, f.be.count())
}

func TestCreateSuccessInvalidatesAndRedirects(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"id": "pub-1", "title": "Calculus textbook", "price": 25.5}})
	})
	f.cache.Set(querycache.KeyMyPublications, "old")
	f.cache.Set(querycache.KeyProducts, "old")
	f.cache.Set(querycache.KeyFavorites, "old")

	d := validDraft()
	require.NoError(t, d.AddImage(pngImage("a.png"), DefaultLimits()))
	pub, err := f.svc.Create(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, "pub-1", pub.ID)

	req := f.be.requests[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/publications", req.URL.Path)
	body := f.be.bodies[0]
	assert.Equal(t, "Calculus textbook", body["title"])
	assert.Equal(t, 25.5, body["price"])
	assert.Equal(t, float64(2), body["stock"])
	assert.Len(t, body["images"], 1)

	assert.True(t, f.cache.IsStale(querycache.KeyMyPublications))
	assert.True(t, f.cache.IsStale(querycache.KeyProducts))
	assert.False(t, f.cache.IsStale(querycache.KeyFavorites))
	assert.Equal(t, []string{MyPublicationsPath}, f.nav.paths)
	assert.Equal(t, 1500*time.Millisecond, f.nav.delay)
}

func TestUpdateSurfacesServerMessage(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "You can only edit your own publications"})
	})
	f.cache.Set(querycache.KeyMyPublications, "old")

	_, err := f.svc.Update(context.Background(), "pub-1", validDraft())
	assert.Equal(t, "You can only edit your own publications", pkgerrors.UserMessage(err))
	assert.Equal(t, http.MethodPatch, f.be.requests[0].Method)
	assert.Equal(t, "/publications/pub-1", f.be.requests[0].URL.Path)
	assert.False(t, f.cache.IsStale(querycache.KeyMyPublications))
	assert.Empty(t, f.nav.paths)
}

func TestUpdateSurfacesValidationErrors(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"errors": []map[string]string{{"field": "price", "message": "Price must be positive"}},
		})
	})

	_, err := f.svc.Update(context.Background(), "pub-1", validDraft())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, []pkgerrors.FieldError{{Field: "price", Message: "Price must be positive"}}, typed.FieldErrors())
}

func TestDeleteInvalidatesWithoutRedirect(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	f.cache.Set(querycache.KeyPublications, "old")
	f.cache.Set(querycache.KeyPublicationDetail.Child("pub-9"), "old")

	require.NoError(t, f.svc.Delete(context.Background(), "pub-9"))
	assert.Equal(t, http.MethodDelete, f.be.requests[0].Method)
	assert.True(t, f.cache.IsStale(querycache.KeyPublications))
	assert.True(t, f.cache.IsStale(querycache.KeyPublicationDetail.Child("pub-9")))
	assert.Empty(t, f.nav.paths)

	assert.True(t, pkgerrors.IsCode(f.svc.Delete(context.Background(), " "), pkgerrors.CodeValidation))
}

func TestRepositoryListMineUsesCursor(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data":       []map[string]any{{"id": "a", "title": "A"}},
			"pagination": map[string]any{"nextCursor": "next-1"},
		})
	})

	page, err := f.repo.ListMine(context.Background(), feed.Criteria{Author: "u1"}, pagination.Continuation{Cursor: "c0"}, 12)
	require.NoError(t, err)
	assert.Equal(t, "/publications/mine", f.be.requests[0].URL.Path)
	assert.Equal(t, "c0", f.be.requests[0].URL.Query().Get("cursor"))
	assert.Equal(t, "u1", f.be.requests[0].URL.Query().Get("author"))
	assert.Equal(t, "next-1", page.Meta.NextCursor)
	require.Len(t, page.Items, 1)
}

func TestRepositoryGetIsCachedUntilMutation(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "pub-1", "title": "Lamp", "price": "9.99", "stock": 2})
	})
	ctx := context.Background()

	p, err := f.repo.Get(ctx, "pub-1")
	require.NoError(t, err)
	assert.Equal(t, "Lamp", p.Title)
	_, _ = f.repo.Get(ctx, "pub-1")
	assert.Equal(t, 1, f.be.count())

	f.cache.InvalidateFor(ctx, querycache.MutationPublicationUpdate)
	_, _ = f.repo.Get(ctx, "pub-1")
	assert.Equal(t, 2, f.be.count())
}
