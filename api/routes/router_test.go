package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/campusmarket-client/internal/app"
	"github.com/angelmondragon/campusmarket-client/pkg/config"
	"github.com/angelmondragon/campusmarket-client/pkg/kv"
	"github.com/angelmondragon/campusmarket-client/pkg/logger"
)

type backend struct {
	srv      *httptest.Server
	mutation atomic.Int32
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{}
	mux := http.NewServeMux()
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		writeBackendJSON(w, http.StatusOK, map[string]any{
			"data": []map[string]any{
				{"id": "p1", "name": "Desk lamp", "price": "12.50", "stock": 2},
			},
			"pagination": map[string]any{"page": 1, "totalPages": 1},
		})
	})
	mux.HandleFunc("/products/p9", func(w http.ResponseWriter, r *http.Request) {
		writeBackendJSON(w, http.StatusOK, map[string]any{
			"data": map[string]any{"id": "p9", "name": "Kettle", "price": "30", "stock": 1, "images": []string{"k.png"}},
		})
	})
	mux.HandleFunc("/publications", func(w http.ResponseWriter, r *http.Request) {
		b.mutation.Add(1)
		writeBackendJSON(w, http.StatusCreated, map[string]any{"id": "pub-1", "title": "x"})
	})
	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)
	return b
}

func writeBackendJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newTestRouter(t *testing.T, b *backend) (http.Handler, *app.Container) {
	t.Helper()
	cfg := &config.Config{
		App:     config.AppConfig{Env: config.AppEnvDev, CORSOrigins: "http://localhost:5173"},
		API:     config.APIConfig{BaseURL: b.srv.URL, RequestTimeout: time.Second, LoginPath: "/login"},
		Storage: config.StorageConfig{Driver: config.StorageDriverMemory},
		Cache:   config.CacheConfig{FavoritesStaleTime: time.Minute, RatingsStaleTime: time.Minute},
		Feed:    config.FeedConfig{PageSize: 12},
		Publication: config.PublicationConfig{
			MaxImages:     5,
			MaxImageBytes: 1 << 20,
		},
	}
	registry := prometheus.NewRegistry()
	c, err := app.New(context.Background(), app.Params{
		Config:     cfg,
		Logger:     logger.Nop(),
		Registerer: registry,
		Storage:    kv.NewMemory(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return NewRouter(cfg, logger.Nop(), c, registry), c
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func call(t *testing.T, h http.Handler, method, path, body string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w.Code, env
}

func TestHealthLive(t *testing.T) {
	h, _ := newTestRouter(t, newBackend(t))
	status, env := call(t, h, http.MethodGet, "/health/live", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"live"}`, string(env.Data))

	status, _ = call(t, h, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, status)
}

func TestCartRoutes(t *testing.T) {
	h, c := newTestRouter(t, newBackend(t))

	status, env := call(t, h, http.MethodPost, "/v1/cart/items", `{"productId":"p1","name":"Desk lamp","price":"12.50","availableQuantity":2}`)
	require.Equal(t, http.StatusOK, status)
	var added struct {
		Changed bool `json:"changed"`
		Cart    struct {
			Count  int    `json:"count"`
			Total  string `json:"total"`
			IsOpen bool   `json:"isOpen"`
		} `json:"cart"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &added))
	assert.True(t, added.Changed)
	assert.Equal(t, 1, added.Cart.Count)
	assert.Equal(t, "12.5", added.Cart.Total)
	assert.True(t, added.Cart.IsOpen)

	status, env = call(t, h, http.MethodPatch, "/v1/cart/items/p1", `{"delta":1}`)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &added))
	assert.True(t, added.Changed)
	assert.Equal(t, 2, c.Cart.Count())

	status, env = call(t, h, http.MethodPatch, "/v1/cart/items/p1", `{"delta":1}`)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &added))
	assert.False(t, added.Changed, "stock ceiling reached")

	status, _ = call(t, h, http.MethodDelete, "/v1/cart/items/p1", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, c.Cart.Count())
}

func TestCartAddLooksUpListingByID(t *testing.T) {
	h, c := newTestRouter(t, newBackend(t))

	status, _ := call(t, h, http.MethodPost, "/v1/cart/items", `{"productId":"p9"}`)
	require.Equal(t, http.StatusOK, status)

	items := c.Cart.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Kettle", items[0].Name)
	assert.Equal(t, "k.png", items[0].Image)
	assert.Equal(t, 1, items[0].StockCeiling)
}

func TestCartAddRequiresProductID(t *testing.T) {
	h, _ := newTestRouter(t, newBackend(t))
	status, env := call(t, h, http.MethodPost, "/v1/cart/items", `{}`)
	assert.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestFeedRoutes(t *testing.T) {
	h, _ := newTestRouter(t, newBackend(t))

	status, env := call(t, h, http.MethodGet, "/v1/feeds/products?search=lamp", "")
	require.Equal(t, http.StatusOK, status)
	var snap struct {
		Feed     string `json:"feed"`
		State    string `json:"state"`
		HasMore  bool   `json:"hasMore"`
		Criteria struct {
			Search string `json:"search"`
		} `json:"criteria"`
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	assert.Equal(t, "products", snap.Feed)
	assert.Equal(t, "ready", snap.State)
	assert.Equal(t, "lamp", snap.Criteria.Search)
	assert.False(t, snap.HasMore)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "p1", snap.Items[0].ID)

	status, _ = call(t, h, http.MethodPost, "/v1/feeds/products/next", "")
	assert.Equal(t, http.StatusOK, status)

	status, env = call(t, h, http.MethodGet, "/v1/feeds/unknown", "")
	assert.Equal(t, http.StatusNotFound, status)
	require.NotNil(t, env.Error)
}

func TestPublicationCreateWithoutImagesNeverReachesBackend(t *testing.T) {
	b := newBackend(t)
	h, _ := newTestRouter(t, b)

	status, env := call(t, h, http.MethodPost, "/v1/publications", `{"title":"Desk","price":"10","category":"home"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Add at least one image", env.Error.Message)
	assert.Zero(t, b.mutation.Load())
}

func TestFavoritesSignedOutIsEmpty(t *testing.T) {
	h, _ := newTestRouter(t, newBackend(t))
	status, env := call(t, h, http.MethodGet, "/v1/favorites", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"productIds":[]}`, string(env.Data))

	status, env = call(t, h, http.MethodPost, "/v1/favorites/p1/toggle", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	require.NotNil(t, env.Error)
}

func TestSessionAndLocation(t *testing.T) {
	h, c := newTestRouter(t, newBackend(t))

	status, env := call(t, h, http.MethodGet, "/v1/session", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"authenticated":false}`, string(env.Data))

	status, _ = call(t, h, http.MethodPost, "/v1/location", `{"path":"/products"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "/products", c.Location.Current())

	status, _ = call(t, h, http.MethodPost, "/v1/location", `{"path":"https://evil.test"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, h, http.MethodPost, "/v1/session/logout", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "/login", c.Location.Current())
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestRouter(t, newBackend(t))
	call(t, h, http.MethodGet, "/v1/feeds/products", "")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "backend_request_duration_seconds")
}
