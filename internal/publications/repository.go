package publications

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/angelmondragon/campusmarket-client/internal/feed"
	"github.com/angelmondragon/campusmarket-client/internal/querycache"
	pkgerrors "github.com/angelmondragon/campusmarket-client/pkg/errors"
	"github.com/angelmondragon/campusmarket-client/pkg/httpclient"
	"github.com/angelmondragon/campusmarket-client/pkg/pagination"
)

// Doer is the subset of the HTTP client this package needs.
type Doer interface {
	Do(ctx context.Context, req httpclient.Request, out any) error
}

// Repository reads publications. Listings are cursor paginated.
type Repository struct {
	client Doer
	cache  *querycache.Client
}

func NewRepository(client Doer, cache *querycache.Client) (*Repository, error) {
	if client == nil {
		return nil, fmt.Errorf("http client required")
	}
	if cache == nil {
		return nil, fmt.Errorf("query cache required")
	}
	return &Repository{client: client, cache: cache}, nil
}

// List pages through every active publication. It satisfies feed.Source.
func (r *Repository) List(ctx context.Context, criteria feed.Criteria, cont pagination.Continuation, limit int) (feed.Page[Publication], error) {
	return r.list(ctx, "/publications", criteria, cont, limit)
}

// ListMine pages through the signed-in user's publications.
func (r *Repository) ListMine(ctx context.Context, criteria feed.Criteria, cont pagination.Continuation, limit int) (feed.Page[Publication], error) {
	return r.list(ctx, "/publications/mine", criteria, cont, limit)
}

func (r *Repository) list(ctx context.Context, path string, criteria feed.Criteria, cont pagination.Continuation, limit int) (feed.Page[Publication], error) {
	query := cont.Query(limit)
	if s := strings.TrimSpace(criteria.Search); s != "" {
		query.Set("search", s)
	}
	if c := strings.TrimSpace(criteria.Category); c != "" {
		query.Set("category", c)
	}
	if a := strings.TrimSpace(criteria.Author); a != "" {
		query.Set("author", a)
	}

	var resp pagination.List[Publication]
	if err := r.client.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: path, Query: query}, &resp); err != nil {
		return feed.Page[Publication]{}, err
	}
	return feed.Page[Publication]{Items: resp.Items, Meta: resp.Meta}, nil
}

// Get loads one publication, cached until a publication mutation invalidates it.
func (r *Repository) Get(ctx context.Context, id string) (*Publication, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "publication id is required")
	}
	p, err := querycache.Fetch(ctx, r.cache, querycache.KeyPublicationDetail.Child(id), querycache.Forever,
		func(ctx context.Context) (Publication, error) {
			var p Publication
			err := r.client.Do(ctx, httpclient.Request{
				Method: http.MethodGet,
				Path:   "/publications/" + url.PathEscape(id),
				Route:  "/publications/{id}",
			}, &p)
			return p, err
		})
	if err != nil {
		return nil, err
	}
	return &p, nil
}
