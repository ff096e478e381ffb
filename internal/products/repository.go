// Package products reads marketplace listings from the backend.
package products

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/angelmondragon/campusmarket-client/internal/feed"
	pkgerrors "github.com/angelmondragon/campusmarket-client/pkg/errors"
	"github.com/angelmondragon/campusmarket-client/pkg/httpclient"
	"github.com/angelmondragon/campusmarket-client/pkg/pagination"
)

// Doer is the subset of the HTTP client the repository needs.
type Doer interface {
	Do(ctx context.Context, req httpclient.Request, out any) error
}

// Repository wraps the product listing endpoints.
type Repository struct {
	client Doer
}

// NewRepository binds the repository to the backend client.
func NewRepository(client Doer) (*Repository, error) {
	if client == nil {
		return nil, fmt.Errorf("http client required")
	}
	return &Repository{client: client}, nil
}

// List fetches one page-numbered page. It satisfies feed.Source[Product].
func (r *Repository) List(ctx context.Context, criteria feed.Criteria, cont pagination.Continuation, limit int) (feed.Page[Product], error) {
	query := cont.Query(limit)
	applyCriteria(query, criteria)

	var resp pagination.List[Product]
	if err := r.client.Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   "/products",
		Query:  query,
	}, &resp); err != nil {
		return feed.Page[Product]{}, err
	}
	return feed.Page[Product]{Items: resp.Items, Meta: resp.Meta}, nil
}

// Get loads one product by id.
func (r *Repository) Get(ctx context.Context, id string) (*Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	var product Product
	if err := r.client.Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   "/products/" + url.PathEscape(id),
		Route:  "/products/{id}",
	}, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func applyCriteria(query url.Values, criteria feed.Criteria) {
	if s := strings.TrimSpace(criteria.Search); s != "" {
		query.Set("search", s)
	}
	if c := strings.TrimSpace(criteria.Category); c != "" {
		query.Set("category", c)
	}
	if a := strings.TrimSpace(criteria.Author); a != "" {
		query.Set("author", a)
	}
}
