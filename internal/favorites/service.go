// Package favorites reads the shopper's favorite products and toggles them
// through the backend. The cached set is only ever replaced by a server read.
package favorites

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/campusmarket-client/internal/querycache"
	pkgerrors "github.com/angelmondragon/campusmarket-client/pkg/errors"
	"github.com/angelmondragon/campusmarket-client/pkg/httpclient"
	"github.com/angelmondragon/campusmarket-client/pkg/logger"
)

// Doer is the subset of the HTTP client the service needs.
type Doer interface {
	Do(ctx context.Context, req httpclient.Request, out any) error
}

type authChecker interface {
	IsAuthenticated() bool
}

// ServiceParams groups dependencies for the favorites service.
type ServiceParams struct {
	Client    Doer
	Cache     *querycache.Client
	Session   authChecker
	StaleTime time.Duration
	Logger    *logger.Logger
}

// Service exposes the favorites read and toggle flow.
type Service interface {
	IDs(ctx context.Context) (Set, error)
	IsFavorite(ctx context.Context, productID string) (bool, error)
	Toggle(ctx context.Context, productID string) (ToggleResult, error)
}

type service struct {
	client    Doer
	cache     *querycache.Client
	session   authChecker
	staleTime time.Duration
	logg      *logger.Logger
}

// NewService builds a favorites service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "http client is required")
	}
	if params.Cache == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query cache is required")
	}
	if params.Session == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session is required")
	}
	if params.StaleTime == 0 {
		params.StaleTime = 5 * time.Minute
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	return &service{
		client:    params.Client,
		cache:     params.Cache,
		session:   params.Session,
		staleTime: params.StaleTime,
		logg:      params.Logger,
	}, nil
}

// IDs returns the favorited product ids, from cache while fresh.
func (s *service) IDs(ctx context.Context) (Set, error) {
	if !s.session.IsAuthenticated() {
		return NewSet(), nil
	}
	return querycache.Fetch(ctx, s.cache, querycache.KeyFavorites, s.staleTime, s.fetch)
}

func (s *service) fetch(ctx context.Context) (Set, error) {
	var dto IDsDTO
	if err := s.client.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/favorites"}, &dto); err != nil {
		return nil, err
	}
	return NewSet(dto.ProductIDs...), nil
}

func (s *service) IsFavorite(ctx context.Context, productID string) (bool, error) {
	set, err := s.IDs(ctx)
	if err != nil {
		return false, err
	}
	return set.Has(productID), nil
}

// Toggle flips the favorite server-side, invalidates the cached set and
// re-reads it. The confirmed state comes from the re-read; when that fails it
// falls back to the toggle body, then to flipping the last cached set. A
// failed re-read leaves the cache stale for the next read.
func (s *service) Toggle(ctx context.Context, productID string) (ToggleResult, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return ToggleResult{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if !s.session.IsAuthenticated() {
		return ToggleResult{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "Sign in to save favorites.")
	}
	ctx = s.logg.WithOperation(ctx, "favorites.toggle")
	previous, hadPrevious := s.cached()

	var dto toggleDTO
	if err := s.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/favorites/" + url.PathEscape(productID) + "/toggle",
		Route:  "/favorites/{id}/toggle",
	}, &dto); err != nil {
		return ToggleResult{}, err
	}

	s.cache.InvalidateFor(ctx, querycache.MutationFavoriteToggle)
	result := ToggleResult{ProductID: productID}

	set, err := s.IDs(ctx)
	if err == nil {
		result.Favorited = set.Has(productID)
		result.IDs = set.IDs()
		return result, nil
	}
	s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "favorites.refetch.failed")
	switch {
	case dto.Favorited != nil:
		result.Favorited = *dto.Favorited
	case hadPrevious:
		result.Favorited = !previous.Has(productID)
	}
	return result, nil
}

func (s *service) cached() (Set, bool) {
	value, ok := s.cache.Peek(querycache.KeyFavorites)
	if !ok {
		return nil, false
	}
	set, ok := value.(Set)
	return set, ok
}
