// Package ratings lets a buyer rate sellers they bought from and reads a
// seller's ratings.
package ratings

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
	"github.com/angelmondragon/campusmarket-client/pkg/validation"
	"github.com/shopspring/decimal"
)

// Rating is one buyer's score for a seller.
type Rating struct {
	ID        string    `json:"id" validate:"required"`
	SellerID  string    `json:"seller_id"`
	BuyerID   string    `json:"buyer_id"`
	Score     int       `json:"score" validate:"gte=1,lte=5"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SellerRatings is the listing for one seller.
type SellerRatings struct {
	Ratings []Rating        `json:"ratings" validate:"dive"`
	Average decimal.Decimal `json:"average"`
	Count   int             `json:"count"`
}

// RatingInput is what the buyer submits.
type RatingInput struct {
	Score   int    `json:"score" validate:"gte=1,lte=5"`
	Comment string `json:"comment,omitempty" validate:"max=500"`
}

// Doer is the subset of the HTTP client the service needs.
type Doer interface {
	Do(ctx context.Context, req httpclient.Request, out any) error
}

// ServiceParams groups dependencies for the ratings service.
type ServiceParams struct {
	Client    Doer
	Cache     *querycache.Client
	StaleTime time.Duration
	Logger    *logger.Logger
}

type Service interface {
	RateSeller(ctx context.Context, sellerID string, input RatingInput) (*Rating, error)
	List(ctx context.Context, sellerID string) (SellerRatings, error)
}

type service struct {
	client    Doer
	cache     *querycache.Client
	staleTime time.Duration
	logg      *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "http client is required")
	}
	if params.Cache == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query cache is required")
	}
	if params.StaleTime == 0 {
		params.StaleTime = time.Minute
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	return &service{client: params.Client, cache: params.Cache, staleTime: params.StaleTime, logg: params.Logger}, nil
}

// RateSeller submits a rating. The backend refuses buyers without a
// completed purchase; the HTTP client rewrites that refusal for display.
func (s *service) RateSeller(ctx context.Context, sellerID string, input RatingInput) (*Rating, error) {
	sellerID = strings.TrimSpace(sellerID)
	if sellerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id is required")
	}
	input.Comment = strings.TrimSpace(input.Comment)
	if fields := validation.Struct(input); len(fields) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Choose a score between 1 and 5.").WithDetails(fields)
	}

	var rating Rating
	if err := s.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/sellers/" + url.PathEscape(sellerID) + "/ratings",
		Route:  "/sellers/{id}/ratings",
		Body:   input,
	}, &rating); err != nil {
		return nil, err
	}
	s.cache.InvalidateFor(ctx, querycache.MutationRatingCreate)
	s.logg.Info(s.logg.WithField(ctx, "seller_id", sellerID), "ratings.created")
	return &rating, nil
}

// List returns a seller's ratings, cached per seller.
func (s *service) List(ctx context.Context, sellerID string) (SellerRatings, error) {
	sellerID = strings.TrimSpace(sellerID)
	if sellerID == "" {
		return SellerRatings{}, pkgerrors.New(pkgerrors.CodeValidation, "seller id is required")
	}
	key := querycache.KeySellerRatings.Child(sellerID)
	return querycache.Fetch(ctx, s.cache, key, s.staleTime, func(ctx context.Context) (SellerRatings, error) {
		var out SellerRatings
		err := s.client.Do(ctx, httpclient.Request{
			Method: http.MethodGet,
			Path:   "/sellers/" + url.PathEscape(sellerID) + "/ratings",
			Route:  "/sellers/{id}/ratings",
		}, &out)
		if err != nil {
			return SellerRatings{}, err
		}
		if out.Count == 0 {
			out.Count = len(out.Ratings)
		}
		return out, nil
	})
}
