package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/campusmarket-client/api/responses"
	"github.com/angelmondragon/campusmarket-client/api/validators"
	"github.com/angelmondragon/campusmarket-client/internal/ratings"
	"github.com/angelmondragon/campusmarket-client/pkg/logger"
)

type RatingsService interface {
	RateSeller(ctx context.Context, sellerID string, input ratings.RatingInput) (*ratings.Rating, error)
	List(ctx context.Context, sellerID string) (ratings.SellerRatings, error)
}

func SellerRatingsList(svc RatingsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		list, err := svc.List(ctx, chi.URLParam(r, "sellerId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if list.Ratings == nil {
			list.Ratings = []ratings.Rating{}
		}
		responses.WriteSuccess(w, list)
	}
}

func SellerRatingsCreate(svc RatingsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var input ratings.RatingInput
		if err := validators.DecodeJSON(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rating, err := svc.RateSeller(ctx, chi.URLParam(r, "sellerId"), input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, rating)
	}
}
