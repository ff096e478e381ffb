package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/campusmarket-client/api/responses"
	"github.com/angelmondragon/campusmarket-client/internal/favorites"
	"github.com/angelmondragon/campusmarket-client/pkg/logger"
)

// FavoritesService is the favorites surface the API drives.
type FavoritesService interface {
	IDs(ctx context.Context) (favorites.Set, error)
	Toggle(ctx context.Context, productID string) (favorites.ToggleResult, error)
}

type favoritesResponse struct {
	ProductIDs []string `json:"productIds"`
}

// FavoritesList returns the favorited product ids; empty when signed out.
func FavoritesList(svc FavoritesService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		set, err := svc.IDs(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, favoritesResponse{ProductIDs: set.IDs()})
	}
}

// FavoritesToggle flips one product and returns the server-confirmed state.
func FavoritesToggle(svc FavoritesService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		result, err := svc.Toggle(ctx, chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if result.IDs == nil {
			result.IDs = []string{}
		}
		responses.WriteSuccess(w, result)
	}
}
