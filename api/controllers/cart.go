package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/campusmarket-client/api/responses"
	"github.com/angelmondragon/campusmarket-client/api/validators"
	"github.com/angelmondragon/campusmarket-client/internal/cart"
	"github.com/angelmondragon/campusmarket-client/internal/products"
	pkgerrors "github.com/angelmondragon/campusmarket-client/pkg/errors"
	"github.com/angelmondragon/campusmarket-client/pkg/logger"
)

// CartStore is the cart surface the API drives.
type CartStore interface {
	View() cart.View
	AddToCart(ctx context.Context, p cart.Product) (bool, error)
	RemoveFromCart(ctx context.Context, productID string) error
	UpdateQuantity(ctx context.Context, productID string, delta int) (bool, error)
	ClearCart(ctx context.Context) error
	ToggleCart() bool
}

// ProductLookup resolves a listing by id.
type ProductLookup interface {
	Get(ctx context.Context, id string) (*products.Product, error)
}

// addCartItemPayload carries the listing as the UI shows it. When only the
// id is sent the listing is fetched from the backend.
type addCartItemPayload struct {
	ProductID         string           `json:"productId" validate:"required"`
	Name              string           `json:"name,omitempty"`
	Price             *decimal.Decimal `json:"price,omitempty"`
	Image             string           `json:"image,omitempty"`
	AvailableQuantity *int             `json:"availableQuantity,omitempty"`
}

type updateQuantityPayload struct {
	Delta int `json:"delta" validate:"required"`
}

type cartMutationResponse struct {
	Changed bool      `json:"changed"`
	Cart    cart.View `json:"cart"`
}

func CartFetch(store CartStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, store.View())
	}
}

// CartAddItem adds one unit. A refused add (stock ceiling reached) is not an
// error; changed is false and the cart is unchanged.
func CartAddItem(store CartStore, lookup ProductLookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload addCartItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		product, err := resolveCartProduct(ctx, lookup, payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		added, err := store.AddToCart(ctx, product)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, cartMutationResponse{Changed: added, Cart: store.View()})
	}
}

func resolveCartProduct(ctx context.Context, lookup ProductLookup, payload addCartItemPayload) (cart.Product, error) {
	if payload.Name != "" && payload.Price != nil {
		p := cart.Product{
			ID:    strings.TrimSpace(payload.ProductID),
			Name:  payload.Name,
			Price: *payload.Price,
			Image: payload.Image,
		}
		if payload.AvailableQuantity != nil {
			p.AvailableQuantity = *payload.AvailableQuantity
		}
		return p, nil
	}
	if lookup == nil {
		return cart.Product{}, pkgerrors.New(pkgerrors.CodeValidation, "name and price are required")
	}
	listing, err := lookup.Get(ctx, strings.TrimSpace(payload.ProductID))
	if err != nil {
		return cart.Product{}, err
	}
	return products.ToCartProduct(*listing), nil
}

func CartUpdateItem(store CartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload updateQuantityPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		changed, err := store.UpdateQuantity(ctx, chi.URLParam(r, "productId"), payload.Delta)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, cartMutationResponse{Changed: changed, Cart: store.View()})
	}
}

func CartRemoveItem(store CartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := store.RemoveFromCart(ctx, chi.URLParam(r, "productId")); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, store.View())
	}
}

func CartClear(store CartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := store.ClearCart(ctx); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, store.View())
	}
}

func CartToggle(store CartStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store.ToggleCart()
		responses.WriteSuccess(w, store.View())
	}
}
