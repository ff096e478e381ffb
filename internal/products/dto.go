package products

import (
	"time"

	"github.com/angelmondragon/campusmarket-client/internal/cart"
	"github.com/shopspring/decimal"
)

// Product is a marketplace listing as returned by the backend.
type Product struct {
	ID          string          `json:"id" validate:"required"`
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Images      []string        `json:"images,omitempty"`
	Category    string          `json:"category,omitempty"`
	Campus      string          `json:"campus,omitempty"`
	SellerID    string          `json:"seller_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ToCartProduct maps a listing to the cart's add input.
func ToCartProduct(p Product) cart.Product {
	image := ""
	if len(p.Images) > 0 {
		image = p.Images[0]
	}
	return cart.Product{
		ID:                p.ID,
		Name:              p.Name,
		Price:             p.Price,
		Image:             image,
		AvailableQuantity: p.Stock,
	}
}
