package cart

import "github.com/shopspring/decimal"

// StorageKey is the fixed durable-storage key holding the serialized cart.
const StorageKey = "cart"

// Product is what a listing hands to the cart when the shopper adds it.
type Product struct {
	ID                string
	Name              string
	Price             decimal.Decimal
	Image             string
	AvailableQuantity int
}

// Item is one cart line. Invariant: 1 <= Quantity <= StockCeiling.
type Item struct {
	ProductID    string          `json:"productId"`
	Name         string          `json:"name"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	Image        string          `json:"image,omitempty"`
	Quantity     int             `json:"quantity"`
	StockCeiling int             `json:"stockCeiling"`
}

// Subtotal is UnitPrice times Quantity.
func (i Item) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i Item) valid() bool {
	return i.ProductID != "" && i.StockCeiling >= 1 && i.Quantity >= 1 && i.Quantity <= i.StockCeiling
}

// View is a read-only snapshot of the cart with its derived fields.
type View struct {
	Items  []Item          `json:"items"`
	Total  decimal.Decimal `json:"total"`
	Count  int             `json:"count"`
	IsOpen bool            `json:"isOpen"`
}
