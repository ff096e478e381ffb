package publications

import (
	"time"

	"github.com/shopspring/decimal"
)

// Publication is a listing authored by a campus user.
type Publication struct {
	ID          string          `json:"id" validate:"required"`
	Title       string          `json:"title" validate:"required"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category,omitempty"`
	Campus      string          `json:"campus,omitempty"`
	Images      []string        `json:"images,omitempty"`
	AuthorID    string          `json:"author_id,omitempty"`
	Status      string          `json:"status,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
