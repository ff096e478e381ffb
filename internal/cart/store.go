// Package cart holds the shopper's cart lines and mirrors them to durable
// storage after every mutation.
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/angelmondragon/campusmarket-client/pkg/kv"
	"github.com/angelmondragon/campusmarket-client/pkg/logger"
	"github.com/shopspring/decimal"
)

// Store is the process-wide cart. It is safe for concurrent use; mutations
// and their persistence are serialized.
type Store struct {
	storage kv.Store
	logg    *logger.Logger

	mu     sync.Mutex
	items  []Item
	isOpen bool
}

// NewStore builds a cart and hydrates it from storage. Missing or corrupt
// data yields an empty cart; the read failure is logged, never returned.
func NewStore(ctx context.Context, storage kv.Store, logg *logger.Logger) (*Store, error) {
	if storage == nil {
		return nil, fmt.Errorf("cart storage required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	s := &Store{storage: storage, logg: logg}
	s.items = s.hydrate(ctx)
	return s, nil
}

func (s *Store) hydrate(ctx context.Context) []Item {
	ctx = s.logg.WithOperation(ctx, "cart.hydrate")
	raw, ok, err := s.storage.Get(ctx, StorageKey)
	if err != nil {
		s.logg.Error(ctx, "cart.hydrate.read_failed", err)
		return nil
	}
	if !ok || raw == "" {
		return nil
	}

	var stored []Item
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart.hydrate.corrupt")
		return nil
	}

	seen := make(map[string]struct{}, len(stored))
	items := make([]Item, 0, len(stored))
	for _, item := range stored {
		if _, dup := seen[item.ProductID]; dup || !item.valid() {
			s.logg.Warn(s.logg.WithField(ctx, "product_id", item.ProductID), "cart.hydrate.line_dropped")
			continue
		}
		seen[item.ProductID] = struct{}{}
		items = append(items, item)
	}
	return items
}

// AddToCart adds one unit of p. An existing line grows by one unless that
// would pass its stock ceiling; a new line starts at one with a ceiling taken
// from p.AvailableQuantity (1 when unknown). A successful add opens the cart.
func (s *Store) AddToCart(ctx context.Context, p Product) (bool, error) {
	if p.ID == "" {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := s.indexOf(p.ID); idx >= 0 {
		line := &s.items[idx]
		if line.Quantity+1 > line.StockCeiling {
			return false, nil
		}
		line.Quantity++
	} else {
		ceiling := p.AvailableQuantity
		if ceiling <= 0 {
			ceiling = 1
		}
		s.items = append(s.items, Item{
			ProductID:    p.ID,
			Name:         p.Name,
			UnitPrice:    p.Price,
			Image:        p.Image,
			Quantity:     1,
			StockCeiling: ceiling,
		})
	}
	s.isOpen = true
	return true, s.persist(ctx)
}

// RemoveFromCart deletes the line for productID; absent ids are a no-op.
func (s *Store) RemoveFromCart(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(productID)
	if idx < 0 {
		return nil
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	return s.persist(ctx)
}

// UpdateQuantity shifts a line's quantity by delta. Results outside
// [1, StockCeiling] are rejected and leave the line unchanged.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, delta int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(productID)
	if idx < 0 || delta == 0 {
		return false, nil
	}
	line := &s.items[idx]
	next := line.Quantity + delta
	if next < 1 || next > line.StockCeiling {
		return false, nil
	}
	line.Quantity = next
	return true, s.persist(ctx)
}

// ClearCart empties the cart.
func (s *Store) ClearCart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	return s.persist(ctx)
}

// Items returns the lines in insertion order.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Item(nil), s.items...)
}

// Total is the sum of unit price times quantity.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return total(s.items)
}

// Count is the sum of quantities.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return count(s.items)
}

func (s *Store) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isOpen
}

func (s *Store) SetOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isOpen = open
}

// ToggleCart flips visibility and returns the new value.
func (s *Store) ToggleCart() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isOpen = !s.isOpen
	return s.isOpen
}

// View returns the items together with the derived fields.
func (s *Store) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := append([]Item{}, s.items...)
	return View{Items: items, Total: total(items), Count: count(items), IsOpen: s.isOpen}
}

func (s *Store) indexOf(productID string) int {
	for i := range s.items {
		if s.items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// persist writes the whole cart. Callers hold s.mu. The in-memory change
// stays applied when the write fails.
func (s *Store) persist(ctx context.Context) error {
	items := s.items
	if items == nil {
		items = []Item{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.storage.Set(ctx, StorageKey, string(payload)); err != nil {
		s.logg.Error(s.logg.WithOperation(ctx, "cart.persist"), "cart.persist.failed", err)
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}

func total(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Subtotal())
	}
	return sum
}

func count(items []Item) int {
	n := 0
	for _, item := range items {
		n += item.Quantity
	}
	return n
}
