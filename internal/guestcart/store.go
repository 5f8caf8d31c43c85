// Package guestcart keeps anonymous shoppers' carts in a TTL-bound cache.
//
// A guest cart is a single serialized aggregate per guest identity. The store
// enforces capacity on the write side so the stored value is always valid,
// and resets the TTL on every write so an actively-shopped cart never expires
// mid-session while an abandoned one ages out.
package guestcart

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/dodream/cart/internal/domain"
)

const defaultKeyPrefix = "guest_cart:"

// Config holds the injected guest cart policy.
type Config struct {
	KeyPrefix   string
	TTL         time.Duration
	MaxItems    int
	MaxQuantity int64
}

// Store implements domain.GuestCartStore on a KV cache.
type Store struct {
	kv      KV
	pricing domain.PricingLookup
	cfg     Config
	logger  *slog.Logger
}

// New creates a guest cart store.
func New(kv KV, pricing domain.PricingLookup, cfg Config, logger *slog.Logger) *Store {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaultKeyPrefix
	}
	return &Store{
		kv:      kv,
		pricing: pricing,
		cfg:     cfg,
		logger:  logger,
	}
}

// Get returns the stored cart, or a fresh empty one if none exists.
// An absent cart is never an error.
func (s *Store) Get(ctx context.Context, guestID string) (*domain.GuestCart, error) {
	return s.fetch(ctx, guestID)
}

// AddItem adds quantity of a book to the cart.
//
// An existing line is topped up and capped at MaxQuantity. A new line is
// rejected with ErrCapacityExceeded when the cart already holds MaxItems
// distinct books; otherwise it is inserted with the requested quantity,
// capped at MaxQuantity.
func (s *Store) AddItem(ctx context.Context, guestID string, bookID, quantity int64) (*domain.GuestCart, error) {
	if quantity <= 0 || bookID <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	cart, err := s.fetch(ctx, guestID)
	if err != nil {
		return nil, err
	}

	if line := cart.Find(bookID); line != nil {
		line.Quantity = min(line.Quantity+quantity, s.cfg.MaxQuantity)
	} else {
		if len(cart.Items) >= s.cfg.MaxItems {
			return nil, domain.ErrCapacityExceeded
		}
		cart.Items = append(cart.Items, domain.GuestCartItem{
			BookID:   bookID,
			Quantity: min(quantity, s.cfg.MaxQuantity),
		})
	}

	if err := s.save(ctx, guestID, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// SetQuantity overwrites the quantity of an existing line.
func (s *Store) SetQuantity(ctx context.Context, guestID string, bookID, quantity int64) (*domain.GuestCart, error) {
	if quantity < 1 || quantity > s.cfg.MaxQuantity {
		return nil, domain.ErrInvalidQuantity
	}

	cart, err := s.fetch(ctx, guestID)
	if err != nil {
		return nil, err
	}

	line := cart.Find(bookID)
	if line == nil {
		return nil, domain.ErrCartItemNotFound
	}
	line.Quantity = quantity

	if err := s.save(ctx, guestID, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveItem deletes a line. Removing an absent line is a no-op, not an
// error; the aggregate is rewritten either way so the TTL resets.
func (s *Store) RemoveItem(ctx context.Context, guestID string, bookID int64) (*domain.GuestCart, error) {
	cart, err := s.fetch(ctx, guestID)
	if err != nil {
		return nil, err
	}

	kept := cart.Items[:0]
	for _, item := range cart.Items {
		if item.BookID != bookID {
			kept = append(kept, item)
		}
	}
	cart.Items = kept

	if err := s.save(ctx, guestID, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Delete removes the cart key unconditionally and reports whether a key
// existed. The cache's answer is authoritative; it is not re-checked.
func (s *Store) Delete(ctx context.Context, guestID string) (bool, error) {
	existed, err := s.kv.Del(ctx, s.key(guestID))
	if err != nil {
		return false, domain.Internal(err, "guestcart.delete", "failed to delete guest cart")
	}
	return existed, nil
}

// Render joins the stored cart against the catalog in one batch call.
// A failed or partial lookup degrades the affected lines to nil display
// fields instead of failing the render.
func (s *Store) Render(ctx context.Context, guestID string) (*domain.RenderedCart, error) {
	cart, err := s.fetch(ctx, guestID)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.BookID)
	}

	books, err := s.pricing.ResolveBatch(ctx, ids)
	if err != nil {
		s.logger.Warn("guest cart render: book lookup failed, degrading to bare lines",
			"guest_id", guestID, "error", err)
		books = nil
	}

	rendered := &domain.RenderedCart{
		GuestID: cart.GuestID,
		Items:   make([]domain.RenderedItem, 0, len(cart.Items)),
	}
	for _, item := range cart.Items {
		line := domain.RenderedItem{BookID: item.BookID, Quantity: item.Quantity}
		if book, ok := books[item.BookID]; ok {
			title := book.Title
			price := book.SalePrice
			line.Title = &title
			line.SalePrice = &price
			line.Stock = book.Stock
		}
		rendered.Items = append(rendered.Items, line)
	}

	return rendered, nil
}

func (s *Store) key(guestID string) string {
	return s.cfg.KeyPrefix + guestID
}

func (s *Store) fetch(ctx context.Context, guestID string) (*domain.GuestCart, error) {
	raw, ok, err := s.kv.Get(ctx, s.key(guestID))
	if err != nil {
		return nil, domain.Internal(err, "guestcart.get", "failed to read guest cart")
	}
	if !ok {
		return &domain.GuestCart{GuestID: guestID, Items: []domain.GuestCartItem{}}, nil
	}

	var cart domain.GuestCart
	if err := json.Unmarshal(raw, &cart); err != nil {
		return nil, domain.Internal(err, "guestcart.get", "corrupt guest cart payload")
	}
	return &cart, nil
}

func (s *Store) save(ctx context.Context, guestID string, cart *domain.GuestCart) error {
	cart.GuestID = guestID
	raw, err := json.Marshal(cart)
	if err != nil {
		return domain.Internal(err, "guestcart.save", "failed to encode guest cart")
	}
	if err := s.kv.Set(ctx, s.key(guestID), raw, s.cfg.TTL); err != nil {
		return domain.Internal(err, "guestcart.save", "failed to write guest cart")
	}
	return nil
}
