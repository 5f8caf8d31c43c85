package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dodream/cart/internal/domain"
	"github.com/dodream/cart/internal/events"
)

// CartService provides business logic for durable (owner-bound) carts.
type CartService interface {
	GetOrCreateCart(ctx context.Context, ownerID string) (*domain.Cart, error)
	GetCart(ctx context.Context, ownerID string) (*domain.Cart, error)
	DeleteCart(ctx context.Context, cartID int64) error

	ListItems(ctx context.Context, cartID int64) ([]CartItemView, error)
	AddItem(ctx context.Context, cartID, bookID, quantity int64) (*CartItemView, error)
	UpdateItemQuantity(ctx context.Context, cartID, cartItemID, quantity int64) (*CartItemView, error)
	RemoveItem(ctx context.Context, cartID, cartItemID int64) error
	RemoveAllItems(ctx context.Context, cartID int64) error
	RemoveItemByBook(ctx context.Context, cartID, bookID int64) error
	ValidateOrderable(ctx context.Context, cartItemID int64) (bool, error)
}

// CartItemView is a durable cart line joined with catalog display data.
// Title and Stock are nil when the catalog could not resolve the book.
type CartItemView struct {
	CartItemID int64   `json:"cartItemId"`
	BookID     int64   `json:"bookId"`
	Quantity   int64   `json:"quantity"`
	SalePrice  int64   `json:"salePrice"`
	Available  bool    `json:"available"`
	Title      *string `json:"title"`
	Stock      *int64  `json:"stock"`
}

type cartService struct {
	repo      domain.CartRepository
	pricing   domain.PricingLookup
	publisher events.Publisher
	logger    *slog.Logger
}

// NewCartService creates a new CartService instance.
func NewCartService(repo domain.CartRepository, pricing domain.PricingLookup, publisher events.Publisher, logger *slog.Logger) CartService {
	return &cartService{
		repo:      repo,
		pricing:   pricing,
		publisher: publisher,
		logger:    logger,
	}
}

// GetOrCreateCart returns the owner's cart, creating it lazily on first
// access. A concurrent create for the same owner is resolved inside the
// repository by re-reading the winning row.
func (s *cartService) GetOrCreateCart(ctx context.Context, ownerID string) (*domain.Cart, error) {
	if ownerID == "" {
		return nil, ErrMissingIdentifier
	}

	cart, err := s.repo.FindByOwner(ctx, ownerID)
	if errors.Is(err, domain.ErrCartNotFound) {
		return s.repo.Create(ctx, ownerID)
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// GetCart returns the owner's cart, or ErrCartNotFound.
func (s *cartService) GetCart(ctx context.Context, ownerID string) (*domain.Cart, error) {
	if ownerID == "" {
		return nil, ErrMissingIdentifier
	}
	return s.repo.FindByOwner(ctx, ownerID)
}

// DeleteCart removes a cart and, via cascade, all of its lines.
func (s *cartService) DeleteCart(ctx context.Context, cartID int64) error {
	return s.repo.Delete(ctx, cartID)
}

// ListItems returns all lines joined against the catalog in one batch call.
// Lines whose book the catalog cannot resolve keep nil display fields.
func (s *cartService) ListItems(ctx context.Context, cartID int64) ([]CartItemView, error) {
	lines, err := s.repo.ListLines(ctx, cartID)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.BookID)
	}

	books, err := s.pricing.ResolveBatch(ctx, ids)
	if err != nil {
		s.logger.Warn("cart items: book lookup failed, degrading to bare lines",
			"cart_id", cartID, "error", err)
		books = nil
	}

	views := make([]CartItemView, 0, len(lines))
	for _, line := range lines {
		views = append(views, newCartItemView(line, books))
	}
	return views, nil
}

// AddItem adds a book to the cart. An existing line for the same book is
// topped up; a new line stores the catalog's current sale price and
// availability. Durable quantities have no upper cap.
func (s *cartService) AddItem(ctx context.Context, cartID, bookID, quantity int64) (*CartItemView, error) {
	if quantity <= 0 || bookID <= 0 {
		return nil, ErrInvalidQuantity
	}

	book, err := s.resolveBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	line, err := s.repo.FindLine(ctx, cartID, bookID)
	if err == nil {
		quantity += line.Quantity
	} else if !errors.Is(err, domain.ErrCartItemNotFound) {
		return nil, err
	}

	saved, err := s.repo.UpsertLine(ctx, domain.CartItem{
		CartID:    cartID,
		BookID:    bookID,
		Quantity:  quantity,
		SalePrice: book.SalePrice,
		Available: book.Orderable(quantity),
	})
	if err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(ctx, events.SubjectItemAdded, events.ItemAdded{
		CartID:   cartID,
		BookID:   bookID,
		Quantity: saved.Quantity,
		AddedAt:  time.Now().UTC(),
	}); err != nil {
		s.logger.Warn("cart items: failed to publish cart.item_added", "cart_id", cartID, "error", err)
	}

	view := viewWithBook(*saved, book)
	return &view, nil
}

// UpdateItemQuantity overwrites a line's quantity and refreshes its stored
// price and availability from the catalog.
func (s *cartService) UpdateItemQuantity(ctx context.Context, cartID, cartItemID, quantity int64) (*CartItemView, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	line, err := s.repo.FindLineByID(ctx, cartItemID)
	if err != nil {
		return nil, err
	}
	if line.CartID != cartID {
		return nil, fmt.Errorf("line %d does not belong to cart %d: %w", cartItemID, cartID, domain.ErrCartItemNotFound)
	}

	book, err := s.resolveBook(ctx, line.BookID)
	if err != nil {
		return nil, err
	}

	saved, err := s.repo.UpsertLine(ctx, domain.CartItem{
		CartID:    line.CartID,
		BookID:    line.BookID,
		Quantity:  quantity,
		SalePrice: book.SalePrice,
		Available: book.Orderable(quantity),
	})
	if err != nil {
		return nil, err
	}

	view := viewWithBook(*saved, book)
	return &view, nil
}

// RemoveItem deletes a single line by id, verifying cart membership.
func (s *cartService) RemoveItem(ctx context.Context, cartID, cartItemID int64) error {
	line, err := s.repo.FindLineByID(ctx, cartItemID)
	if err != nil {
		return err
	}
	if line.CartID != cartID {
		return fmt.Errorf("line %d does not belong to cart %d: %w", cartItemID, cartID, domain.ErrCartItemNotFound)
	}
	return s.repo.DeleteLine(ctx, cartItemID)
}

// RemoveAllItems clears a cart. An already-empty cart is a not-found error,
// so callers can distinguish "cleared" from "nothing there".
func (s *cartService) RemoveAllItems(ctx context.Context, cartID int64) error {
	deleted, err := s.repo.DeleteLines(ctx, cartID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return fmt.Errorf("no lines to remove for cart %d: %w", cartID, domain.ErrCartItemNotFound)
	}
	return nil
}

// RemoveItemByBook deletes the line holding a given book.
func (s *cartService) RemoveItemByBook(ctx context.Context, cartID, bookID int64) error {
	return s.repo.DeleteLineByBook(ctx, cartID, bookID)
}

// ValidateOrderable reports whether a line's quantity can currently be
// ordered according to the catalog.
func (s *cartService) ValidateOrderable(ctx context.Context, cartItemID int64) (bool, error) {
	line, err := s.repo.FindLineByID(ctx, cartItemID)
	if err != nil {
		return false, err
	}

	book, err := s.resolveBook(ctx, line.BookID)
	if err != nil {
		return false, err
	}
	return book.Orderable(line.Quantity), nil
}

// resolveBook fetches a single book through the batch lookup. Unlike guest
// cart rendering, durable item operations need the price, so a lookup
// failure here is an error.
func (s *cartService) resolveBook(ctx context.Context, bookID int64) (domain.Book, error) {
	books, err := s.pricing.ResolveBatch(ctx, []int64{bookID})
	if err != nil {
		return domain.Book{}, fmt.Errorf("book lookup failed: %w: %w", ErrPricingUnavailable, err)
	}
	book, ok := books[bookID]
	if !ok {
		return domain.Book{}, fmt.Errorf("book %d: %w", bookID, ErrBookNotFound)
	}
	return book, nil
}

func newCartItemView(line domain.CartItem, books map[int64]domain.Book) CartItemView {
	view := CartItemView{
		CartItemID: line.CartItemID,
		BookID:     line.BookID,
		Quantity:   line.Quantity,
		SalePrice:  line.SalePrice,
		Available:  line.Available,
	}
	if book, ok := books[line.BookID]; ok {
		title := book.Title
		view.Title = &title
		view.Stock = book.Stock
	}
	return view
}

func viewWithBook(line domain.CartItem, book domain.Book) CartItemView {
	title := book.Title
	return CartItemView{
		CartItemID: line.CartItemID,
		BookID:     line.BookID,
		Quantity:   line.Quantity,
		SalePrice:  line.SalePrice,
		Available:  line.Available,
		Title:      &title,
		Stock:      book.Stock,
	}
}
