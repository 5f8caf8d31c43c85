package domain

import (
	"context"
)

// =============================================================================
// CART DOMAIN ERRORS
// =============================================================================

var (
	ErrCartNotFound     = &Error{Code: ENOTFOUND, Message: "Cart not found"}
	ErrCartItemNotFound = &Error{Code: ENOTFOUND, Message: "Cart item not found"}
	ErrInvalidQuantity  = &Error{Code: EINVALID, Message: "Quantity is out of the allowed range"}
	ErrCapacityExceeded = &Error{Code: ECONFLICT, Message: "Cart holds the maximum number of items"}

	// ErrMissingIdentifier is returned before any store is touched when a
	// required identity argument is blank.
	ErrMissingIdentifier = &Error{Code: EINVALID, Message: "Both ownerId and guestId must be provided"}

	// ErrPricingUnavailable aborts a merge when the book service fails or
	// omits a book the guest cart references.
	ErrPricingUnavailable = &Error{Code: EUNAVAILABLE, Message: "Book pricing is unavailable"}
)

// =============================================================================
// GUEST CART (ephemeral, cache-backed)
// =============================================================================

// GuestCart is the anonymous shopper's cart. It lives in the cache under the
// guest identity and is lost on TTL expiry; guest carts are best-effort.
type GuestCart struct {
	GuestID string          `json:"guestId"`
	Items   []GuestCartItem `json:"items"`
}

// GuestCartItem is one line of a guest cart, unique per book.
type GuestCartItem struct {
	BookID   int64 `json:"bookId"`
	Quantity int64 `json:"quantity"`
}

// Find returns a pointer into Items for the given book, or nil.
func (c *GuestCart) Find(bookID int64) *GuestCartItem {
	for i := range c.Items {
		if c.Items[i].BookID == bookID {
			return &c.Items[i]
		}
	}
	return nil
}

// Empty reports whether the cart has no lines.
func (c *GuestCart) Empty() bool {
	return c == nil || len(c.Items) == 0
}

// GuestCartStore manages guest carts in the cache.
// Get never fails for an absent cart; it returns a fresh empty aggregate.
// Every mutation rewrites the whole aggregate and resets its TTL.
type GuestCartStore interface {
	Get(ctx context.Context, guestID string) (*GuestCart, error)
	AddItem(ctx context.Context, guestID string, bookID, quantity int64) (*GuestCart, error)
	SetQuantity(ctx context.Context, guestID string, bookID, quantity int64) (*GuestCart, error)
	RemoveItem(ctx context.Context, guestID string, bookID int64) (*GuestCart, error)

	// Delete removes the cart key unconditionally and reports whether a key
	// actually existed.
	Delete(ctx context.Context, guestID string) (bool, error)

	// Render joins the stored cart against the catalog in one batch call.
	// Lines whose book the catalog fails to resolve keep nil display fields;
	// a catalog outage never fails the render.
	Render(ctx context.Context, guestID string) (*RenderedCart, error)
}

// RenderedCart is a guest cart joined with catalog data for display.
type RenderedCart struct {
	GuestID string         `json:"guestId"`
	Items   []RenderedItem `json:"items"`
}

// RenderedItem carries display fields resolved from the catalog.
// Pointer fields are nil when the catalog could not resolve the book.
type RenderedItem struct {
	BookID    int64   `json:"bookId"`
	Quantity  int64   `json:"quantity"`
	Title     *string `json:"title"`
	SalePrice *int64  `json:"salePrice"`
	Stock     *int64  `json:"stock"`
}

// =============================================================================
// DURABLE CART (relational)
// =============================================================================

// Cart is the persistent cart tied to a registered owner identity.
type Cart struct {
	CartID  int64  `json:"cartId"`
	OwnerID string `json:"ownerId"`
}

// CartItem is one durable cart line, unique per (cartId, bookId).
// Durable quantities have no upper cap, unlike guest cart lines.
type CartItem struct {
	CartItemID int64 `json:"cartItemId"`
	CartID     int64 `json:"cartId"`
	BookID     int64 `json:"bookId"`
	Quantity   int64 `json:"quantity"`
	SalePrice  int64 `json:"salePrice"`
	Available  bool  `json:"available"`
}

// CartRepository is the relational persistence port for durable carts.
// Lookup methods return ErrCartNotFound / ErrCartItemNotFound (wrapped) when
// the row is absent.
type CartRepository interface {
	FindByOwner(ctx context.Context, ownerID string) (*Cart, error)
	Create(ctx context.Context, ownerID string) (*Cart, error)
	Delete(ctx context.Context, cartID int64) error
	Exists(ctx context.Context, cartID int64) (bool, error)

	FindLine(ctx context.Context, cartID, bookID int64) (*CartItem, error)
	FindLineByID(ctx context.Context, cartItemID int64) (*CartItem, error)
	ListLines(ctx context.Context, cartID int64) ([]CartItem, error)

	// UpsertLine inserts the line or, when (cartID, bookID) already exists,
	// overwrites its quantity, price and availability.
	UpsertLine(ctx context.Context, line CartItem) (*CartItem, error)

	DeleteLine(ctx context.Context, cartItemID int64) error
	DeleteLines(ctx context.Context, cartID int64) (int64, error)
	DeleteLineByBook(ctx context.Context, cartID, bookID int64) error
}
